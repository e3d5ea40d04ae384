package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tesseract-network/tesseractd/internal/core/application"
	"github.com/tesseract-network/tesseractd/internal/core/domain"
	"github.com/tesseract-network/tesseractd/internal/core/ports"
	systemclock "github.com/tesseract-network/tesseractd/internal/infrastructure/chain-clock/system"
	"github.com/tesseract-network/tesseractd/internal/infrastructure/db"
	timescheduler "github.com/tesseract-network/tesseractd/internal/infrastructure/scheduler/gocron"
	staticoracle "github.com/tesseract-network/tesseractd/internal/infrastructure/stake-oracle/static"
)

var (
	supportedEventDbs = supportedType{
		"badger": {},
	}
	supportedDbs = supportedType{
		"badger": {},
	}
	supportedSchedulers = supportedType{
		"gocron": {},
	}
	supportedStakeOracles = supportedType{
		"static": {},
	}
)

type Config struct {
	Datadir     string
	GatewayAddr string
	LogLevel    int

	DbType      string
	EventDbType string
	DbDir       string
	EventDbDir  string

	SchedulerType   string
	StakeOracleType string

	OwnerAccount      string
	SettlementAccount string

	Genesis       int64
	BlockInterval int64

	CoordinationWindow      int64
	MaxPayloadSize          int
	CircuitBreakerThreshold uint64
	ProtocolFeeBps          uint64

	DiscountedAccounts []string

	repo        ports.RepoManager
	clock       ports.ChainClock
	scheduler   ports.SchedulerService
	stakeOracle ports.StakeOracle
	buffer      application.BufferService
	coordinator application.CoordinatorService
}

func (c *Config) String() string {
	json, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	Datadir                 = "DATADIR"
	GatewayAddr             = "GATEWAY_ADDR"
	LogLevel                = "LOG_LEVEL"
	EventDbType             = "EVENT_DB_TYPE"
	DbType                  = "DB_TYPE"
	SchedulerType           = "SCHEDULER_TYPE"
	StakeOracleType         = "STAKE_ORACLE_TYPE"
	OwnerAccount            = "OWNER_ACCOUNT"
	SettlementAccount       = "SETTLEMENT_ACCOUNT"
	Genesis                 = "GENESIS"
	BlockInterval           = "BLOCK_INTERVAL"
	CoordinationWindow      = "COORDINATION_WINDOW"
	MaxPayloadSize          = "MAX_PAYLOAD_SIZE"
	CircuitBreakerThreshold = "CIRCUIT_BREAKER_THRESHOLD"
	ProtocolFeeBps          = "PROTOCOL_FEE_BPS"
	DiscountedAccounts      = "DISCOUNTED_ACCOUNTS"

	defaultDatadir            = appDataDir("tesseractd")
	defaultGatewayAddr        = ":7171"
	defaultLogLevel           = 4
	defaultDbType             = "badger"
	defaultEventDbType        = "badger"
	defaultSchedulerType      = "gocron"
	defaultStakeOracleType    = "static"
	defaultBlockInterval      = int64(2)
	defaultCoordinationWindow = domain.DefaultCoordinationWindow
	defaultMaxPayloadSize     = domain.DefaultMaxPayloadSize
	defaultBreakerThreshold   = domain.DefaultBreakerThreshold
	defaultProtocolFeeBps     = domain.DefaultProtocolFeeBps
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("TESSERACT")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(GatewayAddr, defaultGatewayAddr)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(DbType, defaultDbType)
	viper.SetDefault(EventDbType, defaultEventDbType)
	viper.SetDefault(SchedulerType, defaultSchedulerType)
	viper.SetDefault(StakeOracleType, defaultStakeOracleType)
	viper.SetDefault(BlockInterval, defaultBlockInterval)
	viper.SetDefault(CoordinationWindow, defaultCoordinationWindow)
	viper.SetDefault(MaxPayloadSize, defaultMaxPayloadSize)
	viper.SetDefault(CircuitBreakerThreshold, defaultBreakerThreshold)
	viper.SetDefault(ProtocolFeeBps, defaultProtocolFeeBps)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	dbPath := filepath.Join(viper.GetString(Datadir), "db")

	return &Config{
		Datadir:                 viper.GetString(Datadir),
		GatewayAddr:             viper.GetString(GatewayAddr),
		LogLevel:                viper.GetInt(LogLevel),
		DbType:                  viper.GetString(DbType),
		EventDbType:             viper.GetString(EventDbType),
		DbDir:                   dbPath,
		EventDbDir:              dbPath,
		SchedulerType:           viper.GetString(SchedulerType),
		StakeOracleType:         viper.GetString(StakeOracleType),
		OwnerAccount:            viper.GetString(OwnerAccount),
		SettlementAccount:       viper.GetString(SettlementAccount),
		Genesis:                 viper.GetInt64(Genesis),
		BlockInterval:           viper.GetInt64(BlockInterval),
		CoordinationWindow:      viper.GetInt64(CoordinationWindow),
		MaxPayloadSize:          viper.GetInt(MaxPayloadSize),
		CircuitBreakerThreshold: viper.GetUint64(CircuitBreakerThreshold),
		ProtocolFeeBps:          viper.GetUint64(ProtocolFeeBps),
		DiscountedAccounts:      viper.GetStringSlice(DiscountedAccounts),
	}, nil
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func appDataDir(appName string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(home, "."+appName)
}

func (c *Config) Validate() error {
	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf(
			"event db type not supported, please select one of: %s", supportedEventDbs,
		)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedSchedulers.supports(c.SchedulerType) {
		return fmt.Errorf(
			"scheduler type not supported, please select one of: %s", supportedSchedulers,
		)
	}
	if !supportedStakeOracles.supports(c.StakeOracleType) {
		return fmt.Errorf(
			"stake oracle type not supported, please select one of: %s", supportedStakeOracles,
		)
	}
	if len(c.OwnerAccount) == 0 {
		return fmt.Errorf("OWNER_ACCOUNT not provided")
	}
	if len(c.SettlementAccount) == 0 {
		return fmt.Errorf("SETTLEMENT_ACCOUNT not provided")
	}
	if c.BlockInterval <= 0 {
		return fmt.Errorf("invalid block interval, must be at least 1 second")
	}

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.chainClock(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	if err := c.stakeOracleService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) BufferService() (application.BufferService, error) {
	if c.buffer == nil {
		if err := c.bufferService(); err != nil {
			return nil, err
		}
	}
	return c.buffer, nil
}

func (c *Config) CoordinatorService() (application.CoordinatorService, error) {
	if c.coordinator == nil {
		buffer, err := c.BufferService()
		if err != nil {
			return nil, err
		}
		// the coordinator buffers settlement legs under its own identity
		if err := buffer.GrantRole(
			context.Background(), c.OwnerAccount, domain.RoleBuffer, c.SettlementAccount,
		); err != nil {
			return nil, err
		}
		svc := application.NewCoordinatorService(
			c.repo, c.clock, c.stakeOracle, buffer, c.SettlementAccount,
		)
		if err := svc.SetProtocolFee(
			context.Background(), c.OwnerAccount, c.ProtocolFeeBps,
		); err != nil {
			return nil, err
		}
		c.coordinator = svc
	}
	return c.coordinator, nil
}

func (c *Config) RepoManager() ports.RepoManager {
	return c.repo
}

func (c *Config) repoManager() error {
	var eventStoreConfig []interface{}
	var dataStoreConfig []interface{}
	logger := log.New()

	switch c.EventDbType {
	case "badger":
		eventStoreConfig = []interface{}{c.EventDbDir, logger}
	default:
		return fmt.Errorf("unknown event db type")
	}

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		DataStoreType:    c.DbType,
		EventStoreConfig: eventStoreConfig,
		DataStoreConfig:  dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) chainClock() error {
	c.clock = systemclock.NewChainClock(c.Genesis, c.BlockInterval)
	return nil
}

func (c *Config) schedulerService() error {
	switch c.SchedulerType {
	case "gocron":
		c.scheduler = timescheduler.NewScheduler()
	default:
		return fmt.Errorf("unknown scheduler type")
	}
	return nil
}

func (c *Config) stakeOracleService() error {
	switch c.StakeOracleType {
	case "static":
		c.stakeOracle = staticoracle.NewStakeOracle(c.DiscountedAccounts)
	default:
		return fmt.Errorf("unknown stake oracle type")
	}
	return nil
}

func (c *Config) bufferService() error {
	svc, err := application.NewBufferService(
		c.repo, c.clock, c.scheduler, c.OwnerAccount,
	)
	if err != nil {
		return err
	}

	// config is the source of truth for the tunables on boot
	ctx := context.Background()
	if err := svc.SetCoordinationWindow(
		ctx, c.OwnerAccount, c.CoordinationWindow,
	); err != nil {
		return err
	}
	if err := svc.SetMaxPayloadSize(
		ctx, c.OwnerAccount, c.MaxPayloadSize,
	); err != nil {
		return err
	}
	if err := svc.SetCircuitBreakerThreshold(
		ctx, c.OwnerAccount, c.CircuitBreakerThreshold,
	); err != nil {
		return err
	}

	c.buffer = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
