package domain

const (
	TransactionTopic = "transaction"
	OrderTopic       = "order"
	SafetyTopic      = "safety"
	AccessTopic      = "access"
)

type Event interface {
	GetTopic() string
}

func (e TransactionBuffered) GetTopic() string { return TransactionTopic }
func (e TransactionRevealed) GetTopic() string { return TransactionTopic }
func (e TransactionGrouped) GetTopic() string  { return TransactionTopic }
func (e TransactionReady) GetTopic() string    { return TransactionTopic }
func (e TransactionExpired) GetTopic() string  { return TransactionTopic }
func (e TransactionExecuted) GetTopic() string { return TransactionTopic }
func (e TransactionFailed) GetTopic() string   { return TransactionTopic }
func (e RefundClaimed) GetTopic() string       { return TransactionTopic }

func (e OrderCreated) GetTopic() string       { return OrderTopic }
func (e OrderTaken) GetTopic() string         { return OrderTopic }
func (e OrderMatched) GetTopic() string       { return OrderTopic }
func (e OrderCancelled) GetTopic() string     { return OrderTopic }
func (e OrderExecuted) GetTopic() string      { return OrderTopic }
func (e OrderFailed) GetTopic() string        { return OrderTopic }
func (e OrderExpired) GetTopic() string       { return OrderTopic }
func (e ProtocolFeeUpdated) GetTopic() string { return OrderTopic }

func (e EmergencyPause) GetTopic() string            { return SafetyTopic }
func (e EmergencyUnpause) GetTopic() string          { return SafetyTopic }
func (e CircuitBreakerTripped) GetTopic() string     { return SafetyTopic }
func (e CircuitBreakerReset) GetTopic() string       { return SafetyTopic }
func (e CoordinationWindowUpdated) GetTopic() string { return SafetyTopic }
func (e MaxPayloadSizeUpdated) GetTopic() string     { return SafetyTopic }
func (e BreakerThresholdUpdated) GetTopic() string   { return SafetyTopic }

func (e RoleGranted) GetTopic() string           { return AccessTopic }
func (e RoleRevoked) GetTopic() string           { return AccessTopic }
func (e OwnershipTransferred) GetTopic() string  { return AccessTopic }
func (e EmergencyAdminChanged) GetTopic() string { return AccessTopic }
