package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

// flags
var (
	urlFlag = &cli.StringFlag{
		Name:  "url",
		Usage: "base url of the daemon gateway",
		Value: "http://localhost:7171",
	}
	callerFlag = &cli.StringFlag{
		Name:  "caller",
		Usage: "account the request acts as",
	}
	roleFlag = &cli.StringFlag{
		Name:     "role",
		Usage:    "role name (ADMIN_ROLE, BUFFER_ROLE, RESOLVE_ROLE)",
		Required: true,
	}
	accountFlag = &cli.StringFlag{
		Name:     "account",
		Usage:    "target account",
		Required: true,
	}
	thresholdFlag = &cli.Uint64Flag{
		Name:     "threshold",
		Usage:    "failure count that trips the circuit breaker",
		Required: true,
	}
	windowFlag = &cli.Int64Flag{
		Name:     "window",
		Usage:    "coordination window in seconds",
		Required: true,
	}
)

// commands
var (
	statusCmd = &cli.Command{
		Name:   "status",
		Usage:  "Get info about the status of the daemon",
		Action: statusAction,
	}
	adminCmd = &cli.Command{
		Name:  "admin",
		Usage: "Manage safety controls",
		Subcommands: append(
			cli.Commands{},
			pauseCmd,
			unpauseCmd,
			resetBreakerCmd,
			setThresholdCmd,
			setWindowCmd,
		),
	}
	pauseCmd = &cli.Command{
		Name:   "pause",
		Usage:  "Halt all state-changing operations",
		Action: pauseAction,
	}
	unpauseCmd = &cli.Command{
		Name:   "unpause",
		Usage:  "Resume operations after a pause",
		Action: unpauseAction,
	}
	resetBreakerCmd = &cli.Command{
		Name:   "reset-breaker",
		Usage:  "Reset the circuit breaker and failure count",
		Action: resetBreakerAction,
	}
	setThresholdCmd = &cli.Command{
		Name:   "set-threshold",
		Usage:  "Set the circuit breaker failure threshold",
		Action: setThresholdAction,
		Flags:  []cli.Flag{thresholdFlag},
	}
	setWindowCmd = &cli.Command{
		Name:   "set-window",
		Usage:  "Set the coordination window",
		Action: setWindowAction,
		Flags:  []cli.Flag{windowFlag},
	}
	rolesCmd = &cli.Command{
		Name:  "roles",
		Usage: "Manage role grants",
		Subcommands: append(
			cli.Commands{},
			grantRoleCmd,
			revokeRoleCmd,
		),
	}
	grantRoleCmd = &cli.Command{
		Name:   "grant",
		Usage:  "Grant a role to an account",
		Action: grantRoleAction,
		Flags:  []cli.Flag{roleFlag, accountFlag},
	}
	revokeRoleCmd = &cli.Command{
		Name:   "revoke",
		Usage:  "Revoke a role from an account",
		Action: revokeRoleAction,
		Flags:  []cli.Flag{roleFlag, accountFlag},
	}
)

func statusAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/status", ctx.String("url"))
	status, err := get(url, ctx.String("caller"))
	if err != nil {
		return err
	}

	fmt.Println(status)
	return nil
}

func pauseAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/admin/pause", ctx.String("url"))
	if err := post(url, "", ctx.String("caller")); err != nil {
		return err
	}

	fmt.Println("paused")
	return nil
}

func unpauseAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/admin/unpause", ctx.String("url"))
	if err := post(url, "", ctx.String("caller")); err != nil {
		return err
	}

	fmt.Println("unpaused")
	return nil
}

func resetBreakerAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/admin/breaker/reset", ctx.String("url"))
	if err := post(url, "", ctx.String("caller")); err != nil {
		return err
	}

	fmt.Println("circuit breaker reset")
	return nil
}

func setThresholdAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/admin/breaker/threshold", ctx.String("url"))
	body := fmt.Sprintf(`{"threshold": %d}`, ctx.Uint64("threshold"))
	if err := put(url, body, ctx.String("caller")); err != nil {
		return err
	}

	fmt.Println("threshold updated")
	return nil
}

func setWindowAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/admin/coordination-window", ctx.String("url"))
	body := fmt.Sprintf(`{"window": %d}`, ctx.Int64("window"))
	if err := put(url, body, ctx.String("caller")); err != nil {
		return err
	}

	fmt.Println("coordination window updated")
	return nil
}

func grantRoleAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/admin/roles/grant", ctx.String("url"))
	body := fmt.Sprintf(
		`{"role": "%s", "account": "%s"}`, ctx.String("role"), ctx.String("account"),
	)
	if err := post(url, body, ctx.String("caller")); err != nil {
		return err
	}

	fmt.Println("role granted")
	return nil
}

func revokeRoleAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/admin/roles/revoke", ctx.String("url"))
	body := fmt.Sprintf(
		`{"role": "%s", "account": "%s"}`, ctx.String("role"), ctx.String("account"),
	)
	if err := post(url, body, ctx.String("caller")); err != nil {
		return err
	}

	fmt.Println("role revoked")
	return nil
}

func get(url, caller string) (string, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", err
	}
	if len(caller) > 0 {
		req.Header.Add("X-Tesseract-Caller", caller)
	}

	buf, err := send(req)
	if err != nil {
		return "", err
	}

	var pretty map[string]interface{}
	if err := json.Unmarshal(buf, &pretty); err != nil {
		return string(buf), nil
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return string(buf), nil
	}
	return string(out), nil
}

func post(url, body, caller string) error {
	req, err := http.NewRequest("POST", url, strings.NewReader(body))
	if err != nil {
		return err
	}
	return sendWithBody(req, caller)
}

func put(url, body, caller string) error {
	req, err := http.NewRequest("PUT", url, strings.NewReader(body))
	if err != nil {
		return err
	}
	return sendWithBody(req, caller)
}

func sendWithBody(req *http.Request, caller string) error {
	req.Header.Add("Content-Type", "application/json")
	if len(caller) > 0 {
		req.Header.Add("X-Tesseract-Caller", caller)
	}

	_, err := send(req)
	return err
}

func send(req *http.Request) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("request failed: %s", strings.TrimSpace(string(buf)))
	}
	return buf, nil
}
