// Package doctor runs readiness diagnostics for config, the miner API, and the
// HTTP listener.
package doctor

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rbright/minerbridge/internal/config"
	"github.com/rbright/minerbridge/internal/minerapi"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Summarizer is the part of minerapi.Client doctor needs.
type Summarizer interface {
	Summary(ctx context.Context) (minerapi.SummaryResult, error)
}

// Run executes config, connectivity, and listener checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded, miner Summarizer) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	endpoint := checkEndpoint(ctx, cfg.Miner)
	checks = append(checks, endpoint)
	if endpoint.Pass {
		checks = append(checks, checkSummary(ctx, miner))
	} else {
		checks = append(checks, Check{Name: "miner.summary", Pass: false, Message: "skipped: miner endpoint unreachable"})
	}

	checks = append(checks, checkListen(cfg.HTTP.Listen))
	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		message = fmt.Sprintf("%q not found; using defaults", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 {
		message += fmt.Sprintf(" (%d warning(s))", n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEndpoint dials the miner API port without sending a command.
func checkEndpoint(ctx context.Context, miner config.MinerConfig) Check {
	addr := net.JoinHostPort(miner.Host, strconv.Itoa(miner.Port))
	dialer := net.Dialer{Timeout: miner.Timeout()}

	started := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Check{Name: "miner.endpoint", Pass: false, Message: fmt.Sprintf("dial %s: %v", addr, err)}
	}
	_ = conn.Close()
	return Check{
		Name:    "miner.endpoint",
		Pass:    true,
		Message: fmt.Sprintf("%s reachable in %s", addr, time.Since(started).Round(time.Millisecond)),
	}
}

// checkSummary issues one summary command and reports the status letter.
func checkSummary(ctx context.Context, miner Summarizer) Check {
	result, err := miner.Summary(ctx)
	if err != nil {
		return Check{Name: "miner.summary", Pass: false, Message: err.Error()}
	}

	status := result.Status
	message := fmt.Sprintf("status %s (code %d): %s", status.STATUS, status.Code, status.Msg)
	if status.Failed() {
		return Check{Name: "miner.summary", Pass: false, Message: message}
	}
	if result.Summary != nil {
		message += fmt.Sprintf(", %.2f MH/s average", result.Summary.MHSAv)
	}
	return Check{Name: "miner.summary", Pass: true, Message: message}
}

// checkListen verifies the bridge address can be bound right now.
func checkListen(addr string) Check {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return Check{Name: "http.listen", Pass: false, Message: fmt.Sprintf("cannot bind %s: %v", addr, err)}
	}
	_ = listener.Close()
	return Check{Name: "http.listen", Pass: true, Message: fmt.Sprintf("%s is bindable", addr)}
}
