// Package app dispatches minerbridge commands.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbright/minerbridge/internal/cli"
	"github.com/rbright/minerbridge/internal/config"
	"github.com/rbright/minerbridge/internal/doctor"
	"github.com/rbright/minerbridge/internal/httpapi"
	"github.com/rbright/minerbridge/internal/logging"
	"github.com/rbright/minerbridge/internal/minerapi"
	"github.com/rbright/minerbridge/internal/version"
)

const binaryName = "minerbridge"

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	cfg := cfgLoaded.Config

	logRuntime, err := logging.New(logging.Options{Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
		"miner", fmt.Sprintf("%s:%d", cfg.Miner.Host, cfg.Miner.Port),
	)

	client := minerapi.New(cfg.Miner.Host, cfg.Miner.Port, cfg.Miner.Timeout(), logger)

	switch parsed.Command {
	case cli.CommandServe:
		return r.commandServe(ctx, cfg, client, logger)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded, client)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandSummary:
		result, err := client.Summary(ctx)
		return r.printResult(result, result.Status, err)
	case cli.CommandGPUCount:
		result, err := client.GPUCount(ctx)
		return r.printResult(result, result.Status, err)
	case cli.CommandGPU:
		result, err := client.GPU(ctx, parsed.Index)
		return r.printResult(result, result.Status, err)
	case cli.CommandGPUEnable:
		status, err := client.EnableGPU(ctx, parsed.Index)
		return r.printResult(status, status, err)
	case cli.CommandGPUDisable:
		status, err := client.DisableGPU(ctx, parsed.Index)
		return r.printResult(status, status, err)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandServe probes the miner, then runs the HTTP bridge until ctx ends.
func (r Runner) commandServe(ctx context.Context, cfg config.Config, client *minerapi.Client, logger *slog.Logger) int {
	if cfg.StartupProbe {
		result, err := client.Summary(ctx)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: startup probe: %v\n", err)
			logger.Error("startup probe failed", "error", err.Error())
			return 1
		}
		if result.Status.Failed() {
			logger.Warn("startup probe rejected by miner",
				"status", result.Status.STATUS,
				"code", result.Status.Code,
				"msg", result.Status.Msg,
			)
		} else {
			logger.Info("startup probe ok", "status", result.Status.STATUS)
		}
	}

	server := httpapi.NewServer(client, httpapi.OptionsFromConfig(cfg.HTTP, logger))
	if err := server.Run(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("http bridge failed", "error", err.Error())
		return 1
	}
	return 0
}

// printResult writes value as indented JSON. Transport failures and
// daemon-reported errors exit non-zero.
func (r Runner) printResult(value any, status minerapi.Status, err error) int {
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	encoder := json.NewEncoder(r.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		fmt.Fprintf(r.Stderr, "error: write result: %v\n", err)
		return 1
	}

	if status.Failed() {
		fmt.Fprintf(r.Stderr, "error: miner reported %s (code %d): %s\n", status.STATUS, status.Code, status.Msg)
		return 1
	}
	return 0
}
