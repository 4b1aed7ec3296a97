// Package minerapi speaks the cgminer/sgminer JSON control API: one TCP
// connection per command, one reply frame per connection.
package minerapi

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Sender performs one raw request/response exchange with the daemon.
type Sender interface {
	Send(ctx context.Context, cmd Command) ([]byte, error)
}

// Ensure Transport implements Sender at compile time.
var _ Sender = (*Transport)(nil)

// Client exposes one method per supported daemon command.
type Client struct {
	sender Sender
	logger *slog.Logger
}

// New builds a Client that dials host:port for every command.
func New(host string, port int, timeout time.Duration, logger *slog.Logger) *Client {
	return NewClient(NewTransport(host, port, timeout), logger)
}

// NewClient builds a Client over an arbitrary Sender.
func NewClient(sender Sender, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{sender: sender, logger: logger}
}

// Summary returns the daemon-wide hashrate summary.
func (c *Client) Summary(ctx context.Context) (SummaryResult, error) {
	env, err := c.exchange(ctx, SummaryCommand())
	if err != nil {
		return SummaryResult{}, err
	}
	items, err := sectionOrEmpty[Summary](env, sectionSummary)
	if err != nil {
		return SummaryResult{}, err
	}
	result := SummaryResult{Status: env.Status}
	if len(items) > 0 {
		result.Summary = &items[0]
	}
	return result, nil
}

// GPU returns the details of the GPU at index.
func (c *Client) GPU(ctx context.Context, index int) (GPUResult, error) {
	cmd, err := GPUCommand(index)
	if err != nil {
		return GPUResult{}, err
	}
	env, err := c.exchange(ctx, cmd)
	if err != nil {
		return GPUResult{}, err
	}
	gpus, err := sectionOrEmpty[GPU](env, sectionGPU)
	if err != nil {
		return GPUResult{}, err
	}
	if err := validateGPUs(gpus); err != nil {
		return GPUResult{}, err
	}
	if gpus == nil {
		gpus = []GPU{}
	}
	return GPUResult{Status: env.Status, GPUs: gpus}, nil
}

// GPUCount returns how many GPUs the daemon manages.
func (c *Client) GPUCount(ctx context.Context) (CountResult, error) {
	env, err := c.exchange(ctx, GPUCountCommand())
	if err != nil {
		return CountResult{}, err
	}
	items, err := sectionOrEmpty[Count](env, sectionGPUs)
	if err != nil {
		return CountResult{}, err
	}
	result := CountResult{Status: env.Status}
	if len(items) > 0 {
		result.Count = &items[0]
	}
	return result, nil
}

// EnableGPU asks the daemon to start the GPU at index and returns its
// acknowledgement.
func (c *Client) EnableGPU(ctx context.Context, index int) (Status, error) {
	cmd, err := GPUEnableCommand(index)
	if err != nil {
		return Status{}, err
	}
	return c.acknowledge(ctx, cmd)
}

// DisableGPU asks the daemon to stop the GPU at index and returns its
// acknowledgement.
func (c *Client) DisableGPU(ctx context.Context, index int) (Status, error) {
	cmd, err := GPUDisableCommand(index)
	if err != nil {
		return Status{}, err
	}
	return c.acknowledge(ctx, cmd)
}

func (c *Client) acknowledge(ctx context.Context, cmd Command) (Status, error) {
	env, err := c.exchange(ctx, cmd)
	if err != nil {
		return Status{}, err
	}
	return env.Status, nil
}

func (c *Client) exchange(ctx context.Context, cmd Command) (Envelope, error) {
	started := time.Now()
	raw, err := c.sender.Send(ctx, cmd)
	if err != nil {
		c.logger.Debug("miner command failed",
			"command", cmd.Name(),
			"parameter", cmd.Parameter(),
			"latency_ms", time.Since(started).Milliseconds(),
			"error", err.Error(),
		)
		return Envelope{}, err
	}

	env, err := DecodeEnvelope(raw)
	if err != nil {
		c.logger.Debug("miner reply rejected",
			"command", cmd.Name(),
			"parameter", cmd.Parameter(),
			"bytes", len(raw),
			"error", err.Error(),
		)
		return Envelope{}, err
	}

	c.logger.Debug("miner command complete",
		"command", cmd.Name(),
		"parameter", cmd.Parameter(),
		"latency_ms", time.Since(started).Milliseconds(),
		"status", env.Status.STATUS,
		"code", env.Status.Code,
	)
	return env, nil
}

// sectionOrEmpty decodes a section, allowing it to be absent only when the
// daemon reported a failure status.
func sectionOrEmpty[T any](env Envelope, name string) ([]T, error) {
	items, err := DecodeSection[T](env, name)
	if err == nil {
		if len(items) == 0 && !env.Status.Failed() {
			return nil, &CodecError{Kind: MissingSection, Section: name}
		}
		return items, nil
	}
	if errors.Is(err, ErrMissingSection) && env.Status.Failed() {
		return nil, nil
	}
	return nil, err
}
