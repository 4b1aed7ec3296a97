package minerapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// commandName is the closed set of wire commands this client speaks.
type commandName string

const (
	cmdSummary    commandName = "summary"
	cmdGPU        commandName = "gpu"
	cmdGPUCount   commandName = "gpucount"
	cmdGPUEnable  commandName = "gpuenable"
	cmdGPUDisable commandName = "gpudisable"
)

// Command is one request frame: a wire command name and its parameter.
// Values are only built through the constructors below.
type Command struct {
	name      commandName
	parameter string
}

// Name returns the wire command name.
func (c Command) Name() string { return string(c.name) }

// Parameter returns the wire parameter, empty when the command takes none.
func (c Command) Parameter() string { return c.parameter }

func (c Command) String() string {
	if c.parameter == "" {
		return string(c.name)
	}
	return string(c.name) + "|" + c.parameter
}

// SummaryCommand requests the daemon-wide summary.
func SummaryCommand() Command {
	return Command{name: cmdSummary}
}

// GPUCountCommand requests the number of GPUs the daemon manages.
func GPUCountCommand() Command {
	return Command{name: cmdGPUCount}
}

// GPUCommand requests details for one GPU.
func GPUCommand(index int) (Command, error) {
	return deviceCommand(cmdGPU, index)
}

// GPUEnableCommand asks the daemon to start mining on one GPU.
func GPUEnableCommand(index int) (Command, error) {
	return deviceCommand(cmdGPUEnable, index)
}

// GPUDisableCommand asks the daemon to stop mining on one GPU.
func GPUDisableCommand(index int) (Command, error) {
	return deviceCommand(cmdGPUDisable, index)
}

func deviceCommand(name commandName, index int) (Command, error) {
	if index < 0 {
		return Command{}, fmt.Errorf("%s: gpu index must be >= 0, got %d", name, index)
	}
	return Command{name: name, parameter: strconv.Itoa(index)}, nil
}

// ParseIndex accepts a non-negative decimal GPU index as typed by a user or
// carried in a URL path.
func ParseIndex(raw string) (int, error) {
	if raw == "" || strings.TrimLeft(raw, "0123456789") != "" {
		return 0, fmt.Errorf("invalid GPU index %q: must be a non-negative integer", raw)
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid GPU index %q: out of range", raw)
	}
	return index, nil
}

type wireRequest struct {
	Command    string `json:"command"`
	Parameters string `json:"parameters"`
}

// EncodeCommand renders the request frame. The daemon frames by connection,
// so no trailing delimiter is written.
func EncodeCommand(cmd Command) ([]byte, error) {
	if cmd.name == "" {
		return nil, fmt.Errorf("encode command: empty command name")
	}
	payload, err := json.Marshal(wireRequest{Command: string(cmd.name), Parameters: cmd.parameter})
	if err != nil {
		return nil, fmt.Errorf("encode command %s: %w", cmd, err)
	}
	return payload, nil
}
