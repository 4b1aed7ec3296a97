// Package cli parses minerbridge command-line arguments.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/minerbridge/internal/minerapi"
)

type Command string

const (
	CommandServe      Command = "serve"
	CommandSummary    Command = "summary"
	CommandGPUCount   Command = "gpucount"
	CommandGPU        Command = "gpu"
	CommandGPUEnable  Command = "gpu-enable"
	CommandGPUDisable Command = "gpu-disable"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandServe:      {},
	CommandSummary:    {},
	CommandGPUCount:   {},
	CommandGPU:        {},
	CommandGPUEnable:  {},
	CommandGPUDisable: {},
	CommandDoctor:     {},
	CommandVersion:    {},
	CommandHelp:       {},
}

// indexedCommands take exactly one GPU index operand.
var indexedCommands = map[Command]struct{}{
	CommandGPU:        {},
	CommandGPUEnable:  {},
	CommandGPUDisable: {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	Index      int
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			if _, ok := indexedCommands[cmd]; ok {
				i++
				if i >= len(args) {
					return Parsed{}, fmt.Errorf("command %q requires a GPU index", arg)
				}
				index, err := minerapi.ParseIndex(args[i])
				if err != nil {
					return Parsed{}, fmt.Errorf("command %q: %w", arg, err)
				}
				parsed.Index = index
			}

			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [index]

Commands:
  serve                 Run the HTTP bridge in front of the miner API
  summary               Print the miner summary
  gpucount              Print the number of GPUs
  gpu <index>           Print details for one GPU
  gpu-enable <index>    Enable one GPU
  gpu-disable <index>   Disable one GPU
  doctor                Run configuration and connectivity checks
  version               Print version information
  help                  Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/minerbridge/config.yaml)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
