package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/minerbridge.yaml", "serve"})
	require.NoError(t, err)
	require.Equal(t, CommandServe, parsed.Command)
	require.Equal(t, "/tmp/minerbridge.yaml", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantErr   string
		wantCmd   Command
		wantHelp  bool
		wantPath  string
		wantIndex int
	}{
		{name: "help short flag", args: []string{"-h"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "help long flag", args: []string{"--help"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "version flag", args: []string{"--version"}, wantCmd: CommandVersion},
		{name: "config after command", args: []string{"summary", "--config", "/tmp/cfg"}, wantErr: "unexpected arguments after command"},
		{name: "missing config path", args: []string{"--config"}, wantErr: "requires a path"},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: "unknown flag"},
		{name: "unknown command", args: []string{"bogus"}, wantErr: "unknown command"},
		{name: "extra args after command", args: []string{"doctor", "extra"}, wantErr: "unexpected arguments"},
		{name: "gpucount", args: []string{"gpucount"}, wantCmd: CommandGPUCount},
		{name: "gpu with index", args: []string{"gpu", "3"}, wantCmd: CommandGPU, wantIndex: 3},
		{name: "gpu-enable with config", args: []string{"--config", "/tmp/cfg", "gpu-enable", "0"}, wantCmd: CommandGPUEnable, wantPath: "/tmp/cfg"},
		{name: "gpu-disable", args: []string{"gpu-disable", "12"}, wantCmd: CommandGPUDisable, wantIndex: 12},
		{name: "gpu missing index", args: []string{"gpu"}, wantErr: "requires a GPU index"},
		{name: "gpu negative index", args: []string{"gpu", "-1"}, wantErr: "invalid GPU index"},
		{name: "gpu non-numeric index", args: []string{"gpu-enable", "first"}, wantErr: "invalid GPU index"},
		{name: "gpu extra operand", args: []string{"gpu", "1", "2"}, wantErr: "unexpected arguments"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
			require.Equal(t, tc.wantIndex, parsed.Index)
		})
	}
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("minerbridge")
	require.Contains(t, text, "serve")
	require.Contains(t, text, "gpu-enable <index>")
	require.Contains(t, text, "doctor")
	require.Contains(t, text, "--config PATH")
}
