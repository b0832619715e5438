// Package cli defines the lara command tree. Parsing only records which
// command was chosen; the app package runs it.
package cli

import (
	"io"

	"github.com/spf13/cobra"
)

type Command string

const (
	CommandTalk    Command = "talk"
	CommandStart   Command = "start"
	CommandStop    Command = "stop"
	CommandReset   Command = "reset"
	CommandToggle  Command = "toggle"
	CommandStatus  Command = "status"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

type Parsed struct {
	Command    Command
	ConfigPath string
	Debug      bool
	ShowHelp   bool
}

var commands = []struct {
	cmd   Command
	short string
}{
	{CommandTalk, "Run the voice session in this terminal"},
	{CommandStart, "Start listening in the running session"},
	{CommandStop, "Stop listening and send what was heard"},
	{CommandReset, "Abandon the current turn"},
	{CommandToggle, "Start listening, or stop when already listening"},
	{CommandStatus, "Print the session status"},
	{CommandDevices, "List available input devices"},
	{CommandDoctor, "Run configuration and environment checks"},
	{CommandVersion, "Print version information"},
}

// Parse resolves args into a command without running it.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	root := newRoot("lara", &parsed)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		return Parsed{}, err
	}
	return parsed, nil
}

// HelpText renders usage for binaryName.
func HelpText(binaryName string) string {
	root := newRoot(binaryName, &Parsed{})
	return root.Long + "\n\n" + root.UsageString()
}

func newRoot(binaryName string, parsed *Parsed) *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   binaryName,
		Short: "Voice conversations with a chat model",
		Long: binaryName + ` listens to the microphone, shows the live transcript, sends the
finished utterance to a chat model, and speaks the reply.

Run "` + binaryName + ` talk" in a terminal. start, stop, reset and toggle drive that
session from elsewhere, e.g. a desktop hotkey.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(*cobra.Command, []string) error {
			if showVersion {
				parsed.Command = CommandVersion
				parsed.ShowHelp = false
			}
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVar(&showVersion, "version", false, "Show version")
	root.PersistentFlags().StringVar(&parsed.ConfigPath, "config", "", "Config file path (default: $XDG_CONFIG_HOME/lara/config.jsonc)")
	root.PersistentFlags().BoolVar(&parsed.Debug, "debug", false, "Log at debug level")

	for _, c := range commands {
		cmd := c.cmd
		root.AddCommand(&cobra.Command{
			Use:   string(cmd),
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				parsed.Command = cmd
				parsed.ShowHelp = false
				return nil
			},
		})
	}
	return root
}
