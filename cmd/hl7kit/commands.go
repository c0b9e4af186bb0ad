package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/savegress/hl7kit/internal/config"
	"github.com/savegress/hl7kit/internal/logging"
	"github.com/savegress/hl7kit/pkg/hl7/parser"
)

// app is the state shared by all subcommands once the root pre-run has
// loaded the configuration.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "hl7kit",
		Short: "Read, edit and verify HL7v2 messages",
		Long: `hl7kit works on HL7v2 message files. It prints and edits elements by
path, escapes text for use in field values, creates new messages from
the configured sender identity, and verifies that files survive a
parse/serialize round trip.

Configuration is read from the YAML file named by --config or the
HL7KIT_CONFIG environment variable, otherwise from HL7KIT_* variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newInspectCommand(a),
		newGetCommand(a),
		newSetCommand(a),
		newEscapeCommand(a, false),
		newEscapeCommand(a, true),
		newNewCommand(a),
		newVerifyCommand(a),
	)
	return root
}

func (a *app) load(stderr io.Writer) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.Load(a.configPath)
	} else {
		a.cfg, err = config.Resolve()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	a.logger, err = logging.FromStrings(a.cfg.Log.Level, a.cfg.Log.Format, stderr)
	return err
}

// readMessage parses a file, or standard input when path is "-".
func readMessage(cmd *cobra.Command, path string) (*parser.Element, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return parser.Parse(string(data))
}

// writeMessage prints a message with one segment per line, or unchanged
// when raw is set.
func writeMessage(w io.Writer, text string, raw bool) error {
	if raw {
		_, err := io.WriteString(w, text)
		return err
	}
	_, err := fmt.Fprintln(w, strings.ReplaceAll(text, "\r", "\n"))
	return err
}
