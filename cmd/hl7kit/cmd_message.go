package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/savegress/hl7kit/pkg/hl7"
	"github.com/savegress/hl7kit/pkg/hl7/builder"
	"github.com/savegress/hl7kit/pkg/hl7/inspect"
	"github.com/savegress/hl7kit/pkg/hl7/parser"
)

func newInspectCommand(a *app) *cobra.Command {
	var deep, formatted bool
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "List the header summary and every populated field of a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := readMessage(cmd, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			typ := string(inspect.MessageType(msg))
			if ev := inspect.TriggerEvent(msg); ev != "" {
				typ += string(msg.Encoding().Component) + string(ev)
			}
			fmt.Fprintf(w, "type\t%s\n", typ)
			fmt.Fprintf(w, "control_id\t%s\n", inspect.ControlID(msg))
			fmt.Fprintf(w, "version\t%s\n", inspect.Version(msg))
			if ts, err := inspect.Timestamp(msg); err == nil && !ts.IsZero() {
				fmt.Fprintf(w, "timestamp\t%s\n", ts.Format(time.RFC3339))
			}
			fmt.Fprintf(w, "segments\t%d\n", msg.Count())

			for _, seg := range msg.Segments() {
				for i := 1; i <= seg.Count(); i++ {
					f, err := seg.Child(i)
					if err != nil {
						return err
					}
					printElement(w, f, deep, formatted)
				}
			}
			a.logger.Debug("inspected", "file", args[0], "segments", msg.Count())
			return nil
		},
	}
	cmd.Flags().BoolVar(&deep, "deep", false, "descend to the innermost populated elements")
	cmd.Flags().BoolVar(&formatted, "formatted", false, "print unescaped values")
	return cmd
}

func printElement(w io.Writer, e *parser.Element, deep, formatted bool) {
	if e.Value() == "" {
		return
	}
	if deep && e.Count() > 0 {
		for i := 1; i <= e.Count(); i++ {
			c, err := e.Child(i)
			if err != nil {
				break
			}
			printElement(w, c, deep, formatted)
		}
		return
	}
	v := e.Value()
	if formatted {
		v = inspect.FormattedValue(e)
	}
	fmt.Fprintf(w, "%s\t%s\n", e.Key(), v)
}

func newGetCommand(a *app) *cobra.Command {
	var formatted bool
	cmd := &cobra.Command{
		Use:   "get FILE PATH",
		Short: "Print one element, e.g. PID.5.1 or 2.5.1",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := readMessage(cmd, args[0])
			if err != nil {
				return err
			}
			p, err := parsePath(args[1])
			if err != nil {
				return err
			}
			e, err := p.resolve(msg)
			if err != nil {
				return err
			}
			if !e.Exists() {
				return fmt.Errorf("%s is not present", e.Key())
			}
			v := e.Value()
			if formatted {
				v = inspect.FormattedValue(e)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
			return err
		},
	}
	cmd.Flags().BoolVar(&formatted, "formatted", false, "print the unescaped value")
	return cmd
}

func newSetCommand(a *app) *cobra.Command {
	var escape, inPlace, raw bool
	cmd := &cobra.Command{
		Use:   "set FILE PATH VALUE",
		Short: "Assign an element and print the resulting message",
		Long: `Assign VALUE to the element at PATH. Missing segments, fields and
components are created as empty placeholders. The result is printed unless
--in-place is given, in which case FILE is rewritten.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, path, value := args[0], args[1], args[2]
			msg, err := readMessage(cmd, file)
			if err != nil {
				return err
			}
			p, err := parsePath(path)
			if err != nil {
				return err
			}
			e, err := p.resolve(msg)
			if err != nil {
				return err
			}
			if escape {
				value = hl7.Escape(value, msg.Encoding())
			}
			if err := e.SetValue(value); err != nil {
				return err
			}
			a.logger.Info("element set", "file", file, "key", e.Key())

			if inPlace && file != "-" {
				info, err := os.Stat(file)
				if err != nil {
					return err
				}
				return os.WriteFile(file, []byte(msg.String()), info.Mode().Perm())
			}
			return writeMessage(cmd.OutOrStdout(), msg.String(), raw)
		},
	}
	cmd.Flags().BoolVar(&escape, "escape", false, "escape delimiters in VALUE")
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "rewrite FILE instead of printing")
	cmd.Flags().BoolVar(&raw, "raw", false, "print with segment terminators instead of newlines")
	return cmd
}

func newNewCommand(a *app) *cobra.Command {
	var (
		messageType string
		segments    []string
		raw         bool
		noTimestamp bool
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a message with the configured sender identity",
		Example: `  hl7kit new --type ADT^A01 --segment 'PID|1||12345^^^HOSP^MR||DOE^JOHN'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := builder.New(&a.cfg.Header)
			if !noTimestamp {
				m.SetField(1, inspect.FieldDateTime, inspect.FormatTimestamp(time.Now()))
			}
			if messageType != "" {
				m.SetField(1, inspect.FieldMessageType, messageType)
			}
			for _, s := range segments {
				m.AddSegment(s)
			}
			if err := m.Err(); err != nil {
				return err
			}
			a.logger.Debug("message created", "segments", m.Root().Count())
			return writeMessage(cmd.OutOrStdout(), m.String(), raw)
		},
	}
	cmd.Flags().StringVar(&messageType, "type", "", "MSH-9 value, e.g. ADT^A01")
	cmd.Flags().StringArrayVar(&segments, "segment", nil, "segment to append (repeatable)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print with segment terminators instead of newlines")
	cmd.Flags().BoolVar(&noTimestamp, "no-timestamp", false, "leave MSH-7 empty")
	return cmd
}
