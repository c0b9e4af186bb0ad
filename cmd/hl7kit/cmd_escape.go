package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/savegress/hl7kit/pkg/hl7"
)

// newEscapeCommand returns "escape", or "unescape" when reverse is set.
func newEscapeCommand(a *app, reverse bool) *cobra.Command {
	var chars string
	use, short := "escape [TEXT]", "Replace delimiter characters with HL7 escape sequences"
	if reverse {
		use, short = "unescape [TEXT]", "Replace HL7 escape sequences with the characters they stand for"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  short + ". TEXT defaults to standard input.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := encodingFor(chars)
			if err != nil {
				return err
			}
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = strings.TrimRight(string(data), "\r\n")
			}

			if reverse {
				text = hl7.UnEscape(text, enc)
			} else {
				text = hl7.Escape(text, enc)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&chars, "encoding", "", `field delimiter followed by MSH-2, e.g. "|^~\&"`)
	return cmd
}

// encodingFor resolves the delimiters of a "|^~\&"-style string; empty
// means the default set.
func encodingFor(chars string) (hl7.Encoding, error) {
	if chars == "" {
		return hl7.DefaultEncoding, nil
	}
	if len(chars) < 2 {
		return hl7.Encoding{}, fmt.Errorf("encoding %q must hold the field delimiter and at least one encoding character", chars)
	}
	enc := hl7.ResolveEncoding(hl7.HeaderSegment + chars)
	if enc.Escape == 0 {
		return hl7.Encoding{}, fmt.Errorf("encoding %q has no escape character", chars)
	}
	return enc, nil
}
