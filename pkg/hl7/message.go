package hl7

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Normalize converts host line endings to the HL7 segment terminator.
func Normalize(text string) string {
	if strings.IndexByte(text, '\n') < 0 {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\r")
	return strings.ReplaceAll(text, "\n", "\r")
}

// Validate checks the structural minimum every message must satisfy before
// either engine accepts it.
func Validate(text string) error {
	if text == "" {
		return fmt.Errorf("%w: empty message", ErrMalformedMessage)
	}
	if !strings.HasPrefix(text, HeaderSegment) {
		return fmt.Errorf("%w: message must start with %s", ErrMalformedMessage, HeaderSegment)
	}
	if len(text) < MinMessageLength {
		return fmt.Errorf("%w: message too short (%d < %d)", ErrMalformedMessage, len(text), MinMessageLength)
	}
	if f := text[3]; f == SegmentTerminator || f == '\n' {
		return fmt.Errorf("%w: missing field delimiter", ErrMalformedMessage)
	}
	return nil
}

// Prepare normalizes and validates raw input.
func Prepare(text string) (string, error) {
	text = Normalize(text)
	if err := Validate(text); err != nil {
		return "", err
	}
	return text, nil
}

// HeaderConfig carries the identity written into the MSH segment of a new,
// empty message.
type HeaderConfig struct {
	SendingApplication   string `yaml:"sending_application"`
	SendingFacility      string `yaml:"sending_facility"`
	ReceivingApplication string `yaml:"receiving_application"`
	ReceivingFacility    string `yaml:"receiving_facility"`
	ProcessingID         string `yaml:"processing_id"`
	Version              string `yaml:"version"`
	GenerateControlID    bool   `yaml:"generate_control_id"`
}

// Skeleton renders the header line of a new message. A nil config yields the
// bare "MSH|^~\&|".
func (c *HeaderConfig) Skeleton() string {
	enc := DefaultEncoding
	head := enc.Header() + string(enc.Field)
	if c == nil {
		return head
	}

	// MSH-3 .. MSH-12; MSH-7 (date/time) and MSH-9 (type) are left to the caller.
	fields := make([]string, 10)
	fields[0] = c.SendingApplication
	fields[1] = c.SendingFacility
	fields[2] = c.ReceivingApplication
	fields[3] = c.ReceivingFacility
	if c.GenerateControlID {
		fields[7] = uuid.NewString()
	}
	fields[8] = c.ProcessingID
	fields[9] = c.Version

	last := len(fields)
	for last > 0 && fields[last-1] == "" {
		last--
	}
	if last == 0 {
		return head
	}
	return head + strings.Join(fields[:last], string(enc.Field))
}
