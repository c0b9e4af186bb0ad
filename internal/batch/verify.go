package batch

import (
	"fmt"

	"github.com/savegress/hl7kit/pkg/hl7"
	"github.com/savegress/hl7kit/pkg/hl7/builder"
	"github.com/savegress/hl7kit/pkg/hl7/convert"
	"github.com/savegress/hl7kit/pkg/hl7/inspect"
	"github.com/savegress/hl7kit/pkg/hl7/parser"
)

// Summary describes a message that passed verification.
type Summary struct {
	MessageType string
	ControlID   string
	Segments    int
	Normalized  string // input with line endings converted
}

// Verify checks that raw survives a round trip through the parser, the
// builder, and both conversions.
func Verify(raw string) (Summary, error) {
	want := hl7.Normalize(raw)

	p, err := parser.Parse(raw)
	if err != nil {
		return Summary{}, err
	}
	if got := p.String(); got != want {
		return Summary{}, mismatch("parser", want, got)
	}

	b, err := builder.Parse(raw)
	if err != nil {
		return Summary{}, err
	}
	if got := b.String(); got != want {
		return Summary{}, mismatch("builder", want, got)
	}

	fromParser, err := convert.ToBuilder(p)
	if err != nil {
		return Summary{}, err
	}
	if got := fromParser.String(); got != want {
		return Summary{}, mismatch("parser to builder", want, got)
	}
	fromBuilder, err := convert.ToParser(b)
	if err != nil {
		return Summary{}, err
	}
	if got := fromBuilder.String(); got != want {
		return Summary{}, mismatch("builder to parser", want, got)
	}

	segments := p.Count()
	if n := b.Root().Count(); n != segments {
		return Summary{}, fmt.Errorf("%w: parser sees %d segments, builder %d", ErrRoundTrip, segments, n)
	}

	typ := string(inspect.MessageType(p))
	if ev := inspect.TriggerEvent(p); ev != "" {
		typ += string(p.Encoding().Component) + string(ev)
	}
	return Summary{
		MessageType: typ,
		ControlID:   inspect.ControlID(p),
		Segments:    segments,
		Normalized:  want,
	}, nil
}

func mismatch(engine, want, got string) error {
	at := 0
	for at < len(want) && at < len(got) && want[at] == got[at] {
		at++
	}
	return fmt.Errorf("%w: %s output differs at byte %d (%d bytes in, %d out)", ErrRoundTrip, engine, at, len(want), len(got))
}
