package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/savegress/hl7kit/pkg/hl7"
	"github.com/savegress/hl7kit/pkg/hl7/parser"
)

// elementPath is a parsed command-line path. The segment is addressed by
// position ("2.5.1") or by type and ordinal ("PID.5.1", "OBX2.5").
type elementPath struct {
	segment     int
	segmentType string
	ordinal     int
	rest        []int
}

func parsePath(s string) (elementPath, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if parts[0] == "" {
		return elementPath{}, fmt.Errorf("empty path")
	}

	var p elementPath
	head := parts[0]
	if n, err := strconv.Atoi(head); err == nil {
		if n < 1 {
			return elementPath{}, fmt.Errorf("segment index must be >= 1 in %q", s)
		}
		p.segment = n
	} else {
		i := strings.IndexFunc(head, unicode.IsDigit)
		p.segmentType, p.ordinal = head, 1
		if i >= 0 {
			ord, err := strconv.Atoi(head[i:])
			if err != nil || ord < 1 || i == 0 {
				return elementPath{}, fmt.Errorf("invalid segment %q in %q", head, s)
			}
			p.segmentType, p.ordinal = head[:i], ord
		}
	}

	for _, part := range parts[1:] {
		n, err := strconv.Atoi(part)
		if err != nil {
			return elementPath{}, fmt.Errorf("invalid index %q in %q", part, s)
		}
		p.rest = append(p.rest, n)
	}
	return p, nil
}

// resolve returns the element addressed by p, creating handles as needed.
func (p elementPath) resolve(msg *parser.Element) (*parser.Element, error) {
	seg := p.segment
	if p.segmentType != "" {
		seen := 0
		for _, s := range msg.Segments() {
			if s.SegmentType() == p.segmentType {
				seen++
				if seen == p.ordinal {
					seg = s.Index()
					break
				}
			}
		}
		if seg == 0 {
			return nil, fmt.Errorf("%w: segment %s not found", hl7.ErrInvalidIndex, hl7.SegmentKey(p.segmentType, p.ordinal))
		}
	}
	return msg.Get(append([]int{seg}, p.rest...)...)
}
