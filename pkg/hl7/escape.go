package hl7

import "strings"

// Escape token letters.
const (
	tokenField        = 'F'
	tokenComponent    = 'S'
	tokenSubcomponent = 'T'
	tokenRepetition   = 'R'
	tokenEscape       = 'E'
)

// Escape replaces every delimiter character in text with its escape token
// (\F\, \S\, \T\, \R\, \E\). Sequences that are already valid and carry their
// own meaning (\H\, \N\, \Xhh..\, \Cxxxx\, \Mxxxx\, \Mxxxxxx\, \Zxxx\) are
// copied unchanged. Any other escape character becomes \E\.
func Escape(text string, enc Encoding) string {
	esc := enc.Escape
	if esc == 0 || !needsEscape(text, enc) {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text) + len(text)/4)

	for i := 0; i < len(text); {
		c := text[i]
		if c == esc {
			if n := preservedLength(text, i, esc); n > 0 {
				sb.WriteString(text[i : i+n])
				i += n
				continue
			}
			writeToken(&sb, esc, tokenEscape)
			i++
			continue
		}
		if t := tokenFor(c, enc); t != 0 {
			writeToken(&sb, esc, t)
		} else {
			sb.WriteByte(c)
		}
		i++
	}
	return sb.String()
}

// UnEscape reverses Escape. Tokens whose delimiter is unresolved in enc, and
// sequences it does not understand, are left as they are.
func UnEscape(text string, enc Encoding) string {
	esc := enc.Escape
	if esc == 0 || strings.IndexByte(text, esc) < 0 {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))

	for i := 0; i < len(text); {
		c := text[i]
		if c != esc {
			sb.WriteByte(c)
			i++
			continue
		}
		if i+2 < len(text) && text[i+2] == esc {
			if d := delimiterFor(text[i+1], enc); d != 0 {
				sb.WriteByte(d)
				i += 3
				continue
			}
		}
		if n := preservedLength(text, i, esc); n > 0 {
			sb.WriteString(text[i : i+n])
			i += n
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

func needsEscape(text string, enc Encoding) bool {
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == enc.Escape || tokenFor(c, enc) != 0 {
			return true
		}
	}
	return false
}

func writeToken(sb *strings.Builder, esc, token byte) {
	sb.WriteByte(esc)
	sb.WriteByte(token)
	sb.WriteByte(esc)
}

func tokenFor(c byte, enc Encoding) byte {
	if c == 0 {
		return 0
	}
	switch c {
	case enc.Field:
		return tokenField
	case enc.Component:
		return tokenComponent
	case enc.Subcomponent:
		return tokenSubcomponent
	case enc.Repetition:
		return tokenRepetition
	}
	return 0
}

func delimiterFor(token byte, enc Encoding) byte {
	switch token {
	case tokenField:
		return enc.Field
	case tokenComponent:
		return enc.Component
	case tokenSubcomponent:
		return enc.Subcomponent
	case tokenRepetition:
		return enc.Repetition
	case tokenEscape:
		return enc.Escape
	}
	return 0
}

// preservedLength returns the length of the sequence starting at text[i]
// that must survive escaping untouched, or 0 if there is none.
func preservedLength(text string, i int, esc byte) int {
	if i+2 >= len(text) {
		return 0
	}
	kind := text[i+1]
	body := i + 2

	// closing returns the length when the body ends at the next escape char.
	closing := func(valid func(byte) bool, lengths ...int) int {
		end := body
		for end < len(text) && text[end] != esc {
			if !valid(text[end]) {
				return 0
			}
			end++
		}
		if end >= len(text) {
			return 0
		}
		n := end - body
		if len(lengths) == 0 {
			if n == 0 {
				return 0
			}
			return end - i + 1
		}
		for _, l := range lengths {
			if n == l {
				return end - i + 1
			}
		}
		return 0
	}

	switch kind {
	case 'H', 'N':
		if text[body] == esc {
			return 3
		}
	case 'C':
		return closing(isHex, 4)
	case 'M':
		return closing(isHex, 4, 6)
	case 'X':
		if n := closing(isHex); n > 0 && (n-3)%2 == 0 {
			return n
		}
	case 'Z':
		return closing(isAlnum)
	}
	return 0
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
