// Package melody parses and plays the compact note language used for
// brick melodies.
//
// A melody is a sequence of tokens like "C4/4", "D#5/8." or "R/4": a
// pitch letter with optional accidental and an octave, or R for a
// rest, then '/' and the inverse length, then an optional dot (half
// again as long) and an optional underscore (tied, held into the next
// note with no release gap).
package melody

import "time"

// Note is one parsed element of the note language.
type Note struct {
	// Frequency in Hz, before truncation to the integer the tone
	// device takes. 0 means a rest.
	Frequency float64
	// Fraction is the inverse length, e.g. 4 for a quarter note.
	Fraction int
	// Dotted extends the length by half.
	Dotted bool
	// Tied holds the note for its full length with no release gap.
	Tied bool
}

// IsRest reports whether the note is a rest.
func (n Note) IsRest() bool {
	return n.Frequency == 0
}

// Duration returns the note's length given the duration of a whole
// note. The arithmetic runs in integer milliseconds, matching the
// brick firmware.
func (n Note) Duration(whole time.Duration) time.Duration {
	if n.Fraction <= 0 {
		return 0
	}
	ms := whole.Milliseconds() / int64(n.Fraction)
	if n.Dotted {
		ms = 3 * ms / 2
	}
	return time.Duration(ms) * time.Millisecond
}

// WholeNote returns the whole-note duration for a tempo in quarter
// notes per minute: 4 quarters/whole * 60_000 ms/min / tempo.
func WholeNote(tempo int) time.Duration {
	if tempo <= 0 {
		return 0
	}
	return time.Duration(4*60*1000/tempo) * time.Millisecond
}

// scanner walks a token byte by byte. Reads past the end return 0 so
// lookahead checks fail the same way regardless of where the token
// ends.
type scanner struct {
	src string
	pos int
}

func (s *scanner) next() byte {
	if s.pos >= len(s.src) {
		s.pos++
		return 0
	}
	b := s.src[s.pos]
	s.pos++
	return b
}

func (s *scanner) backup() {
	s.pos--
}

// Octave-0 frequencies in Hz. Each octave up doubles them.
const (
	baseC      = 16.35
	baseCSharp = 17.32
	baseD      = 18.35
	baseDSharp = 19.45
	baseE      = 20.60
	baseF      = 21.83
	baseFSharp = 23.12
	baseG      = 24.50
	baseGSharp = 25.96
	baseA      = 27.50
	baseASharp = 29.14
	baseB      = 30.87
)

// ParseNote parses one token of the note language.
//
// Pitch names are A-G with an optional accidental, '#' for sharp or
// 'b' for flat. The names Cb, E#, B# and Fb are rejected; use the
// enharmonic natural instead. Non-rests carry an octave digit 2-8.
// The '/' and inverse length (1-99) are mandatory. A trailing '.'
// marks a dotted note and a trailing '_' a tied one, in that order.
func ParseNote(token string) (Note, error) {
	s := &scanner{src: token}

	fail := func(reason string) (Note, error) {
		return Note{}, &SyntaxError{Token: token, Reason: reason}
	}

	var freq float64
	switch s.next() {
	case 'C':
		switch s.next() {
		case 'b':
			return fail("'Cb' is not allowed")
		case '#':
			freq = baseCSharp
		default:
			s.backup()
			freq = baseC
		}
	case 'D':
		switch s.next() {
		case 'b':
			freq = baseCSharp
		case '#':
			freq = baseDSharp
		default:
			s.backup()
			freq = baseD
		}
	case 'E':
		switch s.next() {
		case 'b':
			freq = baseDSharp
		case '#':
			return fail("'E#' is not allowed")
		default:
			s.backup()
			freq = baseE
		}
	case 'F':
		switch s.next() {
		case 'b':
			return fail("'Fb' is not allowed")
		case '#':
			freq = baseFSharp
		default:
			s.backup()
			freq = baseF
		}
	case 'G':
		switch s.next() {
		case 'b':
			freq = baseFSharp
		case '#':
			freq = baseGSharp
		default:
			s.backup()
			freq = baseG
		}
	case 'A':
		switch s.next() {
		case 'b':
			freq = baseGSharp
		case '#':
			freq = baseASharp
		default:
			s.backup()
			freq = baseA
		}
	case 'B':
		switch s.next() {
		case 'b':
			freq = baseASharp
		case '#':
			return fail("'B#' is not allowed")
		default:
			s.backup()
			freq = baseB
		}
	case 'R':
		freq = 0
	default:
		return fail("missing note name A-G or R")
	}

	// Rests carry no octave.
	if freq != 0 {
		octave := int(s.next()) - '0'
		if octave < 2 || octave > 8 {
			return fail("missing octave number 2-8")
		}
		freq *= float64(2 << octave)
	}

	if s.next() != '/' {
		return fail("missing '/'")
	}

	// Inverse length, e.g. 4 = quarter note. One or two digits; the
	// first may not be zero.
	fraction := int(s.next()) - '0'
	if fraction < 1 || fraction > 9 {
		return fail("missing fractional value 1, 2, 4, 8, etc.")
	}
	if d := int(s.next()) - '0'; d >= 0 && d <= 9 {
		fraction = fraction*10 + d
	} else {
		s.backup()
	}

	dotted := false
	if s.next() == '.' {
		dotted = true
	} else {
		s.backup()
	}

	tied := false
	if s.next() == '_' {
		tied = true
	} else {
		s.backup()
	}

	if s.pos != len(token) {
		return fail("unexpected trailing characters")
	}

	return Note{Frequency: freq, Fraction: fraction, Dotted: dotted, Tied: tied}, nil
}
