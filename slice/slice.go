// Package slice implements the cheap, shareable view over an immutable
// input buffer that every other parsekit package addresses by absolute
// offset: parsers consume a Slice, the parse driver advances one, and every
// node records the absolute position it was produced at so that errors can
// always point back into the original buffer regardless of how many times
// the text has been re-sliced along the way.
package slice

import (
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var foldCaser = cases.Fold()

// Slice is a read-only view into a shared underlying buffer. The zero value
// is not useful; construct one with New or by cutting an existing Slice.
//
// Two Slices are Equal iff they share the same underlying buffer pointer
// and have the same Start/End offsets - content is not compared, since
// content equality does not imply the slices reference the same source
// position.
type Slice struct {
	buf        *string
	start, end int
}

// New wraps the entirety of text in a Slice with absolute offsets starting
// at 0.
func New(text string) Slice {
	return Slice{buf: &text, start: 0, end: len(text)}
}

// Len returns the number of bytes covered by the slice.
func (s Slice) Len() int {
	return s.end - s.start
}

// Start is the absolute offset, in the original buffer, of the slice's
// first byte.
func (s Slice) Start() int {
	return s.start
}

// End is the absolute offset, in the original buffer, one past the slice's
// last byte.
func (s Slice) End() int {
	return s.end
}

// String returns the slice's content as a fresh Go string.
func (s Slice) String() string {
	if s.buf == nil {
		return ""
	}
	return (*s.buf)[s.start:s.end]
}

// Equal returns whether s and o reference the same buffer and the same
// absolute offsets.
func (s Slice) Equal(o Slice) bool {
	return s.buf == o.buf && s.start == o.start && s.end == o.end
}

// normalize turns a possibly-negative, possibly-out-of-range offset pair
// into absolute offsets clamped to the slice's own bounds. Negative values
// count from the end, a convenience for trimming trailing input
// elsewhere in parsekit's lineage.
func (s Slice) normalize(start, end int) (int, int) {
	n := s.Len()
	if start < 0 {
		start = n + start
	}
	if end < 0 {
		end = n + end
	}
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if end < start {
		end = start
	}
	return start, end
}

// Cut returns a new Slice covering [start, end) of s, in s-relative
// coordinates (negative values count from the end). Cut never copies
// characters; the returned Slice shares s's buffer and merely narrows the
// offsets, so it is O(1) regardless of slice length.
func (s Slice) Cut(start, end int) Slice {
	a, b := s.normalize(start, end)
	return Slice{buf: s.buf, start: s.start + a, end: s.start + b}
}

// Rest returns the portion of s starting at the given s-relative offset.
func (s Slice) Rest(from int) Slice {
	return s.Cut(from, s.Len())
}

// IsEmpty returns whether the slice covers zero bytes.
func (s Slice) IsEmpty() bool {
	return s.Len() == 0
}

// At returns the rune starting at the given s-relative byte offset and its
// width in bytes. ok is false if offset is out of range.
func (s Slice) At(offset int) (r rune, width int, ok bool) {
	if offset < 0 || offset >= s.Len() {
		return 0, 0, false
	}
	r, width = utf8.DecodeRuneInString(s.String()[offset:])
	return r, width, true
}

// FindLiteral returns the s-relative offset of the first occurrence of
// needle within s[start:last), or -1 if there is none.
func (s Slice) FindLiteral(needle string, start, last int) int {
	a, b := s.normalize(start, last)
	text := s.String()
	idx := indexIn(text[a:b], needle)
	if idx < 0 {
		return -1
	}
	return a + idx
}

func indexIn(haystack, needle string) int {
	if needle == "" {
		return 0
	}
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		if haystack[i:i+n] == needle {
			return i
		}
	}
	return -1
}

// FindRegex returns the s-relative offset of the first match of re within
// s[start:last), or -1 if there is none.
func (s Slice) FindRegex(re *regexp.Regexp, start, last int) int {
	a, b := s.normalize(start, last)
	loc := re.FindStringIndex(s.String()[a:b])
	if loc == nil {
		return -1
	}
	return a + loc[0]
}

// MatchRegexAt reports the byte length of a match of re anchored exactly at
// the given s-relative offset, or -1 if re does not match there. re is
// always evaluated against the suffix starting at offset so that ^-anchors
// in re behave as "start of remaining input" rather than "start of buffer."
func (s Slice) MatchRegexAt(re *regexp.Regexp, offset int) int {
	if offset < 0 || offset > s.Len() {
		return -1
	}
	loc := re.FindStringIndex(s.String()[offset:])
	if loc == nil || loc[0] != 0 {
		return -1
	}
	return loc[1]
}

// MatchLiteralAt reports the byte length of needle if it occurs exactly at
// the given s-relative offset, or -1 otherwise.
func (s Slice) MatchLiteralAt(needle string, offset int) int {
	text := s.String()
	if offset < 0 || offset+len(needle) > len(text) {
		return -1
	}
	if text[offset:offset+len(needle)] == needle {
		return len(needle)
	}
	return -1
}

// MatchFoldAt is like MatchLiteralAt but compares case-insensitively, using
// Unicode case folding rather than byte-for-byte ASCII folding so that
// multi-byte scripts with case (Greek, Cyrillic, ...) fold correctly.
func (s Slice) MatchFoldAt(needle string, offset int) int {
	text := s.String()
	if offset < 0 || offset > len(text) {
		return -1
	}
	rest := text[offset:]
	if len(rest) < len(needle) {
		// still might match if needle folds to something shorter/longer;
		// fall back to folding both and comparing prefixes below.
	}
	foldedNeedle := foldCaser.String(needle)
	// try every prefix of rest, shortest first, and return the first whose
	// folded form equals the folded needle.
	for end := 0; end <= len(rest); end++ {
		candidate := rest[:end]
		if foldCaser.String(candidate) == foldedNeedle {
			return end
		}
	}
	return -1
}

// Replace returns a new owned string equal to s's content with every match
// of re replaced by replacement (following regexp.ReplaceAllString rules).
func (s Slice) Replace(re *regexp.Regexp, replacement string) string {
	return re.ReplaceAllString(s.String(), replacement)
}

// Fold returns the Unicode case-folded form of text, using the same fold
// function as MatchFoldAt.
func Fold(text string) string {
	return foldCaser.String(text)
}

// This blank reference to language.Und documents the folding locale:
// parsekit folds case using the root (locale-independent) collation, never
// a language-specific one, so the same grammar behaves identically
// regardless of the host's locale settings.
var _ = language.Und
