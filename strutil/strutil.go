// Package strutil contains small string helpers: trimming, splitting,
// conversions and display-width aware padding.
package strutil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Whitespace is the set of bytes removed by Trim, TrimLeft and TrimRight.
const Whitespace = " \t\n\r\f\v"

// Trim removes leading and trailing Whitespace.
func Trim(s string) string { return strings.Trim(s, Whitespace) }

// TrimLeft removes leading Whitespace.
func TrimLeft(s string) string { return strings.TrimLeft(s, Whitespace) }

// TrimRight removes trailing Whitespace.
func TrimRight(s string) string { return strings.TrimRight(s, Whitespace) }

func ToLower(s string) string { return strings.ToLower(s) }
func ToUpper(s string) string { return strings.ToUpper(s) }

func HasPrefix(s, prefix string) bool { return strings.HasPrefix(s, prefix) }
func HasSuffix(s, suffix string) bool { return strings.HasSuffix(s, suffix) }

func Contains(s, substr string) bool { return strings.Contains(s, substr) }

// SplitRune splits s at every sep the way a line reader would: a trailing
// sep does not produce an empty last field, and an empty s yields no fields.
func SplitRune(s string, sep rune) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, string(sep))
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// Split splits s at every occurrence of sep, keeping empty fields.
// An empty sep returns s as the only field.
func Split(s, sep string) []string {
	if sep == "" {
		return []string{s}
	}
	return strings.Split(s, sep)
}

func Join(parts []string, sep string) string { return strings.Join(parts, sep) }

// Replace replaces the first occurrence of from with to.
// An empty from returns s unchanged.
func Replace(s, from, to string) string {
	if from == "" {
		return s
	}
	return strings.Replace(s, from, to, 1)
}

// ReplaceAll replaces every non-overlapping occurrence of from with to.
// An empty from returns s unchanged.
func ReplaceAll(s, from, to string) string {
	if from == "" {
		return s
	}
	return strings.ReplaceAll(s, from, to)
}

// Substring returns at most n bytes of s starting at pos. A pos at or past
// the end yields ""; a negative n means to the end of s.
func Substring(s string, pos, n int) string {
	if pos < 0 || pos >= len(s) {
		return ""
	}
	if n < 0 || n > len(s)-pos {
		return s[pos:]
	}
	return s[pos : pos+n]
}

// ToInt parses a base-10 int, ignoring surrounding whitespace.
func ToInt(s string) (int, error) { return strconv.Atoi(Trim(s)) }

// ToInt64 parses a base-10 int64, ignoring surrounding whitespace.
func ToInt64(s string) (int64, error) { return strconv.ParseInt(Trim(s), 10, 64) }

// ToFloat parses a float64, ignoring surrounding whitespace.
func ToFloat(s string) (float64, error) { return strconv.ParseFloat(Trim(s), 64) }

// ToBool reports whether s is one of true, 1, yes or on, ignoring case and
// surrounding whitespace. Anything else is false.
func ToBool(s string) bool {
	switch strings.ToLower(Trim(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func FromInt(v int) string     { return strconv.Itoa(v) }
func FromInt64(v int64) string { return strconv.FormatInt(v, 10) }
func FromBool(v bool) string   { return strconv.FormatBool(v) }

// FromFloat formats v with precision decimals, then drops trailing zeros and
// a trailing decimal point: FromFloat(2.50, 2) == "2.5".
func FromFloat(v float64, precision int) string {
	s := strconv.FormatFloat(v, 'f', max(precision, 0), 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// IsInteger reports whether ToInt would succeed.
func IsInteger(s string) bool {
	_, err := ToInt(s)
	return err == nil
}

// IsFloat reports whether ToFloat would succeed.
func IsFloat(s string) bool {
	_, err := ToFloat(s)
	return err == nil
}

// IsNumeric reports whether s is an integer or a float.
func IsNumeric(s string) bool { return IsInteger(s) || IsFloat(s) }

// Format formats according to a fmt verb string. It is checked by go vet's
// printf analyzer like fmt.Sprintf.
func Format(format string, args ...any) string { return fmt.Sprintf(format, args...) }

// Repeat returns count copies of s. A negative count yields "".
func Repeat(s string, count int) string {
	if count <= 0 {
		return ""
	}
	return strings.Repeat(s, count)
}

// PadLeft prepends pad until s occupies width terminal cells.
// East Asian wide characters count as two cells.
func PadLeft(s string, width int, pad rune) string {
	n := padCount(s, width, pad)
	if n == 0 {
		return s
	}
	return strings.Repeat(string(pad), n) + s
}

// PadRight appends pad until s occupies width terminal cells.
func PadRight(s string, width int, pad rune) string {
	n := padCount(s, width, pad)
	if n == 0 {
		return s
	}
	return s + strings.Repeat(string(pad), n)
}

func padCount(s string, width int, pad rune) int {
	missing := width - runewidth.StringWidth(s)
	pw := runewidth.RuneWidth(pad)
	if missing <= 0 || pw <= 0 {
		return 0
	}
	return missing / pw
}
