// Package quote holds the fare data captured by one measurement cycle and
// its persisted string form.
package quote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Separator joins the current and reference price in the persisted form.
const Separator = " | "

// ErrEmptyPrice is returned when an entry is built without a current price.
var ErrEmptyPrice = errors.New("current price is empty")

// Entry is one fare category's quote. The zero value is not valid; use NewEntry.
type Entry struct {
	current   string
	reference string
}

// NewEntry builds an entry. The reference price is dropped when it is empty
// or equal to the current price, so a present reference always marks a promo.
func NewEntry(current, reference string) (Entry, error) {
	current = strings.TrimSpace(current)
	reference = strings.TrimSpace(reference)
	if current == "" {
		return Entry{}, ErrEmptyPrice
	}
	if reference == current {
		reference = ""
	}
	return Entry{current: current, reference: reference}, nil
}

// MustEntry is like NewEntry but panics on error. Intended for tests and literals.
func MustEntry(current, reference string) Entry {
	e, err := NewEntry(current, reference)
	if err != nil {
		panic(err)
	}
	return e
}

// Current returns the payable price.
func (e Entry) Current() string { return e.current }

// Reference returns the struck-through price shown next to a discounted fare.
func (e Entry) Reference() (string, bool) {
	return e.reference, e.reference != ""
}

// IsPromo reports whether the entry carries a reference price.
func (e Entry) IsPromo() bool { return e.reference != "" }

// String returns "current | reference" for promos and "current" otherwise.
func (e Entry) String() string {
	if e.reference != "" {
		return e.current + Separator + e.reference
	}
	return e.current
}

// ParseEntry parses the persisted form produced by Entry.String.
func ParseEntry(s string) (Entry, error) {
	current, reference, _ := strings.Cut(s, "|")
	return NewEntry(current, reference)
}

// Set maps a category name to its quote. Names are unique per cycle.
type Set map[string]Entry

// Names returns the category names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the set as an object of name to persisted entry string.
// Names and prices are written verbatim, without HTML escaping.
func (s Set) MarshalJSON() ([]byte, error) {
	raw := make(map[string]string, len(s))
	for name, e := range s {
		raw[name] = e.String()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Set, len(raw))
	for name, value := range raw {
		e, err := ParseEntry(value)
		if err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		out[name] = e
	}
	*s = out
	return nil
}

// Record is one persisted measurement.
type Record struct {
	Timestamp time.Time
	Route     string
	Quotes    Set
}

// ParseAmount extracts the numeric value from a price such as "14,00 zł" or
// "9.50 zl". Currency symbols, letters and spaces (including NBSP) are ignored
// and a comma is read as the decimal separator.
func ParseAmount(price string) (float64, error) {
	var b strings.Builder
	for _, r := range price {
		switch {
		case unicode.IsDigit(r), r == '.', r == '-':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		}
	}
	if b.Len() == 0 {
		return 0, fmt.Errorf("no amount in %q", price)
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", price, err)
	}
	return v, nil
}
