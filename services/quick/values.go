package quick

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Values is a submission of the eggs form as posted by a client.
type Values struct {
	Date     *DateValue  `json:"date,omitempty"`
	Quantity Number      `json:"quantity"`
	Assets   Selection   `json:"assets,omitempty"`
	Notes    *NotesValue `json:"notes,omitempty"`
}

// Number holds a numeric form value exactly as submitted: a JSON number or a
// numeric string.
type Number struct {
	raw string
	set bool
}

// NumberOf returns a Number holding n.
func NumberOf(n int64) Number {
	return Number{raw: strconv.FormatInt(n, 10), set: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*n = Number{raw: strings.TrimSpace(s), set: true}
		return nil
	}
	*n = Number{raw: string(trimmed), set: true}
	return nil
}

// wholeNonNegative parses the value as a count: a whole number of at least 0.
// The returned message is empty when the value is valid.
func (n Number) wholeNonNegative() (int64, string) {
	if !n.set || n.raw == "" {
		return 0, "is required"
	}
	if v, err := strconv.ParseInt(n.raw, 10, 64); err == nil {
		if v < 0 {
			return 0, "must be at least 0"
		}
		return v, ""
	}
	f, err := strconv.ParseFloat(n.raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "must be a number"
	}
	if f < 0 {
		return 0, "must be at least 0"
	}
	if f != math.Trunc(f) {
		return 0, "must be a whole number"
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit in an int64.
	if f >= math.MaxInt64 {
		return 0, "is too large"
	}
	return int64(f), ""
}

// DateValue is a submitted date and time. It accepts an RFC 3339 string, a
// wall-clock "YYYY-MM-DD HH:MM[:SS]" string (with a space or a T) or an object
// with separate "date" and "time" members. Wall-clock values are interpreted
// in the submitting user's timezone.
type DateValue struct {
	Date string `json:"date"`
	Time string `json:"time"`
	raw  string
}

// DateAt returns a DateValue for the instant t.
func DateAt(t time.Time) *DateValue {
	return &DateValue{raw: t.Format(time.RFC3339)}
}

func (d *DateValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*d = DateValue{raw: strings.TrimSpace(s)}
		return nil
	}

	var parts struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := json.Unmarshal(trimmed, &parts); err != nil {
		return errors.New("date must be a string or an object with date and time")
	}
	*d = DateValue{Date: strings.TrimSpace(parts.Date), Time: strings.TrimSpace(parts.Time)}
	return nil
}

var wallClockLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var timeLayouts = []string{"15:04:05", "15:04"}

func (d *DateValue) resolve(loc *time.Location) (time.Time, error) {
	if d.raw != "" {
		if t, err := time.Parse(time.RFC3339, d.raw); err == nil {
			return t, nil
		}
		for _, layout := range wallClockLayouts {
			if t, err := time.ParseInLocation(layout, d.raw, loc); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%q is not a valid date and time", d.raw)
	}

	if d.Date == "" && d.Time == "" {
		return time.Time{}, errors.New("is required")
	}
	if d.Date == "" {
		return time.Time{}, errors.New("date part is required")
	}
	if d.Time == "" {
		return time.Time{}, errors.New("time part is required")
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation("2006-01-02 "+layout, d.Date+" "+d.Time, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q %q is not a valid date and time", d.Date, d.Time)
}

// Selection is the submitted state of a checkboxes field. It keeps the order
// in which identifiers were submitted.
type Selection struct {
	entries []selectionEntry
}

type selectionEntry struct {
	key   string
	value json.RawMessage
}

// Select returns a Selection with every id checked.
func Select(ids ...uuid.UUID) Selection {
	s := Selection{entries: make([]selectionEntry, 0, len(ids))}
	for _, id := range ids {
		s.entries = append(s.entries, selectionEntry{key: id.String(), value: json.RawMessage("true")})
	}
	return s
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*s = Selection{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		for _, item := range items {
			var key string
			// Only identifiers can select an option.
			if err := json.Unmarshal(item, &key); err != nil || key == "" {
				continue
			}
			s.entries = append(s.entries, selectionEntry{key: key, value: json.RawMessage("true")})
		}
		return nil
	case '{':
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		if _, err := dec.Token(); err != nil {
			return err
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := tok.(string)
			if !ok {
				return fmt.Errorf("unexpected selection key %v", tok)
			}
			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return err
			}
			s.entries = append(s.entries, selectionEntry{key: key, value: value})
		}
		_, err := dec.Token()
		return err
	default:
		return errors.New("assets must be an object or an array")
	}
}

// Checked returns the checked identifiers in submission order, without
// duplicates. An entry is checked when its value is true or repeats its own
// identifier; every other value means unchecked.
func (s Selection) Checked() []string {
	out := make([]string, 0, len(s.entries))
	seen := make(map[string]struct{}, len(s.entries))
	for _, e := range s.entries {
		if !isChecked(e) {
			continue
		}
		if _, dup := seen[e.key]; dup {
			continue
		}
		seen[e.key] = struct{}{}
		out = append(out, e.key)
	}
	return out
}

func isChecked(e selectionEntry) bool {
	raw := bytes.TrimSpace(e.value)
	if bytes.Equal(raw, []byte("true")) {
		return true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return s != "" && s == e.key
}

// NotesValue is submitted rich text: a plain string or {"value", "format"}.
type NotesValue struct {
	Value  string `json:"value"`
	Format string `json:"format"`
}

func (n *NotesValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*n = NotesValue{Value: s}
		return nil
	}
	type plain NotesValue
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return errors.New("notes must be a string or an object with value and format")
	}
	*n = NotesValue(p)
	return nil
}

// notes returns nil for blank text.
func (n *NotesValue) notes() *Notes {
	if n == nil || strings.TrimSpace(n.Value) == "" {
		return nil
	}
	format := strings.TrimSpace(n.Format)
	if format == "" {
		format = DefaultTextFormat
	}
	return &Notes{Value: n.Value, Format: format}
}
