// Package models defines the domain types shared by the client and the reference backend.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxTitleLength is the longest title, in runes, a note may carry.
const MaxTitleLength = 200

// ID is an opaque note identifier. Backends may send it as a JSON string or
// a JSON number; both decode to the same textual form.
type ID string

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts a string, a number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("models: decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("models: decode id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// Timestamp is a server-assigned time that tolerates the zone-less ISO 8601
// forms many backends emit in addition to RFC 3339. It only drives display
// and ordering, so JSON it cannot read decodes to the zero value.
type Timestamp struct {
	time.Time
}

// timestampLayouts are tried in order; zone-less layouts are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02",
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

// ParseTimestamp parses s using the accepted layouts. Empty input yields the zero time.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("models: unrecognised timestamp %q", s)
}

// UnmarshalJSON decodes a timestamp string or a number of Unix seconds.
// Anything else, including unrecognised strings, yields the zero time.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if parsed, err := ParseTimestamp(s); err == nil {
			*ts = parsed
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var secs float64
		if err := json.Unmarshal(data, &secs); err != nil {
			return nil
		}
		whole, frac := math.Modf(secs)
		*ts = Timestamp{Time: time.Unix(int64(whole), int64(frac*1e9)).UTC()}
	}
	return nil
}

// MarshalJSON encodes the timestamp as RFC 3339 in UTC, or null when zero.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}

// Note is a persisted note as returned by the backend.
type Note struct {
	ID        ID        `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// NoteInput is the body of create and update requests.
type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Validate implements validation.Validatable.
func (in NoteInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.Required.Error("Title is required."),
			validation.By(maxRunes(MaxTitleLength)),
		),
	)
}

func maxRunes(n int) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if utf8.RuneCountInString(s) > n {
			return fmt.Errorf("must be at most %d characters", n)
		}
		return nil
	}
}

// SortByUpdatedDesc orders notes newest first. The sort is stable, so notes
// with equal timestamps keep their server order; zero timestamps go last.
func SortByUpdatedDesc(notes []Note) {
	slices.SortStableFunc(notes, func(a, b Note) int {
		switch {
		case a.UpdatedAt.IsZero() && b.UpdatedAt.IsZero():
			return 0
		case a.UpdatedAt.IsZero():
			return 1
		case b.UpdatedAt.IsZero():
			return -1
		}
		return b.UpdatedAt.Compare(a.UpdatedAt.Time)
	})
}

// Find returns the index of the note with the given id, or -1.
func Find(notes []Note, id ID) int {
	return slices.IndexFunc(notes, func(n Note) bool { return n.ID == id })
}
