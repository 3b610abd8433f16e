package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Instant is a timestamp that tolerates the wire shapes callers
// actually send: an RFC3339 instant, a bare date, or unix seconds.
// An unparseable or absent value yields Valid == false; consumers then
// fall back to whatever prior value the store already holds (or null).
type Instant struct {
	Time  time.Time
	Valid bool
}

// NewInstant returns a valid Instant for t.
func NewInstant(t time.Time) Instant {
	return Instant{Time: t, Valid: true}
}

// instantLayouts are tried in order when decoding a string form.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

// ParseInstant normalizes a string into an Instant. The zero Instant is
// returned for unparseable input; this is not an error at this layer.
func ParseInstant(s string) Instant {
	s = strings.TrimSpace(s)
	if s == "" {
		return Instant{}
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Instant{Time: t, Valid: true}
		}
	}
	return Instant{}
}

// UnmarshalJSON accepts a JSON string (instant or date), a number
// (unix seconds), or null. Malformed values decode to the zero Instant
// rather than failing the surrounding document.
func (i *Instant) UnmarshalJSON(data []byte) error {
	*i = Instant{}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = ParseInstant(s)
		return nil
	}
	if secs, err := strconv.ParseFloat(trimmed, 64); err == nil {
		sec := int64(secs)
		nsec := int64((secs - float64(sec)) * float64(time.Second))
		*i = Instant{Time: time.Unix(sec, nsec).UTC(), Valid: true}
		return nil
	}
	return nil
}

// MarshalJSON encodes a valid Instant as RFC3339Nano and an invalid
// one as null.
func (i Instant) MarshalJSON() ([]byte, error) {
	if !i.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(i.Time.Format(time.RFC3339Nano))
}
