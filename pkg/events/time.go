package events

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexTime wraps time.Time with a JSON codec tolerant of the three wire
// formats the fabric has carried historically: RFC 3339 ("ISO-8601"),
// space-separated date-time ("2024-01-01 10:00:00+00:00"), and decimal
// epoch seconds. It always re-emits RFC 3339 with an explicit timezone, so
// parse(serialize(e)) == e even when the input used a legacy format.
type FlexTime struct {
	time.Time
}

// NewFlexTime wraps t, normalizing it to UTC.
func NewFlexTime(t time.Time) FlexTime {
	return FlexTime{t.UTC()}
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed.UTC()
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = parsed.UTC()
		return nil
	}
	// Space-separated, with or without an offset: "2024-01-01 10:00:00+00:00"
	spaceForms := []string{
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
	}
	for _, layout := range spaceForms {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	// Decimal epoch seconds.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		sec := int64(f)
		nsec := int64((f - float64(sec)) * 1e9)
		t.Time = time.Unix(sec, nsec).UTC()
		return nil
	}

	return fmt.Errorf("events: unrecognized timestamp format %q", s)
}

// EpochSeconds floors the timestamp to whole seconds since the epoch, the
// resolution the mutable idempotency key derivation operates on.
func (t FlexTime) EpochSeconds() int64 {
	return t.Time.Unix()
}
