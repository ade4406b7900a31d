// Package wiretime decodes the timestamps the portal API emits. The server
// serialises naive datetimes ("2024-01-02T03:04:05.123456") next to RFC 3339
// ones, which encoding/json's time.Time rejects.
package wiretime

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const dateLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Time is a timestamp; naive server values are read as UTC.
type Time struct {
	time.Time
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s, null, err := unquote(data)
	if err != nil || null {
		return err
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return errors.Errorf("[wiretime] unrecognised timestamp %q", s)
}

// Date is a calendar day (YYYY-MM-DD).
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s, null, err := unquote(data)
	if err != nil || null {
		return err
	}
	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		return errors.Wrapf(err, "[wiretime] date %q", s)
	}
	d.Time = parsed
	return nil
}

func unquote(data []byte) (string, bool, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return "", true, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false, errors.Wrap(err, "[wiretime] expected a string")
	}
	return s, s == "", nil
}
