package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Clock is a minute-resolution time of day expressed as minutes since
// midnight. It marshals as "HH:MM" over JSON and as an integer in storage.
type Clock int

// ParseClock converts an "HH:MM" string into a Clock.
func ParseClock(raw string) (Clock, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(raw, "%d:%d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", raw)
	}
	return Clock(hh*60 + mm), nil
}

// String renders the clock as "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalJSON renders the clock as a JSON "HH:MM" string.
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts either "HH:MM" strings or raw minute integers.
func (c *Clock) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		parsed, perr := ParseClock(raw)
		if perr != nil {
			return perr
		}
		*c = parsed
		return nil
	}
	var minutes int
	if err := json.Unmarshal(data, &minutes); err != nil {
		return fmt.Errorf("unmarshal clock: %w", err)
	}
	*c = Clock(minutes)
	return nil
}

// Value implements driver.Valuer.
func (c Clock) Value() (driver.Value, error) {
	return int64(c), nil
}

// Scan implements sql.Scanner.
func (c *Clock) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*c = Clock(v)
		return nil
	case []byte:
		parsed, err := ParseClock(string(v))
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case nil:
		*c = 0
		return nil
	default:
		return fmt.Errorf("scan clock: unsupported type %T", src)
	}
}
