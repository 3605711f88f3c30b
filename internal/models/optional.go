package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// OptionalTime distinguishes an absent JSON field from an explicit null.
// Set is true when the field appeared in the payload; Time is nil for null.
type OptionalTime struct {
	Set  bool
	Time *time.Time
}

// SetTime returns an OptionalTime holding t.
func SetTime(t time.Time) OptionalTime {
	return OptionalTime{Set: true, Time: &t}
}

// Null returns an OptionalTime that clears the stored value.
func Null() OptionalTime {
	return OptionalTime{Set: true}
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Time = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Time = &t
	return nil
}

func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if o.Time == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Time)
}

// OptionalInt is the integer counterpart of OptionalTime: Set reports the
// field was present, Value is nil for an explicit null.
type OptionalInt struct {
	Set   bool
	Value *int
}

// SetInt returns an OptionalInt holding v.
func SetInt(v int) OptionalInt {
	return OptionalInt{Set: true, Value: &v}
}

// NullInt returns an OptionalInt that clears the stored value.
func NullInt() OptionalInt {
	return OptionalInt{Set: true}
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
