package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// NullFloat is a float that may be absent. It is never NaN.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// NewNullFloat wraps v, treating NaN and infinities as absent
func NewNullFloat(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// String returns the value with full precision, "" when absent
func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64)
}

// MarshalJSON encodes absent values as null
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON accepts a number or null
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = NewNullFloat(v)
	return nil
}

// NullInt is an integer that may be absent
type NullInt struct {
	Int64 int64
	Valid bool
}

// NewNullInt wraps v as a present value
func NewNullInt(v int64) NullInt {
	return NullInt{Int64: v, Valid: true}
}

// String returns the decimal value, "" when absent
func (n NullInt) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.Int64, 10)
}

// MarshalJSON encodes absent values as null
func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Int64)
}

// UnmarshalJSON accepts an integer or null
func (n *NullInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullInt{}
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = NewNullInt(v)
	return nil
}
