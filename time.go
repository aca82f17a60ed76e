package hsjwt

import (
	"fmt"
	"math"
	"time"
)

// maxNumericDate is 9999-12-31T23:59:59Z.
const maxNumericDate = 253402300799

// NewNumericDate returns t as whole seconds since the epoch.
func NewNumericDate(t time.Time) Value {
	return Int(t.Unix())
}

// NewNumericDateFloat returns t as fractional seconds since the epoch.
func NewNumericDateFloat(t time.Time) Value {
	return Float(float64(t.UnixNano()) / float64(time.Second))
}

// NumericDate interprets v as seconds since the epoch. Both integers and
// floats are accepted; fractions keep sub-second precision.
func NumericDate(v Value) (time.Time, error) {
	switch v.Kind() {
	case KindInt:
		if v.i < 0 || v.i > maxNumericDate {
			return time.Time{}, fmt.Errorf("numeric date %d out of range", v.i)
		}
		return time.Unix(v.i, 0).UTC(), nil
	case KindUint:
		return time.Time{}, fmt.Errorf("numeric date %d out of range", uint64(v.i))
	case KindFloat:
		if math.IsNaN(v.f) || v.f < 0 || v.f > maxNumericDate {
			return time.Time{}, fmt.Errorf("numeric date %v out of range", v.f)
		}
		sec, frac := math.Modf(v.f)
		return time.Unix(int64(sec), int64(math.Round(frac*float64(time.Second)))).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("numeric date must be a number, got %s", v.Kind())
	}
}
