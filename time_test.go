package hsjwt

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericDate(t *testing.T) {
	tests := []struct {
		name    string
		in      Value
		want    time.Time
		wantErr bool
	}{
		{"int", Int(1_700_000_000), time.Unix(1_700_000_000, 0), false},
		{"zero", Int(0), time.Unix(0, 0), false},
		{"float", Float(1_700_000_000.5), time.Unix(1_700_000_000, 500_000_000), false},
		{"whole float", Float(1_700_000_000), time.Unix(1_700_000_000, 0), false},
		{"max", Int(maxNumericDate), time.Unix(maxNumericDate, 0), false},
		{"negative", Int(-1), time.Time{}, true},
		{"too large", Int(maxNumericDate + 1), time.Time{}, true},
		{"unsigned beyond int64", Uint(math.MaxUint64), time.Time{}, true},
		{"negative float", Float(-0.5), time.Time{}, true},
		{"nan", Float(math.NaN()), time.Time{}, true},
		{"inf", Float(math.Inf(1)), time.Time{}, true},
		{"string", String("1700000000"), time.Time{}, true},
		{"null", Null(), time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NumericDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestNewNumericDate(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 250_000_000, time.FixedZone("X", 3600))

	v := NewNumericDate(ts)
	i, ok := v.AsInt()
	require.True(t, ok)
	assert.Equal(t, ts.Unix(), i)

	f, ok := NewNumericDateFloat(ts).AsFloat()
	require.True(t, ok)
	assert.InDelta(t, float64(ts.Unix())+0.25, f, 1e-6)
}
