package analysis

import (
	"testing"

	"crypto-indices/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearLevels(timestamps ...int64) []models.MIndexLevel {
	out := make([]models.MIndexLevel, len(timestamps))
	for i, ts := range timestamps {
		out[i] = models.MIndexLevel{Timestamp: ts, Value: float64(ts), Volume: 2 * float64(ts)}
	}
	return out
}

func TestInterpolateEmpty(t *testing.T) {
	out := Interpolate(nil, 100)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestInterpolateDenseSeriesUnchanged(t *testing.T) {
	in := linearLevels(0, 10, 20, 30, 40)

	out := Interpolate(in, 10)
	assert.Equal(t, in, out)

	out = Interpolate(in, 8)
	assert.Equal(t, in, out)
}

func TestInterpolateEvenSpacing(t *testing.T) {
	var ts []int64
	for v := int64(0); v <= 9900; v += 1100 {
		ts = append(ts, v)
	}
	require.Len(t, ts, 10)

	out := Interpolate(linearLevels(ts...), 100)
	require.Len(t, out, 100)

	for i, l := range out {
		assert.Equal(t, int64(i*100), l.Timestamp)
		assert.InDelta(t, float64(l.Timestamp), l.Value, 1e-9)
		assert.InDelta(t, 2*float64(l.Timestamp), l.Volume, 1e-9)
		if i > 0 {
			assert.Greater(t, l.Timestamp, out[i-1].Timestamp)
		}
	}
	assert.Equal(t, int64(0), out[0].Timestamp)
	assert.Equal(t, int64(9900), out[99].Timestamp)
}

func TestInterpolateUnsortedInput(t *testing.T) {
	in := linearLevels(900, 0, 300)

	out := Interpolate(in, 10)
	require.Len(t, out, 10)
	assert.Equal(t, int64(0), out[0].Timestamp)
	assert.Equal(t, int64(900), out[9].Timestamp)
	for _, l := range out {
		assert.InDelta(t, float64(l.Timestamp), l.Value, 1e-9)
	}
	// Input is left untouched
	assert.Equal(t, int64(900), in[0].Timestamp)
}

func TestInterpolateSinglePoint(t *testing.T) {
	in := []models.MIndexLevel{{Timestamp: 500, Value: 42, Volume: 7}}

	out := Interpolate(in, 6)
	require.Len(t, out, 1)
	assert.Equal(t, in[0], out[0])
}

func TestInterpolateShortSpanStaysStrictlyIncreasing(t *testing.T) {
	in := linearLevels(100, 110)

	out := Interpolate(in, 96)
	require.Len(t, out, 11)
	for i, l := range out {
		assert.Equal(t, int64(100+i), l.Timestamp)
		assert.InDelta(t, float64(l.Timestamp), l.Value, 1e-9)
	}
}

func TestInterpolateSpanEqualToTargetSteps(t *testing.T) {
	out := Interpolate(linearLevels(0, 9), 10)
	require.Len(t, out, 10)
	for i := 1; i < len(out); i++ {
		assert.Equal(t, out[i-1].Timestamp+1, out[i].Timestamp)
	}
}
