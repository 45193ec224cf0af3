package transcript

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecToTS(t *testing.T) {
	tests := []struct {
		sec  float64
		want string
	}{
		{0, "00:00:00.000"},
		{25.403, "00:00:25.403"},
		{14532.768, "04:02:12.768"},
		{3641.231, "01:00:41.231"},
		{360000.5, "100:00:00.500"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := SecToTS(tt.sec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := SecToTS(bad)
		assert.Error(t, err)
	}
}

func TestTSToSec(t *testing.T) {
	sec, err := TSToSec("01:00:41.231")
	require.NoError(t, err)
	assert.Equal(t, 3641.231, sec)

	sec, err = TSToSec("00:00:00.000")
	require.NoError(t, err)
	assert.Equal(t, 0.0, sec)

	ms, err := TSToMsec("00:01:02,003")
	require.NoError(t, err)
	assert.Equal(t, int64(62003), ms)

	for _, bad := range []string{"", "1:00:00.000", "00:61:00.000", "00:00:00", "00:00:00.0000", "abc"} {
		_, err := TSToSec(bad)
		assert.Error(t, err, bad)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, ms := range []int64{0, 1, 999, 1000, 59999, 3600000, 86399999} {
		ts := MsecToTS(ms)
		back, err := TSToMsec(ts)
		require.NoError(t, err)
		assert.Equal(t, ms, back, ts)
	}
	assert.Equal(t, "00:00:00.000", MsecToTS(-5))
}
