package transcript

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var vttTimestamp = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2})[.,](\d{3})$`)

// SecToTS formats seconds as a WebVTT timestamp (HH:MM:SS.mmm). Hours are
// not capped at two digits.
func SecToTS(sec float64) (string, error) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return "", fmt.Errorf("invalid timestamp (%v)", sec)
	}
	return MsecToTS(int64(math.Round(sec * 1000))), nil
}

// MsecToTS formats milliseconds as a WebVTT timestamp. Negative values clamp to zero.
func MsecToTS(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := ms / 60000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}

// TSToMsec parses a WebVTT timestamp (an SRT comma separator is accepted).
func TSToMsec(ts string) (int64, error) {
	m := vttTimestamp.FindStringSubmatch(ts)
	if m == nil {
		return 0, fmt.Errorf("invalid VTT timestamp format (%s)", ts)
	}
	h, _ := strconv.ParseInt(m[1], 10, 64)
	mins, _ := strconv.ParseInt(m[2], 10, 64)
	secs, _ := strconv.ParseInt(m[3], 10, 64)
	ms, _ := strconv.ParseInt(m[4], 10, 64)
	if mins > 59 || secs > 59 {
		return 0, fmt.Errorf("invalid VTT timestamp format (%s)", ts)
	}
	return ((h*60+mins)*60+secs)*1000 + ms, nil
}

// TSToSec parses a WebVTT timestamp into seconds.
func TSToSec(ts string) (float64, error) {
	ms, err := TSToMsec(ts)
	if err != nil {
		return 0, err
	}
	return float64(ms) / 1000, nil
}
