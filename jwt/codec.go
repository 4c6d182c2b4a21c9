package jwt

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultClockTolerance seconds of skew accepted past exp
const DefaultClockTolerance = 60

// segmentEncoding rejects non-zero trailing bits so each segment has exactly one encoding
var segmentEncoding = base64.RawURLEncoding.Strict()

var durationPattern = regexp.MustCompile(`^(\d+)([smhdw])$`)

var durationUnits = map[string]int64{
	"s": 1,
	"m": 60,
	"h": 3600,
	"d": 86400,
	"w": 604800,
}

// EncodeSegment base64url without padding
func EncodeSegment(b []byte) string {
	return segmentEncoding.EncodeToString(b)
}

// DecodeSegment reverses EncodeSegment; trailing "=" padding is tolerated
func DecodeSegment(seg string) ([]byte, error) {
	b, err := segmentEncoding.DecodeString(strings.TrimRight(seg, "="))
	if err != nil {
		return nil, errMalformedSegment.Wrap(err)
	}
	return b, nil
}

// EncodeJSONSegment marshals v and encodes it as a segment
func EncodeJSONSegment(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return EncodeSegment(b), nil
}

// DecodeJSONSegment decodes a segment into v
func DecodeJSONSegment(seg string, v interface{}) error {
	b, err := DecodeSegment(seg)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errMalformedSegment.Wrap(err)
	}
	return nil
}

// ParseDuration converts an expiry into whole seconds.
//
// Numbers are taken as seconds, time.Duration is truncated to seconds and
// strings must look like "30s", "15m", "12h", "7d" or "2w". The result must be positive.
func ParseDuration(value interface{}) (int64, error) {
	var seconds int64

	switch v := value.(type) {
	case time.Duration:
		seconds = int64(v / time.Second)
	case string:
		m := durationPattern.FindStringSubmatch(v)
		if m == nil {
			return 0, ErrInvalidDuration.WithMsgf("invalid duration %q", v).WithData("value", v)
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		unit := durationUnits[m[2]]
		if err != nil || n > math.MaxInt64/unit {
			return 0, ErrInvalidDuration.WithMsgf("duration %q out of range", v).WithData("value", v)
		}
		seconds = n * unit
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, ErrInvalidDuration.WithMsgf("invalid duration %q", v.String())
		}
		return ParseDuration(f)
	case float32, float64:
		f := reflect.ValueOf(v).Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f >= math.MaxInt64 {
			return 0, ErrInvalidDuration.WithMsgf("invalid duration %v", v).WithData("value", v)
		}
		seconds = int64(f)
	case int, int8, int16, int32, int64:
		seconds = reflect.ValueOf(v).Int()
	case uint, uint8, uint16, uint32, uint64:
		u := reflect.ValueOf(v).Uint()
		if u > math.MaxInt64 {
			return 0, ErrInvalidDuration.WithMsgf("duration %d out of range", u)
		}
		seconds = int64(u)
	default:
		return 0, ErrInvalidDuration.WithMsgf("unsupported duration type %T", value)
	}

	if seconds <= 0 {
		return 0, ErrInvalidDuration.WithMsgf("duration must be positive, got %v", value).WithData("value", value)
	}
	return seconds, nil
}

// IsExpired reports exp + tolerance < now, all in unix seconds
func IsExpired(exp, tolerance int64, now time.Time) bool {
	return exp+tolerance < now.Unix()
}
