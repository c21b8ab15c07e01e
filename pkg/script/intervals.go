package script

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"stagehand/pkg/logging"
)

// RunIntervals maps the names of the supported execution intervals to
// their length in seconds.
var RunIntervals = map[string]int64{
	"5_minutes":  300,
	"10_minutes": 600,
	"15_minutes": 900,
	"20_minutes": 1200,
	"30_minutes": 1800,
	"hourly":     3600,
	"2_hourly":   2 * 3600,
	"3_hourly":   3 * 3600,
	"4_hourly":   4 * 3600,
	"6_hourly":   6 * 3600,
	"12_hourly":  12 * 3600,
	"daily":      86400,
	"weekly":     7 * 86400,
	"2_weekly":   14 * 86400,
	"4_weekly":   28 * 86400,
}

// DefaultInterval is used when no interval is configured.
const DefaultInterval = "daily"

// IntervalNames returns the interval names ordered by length.
func IntervalNames() []string {
	names := make([]string, 0, len(RunIntervals))
	for n := range RunIntervals {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		return RunIntervals[names[i]] < RunIntervals[names[j]]
	})
	return names
}

var timestampRegex = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[Tt ](\d{2}):(\d{2}):(\d{2})(\.\d+)?([Zz]|[+-]\d{2}:\d{2})$`)

// ParseTime accepts a unix timestamp or an RFC 3339 datetime, with either
// a T or a space between date and time. The result is in UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		sec, frac := int64(f), f-float64(int64(f))
		return time.Unix(sec, int64(frac*1e9)).UTC().Round(time.Microsecond), nil
	}
	if !timestampRegex.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid datetime '%s'", s)
	}
	normalized := strings.ToUpper(s[:10]) + "T" + strings.ToUpper(s[11:])
	t, err := time.Parse(time.RFC3339Nano, normalized)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid datetime '%s': %w", s, err)
	}
	return t.UTC(), nil
}

func intervalSeconds(interval string) (int64, error) {
	secs, ok := RunIntervals[interval]
	if !ok {
		return 0, fmt.Errorf("invalid time interval '%s', valid values are: %s", interval, strings.Join(IntervalNames(), ", "))
	}
	return secs, nil
}

// floor rounds t down to a multiple of secs since the epoch.
func floor(t time.Time, secs int64) time.Time {
	u := t.Unix()
	return time.Unix(u-u%secs, 0).UTC()
}

// Thresholds returns the interval of the given size ending at high. With
// adjust set, high is first rounded down to a multiple of the interval.
func Thresholds(high time.Time, interval string, adjust bool) (time.Time, time.Time, error) {
	secs, err := intervalSeconds(interval)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	high = high.UTC()
	if adjust {
		high = floor(high, secs)
	}
	low := high.Add(-time.Duration(secs) * time.Second)
	logging.Debug("Script", "Calculated time interval thresholds: '%s' -> '%s' (%s, adjusted: %t)",
		low.Format(time.RFC3339), high.Format(time.RFC3339), interval, adjust)
	return low, high, nil
}

// UpperThreshold returns high, rounded down to a multiple of the interval
// when adjust is set.
func UpperThreshold(high time.Time, interval string, adjust bool) (time.Time, error) {
	secs, err := intervalSeconds(interval)
	if err != nil {
		return time.Time{}, err
	}
	high = high.UTC()
	if adjust {
		high = floor(high, secs)
	}
	logging.Debug("Script", "Calculated upper time threshold: '%s' (%s, adjusted: %t)",
		high.Format(time.RFC3339), interval, adjust)
	return high, nil
}
