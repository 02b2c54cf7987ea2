package util

import (
    "strconv"
    "time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// TimeframeDuration maps a timeframe label to its bar duration. Unknown
// labels fall back to one minute.
func TimeframeDuration(tf string) time.Duration {
    switch tf {
    case "1m":
        return time.Minute
    case "5m":
        return 5 * time.Minute
    case "15m":
        return 15 * time.Minute
    case "1h":
        return time.Hour
    case "4h":
        return 4 * time.Hour
    case "1d":
        return 24 * time.Hour
    default:
        return time.Minute
    }
}

// AlignToTimeframe truncates t down to the start of its bar.
func AlignToTimeframe(t time.Time, tf string) time.Time {
    return t.Truncate(TimeframeDuration(tf))
}

// No extra helpers here; use strconv where needed.