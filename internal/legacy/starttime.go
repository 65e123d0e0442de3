package legacy

import "time"

// ticksPerMinute converts .NET/Windows filetime ticks (100ns units) to
// minutes: 1 tick = 100ns, 1 minute = 6e10 ns, so 6e8 ticks per minute.
const ticksPerMinute = 600_000_000

var dateStartedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"2006-01-02",
}

// CorrectStartTimeMinutes resolves a legacy StartTime global parameter to
// minutes. Some legacy acquisition software stored raw ticks in this field
// instead of minutes; that bug also corrupts DateStarted, which parses back
// to an implausibly old year. A DateStarted year before 450 AD is the signal
// that raw is tick-encoded rather than already-minutes (spec.md §9).
func CorrectStartTimeMinutes(raw float64, dateStarted string) float64 {
	t, ok := parseDateStarted(dateStarted)
	if !ok || t.Year() >= 450 {
		return raw
	}
	return raw / ticksPerMinute
}

func parseDateStarted(s string) (time.Time, bool) {
	for _, layout := range dateStartedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
