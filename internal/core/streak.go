package core

import "fmt"

// StreakMode selects how the current streak is counted.
type StreakMode string

const (
	// StreakStrict counts back from today and yields 0 when today is not done.
	StreakStrict StreakMode = "strict"
	// StreakTrailing lets a streak survive until the end of today: when today
	// is not done yet, counting starts from yesterday.
	StreakTrailing StreakMode = "trailing"
)

// ParseStreakMode validates a mode name. Empty selects StreakStrict.
func ParseStreakMode(s string) (StreakMode, error) {
	switch StreakMode(s) {
	case "", StreakStrict:
		return StreakStrict, nil
	case StreakTrailing:
		return StreakTrailing, nil
	}
	return "", fmt.Errorf("unknown streak mode %q", s)
}

// Streak computes the streak of completed for today according to the mode.
func (m StreakMode) Streak(completed []string, today Date) int {
	if m == StreakTrailing {
		return TrailingStreak(completed, today)
	}
	return CurrentStreak(completed, today)
}

// CurrentStreak counts consecutive completed days ending at today.
//
// Duplicates are irrelevant and values that are not yyyy-MM-dd dates never
// match. Dates after today are ignored. If today is not completed the result
// is 0 even when the previous days are.
func CurrentStreak(completed []string, today Date) int {
	return countBack(dateSet(completed), today)
}

// TrailingStreak is CurrentStreak, except that an unfinished today does not
// break the streak: counting then starts from yesterday.
func TrailingStreak(completed []string, today Date) int {
	set := dateSet(completed)
	if _, ok := set[today.String()]; ok {
		return countBack(set, today)
	}
	return countBack(set, today.AddDays(-1))
}

// IsCompleted reports whether day appears in completed.
func IsCompleted(completed []string, day Date) bool {
	_, ok := dateSet(completed)[day.String()]
	return ok
}

// ToggleDate removes every occurrence of day when present and appends it
// otherwise. It reports whether day is completed after the toggle.
func ToggleDate(completed []string, day Date) ([]string, bool) {
	key := day.String()
	out := make([]string, 0, len(completed)+1)
	removed := false
	for _, c := range completed {
		if normalizeDate(c) == key {
			removed = true
			continue
		}
		out = append(out, c)
	}
	if removed {
		return out, false
	}
	return append(out, key), true
}

func countBack(set map[string]struct{}, from Date) int {
	streak := 0
	for cursor := from; ; cursor = cursor.AddDays(-1) {
		if _, ok := set[cursor.String()]; !ok {
			return streak
		}
		streak++
	}
}

func dateSet(completed []string) map[string]struct{} {
	set := make(map[string]struct{}, len(completed))
	for _, c := range completed {
		if key := normalizeDate(c); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// normalizeDate returns the canonical form of a stored day, or "" when the
// value is not a date.
func normalizeDate(s string) string {
	d, err := ParseDate(s)
	if err != nil {
		return ""
	}
	return d.String()
}
