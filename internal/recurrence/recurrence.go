// Package recurrence parses a practical subset of RFC 5545 RRULE strings
// and expands them into occurrence dates. Events carry whole dates, so
// expansion works in days rather than timestamps.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Freq int

const (
	Daily Freq = iota
	Weekly
	Monthly
	Yearly
)

var freqNames = map[Freq]string{
	Daily:   "DAILY",
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
	Yearly:  "YEARLY",
}

var freqFromName = map[string]Freq{
	"DAILY":   Daily,
	"WEEKLY":  Weekly,
	"MONTHLY": Monthly,
	"YEARLY":  Yearly,
}

var dayNames = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

var dayAbbrev = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

type Rule struct {
	Freq     Freq
	Interval int            // default 1; 2 = every other period
	ByDay    []time.Weekday // for WEEKLY: which days (empty = same weekday as start)
	Count    int            // max occurrences (0 = unlimited)
	Until    string         // last date, YYYY-MM-DD ("" = no limit)
}

// Parse parses an RRULE string like "FREQ=WEEKLY;BYDAY=MO,WE;INTERVAL=2".
func Parse(rule string) (Rule, error) {
	if rule == "" {
		return Rule{}, fmt.Errorf("empty rule")
	}

	r := Rule{Interval: 1}
	var hasFreq bool

	for _, part := range strings.Split(rule, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return Rule{}, fmt.Errorf("invalid rule part: %q", part)
		}
		key, val := kv[0], kv[1]

		switch key {
		case "FREQ":
			f, ok := freqFromName[val]
			if !ok {
				return Rule{}, fmt.Errorf("unknown frequency: %q", val)
			}
			r.Freq = f
			hasFreq = true

		case "INTERVAL":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return Rule{}, fmt.Errorf("invalid interval: %q", val)
			}
			r.Interval = n

		case "BYDAY":
			for _, d := range strings.Split(val, ",") {
				wd, ok := dayNames[strings.TrimSpace(d)]
				if !ok {
					return Rule{}, fmt.Errorf("unknown day: %q", d)
				}
				r.ByDay = append(r.ByDay, wd)
			}

		case "COUNT":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return Rule{}, fmt.Errorf("invalid count: %q", val)
			}
			r.Count = n

		case "UNTIL":
			t, err := time.Parse("20060102", val)
			if err != nil {
				return Rule{}, fmt.Errorf("invalid UNTIL: %q", val)
			}
			r.Until = t.Format("2006-01-02")

		default:
			return Rule{}, fmt.Errorf("unsupported rule key: %q", key)
		}
	}

	if !hasFreq {
		return Rule{}, fmt.Errorf("FREQ is required")
	}
	return r, nil
}

// String serializes the rule back to an RRULE string.
func (r Rule) String() string {
	parts := []string{"FREQ=" + freqNames[r.Freq]}

	if r.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", r.Interval))
	}
	if len(r.ByDay) > 0 {
		var days []string
		for _, d := range r.ByDay {
			days = append(days, dayAbbrev[d])
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	if r.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", r.Count))
	}
	if r.Until != "" {
		if t, err := time.Parse("2006-01-02", r.Until); err == nil {
			parts = append(parts, "UNTIL="+t.Format("20060102"))
		}
	}
	return strings.Join(parts, ";")
}

// expansionCap bounds expansion of unlimited rules.
const expansionCap = 1000

// Expand returns the dates (YYYY-MM-DD) on which an event starting on start
// recurs within the inclusive range [rangeStart, rangeEnd]. The start date
// itself counts as the first occurrence.
func Expand(rule Rule, start, rangeStart, rangeEnd string) []string {
	startT, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil
	}
	fromT, err := time.Parse("2006-01-02", rangeStart)
	if err != nil {
		return nil
	}
	toT, err := time.Parse("2006-01-02", rangeEnd)
	if err != nil {
		return nil
	}

	var untilT time.Time
	if rule.Until != "" {
		untilT, err = time.Parse("2006-01-02", rule.Until)
		if err != nil {
			return nil
		}
	}

	var dates []string
	emitted := 0
	emit := func(t time.Time) bool {
		if rule.Until != "" && t.After(untilT) {
			return false
		}
		emitted++
		if rule.Count > 0 && emitted > rule.Count {
			return false
		}
		if !t.Before(fromT) && !t.After(toT) {
			dates = append(dates, t.Format("2006-01-02"))
		}
		return emitted < expansionCap
	}

	switch rule.Freq {
	case Daily:
		for t := startT; !t.After(toT); t = t.AddDate(0, 0, rule.Interval) {
			if !emit(t) {
				break
			}
		}

	case Weekly:
		days := rule.ByDay
		if len(days) == 0 {
			days = []time.Weekday{startT.Weekday()}
		}
		onDay := make(map[time.Weekday]bool, len(days))
		for _, d := range days {
			onDay[d] = true
		}
		// Walk day by day from the start of the first week, skipping whole
		// weeks according to the interval.
		weekStart := startT.AddDate(0, 0, -int(startT.Weekday()))
		done := false
		for ws := weekStart; !ws.After(toT) && !done; ws = ws.AddDate(0, 0, 7*rule.Interval) {
			for i := 0; i < 7; i++ {
				t := ws.AddDate(0, 0, i)
				if t.Before(startT) || t.After(toT) {
					continue
				}
				if !onDay[t.Weekday()] {
					continue
				}
				if !emit(t) {
					done = true
					break
				}
			}
		}

	case Monthly:
		for t := startT; !t.After(toT); t = addMonthsClamped(startT, emitted*rule.Interval) {
			if !emit(t) {
				break
			}
		}

	case Yearly:
		for t := startT; !t.After(toT); t = startT.AddDate(emitted*rule.Interval, 0, 0) {
			if !emit(t) {
				break
			}
		}
	}

	return dates
}

// addMonthsClamped adds months to a date, clamping to the last day of the
// target month instead of letting Jan 31 roll over into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// Describe returns a human-readable description of the rule.
func (r Rule) Describe() string {
	switch r.Freq {
	case Daily:
		if r.Interval > 1 {
			return fmt.Sprintf("Repeats every %d days", r.Interval)
		}
		return "Repeats daily"
	case Weekly:
		prefix := "Repeats weekly"
		if r.Interval == 2 {
			prefix = "Repeats every 2 weeks"
		} else if r.Interval > 2 {
			prefix = fmt.Sprintf("Repeats every %d weeks", r.Interval)
		}
		if len(r.ByDay) > 0 {
			var names []string
			for _, d := range r.ByDay {
				names = append(names, d.String()[:3])
			}
			return prefix + " on " + strings.Join(names, ", ")
		}
		return prefix
	case Monthly:
		if r.Interval > 1 {
			return fmt.Sprintf("Repeats every %d months", r.Interval)
		}
		return "Repeats monthly"
	case Yearly:
		if r.Interval > 1 {
			return fmt.Sprintf("Repeats every %d years", r.Interval)
		}
		return "Repeats yearly"
	}
	return ""
}
