// Package daterange parses the short date expressions accepted by -date into
// half-open time intervals.
//
// Accepted forms, with DD.MM.YYYY standing for any supported date:
//
//	13.11.2006               the whole day
//	13.11.2006-15.11.2006    from the first day to the end of the second
//	13.11.2006-              from that day on
//	>13.11.2006              after that day
//	-13.11.2006              until the end of that day
//	<13.11.2006              before that day
//
// Dates separated by '.' or '-' are day first, dates separated by '/' are
// month first, and a leading four digit group is a year (2006-11-13). The
// year can be omitted (current year) or written with two digits (current
// century).
package daterange

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var datePattern = regexp.MustCompile(
	`(?:\d{4}|\d{1,2})` +
		`(?:\.\d{1,2}(?:\.(?:\d{4}|\d{1,2}))?` +
		`|/\d{1,2}(?:/(?:\d{4}|\d{1,2}))?` +
		`|-\d{1,2}(?:-(?:\d{4}|\d{1,2}))?)`)

// Interval is a [Start, End) range of time. A zero bound is unbounded.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t is inside the interval
func (iv Interval) Contains(t time.Time) bool {
	if !iv.Start.IsZero() && t.Before(iv.Start) {
		return false
	}
	if !iv.End.IsZero() && !t.Before(iv.End) {
		return false
	}
	return true
}

// IsZero returns true if the interval has no bound at all
func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

func (iv Interval) String() string {
	bound := func(t time.Time) string {
		if t.IsZero() {
			return "*"
		}
		return t.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("[%s, %s)", bound(iv.Start), bound(iv.End))
}

// Parse converts expr into an Interval. Dates are resolved in now's location
// and now also provides the default year. Parts of expr that cannot be read
// as a date leave the matching bound unset.
func Parse(expr string, now time.Time) Interval {
	var iv Interval

	expr = strings.TrimSpace(expr)
	if expr == "" {
		return iv
	}

	switch prefix := expr[0]; prefix {
	case '<', '>', '-':
		t, ok := firstDate(expr[1:], now)
		if !ok {
			return iv
		}
		switch prefix {
		case '>':
			iv.Start = t.AddDate(0, 0, 1)
		case '-':
			iv.End = t.AddDate(0, 0, 1)
		case '<':
			iv.End = t
		}
		return iv
	}

	matches := datePattern.FindAllStringIndex(expr, 2)
	switch len(matches) {
	case 0:
		return iv
	case 1:
		m := matches[0]
		t, ok := resolve(expr, m, now)
		if !ok {
			return iv
		}
		iv.Start = t
		// "13.11.2006-" leaves the end open
		if strings.TrimSpace(expr[m[1]:]) != "-" {
			iv.End = t.AddDate(0, 0, 1)
		}
	default:
		from, fromOK := resolve(expr, matches[0], now)
		to, toOK := resolve(expr, matches[1], now)
		if fromOK && toOK && to.Before(from) {
			from, to = to, from
		}
		if fromOK {
			iv.Start = from
		}
		if toOK {
			iv.End = to.AddDate(0, 0, 1)
		}
	}

	return iv
}

// firstDate resolves the first date found in s
func firstDate(s string, now time.Time) (time.Time, bool) {
	m := datePattern.FindStringIndex(s)
	if m == nil {
		return time.Time{}, false
	}
	return resolve(s, m, now)
}

// resolve converts the date found at s[m[0]:m[1]] into midnight of that day
func resolve(s string, m []int, now time.Time) (time.Time, bool) {
	// a digit right after the match means the group was too long
	if m[1] < len(s) && s[m[1]] >= '0' && s[m[1]] <= '9' {
		return time.Time{}, false
	}

	token := s[m[0]:m[1]]
	sep := token[strings.IndexAny(token, "./-")]
	parts := strings.Split(token, string(sep))

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	year, month, dayOfMonth := now.Year(), 0, 0
	switch {
	case len(parts[0]) == 4:
		if len(parts) != 3 {
			return time.Time{}, false
		}
		year, month, dayOfMonth = nums[0], nums[1], nums[2]
	case sep == '/':
		month, dayOfMonth = nums[0], nums[1]
	default:
		dayOfMonth, month = nums[0], nums[1]
	}

	if len(parts) == 3 && len(parts[0]) != 4 {
		if len(parts[2]) == 4 {
			year = nums[2]
		} else {
			year = now.Year()/100*100 + nums[2]
		}
	}

	if month < 1 || month > 12 || dayOfMonth < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), dayOfMonth, 0, 0, 0, 0, now.Location())
	// time.Date normalizes 31.02 into March
	if t.Day() != dayOfMonth || int(t.Month()) != month {
		return time.Time{}, false
	}

	return t, true
}
