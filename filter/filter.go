// Package filter holds the predicates deciding which slow log records are
// kept. Every predicate is independent; a record is kept when all of them
// accept it.
package filter

import (
	"strings"
	"time"

	"github.com/devops-works/slowfilter/daterange"
	"github.com/devops-works/slowfilter/query"
)

// DefaultMinQueryTime is the query time threshold used by New
const DefaultMinQueryTime = 1

// Filter holds the filtering criteria
type Filter struct {
	// MinQueryTime keeps records which took at least that many seconds
	MinQueryTime float64

	// MinRowsExamined also keeps records which examined at least that many
	// rows. Zero disables it.
	MinRowsExamined int

	// IncludeUsers keeps only records whose User@Host contains one of them.
	// When set, ExcludeUsers is ignored.
	IncludeUsers []string

	// ExcludeUsers drops records whose User@Host contains one of them
	ExcludeUsers []string

	// IncludeQueries keeps only records whose query contains one of them
	IncludeQueries []string

	// Dates keeps records whose timestamp is inside the interval
	Dates daterange.Interval
}

// New returns a Filter with default thresholds and no other criteria
func New() *Filter {
	return &Filter{MinQueryTime: DefaultMinQueryTime}
}

// Thresholds checks the query time and rows examined thresholds
func (f *Filter) Thresholds(s query.Stats) bool {
	if s.QueryTime >= f.MinQueryTime {
		return true
	}
	return f.MinRowsExamined > 0 && s.RowsExamined >= f.MinRowsExamined
}

// User checks the user include and exclude lists against a User@Host value
func (f *Filter) User(user string) bool {
	if len(f.IncludeUsers) > 0 {
		return containsAny(user, f.IncludeUsers)
	}
	return !containsAny(user, f.ExcludeUsers)
}

// Query checks the query include list against a query body
func (f *Filter) Query(text string) bool {
	if len(f.IncludeQueries) == 0 {
		return true
	}
	return containsAny(text, f.IncludeQueries)
}

// Date checks that t is inside the configured interval
func (f *Filter) Date(t time.Time) bool {
	return f.Dates.Contains(t)
}

// Accept applies every predicate to a complete record
func (f *Filter) Accept(q query.Query) bool {
	return f.Date(q.Time) &&
		f.User(q.User) &&
		f.Thresholds(q.Stats()) &&
		f.Query(q.Query)
}

// Unique returns s without its duplicates, keeping the first occurrences in
// order
func Unique(s []string) []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]bool, len(s))
	out := make([]string, 0, len(s))
	for _, v := range s {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
