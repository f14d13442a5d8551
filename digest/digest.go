// Package digest merges accepted records by query text and computes the
// statistics of each query.
package digest

import (
	"crypto/md5"
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/devops-works/slowfilter/query"
)

// Metric holds the aggregated values of one counter
type Metric struct {
	Sum float64
	Max float64
	Avg float64
}

// Entry counts the executions of a query by one user with the same counters
type Entry struct {
	User  string
	Stats query.Stats
	Count int
	Times []time.Time
}

// Summary holds the statistics of every execution of a query
type Summary struct {
	Hash         string
	Query        string
	Calls        int
	First        time.Time
	Last         time.Time
	QueryTime    Metric
	LockTime     Metric
	RowsSent     Metric
	RowsExamined Metric

	// Details are ordered by user, then by slowest counters first
	Details []Entry
}

type entryKey struct {
	query string
	user  string
	stats query.Stats
}

type group struct {
	query   string
	entries []*Entry
}

// Digest accumulates records until Finalize is called
type Digest struct {
	index   map[entryKey]*Entry
	groups  map[string]*group
	order   []*group
	records int
}

// New returns an empty Digest
func New() *Digest {
	return &Digest{
		index:  make(map[entryKey]*Entry),
		groups: make(map[string]*group),
	}
}

// Add records one execution of q
func (d *Digest) Add(q query.Query) {
	d.records++

	k := entryKey{query: q.Query, user: q.User, stats: q.Stats()}
	if e, ok := d.index[k]; ok {
		// same query, same user, same counters
		e.Count++
		e.Times = append(e.Times, q.Time)
		return
	}

	g, ok := d.groups[q.Query]
	if !ok {
		g = &group{query: q.Query}
		d.groups[q.Query] = g
		d.order = append(d.order, g)
	}

	e := &Entry{
		User:  q.User,
		Stats: k.stats,
		Count: 1,
		Times: []time.Time{q.Time},
	}
	d.index[k] = e
	g.entries = append(g.entries, e)
}

// Len returns the number of different queries
func (d *Digest) Len() int {
	return len(d.order)
}

// Records returns the number of records added so far
func (d *Digest) Records() int {
	return d.records
}

// Finalize computes the summary of every query, in the order the queries were
// first seen.
func (d *Digest) Finalize() []Summary {
	res := make([]Summary, 0, len(d.order))
	for _, g := range d.order {
		res = append(res, g.summarize())
	}
	return res
}

func (g *group) summarize() Summary {
	s := Summary{
		Hash:  hash(g.query),
		Query: g.query,
	}

	var queryTimes, lockTimes, rowsSent, rowsExamined stats.Float64Data
	for _, e := range g.entries {
		// every execution weighs in, not every distinct counters tuple
		for i := 0; i < e.Count; i++ {
			queryTimes = append(queryTimes, e.Stats.QueryTime)
			lockTimes = append(lockTimes, e.Stats.LockTime)
			rowsSent = append(rowsSent, float64(e.Stats.RowsSent))
			rowsExamined = append(rowsExamined, float64(e.Stats.RowsExamined))
		}
		s.Calls += e.Count

		for _, t := range e.Times {
			if s.First.IsZero() || t.Before(s.First) {
				s.First = t
			}
			if t.After(s.Last) {
				s.Last = t
			}
		}

		detail := *e
		detail.Times = append([]time.Time(nil), e.Times...)
		s.Details = append(s.Details, detail)
	}

	s.QueryTime = metric(queryTimes, 1)
	s.LockTime = metric(lockTimes, 1)
	s.RowsSent = metric(rowsSent, 0)
	s.RowsExamined = metric(rowsExamined, 0)

	sort.SliceStable(s.Details, func(i, j int) bool {
		a, b := s.Details[i], s.Details[j]
		if a.User != b.User {
			return a.User < b.User
		}
		if a.Stats.QueryTime != b.Stats.QueryTime {
			return a.Stats.QueryTime > b.Stats.QueryTime
		}
		if a.Stats.LockTime != b.Stats.LockTime {
			return a.Stats.LockTime > b.Stats.LockTime
		}
		return a.Stats.RowsExamined > b.Stats.RowsExamined
	})

	return s
}

// metric aggregates data, rounding the average to the given decimal places.
// data is never empty since a group exists only once a record was added.
func metric(data stats.Float64Data, places int) Metric {
	var m Metric
	var err error

	if m.Sum, err = stats.Sum(data); err != nil {
		return m
	}
	if m.Max, err = stats.Max(data); err != nil {
		return m
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return m
	}
	m.Avg, _ = stats.Round(mean, places)
	return m
}

// returns MD5 hash of the query
func hash(q string) string {
	data := []byte(q)
	return fmt.Sprintf("%x", md5.Sum(data))
}
