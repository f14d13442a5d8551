// Package report writes filtered records and query summaries in a slow query
// log like format.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/logrusorgru/aurora"

	"github.com/devops-works/slowfilter/digest"
	"github.com/devops-works/slowfilter/query"
)

const (
	logTimeLayout     = "060102 15:04:05"
	summaryTimeLayout = "2006-01-02 15:04:05"
)

// Options changes what is written
type Options struct {
	// ShowDetails lists the distinct counters of every user of a query
	ShowDetails bool

	// Colors enables terminal emphasis
	Colors bool
}

// Reporter writes to an io.Writer. It stops writing after the first error,
// which is returned by every following call.
type Reporter struct {
	w    io.Writer
	opts Options
	au   aurora.Aurora
	err  error
}

// New returns a Reporter writing to w
func New(w io.Writer, opts Options) *Reporter {
	return &Reporter{
		w:    w,
		opts: opts,
		au:   aurora.NewAurora(opts.Colors),
	}
}

// Record writes q back as a slow query log record
func (r *Reporter) Record(q query.Query) error {
	if !q.Time.IsZero() {
		r.printf("# Time: %s\n", q.Time.Format(logTimeLayout))
	}
	r.printf("# User@Host: %s\n", q.User)
	r.printf("%s\n", counters(q.Stats()))
	r.printf("%s\n", q.Query)
	return r.err
}

// Summaries writes every summary, slowest first as sorted by the caller
func (r *Reporter) Summaries(s []digest.Summary, keys []digest.SortKey) error {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, string(k))
	}
	r.printf("# Sorted by: %s\n", r.au.Bold(strings.Join(names, ", ")))
	r.printf("# Showing %d queries\n\n", r.au.Bold(len(s)))

	for _, sum := range s {
		r.summary(sum)
	}
	return r.err
}

func (r *Reporter) summary(s digest.Summary) {
	r.printf("%s\n", r.au.Bold(fmt.Sprintf("# Execution count: %s. Hash: %s.",
		humanize.Comma(int64(s.Calls)), s.Hash)))
	r.printf("# First seen: %s. Last seen: %s.\n", seen(s.First), seen(s.Last))

	metrics := []struct {
		name  string
		m     digest.Metric
		count bool
	}{
		{name: "Query time", m: s.QueryTime},
		{name: "Lock time", m: s.LockTime},
		{name: "Rows sent", m: s.RowsSent, count: true},
		{name: "Rows examined", m: s.RowsExamined, count: true},
	}
	for _, f := range metrics {
		if f.count {
			r.printf("# %s: avg=%s / max=%s / sum=%s.\n", f.name,
				count(f.m.Avg), count(f.m.Max), count(f.m.Sum))
			continue
		}
		r.printf("# %s: avg=%s / max=%s / sum=%s.\n", f.name,
			humanize.FormatFloat("#,###.#", f.m.Avg), seconds(f.m.Max), seconds(f.m.Sum))
	}

	if r.opts.ShowDetails {
		user := ""
		for i, e := range s.Details {
			if i == 0 || e.User != user {
				user = e.User
				r.printf("# User@Host: %s\n", user)
			}
			line := counters(e.Stats)
			if e.Count > 1 {
				line += fmt.Sprintf(" (%s times)", humanize.Comma(int64(e.Count)))
			}
			r.printf("%s\n", line)
		}
	}

	r.printf("\n%s\n\n", s.Query)
}

func (r *Reporter) printf(format string, a ...interface{}) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, a...)
}

func counters(s query.Stats) string {
	return fmt.Sprintf("# Query_time: %s  Lock_time: %s  Rows_sent: %d  Rows_examined: %d",
		strconv.FormatFloat(s.QueryTime, 'f', -1, 64),
		strconv.FormatFloat(s.LockTime, 'f', -1, 64),
		s.RowsSent,
		s.RowsExamined,
	)
}

// seconds groups thousands and keeps up to microseconds
func seconds(v float64) string {
	return humanize.CommafWithDigits(v, 6)
}

func count(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func seen(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format(summaryTimeLayout)
}
