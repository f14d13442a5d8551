// Package slowfilter filters MySQL slow query logs.
// Records are kept or dropped according to thresholds, users, query contents
// and dates, and can be merged by query into summaries that are sorted and
// cut to a top N.
package slowfilter

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devops-works/slowfilter/daterange"
	"github.com/devops-works/slowfilter/digest"
	"github.com/devops-works/slowfilter/filter"
	"github.com/devops-works/slowfilter/query"
	"github.com/devops-works/slowfilter/server"
)

// Config holds everything the pipeline needs to filter and digest a log
type Config struct {
	MinQueryTime    float64
	MinRowsExamined int
	IncludeUsers    []string
	ExcludeUsers    []string
	IncludeQueries  []string

	// Dates is a date range expression, see package daterange
	Dates string

	// NoDuplicates merges records by query instead of returning them
	NoDuplicates bool

	// ShowDetails asks reporters to list the distinct counters of each user
	ShowDetails bool

	// SortKeys are the first sort criteria, completed with digest.Order
	SortKeys []digest.SortKey

	// Top limits the number of summaries. Zero means no limit.
	Top int

	// Location is the time zone of the log and of the dates. Defaults to
	// time.Local.
	Location *time.Location
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		MinQueryTime: filter.DefaultMinQueryTime,
	}
}

// Sink receives the results of a pipeline run
type Sink interface {
	// Record is called for every accepted record when duplicates are kept
	Record(q query.Query) error

	// Summaries is called once at the end when duplicates are removed
	Summaries(s []digest.Summary, keys []digest.SortKey) error
}

// Result describes a pipeline run
type Result struct {
	Lines    int
	Records  int
	Accepted int
	Unique   int
	Server   server.Server
	Duration time.Duration
}

// Pipeline ties the parser, the filter and the digest together
type Pipeline struct {
	cfg    Config
	filter *filter.Filter
	keys   []digest.SortKey
	logger *logrus.Logger
}

// New returns a Pipeline configured by cfg. A nil logger uses the logrus
// standard logger.
func New(cfg Config, logger *logrus.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MinQueryTime < 0 {
		return nil, fmt.Errorf("minimum query time cannot be negative: %v", cfg.MinQueryTime)
	}
	if cfg.MinRowsExamined < 0 {
		return nil, fmt.Errorf("minimum rows examined cannot be negative: %d", cfg.MinRowsExamined)
	}
	if cfg.Top < 0 {
		return nil, fmt.Errorf("top cannot be negative: %d", cfg.Top)
	}

	f := &filter.Filter{
		MinQueryTime:    cfg.MinQueryTime,
		MinRowsExamined: cfg.MinRowsExamined,
		IncludeUsers:    filter.Unique(cfg.IncludeUsers),
		ExcludeUsers:    filter.Unique(cfg.ExcludeUsers),
		IncludeQueries:  filter.Unique(cfg.IncludeQueries),
	}
	if cfg.Dates != "" {
		f.Dates = daterange.Parse(cfg.Dates, time.Now().In(cfg.Location))
		if f.Dates.IsZero() {
			logger.Warnf("cannot read date range %q, ignoring it", cfg.Dates)
		} else {
			logger.Debugf("date range %q is %s", cfg.Dates, f.Dates)
		}
	}

	return &Pipeline{
		cfg:    cfg,
		filter: f,
		keys:   digest.Order(cfg.SortKeys),
		logger: logger,
	}, nil
}

// Filter returns the filter built from the configuration
func (p *Pipeline) Filter() *filter.Filter {
	return p.filter
}

// Run reads the whole log from r and hands the results to sink. Whatever was
// accepted is delivered even when reading fails midway.
func (p *Pipeline) Run(r io.Reader, sink Sink) (Result, error) {
	var res Result
	start := time.Now()

	parser := NewParser(r, p.filter, p.logger)
	parser.Location = p.cfg.Location

	var d *digest.Digest
	if p.cfg.NoDuplicates {
		d = digest.New()
	}

	for {
		q, ok := parser.Next()
		if !ok {
			p.logger.Debug("no more queries, breaking for loop")
			break
		}
		res.Accepted++
		p.logger.Tracef("accepted query: %s", q.Query)

		if d == nil {
			if err := sink.Record(q); err != nil {
				return res, fmt.Errorf("cannot write record: %w", err)
			}
			continue
		}
		d.Add(q)
	}

	res.Lines = parser.Lines()
	res.Records = parser.Records()
	res.Server = parser.Server()

	if d != nil {
		summaries := d.Finalize()
		res.Unique = len(summaries)
		digest.Sort(summaries, p.keys)
		summaries = digest.Top(summaries, p.cfg.Top)
		if err := sink.Summaries(summaries, p.keys); err != nil {
			return res, fmt.Errorf("cannot write summaries: %w", err)
		}
	}
	res.Duration = time.Since(start)

	if err := parser.Err(); err != nil {
		return res, fmt.Errorf("cannot read slow log: %w", err)
	}
	return res, nil
}
