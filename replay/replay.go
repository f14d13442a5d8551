// Package replay executes the queries of a slow query log on a MySQL server
// with a pool of workers.
package replay

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/devops-works/slowfilter/digest"
	"github.com/devops-works/slowfilter/query"
)

// Results of a replay
type Results struct {
	Queries  int
	Errors   int
	DryRun   bool
	Duration time.Duration
}

// Replayer runs queries on db. Without a database, queries are only counted.
type Replayer struct {
	db      *sql.DB
	workers int
	logger  *logrus.Logger
}

// DSN returns the go-sql-driver data source name of a TCP connection
func DSN(user, pass, addr, dbname string) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = addr
	cfg.DBName = dbname
	return cfg.FormatDSN()
}

// New returns a Replayer using at least one worker
func New(db *sql.DB, workers int, logger *logrus.Logger) *Replayer {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Replayer{db: db, workers: workers, logger: logger}
}

// Run executes the queries read from queries until it is closed or ctx is
// done
func (r *Replayer) Run(ctx context.Context, queries <-chan string) Results {
	var (
		wg       sync.WaitGroup
		executed int64
		failed   int64
	)

	start := time.Now()
	r.logger.Debugf("starting %d workers", r.workers)
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case q, ok := <-queries:
					if !ok {
						r.logger.Trace("channel closed, worker exiting")
						return
					}
					atomic.AddInt64(&executed, 1)
					if err := r.exec(ctx, q); err != nil {
						atomic.AddInt64(&failed, 1)
						r.logger.Debugf("failed to execute query:\n%s\nerror: %s", q, err)
					}
				}
			}
		}()
	}
	wg.Wait()

	return Results{
		Queries:  int(executed),
		Errors:   int(failed),
		DryRun:   r.db == nil,
		Duration: time.Since(start),
	}
}

func (r *Replayer) exec(ctx context.Context, q string) error {
	if r.db == nil {
		return nil
	}
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	return rows.Close()
}

// Sink sends the query of every record it gets to a channel, waiting between
// records as long as the log did divided by Speed. A zero Speed sends as
// fast as the workers read.
type Sink struct {
	ctx      context.Context
	queries  chan<- string
	speed    float64
	previous time.Time
	sent     int
}

// NewSink returns a Sink sending to queries until ctx is done
func NewSink(ctx context.Context, queries chan<- string, speed float64) *Sink {
	return &Sink{ctx: ctx, queries: queries, speed: speed}
}

// Record sends q.Query
func (s *Sink) Record(q query.Query) error {
	if err := s.wait(q.Time); err != nil {
		return err
	}
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case s.queries <- q.Query:
		s.sent++
		return nil
	}
}

// Summaries does nothing, unique queries are not replayed
func (s *Sink) Summaries([]digest.Summary, []digest.SortKey) error {
	return nil
}

// Sent returns the number of queries sent
func (s *Sink) Sent() int {
	return s.sent
}

func (s *Sink) wait(t time.Time) error {
	if s.speed <= 0 || t.IsZero() {
		return nil
	}
	// the first record gives the reference time
	if s.previous.IsZero() {
		s.previous = t
		return nil
	}

	d := time.Duration(float64(t.Sub(s.previous)) / s.speed)
	if t.After(s.previous) {
		s.previous = t
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case <-timer.C:
		return nil
	}
}
