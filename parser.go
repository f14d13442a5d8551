package slowfilter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devops-works/slowfilter/filter"
	"github.com/devops-works/slowfilter/query"
	"github.com/devops-works/slowfilter/server"
)

const (
	timePrefix  = "# Time:"
	userPrefix  = "# User@Host:"
	statsPrefix = "# Query_time:"

	// headerLines is the number of lines the server writes when it opens the
	// log
	headerLines = 3

	// maxLineSize bounds the length of a single query line
	maxLineSize = 16 * 1024 * 1024
)

var errNegative = errors.New("negative value")

// timeLayouts are the formats of the Time header, old MySQL first
var timeLayouts = []string{
	"060102 15:04:05",
	time.RFC3339Nano,
}

// Parser reads a slow query log and returns the records accepted by its
// filter, one after each other.
type Parser struct {
	// Location is used to read timestamps that carry no zone. Defaults to
	// time.Local.
	Location *time.Location

	filter  *filter.Filter
	logger  *logrus.Logger
	scanner *bufio.Scanner
	st      state
	header  []string
	srv     server.Server
	started bool
	done    bool
	lines   int
	err     error
}

// state is the progress of the parser inside the current record. It is
// passed by value from one line to the next.
type state struct {
	current query.Query

	// dated is true once a Time line accepted by the date filter is in
	// effect. MySQL does not repeat the Time line for records written in the
	// same second, so it outlives the record.
	dated bool

	// interested is true while the record passes every filter checked so far
	interested bool

	// counted is true once the counters line has been read and accepted
	counted bool

	body    []string
	records int
}

// NewParser returns a Parser reading r. A nil logger uses the logrus standard
// logger.
func NewParser(r io.Reader, f *filter.Filter, logger *logrus.Logger) *Parser {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if f == nil {
		f = filter.New()
	}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Parser{
		Location: time.Local,
		filter:   f,
		logger:   logger,
		scanner:  s,
	}
}

// Next returns the next accepted record. The boolean is false once the source
// is exhausted.
func (p *Parser) Next() (query.Query, bool) {
	var q *query.Query

	for !p.done {
		if !p.scanner.Scan() {
			p.done = true
			if err := p.scanner.Err(); err != nil {
				p.logger.Errorf("cannot read slow log: %s", err)
				p.err = err
			}
			p.startRecords()
			// the last record has no following header to flush it
			if p.st, q = p.st.flush(p.filter); q != nil {
				return *q, true
			}
			break
		}

		line := strings.TrimRight(p.scanner.Text(), "\r")
		p.lines++

		if !p.started {
			if strings.HasPrefix(line, "# ") {
				p.startRecords()
			} else if len(p.header) < headerLines {
				p.header = append(p.header, line)
			}
		}

		if p.st, q = p.st.step(line, p); q != nil {
			return *q, true
		}
	}

	return query.Query{}, false
}

// Server returns the server informations found at the top of the log
func (p *Parser) Server() server.Server {
	return p.srv
}

// Lines returns the number of lines read so far
func (p *Parser) Lines() int {
	return p.lines
}

// Records returns the number of records seen so far, accepted or not
func (p *Parser) Records() int {
	return p.st.records
}

// Err returns the error which stopped the scanning, if any
func (p *Parser) Err() error {
	return p.err
}

func (p *Parser) startRecords() {
	if p.started {
		return
	}
	p.started = true
	p.srv = server.Parse(p.header)
	p.header = nil
	if p.srv.Known() {
		p.logger.Debugf("log written by %s %s", p.srv.Binary, p.srv.Version)
	}
}

// step consumes one line. It returns the state for the next line and the
// record completed by this line, if any.
func (s state) step(line string, p *Parser) (state, *query.Query) {
	if !strings.HasPrefix(line, "# ") {
		if s.interested && s.counted && line != "" {
			s.body = append(s.body, line)
		}
		return s, nil
	}

	s, q := s.flush(p.filter)

	switch {
	case strings.HasPrefix(line, timePrefix):
		s.interested, s.counted = false, false
		t, err := p.parseTime(line[len(timePrefix):])
		if err != nil {
			p.logger.Warnf("time: error converting %q to time: %s", line, err)
			s.current.Time = time.Time{}
			s.dated = p.filter.Dates.IsZero()
			break
		}
		s.current.Time = t
		s.dated = p.filter.Date(t)

	case strings.HasPrefix(line, userPrefix):
		s.records++
		s.counted = false
		s.current.User = strings.TrimSpace(line[len(userPrefix):])
		// the date filter gates the user filter: a rejected or missing
		// timestamp skips the whole record
		s.interested = s.dated && p.filter.User(s.current.User)

	case strings.HasPrefix(line, statsPrefix):
		if !s.interested {
			break
		}
		stats, err := parseStats(line)
		if err != nil {
			p.logger.Warnf("dropping record of %s: %s", s.current.User, err)
			s.interested = false
			break
		}
		s.current.QueryTime = stats.QueryTime
		s.current.LockTime = stats.LockTime
		s.current.RowsSent = stats.RowsSent
		s.current.RowsExamined = stats.RowsExamined
		s.interested = p.filter.Thresholds(stats)
		s.counted = s.interested
	}

	return s, q
}

// flush returns the pending record if it is complete and matches the query
// filter, and resets the state for the next record. Without a pending query
// body the state is returned untouched, since header lines of the same record
// can still follow.
func (s state) flush(f *filter.Filter) (state, *query.Query) {
	if len(s.body) == 0 {
		return s, nil
	}

	var out *query.Query
	text := strings.Join(s.body, "\n")
	if s.interested && s.counted && f.Query(text) {
		q := s.current
		q.Query = text
		out = &q
	}

	s.body = nil
	s.interested = false
	s.counted = false
	return s, out
}

func (p *Parser) parseTime(value string) (time.Time, error) {
	// hours before 10 are padded with a space in old logs
	value = strings.Join(strings.Fields(value), " ")

	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, value, p.Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// parseStats parses the counters line:
//
//	# Query_time: 2  Lock_time: 0  Rows_sent: 1  Rows_examined: 12345
//
// All four counters are required. Unknown fields written by newer servers are
// ignored.
func parseStats(line string) (query.Stats, error) {
	var s query.Stats
	var seen int
	var err error

	parts := strings.Fields(line[1:])
	for idx := 0; idx+1 < len(parts); idx++ {
		value := parts[idx+1]

		switch strings.ToLower(parts[idx]) {
		case "query_time:":
			s.QueryTime, err = parseSeconds(value)
		case "lock_time:":
			s.LockTime, err = parseSeconds(value)
		case "rows_sent:":
			s.RowsSent, err = parseCount(value)
		case "rows_examined:":
			s.RowsExamined, err = parseCount(value)
		default:
			continue
		}
		if err != nil {
			return s, fmt.Errorf("%s error converting %q: %w", parts[idx], value, err)
		}
		seen++
		idx++
	}

	if seen != 4 {
		return s, fmt.Errorf("incomplete counters line %q", line)
	}
	return s, nil
}

func parseSeconds(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %s", v)
	}
	if f < 0 {
		return 0, errNegative
	}
	return f, nil
}

func parseCount(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errNegative
	}
	return n, nil
}
