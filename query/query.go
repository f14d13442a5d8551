package query

import "time"

// Query is a single slow query log record and the data associated
type Query struct {
	Time         time.Time
	QueryTime    float64
	LockTime     float64
	RowsSent     int
	RowsExamined int
	User         string
	Query        string
}

// Stats holds the four counters of a record. Two executions with equal Stats
// are merged when digesting.
type Stats struct {
	QueryTime    float64
	LockTime     float64
	RowsSent     int
	RowsExamined int
}

// Stats returns the counters of q
func (q Query) Stats() Stats {
	return Stats{
		QueryTime:    q.QueryTime,
		LockTime:     q.LockTime,
		RowsSent:     q.RowsSent,
		RowsExamined: q.RowsExamined,
	}
}
