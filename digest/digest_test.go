package digest

import (
	"reflect"
	"testing"
	"time"

	"github.com/devops-works/slowfilter/query"
)

func at(sec int) time.Time {
	return time.Date(2006, 11, 13, 12, 0, sec, 0, time.UTC)
}

func record(sec int, user, text string, qt float64, rows int) query.Query {
	return query.Query{
		Time:         at(sec),
		User:         user,
		QueryTime:    qt,
		RowsExamined: rows,
		Query:        text,
	}
}

func TestDigest_sameCountersMerged(t *testing.T) {
	d := New()
	d.Add(record(1, "app", "SELECT 1;", 3, 10))
	d.Add(record(2, "app", "SELECT 1;", 3, 10))

	res := d.Finalize()
	if len(res) != 1 {
		t.Fatalf("got %d summaries, want 1", len(res))
	}
	s := res[0]
	if s.Calls != 2 {
		t.Errorf("Calls = %d, want 2", s.Calls)
	}
	if len(s.Details) != 1 {
		t.Fatalf("got %d details, want 1", len(s.Details))
	}
	if s.Details[0].Count != 2 {
		t.Errorf("Details[0].Count = %d, want 2", s.Details[0].Count)
	}
	if !reflect.DeepEqual(s.Details[0].Times, []time.Time{at(1), at(2)}) {
		t.Errorf("Details[0].Times = %v", s.Details[0].Times)
	}
	if want := (Metric{Sum: 6, Max: 3, Avg: 3}); s.QueryTime != want {
		t.Errorf("QueryTime = %+v, want %+v", s.QueryTime, want)
	}
	if want := (Metric{Sum: 20, Max: 10, Avg: 10}); s.RowsExamined != want {
		t.Errorf("RowsExamined = %+v, want %+v", s.RowsExamined, want)
	}
	if !s.First.Equal(at(1)) || !s.Last.Equal(at(2)) {
		t.Errorf("First, Last = %s, %s", s.First, s.Last)
	}
}

func TestDigest_statistics(t *testing.T) {
	d := New()
	d.Add(record(5, "bob", "SELECT * FROM t;", 1, 3))
	d.Add(record(3, "alice", "SELECT * FROM t;", 2, 4))
	d.Add(record(4, "alice", "SELECT * FROM t;", 2, 4))
	d.Add(record(9, "alice", "SELECT * FROM t;", 3, 4))
	d.Add(record(1, "alice", "SELECT 2;", 10, 1))

	res := d.Finalize()
	if len(res) != 2 {
		t.Fatalf("got %d summaries, want 2", len(res))
	}
	if d.Len() != 2 || d.Records() != 5 {
		t.Errorf("Len, Records = %d, %d", d.Len(), d.Records())
	}

	s := res[0]
	if s.Query != "SELECT * FROM t;" {
		t.Fatalf("first summary is %q, want first seen query", s.Query)
	}
	if s.Calls != 4 {
		t.Errorf("Calls = %d, want 4", s.Calls)
	}
	// 8 / 4
	if want := (Metric{Sum: 8, Max: 3, Avg: 2}); s.QueryTime != want {
		t.Errorf("QueryTime = %+v, want %+v", s.QueryTime, want)
	}
	// 15 / 4 = 3.75
	if want := (Metric{Sum: 15, Max: 4, Avg: 4}); s.RowsExamined != want {
		t.Errorf("RowsExamined = %+v, want %+v", s.RowsExamined, want)
	}
	if !s.First.Equal(at(3)) || !s.Last.Equal(at(9)) {
		t.Errorf("First, Last = %s, %s", s.First, s.Last)
	}

	var users []string
	var times []float64
	for _, e := range s.Details {
		users = append(users, e.User)
		times = append(times, e.Stats.QueryTime)
	}
	if want := []string{"alice", "alice", "bob"}; !reflect.DeepEqual(users, want) {
		t.Errorf("detail users = %v, want %v", users, want)
	}
	if want := []float64{3, 2, 1}; !reflect.DeepEqual(times, want) {
		t.Errorf("detail query times = %v, want %v", times, want)
	}
}

func TestDigest_countPreserving(t *testing.T) {
	d := New()
	texts := []string{"a", "b", "a", "c", "a", "b"}
	for i, text := range texts {
		d.Add(record(i, "u", text, float64(i%2), i))
	}

	var calls int
	for _, s := range d.Finalize() {
		calls += s.Calls
	}
	if calls != len(texts) {
		t.Errorf("sum of calls = %d, want %d", calls, len(texts))
	}
}

func Test_metric(t *testing.T) {
	tests := []struct {
		name   string
		data   []float64
		places int
		want   Metric
	}{
		{name: "one decimal", data: []float64{1, 2, 2}, places: 1, want: Metric{Sum: 5, Max: 2, Avg: 1.7}},
		{name: "integer", data: []float64{1, 2, 2}, places: 0, want: Metric{Sum: 5, Max: 2, Avg: 2}},
		{name: "half rounds up", data: []float64{1, 2}, places: 0, want: Metric{Sum: 3, Max: 2, Avg: 2}},
		{name: "single", data: []float64{7}, places: 1, want: Metric{Sum: 7, Max: 7, Avg: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metric(tt.data, tt.places); got != tt.want {
				t.Errorf("metric() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func Test_hash(t *testing.T) {
	tests := []struct {
		name string
		q    string
		want string
	}{
		{name: "foobar", q: "foobar", want: "3858f62230ac3c915f300c664312c63f"},
		{name: "some long string", q: "some long string", want: "2fb66bbfb88cdf9e07a3f1d1dfad71ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hash(tt.q); got != tt.want {
				t.Errorf("hash() = %v, want %v", got, tt.want)
			}
		})
	}
}
