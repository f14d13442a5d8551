package filter

import (
	"reflect"
	"testing"
	"time"

	"github.com/devops-works/slowfilter/daterange"
	"github.com/devops-works/slowfilter/query"
)

func TestFilter_Thresholds(t *testing.T) {
	tests := []struct {
		name            string
		minQueryTime    float64
		minRowsExamined int
		stats           query.Stats
		want            bool
	}{
		{name: "default time accepted", minQueryTime: 1, stats: query.Stats{QueryTime: 2}, want: true},
		{name: "equal time accepted", minQueryTime: 3, stats: query.Stats{QueryTime: 3}, want: true},
		{name: "time rejected", minQueryTime: 3, stats: query.Stats{QueryTime: 2}, want: false},
		{name: "rows accepted", minQueryTime: 3, minRowsExamined: 100,
			stats: query.Stats{QueryTime: 0, RowsExamined: 100}, want: true},
		{name: "rows rejected", minQueryTime: 3, minRowsExamined: 100,
			stats: query.Stats{QueryTime: 0, RowsExamined: 99}, want: false},
		{name: "rows disabled", minQueryTime: 3,
			stats: query.Stats{QueryTime: 0, RowsExamined: 0}, want: false},
		{name: "fractional time", minQueryTime: 0.5, stats: query.Stats{QueryTime: 0.75}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Filter{MinQueryTime: tt.minQueryTime, MinRowsExamined: tt.minRowsExamined}
			if got := f.Thresholds(tt.stats); got != tt.want {
				t.Errorf("Filter.Thresholds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_User(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		user    string
		want    bool
	}{
		{name: "no lists", user: "root[root] @ localhost []", want: true},
		{name: "excluded", exclude: []string{"root"}, user: "root[root] @ localhost []", want: false},
		{name: "not excluded", exclude: []string{"root", "test"}, user: "app[app] @ web1 []", want: true},
		{name: "included", include: []string{"app"}, user: "app[app] @ web1 []", want: true},
		{name: "not included", include: []string{"app"}, user: "root[root] @ localhost []", want: false},
		{name: "include wins over exclude", include: []string{"root"}, exclude: []string{"root"},
			user: "root[root] @ localhost []", want: true},
		{name: "substring on host", include: []string{"web1"}, user: "app[app] @ web1 []", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Filter{IncludeUsers: tt.include, ExcludeUsers: tt.exclude}
			if got := f.User(tt.user); got != tt.want {
				t.Errorf("Filter.User(%q) = %v, want %v", tt.user, got, tt.want)
			}
		})
	}
}

func TestFilter_Query(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		text    string
		want    bool
	}{
		{name: "no list", text: "SELECT 1;", want: true},
		{name: "matching table", include: []string{"orders"}, text: "SELECT * FROM orders;", want: true},
		{name: "one of many", include: []string{"users", "orders"}, text: "SELECT * FROM orders;", want: true},
		{name: "no match", include: []string{"users"}, text: "SELECT * FROM orders;", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Filter{IncludeQueries: tt.include}
			if got := f.Query(tt.text); got != tt.want {
				t.Errorf("Filter.Query(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFilter_Accept(t *testing.T) {
	day := time.Date(2006, 11, 13, 0, 0, 0, 0, time.UTC)
	f := New()
	f.ExcludeUsers = []string{"root"}
	f.IncludeQueries = []string{"orders"}
	f.Dates = daterange.Interval{Start: day, End: day.AddDate(0, 0, 1)}

	base := query.Query{
		Time:      day.Add(time.Hour),
		User:      "app[app] @ web1 []",
		QueryTime: 2,
		Query:     "SELECT * FROM orders;",
	}

	tests := []struct {
		name   string
		mutate func(q *query.Query)
		want   bool
	}{
		{name: "accepted", mutate: func(q *query.Query) {}, want: true},
		{name: "wrong day", mutate: func(q *query.Query) { q.Time = day.AddDate(0, 0, 1) }, want: false},
		{name: "excluded user", mutate: func(q *query.Query) { q.User = "root[root] @ localhost []" }, want: false},
		{name: "too fast", mutate: func(q *query.Query) { q.QueryTime = 0 }, want: false},
		{name: "other table", mutate: func(q *query.Query) { q.Query = "SELECT 1;" }, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := base
			tt.mutate(&q)
			if got := f.Accept(q); got != tt.want {
				t.Errorf("Filter.Accept() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnique(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "no duplicates", in: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "duplicates", in: []string{"root", "test", "root"}, want: []string{"root", "test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unique(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unique() = %v, want %v", got, tt.want)
			}
		})
	}
}
