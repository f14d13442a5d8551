package main

import (
	"flag"
	"strings"

	"github.com/devops-works/slowfilter/config"
)

type options struct {
	config          string
	logfile         string
	loglevel        string
	minQueryTime    float64
	minRowsExamined int
	includeUsers    listFlag
	excludeUsers    listFlag
	includeQueries  listFlag
	date            firstFlag
	noDuplicates    bool
	details         bool
	sort            listFlag
	top             int
	noProgress      bool
}

// listFlag collects the values of a flag passed more than once
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// firstFlag keeps the first value of a flag passed more than once
type firstFlag struct {
	value string
	set   bool
}

func (f *firstFlag) String() string {
	return f.value
}

func (f *firstFlag) Set(v string) error {
	if !f.set {
		f.value, f.set = v, true
	}
	return nil
}

func (o *options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.config, "config", "", "Configuration file (yaml, toml, json)")
	fs.StringVar(&o.logfile, "f", "", "Slow query log file to filter, standard input when empty")
	fs.StringVar(&o.loglevel, "l", "info", "Log level")
	fs.Float64Var(&o.minQueryTime, "T", 1, "Include only queries which took at least that many seconds")
	fs.IntVar(&o.minRowsExamined, "R", 0, "Also include queries which examined at least that many rows")
	fs.Var(&o.includeUsers, "iu", "Include only queries whose user contains this [multiple]")
	fs.Var(&o.excludeUsers, "eu", "Exclude queries whose user contains this [multiple]")
	fs.Var(&o.includeQueries, "iq", "Include only queries containing this [multiple]")
	fs.Var(&o.date, "date", "Include only queries of this date range, e.g. 13.11.2006-15.11.2006, >13.11.2006")
	fs.BoolVar(&o.noDuplicates, "no-duplicates", false, "Output unique queries with statistics")
	fs.BoolVar(&o.details, "details", false, "Show the distinct counters of every user with -no-duplicates")
	fs.Var(&o.sort, "sort", "Sort key of unique queries, in priority order. use ? to see all the available values [multiple]")
	fs.IntVar(&o.top, "top", 0, "Show only that many unique queries, 0 for all")
	fs.BoolVar(&o.noProgress, "no-progress", false, "Do not show a progress bar")
}

// apply overrides c with the flags explicitly given on the command line
func (o *options) apply(fs *flag.FlagSet, c *config.Options) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "f":
			c.File = o.logfile
		case "l":
			c.LogLevel = o.loglevel
		case "T":
			c.MinQueryTime = o.minQueryTime
		case "R":
			c.MinRowsExamined = o.minRowsExamined
		case "iu":
			c.IncludeUsers = o.includeUsers
		case "eu":
			c.ExcludeUsers = o.excludeUsers
		case "iq":
			c.IncludeQueries = o.includeQueries
		case "date":
			c.Date = o.date.value
		case "no-duplicates":
			c.NoDuplicates = o.noDuplicates
		case "details":
			c.Details = o.details
		case "sort":
			c.Sort = splitList(o.sort)
		case "top":
			c.Top = o.top
		case "no-progress":
			c.NoProgress = o.noProgress
		}
	})
}

// splitList accepts both -sort a -sort b and -sort a,b
func splitList(l []string) []string {
	var res []string
	for _, v := range l {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				res = append(res, s)
			}
		}
	}
	return res
}

// wantsSortHelp returns true if the user asked for the list of sort keys
func (o *options) wantsSortHelp() bool {
	for _, v := range o.sort {
		if v == "?" {
			return true
		}
	}
	return false
}
