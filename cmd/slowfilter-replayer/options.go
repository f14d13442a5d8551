package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/devops-works/slowfilter/config"
)

type options struct {
	config   string
	user     string
	host     string
	pass     string
	database string
	workers  int
	speed    float64
	usePass  bool
	noDryRun bool

	file            string
	loglvl          string
	minQueryTime    float64
	minRowsExamined int
	includeUsers    listFlag
	excludeUsers    listFlag
	includeQueries  listFlag
	date            firstFlag
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
	fs.StringVar(&o.config, "config", "", "Configuration file holding the filters (yaml, toml, json)")
	fs.StringVar(&o.user, "u", "", "User to use to connect to database")
	fs.StringVar(&o.host, "h", "", "Address of the database, with IP and port")
	fs.StringVar(&o.database, "db", "", "Name of the database to use")
	fs.IntVar(&o.workers, "w", 100, "Number of maximum simultaneous connections to database")
	fs.Float64Var(&o.speed, "speed", 0, "Wait between queries as in the log, divided by this factor. 0 does not wait")
	fs.BoolVar(&o.usePass, "p", false, "Use a password to connect to database")
	fs.BoolVar(&o.noDryRun, "no-dry-run", false, "Replay the requests on the database for real")

	fs.StringVar(&o.file, "f", "", "Slow query log file to use, standard input when empty")
	fs.StringVar(&o.loglvl, "l", "info", "Logging level")
	fs.Float64Var(&o.minQueryTime, "T", 1, "Replay only queries which took at least that many seconds")
	fs.IntVar(&o.minRowsExamined, "R", 0, "Also replay queries which examined at least that many rows")
	fs.Var(&o.includeUsers, "iu", "Replay only queries whose user contains this [multiple]")
	fs.Var(&o.excludeUsers, "eu", "Do not replay queries whose user contains this [multiple]")
	fs.Var(&o.includeQueries, "iq", "Replay only queries containing this [multiple]")
	fs.Var(&o.date, "date", "Replay only queries of this date range")
}

// apply overrides c with the filter flags explicitly given on the command
// line
func (o *options) apply(fs *flag.FlagSet, c *config.Options) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "f":
			c.File = o.file
		case "l":
			c.LogLevel = o.loglvl
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
		}
	})
}

// parse ensures that no connection option has been omitted when replaying
// for real
func (o *options) parse() []error {
	var errs []error

	if o.workers <= 0 {
		errs = append(errs, errors.New("cannot create negative number or zero workers"))
	}
	if o.speed < 0 {
		errs = append(errs, errors.New("speed factor cannot be negative"))
	}
	if !o.noDryRun {
		return errs
	}

	if o.user == "" {
		errs = append(errs, errors.New("no user provided"))
	}
	if o.host == "" {
		errs = append(errs, errors.New("no host provided"))
	}
	if o.database == "" {
		errs = append(errs, errors.New("no database provided"))
	}
	return errs
}

// askPassword reads the password from the terminal without echoing it
func (o *options) askPassword() error {
	fmt.Fprint(os.Stderr, "Password: ")
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr)

	o.pass = string(bytes)
	return nil
}
