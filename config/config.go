// Package config loads slowfilter settings from an optional configuration
// file and SLOWFILTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/devops-works/slowfilter"
	"github.com/devops-works/slowfilter/digest"
	"github.com/devops-works/slowfilter/filter"
)

// EnvPrefix prefixes the environment variables read by Load
const EnvPrefix = "SLOWFILTER"

// Settings keys, used in files (min_query_time: 3) and in the environment
// (SLOWFILTER_MIN_QUERY_TIME=3)
const (
	KeyLogLevel        = "log_level"
	KeyFile            = "file"
	KeyMinQueryTime    = "min_query_time"
	KeyMinRowsExamined = "min_rows_examined"
	KeyIncludeUsers    = "include_users"
	KeyExcludeUsers    = "exclude_users"
	KeyIncludeQueries  = "include_queries"
	KeyDate            = "date"
	KeyNoDuplicates    = "no_duplicates"
	KeyDetails         = "details"
	KeySort            = "sort"
	KeyTop             = "top"
	KeyNoProgress      = "no_progress"
)

var levels = []string{"trace", "debug", "info", "warn", "error", "err", "fatal"}

// Options holds every setting of the slowfilter command
type Options struct {
	LogLevel        string
	File            string
	MinQueryTime    float64
	MinRowsExamined int
	IncludeUsers    []string
	ExcludeUsers    []string
	IncludeQueries  []string
	Date            string
	NoDuplicates    bool
	Details         bool
	Sort            []string
	Top             int
	NoProgress      bool
}

// Load returns the defaults overridden by the file at path, when path is not
// empty, then by the environment. The file format is guessed from its
// extension (yaml, toml, json...).
func Load(path string) (Options, error) {
	v := viper.New()
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyMinQueryTime, filter.DefaultMinQueryTime)
	v.SetDefault(KeyMinRowsExamined, 0)
	v.SetDefault(KeyTop, 0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Options{}, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
	}

	return Options{
		LogLevel:        v.GetString(KeyLogLevel),
		File:            v.GetString(KeyFile),
		MinQueryTime:    v.GetFloat64(KeyMinQueryTime),
		MinRowsExamined: v.GetInt(KeyMinRowsExamined),
		IncludeUsers:    v.GetStringSlice(KeyIncludeUsers),
		ExcludeUsers:    v.GetStringSlice(KeyExcludeUsers),
		IncludeQueries:  v.GetStringSlice(KeyIncludeQueries),
		Date:            v.GetString(KeyDate),
		NoDuplicates:    v.GetBool(KeyNoDuplicates),
		Details:         v.GetBool(KeyDetails),
		Sort:            v.GetStringSlice(KeySort),
		Top:             v.GetInt(KeyTop),
		NoProgress:      v.GetBool(KeyNoProgress),
	}, nil
}

// Validate returns every problem found in o
func (o Options) Validate() []error {
	var errs []error

	if !stringInSlice(strings.ToLower(o.LogLevel), levels) {
		errs = append(errs, errors.New("log level not recognised: "+o.LogLevel))
	}
	if o.MinQueryTime < 0 {
		errs = append(errs, errors.New("minimum query time cannot be negative"))
	}
	if o.MinRowsExamined < 0 {
		errs = append(errs, errors.New("minimum rows examined cannot be negative"))
	}
	if o.Top < 0 {
		errs = append(errs, errors.New("top cannot be negative"))
	}
	if _, err := digest.ParseSortKeys(o.Sort); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// Pipeline converts o into a pipeline configuration
func (o Options) Pipeline() (slowfilter.Config, error) {
	keys, err := digest.ParseSortKeys(o.Sort)
	if err != nil {
		return slowfilter.Config{}, err
	}

	return slowfilter.Config{
		MinQueryTime:    o.MinQueryTime,
		MinRowsExamined: o.MinRowsExamined,
		IncludeUsers:    o.IncludeUsers,
		ExcludeUsers:    o.ExcludeUsers,
		IncludeQueries:  o.IncludeQueries,
		Dates:           o.Date,
		NoDuplicates:    o.NoDuplicates,
		ShowDetails:     o.Details,
		SortKeys:        keys,
		Top:             o.Top,
	}, nil
}

func stringInSlice(s string, sl []string) bool {
	for _, v := range sl {
		if s == v {
			return true
		}
	}
	return false
}
