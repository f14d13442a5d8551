package main

import (
	"bytes"
	"errors"
	"flag"
	"reflect"
	"strings"
	"testing"

	"github.com/logrusorgru/aurora"
	"github.com/sirupsen/logrus"

	"github.com/devops-works/slowfilter"
	"github.com/devops-works/slowfilter/config"
	"github.com/devops-works/slowfilter/replay"
)

func Test_options_parse(t *testing.T) {
	tests := []struct {
		name string
		opt  options
		want []error
	}{
		{
			name: "dry run",
			opt:  options{workers: 42},
			want: nil,
		},
		{
			name: "no errors",
			opt:  options{user: "foo", host: "bar", database: "mydb", workers: 42, noDryRun: true},
			want: nil,
		},
		{
			name: "no workers",
			opt:  options{user: "foo", host: "bar", database: "mydb"},
			want: []error{errors.New("cannot create negative number or zero workers")},
		},
		{
			name: "missing connection",
			opt:  options{workers: 1, speed: -2, noDryRun: true},
			want: []error{
				errors.New("speed factor cannot be negative"),
				errors.New("no user provided"),
				errors.New("no host provided"),
				errors.New("no database provided"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opt.parse(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("options.parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_options_apply(t *testing.T) {
	var o options
	fs := flag.NewFlagSet("slowfilter-replayer", flag.ContinueOnError)
	o.register(fs)
	args := []string{"-T=0.5", "-eu=root", "-date", "13.11.2006", "-date", "14.11.2006", "-no-dry-run", "-w", "8"}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got := config.Options{LogLevel: "info", MinQueryTime: 1}
	o.apply(fs, &got)
	want := config.Options{LogLevel: "info", MinQueryTime: 0.5, ExcludeUsers: []string{"root"}, Date: "13.11.2006"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("options.apply() = %+v, want %+v", got, want)
	}
	if !o.noDryRun || o.workers != 8 {
		t.Errorf("noDryRun, workers = %v, %d", o.noDryRun, o.workers)
	}
}

func Test_newLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		want    logrus.Level
		wantErr bool
	}{
		{name: "trace", level: "trace", want: logrus.TraceLevel},
		{name: "err", level: "err", want: logrus.ErrorLevel},
		{name: "upper case", level: "Debug", want: logrus.DebugLevel},
		{name: "unknown", level: "panic", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newLogger(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("newLogger() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got.Level != tt.want {
				t.Errorf("newLogger() = %v, want %v", got.Level, tt.want)
			}
		})
	}
}

func Test_show(t *testing.T) {
	var out bytes.Buffer
	show(&out, aurora.NewAurora(false), options{workers: 4, user: "app", host: "db:3306"},
		slowfilter.Result{Records: 10, Accepted: 4},
		replay.Results{Queries: 4, Errors: 1, DryRun: true})

	for _, want := range []string{"standard input", "Records accepted:       4", "Errors:                 1", "75.0000%"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("show() output has no %q:\n%s", want, out.String())
		}
	}
}
