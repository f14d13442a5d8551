package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/devops-works/slowfilter"
	"github.com/devops-works/slowfilter/config"
	"github.com/devops-works/slowfilter/report"
)

type app struct {
	logger   *logrus.Logger
	opts     config.Options
	pipeline *slowfilter.Pipeline
}

func newApp(opts config.Options) (*app, error) {
	var a app
	a.opts = opts

	// create application logger
	a.logger = logrus.New()
	a.logger.SetOutput(os.Stderr)
	switch strings.ToLower(opts.LogLevel) {
	case "trace":
		a.logger.SetLevel(logrus.TraceLevel)
	case "debug":
		a.logger.SetLevel(logrus.DebugLevel)
	case "info":
		a.logger.SetLevel(logrus.InfoLevel)
	case "warn":
		a.logger.SetLevel(logrus.WarnLevel)
	case "error", "err":
		a.logger.SetLevel(logrus.ErrorLevel)
	case "fatal":
		a.logger.SetLevel(logrus.FatalLevel)
	default:
		return nil, errors.New("log level not recognised: " + opts.LogLevel)
	}

	cfg, err := opts.Pipeline()
	if err != nil {
		return nil, err
	}
	a.pipeline, err = slowfilter.New(cfg, a.logger)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// run filters the input and writes the report to w
func (a *app) run(w io.Writer, colors bool) error {
	in, closeInput, err := a.input()
	if err != nil {
		return err
	}
	defer closeInput()

	rep := report.New(w, report.Options{
		ShowDetails: a.opts.Details,
		Colors:      colors,
	})

	a.logger.Debug("query analysis started")
	res, err := a.pipeline.Run(in, rep)
	if res.Server.Known() {
		a.logger.Infof("log written by %s version %s", res.Server.Binary, res.Server.Version)
	}
	a.logger.Infof("digest duration: %s", res.Duration)
	a.logger.Infof("read %d lines, parsed %d queries, accepted %d", res.Lines, res.Records, res.Accepted)
	if a.opts.NoDuplicates {
		a.logger.Infof("found %d different queries", res.Unique)
	}

	return err
}

// input returns the log to read, behind a progress bar when it is a file and
// the terminal can show it
func (a *app) input() (io.Reader, func(), error) {
	if a.opts.File == "" || a.opts.File == "-" {
		a.logger.Debug("reading slow query log from standard input")
		return os.Stdin, func() {}, nil
	}

	fd, err := os.Open(a.opts.File)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debugf("%s successfully opened", a.opts.File)

	if !a.showProgress() {
		return fd, func() { fd.Close() }, nil
	}

	fi, err := fd.Stat()
	if err != nil {
		a.logger.Debugf("cannot stat %s, no progress bar: %s", a.opts.File, err)
		return fd, func() { fd.Close() }, nil
	}

	bar := pb.New64(fi.Size()).Set(pb.Bytes, true).SetWriter(os.Stderr)
	bar.Start()
	return bar.NewProxyReader(fd), func() {
		bar.Finish()
		fd.Close()
	}, nil
}

// showProgress returns true when a progress bar would not mix with the
// report or with debug logs
func (a *app) showProgress() bool {
	if a.opts.NoProgress || a.logger.Level != logrus.InfoLevel {
		return false
	}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return false
	}
	// records are written while reading
	return a.opts.NoDuplicates || !term.IsTerminal(int(os.Stdout.Fd()))
}
