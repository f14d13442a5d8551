package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/logrusorgru/aurora"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/devops-works/slowfilter"
	"github.com/devops-works/slowfilter/config"
	"github.com/devops-works/slowfilter/replay"
)

func main() {
	var opt options
	opt.register(flag.CommandLine)
	flag.Parse()

	if errs := opt.parse(); len(errs) != 0 {
		flag.Usage()
		for _, e := range errs {
			logrus.Warn(e)
		}
		logrus.Fatal("cannot parse options")
	}

	fopts, err := config.Load(opt.config)
	if err != nil {
		logrus.Fatalf("cannot load configuration: %s", err)
	}
	opt.apply(flag.CommandLine, &fopts)
	if errs := fopts.Validate(); len(errs) != 0 {
		for _, e := range errs {
			logrus.Warn(e)
		}
		logrus.Fatal("cannot parse options")
	}

	logger, err := newLogger(fopts.LogLevel)
	if err != nil {
		logrus.Fatal(err)
	}

	cfg, err := fopts.Pipeline()
	if err != nil {
		logger.Fatalf("cannot build filters: %s", err)
	}
	cfg.NoDuplicates = false
	pipeline, err := slowfilter.New(cfg, logger)
	if err != nil {
		logger.Fatalf("cannot build filters: %s", err)
	}

	var db *sql.DB
	if opt.noDryRun {
		if opt.usePass {
			if err := opt.askPassword(); err != nil {
				logger.Fatalf("cannot read password: %s", err)
			}
		}
		db, err = sql.Open("mysql", replay.DSN(opt.user, opt.pass, opt.host, opt.database))
		if err != nil {
			logger.Fatalf("cannot create database object: %s", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(opt.workers)
		if err := db.Ping(); err != nil {
			logger.Fatalf("cannot connect to %s: %s", opt.host, err)
		}
		logger.Debug("database object successfully created")
		logger.Warn("no-dry-run flag found, replaying for real")
	} else {
		logger.Warn("replaying with dry run")
	}

	in, closeInput, err := input(fopts.File, logger)
	if err != nil {
		logger.Fatalf("cannot open slow query log file: %s", err)
	}
	defer closeInput()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	queries := make(chan string, 16384)
	done := make(chan replay.Results)
	logger.Infof("%d workers will be created", opt.workers)
	go func() {
		done <- replay.New(db, opt.workers, logger).Run(ctx, queries)
	}()

	logger.Infof("replay started on %s", time.Now().Format("Mon Jan 2 15:04:05"))
	sink := replay.NewSink(ctx, queries, opt.speed)
	res, err := pipeline.Run(in, sink)
	close(queries)
	r := <-done
	logger.Infof("replay ended on %s", time.Now().Format("Mon Jan 2 15:04:05"))
	if err != nil && ctx.Err() == nil {
		logger.Errorf("replay interrupted: %s", err)
	}

	opt.file = fopts.File
	show(os.Stdout, aurora.NewAurora(term.IsTerminal(int(os.Stdout.Fd()))), opt, res, r)
}

func newLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	switch strings.ToLower(level) {
	case "trace":
		logger.SetLevel(logrus.TraceLevel)
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error", "err":
		logger.SetLevel(logrus.ErrorLevel)
	case "fatal":
		logger.SetLevel(logrus.FatalLevel)
	default:
		return nil, fmt.Errorf("log level not recognised: %s", level)
	}
	logger.Debugf("log level set to %s", logger.GetLevel())
	return logger, nil
}

// input opens file, behind a progress bar when stderr is a terminal
func input(file string, logger *logrus.Logger) (io.Reader, func(), error) {
	if file == "" || file == "-" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	logger.Debugf("file %s successfully opened", file)

	fi, err := f.Stat()
	if err != nil || !term.IsTerminal(int(os.Stderr.Fd())) {
		return f, func() { f.Close() }, nil
	}
	bar := pb.New64(fi.Size()).Set(pb.Bytes, true).SetWriter(os.Stderr)
	bar.Start()
	return bar.NewProxyReader(f), func() {
		bar.Finish()
		f.Close()
	}, nil
}

func show(w io.Writer, au aurora.Aurora, o options, res slowfilter.Result, r replay.Results) {
	prcSuccess := 0.0
	if r.Queries > 0 {
		prcSuccess = (float64(r.Queries) - float64(r.Errors)) * 100.0 / float64(r.Queries)
	}
	file := o.file
	if file == "" {
		file = "standard input"
	}

	fmt.Fprintf(w, `
=-= Results =-=

Replay duration:  %s
Log file:         %s
Dry run:          %v
Workers:          %d

Database
  ├─ user:      %s
  ├─ use pass:  %v
  └─ address:   %s

Statistics
  ├─ Records read:           %d
  ├─ Records accepted:       %d
  ├─ Queries:                %d
  ├─ Errors:                 %d
  └─ Queries success rate:   %.4f%%
`,
		au.Bold(r.Duration),
		au.Bold(file),
		au.Bold(r.DryRun),
		au.Bold(o.workers),
		// database
		au.Bold(o.user),
		au.Bold(o.usePass),
		au.Bold(o.host),
		// statistics
		au.Bold(res.Records),
		au.Bold(res.Accepted),
		au.Bold(r.Queries),
		au.Bold(r.Errors),
		au.Bold(prcSuccess),
	)
}
