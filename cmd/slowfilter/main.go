package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/devops-works/slowfilter/config"
	"github.com/devops-works/slowfilter/digest"
)

func main() {
	var o options
	o.register(flag.CommandLine)
	flag.Usage = usage
	flag.Parse()

	if o.wantsSortHelp() {
		fmt.Println("Available values:")
		for _, k := range digest.Keys() {
			fmt.Printf("    %s\n", k)
		}
		return
	}

	opts, err := config.Load(o.config)
	if err != nil {
		logrus.Fatalf("cannot load configuration: %s", err)
	}
	o.apply(flag.CommandLine, &opts)

	errs := opts.Validate()
	if len(errs) != 0 {
		flag.Usage()
		for _, e := range errs {
			logrus.Warn(e)
		}
		logrus.Fatal("cannot parse options")
	}

	a, err := newApp(opts)
	if err != nil {
		logrus.Fatalf("cannot create app: %s", err)
	}

	if err := a.run(os.Stdout, term.IsTerminal(int(os.Stdout.Fd()))); err != nil {
		a.logger.Fatalf("cannot filter slow query log: %s", err)
	}
	a.logger.Debug("end of program, exiting")
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] [-f file.log]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Filters a MySQL slow query log read from -f or standard input.\n\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s -T=3 -eu=root -no-duplicates -sort execution-count < slow.log\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  tail -f -n 0 slow.log | %s -T=3 -R=10000 -eu=root -eu=test\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nSettings can also come from -config and %s_* environment variables.\n", config.EnvPrefix)
	fmt.Fprintf(os.Stderr, "Only the first -date is used.\n")
}
