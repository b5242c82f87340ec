package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/openglass/resourced/dispatch"
	"github.com/openglass/resourced/registry"
)

func main() {
	var (
		demo     = flag.Bool("demo", false, "Seed the registry with synthetic resources")
		interval = flag.Duration("interval", 500*time.Millisecond, "Snapshot refresh interval")
		history  = flag.Int("history", 64, "Cleanup history entries to retain")
	)
	flag.Parse()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "resmon requires a terminal")
		os.Exit(1)
	}

	if err := run(*demo, *interval, *history); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(demo bool, interval time.Duration, historySize int) error {
	loop := dispatch.NewLoop()
	go loop.Run()
	defer loop.Close()

	reg := registry.New(
		registry.WithDispatcher(loop),
		registry.WithHistorySize(historySize),
	)

	var keep *demoSet
	if demo {
		var err error
		keep, err = seedDemo(reg)
		if err != nil {
			return fmt.Errorf("seed demo: %w", err)
		}
	}

	return runMonitor(reg, keep, interval)
}
