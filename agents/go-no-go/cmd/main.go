package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	gonogo "flight-check/agents/go-no-go"
	"flight-check/shared/ai"
	"flight-check/shared/config"
	"flight-check/shared/logging"
	"flight-check/shared/monitoring"
	"flight-check/shared/scheduler"
)

func main() {
	check := flag.String("check", "", "check a single place and print the verdict")
	once := flag.Bool("once", false, "run the scheduled agent once and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.Setup(cfg.Log); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *check != "" || isFlagSet("check") {
		os.Exit(runCheck(ctx, cfg, *check))
	}

	metrics := monitoring.NewMetrics()
	agent := gonogo.NewGoNoGoAgent(cfg, metrics, nil)
	s := scheduler.New(cfg, agent, monitoring.NewMonitor(nil), metrics)

	if *once {
		fmt.Println("Running once...")
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}

		if err := s.RunOnce(ctx); err != nil {
			log.Fatalf("Failed to run: %v", err)
		}
		return
	}

	fmt.Println("Starting scheduler...")

	if err := s.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

// runCheck performs one request and prints the report, returning the exit code.
func runCheck(ctx context.Context, cfg *config.Config, query string) int {
	checker, err := gonogo.BuildChecker(cfg, nil)
	if err != nil {
		log.Errorf("Failed to build checker: %v", err)
		return 1
	}

	report, err := checker.Check(ctx, query)
	if err != nil {
		log.WithError(err).Debug("Check failed")
		fmt.Fprintln(os.Stderr, gonogo.UserMessage(err))
		return 1
	}

	if cfg.AI.Enabled() {
		if briefer, err := ai.NewBriefer(cfg); err != nil {
			log.WithError(err).Warn("AI briefing unavailable")
		} else if text, err := briefer.Brief(ctx, report); err != nil {
			log.WithError(err).Warn("AI briefing failed")
		} else {
			report.Briefing = text
		}
	}

	if err := gonogo.RenderText(os.Stdout, report); err != nil {
		log.Errorf("Failed to write report: %v", err)
		return 1
	}
	return 0
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
