package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/api"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/config"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/gui"
)

func main() {
	watchJob := flag.Int("watch-job", 0, "log the ranking of this job on a schedule instead of opening the GUI")
	every := flag.String("every", "", "watch schedule (cron spec, default from config or @every 30s)")
	username := flag.String("user", os.Getenv("SCREENING_USERNAME"), "username for watch mode")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		cfg = config.DefaultConfig()
		config.LoadDotEnv()
		cfg.ApplyEnv()
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	client, err := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout())
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	if *watchJob > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		spec := *every
		if spec == "" {
			spec = cfg.AutoRefresh
		}
		if spec == "" {
			spec = "@every 30s"
		}

		w := watcher{
			client:   client,
			jobID:    *watchJob,
			limit:    cfg.RankingsLimit,
			username: *username,
			password: os.Getenv("SCREENING_PASSWORD"),
		}
		if err := w.run(ctx, spec); err != nil {
			fmt.Fprintf(os.Stderr, "watch: %v\n", err)
			os.Exit(1)
		}
		return
	}

	gui.NewApp(cfg, client).Run()
}
