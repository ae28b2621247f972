package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/api"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/auth"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/ranking"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/refresh"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/views"
)

// watcher logs one job's ranking and queue status on every scheduled tick
type watcher struct {
	client   *api.Client
	jobID    int
	limit    int
	username string
	password string
}

func (w watcher) run(ctx context.Context, spec string) error {
	expired := make(chan struct{}, 1)
	gate := auth.NewGate(w.client, func(route string) {
		if route == auth.RouteLogin {
			select {
			case expired <- struct{}{}:
			default:
			}
		}
	})
	w.client.OnUnauthorized(gate.HandleUnauthorized)

	if !gate.Start(ctx).Authenticated() {
		if w.username == "" {
			return errors.New("no active session; pass -user and set SCREENING_PASSWORD")
		}
		if err := gate.Login(ctx, w.username, w.password); err != nil {
			return err
		}
	}
	gate.SetLocation(auth.RankingsRoute(w.jobID))
	if d := gate.Decide(auth.RankingsRoute(w.jobID)); d.Outcome != auth.OutcomeAllow {
		return fmt.Errorf("rankings require an admin account (redirected to %s)", d.Target)
	}

	v := views.NewRankingsView(w.client, w.jobID, w.limit, views.LogNotifier{})
	coord := v.Coordinator()
	coord.OnChange(func(inFlight bool) {
		if !inFlight {
			logRankings(v.State())
		}
	})

	if err := v.Refresh(ctx); err != nil && !errors.Is(err, refresh.ErrInFlight) {
		log.Printf("[watch] initial refresh: %v", err)
	}
	if err := coord.Schedule(spec); err != nil {
		return err
	}
	defer coord.Stop()

	select {
	case <-ctx.Done():
		log.Printf("[watch] stopping")
		return nil
	case <-expired:
		return errors.New("session expired")
	}
}

func logRankings(st views.RankingsState) {
	switch {
	case st.QueueErr != nil:
		log.Printf("[watch] queue: unavailable (%s)", api.Message(st.QueueErr))
	case st.QueueSet:
		q := st.Queue
		log.Printf("[watch] queue: %d pending, %d processing, %d completed", q.Pending, q.Processing, q.Completed)
	}

	if st.RankingsErr != nil {
		log.Printf("[watch] rankings: unavailable (%s)", api.Message(st.RankingsErr))
		return
	}
	log.Printf("[watch] %s: %d candidates", st.Job.Title, len(st.Rows))
	for _, r := range ranking.Truncate(st.Rows, 10) {
		log.Printf("[watch] #%d %-20s %-30s %6s %s", r.RankLabel, r.CandidateName, r.ResumeName, ranking.ScoreLabel(r.Analysis), r.Analysis.Verdict)
	}
}
