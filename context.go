package bqloadbench

import (
	"context"
	"time"
)

type contextKey string

const runKey contextKey = "run"

// runState is what a Run shares with the jobs it submitted.
type runState struct {
	token     string
	submitted time.Time
}

func withRun(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, runKey, runState{token: token, submitted: time.Now()})
}

func runFrom(ctx context.Context) (runState, bool) {
	r, ok := ctx.Value(runKey).(runState)
	return r, ok
}

// sinceSubmitted is the wall clock time since the jobs of the run in ctx were
// submitted, zero outside a run.
func sinceSubmitted(ctx context.Context) time.Duration {
	r, ok := runFrom(ctx)
	if !ok {
		return 0
	}
	return time.Since(r.submitted)
}
