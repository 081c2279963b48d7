package session

import (
	"context"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func TestRunTimerExpiresQuestions(t *testing.T) {
	c := startedController(t, testEval(mcQuestion("q1", 2), mcQuestion("q2", 2)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunTimer(ctx, c, time.Millisecond)

	waitFor(t, func() bool { return c.State() == StateFinished })

	result, err := c.Result()
	if err != nil {
		t.Fatalf("reading result: %v", err)
	}
	if result.ElapsedSeconds != 4 {
		t.Fatalf("expected 4 elapsed ticks, got %d", result.ElapsedSeconds)
	}
	if !c.TimedOut("q1") || !c.TimedOut("q2") {
		t.Fatalf("expected both questions to time out")
	}
}

func TestRunTimerStopsOnCancel(t *testing.T) {
	c := startedController(t, testEval(mcQuestion("q1", 1000)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunTimer(ctx, c, time.Millisecond)
		close(done)
	}()

	waitFor(t, func() bool { return c.Snapshot().RemainingSeconds < 1000 })
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer did not stop after cancellation")
	}
	if c.State() != StateInProgress {
		t.Fatalf("cancellation must not finish the session, got %s", c.State())
	}
}
