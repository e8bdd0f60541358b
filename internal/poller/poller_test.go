package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/playperu/cityhunt/internal/cityhunt"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pendingProgress() cityhunt.Progress {
	return cityhunt.Progress{
		Submissions: []cityhunt.Submission{{Status: cityhunt.StatusPending}},
	}
}

func settledProgress() cityhunt.Progress {
	return cityhunt.Progress{
		Submissions: []cityhunt.Submission{{Status: cityhunt.StatusApproved}},
	}
}

func TestRunStopsWhenNothingInFlight(t *testing.T) {
	var calls atomic.Int32
	p := New(time.Millisecond, func(ctx context.Context) (cityhunt.Progress, error) {
		calls.Add(1)
		return settledProgress(), nil
	}, nil, discardLogger())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1 (immediate fetch only)", got)
	}
}

func TestRunPollsUntilCleared(t *testing.T) {
	var calls atomic.Int32
	var updates atomic.Int32

	p := New(time.Millisecond, func(ctx context.Context) (cityhunt.Progress, error) {
		if calls.Add(1) < 3 {
			return pendingProgress(), nil
		}
		return settledProgress(), nil
	}, func(cityhunt.Progress) {
		updates.Add(1)
	}, discardLogger())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("fetch calls = %d, want 3", got)
	}
	if got := updates.Load(); got != 3 {
		t.Errorf("onUpdate calls = %d, want 3", got)
	}
}

func TestRunReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := New(time.Millisecond, func(ctx context.Context) (cityhunt.Progress, error) {
		return pendingProgress(), nil
	}, nil, discardLogger())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunRetriesAfterErrors(t *testing.T) {
	var calls atomic.Int32

	p := New(time.Millisecond, func(ctx context.Context) (cityhunt.Progress, error) {
		switch calls.Add(1) {
		case 1:
			return pendingProgress(), nil
		case 2:
			return cityhunt.Progress{}, errors.New("transient")
		default:
			return settledProgress(), nil
		}
	}, nil, discardLogger())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil after recovery", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("fetch calls = %d, want 3 (pending, error, settled)", got)
	}
}

func TestNewDefaults(t *testing.T) {
	p := New(0, func(ctx context.Context) (cityhunt.Progress, error) {
		return settledProgress(), nil
	}, nil, discardLogger())

	if p.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", p.interval, DefaultInterval)
	}
}
