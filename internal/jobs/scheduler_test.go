package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingTrash struct {
	calls atomic.Int32
	err   error
}

func (c *countingTrash) EnsureToday(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestStartEnsuresTodayImmediately(t *testing.T) {
	trash := &countingTrash{}
	loc := time.FixedZone("CST", 8*60*60)
	s := NewScheduler(trash, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if got := trash.calls.Load(); got != 1 {
		t.Fatalf("EnsureToday calls = %d, want 1", got)
	}
	if got := s.cron.Location(); got != loc {
		t.Fatalf("location = %v, want %v", got, loc)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Fatalf("entries = %d, want 1", n)
	}
}

func TestStartToleratesJobError(t *testing.T) {
	trash := &countingTrash{err: errors.New("db down")}
	s := NewScheduler(trash, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
