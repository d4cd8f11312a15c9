package scheduler

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/x360-io/x360/pkg/protocol"
)

func TestRunNowCachesLatest(t *testing.T) {
	var calls atomic.Int64
	s := New(func(_ context.Context) *protocol.Briefing {
		calls.Add(1)
		return &protocol.Briefing{Summary: "all clear", Items: []protocol.BriefingItem{}}
	}, nil)

	if _, _, ok := s.Latest(); ok {
		t.Error("no briefing should be cached before the first run")
	}

	b := s.RunNow(context.Background())
	if b.Summary != "all clear" {
		t.Errorf("summary = %q", b.Summary)
	}

	cached, at, ok := s.Latest()
	if !ok {
		t.Fatal("expected cached briefing")
	}
	if cached.Summary != "all clear" || at.IsZero() {
		t.Errorf("cached = %+v at %v", cached, at)
	}
	if calls.Load() != 1 {
		t.Errorf("generator called %d times", calls.Load())
	}
}

func TestRunNowReplacesCache(t *testing.T) {
	summaries := []string{"first", "second"}
	idx := 0
	s := New(func(_ context.Context) *protocol.Briefing {
		b := &protocol.Briefing{Summary: summaries[idx]}
		idx++
		return b
	}, nil)

	s.RunNow(context.Background())
	first, firstAt, _ := s.Latest()
	s.RunNow(context.Background())
	second, secondAt, _ := s.Latest()

	if first.Summary != "first" || second.Summary != "second" {
		t.Errorf("cache not replaced: %q then %q", first.Summary, second.Summary)
	}
	if secondAt.Before(firstAt) {
		t.Error("generation time went backwards")
	}
}

func TestScheduleValidation(t *testing.T) {
	s := New(func(_ context.Context) *protocol.Briefing {
		return &protocol.Briefing{}
	}, nil)

	if err := s.Schedule("not a cron expr"); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if err := s.Schedule("0 6 * * *"); err != nil {
		t.Errorf("valid schedule rejected: %v", err)
	}
	if s.JobCount() != 1 {
		t.Errorf("JobCount = %d", s.JobCount())
	}
}
