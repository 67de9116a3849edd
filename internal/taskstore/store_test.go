package taskstore

import (
	"testing"

	"github.com/jhaveripatric/x402-agent-gateway/internal/a2a"
)

func TestCreateAndGet(t *testing.T) {
	s := New()
	t1 := s.Create("t1", "ctx1", a2a.TaskStateSubmitted, nil)
	if t1.Status.State != a2a.TaskStateSubmitted {
		t.Fatalf("state = %v, want submitted", t1.Status.State)
	}

	got, err := s.Get("t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "t1" {
		t.Fatalf("ID = %q", got.ID)
	}
}

func TestGetNotFound(t *testing.T) {
	s := New()
	_, err := s.Get("missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestMutateRefusesTerminalTask(t *testing.T) {
	s := New()
	s.Create("t1", "ctx1", a2a.TaskStateWorking, nil)
	_, _ = s.Mutate("t1", func(tt *a2a.Task) { tt.Status.State = a2a.TaskStateCompleted })

	calls := 0
	updated, err := s.Mutate("t1", func(tt *a2a.Task) {
		calls++
		tt.Status.State = a2a.TaskStateFailed
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Fatal("expected Mutate to refuse running fn against a terminal task")
	}
	if updated.Status.State != a2a.TaskStateCompleted {
		t.Fatalf("state = %v, want completed (unchanged)", updated.Status.State)
	}
}

func TestForceCancel(t *testing.T) {
	s := New()
	s.Create("t1", "ctx1", a2a.TaskStateWorking, nil)
	cancelled, err := s.ForceCancel("t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status.State != a2a.TaskStateCanceled {
		t.Fatalf("state = %v, want canceled", cancelled.Status.State)
	}

	// Cancelling an already-terminal task is a no-op, not an error.
	again, err := s.ForceCancel("t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Status.State != a2a.TaskStateCanceled {
		t.Fatalf("state = %v, want canceled", again.Status.State)
	}
}

func TestTotalAndSeedTotal(t *testing.T) {
	s := New()
	s.Create("t1", "ctx1", a2a.TaskStateSubmitted, nil)
	s.Create("t2", "ctx2", a2a.TaskStateSubmitted, nil)
	if s.Total() != 2 {
		t.Fatalf("Total() = %d, want 2", s.Total())
	}

	s.SeedTotal(1) // lower than current, must not regress
	if s.Total() != 2 {
		t.Fatalf("Total() = %d after low SeedTotal, want 2", s.Total())
	}
	s.SeedTotal(10)
	if s.Total() != 10 {
		t.Fatalf("Total() = %d after high SeedTotal, want 10", s.Total())
	}
}

func TestCountByState(t *testing.T) {
	s := New()
	s.Create("t1", "ctx1", a2a.TaskStateWorking, nil)
	s.Create("t2", "ctx2", a2a.TaskStateWorking, nil)
	s.Create("t3", "ctx3", a2a.TaskStateCompleted, nil)

	counts := s.CountByState()
	if counts[a2a.TaskStateWorking] != 2 {
		t.Fatalf("working count = %d, want 2", counts[a2a.TaskStateWorking])
	}
	if counts[a2a.TaskStateCompleted] != 1 {
		t.Fatalf("completed count = %d, want 1", counts[a2a.TaskStateCompleted])
	}
}

func TestEvictOnlyRemovesTerminalTasks(t *testing.T) {
	s := New()
	s.Create("t1", "ctx1", a2a.TaskStateWorking, nil)
	s.Evict("t1")
	if _, err := s.Get("t1"); err != nil {
		t.Fatal("expected non-terminal task to survive Evict")
	}

	s.ForceCancel("t1")
	s.Evict("t1")
	if _, err := s.Get("t1"); !IsNotFound(err) {
		t.Fatal("expected terminal task to be evicted")
	}
}
