package peggml

import (
	"errors"
	"testing"
)

func TestCallStackLifecycle(t *testing.T) {
	t.Parallel()

	cs := NewCallStack(0)
	if !cs.IsInactive() {
		t.Fatal("expected inactive before Begin")
	}

	var resumed bool

	if err := cs.Begin(func() error {
		cs.Yield()
		resumed = true
		return nil
	}); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if !cs.IsSuspended() {
		t.Fatal("expected suspended after Begin")
	}

	outcome, err := cs.Resume()
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if outcome != Yielded {
		t.Fatalf("outcome = %v, want Yielded", outcome)
	}

	if !cs.IsSuspended() {
		t.Fatal("expected suspended after yield")
	}

	outcome, err = cs.Resume()
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if outcome != Terminated {
		t.Fatalf("outcome = %v, want Terminated", outcome)
	}

	if !cs.IsInactive() {
		t.Fatal("expected inactive after terminate")
	}

	if !resumed {
		t.Fatal("fn never resumed past its Yield")
	}
}

func TestCallStackFailure(t *testing.T) {
	t.Parallel()

	cs := NewCallStack(0)
	wantErr := errors.New("boom")

	if err := cs.Begin(func() error { return wantErr }); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	outcome, err := cs.Resume()
	if outcome != Failed {
		t.Fatalf("outcome = %v, want Failed", outcome)
	}

	if err == nil || err.Error() != "boom" {
		t.Fatalf("err = %v, want boom", err)
	}

	if !cs.IsError() {
		t.Fatal("expected error state")
	}

	if cs.ErrorWhat() != "boom" {
		t.Fatalf("ErrorWhat() = %q, want boom", cs.ErrorWhat())
	}

	// Begin is allowed from ErrorState, same as from Inactive.
	if err := cs.Begin(func() error { return nil }); err != nil {
		t.Fatalf("Begin after error: %v", err)
	}
}

func TestCallStackPanicIsRecovered(t *testing.T) {
	t.Parallel()

	cs := NewCallStack(0)

	if err := cs.Begin(func() error { panic("kaboom") }); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	outcome, err := cs.Resume()
	if outcome != Failed {
		t.Fatalf("outcome = %v, want Failed", outcome)
	}

	if err == nil {
		t.Fatal("expected an error from the recovered panic")
	}
}

func TestCallStackMisuse(t *testing.T) {
	t.Parallel()

	cs := NewCallStack(0)

	if _, err := cs.Resume(); err == nil {
		t.Fatal("expected misuse resuming an inactive stack")
	}

	if err := cs.Begin(func() error { return nil }); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := cs.Begin(func() error { return nil }); err == nil {
		t.Fatal("expected misuse beginning an already-suspended stack")
	}
}

func TestCallStackDepthTelemetry(t *testing.T) {
	t.Parallel()

	cs := NewCallStack(1024)

	if cs.GetStackSize() != 1024 {
		t.Fatalf("GetStackSize() = %d, want 1024", cs.GetStackSize())
	}

	if cs.CurrentStackDepth() != 0 {
		t.Fatal("expected zero depth before any yield")
	}

	if err := cs.Begin(func() error {
		cs.Yield()
		return nil
	}); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := cs.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if cs.CurrentStackDepth() == 0 {
		t.Fatal("expected nonzero depth after a yield")
	}

	if cs.EstimatePeakStackUsage() < cs.CurrentStackDepth() {
		t.Fatal("peak usage should be at least the current depth")
	}

	if _, err := cs.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
}
