package peggml

import "testing"

func TestRegistryCreateDestroyReuseAscending(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	h0, _, err := r.Create("A <- 'x'")
	if err != nil {
		t.Fatalf("create h0: %v", err)
	}

	h1, _, err := r.Create("A <- 'y'")
	if err != nil {
		t.Fatalf("create h1: %v", err)
	}

	if h0 != 0 || h1 != 1 {
		t.Fatalf("got handles %d,%d want 0,1", h0, h1)
	}

	if err := r.Destroy(h0); err != nil {
		t.Fatalf("destroy h0: %v", err)
	}

	h2, _, err := r.Create("A <- 'z'")
	if err != nil {
		t.Fatalf("create h2: %v", err)
	}

	if h2 != h0 {
		t.Fatalf("got handle %d, want reused handle %d", h2, h0)
	}

	if _, err := r.Get(h1); err != nil {
		t.Fatalf("h1 should still be live: %v", err)
	}
}

func TestRegistryDestroyInvalidHandle(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	if err := r.Destroy(0); err == nil {
		t.Fatal("expected error destroying an empty handle")
	}

	if err := r.Destroy(-1); err == nil {
		t.Fatal("expected error destroying a negative handle")
	}
}

func TestRegistryGetMissingHandle(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	if _, err := r.Get(5); err == nil {
		t.Fatal("expected error getting an unknown handle")
	}
}

func TestRegistryCreateBadGrammar(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	h, _, err := r.Create("not a grammar at all {{{")
	if err == nil {
		t.Fatal("expected a grammar compile error")
	}

	if h != -1 {
		t.Fatalf("got handle %d, want -1", h)
	}
}

func TestRegistryDestroyIsIdempotentlyRejected(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	h, _, err := r.Create("A <- 'x'")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := r.Destroy(h); err != nil {
		t.Fatalf("destroy: %v", err)
	}

	if err := r.Destroy(h); err == nil {
		t.Fatal("expected error destroying an already-empty handle")
	}
}
