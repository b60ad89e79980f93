package testsupport

import (
	"context"
	"testing"

	"vidnorm/internal/state"
)

// MustOpenStore opens a state.Store for root and registers cleanup.
func MustOpenStore(t testing.TB, root, backend string) *state.Store {
	t.Helper()

	store, err := state.Open(context.Background(), root, backend, nil)
	if err != nil {
		t.Fatalf("state.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
