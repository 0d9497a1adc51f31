package harness

import (
	"context"
	"testing"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

func TestSeed_CreatesDefaultsAndIsRestartSafe(t *testing.T) {
	store := newFakeStore()
	fx := NewFixtures(store, fakeHasher{}, sequentialTokens("v"))
	seeds := DefaultSeeds()

	if got := fx.Seed(context.Background(), seeds); got != len(seeds) {
		t.Fatalf("expected %d created, got %d", len(seeds), got)
	}

	// second run hits duplicates and creates nothing
	if got := fx.Seed(context.Background(), seeds); got != 0 {
		t.Fatalf("expected 0 created on rerun, got %d", got)
	}

	probe := NewProbe(store)
	for _, s := range seeds {
		ok, err := probe.AccountExists(context.Background(), s.Email)
		if err != nil || !ok {
			t.Fatalf("expected %s to exist (err=%v)", s.Email, err)
		}
		enabled, _ := probe.IsEnabled(context.Background(), s.Email)
		if enabled != s.Enabled {
			t.Fatalf("%s: expected enabled=%v, got %v", s.Email, s.Enabled, enabled)
		}
		hasToken, _ := probe.HasVerificationToken(context.Background(), s.Email)
		if hasToken == s.Enabled {
			t.Fatalf("%s: verification token presence should be the inverse of enabled", s.Email)
		}
	}
}

func TestSeed_SkipsInvalidEntries(t *testing.T) {
	fx := NewFixtures(newFakeStore(), fakeHasher{}, sequentialTokens("v"))

	got := fx.Seed(context.Background(), []domain.NewAccount{
		{Email: "", Password: "x"},
		{Email: "ok@example.com", Password: "x", Enabled: true},
	})
	if got != 1 {
		t.Fatalf("expected 1 created, got %d", got)
	}
}
