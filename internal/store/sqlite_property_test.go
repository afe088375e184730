package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "advisor.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// Property: a saved setting reads back unchanged, and the last write wins.
func TestProperty_SettingRoundTrip(t *testing.T) {
	store := newTestStore(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("set then get returns the last value", prop.ForAll(
		func(key, first, second string) bool {
			ctx := context.Background()
			if err := store.SetSetting(ctx, key, first); err != nil {
				return false
			}
			if err := store.SetSetting(ctx, key, second); err != nil {
				return false
			}
			got, ok, err := store.GetSetting(ctx, key)
			return err == nil && ok && got == second
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()
	creds := NewCredentialStore(newTestStore(t))

	if _, ok, err := creds.Get(ctx); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v", ok, err)
	}
	if err := creds.Save(ctx, "sk-abc"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := creds.Get(ctx)
	if err != nil || !ok || got != "sk-abc" {
		t.Fatalf("Get = %q %v %v", got, ok, err)
	}
	if err := creds.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := creds.Get(ctx); ok {
		t.Errorf("credential should be cleared")
	}
	if err := creds.Clear(ctx); err != nil {
		t.Errorf("clearing twice: %v", err)
	}
}

func TestCredentialSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "advisor.db")

	first, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := NewCredentialStore(first).Save(ctx, "sk-persist"); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	got, ok, err := NewCredentialStore(second).Get(ctx)
	if err != nil || !ok || got != "sk-persist" {
		t.Errorf("after reopen: %q %v %v", got, ok, err)
	}
}

func TestWatchlist(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, s := range []string{"vnm", "FPT", " hpg ", "VNM"} {
		if err := store.AddToWatchlist(ctx, s, "banks"); err != nil {
			t.Fatalf("AddToWatchlist: %v", err)
		}
	}
	store.AddToWatchlist(ctx, "VCB", DefaultWatchlist)

	got, err := store.GetWatchlist(ctx, "banks")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"VNM", "FPT", "HPG"}
	if len(got) != len(want) {
		t.Fatalf("GetWatchlist = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetWatchlist[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if err := store.RemoveFromWatchlist(ctx, "fpt", "banks"); err != nil {
		t.Fatal(err)
	}
	all, err := store.GetAllWatchlists(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all["banks"]) != 2 || len(all[DefaultWatchlist]) != 1 {
		t.Errorf("GetAllWatchlists = %v", all)
	}
}
