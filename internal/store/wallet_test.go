package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/roach88/quorum/internal/ir"
)

func TestInitWallet_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owners := []ir.Owner{"carol", "alice", "bob"}

	w, err := s.InitWallet(ctx, owners, 2)
	if err != nil {
		t.Fatalf("InitWallet() failed: %v", err)
	}

	loaded, err := s.LoadWallet(ctx)
	if err != nil {
		t.Fatalf("LoadWallet() failed: %v", err)
	}
	if !reflect.DeepEqual(loaded.Owners, owners) {
		t.Errorf("Owners = %v, want %v (construction order)", loaded.Owners, owners)
	}
	if loaded.Threshold != 2 {
		t.Errorf("Threshold = %d, want 2", loaded.Threshold)
	}
	if loaded.Digest != w.Digest {
		t.Errorf("Digest = %q, want %q", loaded.Digest, w.Digest)
	}
	if loaded.EngineVersion != ir.EngineVersion || loaded.IRVersion != ir.IRVersion {
		t.Errorf("versions = %q/%q", loaded.EngineVersion, loaded.IRVersion)
	}
}

func TestInitWallet_AlreadyExists(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.InitWallet(ctx, []ir.Owner{"alice"}, 1); err != nil {
		t.Fatalf("first InitWallet() failed: %v", err)
	}
	_, err := s.InitWallet(ctx, []ir.Owner{"mallory"}, 1)
	if !errors.Is(err, ErrWalletExists) {
		t.Fatalf("second InitWallet() = %v, want ErrWalletExists", err)
	}

	w, err := s.LoadWallet(ctx)
	if err != nil {
		t.Fatalf("LoadWallet() failed: %v", err)
	}
	if w.Owners[0] != "alice" {
		t.Errorf("wallet was overwritten: %v", w.Owners)
	}
}

func TestLoadWallet_NotInitialized(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadWallet(context.Background())
	if !errors.Is(err, ErrNoWallet) {
		t.Fatalf("LoadWallet() = %v, want ErrNoWallet", err)
	}
}
