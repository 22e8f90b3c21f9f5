package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/quorum/internal/ir"
)

var (
	// ErrWalletExists is returned by InitWallet when the database already
	// holds a wallet definition.
	ErrWalletExists = errors.New("wallet already initialized")

	// ErrNoWallet is returned by LoadWallet when the database was never
	// initialized.
	ErrNoWallet = errors.New("wallet not initialized")
)

// Wallet is the stored wallet definition.
type Wallet struct {
	Owners        []ir.Owner
	Threshold     int
	Digest        string
	EngineVersion string
	IRVersion     string
}

// InitWallet stores the wallet definition. It does not validate owners or
// threshold; callers build a registry first.
//
// Fails with ErrWalletExists if a definition is already present. The
// definition never changes once written.
func (s *Store) InitWallet(ctx context.Context, owners []ir.Owner, threshold int) (Wallet, error) {
	ownersJSON, err := marshalOwners(owners)
	if err != nil {
		return Wallet{}, fmt.Errorf("init wallet: %w", err)
	}
	digest, err := ir.WalletDigest(owners, threshold)
	if err != nil {
		return Wallet{}, fmt.Errorf("init wallet: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO wallet (id, owners, threshold, digest, engine_version, ir_version)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, ownersJSON, threshold, digest, ir.EngineVersion, ir.IRVersion)
	if err != nil {
		return Wallet{}, fmt.Errorf("init wallet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Wallet{}, fmt.Errorf("init wallet: rows affected: %w", err)
	}
	if n == 0 {
		return Wallet{}, ErrWalletExists
	}

	return Wallet{
		Owners:        append([]ir.Owner(nil), owners...),
		Threshold:     threshold,
		Digest:        digest,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}, nil
}

// LoadWallet returns the stored wallet definition, or ErrNoWallet.
func (s *Store) LoadWallet(ctx context.Context) (Wallet, error) {
	var w Wallet
	var ownersJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT owners, threshold, digest, engine_version, ir_version
		FROM wallet
		WHERE id = 1
	`).Scan(&ownersJSON, &w.Threshold, &w.Digest, &w.EngineVersion, &w.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Wallet{}, ErrNoWallet
	}
	if err != nil {
		return Wallet{}, fmt.Errorf("load wallet: %w", err)
	}

	w.Owners, err = unmarshalOwners(ownersJSON)
	if err != nil {
		return Wallet{}, fmt.Errorf("load wallet: %w", err)
	}
	return w, nil
}
