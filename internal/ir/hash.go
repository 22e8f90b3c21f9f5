package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainProposal = "quorum/proposal/v1"
	DomainWallet   = "quorum/wallet/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProposalDigest computes the content digest of a proposal body.
// Two proposals with the same target, value and payload share a digest;
// any amendment that changes one of them changes the digest. The target is
// hashed byte for byte: it is handed to the executor exactly as stored, so
// two encodings of the same visible text are different content.
func ProposalDigest(target string, value uint64, payload []byte) (string, error) {
	obj := map[string]string{
		"target":  target,
		"value":   strconv.FormatUint(value, 10),
		"payload": EncodePayload(payload),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ProposalDigest: %w", err)
	}
	return hashWithDomain(DomainProposal, canonical), nil
}

// MustProposalDigest is like ProposalDigest but panics on error.
// The input is always a flat string map, so marshaling cannot fail in
// practice.
func MustProposalDigest(target string, value uint64, payload []byte) string {
	d, err := ProposalDigest(target, value, payload)
	if err != nil {
		panic(err)
	}
	return d
}

// WalletDigest identifies a wallet definition (owners in construction order
// plus threshold). Stored alongside the wallet row so a database can be
// matched to the definition file it was initialized from. Owners are hashed
// as stored; registry.New refuses owner sets that differ only in Unicode
// normalization, so no two members can collapse here.
func WalletDigest(owners []Owner, threshold int) (string, error) {
	names := make([]string, len(owners))
	for i, o := range owners {
		names[i] = string(o)
	}
	obj := map[string]any{
		"owners":    names,
		"threshold": threshold,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("WalletDigest: %w", err)
	}
	return hashWithDomain(DomainWallet, canonical), nil
}
