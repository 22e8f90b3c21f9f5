package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/registry"
)

// ErrUnsupportedFormat is returned for wallet files that are neither YAML
// nor CUE.
var ErrUnsupportedFormat = errors.New("unsupported wallet file format")

// walletSchema constrains CUE wallet definitions. The definition is closed,
// so unknown fields are errors.
const walletSchema = `
#Wallet: {
	owners:    [...string] & [_, ...]
	threshold: int & >=1
}
`

// Wallet is a wallet definition as written in a file.
type Wallet struct {
	Owners    []string `yaml:"owners" json:"owners"`
	Threshold int      `yaml:"threshold" json:"threshold"`
}

// OwnerIDs returns the owners as identities, in file order.
func (w Wallet) OwnerIDs() []ir.Owner {
	out := make([]ir.Owner, len(w.Owners))
	for i, o := range w.Owners {
		out[i] = ir.Owner(o)
	}
	return out
}

// Registry validates the definition and builds the membership registry.
func (w Wallet) Registry() (*registry.Registry, error) {
	return registry.New(w.OwnerIDs(), w.Threshold)
}

// LoadWallet reads a wallet definition, choosing the decoder by extension:
// .yaml/.yml or .cue.
func LoadWallet(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseWalletYAML(data)
	case ".cue":
		return ParseWalletCUE(data, filepath.Base(path))
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// ParseWalletYAML decodes a YAML wallet definition.
func ParseWalletYAML(data []byte) (*Wallet, error) {
	var w Wallet
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&w); err != nil {
		return nil, fmt.Errorf("parse wallet yaml: %w", err)
	}
	return &w, nil
}

// ParseWalletCUE decodes a CUE wallet definition after unifying it with
// the wallet schema. filename is used in error positions.
func ParseWalletCUE(data []byte, filename string) (*Wallet, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(walletSchema).LookupPath(cue.ParsePath("#Wallet"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile wallet schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("parse wallet cue: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate wallet cue: %w", err)
	}

	var w Wallet
	if err := unified.Decode(&w); err != nil {
		return nil, fmt.Errorf("decode wallet cue: %w", err)
	}
	return &w, nil
}
