// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keyring implements a hierarchical deterministic keyring for
// UTXO-based wallets. A keyring derives a tree of child key pairs from a
// single seed, tracks the derived accounts, signs messages and PSBT inputs
// (applying the taproot key tweak where the configured address type requires
// it), and serializes its derivation parameters into a compact snapshot from
// which the exact same account set can be reconstructed.
//
// A keyring performs no locking of its own. Derived accounts are append-only,
// which makes concurrent reads of already-derived accounts safe, but callers
// sharing a keyring across goroutines must serialize mutating calls such as
// AddAccounts externally.
package keyring

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

const (
	// DefaultPassphrase is the BIP-39 passphrase used when the caller does
	// not provide one.
	DefaultPassphrase = ""

	// defaultEntropyBits is the entropy size used by NewMnemonic,
	// producing a 12-word phrase.
	defaultEntropyBits = 128
)

// Options bundles the construction parameters of a keyring. The zero value
// selects mainnet, legacy addresses and the default derivation path for the
// chosen address type.
type Options struct {
	// HDPath overrides the default derivation path of the address type.
	HDPath string

	// AddressType selects how derived public keys are rendered as
	// addresses and whether signing applies the taproot tweak.
	AddressType AddressType

	// HideRoot controls whether the root identity is excluded from the
	// visible account list.
	HideRoot bool

	// ChainParams selects the network parameters used for address
	// encoding. Defaults to mainnet.
	ChainParams *chaincfg.Params
}

// normalize fills in the option defaults.
func (o *Options) normalize() {
	if o.ChainParams == nil {
		o.ChainParams = &chaincfg.MainNetParams
	}
	if o.HDPath == "" {
		o.HDPath = o.AddressType.defaultPath()
	}
}

// Keyring is a hierarchical deterministic keyring. It owns the master seed,
// the root key pair at the configured derivation path, and the ordered,
// append-only sequence of derived child accounts.
type Keyring struct {
	chainParams *chaincfg.Params
	addrType    AddressType

	tree *derivationTree

	// root is the key pair of the root node itself. It is kept separate
	// from the derived children because visibility and serialization
	// rules treat the two tiers differently.
	root *KeyPair

	// children holds the derived accounts in index order. The slice
	// position of each entry equals its derivation index.
	children []*KeyPair

	// hideRoot excludes the root identity from the visible account list.
	hideRoot bool

	// viewIndex is the child index this keyring view is scoped to, or
	// rootAccountIndex for the full root keyring.
	viewIndex int
}

// NewFromSeed constructs a keyring from a raw seed. The root node is derived
// immediately; child accounts are derived lazily as they are requested.
func NewFromSeed(seed []byte, opts *Options) (*Keyring, error) {
	if opts == nil {
		opts = &Options{}
	}

	// Work on a copy so callers can reuse their options value.
	optsCopy := *opts
	opts = &optsCopy
	opts.normalize()

	tree, err := newDerivationTree(seed, opts.HDPath, opts.ChainParams)
	if err != nil {
		return nil, err
	}

	root, err := tree.rootKeyPair()
	if err != nil {
		return nil, err
	}

	k := &Keyring{
		chainParams: opts.ChainParams,
		addrType:    opts.AddressType,
		tree:        tree,
		root:        root,
		viewIndex:   rootAccountIndex,
	}

	// Hiding the root with no derived children would leave the keyring
	// with zero visible addresses, so derive the first child up front.
	if opts.HideRoot {
		k.hideRoot = true
		if _, err := k.AddAccounts(1); err != nil {
			return nil, err
		}
	}

	return k, nil
}

// NewFromMnemonic constructs a keyring from a BIP-39 mnemonic phrase. The
// mnemonic-to-seed conversion is an expensive key stretching computation and
// is the only suspending step in the keyring's lifecycle; it honors the
// passed context. An empty passphrase selects DefaultPassphrase.
func NewFromMnemonic(ctx context.Context, mnemonic, passphrase string,
	opts *Options) (*Keyring, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	if passphrase == "" {
		passphrase = DefaultPassphrase
	}

	// Run the key stretching off the calling goroutine so construction
	// can be abandoned through the context.
	type seedResult struct {
		seed []byte
		err  error
	}
	resultChan := make(chan seedResult, 1)
	go func() {
		seed, err := bip39.NewSeedWithErrorChecking(
			mnemonic, passphrase,
		)
		resultChan <- seedResult{seed: seed, err: err}
	}()

	select {
	case result := <-resultChan:
		if result.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic,
				result.err)
		}

		return NewFromSeed(result.seed, opts)

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// NewMnemonic generates a fresh 12-word BIP-39 mnemonic phrase suitable for
// NewFromMnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(defaultEntropyBits)
	if err != nil {
		return "", fmt.Errorf("unable to generate entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("unable to generate mnemonic: %w", err)
	}

	return mnemonic, nil
}

// NewFromPrivateKey is not supported: this keyring derives all of its key
// pairs from a seed, so there is no meaningful way to adopt a raw private
// key. It exists so callers probing keyring capabilities get a typed error
// instead of a nil-pointer surprise.
func NewFromPrivateKey(_ *btcec.PrivateKey, _ *Options) (*Keyring, error) {
	return nil, fmt.Errorf("%w: construction from a raw private key",
		ErrUnsupportedOperation)
}

// ChainParams returns the network parameters the keyring encodes addresses
// for.
func (k *Keyring) ChainParams() *chaincfg.Params {
	return k.chainParams
}

// AddressType returns the keyring's configured address type.
func (k *Keyring) AddressType() AddressType {
	return k.addrType
}

// HDPath returns the keyring's current derivation path.
func (k *Keyring) HDPath() string {
	return k.tree.path
}

// SetHDPath changes the derivation path, recomputing the root node from the
// stored master node. This is destructive: every previously derived account
// becomes unreachable and the account list is reset to empty.
func (k *Keyring) SetHDPath(path string) error {
	if err := k.tree.setPath(path); err != nil {
		return err
	}

	root, err := k.tree.rootKeyPair()
	if err != nil {
		return err
	}

	log.Debugf("Derivation path changed to %s, resetting %d derived "+
		"accounts", path, len(k.children))

	k.root = root
	k.children = nil

	return nil
}

// AccountView returns a copy of the keyring scoped to a single derived
// account. A scoped view shares the underlying derivation tree but refuses
// root-only operations such as Serialize.
func (k *Keyring) AccountView(index int) (*Keyring, error) {
	if index < 0 || index >= len(k.children) {
		return nil, fmt.Errorf("%w: index %d", ErrAccountNotFound,
			index)
	}

	view := *k
	view.viewIndex = index

	return &view, nil
}
