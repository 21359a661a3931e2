// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import "errors"

var (
	// ErrInvalidSeed is returned when a keyring is constructed from a seed
	// that is empty or outside the length range accepted by the
	// hierarchical deterministic derivation primitive.
	ErrInvalidSeed = errors.New("invalid seed")

	// ErrInvalidPath is returned when a derivation path string cannot be
	// parsed into a valid sequence of child indices.
	ErrInvalidPath = errors.New("invalid derivation path")

	// ErrInvalidMnemonic is returned when a mnemonic phrase fails BIP-39
	// validation.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	// ErrAccountNotFound is returned when an address or public key lookup
	// does not match the root identity or any derived account. The caller
	// may derive more accounts and retry.
	ErrAccountNotFound = errors.New("account not found")

	// ErrMissingPrivateKey is returned when an operation requiring a
	// private key is attempted on a key pair that only carries a public
	// key.
	ErrMissingPrivateKey = errors.New("key pair has no private key")

	// ErrInvalidTweakedKey is returned when the taproot tweak arithmetic
	// produces a zero or out-of-range scalar. This should never occur for
	// correctly derived keys and is treated as an integrity failure.
	ErrInvalidTweakedKey = errors.New("invalid tweaked private key")

	// ErrNotRootKeyring is returned when serialization is attempted on a
	// keyring view that is scoped to a single derived account instead of
	// the root identity.
	ErrNotRootKeyring = errors.New("serialization requires the root " +
		"keyring")

	// ErrMissingSeed is returned when a snapshot is missing its seed or
	// its account count and therefore cannot be used to reconstruct a
	// keyring.
	ErrMissingSeed = errors.New("snapshot is missing seed or account " +
		"count")

	// ErrUnsupportedOperation is returned for operations that are not
	// meaningful for a derivation-based keyring, such as constructing one
	// from a raw private key.
	ErrUnsupportedOperation = errors.New("operation not supported by " +
		"hd keyring")

	// ErrMissingUtxoInfo is returned when a PSBT input carries neither a
	// witness utxo nor a non-witness utxo, leaving nothing to compute a
	// signature hash from.
	ErrMissingUtxoInfo = errors.New("psbt input is missing utxo " +
		"information")

	// ErrUnknownNetwork is returned when a snapshot names a network that
	// cannot be resolved to chain parameters.
	ErrUnknownNetwork = errors.New("unknown network")
)
