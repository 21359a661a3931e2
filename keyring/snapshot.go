// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// Snapshot is the compact, re-derivable persisted form of a keyring. It
// captures the derivation parameters and the number of derived accounts;
// because derivation is deterministic, that is enough to reconstruct the
// exact same account set. No private keys beyond the seed are persisted.
type Snapshot struct {
	// NumberOfAccounts is the count of derived child accounts. It is a
	// pointer so that an absent field can be told apart from zero.
	NumberOfAccounts *int `json:"numberOfAccounts"`

	// Seed is the hex encoded master seed.
	Seed string `json:"seed"`

	// AddressType is the keyring's address type tag.
	AddressType AddressType `json:"addressType"`

	// HDPath is the derivation path. It is omitted when it equals the
	// default path of the address type.
	HDPath string `json:"hdPath,omitempty"`

	// HideRoot records the root visibility flag when set.
	HideRoot bool `json:"hideRoot,omitempty"`

	// Network names the chain the keyring encodes addresses for. It is
	// omitted for mainnet.
	Network string `json:"network,omitempty"`
}

// Serialize captures the keyring's derivation parameters and account count
// into a snapshot. Only the root keyring can be serialized; account-scoped
// views refuse with ErrNotRootKeyring.
func (k *Keyring) Serialize() (*Snapshot, error) {
	if k.viewIndex != rootAccountIndex {
		return nil, fmt.Errorf("%w: view is scoped to account %d",
			ErrNotRootKeyring, k.viewIndex)
	}

	numAccounts := len(k.children)
	snapshot := &Snapshot{
		NumberOfAccounts: &numAccounts,
		Seed:             hex.EncodeToString(k.tree.seed),
		AddressType:      k.addrType,
		HideRoot:         k.hideRoot,
	}

	// Keep the snapshot compact: the path is only recorded when it
	// deviates from the address type's default.
	if k.tree.path != k.addrType.defaultPath() {
		snapshot.HDPath = k.tree.path
	}

	if k.chainParams.Name != chaincfg.MainNetParams.Name {
		snapshot.Network = k.chainParams.Name
	}

	return snapshot, nil
}

// Deserialize reconstructs a keyring from a snapshot. The root node is
// recomputed from the seed and path, then exactly NumberOfAccounts child
// accounts are re-derived eagerly, guaranteeing the reconstructed account
// list matches the original in order and content.
func Deserialize(snapshot *Snapshot) (*Keyring, error) {
	if snapshot == nil || snapshot.Seed == "" ||
		snapshot.NumberOfAccounts == nil {

		return nil, ErrMissingSeed
	}

	seed, err := hex.DecodeString(snapshot.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: seed is not valid hex",
			ErrInvalidSeed)
	}

	params, err := paramsForNetwork(snapshot.Network)
	if err != nil {
		return nil, err
	}

	k, err := NewFromSeed(seed, &Options{
		HDPath:      snapshot.HDPath,
		AddressType: snapshot.AddressType,
		ChainParams: params,
	})
	if err != nil {
		return nil, err
	}

	// Restore the visibility flag directly: ToggleHideRoot would derive
	// an extra account when the snapshot holds none.
	k.hideRoot = snapshot.HideRoot

	if *snapshot.NumberOfAccounts > 0 {
		_, err := k.AddAccounts(*snapshot.NumberOfAccounts)
		if err != nil {
			return nil, err
		}
	}

	log.Debugf("Restored keyring with %d accounts from snapshot",
		*snapshot.NumberOfAccounts)

	return k, nil
}

// paramsForNetwork resolves a snapshot's network name to chain parameters.
// An empty name selects mainnet.
func paramsForNetwork(name string) (*chaincfg.Params, error) {
	switch name {
	case "", chaincfg.MainNetParams.Name:
		return &chaincfg.MainNetParams, nil

	case chaincfg.TestNet3Params.Name:
		return &chaincfg.TestNet3Params, nil

	case chaincfg.RegressionNetParams.Name:
		return &chaincfg.RegressionNetParams, nil

	case chaincfg.SimNetParams.Name:
		return &chaincfg.SimNetParams, nil

	case chaincfg.SigNetParams.Name:
		return &chaincfg.SigNetParams, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
}
