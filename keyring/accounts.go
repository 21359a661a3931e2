// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

// AddAccounts derives count new child key pairs starting at the current
// highest index plus one and appends them to the account list. The addresses
// of the new accounts are returned in derivation order. Already-derived
// indices are never re-derived: derivation always continues from the end of
// the cached sequence, keeping indices contiguous from zero.
func (k *Keyring) AddAccounts(count int) ([]string, error) {
	if count <= 0 {
		count = 1
	}

	start := len(k.children)
	addresses := make([]string, 0, count)
	derived := make([]*KeyPair, 0, count)

	for i := 0; i < count; i++ {
		//nolint:gosec
		index := uint32(start + i)
		keyPair, err := k.tree.childKeyPair(index)
		if err != nil {
			// Leave the account list untouched so a failed batch
			// has no partial effect.
			return nil, err
		}

		addr, err := keyPair.Address(k.addrType, k.chainParams)
		if err != nil {
			return nil, err
		}

		derived = append(derived, keyPair)
		addresses = append(addresses, addr.String())
	}

	k.children = append(k.children, derived...)

	log.Debugf("Derived %d new accounts, total is now %d", count,
		len(k.children))

	return addresses, nil
}

// Accounts returns the addresses of all derived accounts in derivation
// order, prefixed by the root identity's address unless the root is hidden.
func (k *Keyring) Accounts() ([]string, error) {
	addresses := make([]string, 0, len(k.children)+1)

	if !k.hideRoot {
		rootAddr, err := k.root.Address(k.addrType, k.chainParams)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, rootAddr.String())
	}

	for _, keyPair := range k.children {
		addr, err := keyPair.Address(k.addrType, k.chainParams)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, addr.String())
	}

	return addresses, nil
}

// FindAccount resolves an address to the key pair that owns it. The root
// identity participates in the search only while it is visible. The lookup is
// a linear scan: the account list is small and ordered by index.
func (k *Keyring) FindAccount(address string) (*KeyPair, error) {
	if !k.hideRoot {
		rootAddr, err := k.root.Address(k.addrType, k.chainParams)
		if err != nil {
			return nil, err
		}
		if rootAddr.String() == address {
			return k.root, nil
		}
	}

	for _, keyPair := range k.children {
		addr, err := keyPair.Address(k.addrType, k.chainParams)
		if err != nil {
			return nil, err
		}
		if addr.String() == address {
			return keyPair, nil
		}
	}

	return nil, fmt.Errorf("%w: address %s", ErrAccountNotFound, address)
}

// FindAccountByPubKey resolves a raw public key to its owning key pair by
// first rendering it as an address under the keyring's address type.
func (k *Keyring) FindAccountByPubKey(
	pubKey *btcec.PublicKey) (*KeyPair, error) {

	addr, err := addressForPubKey(pubKey, k.addrType, k.chainParams)
	if err != nil {
		return nil, err
	}

	return k.FindAccount(addr.String())
}

// HideRoot reports whether the root identity is excluded from the visible
// account list.
func (k *Keyring) HideRoot() bool {
	return k.hideRoot
}

// ToggleHideRoot flips the root visibility flag. Hiding the root while no
// child account exists derives child zero first, so the keyring is never left
// with an empty visible account list.
func (k *Keyring) ToggleHideRoot() error {
	k.hideRoot = !k.hideRoot

	if k.hideRoot && len(k.children) == 0 {
		if _, err := k.AddAccounts(1); err != nil {
			return err
		}
	}

	return nil
}

// ExportWIF exports the private key owning the given address in wallet
// import format.
func (k *Keyring) ExportWIF(address string) (string, error) {
	keyPair, err := k.FindAccount(address)
	if err != nil {
		return "", err
	}

	return keyPair.WIF(k.chainParams)
}

// ExportPublicKey returns the compressed public key owning the given address.
func (k *Keyring) ExportPublicKey(address string) (*btcec.PublicKey, error) {
	keyPair, err := k.FindAccount(address)
	if err != nil {
		return nil, err
	}

	return keyPair.PubKey(), nil
}
