// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

// TestAddAccounts checks the concrete derivation scenario: three accounts
// from the zero seed at the default path, each distinct and reproducible
// across fresh constructions.
func TestAddAccounts(t *testing.T) {
	t.Parallel()

	k := newTestKeyring(t, AddressTypeP2WPKH)

	addrs, err := k.AddAccounts(3)
	require.NoError(t, err)
	require.Len(t, addrs, 3)

	// All three addresses are distinct.
	require.NotEqual(t, addrs[0], addrs[1])
	require.NotEqual(t, addrs[1], addrs[2])
	require.NotEqual(t, addrs[0], addrs[2])

	// A fresh keyring from the same seed reproduces them exactly.
	fresh := newTestKeyring(t, AddressTypeP2WPKH)
	freshAddrs, err := fresh.AddAccounts(3)
	require.NoError(t, err)
	require.Equal(t, addrs, freshAddrs)
}

// TestAddAccountsContiguous checks that derivation always continues from the
// highest cached index, keeping indices contiguous and never re-deriving.
func TestAddAccountsContiguous(t *testing.T) {
	t.Parallel()

	k := newTestKeyring(t, AddressTypeP2WPKH)

	first, err := k.AddAccounts(2)
	require.NoError(t, err)
	second, err := k.AddAccounts(1)
	require.NoError(t, err)

	batch := newTestKeyring(t, AddressTypeP2WPKH)
	all, err := batch.AddAccounts(3)
	require.NoError(t, err)

	require.Equal(t, all, append(first, second...))
	require.Equal(t, 0, k.children[0].Index())
	require.Equal(t, 2, k.children[2].Index())
}

// TestAccountCacheIdempotent checks that a derived key pair object is reused
// for all future lookups of its index.
func TestAccountCacheIdempotent(t *testing.T) {
	t.Parallel()

	k := newTestKeyring(t, AddressTypeP2WPKH)

	addrs, err := k.AddAccounts(1)
	require.NoError(t, err)

	kp1, err := k.FindAccount(addrs[0])
	require.NoError(t, err)
	kp2, err := k.FindAccount(addrs[0])
	require.NoError(t, err)

	require.Same(t, kp1, kp2)
}

// TestAccountsRootVisibility checks the two-tier visible account list: the
// root address leads unless hidden.
func TestAccountsRootVisibility(t *testing.T) {
	t.Parallel()

	k := newTestKeyring(t, AddressTypeP2PKH)

	rootAddr, err := k.root.Address(k.addrType, k.chainParams)
	require.NoError(t, err)

	childAddrs, err := k.AddAccounts(2)
	require.NoError(t, err)

	visible, err := k.Accounts()
	require.NoError(t, err)
	require.Equal(
		t, append([]string{rootAddr.String()}, childAddrs...), visible,
	)

	require.NoError(t, k.ToggleHideRoot())

	visible, err = k.Accounts()
	require.NoError(t, err)
	require.Equal(t, childAddrs, visible)
}

// TestToggleHideRootDerivesFirstChild checks that hiding the root while no
// child exists derives exactly one account, so the visible list is never
// empty.
func TestToggleHideRootDerivesFirstChild(t *testing.T) {
	t.Parallel()

	k := newTestKeyring(t, AddressTypeP2WPKH)
	require.Empty(t, k.children)

	require.NoError(t, k.ToggleHideRoot())
	require.True(t, k.HideRoot())
	require.Len(t, k.children, 1)

	visible, err := k.Accounts()
	require.NoError(t, err)
	require.Len(t, visible, 1)
}

// TestFindAccountRootHidden checks that the root identity is excluded from
// lookups while hidden.
func TestFindAccountRootHidden(t *testing.T) {
	t.Parallel()

	k := newTestKeyring(t, AddressTypeP2WPKH)

	rootAddr, err := k.root.Address(k.addrType, k.chainParams)
	require.NoError(t, err)

	kp, err := k.FindAccount(rootAddr.String())
	require.NoError(t, err)
	require.True(t, kp.IsRoot())

	require.NoError(t, k.ToggleHideRoot())

	_, err = k.FindAccount(rootAddr.String())
	require.ErrorIs(t, err, ErrAccountNotFound)
}

// TestFindAccountByPubKey checks lookup by raw public key instead of
// address.
func TestFindAccountByPubKey(t *testing.T) {
	t.Parallel()

	k := newTestKeyring(t, AddressTypeP2TR)

	addrs, err := k.AddAccounts(1)
	require.NoError(t, err)

	kp, err := k.FindAccount(addrs[0])
	require.NoError(t, err)

	found, err := k.FindAccountByPubKey(kp.PubKey())
	require.NoError(t, err)
	require.Same(t, kp, found)
}

// TestFindAccountUnknown checks the lookup failure mode.
func TestFindAccountUnknown(t *testing.T) {
	t.Parallel()

	k := newTestKeyring(t, AddressTypeP2WPKH)

	_, err := k.FindAccount("bc1qunknownaddress")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

// TestExportWIF checks that the exported WIF decodes back to the account's
// private key.
func TestExportWIF(t *testing.T) {
	t.Parallel()

	k := newTestKeyring(t, AddressTypeP2PKH)

	addrs, err := k.AddAccounts(1)
	require.NoError(t, err)

	wifStr, err := k.ExportWIF(addrs[0])
	require.NoError(t, err)

	wif, err := btcutil.DecodeWIF(wifStr)
	require.NoError(t, err)
	require.True(t, wif.CompressPubKey)

	kp, err := k.FindAccount(addrs[0])
	require.NoError(t, err)
	require.Equal(
		t, kp.PubKey().SerializeCompressed(),
		wif.PrivKey.PubKey().SerializeCompressed(),
	)
}
