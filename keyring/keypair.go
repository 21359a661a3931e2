// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// rootAccountIndex marks the root identity's key pair, which lives outside
// the derived account sequence.
const rootAccountIndex = -1

// KeyPair bundles a derived private/public key pair with its position in the
// derivation sequence. The root identity uses rootAccountIndex; derived
// accounts use their child index.
type KeyPair struct {
	privKey *btcec.PrivateKey
	pubKey  *btcec.PublicKey
	index   int
}

// newKeyPair creates a key pair from a private key.
func newKeyPair(privKey *btcec.PrivateKey, index int) *KeyPair {
	return &KeyPair{
		privKey: privKey,
		pubKey:  privKey.PubKey(),
		index:   index,
	}
}

// PubKey returns the key pair's public key.
func (k *KeyPair) PubKey() *btcec.PublicKey {
	return k.pubKey
}

// Index returns the key pair's child index, or rootAccountIndex for the root
// identity.
func (k *KeyPair) Index() int {
	return k.index
}

// IsRoot returns true if this key pair belongs to the root identity rather
// than a derived account.
func (k *KeyPair) IsRoot() bool {
	return k.index == rootAccountIndex
}

// Address renders the key pair's public key as an address of the given type.
func (k *KeyPair) Address(addrType AddressType,
	params *chaincfg.Params) (btcutil.Address, error) {

	return addressForPubKey(k.pubKey, addrType, params)
}

// SignDigest produces a DER-encoded ECDSA signature over the passed digest.
func (k *KeyPair) SignDigest(digest []byte) ([]byte, error) {
	if k.privKey == nil {
		return nil, ErrMissingPrivateKey
	}

	return ecdsa.Sign(k.privKey, digest).Serialize(), nil
}

// SignDigestSchnorr produces a BIP-340 schnorr signature over the passed
// digest.
func (k *KeyPair) SignDigestSchnorr(digest []byte) ([]byte, error) {
	if k.privKey == nil {
		return nil, ErrMissingPrivateKey
	}

	sig, err := schnorr.Sign(k.privKey, digest)
	if err != nil {
		return nil, fmt.Errorf("schnorr sign failed: %w", err)
	}

	return sig.Serialize(), nil
}

// VerifyDigest checks a DER-encoded ECDSA signature over the passed digest
// against the key pair's public key.
func (k *KeyPair) VerifyDigest(digest, sigBytes []byte) bool {
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}

	return sig.Verify(digest, k.pubKey)
}

// WIF exports the key pair's private key in wallet import format, using the
// compressed public key encoding.
func (k *KeyPair) WIF(params *chaincfg.Params) (string, error) {
	if k.privKey == nil {
		return "", ErrMissingPrivateKey
	}

	wif, err := btcutil.NewWIF(k.privKey, params, true)
	if err != nil {
		return "", fmt.Errorf("unable to encode wif: %w", err)
	}

	return wif.String(), nil
}
