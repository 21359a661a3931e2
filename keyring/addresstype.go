// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import (
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

const (
	// DefaultHDPath is the derivation path used for legacy and segwit
	// keyrings, and for taproot keyrings that keep the legacy path
	// convention.
	DefaultHDPath = "m/44'/0'/0'/0"

	// DefaultHDPathP2TR is the derivation path used for taproot keyrings
	// following the BIP-86 path convention.
	DefaultHDPathP2TR = "m/86'/0'/0'/0"
)

// AddressType identifies how a derived public key is rendered as an address
// and whether signing for that address requires the taproot key tweak.
type AddressType uint8

const (
	// AddressTypeP2PKH renders legacy pay-to-pubkey-hash addresses.
	AddressTypeP2PKH AddressType = iota

	// AddressTypeP2WPKH renders native segwit v0 pay-to-witness-pubkey-
	// hash addresses.
	AddressTypeP2WPKH

	// AddressTypeP2TR renders taproot addresses derived on the BIP-86
	// path. Key-path signing requires the taproot tweak.
	AddressTypeP2TR

	// AddressTypeP2TRLegacy renders taproot addresses for keyrings that
	// derive on the legacy BIP-44 path. Key-path signing requires the
	// taproot tweak.
	AddressTypeP2TRLegacy
)

// String returns the string representation of an AddressType.
func (a AddressType) String() string {
	switch a {
	case AddressTypeP2PKH:
		return "p2pkh"

	case AddressTypeP2WPKH:
		return "p2wpkh"

	case AddressTypeP2TR:
		return "p2tr"

	case AddressTypeP2TRLegacy:
		return "p2tr-legacy"

	default:
		return "unknown address type"
	}
}

// RequiresTweak returns true if key-path signing for this address type
// requires the taproot key tweak to be applied first.
func (a AddressType) RequiresTweak() bool {
	return a == AddressTypeP2TR || a == AddressTypeP2TRLegacy
}

// defaultPath returns the derivation path used when the caller does not
// override it.
func (a AddressType) defaultPath() string {
	if a == AddressTypeP2TR {
		return DefaultHDPathP2TR
	}

	return DefaultHDPath
}

// MarshalJSON implements json.Marshaler, encoding the address type as its
// string tag.
func (a AddressType) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AddressType) UnmarshalJSON(b []byte) error {
	var tag string
	if err := json.Unmarshal(b, &tag); err != nil {
		return err
	}

	switch tag {
	case "p2pkh":
		*a = AddressTypeP2PKH

	case "p2wpkh":
		*a = AddressTypeP2WPKH

	case "p2tr":
		*a = AddressTypeP2TR

	case "p2tr-legacy":
		*a = AddressTypeP2TRLegacy

	default:
		return fmt.Errorf("unknown address type tag %q", tag)
	}

	return nil
}

// addressForPubKey maps a public key to an address of the given type. For
// taproot types the address commits to the tweaked output key, not the raw
// internal key.
func addressForPubKey(pubKey *btcec.PublicKey, addrType AddressType,
	params *chaincfg.Params) (btcutil.Address, error) {

	switch addrType {
	case AddressTypeP2PKH:
		pkHash := btcutil.Hash160(pubKey.SerializeCompressed())
		return btcutil.NewAddressPubKeyHash(pkHash, params)

	case AddressTypeP2WPKH:
		pkHash := btcutil.Hash160(pubKey.SerializeCompressed())
		return btcutil.NewAddressWitnessPubKeyHash(pkHash, params)

	case AddressTypeP2TR, AddressTypeP2TRLegacy:
		outputKey := txscript.ComputeTaprootKeyNoScript(pubKey)
		return btcutil.NewAddressTaproot(
			schnorr.SerializePubKey(outputKey), params,
		)

	default:
		return nil, fmt.Errorf("%w: address type %d",
			ErrUnsupportedOperation, addrType)
	}
}
