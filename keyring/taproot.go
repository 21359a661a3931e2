// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// tweakTaprootKeyPair applies the BIP-341 key tweak to a key pair, producing
// the key pair that signs taproot key-path spends.
//
// The tweak is the tagged hash of the x-only public key, optionally followed
// by the script tree merkle root. If the public key has an odd y coordinate
// the private key is negated before the tweak scalar is added, so that the
// tweaked key corresponds to the even-y internal key the output commits to.
// The caller's key pair is never mutated.
func tweakTaprootKeyPair(keyPair *KeyPair,
	scriptRoot fn.Option[chainhash.Hash]) (*KeyPair, error) {

	if keyPair.privKey == nil {
		return nil, ErrMissingPrivateKey
	}

	// Work on a copy of the private key scalar so negation cannot leak
	// back into the account cache.
	privKeyScalar := keyPair.privKey.Key

	pubKeyBytes := keyPair.pubKey.SerializeCompressed()
	if pubKeyBytes[0] == secp256k1.PubKeyFormatCompressedOdd {
		privKeyScalar.Negate()
	}

	// The tweak commits to the x-only public key, with the script tree
	// merkle root appended when one is supplied.
	xOnlyKey := pubKeyBytes[1:]
	tapTweakHash := chainhash.TaggedHash(chainhash.TagTapTweak, xOnlyKey)
	scriptRoot.WhenSome(func(root chainhash.Hash) {
		tapTweakHash = chainhash.TaggedHash(
			chainhash.TagTapTweak, xOnlyKey, root[:],
		)
	})

	// Interpret the hash as a scalar mod the curve order. A hash at or
	// beyond the order is invalid per BIP-341 rather than being reduced.
	var tweakScalar secp256k1.ModNScalar
	if overflow := tweakScalar.SetBytes((*[32]byte)(tapTweakHash)); overflow != 0 {
		return nil, fmt.Errorf("%w: tweak hash overflows the curve "+
			"order", ErrInvalidTweakedKey)
	}

	tweakedScalar := privKeyScalar.Add(&tweakScalar)
	if tweakedScalar.IsZero() {
		return nil, fmt.Errorf("%w: tweaked scalar is zero",
			ErrInvalidTweakedKey)
	}

	tweakedPrivKey := secp256k1.NewPrivateKey(tweakedScalar)

	return newKeyPair(tweakedPrivKey, keyPair.index), nil
}
