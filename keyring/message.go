// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/btcsuite/btckeyring/pkg/typeddata"
)

// SignMessage signs arbitrary text with the key pair owning the given
// address. The text is hashed with a single round of SHA-256 and the DER
// signature over the digest is returned base64 encoded. Message signatures
// always use the raw account key; the taproot tweak is never applied here.
func (k *Keyring) SignMessage(address, text string) (string, error) {
	keyPair, err := k.FindAccount(address)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256([]byte(text))
	sigBytes, err := keyPair.SignDigest(digest[:])
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(sigBytes), nil
}

// VerifyMessage checks a base64 signature produced by SignMessage against
// the key pair owning the given address. A mismatching signature or text
// yields false, not an error; an unknown address is an error.
func (k *Keyring) VerifyMessage(address, text, sigBase64 string) (bool,
	error) {

	keyPair, err := k.FindAccount(address)
	if err != nil {
		return false, err
	}

	sigBytes, err := base64.StdEncoding.DecodeString(sigBase64)
	if err != nil {
		return false, fmt.Errorf("unable to decode signature: %w", err)
	}

	digest := sha256.Sum256([]byte(text))

	return keyPair.VerifyDigest(digest[:], sigBytes), nil
}

// SignTypedData canonicalizes structured data into a deterministic string
// encoding and signs it like a plain text message. Two structurally equal
// values always produce the same signature payload regardless of field or
// map ordering in the caller's representation.
func (k *Keyring) SignTypedData(address string, data any) (string, error) {
	canonical, err := typeddata.Canonicalize(data)
	if err != nil {
		return "", fmt.Errorf("unable to canonicalize typed data: %w",
			err)
	}

	return k.SignMessage(address, string(canonical))
}
