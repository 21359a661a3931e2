// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// InputDescriptor describes a single PSBT input to sign and how to sign it.
type InputDescriptor struct {
	// InputIndex is the index of the input within the packet.
	InputIndex int

	// PublicKey identifies the owning key pair. It accepts a compressed,
	// uncompressed or x-only encoding. When empty, the key is resolved
	// from the input's own BIP-32 derivation fields.
	PublicKey []byte

	// DisableTweak skips the taproot key tweak for this input. This is
	// meant for inputs that are not taproot key-path spends, e.g. script
	// path spends; the input is not validated to actually be one.
	DisableTweak bool

	// TweakHash optionally commits the key tweak to a script tree merkle
	// root. When none, the tweak commits to the key alone.
	TweakHash fn.Option[chainhash.Hash]

	// SighashType overrides the sighash type for this input. The zero
	// value defers to the type recorded on the input, falling back to
	// SigHashDefault for taproot inputs and SigHashAll otherwise.
	SighashType txscript.SigHashType
}

// SignOptions bundles the signing knobs shared by the whole-packet signing
// entry points.
type SignOptions struct {
	// DisableTweak skips the taproot key tweak for every input.
	DisableTweak bool

	// TweakHash optionally commits the key tweak to a script tree merkle
	// root.
	TweakHash fn.Option[chainhash.Hash]
}

// SignatureRecord pairs a public key with the signature it produced.
type SignatureRecord struct {
	// PubKey is the compressed public key, or the x-only internal key for
	// taproot key-spend signatures.
	PubKey []byte

	// Signature is the raw signature, including the appended sighash byte
	// where the encoding carries one.
	Signature []byte
}

// PartialSignature is the per-input result of a partial signing round.
type PartialSignature struct {
	// InputIndex is the index of the input the signatures belong to.
	InputIndex uint32

	// Sigs holds the signatures attached to the input so far, including
	// those contributed by other parties in earlier rounds.
	Sigs []SignatureRecord
}

// SignInput signs a single PSBT input described by the passed descriptor and
// finalizes that input. The owning key pair is resolved by public key; the
// taproot tweak is applied when the keyring's address type requires it,
// unless the descriptor disables it.
func (k *Keyring) SignInput(packet *psbt.Packet,
	desc *InputDescriptor) error {

	if desc.InputIndex < 0 || desc.InputIndex >= len(packet.Inputs) {
		return fmt.Errorf("input index %d out of range",
			desc.InputIndex)
	}

	keyPair, err := k.resolveInputKeyPair(packet, desc)
	if err != nil {
		return err
	}

	_, err = k.signPsbtInput(packet, desc.InputIndex, keyPair, desc)
	if err != nil {
		return err
	}

	if _, err := psbt.MaybeFinalize(packet, desc.InputIndex); err != nil {
		return fmt.Errorf("unable to finalize input %d: %w",
			desc.InputIndex, err)
	}

	return nil
}

// SignAllInputs signs every input of the packet with the key pair owning the
// passed address, then finalizes all inputs. The returned slice holds one
// hex-encoded signature per input; an input that gained no signature in this
// call keeps an empty slot.
func (k *Keyring) SignAllInputs(packet *psbt.Packet, address string,
	opts *SignOptions) ([]string, error) {

	sigs, err := k.signInputs(packet, address, opts)
	if err != nil {
		return nil, err
	}

	if err := psbt.MaybeFinalizeAll(packet); err != nil {
		return nil, fmt.Errorf("unable to finalize packet: %w", err)
	}

	return sigs, nil
}

// SignInputsWithoutFinalizing signs every input of the packet with the key
// pair owning the passed address but leaves the packet open, so further
// parties can add their signatures in later rounds. The raw partial
// signature records attached to each input are returned for aggregation.
func (k *Keyring) SignInputsWithoutFinalizing(packet *psbt.Packet,
	address string, opts *SignOptions) ([]PartialSignature, error) {

	_, err := k.signInputs(packet, address, opts)
	if err != nil {
		return nil, err
	}

	partials := make([]PartialSignature, 0, len(packet.Inputs))
	for i := range packet.Inputs {
		pInput := &packet.Inputs[i]

		records := make([]SignatureRecord, 0, len(pInput.PartialSigs))
		for _, partialSig := range pInput.PartialSigs {
			records = append(records, SignatureRecord{
				PubKey:    partialSig.PubKey,
				Signature: partialSig.Signature,
			})
		}

		if len(pInput.TaprootKeySpendSig) > 0 {
			records = append(records, SignatureRecord{
				PubKey:    pInput.TaprootInternalKey,
				Signature: pInput.TaprootKeySpendSig,
			})
		}

		if len(records) == 0 {
			continue
		}

		partials = append(partials, PartialSignature{
			//nolint:gosec
			InputIndex: uint32(i),
			Sigs:       records,
		})
	}

	return partials, nil
}

// signInputs resolves the signing key pair once and signs every input of the
// packet with it.
func (k *Keyring) signInputs(packet *psbt.Packet, address string,
	opts *SignOptions) ([]string, error) {

	if opts == nil {
		opts = &SignOptions{}
	}

	keyPair, err := k.FindAccount(address)
	if err != nil {
		return nil, err
	}

	desc := &InputDescriptor{
		DisableTweak: opts.DisableTweak,
		TweakHash:    opts.TweakHash,
	}

	sigs := make([]string, len(packet.Inputs))
	for i := range packet.Inputs {
		sig, err := k.signPsbtInput(packet, i, keyPair, desc)
		if err != nil {
			return nil, fmt.Errorf("unable to sign input %d: %w",
				i, err)
		}

		sigs[i] = hex.EncodeToString(sig)
	}

	return sigs, nil
}

// signPsbtInput signs one input of the packet with the given key pair and
// attaches the signature to the packet. The produced signature is returned,
// or nil when the input gained no new signature (e.g. it was already
// finalized).
//
// Taproot inputs are signed with a schnorr key-path signature, applying the
// key tweak unless disabled. Witness v0 and legacy inputs are signed with
// ECDSA through the psbt updater; legacy inputs must carry a NonWitnessUtxo
// for the updater to accept the signature.
func (k *Keyring) signPsbtInput(packet *psbt.Packet, inputIndex int,
	keyPair *KeyPair, desc *InputDescriptor) ([]byte, error) {

	utxo, err := inputUtxo(packet, inputIndex)
	if err != nil {
		return nil, err
	}

	fetcher := prevOutputFetcher(packet)
	sigHashes := txscript.NewTxSigHashes(packet.UnsignedTx, fetcher)

	if txscript.IsPayToTaproot(utxo.PkScript) {
		return k.signTaprootInput(
			packet, inputIndex, keyPair, desc, sigHashes, fetcher,
		)
	}

	return k.signEcdsaInput(
		packet, inputIndex, keyPair, desc, sigHashes, utxo,
	)
}

// signTaprootInput produces a schnorr key-path signature for a taproot input
// and records it on the packet.
func (k *Keyring) signTaprootInput(packet *psbt.Packet, inputIndex int,
	keyPair *KeyPair, desc *InputDescriptor,
	sigHashes *txscript.TxSigHashes,
	fetcher txscript.PrevOutputFetcher) ([]byte, error) {

	pInput := &packet.Inputs[inputIndex]

	hashType := desc.SighashType
	if hashType == 0 {
		hashType = pInput.SighashType
	}

	// Apply the key tweak unless the address type signs with the raw key
	// or the caller disabled it for this input.
	signKeyPair := keyPair
	if k.addrType.RequiresTweak() && !desc.DisableTweak {
		var err error
		signKeyPair, err = tweakTaprootKeyPair(keyPair, desc.TweakHash)
		if err != nil {
			return nil, err
		}
	}

	digest, err := txscript.CalcTaprootSignatureHash(
		sigHashes, hashType, packet.UnsignedTx, inputIndex, fetcher,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to compute taproot sighash: %w",
			err)
	}

	sigBytes, err := signKeyPair.SignDigestSchnorr(digest)
	if err != nil {
		return nil, err
	}

	// BIP-341 signatures only carry an explicit sighash byte for
	// non-default types.
	if hashType != txscript.SigHashDefault {
		sigBytes = append(sigBytes, byte(hashType))
	}

	pInput.TaprootKeySpendSig = sigBytes
	if len(pInput.TaprootInternalKey) == 0 {
		pInput.TaprootInternalKey = schnorr.SerializePubKey(
			keyPair.pubKey,
		)
	}

	log.Tracef("Signed taproot input %d (tweaked=%v)", inputIndex,
		signKeyPair != keyPair)

	return sigBytes, nil
}

// signEcdsaInput produces an ECDSA signature for a legacy or witness v0 input
// and attaches it through the psbt updater.
func (k *Keyring) signEcdsaInput(packet *psbt.Packet, inputIndex int,
	keyPair *KeyPair, desc *InputDescriptor,
	sigHashes *txscript.TxSigHashes, utxo *wire.TxOut) ([]byte, error) {

	pInput := &packet.Inputs[inputIndex]

	hashType := desc.SighashType
	if hashType == 0 {
		hashType = pInput.SighashType
	}
	if hashType == 0 {
		hashType = txscript.SigHashAll
	}

	var (
		digest []byte
		err    error
	)
	if txscript.IsPayToWitnessPubKeyHash(utxo.PkScript) {
		// The sighash of a p2wpkh spend commits to the expanded
		// p2pkh-style script of the witness program.
		script, scriptErr := witnessV0SigScript(utxo.PkScript)
		if scriptErr != nil {
			return nil, scriptErr
		}

		digest, err = txscript.CalcWitnessSigHash(
			script, sigHashes, hashType, packet.UnsignedTx,
			inputIndex, utxo.Value,
		)
	} else {
		digest, err = txscript.CalcSignatureHash(
			utxo.PkScript, hashType, packet.UnsignedTx, inputIndex,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to compute sighash: %w", err)
	}

	sigBytes, err := keyPair.SignDigest(digest)
	if err != nil {
		return nil, err
	}
	sigBytes = append(sigBytes, byte(hashType))

	updater, err := psbt.NewUpdater(packet)
	if err != nil {
		return nil, fmt.Errorf("unable to create psbt updater: %w",
			err)
	}

	if err := updater.AddInSighashType(hashType, inputIndex); err != nil {
		return nil, fmt.Errorf("unable to set sighash type: %w", err)
	}

	outcome, err := updater.Sign(
		inputIndex, sigBytes, keyPair.pubKey.SerializeCompressed(),
		nil, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to attach signature: %w", err)
	}

	// An already finalized input gains no new signature.
	if outcome == psbt.SignFinalized {
		return nil, nil
	}

	log.Tracef("Signed input %d with sighash type %v", inputIndex,
		hashType)

	return sigBytes, nil
}

// resolveInputKeyPair finds the key pair owning an input, preferring the
// public key named by the descriptor and falling back to the derivation
// fields recorded on the input itself.
func (k *Keyring) resolveInputKeyPair(packet *psbt.Packet,
	desc *InputDescriptor) (*KeyPair, error) {

	pubKeyBytes := desc.PublicKey
	if len(pubKeyBytes) == 0 {
		pInput := &packet.Inputs[desc.InputIndex]
		switch {
		case len(pInput.TaprootBip32Derivation) > 0:
			pubKeyBytes = pInput.TaprootBip32Derivation[0].XOnlyPubKey

		case len(pInput.Bip32Derivation) > 0:
			pubKeyBytes = pInput.Bip32Derivation[0].PubKey

		case len(pInput.TaprootInternalKey) > 0:
			pubKeyBytes = pInput.TaprootInternalKey
		}
	}
	if len(pubKeyBytes) == 0 {
		return nil, fmt.Errorf("%w: input %d names no public key",
			ErrAccountNotFound, desc.InputIndex)
	}

	pubKey, err := parsePubKey(pubKeyBytes)
	if err != nil {
		return nil, err
	}

	return k.FindAccountByPubKey(pubKey)
}

// parsePubKey parses a compressed, uncompressed or 32-byte x-only public key
// encoding.
func parsePubKey(pubKeyBytes []byte) (*btcec.PublicKey, error) {
	if len(pubKeyBytes) == schnorr.PubKeyBytesLen {
		pubKey, err := schnorr.ParsePubKey(pubKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("unable to parse x-only "+
				"public key: %w", err)
		}

		return pubKey, nil
	}

	pubKey, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("unable to parse public key: %w", err)
	}

	return pubKey, nil
}

// inputUtxo returns the output being spent by an input, from its witness
// utxo or its full previous transaction.
func inputUtxo(packet *psbt.Packet, inputIndex int) (*wire.TxOut, error) {
	pInput := &packet.Inputs[inputIndex]

	if pInput.WitnessUtxo != nil {
		return pInput.WitnessUtxo, nil
	}

	if pInput.NonWitnessUtxo != nil {
		prevIndex := packet.UnsignedTx.TxIn[inputIndex].
			PreviousOutPoint.Index
		if prevIndex >= uint32(len(pInput.NonWitnessUtxo.TxOut)) {
			return nil, fmt.Errorf("%w: previous output index "+
				"%d out of range", ErrMissingUtxoInfo,
				prevIndex)
		}

		return pInput.NonWitnessUtxo.TxOut[prevIndex], nil
	}

	return nil, fmt.Errorf("%w: input %d", ErrMissingUtxoInfo, inputIndex)
}

// prevOutputFetcher builds a fetcher over every previous output the packet
// knows about, which the sighash calculators need for witness v1 digests.
func prevOutputFetcher(packet *psbt.Packet) *txscript.MultiPrevOutFetcher {
	fetcher := txscript.NewMultiPrevOutFetcher(nil)

	for i, txIn := range packet.UnsignedTx.TxIn {
		pInput := packet.Inputs[i]

		switch {
		case pInput.WitnessUtxo != nil:
			fetcher.AddPrevOut(
				txIn.PreviousOutPoint, pInput.WitnessUtxo,
			)

		case pInput.NonWitnessUtxo != nil:
			prevIndex := txIn.PreviousOutPoint.Index
			outs := pInput.NonWitnessUtxo.TxOut
			if prevIndex < uint32(len(outs)) {
				fetcher.AddPrevOut(
					txIn.PreviousOutPoint, outs[prevIndex],
				)
			}
		}
	}

	return fetcher
}

// witnessV0SigScript expands a p2wpkh witness program into the p2pkh-style
// script the segwit v0 sighash algorithm commits to.
func witnessV0SigScript(pkScript []byte) ([]byte, error) {

	// The witness program is the hash160 of the compressed public key;
	// the expanded script is the canonical p2pkh script over it.
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pkScript[2:]).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	if err != nil {
		return nil, fmt.Errorf("unable to build witness v0 sig "+
			"script: %w", err)
	}

	return script, nil
}
