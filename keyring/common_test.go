// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

const (
	// testMnemonic is the standard BIP-39 test phrase.
	testMnemonic = "abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon abandon about"

	// testUtxoValue is the value of the utxo spent by the signer tests.
	testUtxoValue = 100_000
)

// testSeed returns the 64-zero-byte seed used throughout the tests.
func testSeed() []byte {
	return make([]byte, 64)
}

// newTestKeyring creates a keyring from the zero seed with the given address
// type on mainnet.
func newTestKeyring(t *testing.T, addrType AddressType) *Keyring {
	t.Helper()

	k, err := NewFromSeed(testSeed(), &Options{AddressType: addrType})
	require.NoError(t, err)

	return k
}

// pkScriptForAddress renders an address string as its output script.
func pkScriptForAddress(t *testing.T, address string) []byte {
	t.Helper()

	addr, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams)
	require.NoError(t, err)

	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	return pkScript
}

// newTestPacket builds a one-input, one-output PSBT spending a utxo paying to
// the given address. For witness address types the input carries a
// WitnessUtxo; for legacy types it carries the full previous transaction.
func newTestPacket(t *testing.T, address string,
	witness bool) *psbt.Packet {

	t.Helper()

	pkScript := pkScriptForAddress(t, address)

	prevTx := wire.NewMsgTx(2)
	prevTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{
		Hash:  chainhash.Hash{0x01},
		Index: 0,
	}, nil, nil))
	prevTx.AddTxOut(wire.NewTxOut(testUtxoValue, pkScript))

	prevOut := wire.OutPoint{Hash: prevTx.TxHash(), Index: 0}

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(&prevOut, nil, nil))
	tx.AddTxOut(wire.NewTxOut(testUtxoValue-10_000, pkScript))

	packet, err := psbt.NewFromUnsignedTx(tx)
	require.NoError(t, err)

	if witness {
		packet.Inputs[0].WitnessUtxo = wire.NewTxOut(
			testUtxoValue, pkScript,
		)
	} else {
		packet.Inputs[0].NonWitnessUtxo = prevTx
	}

	return packet
}

// taprootDigest recomputes the BIP-341 default sighash for the packet's
// first input.
func taprootDigest(t *testing.T, packet *psbt.Packet) []byte {
	t.Helper()

	fetcher := prevOutputFetcher(packet)
	sigHashes := txscript.NewTxSigHashes(packet.UnsignedTx, fetcher)

	digest, err := txscript.CalcTaprootSignatureHash(
		sigHashes, txscript.SigHashDefault, packet.UnsignedTx, 0,
		fetcher,
	)
	require.NoError(t, err)

	return digest
}

// assertValidSpend runs the final transaction of the packet through the
// script engine against the spent output, proving the produced signature is
// valid on-chain.
func assertValidSpend(t *testing.T, packet *psbt.Packet, address string) {
	t.Helper()

	finalTx, err := psbt.Extract(packet)
	require.NoError(t, err)

	pkScript := pkScriptForAddress(t, address)
	fetcher := txscript.NewCannedPrevOutputFetcher(
		pkScript, testUtxoValue,
	)
	sigHashes := txscript.NewTxSigHashes(finalTx, fetcher)

	vm, err := txscript.NewEngine(
		pkScript, finalTx, 0, txscript.StandardVerifyFlags, nil,
		sigHashes, testUtxoValue, fetcher,
	)
	require.NoError(t, err)
	require.NoError(t, vm.Execute())
}
