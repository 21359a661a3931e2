// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// derivationTree wraps the master seed and the two live extended keys the
// keyring holds: the master node computed from the seed, and the root node
// computed by walking the configured derivation path from the master. Child
// key pairs are derived from the root node by appending a single non-hardened
// index; caching of derived children is the account registry's concern, not
// the tree's.
type derivationTree struct {
	seed []byte
	path string

	master *hdkeychain.ExtendedKey
	root   *hdkeychain.ExtendedKey
}

// newDerivationTree computes the master node from the seed and derives the
// root node at the given path. Both derivations are deterministic, so the
// same (seed, path) always yields the same tree.
func newDerivationTree(seed []byte, path string,
	params *chaincfg.Params) (*derivationTree, error) {

	if len(seed) == 0 {
		return nil, fmt.Errorf("%w: seed is empty", ErrInvalidSeed)
	}

	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	root, err := derivePath(master, path)
	if err != nil {
		return nil, err
	}

	log.Debugf("Derived root node at path %s", path)

	return &derivationTree{
		seed:   seed,
		path:   path,
		master: master,
		root:   root,
	}, nil
}

// setPath recomputes the root node at the new path from the stored master
// node. The caller is responsible for invalidating any children derived under
// the old path.
func (t *derivationTree) setPath(path string) error {
	root, err := derivePath(t.master, path)
	if err != nil {
		return err
	}

	t.path = path
	t.root = root

	return nil
}

// rootKeyPair returns the key pair of the root node itself.
func (t *derivationTree) rootKeyPair() (*KeyPair, error) {
	privKey, err := t.root.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("unable to extract root private "+
			"key: %w", err)
	}

	return newKeyPair(privKey, rootAccountIndex), nil
}

// childKeyPair derives the non-hardened child of the root node at the given
// index. Derivation is deterministic in (root, index).
func (t *derivationTree) childKeyPair(index uint32) (*KeyPair, error) {
	child, err := t.root.Derive(index)
	if err != nil {
		return nil, fmt.Errorf("unable to derive child %d: %w",
			index, err)
	}

	privKey, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("unable to extract child %d private "+
			"key: %w", index, err)
	}

	return newKeyPair(privKey, int(index)), nil
}

// derivePath walks a derivation path string from the given node, deriving one
// child per path element.
func derivePath(node *hdkeychain.ExtendedKey,
	path string) (*hdkeychain.ExtendedKey, error) {

	indices, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	current := node
	for _, index := range indices {
		current, err = current.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("unable to derive path %s: %w",
				path, err)
		}
	}

	return current, nil
}

// parsePath parses a derivation path of the form "m/44'/0'/0'/0" into raw
// child indices. An apostrophe or "h" suffix marks a hardened index.
func parsePath(path string) ([]uint32, error) {
	elements := strings.Split(path, "/")
	if len(elements) == 0 || elements[0] != "m" {
		return nil, fmt.Errorf("%w: path %q must start with \"m\"",
			ErrInvalidPath, path)
	}

	indices := make([]uint32, 0, len(elements)-1)
	for _, element := range elements[1:] {
		if element == "" {
			return nil, fmt.Errorf("%w: empty path element in %q",
				ErrInvalidPath, path)
		}

		hardened := false
		switch {
		case strings.HasSuffix(element, "'"),
			strings.HasSuffix(element, "h"),
			strings.HasSuffix(element, "H"):

			hardened = true
			element = element[:len(element)-1]
		}

		index, err := strconv.ParseUint(element, 10, 32)
		if err != nil || index >= hdkeychain.HardenedKeyStart {
			return nil, fmt.Errorf("%w: invalid index %q in "+
				"path %q", ErrInvalidPath, element, path)
		}

		if hardened {
			index += hdkeychain.HardenedKeyStart
		}

		indices = append(indices, uint32(index))
	}

	return indices, nil
}
