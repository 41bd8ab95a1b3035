// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding"
	"hash"
)

// isZero32 reports, in constant time with respect to b, whether b consists
// entirely of zero bytes. Used to reject all-zero session entropy without
// branching on secret-derived data.
func isZero32(b []byte) bool {
	var zero [32]byte
	return subtle.ConstantTimeCompare(b, zero[:]) == 1
}

// cloneSHA256 returns an independent copy of the given SHA-256 hash state,
// so that the same midstate can be used to derive both k0 and k1 without
// the two derivations interfering with each other -- mirroring the
// reference C implementation's "sha_tmp = sha" struct copy.
func cloneSHA256(h hash.Hash) hash.Hash {
	marshaler, ok := h.(encoding.BinaryMarshaler)
	if !ok {
		panic("musig2: sha256 digest does not support cloning")
	}
	state, err := marshaler.MarshalBinary()
	if err != nil {
		panic("musig2: failed to snapshot sha256 state: " + err.Error())
	}

	clone := sha256.New()
	if err := clone.(encoding.BinaryUnmarshaler).UnmarshalBinary(state); err != nil {
		panic("musig2: failed to restore sha256 state: " + err.Error())
	}
	return clone
}

// randRead fills b with cryptographically secure random bytes.
func randRead(b []byte) error {
	_, err := rand.Read(b)
	return err
}
