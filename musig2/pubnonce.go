// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
)

// PubNonceSize is the length, in bytes, of a serialized public nonce: two
// 33-byte compressed curve points.
const PubNonceSize = 66

// pubNonceMagic is the 4-byte tag identifying a PubNonce's in-memory
// representation. It is never part of the 66-byte wire encoding -- the
// wire format has no tag, it's simply two compressed points.
var pubNonceMagic = [4]byte{0xf5, 0x7a, 0x3d, 0xa0}

// PubNonce is a signer's public nonce: a pair of curve points R0, R1,
// neither of which may be the point at infinity. It is produced alongside
// a SecNonce and is freely shareable.
type PubNonce struct {
	magic [4]byte
	r     [2]btcec.PublicKey
}

// points returns the two group elements, each promoted to Jacobian form.
func (p *PubNonce) points() [2]btcec.JacobianPoint {
	var out [2]btcec.JacobianPoint
	p.r[0].AsJacobian(&out[0])
	p.r[1].AsJacobian(&out[1])
	return out
}

// isLoaded reports whether this PubNonce was constructed through GenNonce
// or ParsePubNonce, as opposed to being the zero value.
func (p *PubNonce) isLoaded() bool {
	return bytes.Equal(p.magic[:], pubNonceMagic[:])
}

// Bytes serializes the public nonce into its 66-byte wire form: two
// standard 33-byte compressed point encodings.
func (p *PubNonce) Bytes() ([PubNonceSize]byte, error) {
	var out [PubNonceSize]byte
	if !p.isLoaded() {
		return out, ErrTagMismatch
	}

	copy(out[:33], p.r[0].SerializeCompressed())
	copy(out[33:], p.r[1].SerializeCompressed())
	return out, nil
}

// ParsePubNonce parses a 66-byte wire-encoded public nonce. Both points
// must parse as valid, non-infinity, prime-order-subgroup members;
// otherwise parsing fails. A standard 33-byte compressed point encoding
// can't itself represent infinity, but the all-zero pattern is reserved
// for it on the extended-compressed wire AggNonce uses, so it's rejected
// here explicitly rather than left to fail as a generic parse error.
func ParsePubNonce(data [PubNonceSize]byte) (*PubNonce, error) {
	var pn PubNonce
	pn.magic = pubNonceMagic

	var zero33 [33]byte
	for i := 0; i < 2; i++ {
		component := data[33*i : 33*i+33]

		if bytes.Equal(component, zero33[:]) {
			return nil, ErrNoncePointInfinity
		}

		pk, err := btcec.ParsePubKey(component)
		if err != nil {
			return nil, ErrNotInSubgroup
		}
		pn.r[i] = *pk
	}

	return &pn, nil
}
