// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
)

// AggNonceSize is the length, in bytes, of a serialized aggregate nonce:
// two 33-byte extended-compressed points.
const AggNonceSize = 66

// aggNonceMagic is the 4-byte tag identifying an AggNonce's in-memory
// representation.
var aggNonceMagic = [4]byte{0xa8, 0xb7, 0xe4, 0x67}

// AggNonce is the sum of every signer's public nonce, computed by
// AggregateNonces. Unlike PubNonce, either of its two points may be the
// point at infinity -- that's a legitimate (if adversarial) outcome, so it
// uses the "extended" compressed encoding where 33 zero bytes denotes
// infinity.
type AggNonce struct {
	magic [4]byte
	s     [2]btcec.JacobianPoint
}

// isLoaded reports whether this AggNonce was constructed through
// AggregateNonces or ParseAggNonce.
func (a *AggNonce) isLoaded() bool {
	return bytes.Equal(a.magic[:], aggNonceMagic[:])
}

// serializeExt writes a single group element using the extended
// compressed encoding: 33 zero bytes if the point is the point at
// infinity, otherwise the standard compressed form.
func serializeExt(p *btcec.JacobianPoint) [33]byte {
	var out [33]byte
	pt := *p
	pt.ToAffine()
	if isInfinity(&pt) {
		return out
	}

	pk := btcec.NewPublicKey(&pt.X, &pt.Y)
	copy(out[:], pk.SerializeCompressed())
	return out
}

// isInfinity reports whether a normalized Jacobian point is the point at
// infinity: either Z == 0, or X == Y == 0, which is what ToAffine leaves
// behind for the point at infinity (it always sets Z to 1).
func isInfinity(p *btcec.JacobianPoint) bool {
	return (p.X.IsZero() && p.Y.IsZero()) || p.Z.IsZero()
}

// parseExt parses a single extended-compressed group element: the point at
// infinity if the 33 bytes are all zero, otherwise a standard compressed
// point (subgroup-checked by ParsePubKey).
func parseExt(in [33]byte) (btcec.JacobianPoint, error) {
	var zero [33]byte
	if bytes.Equal(in[:], zero[:]) {
		var infinity btcec.JacobianPoint
		infinity.Z.SetInt(0)
		return infinity, nil
	}

	pk, err := btcec.ParsePubKey(in[:])
	if err != nil {
		return btcec.JacobianPoint{}, ErrNotInSubgroup
	}

	var j btcec.JacobianPoint
	pk.AsJacobian(&j)
	return j, nil
}

// Bytes serializes the aggregate nonce into its 66-byte wire form.
func (a *AggNonce) Bytes() ([AggNonceSize]byte, error) {
	var out [AggNonceSize]byte
	if !a.isLoaded() {
		return out, ErrTagMismatch
	}

	s0 := serializeExt(&a.s[0])
	s1 := serializeExt(&a.s[1])
	copy(out[:33], s0[:])
	copy(out[33:], s1[:])
	return out, nil
}

// ParseAggNonce parses a 66-byte wire-encoded aggregate nonce. Either half
// may be the all-zero (infinity) encoding.
func ParseAggNonce(data [AggNonceSize]byte) (*AggNonce, error) {
	var an AggNonce
	an.magic = aggNonceMagic

	var buf [33]byte

	copy(buf[:], data[:33])
	s0, err := parseExt(buf)
	if err != nil {
		return nil, err
	}

	copy(buf[:], data[33:])
	s1, err := parseExt(buf)
	if err != nil {
		return nil, err
	}

	an.s[0], an.s[1] = s0, s1
	return &an, nil
}

// AggregateNonces sums an ordered collection of public nonces into a
// single aggregate nonce. The order of pubNonces does not
// affect the result since point addition is commutative, but every
// element is processed. Fails if the list is empty or if any public nonce
// entry has not been properly loaded.
func AggregateNonces(pubNonces []*PubNonce) (*AggNonce, error) {
	if len(pubNonces) == 0 {
		return nil, ErrNoPubNonces
	}

	var sum [2]btcec.JacobianPoint
	sum[0].Z.SetInt(0)
	sum[1].Z.SetInt(0)

	for _, pn := range pubNonces {
		if !pn.isLoaded() {
			return nil, ErrTagMismatch
		}

		pts := pn.points()
		for j := 0; j < 2; j++ {
			var next btcec.JacobianPoint
			btcec.AddNonConst(&sum[j], &pts[j], &next)
			sum[j] = next
		}
	}

	sum[0].ToAffine()
	sum[1].ToAffine()

	return &AggNonce{magic: aggNonceMagic, s: sum}, nil
}
