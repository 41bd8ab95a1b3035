// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
)

// sessionMagic is the 4-byte tag identifying a Session's in-memory
// representation.
var sessionMagic = [4]byte{0x9d, 0xed, 0xe9, 0x17}

// Session is the immutable, signer-independent result of processing an
// aggregate nonce against a message and an aggregate-key cache. The same
// Session is reused by every signer producing a partial signature for a
// given joint signature, and by every verifier checking one.
type Session struct {
	magic [4]byte

	// finalNonceParity is the y-parity of the final nonce R.
	finalNonceParity bool

	// finalNonceX is the 32-byte x-coordinate of the final nonce R.
	finalNonceX [32]byte

	// b is the binding coefficient.
	b btcec.ModNScalar

	// e is the BIP-340 Schnorr challenge.
	e btcec.ModNScalar

	// sTweak is the tweak contribution to be added to the summed partial
	// signatures.
	sTweak btcec.ModNScalar
}

// isLoaded reports whether this Session was constructed through
// ProcessNonces.
func (s *Session) isLoaded() bool {
	return bytes.Equal(s.magic[:], sessionMagic[:])
}

// FinalNonceX returns the 32-byte x-coordinate of the session's final
// nonce R.
func (s *Session) FinalNonceX() [32]byte {
	return s.finalNonceX
}

// FinalNonceParity returns the y-parity of the session's final nonce R.
func (s *Session) FinalNonceParity() bool {
	return s.finalNonceParity
}

// effectiveNonce computes nonce[0] + b*nonce[1] for the given pair of
// points and binding coefficient, matching the "effective_nonce" helper in
// the reference implementation. Used both when deriving the final nonce
// from the aggregate nonce and when reconstructing a single signer's
// effective nonce during partial-signature verification.
func effectiveNonce(pts [2]btcec.JacobianPoint, b *btcec.ModNScalar) btcec.JacobianPoint {
	var scaled btcec.JacobianPoint
	btcec.ScalarMultNonConst(b, &pts[1], &scaled)

	var out btcec.JacobianPoint
	btcec.AddNonConst(&scaled, &pts[0], &out)
	return out
}

// ProcessNonces is the Session Processor. Given the aggregate
// nonce, the 32-byte message, and the aggregate-key cache, it derives the
// binding coefficient b, the final nonce R (substituting the generator G
// if the effective aggregate nonce is the point at infinity), R's parity,
// the BIP-340 challenge e, and the tweak contribution sTweak.
func ProcessNonces(aggNonce *AggNonce, msg [32]byte,
	cache *KeyAggCache) (*Session, error) {

	if !aggNonce.isLoaded() {
		return nil, ErrTagMismatch
	}

	aggPk32 := cache.FinalKeyXOnly()

	noncehash := noncecoefTagHash()
	s0 := serializeExt(&aggNonce.s[0])
	s1 := serializeExt(&aggNonce.s[1])
	noncehash.Write(s0[:])
	noncehash.Write(s1[:])
	noncehash.Write(aggPk32[:])
	noncehash.Write(msg[:])
	bBytes := noncehash.Sum(nil)

	var b btcec.ModNScalar
	b.SetByteSlice(bBytes)

	finalNonceJ := effectiveNonce(aggNonce.s, &b)
	finalNonceJ.ToAffine()

	if isInfinity(&finalNonceJ) {
		btcec.ScalarBaseMultNonConst(new(btcec.ModNScalar).SetInt(1), &finalNonceJ)
		finalNonceJ.ToAffine()
	}

	finalNonceJ.X.Normalize()
	finalNonceJ.Y.Normalize()

	var finalNonceX [32]byte
	copy(finalNonceX[:], finalNonceJ.X.Bytes()[:])
	finalNonceParity := finalNonceJ.Y.IsOdd()

	e := schnorrChallenge(finalNonceX, msg, aggPk32)

	var sTweak btcec.ModNScalar
	tweak := cache.Tweak()
	if !tweak.IsZero() {
		eTmp := new(btcec.ModNScalar).Mul2(&e, &tweak)

		q := cache.Point()
		q.Y.Normalize()
		if q.Y.IsOdd() {
			eTmp.Negate()
		}
		sTweak = *eTmp
	}

	return &Session{
		magic:            sessionMagic,
		finalNonceParity: finalNonceParity,
		finalNonceX:      finalNonceX,
		b:                b,
		e:                e,
		sTweak:           sTweak,
	}, nil
}
