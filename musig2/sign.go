// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// PartialSigSize is the length, in bytes, of a serialized partial
// signature: a single 32-byte scalar.
const PartialSigSize = 32

// partialSigMagic is the 4-byte tag identifying a PartialSig's in-memory
// representation.
var partialSigMagic = [4]byte{0xeb, 0xfb, 0x1a, 0x32}

// PartialSig is a single signer's contribution to the joint signature
// Summed with every other signer's partial and the session's
// tweak contribution, it yields the final Schnorr s value.
type PartialSig struct {
	magic [4]byte
	s     btcec.ModNScalar
}

func (p *PartialSig) isLoaded() bool {
	return bytes.Equal(p.magic[:], partialSigMagic[:])
}

// Bytes serializes the partial signature to its 32-byte big-endian wire
// form.
func (p *PartialSig) Bytes() ([PartialSigSize]byte, error) {
	var out [PartialSigSize]byte
	if !p.isLoaded() {
		return out, ErrTagMismatch
	}
	copy(out[:], p.s.Bytes()[:])
	return out, nil
}

// ParsePartialSig parses a 32-byte big-endian scalar. Overflowing scalars
// (>= group order) are rejected; on failure the caller's destination
// should be discarded rather than reused.
func ParsePartialSig(data [PartialSigSize]byte) (*PartialSig, error) {
	var s btcec.ModNScalar
	if overflow := s.SetByteSlice(data[:]); overflow {
		return nil, ErrScalarOverflow
	}

	return &PartialSig{magic: partialSigMagic, s: s}, nil
}

// Sign is the Partial Signer. It consumes secNonce -- the
// nonce is invalidated immediately and unconditionally, before any other
// validation, so that a secret nonce is used by at most one Sign call
// regardless of outcome.
func Sign(secNonce *SecNonce, privKey *btcec.PrivateKey,
	cache *KeyAggCache, session *Session) (*PartialSig, error) {

	k0, k1, noncePub, err := secNonce.load()
	if err != nil {
		return nil, err
	}

	if !session.isLoaded() {
		return nil, ErrTagMismatch
	}

	keypairPub := privKey.PubKey()
	if err := verifyPubKeyMatch(noncePub, keypairPub); err != nil {
		return nil, err
	}

	sk := privKey.Key

	q := cache.Point()
	q.Y.Normalize()
	if q.Y.IsOdd() != cache.ParityAcc() {
		sk.Negate()
	}

	mu := cache.KeyAggCoefficient(keypairPub)
	sk.Mul(mu)

	if session.finalNonceParity {
		k0.Negate()
		k1.Negate()
	}

	// s := e*sk + k0 + b*k1
	s := new(btcec.ModNScalar).Mul2(&session.e, &sk)
	k1.Mul(&session.b)
	k0.Add(&k1)
	s.Add(&k0)

	sk.Zero()
	k0.Zero()
	k1.Zero()

	return &PartialSig{magic: partialSigMagic, s: *s}, nil
}

// Verify is the Partial Verifier. It checks one signer's
// partial signature against that signer's public nonce and public key,
// the aggregate-key cache, and the processed session, as a group-law
// equation: -s*G + e'*P + R' == O.
func Verify(partialSig *PartialSig, pubNonce *PubNonce, signerPub *btcec.PublicKey,
	cache *KeyAggCache, session *Session) error {

	if !session.isLoaded() {
		return ErrTagMismatch
	}
	if !pubNonce.isLoaded() {
		return ErrTagMismatch
	}
	if !partialSig.isLoaded() {
		return ErrTagMismatch
	}

	rPrime := effectiveNonce(pubNonce.points(), &session.b)

	mu := cache.KeyAggCoefficient(signerPub)
	e := new(btcec.ModNScalar).Mul2(&session.e, mu)

	q := cache.Point()
	q.Y.Normalize()
	if q.Y.IsOdd() != cache.ParityAcc() {
		e.Negate()
	}

	negS := partialSig.s
	negS.Negate()

	var pkj btcec.JacobianPoint
	signerPub.AsJacobian(&pkj)

	var tmp btcec.JacobianPoint
	btcec.ScalarMultNonConst(e, &pkj, &tmp)

	var negSG btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&negS, &negSG)
	btcec.AddNonConst(&tmp, &negSG, &tmp)

	if session.finalNonceParity {
		rPrime.Y.Normalize()
		rPrime.Y.Negate(1)
		rPrime.Y.Normalize()
	}

	var result btcec.JacobianPoint
	btcec.AddNonConst(&tmp, &rPrime, &result)
	result.ToAffine()

	if !isInfinity(&result) {
		return ErrFinalSigInvalid
	}
	return nil
}

// AggregateSignatures is the Final Aggregator. It sums every
// partial signature with the session's tweak contribution and emits a
// 64-byte BIP-340 Schnorr signature R_x || s_total. No verification of the
// individual partials is performed here -- callers that need that
// assurance should call Verify on each partial beforehand.
//
// As in the reference implementation, the number of partial signatures
// supplied is not checked against the number of signers in the session;
// callers are responsible for supplying exactly the partials that belong
// to it.
func AggregateSignatures(session *Session, partialSigs []*PartialSig) (*schnorr.Signature, error) {
	if !session.isLoaded() {
		return nil, ErrTagMismatch
	}
	if len(partialSigs) == 0 {
		return nil, ErrNoPartialSigs
	}

	sTotal := session.sTweak
	for _, sig := range partialSigs {
		if !sig.isLoaded() {
			return nil, ErrTagMismatch
		}
		sTotal.Add(&sig.s)
	}

	var rx btcec.FieldVal
	if overflow := rx.SetByteSlice(session.finalNonceX[:]); overflow {
		return nil, ErrScalarOverflow
	}

	return schnorr.NewSignature(&rx, &sTotal), nil
}

// Serialize64 returns the raw 64-byte R_x || s encoding of a final
// signature, matching the R_x || s wire format directly
// (equivalent to sig.Serialize() from the schnorr package).
func Serialize64(sig *schnorr.Signature) [64]byte {
	var out [64]byte
	copy(out[:], sig.Serialize())
	return out
}
