// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/btcec/v2"
)

// secNonceMagic is the 4-byte tag prepended to a SecNonce, distinguishing
// it from the other four opaque object kinds.
var secNonceMagic = [4]byte{0x22, 0x0e, 0xdc, 0xf1}

// SecNonce is a signer's secret nonce: a pair of scalars (k0, k1) bound to
// the signer's own public key. It is produced by GenNonce/GenNonceWithCounter
// and is consumed -- exactly once -- by Sign. Unlike the magic-tag
// invalidation scheme of the underlying C library, SecNonce also tracks
// consumption with an explicit flag so a reused or never-valid nonce fails
// fast and loudly rather than silently producing zeroed scalars.
type SecNonce struct {
	magic [4]byte

	k [2]btcec.ModNScalar

	// pubKey is the signer's own public key, stored alongside the nonce so
	// Sign can verify it was generated for the keypair it's about to be
	// used with.
	pubKey *btcec.PublicKey

	// valid is false once the nonce has been consumed (by Sign, successful
	// or not) or if construction failed.
	valid bool
}

// invalidate zeros the secret scalars and marks the nonce unusable. The tag
// itself and the stored public key remain readable afterward -- mirroring
// the requirement that those bytes remain inspectable post
// invalidation -- but the scalars are gone for good.
func (s *SecNonce) invalidate() {
	s.k[0].Zero()
	s.k[1].Zero()
	s.valid = false
}

// IsValid reports whether the secret nonce can still be used to sign.
func (s *SecNonce) IsValid() bool {
	return s.valid && bytes.Equal(s.magic[:], secNonceMagic[:])
}

// load validates the tag and consumption state, returning the two secret
// scalars and the stored public key. On any failure -- or unconditionally
// once called successfully -- the nonce is invalidated, enforcing single
// use regardless of what the caller does with the returned error.
func (s *SecNonce) load() (btcec.ModNScalar, btcec.ModNScalar, *btcec.PublicKey, error) {
	ok := s.IsValid()

	k0, k1, pk := s.k[0], s.k[1], s.pubKey

	// Unconditionally invalidate: a secret nonce is used by exactly one
	// partial-sign invocation, successful or not.
	s.invalidate()

	if !ok {
		return btcec.ModNScalar{}, btcec.ModNScalar{}, nil, ErrSecNonceInvalidated
	}

	return k0, k1, pk, nil
}

// NonceGenOption configures one of the optional binding inputs consumed by
// GenNonce/GenNonceWithCounter.
type NonceGenOption func(*nonceGenOpts)

type nonceGenOpts struct {
	secretKey  *btcec.ModNScalar
	msg        *[32]byte
	aggKey     *[32]byte
	extraInput *[32]byte
}

// WithNonceSecretKeyAux binds the nonce derivation to the signer's own
// private key (adds the aux-hash randomization that
// defends against weak or reused randomness).
func WithNonceSecretKeyAux(sk *btcec.ModNScalar) NonceGenOption {
	return func(o *nonceGenOpts) {
		o.secretKey = sk
	}
}

// WithNonceMessage binds the nonce derivation to the message to be signed.
func WithNonceMessage(msg [32]byte) NonceGenOption {
	return func(o *nonceGenOpts) {
		o.msg = &msg
	}
}

// WithNonceAggregatedKey binds the nonce derivation to the x-only
// aggregate public key of the signing session.
func WithNonceAggregatedKey(aggKey [32]byte) NonceGenOption {
	return func(o *nonceGenOpts) {
		o.aggKey = &aggKey
	}
}

// WithNonceExtraInput binds the nonce derivation to arbitrary 32 bytes of
// caller-supplied extra input.
func WithNonceExtraInput(extra [32]byte) NonceGenOption {
	return func(o *nonceGenOpts) {
		o.extraInput = &extra
	}
}

// GenNonce derives a secret/public nonce pair from 32 bytes of
// caller-supplied session entropy and the signer's public key.
// sessionSecrand must be non-zero; it is zeroed in place on success to
// prevent the caller from accidentally reusing it.
func GenNonce(sessionSecrand *[32]byte, pubKey *btcec.PublicKey,
	opts ...NonceGenOption) (*SecNonce, *PubNonce, error) {

	if isZero32(sessionSecrand[:]) {
		return &SecNonce{magic: secNonceMagic}, nil, ErrZeroSessionEntropy
	}

	o := &nonceGenOpts{}
	for _, opt := range opts {
		opt(o)
	}

	secNonce, pubNonce, err := genNonceInternal(sessionSecrand[:], pubKey, o)

	// Whether or not derivation succeeded, the caller's entropy buffer is
	// burned so the same bytes can't be handed to GenNonce again.
	for i := range sessionSecrand {
		sessionSecrand[i] = 0
	}

	return secNonce, pubNonce, err
}

// GenNonceWithCounter derives a secret/public nonce pair from a
// caller-maintained, never-repeating counter instead of fresh randomness
// (a non-randomized, defense-in-depth path). The caller must
// never reuse nonrepeatingCnt for the same keypair.
func GenNonceWithCounter(nonrepeatingCnt uint64, privKey *btcec.PrivateKey,
	opts ...NonceGenOption) (*SecNonce, *PubNonce, error) {

	var sessionSecrand [32]byte
	binary.BigEndian.PutUint64(sessionSecrand[:8], nonrepeatingCnt)

	o := &nonceGenOpts{}
	for _, opt := range opts {
		opt(o)
	}
	o.secretKey = &privKey.Key

	return genNonceInternal(sessionSecrand[:], privKey.PubKey(), o)
}

// genNonceInternal implements musig_nonce_gen_internal: it derives the rand
// buffer (optionally xored with the aux-hash of the secret key), feeds the
// nonce tagged hash with the signer pubkey/agg key/message/extra input, and
// derives k0,k1 as the finalized hash with a trailing index byte.
func genNonceInternal(sessionSecrand []byte, pubKey *btcec.PublicKey,
	o *nonceGenOpts) (*SecNonce, *PubNonce, error) {

	pkBytes := pubKey.SerializeCompressed()

	rand := make([]byte, 32)
	if o.secretKey != nil {
		skBytes := o.secretKey.Bytes()

		auxHash := auxTagHash()
		auxHash.Write(sessionSecrand)
		digest := auxHash.Sum(nil)

		for i := range rand {
			rand[i] = digest[i] ^ skBytes[i]
		}
	} else {
		copy(rand, sessionSecrand)
	}

	base := nonceTagHash()
	base.Write(rand)
	writeOptional(base, 1, pkBytes)

	if o.aggKey != nil {
		writeOptional(base, 1, o.aggKey[:])
	} else {
		writeOptional(base, 1, nil)
	}

	var msgPresent byte
	if o.msg != nil {
		msgPresent = 1
	}
	base.Write([]byte{msgPresent})
	if o.msg != nil {
		writeOptional(base, 8, o.msg[:])
	}

	if o.extraInput != nil {
		writeOptional(base, 4, o.extraInput[:])
	} else {
		writeOptional(base, 4, nil)
	}

	var k [2]btcec.ModNScalar
	var nonceJ [2]btcec.JacobianPoint
	for i := 0; i < 2; i++ {
		clone := cloneSHA256(base)
		clone.Write([]byte{byte(i)})
		digest := clone.Sum(nil)

		k[i].SetByteSlice(digest)

		btcec.ScalarBaseMultNonConst(&k[i], &nonceJ[i])
	}

	nonceJ[0].ToAffine()
	nonceJ[1].ToAffine()

	pubNonce := &PubNonce{
		magic: pubNonceMagic,
		r: [2]btcec.PublicKey{
			*btcec.NewPublicKey(&nonceJ[0].X, &nonceJ[0].Y),
			*btcec.NewPublicKey(&nonceJ[1].X, &nonceJ[1].Y),
		},
	}

	secNonce := &SecNonce{
		magic:  secNonceMagic,
		k:      k,
		pubKey: pubKey,
		valid:  true,
	}

	return secNonce, pubNonce, nil
}

// GenNonces is a convenience wrapper around GenNonce: it generates fresh
// session entropy via crypto/rand internally and derives a nonce pair for
// the given public key, applying whatever optional binding inputs are
// passed in opts. Context.NewSession calls it with no options.
func GenNonces(pubKey *btcec.PublicKey, opts ...NonceGenOption) (*SecNonce, *PubNonce, error) {
	var sessionSecrand [32]byte
	if err := randRead(sessionSecrand[:]); err != nil {
		return nil, nil, err
	}

	return GenNonce(&sessionSecrand, pubKey, opts...)
}

// verifyPubKeyMatch checks that the secret nonce was generated for exactly
// the public key derived from the given keypair.
func verifyPubKeyMatch(nonceOwner, keypairPub *btcec.PublicKey) error {
	if !keyBytesEqual(nonceOwner, keypairPub) {
		return ErrKeyPairMismatch
	}
	return nil
}
