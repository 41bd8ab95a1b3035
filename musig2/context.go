// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Context is a managed signing context for musig2. It takes care of things
// like securely generating secret nonces, aggregating keys and nonces, etc.
type Context struct {
	// signingKey is the key we'll use for signing.
	signingKey *btcec.PrivateKey

	// pubKey is our public key.
	pubKey *btcec.PublicKey

	// keySet is the set of all signers.
	keySet []*btcec.PublicKey

	// cache is the aggregate-key cache computed over keySet.
	cache *KeyAggCache

	// tweaks is a set of optional tweak values that affect the final
	// combined public key.
	tweaks []KeyTweakDesc

	// shouldSort keeps track of if the public keys should be sorted before
	// any operations.
	shouldSort bool
}

// ContextOption is a functional option argument that allows callers to modify
// how musig2 signing is done within a context.
type ContextOption func(*contextOptions)

// contextOptions houses the set of functional options that can be used to
// configure the musig2 signing protocol.
type contextOptions struct {
	tweaks []KeyTweakDesc
}

// defaultContextOptions returns the default context options.
func defaultContextOptions() *contextOptions {
	return &contextOptions{}
}

// WithTweakedContext specifies that within the context, the aggregated public
// key should be tweaked with the specified tweaks.
func WithTweakedContext(tweaks []KeyTweakDesc) ContextOption {
	return func(o *contextOptions) {
		o.tweaks = tweaks
	}
}

// NewContext creates a new signing context with the passed signing key and
// the full set of signer public keys, which must include the signing key's
// own public key (ErrSignerNotInKeySet otherwise).
//
// NOTE: This struct should be used over the raw Sign/Verify/AggregateSignatures
// API whenever possible.
func NewContext(signingKey *btcec.PrivateKey,
	signers []*btcec.PublicKey, shouldSort bool,
	ctxOpts ...ContextOption) (*Context, error) {

	opts := defaultContextOptions()
	for _, option := range ctxOpts {
		option(opts)
	}

	pubKey := signingKey.PubKey()

	var keyFound bool
	for _, key := range signers {
		if keyBytesEqual(key, pubKey) {
			keyFound = true
			break
		}
	}
	if !keyFound {
		return nil, ErrSignerNotInKeySet
	}

	cache, err := NewKeyAggCache(
		signers, shouldSort, WithKeyTweaks(opts.tweaks...),
	)
	if err != nil {
		return nil, err
	}

	return &Context{
		signingKey: signingKey,
		pubKey:     pubKey,
		keySet:     signers,
		cache:      cache,
		tweaks:     opts.tweaks,
		shouldSort: shouldSort,
	}, nil
}

// CombinedKey returns the combined public key that will be used to generate
// multi-signatures against.
func (c *Context) CombinedKey() btcec.PublicKey {
	return *c.cache.FinalKey()
}

// PubKey returns the public key of the signer of this session.
func (c *Context) PubKey() btcec.PublicKey {
	return *c.pubKey
}

// SigningKeys returns the set of keys used for signing.
func (c *Context) SigningKeys() []*btcec.PublicKey {
	keys := make([]*btcec.PublicKey, len(c.keySet))
	copy(keys, c.keySet)

	return keys
}

// SigningSession represents a musig2 signing session. A new instance should
// be created each time a multi-signature is needed. It handles nonce
// management, incremental partial-signature accumulation, and final
// signature combination. Errors are returned when unsafe behavior such as
// nonce re-use is attempted.
//
// NOTE: This struct should be used over the raw Sign/Verify/AggregateSignatures
// API whenever possible.
type SigningSession struct {
	ctx *Context

	localSecNonce *SecNonce
	localPubNonce *PubNonce

	pubNonces []*PubNonce

	aggNonce *AggNonce
	session  *Session

	msg [32]byte

	ourSig *PartialSig
	sigs   []*PartialSig

	finalSig *schnorr.Signature
}

// NewSession creates a new musig2 signing session.
func (c *Context) NewSession() (*SigningSession, error) {
	secNonce, pubNonce, err := GenNonces(c.pubKey)
	if err != nil {
		return nil, err
	}

	s := &SigningSession{
		ctx:           c,
		localSecNonce: secNonce,
		localPubNonce: pubNonce,
		pubNonces:     make([]*PubNonce, 0, len(c.keySet)),
		sigs:          make([]*PartialSig, 0, len(c.keySet)),
	}
	s.pubNonces = append(s.pubNonces, pubNonce)

	return s, nil
}

// PublicNonce returns the public nonce for this signer. This should be sent
// to other parties before signing begins, so they can compute the aggregated
// public nonce.
func (s *SigningSession) PublicNonce() *PubNonce {
	return s.localPubNonce
}

// NumRegisteredNonces returns the total number of nonces that have been
// registered so far.
func (s *SigningSession) NumRegisteredNonces() int {
	return len(s.pubNonces)
}

// RegisterPubNonce should be called for each public nonce from the set of
// signers. This method returns true once all the public nonces have been
// accounted for.
func (s *SigningSession) RegisterPubNonce(nonce *PubNonce) (bool, error) {
	haveAllNonces := len(s.pubNonces) == len(s.ctx.keySet)
	if haveAllNonces {
		return false, ErrAlredyHaveAllNonces
	}

	s.pubNonces = append(s.pubNonces, nonce)
	haveAllNonces = len(s.pubNonces) == len(s.ctx.keySet)

	if haveAllNonces {
		aggNonce, err := AggregateNonces(s.pubNonces)
		if err != nil {
			return false, err
		}
		s.aggNonce = aggNonce
	}

	return haveAllNonces, nil
}

// Sign generates a partial signature for the target message, using the
// target context. If this method is called more than once per session, then
// an error is returned, as that means a nonce was re-used.
func (s *SigningSession) Sign(msg [32]byte) (*PartialSig, error) {
	s.msg = msg

	switch {
	// If no local secret nonce is present, then this means we already
	// signed, so we'll return an error to prevent nonce re-use.
	case s.localSecNonce == nil:
		return nil, ErrSigningContextReuse

	// We also need to make sure we have the combined nonce, otherwise
	// this function was called too early.
	case s.aggNonce == nil:
		return nil, ErrCombinedNonceUnavailable
	}

	session, err := ProcessNonces(s.aggNonce, msg, s.ctx.cache)
	if err != nil {
		s.localSecNonce = nil
		return nil, err
	}
	s.session = session

	partialSig, err := Sign(
		s.localSecNonce, s.ctx.signingKey, s.ctx.cache, session,
	)

	// Now that we've generated our signature, we'll make sure to blank
	// out our signing nonce, whether or not signing succeeded.
	s.localSecNonce = nil

	if err != nil {
		return nil, err
	}

	s.ourSig = partialSig
	s.sigs = append(s.sigs, partialSig)

	return partialSig, nil
}

// CombineSig buffers a partial signature received from a signing party. The
// method returns true once all the signatures are available, and can be
// combined into the final signature.
func (s *SigningSession) CombineSig(sig *PartialSig) (bool, error) {
	haveAllSigs := len(s.sigs) == len(s.ctx.keySet)
	if haveAllSigs {
		return false, ErrAlredyHaveAllSigs
	}

	s.sigs = append(s.sigs, sig)
	haveAllSigs = len(s.sigs) == len(s.ctx.keySet)

	if haveAllSigs {
		finalSig, err := AggregateSignatures(s.session, s.sigs)
		if err != nil {
			return false, err
		}

		combined := s.ctx.cache.FinalKey()
		if !finalSig.Verify(s.msg[:], combined) {
			return false, ErrFinalSigInvalid
		}

		s.finalSig = finalSig
	}

	return haveAllSigs, nil
}

// FinalSig returns the final combined multi-signature, if present.
func (s *SigningSession) FinalSig() *schnorr.Signature {
	return s.finalSig
}
