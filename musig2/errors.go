// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import "fmt"

var (
	// ErrSignerNotInKeySet is returned when a the private key for a signer
	// isn't included in the set of signing public keys.
	ErrSignerNotInKeySet = fmt.Errorf("signing key is not found in key" +
		" set")

	// ErrAlredyHaveAllNonces is called when RegisterPubNonce is called too
	// many times for a given signing session.
	ErrAlredyHaveAllNonces = fmt.Errorf("already have all nonces")

	// ErrAlredyHaveAllSigs is called when CombineSig is called too many
	// times for a given signing session.
	ErrAlredyHaveAllSigs = fmt.Errorf("already have all sigs")

	// ErrSigningContextReuse is returned if a user attempts to sign using
	// the same signing context more than once.
	ErrSigningContextReuse = fmt.Errorf("nonce already used")

	// ErrFinalSigInvalid is returned when the combined signature turns out
	// to be invalid, and by Verify when a partial signature fails
	// verification.
	ErrFinalSigInvalid = fmt.Errorf("final signature is invalid")

	// ErrCombinedNonceUnavailable is returned when a caller attempts to
	// sign a partial signature, without first having collected all the
	// required combined nonces.
	ErrCombinedNonceUnavailable = fmt.Errorf("missing combined nonce")

	// ErrTagMismatch is returned when an opaque object (PubNonce, AggNonce,
	// Session, PartialSig) is used while its 4-byte tag doesn't match the
	// object kind's magic, e.g. a zero value not built by this package.
	// A SecNonce with a bad tag yields ErrSecNonceInvalidated instead.
	ErrTagMismatch = fmt.Errorf("object tag does not match expected kind")

	// ErrSecNonceInvalidated is returned when a SecNonce is used a second
	// time after having already been consumed by Sign, or when it was never
	// valid (such as the one GenNonce returns for all-zero entropy).
	ErrSecNonceInvalidated = fmt.Errorf("secret nonce already used or invalid")

	// ErrZeroSessionEntropy is returned when the caller-supplied session
	// randomness to GenNonce is all zero.
	ErrZeroSessionEntropy = fmt.Errorf("session randomness must be non-zero")

	// ErrNoncePointInfinity is returned when a parsed public nonce
	// component is the point at infinity, which is disallowed for
	// (non-aggregate) public nonces.
	ErrNoncePointInfinity = fmt.Errorf("public nonce point is the point at infinity")

	// ErrNotInSubgroup is returned when a parsed point fails the
	// prime-order subgroup membership check.
	ErrNotInSubgroup = fmt.Errorf("point is not a member of the prime order subgroup")

	// ErrScalarOverflow is returned when a parsed 32-byte scalar is not
	// strictly less than the group order.
	ErrScalarOverflow = fmt.Errorf("scalar overflows group order")

	// ErrNoPubNonces is returned when AggregateNonces is called with an
	// empty list of public nonces.
	ErrNoPubNonces = fmt.Errorf("must supply at least one public nonce to aggregate")

	// ErrNoPartialSigs is returned when AggregateSignatures is called with
	// an empty list of partial signatures.
	ErrNoPartialSigs = fmt.Errorf("must supply at least one partial signature to aggregate")

	// ErrNoSigners is returned when key aggregation is attempted with an
	// empty signer set.
	ErrNoSigners = fmt.Errorf("must supply at least one signer public key")

	// ErrKeyPairMismatch is returned by Sign when the public key stored in
	// the secret nonce doesn't match the public key derived from the
	// signing keypair.
	ErrKeyPairMismatch = fmt.Errorf("secret nonce public key does not match signing key")
)
