// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	// KeyAggTagList is the tagged hash tag used to compute the hash of the
	// list of sorted public keys.
	KeyAggTagList = []byte("KeyAgg list")

	// KeyAggTagCoeff is the tagged hash tag used to compute the key
	// aggregation coefficient for each key.
	KeyAggTagCoeff = []byte("KeyAgg coefficient")
)

// sortableKeys defines a type of slice of public keys that implements the
// sort interface for BIP 340 keys.
type sortableKeys []*btcec.PublicKey

// Less reports whether the element with index i must sort before the
// element with index j.
func (s sortableKeys) Less(i, j int) bool {
	keyIBytes := schnorr.SerializePubKey(s[i])
	keyJBytes := schnorr.SerializePubKey(s[j])

	return bytes.Compare(keyIBytes, keyJBytes) == -1
}

// Swap swaps the elements with indexes i and j.
func (s sortableKeys) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Len is the number of elements in the collection.
func (s sortableKeys) Len() int {
	return len(s)
}

// sortKeys takes a set of schnorr public keys and returns a new slice that
// is a copy of the keys sorted in lexicographical order bytes on the x-only
// pubkey serialization.
func sortKeys(keys []*btcec.PublicKey) []*btcec.PublicKey {
	keySet := make(sortableKeys, len(keys))
	copy(keySet, keys)
	if sort.IsSorted(keySet) {
		return keySet
	}

	sort.Sort(keySet)
	return keySet
}

// keyHashFingerprint computes the tagged hash of the series of (sorted)
// public keys passed as input:
//   - H(tag=KeyAgg list, pk1 || pk2..)
func keyHashFingerprint(keys []*btcec.PublicKey, sorted bool) []byte {
	if sorted {
		keys = sortKeys(keys)
	}

	keyAggBuf := make([]byte, 32*len(keys))
	keyBytes := bytes.NewBuffer(keyAggBuf[0:0])
	for _, key := range keys {
		keyBytes.Write(schnorr.SerializePubKey(key))
	}

	h := chainhash.TaggedHash(KeyAggTagList, keyBytes.Bytes())
	return h[:]
}

// keyBytesEqual returns true if two keys are the same from the PoV of BIP
// 340's 32-byte x-only public keys.
func keyBytesEqual(a, b *btcec.PublicKey) bool {
	return bytes.Equal(
		schnorr.SerializePubKey(a),
		schnorr.SerializePubKey(b),
	)
}

// aggregationCoefficient computes the key aggregation coefficient for the
// specified target key:
//   - H(tag=KeyAgg coefficient, keyHashFingerprint(pks) || pk)
//
// the second unique key in the set is always assigned a coefficient of
// exactly one, which saves a scalar multiplication during both aggregation
// and signing.
func aggregationCoefficient(keysHash []byte, targetKey *btcec.PublicKey,
	keySet []*btcec.PublicKey, secondKeyIdx int) *btcec.ModNScalar {

	var mu btcec.ModNScalar

	if secondKeyIdx != -1 && keyBytesEqual(keySet[secondKeyIdx], targetKey) {
		return mu.SetInt(1)
	}

	var coefficientBytes [64]byte
	copy(coefficientBytes[:], keysHash)
	copy(coefficientBytes[32:], schnorr.SerializePubKey(targetKey))

	muHash := chainhash.TaggedHash(KeyAggTagCoeff, coefficientBytes[:])
	mu.SetByteSlice(muHash[:])

	return &mu
}

// secondUniqueKeyIndex returns the index of the second unique key. If all
// keys are the same, then a value of -1 is returned.
func secondUniqueKeyIndex(keySet []*btcec.PublicKey) int {
	for i := range keySet {
		if !keyBytesEqual(keySet[i], keySet[0]) {
			return i
		}
	}

	return -1
}

// KeyTweakDesc describes a single tweak to be applied to an aggregate
// public key, following the BIP-341/BIP-327 x-only tweak accumulation
// rules.
type KeyTweakDesc struct {
	// Tweak is the 32-byte tweak to apply.
	Tweak [32]byte

	// IsXOnly denotes whether this tweak should be applied in "x-only"
	// mode, meaning the aggregate key is first normalized to have an even
	// y-coordinate before the tweak is added. Taproot output-key tweaks
	// are always x-only.
	IsXOnly bool
}

// KeyAggOption is a functional option argument that allows callers to
// specify more or less information that has been pre-computed to the main
// routine.
type KeyAggOption func(*keyAggOption)

// keyAggOption houses the set of functional options that modify key
// aggregation.
type keyAggOption struct {
	keyHash        []byte
	uniqueKeyIndex *int
	tweaks         []KeyTweakDesc
}

// WithKeysHash allows key aggregation to be optimized, by allowing the
// caller to specify the hash of all the keys.
func WithKeysHash(keyHash []byte) KeyAggOption {
	return func(o *keyAggOption) {
		o.keyHash = keyHash
	}
}

// WithUniqueKeyIndex allows the caller to specify the index of the second
// unique key.
func WithUniqueKeyIndex(idx int) KeyAggOption {
	return func(o *keyAggOption) {
		i := idx
		o.uniqueKeyIndex = &i
	}
}

// WithKeyTweaks specifies a series of tweaks to apply to the aggregate
// public key as it is constructed.
func WithKeyTweaks(tweaks ...KeyTweakDesc) KeyAggOption {
	return func(o *keyAggOption) {
		o.tweaks = tweaks
	}
}

func defaultKeyAggOptions() *keyAggOption {
	return &keyAggOption{}
}

// KeyAggCache is the aggregate-key cache consumed by the rest of the
// signing core: the aggregate public point Q, the accumulated tweak
// parity flag, and the accumulated tweak scalar. It is built by
// NewKeyAggCache and modified in place only by ApplyTweak; the signing
// functions only read it.
type KeyAggCache struct {
	// q is the aggregate public key point, which may have either parity
	// of y-coordinate -- parityAcc tracks the net sign flips applied by
	// tweaking so that signers can compensate.
	q btcec.JacobianPoint

	// parityAcc is the accumulated tweak parity flag ("g_acc" in BIP 327,
	// represented here as a boolean since the multiplicative accumulator
	// only ever takes the values 1 or -1 mod n).
	parityAcc bool

	// tweak is the accumulated tweak scalar ("tacc" in BIP 327).
	tweak btcec.ModNScalar

	keysHash       [32]byte
	uniqueKeyIndex int

	// keys is the exact, ordered set of signer keys used to compute q --
	// i.e. post-sort when shouldSort was set. KeyAggCoefficient must index
	// into this slice (not whatever order a caller happens to pass in
	// later), since uniqueKeyIndex was derived against this ordering.
	keys []*btcec.PublicKey
}

// NewKeyAggCache performs MuSig2 key aggregation over the passed set of
// signer public keys, optionally sorting them first, and returns the
// resulting cache. Any tweaks supplied via WithKeyTweaks are applied in
// order immediately after aggregation.
func NewKeyAggCache(keys []*btcec.PublicKey, shouldSort bool,
	keyOpts ...KeyAggOption) (*KeyAggCache, error) {

	if len(keys) == 0 {
		return nil, ErrNoSigners
	}

	opts := defaultKeyAggOptions()
	for _, option := range keyOpts {
		option(opts)
	}

	if shouldSort {
		keys = sortKeys(keys)
	}

	if opts.keyHash == nil {
		opts.keyHash = keyHashFingerprint(keys, false)
	}
	if opts.uniqueKeyIndex == nil {
		idx := secondUniqueKeyIndex(keys)
		opts.uniqueKeyIndex = &idx
	}

	var finalKeyJ btcec.JacobianPoint
	for _, key := range keys {
		var keyJ btcec.JacobianPoint
		key.AsJacobian(&keyJ)

		a := aggregationCoefficient(
			opts.keyHash, key, keys, *opts.uniqueKeyIndex,
		)

		var tweakedKeyJ btcec.JacobianPoint
		btcec.ScalarMultNonConst(a, &keyJ, &tweakedKeyJ)

		btcec.AddNonConst(&finalKeyJ, &tweakedKeyJ, &finalKeyJ)
	}
	finalKeyJ.ToAffine()

	cache := &KeyAggCache{
		q:              finalKeyJ,
		uniqueKeyIndex: *opts.uniqueKeyIndex,
		keys:           append([]*btcec.PublicKey(nil), keys...),
	}
	copy(cache.keysHash[:], opts.keyHash)

	for _, tweak := range opts.tweaks {
		if err := cache.ApplyTweak(tweak); err != nil {
			return nil, err
		}
	}

	return cache, nil
}

// ApplyTweak updates the cache in place by applying a single tweak,
// following BIP 327's ApplyTweak:
//
//	g := 1; if tweak.IsXOnly && !even(Q.y) { g := -1 }
//	Q'    := g*Q + tweak*G
//	gacc' := g * gacc
//	tacc' := tweak + g*tacc
func (c *KeyAggCache) ApplyTweak(tweak KeyTweakDesc) error {
	var tweakScalar btcec.ModNScalar
	if overflow := tweakScalar.SetByteSlice(tweak.Tweak[:]); overflow {
		return ErrScalarOverflow
	}

	c.q.Y.Normalize()
	negate := tweak.IsXOnly && c.q.Y.IsOdd()

	g := new(btcec.ModNScalar).SetInt(1)
	if negate {
		g.SetInt(1).Negate()
	}

	var scaledQ btcec.JacobianPoint
	btcec.ScalarMultNonConst(g, &c.q, &scaledQ)

	var tweakPointJ btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&tweakScalar, &tweakPointJ)

	var newQ btcec.JacobianPoint
	btcec.AddNonConst(&scaledQ, &tweakPointJ, &newQ)
	newQ.ToAffine()
	c.q = newQ

	if negate {
		c.parityAcc = !c.parityAcc
	}

	gTacc := new(btcec.ModNScalar).Mul2(g, &c.tweak)
	c.tweak = *gTacc.Add(&tweakScalar)

	return nil
}

// FinalKey returns the aggregate public key Q with its actual
// y-coordinate, which may be odd. Its x-coordinate is the BIP-340 x-only
// aggregate key (see FinalKeyXOnly).
func (c *KeyAggCache) FinalKey() *btcec.PublicKey {
	q := c.q
	q.ToAffine()
	return btcec.NewPublicKey(&q.X, &q.Y)
}

// FinalKeyXOnly returns the 32-byte x-only serialization of the aggregate
// public key, as used in BIP-340 challenge hashes and schnorr verification.
func (c *KeyAggCache) FinalKeyXOnly() [32]byte {
	var out [32]byte
	q := c.q
	q.X.Normalize()
	copy(out[:], q.X.Bytes()[:])
	return out
}

// ParityAcc returns the accumulated tweak parity flag.
func (c *KeyAggCache) ParityAcc() bool {
	return c.parityAcc
}

// Tweak returns the accumulated tweak scalar.
func (c *KeyAggCache) Tweak() btcec.ModNScalar {
	return c.tweak
}

// Point returns the internal aggregate point Q, possibly with odd
// y-coordinate.
func (c *KeyAggCache) Point() btcec.JacobianPoint {
	q := c.q
	q.ToAffine()
	return q
}

// KeyAggCoefficient computes the KeyAgg coefficient mu for the given
// signer key against this cache's key set fingerprint. It indexes the
// second-unique-key shortcut against the cache's own stored key ordering
// (the ordering q was actually built from), not whatever order the caller
// happens to hold its keys in.
func (c *KeyAggCache) KeyAggCoefficient(key *btcec.PublicKey) *btcec.ModNScalar {
	return aggregationCoefficient(
		c.keysHash[:], key, c.keys, c.uniqueKeyIndex,
	)
}

// AggregateKeys takes a list of possibly unsorted keys and returns the
// aggregated public key as specified by the MuSig2 key aggregation
// algorithm (as FinalKey returns it), along with the cache used to derive
// it and the keys hash. Unless a WithKeysHash option is supplied, the keys
// hash is derived from keys.
func AggregateKeys(keys []*btcec.PublicKey, shouldSort bool,
	keyOpts ...KeyAggOption) (*btcec.PublicKey, *KeyAggCache, []byte, error) {

	cache, err := NewKeyAggCache(keys, shouldSort, keyOpts...)
	if err != nil {
		return nil, nil, nil, err
	}

	return cache.FinalKey(), cache, cache.keysHash[:], nil
}
