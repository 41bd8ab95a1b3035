// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"crypto/sha256"
	"encoding"
	"encoding/binary"
	"hash"

	"github.com/btcsuite/btcd/btcec/v2"
)

// The three domain-separated tags used by the signing core. Each is
// realized as a SHA-256 instance whose internal state is pre-initialized to
// the midstate obtained after compressing the single 64-byte block
// SHA256(tag) || SHA256(tag) -- i.e. the midstate *is* the tagged hash
// construction from BIP 340, just captured before the finalizing padding
// block so that repeated calls don't need to recompute it. This is
// bit-identical to chainhash.TaggedHash(tag, data...), just faster.
var (
	auxTagMidstate = [8]uint32{
		0xa19e884b, 0xf463fe7e, 0x2f18f9a2, 0xbeb0f9ff,
		0x0f37e8b0, 0x06ebd26f, 0xe3b243d2, 0x522fb150,
	}
	nonceTagMidstate = [8]uint32{
		0x07101b64, 0x18003414, 0x0391bc43, 0x0e6258ee,
		0x29d26b72, 0x8343937e, 0xb7a0a4fb, 0xff568a30,
	}
	noncecoefTagMidstate = [8]uint32{
		0x2c7d5a45, 0x06bf7e53, 0x89be68a6, 0x971254c0,
		0x60ac12d2, 0x72846dcd, 0x6c81212f, 0xde7a2500,
	}
)

// sha256MarshaledSize is the length of the byte blob produced by
// crypto/sha256's digest.MarshalBinary: a 4-byte magic, 32 bytes of state
// (8 big-endian uint32 words), a 64-byte pending-block buffer, and an
// 8-byte big-endian total-length counter. This layout is part of the
// standard library's documented encoding.BinaryMarshaler contract for the
// sha256 package and is stable across Go releases.
const sha256MarshaledSize = 4 + 32 + 64 + 8

// sha256Magic is the magic prefix crypto/sha256 uses for its marshaled
// digest state.
const sha256Magic = "sha\x03"

// newMidstateHash returns a hash.Hash seeded so that it behaves as though
// it had already consumed exactly one 64-byte block equal to
// SHA256(label) || SHA256(label), without actually performing that work on
// every call.
func newMidstateHash(state [8]uint32) hash.Hash {
	h := sha256.New()

	blob := make([]byte, 0, sha256MarshaledSize)
	blob = append(blob, sha256Magic...)
	for _, word := range state {
		blob = binary.BigEndian.AppendUint32(blob, word)
	}
	blob = append(blob, make([]byte, 64)...)
	blob = binary.BigEndian.AppendUint64(blob, 64)

	unmarshaler, ok := h.(encoding.BinaryUnmarshaler)
	if !ok {
		panic("musig2: crypto/sha256 digest does not implement encoding.BinaryUnmarshaler")
	}
	if err := unmarshaler.UnmarshalBinary(blob); err != nil {
		panic("musig2: invalid sha256 midstate blob: " + err.Error())
	}

	return h
}

// verifyTaggedMidstate recomputes SHA256(label)||SHA256(label) directly and
// extracts the resulting digest's registers the same way crypto/sha256
// would after one compressed block, returning whether it matches the
// hardcoded midstate. It exists purely so tests can assert that the
// hardcoded constants reproduce the label-based construction, without
// duplicating the SHA-256 compression function.
func verifyTaggedMidstate(label string, want [8]uint32) bool {
	h := newLabelMidstateReference(label)

	var got [8]uint32
	marshaler := h.(encoding.BinaryMarshaler)
	blob, err := marshaler.MarshalBinary()
	if err != nil {
		return false
	}
	if len(blob) != sha256MarshaledSize {
		return false
	}
	for i := range got {
		got[i] = binary.BigEndian.Uint32(blob[4+4*i : 8+4*i])
	}
	return got == want
}

// newLabelMidstateReference builds the reference hash state by writing the
// 64-byte block SHA256(label) || SHA256(label) into a fresh SHA-256
// instance, without any precomputed shortcut -- this is the "slow but
// obviously correct" construction that the precomputed midstates above are
// an optimization of.
func newLabelMidstateReference(label string) hash.Hash {
	tagHash := sha256.Sum256([]byte(label))

	h := sha256.New()
	h.Write(tagHash[:])
	h.Write(tagHash[:])
	return h
}

// auxTagHash returns a fresh SHA-256 state seeded with the "MuSig/aux" tag.
func auxTagHash() hash.Hash { return newMidstateHash(auxTagMidstate) }

// nonceTagHash returns a fresh SHA-256 state seeded with the "MuSig/nonce"
// tag.
func nonceTagHash() hash.Hash { return newMidstateHash(nonceTagMidstate) }

// noncecoefTagHash returns a fresh SHA-256 state seeded with the
// "MuSig/noncecoef" tag.
func noncecoefTagHash() hash.Hash { return newMidstateHash(noncecoefTagMidstate) }

// writeOptional writes either len||data (padded on the left with
// prefixSize-1 zero bytes) when data is present, or a single zero length
// byte (with the same padding) when absent. prefixSize must be in [1,8].
func writeOptional(h hash.Hash, prefixSize int, data []byte) {
	if prefixSize < 1 || prefixSize > 8 {
		panic("musig2: writeOptional prefixSize out of range")
	}

	var zero [7]byte
	h.Write(zero[:prefixSize-1])

	if data != nil {
		h.Write([]byte{byte(len(data))})
		h.Write(data)
		return
	}
	h.Write([]byte{0})
}

// bip340ChallengeTag is the BIP-340 domain separation tag for the Schnorr
// challenge hash e = H(R_x || P_x || msg).
const bip340ChallengeTag = "BIP0340/challenge"

// schnorrChallenge computes the BIP-340 Schnorr challenge scalar
// e = int(H(rx || px || msg)) mod n, given the 32-byte x-coordinate of the
// final nonce, the 32-byte message, and the 32-byte x-only aggregate
// public key.
func schnorrChallenge(rx, msg, aggPk32 [32]byte) btcec.ModNScalar {
	tagHash := sha256.Sum256([]byte(bip340ChallengeTag))

	h := sha256.New()
	h.Write(tagHash[:])
	h.Write(tagHash[:])
	h.Write(rx[:])
	h.Write(aggPk32[:])
	h.Write(msg[:])
	digest := h.Sum(nil)

	var e btcec.ModNScalar
	e.SetByteSlice(digest)
	return e
}
