// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTaggedMidstatesMatchLabels checks that each hardcoded midstate equals
// SHA256(label)||SHA256(label) compressed as a single 64-byte block.
func TestTaggedMidstatesMatchLabels(t *testing.T) {
	tests := []struct {
		label string
		want  [8]uint32
	}{
		{"MuSig/aux", auxTagMidstate},
		{"MuSig/nonce", nonceTagMidstate},
		{"MuSig/noncecoef", noncecoefTagMidstate},
	}

	for _, tc := range tests {
		require.True(
			t, verifyTaggedMidstate(tc.label, tc.want),
			"midstate mismatch for label %q", tc.label,
		)
	}
}

// TestMidstateHashMatchesReference checks that the fast, precomputed-state
// hash and the from-scratch reference construction produce identical
// digests over the same trailing data, for each of the three tags.
func TestMidstateHashMatchesReference(t *testing.T) {
	data := []byte("some trailing data to hash")

	cases := []struct {
		name     string
		label    string
		fastSeed func() []byte
	}{
		{"aux", "MuSig/aux", func() []byte {
			h := auxTagHash()
			h.Write(data)
			return h.Sum(nil)
		}},
		{"nonce", "MuSig/nonce", func() []byte {
			h := nonceTagHash()
			h.Write(data)
			return h.Sum(nil)
		}},
		{"noncecoef", "MuSig/noncecoef", func() []byte {
			h := noncecoefTagHash()
			h.Write(data)
			return h.Sum(nil)
		}},
	}

	for _, tc := range cases {
		ref := newLabelMidstateReference(tc.label)
		ref.Write(data)
		want := ref.Sum(nil)

		got := tc.fastSeed()
		require.Equal(t, want, got, "mismatch for tag %s", tc.name)
	}
}

func TestWriteOptionalPresentVsAbsent(t *testing.T) {
	absent := nonceTagHash()
	writeOptional(absent, 1, nil)
	absentSum := absent.Sum(nil)

	present := nonceTagHash()
	writeOptional(present, 1, []byte{0xaa})
	presentSum := present.Sum(nil)

	require.NotEqual(t, absentSum, presentSum)
}
