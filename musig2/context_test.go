// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

// TestContextFullRound drives a complete two-party round purely through the
// high-level Context/SigningSession wrapper, mirroring how a coordinator
// would actually use this package.
func TestContextFullRound(t *testing.T) {
	priv1, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	priv2, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	signers := []*btcec.PublicKey{priv1.PubKey(), priv2.PubKey()}

	ctx1, err := NewContext(priv1, signers, true)
	require.NoError(t, err)
	ctx2, err := NewContext(priv2, signers, true)
	require.NoError(t, err)

	combined := ctx1.CombinedKey()
	combined2 := ctx2.CombinedKey()
	require.True(t, combined.IsEqual(&combined2))

	sess1, err := ctx1.NewSession()
	require.NoError(t, err)
	sess2, err := ctx2.NewSession()
	require.NoError(t, err)

	done, err := sess1.RegisterPubNonce(sess2.PublicNonce())
	require.NoError(t, err)
	require.True(t, done)

	done, err = sess2.RegisterPubNonce(sess1.PublicNonce())
	require.NoError(t, err)
	require.True(t, done)

	msg := sha256.Sum256([]byte("context integration message"))

	sig1, err := sess1.Sign(msg)
	require.NoError(t, err)
	sig2, err := sess2.Sign(msg)
	require.NoError(t, err)

	done, err = sess1.CombineSig(sig2)
	require.NoError(t, err)
	require.True(t, done)

	done, err = sess2.CombineSig(sig1)
	require.NoError(t, err)
	require.True(t, done)

	require.NotNil(t, sess1.FinalSig())
	require.True(t, sess1.FinalSig().Verify(msg[:], &combined))
}

func TestNewContextRejectsSignerNotInSet(t *testing.T) {
	outsider, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	member, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	signers := []*btcec.PublicKey{member.PubKey()}

	_, err = NewContext(outsider, signers, true)
	require.ErrorIs(t, err, ErrSignerNotInKeySet)
}

// TestSessionRejectsSecondSign checks that a SigningSession's Sign method
// cannot be called twice.
func TestSessionRejectsSecondSign(t *testing.T) {
	priv1, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	priv2, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	signers := []*btcec.PublicKey{priv1.PubKey(), priv2.PubKey()}

	ctx1, err := NewContext(priv1, signers, true)
	require.NoError(t, err)

	sess1, err := ctx1.NewSession()
	require.NoError(t, err)

	ctx2, err := NewContext(priv2, signers, true)
	require.NoError(t, err)
	sess2, err := ctx2.NewSession()
	require.NoError(t, err)

	_, err = sess1.RegisterPubNonce(sess2.PublicNonce())
	require.NoError(t, err)

	msg := sha256.Sum256([]byte("reuse check"))

	_, err = sess1.Sign(msg)
	require.NoError(t, err)

	_, err = sess1.Sign(msg)
	require.ErrorIs(t, err, ErrSigningContextReuse)
}
