// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func TestGenNonceRejectsZeroEntropy(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	var zero [32]byte
	_, _, err = GenNonce(&zero, priv.PubKey())
	require.ErrorIs(t, err, ErrZeroSessionEntropy)
}

func TestGenNonceBurnsSessionEntropy(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	var secrand [32]byte
	secrand[0] = 0x01

	_, _, err = GenNonce(&secrand, priv.PubKey())
	require.NoError(t, err)

	var zero [32]byte
	require.Equal(t, zero, secrand)
}

// TestNonceUniqueness checks that distinct session entropy yields distinct
// nonce pairs with all other inputs held equal.
func TestNonceUniqueness(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	var secrandA, secrandB [32]byte
	secrandA[0] = 0x01
	secrandB[0] = 0x02

	_, pubA, err := GenNonce(&secrandA, priv.PubKey())
	require.NoError(t, err)

	_, pubB, err := GenNonce(&secrandB, priv.PubKey())
	require.NoError(t, err)

	bytesA, err := pubA.Bytes()
	require.NoError(t, err)
	bytesB, err := pubB.Bytes()
	require.NoError(t, err)

	require.NotEqual(t, bytesA, bytesB)
}

// TestSecNonceSingleUse checks that a second Sign call against an
// already-consumed secret nonce fails.
func TestSecNonceSingleUse(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	secNonce, _, err := GenNonces(priv.PubKey())
	require.NoError(t, err)

	keySet := []*btcec.PublicKey{priv.PubKey()}
	cache, err := NewKeyAggCache(keySet, false)
	require.NoError(t, err)

	msg := sha256.Sum256([]byte("test"))

	_, pubNonce, err := GenNonces(priv.PubKey())
	require.NoError(t, err)
	aggNonce, err := AggregateNonces([]*PubNonce{pubNonce})
	require.NoError(t, err)

	session, err := ProcessNonces(aggNonce, msg, cache)
	require.NoError(t, err)

	// Consume it once via load directly to simulate a prior Sign call.
	_, _, _, err = secNonce.load()
	require.NoError(t, err)

	_, err = Sign(secNonce, priv, cache, session)
	require.ErrorIs(t, err, ErrSecNonceInvalidated)
}

func TestGenNonceWithCounterDeterministic(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	_, pub1, err := GenNonceWithCounter(7, priv)
	require.NoError(t, err)

	_, pub2, err := GenNonceWithCounter(7, priv)
	require.NoError(t, err)

	b1, err := pub1.Bytes()
	require.NoError(t, err)
	b2, err := pub2.Bytes()
	require.NoError(t, err)

	require.Equal(t, b1, b2)

	_, pub3, err := GenNonceWithCounter(8, priv)
	require.NoError(t, err)
	b3, err := pub3.Bytes()
	require.NoError(t, err)

	require.NotEqual(t, b1, b3)
}
