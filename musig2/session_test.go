// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func TestProcessNoncesRejectsUnloadedAggNonce(t *testing.T) {
	var blank AggNonce
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	cache, err := NewKeyAggCache([]*btcec.PublicKey{priv.PubKey()}, false)
	require.NoError(t, err)

	msg := sha256.Sum256([]byte("x"))
	_, err = ProcessNonces(&blank, msg, cache)
	require.ErrorIs(t, err, ErrTagMismatch)
}

func TestProcessNoncesDeterministic(t *testing.T) {
	priv1, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	priv2, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubs := []*btcec.PublicKey{priv1.PubKey(), priv2.PubKey()}

	_, pn1, err := GenNonces(priv1.PubKey())
	require.NoError(t, err)
	_, pn2, err := GenNonces(priv2.PubKey())
	require.NoError(t, err)

	aggNonce, err := AggregateNonces([]*PubNonce{pn1, pn2})
	require.NoError(t, err)

	cache, err := NewKeyAggCache(pubs, true)
	require.NoError(t, err)

	msg := sha256.Sum256([]byte("deterministic"))

	s1, err := ProcessNonces(aggNonce, msg, cache)
	require.NoError(t, err)
	s2, err := ProcessNonces(aggNonce, msg, cache)
	require.NoError(t, err)

	require.Equal(t, s1.FinalNonceX(), s2.FinalNonceX())
	require.Equal(t, s1.FinalNonceParity(), s2.FinalNonceParity())
}
