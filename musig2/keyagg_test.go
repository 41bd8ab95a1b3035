// Copyright (c) 2013-2022 The btcsuite developers

package musig2

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func genKeys(t *testing.T, n int) ([]*btcec.PrivateKey, []*btcec.PublicKey) {
	t.Helper()

	privs := make([]*btcec.PrivateKey, n)
	pubs := make([]*btcec.PublicKey, n)
	for i := 0; i < n; i++ {
		priv, err := btcec.NewPrivateKey()
		require.NoError(t, err)

		privs[i] = priv
		pubs[i] = priv.PubKey()
	}

	return privs, pubs
}

func TestAggregateKeysDeterministic(t *testing.T) {
	_, pubs := genKeys(t, 3)

	key1, cache1, hash1, err := AggregateKeys(pubs, true)
	require.NoError(t, err)

	key2, cache2, hash2, err := AggregateKeys(pubs, true)
	require.NoError(t, err)

	require.True(t, key1.IsEqual(key2))
	require.Equal(t, hash1, hash2)
	require.Equal(t, cache1.FinalKeyXOnly(), cache2.FinalKeyXOnly())
}

func TestAggregateKeysOrderIndependent(t *testing.T) {
	_, pubs := genKeys(t, 4)

	reversed := make([]*btcec.PublicKey, len(pubs))
	for i, p := range pubs {
		reversed[len(pubs)-1-i] = p
	}

	key1, _, _, err := AggregateKeys(pubs, true)
	require.NoError(t, err)

	key2, _, _, err := AggregateKeys(reversed, true)
	require.NoError(t, err)

	require.True(t, key1.IsEqual(key2))
}

func TestApplyTweakChangesKey(t *testing.T) {
	_, pubs := genKeys(t, 2)

	cache, err := NewKeyAggCache(pubs, true)
	require.NoError(t, err)

	untweaked := cache.FinalKey()

	var tweak [32]byte
	tweak[31] = 0x07

	err = cache.ApplyTweak(KeyTweakDesc{Tweak: tweak, IsXOnly: true})
	require.NoError(t, err)

	tweaked := cache.FinalKey()
	require.False(t, untweaked.IsEqual(tweaked))
	require.False(t, cache.Tweak().IsZero())
}

func TestSecondUniqueKeyIndexAllEqual(t *testing.T) {
	_, pubs := genKeys(t, 1)

	keySet := []*btcec.PublicKey{pubs[0], pubs[0], pubs[0]}
	require.Equal(t, -1, secondUniqueKeyIndex(keySet))
}

func TestAggregationCoefficientSecondKeyIsOne(t *testing.T) {
	_, pubs := genKeys(t, 3)
	sorted := sortKeys(pubs)

	idx := secondUniqueKeyIndex(sorted)
	require.NotEqual(t, -1, idx)

	keysHash := keyHashFingerprint(sorted, false)
	mu := aggregationCoefficient(keysHash, sorted[idx], sorted, idx)

	var one btcec.ModNScalar
	one.SetInt(1)
	require.True(t, mu.Equals(&one))
}
