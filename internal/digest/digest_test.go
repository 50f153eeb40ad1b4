package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKnownVectors(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		want string
	}{
		{SHA1, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{SHA256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{SHA3_256, "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"},
	}

	for _, tt := range tests {
		t.Run(string(tt.alg), func(t *testing.T) {
			got, err := Hash(tt.alg, []byte("abc"), Hex)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHashLengths(t *testing.T) {
	sizes := map[Algorithm]int{
		SHA1: 20, SHA256: 32, SHA384: 48, SHA512: 64,
		SHA3_256: 32, SHA3_512: 64, BLAKE2b256: 32,
	}
	for alg, size := range sizes {
		got, err := Hash(alg, []byte("qa"), Hex)
		require.NoError(t, err)
		assert.Len(t, got, size*2, alg)
	}
}

func TestHashBase64(t *testing.T) {
	got, err := Hash(SHA256, []byte("abc"), Base64)
	require.NoError(t, err)
	assert.Equal(t, "ungWv48Bz+pBQUDeXa4iI7ADYaOWF3qctBD/YfIAFa0=", got)
}

func TestHMACKnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	got, err := HMAC(SHA256, []byte("what do ya want for nothing?"), []byte("Jefe"), Hex)
	require.NoError(t, err)
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
}

func TestUnsupported(t *testing.T) {
	_, err := Hash("MD5", []byte("x"), Hex)
	assert.Error(t, err)

	_, err = HMAC(SHA256, []byte("x"), []byte("k"), "binary")
	assert.Error(t, err)
}

func TestParseAlgorithm(t *testing.T) {
	for _, name := range []string{"sha256", "SHA-256", " Sha-256 "} {
		alg, err := ParseAlgorithm(name)
		require.NoError(t, err)
		assert.Equal(t, SHA256, alg)
	}

	alg, err := ParseAlgorithm("blake2b256")
	require.NoError(t, err)
	assert.Equal(t, BLAKE2b256, alg)

	_, err = ParseAlgorithm("md5")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Hex, f)

	f, err = ParseFormat("BASE64")
	require.NoError(t, err)
	assert.Equal(t, Base64, f)

	_, err = ParseFormat("raw")
	assert.Error(t, err)
}

func TestAlgorithms(t *testing.T) {
	algs := Algorithms()
	assert.Len(t, algs, 7)
	assert.Equal(t, BLAKE2b256, algs[0])
}
