// Package digest computes hashes and HMACs with hex or base64 output.
package digest

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Algorithm names follow the Web Crypto spelling ("SHA-256").
type Algorithm string

const (
	SHA1       Algorithm = "SHA-1"
	SHA256     Algorithm = "SHA-256"
	SHA384     Algorithm = "SHA-384"
	SHA512     Algorithm = "SHA-512"
	SHA3_256   Algorithm = "SHA3-256"
	SHA3_512   Algorithm = "SHA3-512"
	BLAKE2b256 Algorithm = "BLAKE2b-256"
)

// Format is the output encoding.
type Format string

const (
	Hex    Format = "hex"
	Base64 Format = "base64"
)

var constructors = map[Algorithm]func() hash.Hash{
	SHA1:       sha1.New,
	SHA256:     sha256.New,
	SHA384:     sha512.New384,
	SHA512:     sha512.New,
	SHA3_256:   sha3.New256,
	SHA3_512:   sha3.New512,
	BLAKE2b256: newBlake2b256,
}

// newBlake2b256 is unkeyed; New256 only fails for keys over 64 bytes.
func newBlake2b256() hash.Hash {
	h, _ := blake2b.New256(nil)
	return h
}

// Algorithms lists the supported algorithms in name order.
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, len(constructors))
	for alg := range constructors {
		out = append(out, alg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseAlgorithm accepts names case-insensitively, with or without the dash
// ("sha256", "SHA-256").
func ParseAlgorithm(name string) (Algorithm, error) {
	want := squash(name)
	for alg := range constructors {
		if squash(string(alg)) == want {
			return alg, nil
		}
	}
	return "", fmt.Errorf("unsupported algorithm %q", name)
}

// ParseFormat accepts "hex" and "base64". Empty means hex.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", Hex:
		return Hex, nil
	case Base64:
		return Base64, nil
	}
	return "", fmt.Errorf("unsupported output format %q", name)
}

// Hash returns the encoded digest of data.
func Hash(alg Algorithm, data []byte, format Format) (string, error) {
	newHash, ok := constructors[alg]
	if !ok {
		return "", fmt.Errorf("unsupported algorithm %q", alg)
	}
	h := newHash()
	h.Write(data)
	return encode(h.Sum(nil), format)
}

// HMAC returns the encoded HMAC of data keyed by secret.
func HMAC(alg Algorithm, data, secret []byte, format Format) (string, error) {
	newHash, ok := constructors[alg]
	if !ok {
		return "", fmt.Errorf("unsupported algorithm %q", alg)
	}
	mac := hmac.New(newHash, secret)
	mac.Write(data)
	return encode(mac.Sum(nil), format)
}

func encode(sum []byte, format Format) (string, error) {
	switch format {
	case "", Hex:
		return hex.EncodeToString(sum), nil
	case Base64:
		return base64.StdEncoding.EncodeToString(sum), nil
	}
	return "", fmt.Errorf("unsupported output format %q", format)
}

func squash(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "")
}
