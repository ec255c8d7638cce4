package venue

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyPEM(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	return string(pem.EncodeToMemory(block)), key
}

func verify(t *testing.T, pub *rsa.PublicKey, message, sigB64 string) error {
	t.Helper()
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	require.NoError(t, err)
	hashed := sha256.Sum256([]byte(message))
	return rsa.VerifyPSS(pub, crypto.SHA256, hashed[:], sig, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
}

func TestSignVerifiesAgainstCanonicalMessage(t *testing.T) {
	pemKey, key := testKeyPEM(t)

	sig, err := Sign(pemKey, "1737000000000", "POST", "/trade-api/v2/orders", `{"count":3}`)
	require.NoError(t, err)

	err = verify(t, &key.PublicKey, "1737000000000POST/trade-api/v2/orders"+`{"count":3}`, sig)
	assert.NoError(t, err)

	// Any field change breaks the signature
	err = verify(t, &key.PublicKey, "1737000000001POST/trade-api/v2/orders"+`{"count":3}`, sig)
	assert.Error(t, err)
}

func TestSignStripsQueryString(t *testing.T) {
	pemKey, key := testKeyPEM(t)

	sig, err := Sign(pemKey, "100", "GET", "/trade-api/v2/positions?limit=50", "")
	require.NoError(t, err)

	// Signature covers the bare path only
	assert.NoError(t, verify(t, &key.PublicKey, "100GET/trade-api/v2/positions", sig))
	assert.Error(t, verify(t, &key.PublicKey, "100GET/trade-api/v2/positions?limit=50", sig))
}

func TestSignAcceptsPKCS8(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

	sig, err := Sign(pemKey, "5", "GET", "/x", "")
	require.NoError(t, err)
	assert.NoError(t, verify(t, &key.PublicKey, "5GET/x", sig))
}

func TestSignRejectsGarbageKey(t *testing.T) {
	_, err := Sign("not a pem", "1", "GET", "/", "")
	assert.Error(t, err)
}
