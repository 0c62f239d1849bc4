package cryptox_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func parsePKCS8(t *testing.T, data []byte) any {
	t.Helper()
	block, _ := pem.Decode(data)
	require.NotNil(t, block)
	require.Equal(t, "PRIVATE KEY", block.Type)
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)
	return key
}

func TestGenerateKeys(t *testing.T) {
	ed, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	require.IsType(t, ed25519.PrivateKey{}, parsePKCS8(t, ed))

	ec, err := cryptox.GenerateES256Key()
	require.NoError(t, err)
	require.IsType(t, &ecdsa.PrivateKey{}, parsePKCS8(t, ec))

	rs, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)
	key := parsePKCS8(t, rs).(*rsa.PrivateKey)
	require.Equal(t, 2048, key.N.BitLen())
}

func TestGenerateRSAKey_RejectsSmallModulus(t *testing.T) {
	_, err := cryptox.GenerateRSAKey(1024)
	require.Error(t, err)
}
