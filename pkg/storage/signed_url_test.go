package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, expiresAt, err := signer.Generate("app-1", "surat-SRT-1-XYZ01.pdf")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	resourceID, relPath, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "app-1", resourceID)
	require.Equal(t, "surat-SRT-1-XYZ01.pdf", relPath)
	require.Equal(t, expiresAt.Unix(), parsedExpiry.Unix())
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("app-1", "surat.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token + "x")
	require.Error(t, err)

	_, _, _, err = signer.Parse("not.a.valid")
	require.Error(t, err)
}

func TestSignedURLRejectsWrongSecret(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	other := NewSignedURLSigner("different", time.Minute)

	token, _, err := signer.Generate("app-1", "surat.pdf")
	require.NoError(t, err)

	_, _, _, err = other.Parse(token)
	require.Error(t, err)
}

func TestSignedURLRejectsExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", -time.Minute)
	// TTL floor prevents non-positive values at construction, so force it.
	signer.ttl = -time.Minute

	token, _, err := signer.Generate("app-1", "surat.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expired")
}

func TestSignedURLRequiresInputs(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	_, _, err := signer.Generate("", "surat.pdf")
	require.Error(t, err)
	_, _, err = signer.Generate("app-1", "")
	require.Error(t, err)

	empty := NewSignedURLSigner("", time.Minute)
	_, _, err = empty.Generate("app-1", "surat.pdf")
	require.Error(t, err)
}
