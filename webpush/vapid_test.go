package webpush

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newVAPIDKeyStrings(t *testing.T) (string, string) {
	t.Helper()
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(priv.Bytes())
}

func newTestSigner(t *testing.T, now time.Time) *VAPIDSigner {
	t.Helper()
	pub, priv := newVAPIDKeyStrings(t)
	keys, err := ParseVAPIDKeys(pub, priv)
	require.NoError(t, err)
	signer, err := NewVAPIDSigner(keys, "mailto:pharmacie@example.com")
	require.NoError(t, err)
	signer.now = func() time.Time { return now }
	return signer
}

func TestParseVAPIDKeys(t *testing.T) {
	pub, priv := newVAPIDKeyStrings(t)
	otherPub, _ := newVAPIDKeyStrings(t)

	tests := []struct {
		name    string
		pub     string
		priv    string
		wantErr bool
	}{
		{"paire valide", pub, priv, false},
		{"clé publique manquante", "", priv, true},
		{"clé privée manquante", pub, "", true},
		{"paire incohérente", otherPub, priv, true},
		{"clé privée trop longue", pub, base64.RawURLEncoding.EncodeToString(make([]byte, 48)), true},
		{"clé privée nulle", pub, base64.RawURLEncoding.EncodeToString(make([]byte, 32)), true},
		{"clé publique tronquée", pub[:40], priv, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := ParseVAPIDKeys(tt.pub, tt.priv)
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, IsKind(err, KindConfiguration), "erreur de configuration attendue, obtenu %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, pub, keys.PublicKey())
		})
	}
}

func TestNewVAPIDSignerSubject(t *testing.T) {
	pub, priv := newVAPIDKeyStrings(t)
	keys, err := ParseVAPIDKeys(pub, priv)
	require.NoError(t, err)

	for _, subject := range []string{"mailto:contact@example.com", "https://example.com/contact"} {
		_, err := NewVAPIDSigner(keys, subject)
		require.NoError(t, err, subject)
	}
	for _, subject := range []string{"", "contact@example.com", "http://example.com"} {
		_, err := NewVAPIDSigner(keys, subject)
		require.True(t, IsKind(err, KindConfiguration), subject)
	}

	_, err = NewVAPIDSigner(nil, "mailto:contact@example.com")
	require.True(t, IsKind(err, KindConfiguration))
}

func decodeSegment(t *testing.T, segment string) map[string]interface{} {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestVAPIDTokenStructure(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, now)

	token, err := signer.Token("https://push.example.net")
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(token, "."))

	parts := strings.Split(token, ".")
	require.Equal(t, map[string]interface{}{"typ": "JWT", "alg": "ES256"}, decodeSegment(t, parts[0]))

	claims := decodeSegment(t, parts[1])
	require.Equal(t, "https://push.example.net", claims["aud"])
	require.Equal(t, "mailto:pharmacie@example.com", claims["sub"])
	require.Equal(t, float64(now.Add(12*time.Hour).Unix()), claims["exp"])

	// Signature ES256 : R || S sur 64 octets, SHA-256 de "header.claims"
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	require.Len(t, sig, 64)

	pubRaw, err := base64.RawURLEncoding.DecodeString(signer.PublicKey())
	require.NoError(t, err)
	pub := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(pubRaw[1:33]),
		Y:     new(big.Int).SetBytes(pubRaw[33:]),
	}
	digest := sha256.Sum256([]byte(parts[0] + "." + parts[1]))
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	require.True(t, ecdsa.Verify(pub, digest[:], r, s), "la signature doit être vérifiable avec la clé publique VAPID")
}

func TestVAPIDTokenVerifiesWithJWT(t *testing.T) {
	signer := newTestSigner(t, time.Now())

	token, err := signer.Token("https://push.example.net")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return &signer.keys.private.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}), jwt.WithAudience("https://push.example.net"))
	require.NoError(t, err)
	require.True(t, parsed.Valid)
}

func TestAuthorizationHeader(t *testing.T) {
	signer := newTestSigner(t, time.Now())

	header, err := signer.AuthorizationHeader("https://fcm.googleapis.com/fcm/send/abc:def")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(header, "vapid t="))
	require.True(t, strings.HasSuffix(header, ", k="+signer.PublicKey()))

	token := strings.TrimSuffix(strings.TrimPrefix(header, "vapid t="), ", k="+signer.PublicKey())
	claims := decodeSegment(t, strings.Split(token, ".")[1])
	require.Equal(t, "https://fcm.googleapis.com", claims["aud"])

	_, err = signer.AuthorizationHeader("not a url")
	require.True(t, IsKind(err, KindDelivery))
}
