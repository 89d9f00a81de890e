package webpush

import (
	"bytes"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Taille d'un point P-256 non compressé (0x04 || X || Y)
	publicKeyLen = 65
	// Taille d'un scalaire P-256
	privateKeyLen = 32
	// Taille du secret d'authentification d'un abonnement
	authSecretLen = 16
)

// VAPIDKeys contient la paire de clés d'identification du serveur
type VAPIDKeys struct {
	private   *ecdsa.PrivateKey
	publicRaw []byte
}

// PublicKey retourne la clé publique encodée en base64url (sans padding)
func (k *VAPIDKeys) PublicKey() string {
	return base64.RawURLEncoding.EncodeToString(k.publicRaw)
}

// ParseVAPIDKeys décode et vérifie une paire de clés VAPID P-256.
// La clé publique fournie doit correspondre à la clé privée.
func ParseVAPIDKeys(publicKey, privateKey string) (*VAPIDKeys, error) {
	if strings.TrimSpace(publicKey) == "" || strings.TrimSpace(privateKey) == "" {
		return nil, ConfigurationError("clés VAPID manquantes", nil)
	}

	rawPriv, err := decodeBase64(privateKey)
	if err != nil {
		return nil, ConfigurationError("clé privée VAPID mal encodée", err)
	}
	if len(rawPriv) > privateKeyLen {
		return nil, ConfigurationError(fmt.Sprintf("clé privée VAPID de %d octets, P-256 attendu", len(rawPriv)), nil)
	}
	if len(rawPriv) < privateKeyLen {
		rawPriv = append(make([]byte, privateKeyLen-len(rawPriv)), rawPriv...)
	}

	priv, err := ecdh.P256().NewPrivateKey(rawPriv)
	if err != nil {
		return nil, ConfigurationError("clé privée VAPID invalide sur P-256", err)
	}
	derived := priv.PublicKey().Bytes()

	rawPub, err := decodeBase64(publicKey)
	if err != nil {
		return nil, ConfigurationError("clé publique VAPID mal encodée", err)
	}
	if len(rawPub) != publicKeyLen || rawPub[0] != 0x04 {
		return nil, ConfigurationError(fmt.Sprintf("clé publique VAPID de %d octets, point P-256 non compressé attendu", len(rawPub)), nil)
	}
	if !bytes.Equal(rawPub, derived) {
		return nil, ConfigurationError("la clé publique VAPID ne correspond pas à la clé privée", nil)
	}

	return &VAPIDKeys{
		private: &ecdsa.PrivateKey{
			PublicKey: ecdsa.PublicKey{
				Curve: elliptic.P256(),
				X:     new(big.Int).SetBytes(derived[1:33]),
				Y:     new(big.Int).SetBytes(derived[33:]),
			},
			D: new(big.Int).SetBytes(rawPriv),
		},
		publicRaw: derived,
	}, nil
}

// SubscriptionKeys contient les clés décodées d'un abonnement navigateur
type SubscriptionKeys struct {
	P256dh *ecdh.PublicKey
	Auth   []byte
}

// ParseSubscriptionKeys décode et valide les clés p256dh et auth d'un abonnement.
// Le point est vérifié explicitement (taille, préfixe, appartenance à la courbe).
func ParseSubscriptionKeys(p256dh, auth string) (*SubscriptionKeys, error) {
	rawPub, err := decodeBase64(p256dh)
	if err != nil {
		return nil, CryptoError("clé p256dh mal encodée", err)
	}
	if len(rawPub) != publicKeyLen || rawPub[0] != 0x04 {
		return nil, CryptoError(fmt.Sprintf("clé p256dh de %d octets, point non compressé attendu", len(rawPub)), nil)
	}
	pub, err := ecdh.P256().NewPublicKey(rawPub)
	if err != nil {
		return nil, CryptoError("clé p256dh hors de la courbe P-256", err)
	}

	rawAuth, err := decodeBase64(auth)
	if err != nil {
		return nil, CryptoError("secret auth mal encodé", err)
	}
	if len(rawAuth) != authSecretLen {
		return nil, CryptoError(fmt.Sprintf("secret auth de %d octets, %d attendus", len(rawAuth), authSecretLen), nil)
	}

	return &SubscriptionKeys{P256dh: pub, Auth: rawAuth}, nil
}

// decodeBase64 accepte les variantes url/std, avec ou sans padding,
// les navigateurs et les outils de génération n'étant pas cohérents.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("valeur vide")
	}
	enc := base64.RawStdEncoding
	if strings.ContainsAny(s, "-_") {
		enc = base64.RawURLEncoding
	}
	return enc.DecodeString(strings.TrimRight(s, "="))
}
