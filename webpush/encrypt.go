package webpush

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	saltLen       = 16
	ikmLen        = 32
	contentKeyLen = 16
	nonceLen      = 12
	tagLen        = 16
)

var (
	webPushInfo       = []byte("WebPush: info\x00")
	contentKeyInfo    = []byte("Content-Encoding: aes128gcm\x00")
	contentNonceInfo  = []byte("Content-Encoding: nonce\x00")
	lastRecordPadding = byte(0x02)
)

// KeyMaterial est l'état cryptographique d'un seul message pour un seul destinataire.
// Il ne doit jamais être réutilisé.
type KeyMaterial struct {
	Salt         []byte
	SenderPublic []byte
	ContentKey   []byte
	Nonce        []byte
}

// DeriveKeyMaterial génère une clé éphémère et un sel neufs puis dérive la clé de contenu et le nonce
func DeriveKeyMaterial(recipient *SubscriptionKeys) (*KeyMaterial, error) {
	ephemeral, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, CryptoError("erreur lors de la génération de la clé éphémère", err)
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, CryptoError("erreur lors de la génération du sel", err)
	}

	return deriveKeyMaterial(recipient, ephemeral, salt)
}

func deriveKeyMaterial(recipient *SubscriptionKeys, ephemeral *ecdh.PrivateKey, salt []byte) (*KeyMaterial, error) {
	if recipient == nil || recipient.P256dh == nil {
		return nil, CryptoError("clé publique du destinataire manquante", nil)
	}
	if len(salt) != saltLen {
		return nil, CryptoError("sel de taille invalide", nil)
	}

	shared, err := ephemeral.ECDH(recipient.P256dh)
	if err != nil {
		return nil, CryptoError("erreur lors de l'échange ECDH", err)
	}

	senderPublic := ephemeral.PublicKey().Bytes()
	ikm, err := deriveIKM(shared, recipient.Auth, recipient.P256dh.Bytes(), senderPublic)
	if err != nil {
		return nil, err
	}

	key, err := hkdfRead(ikm, salt, contentKeyInfo, contentKeyLen)
	if err != nil {
		return nil, CryptoError("erreur lors de la dérivation de la clé de contenu", err)
	}
	nonce, err := hkdfRead(ikm, salt, contentNonceInfo, nonceLen)
	if err != nil {
		return nil, CryptoError("erreur lors de la dérivation du nonce", err)
	}

	return &KeyMaterial{
		Salt:         salt,
		SenderPublic: senderPublic,
		ContentKey:   key,
		Nonce:        nonce,
	}, nil
}

// deriveIKM combine le secret ECDH et le secret auth.
// info = "WebPush: info" || 0x00 || clé destinataire || clé émetteur, dans cet ordre.
func deriveIKM(shared, auth, recipientPublic, senderPublic []byte) ([]byte, error) {
	info := make([]byte, 0, len(webPushInfo)+len(recipientPublic)+len(senderPublic))
	info = append(info, webPushInfo...)
	info = append(info, recipientPublic...)
	info = append(info, senderPublic...)

	ikm, err := hkdfRead(shared, auth, info, ikmLen)
	if err != nil {
		return nil, CryptoError("erreur lors de la dérivation de l'IKM", err)
	}
	return ikm, nil
}

func hkdfRead(secret, salt, info []byte, length int) ([]byte, error) {
	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, info), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Encrypt chiffre un payload pour un abonnement et retourne le corps aes128gcm complet.
// Chaque appel utilise une clé éphémère et un sel neufs.
func Encrypt(plaintext []byte, recipient *SubscriptionKeys) ([]byte, error) {
	if len(plaintext) > MaxPayloadSize {
		return nil, CryptoError("payload trop volumineux pour un seul enregistrement", nil)
	}

	material, err := DeriveKeyMaterial(recipient)
	if err != nil {
		return nil, err
	}
	return sealRecord(plaintext, material)
}

func sealRecord(plaintext []byte, material *KeyMaterial) ([]byte, error) {
	ciphertext, err := seal(plaintext, material.ContentKey, material.Nonce)
	if err != nil {
		return nil, err
	}
	return encodeRecord(material.Salt, material.SenderPublic, ciphertext)
}

// seal ajoute le délimiteur de dernier enregistrement puis chiffre en AES-128-GCM (tag de 16 octets)
func seal(plaintext, key, nonce []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, CryptoError("nonce de taille invalide", nil)
	}

	padded := make([]byte, 0, len(plaintext)+1+gcm.Overhead())
	padded = append(padded, plaintext...)
	padded = append(padded, lastRecordPadding)

	return gcm.Seal(padded[:0], nonce, padded, nil), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, CryptoError("erreur lors de l'import de la clé AES", err)
	}
	gcm, err := cipher.NewGCMWithTagSize(block, tagLen)
	if err != nil {
		return nil, CryptoError("erreur lors de l'initialisation de GCM", err)
	}
	return gcm, nil
}

// Decrypt déchiffre un corps aes128gcm avec la clé privée et le secret auth du destinataire
func Decrypt(body []byte, recipient *ecdh.PrivateKey, auth []byte) ([]byte, error) {
	header, ciphertext, err := decodeRecord(body)
	if err != nil {
		return nil, err
	}

	sender, err := ecdh.P256().NewPublicKey(header.KeyID)
	if err != nil {
		return nil, CryptoError("clé de l'émetteur invalide", err)
	}
	shared, err := recipient.ECDH(sender)
	if err != nil {
		return nil, CryptoError("erreur lors de l'échange ECDH", err)
	}

	ikm, err := deriveIKM(shared, auth, recipient.PublicKey().Bytes(), header.KeyID)
	if err != nil {
		return nil, err
	}
	key, err := hkdfRead(ikm, header.Salt, contentKeyInfo, contentKeyLen)
	if err != nil {
		return nil, CryptoError("erreur lors de la dérivation de la clé de contenu", err)
	}
	nonce, err := hkdfRead(ikm, header.Salt, contentNonceInfo, nonceLen)
	if err != nil {
		return nil, CryptoError("erreur lors de la dérivation du nonce", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	padded, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, CryptoError("échec de l'authentification du message", err)
	}

	// Retirer le bourrage : zéros éventuels puis le délimiteur
	i := len(padded) - 1
	for i >= 0 && padded[i] == 0 {
		i--
	}
	if i < 0 || padded[i] != lastRecordPadding {
		return nil, CryptoError("délimiteur de bourrage invalide", nil)
	}
	return padded[:i], nil
}
