package webpush

import (
	"encoding/binary"
	"fmt"
)

const (
	// RecordSize est la taille d'enregistrement annoncée dans l'en-tête aes128gcm
	RecordSize = 4096
	// HeaderLen = sel (16) + taille d'enregistrement (4) + longueur de keyid (1) + keyid (65)
	HeaderLen = saltLen + 4 + 1 + publicKeyLen
	// MaxPayloadSize est le plus grand payload qui tient dans un seul enregistrement
	MaxPayloadSize = RecordSize - HeaderLen - 1 - tagLen
)

// RecordHeader est l'en-tête d'un corps aes128gcm (RFC 8188)
type RecordHeader struct {
	Salt       []byte
	RecordSize uint32
	KeyID      []byte
}

// encodeRecord assemble sel || rs || idlen || keyid || ciphertext
func encodeRecord(salt, keyID, ciphertext []byte) ([]byte, error) {
	if len(salt) != saltLen {
		return nil, CryptoError(fmt.Sprintf("sel de %d octets, %d attendus", len(salt), saltLen), nil)
	}
	if len(keyID) != publicKeyLen || keyID[0] != 0x04 {
		return nil, CryptoError("keyid doit être un point P-256 non compressé", nil)
	}

	body := make([]byte, 0, HeaderLen+len(ciphertext))
	body = append(body, salt...)
	body = binary.BigEndian.AppendUint32(body, RecordSize)
	body = append(body, byte(len(keyID)))
	body = append(body, keyID...)
	body = append(body, ciphertext...)
	return body, nil
}

// decodeRecord sépare l'en-tête du texte chiffré
func decodeRecord(body []byte) (*RecordHeader, []byte, error) {
	if len(body) < saltLen+5 {
		return nil, nil, CryptoError("corps aes128gcm trop court", nil)
	}

	header := &RecordHeader{
		Salt:       body[:saltLen],
		RecordSize: binary.BigEndian.Uint32(body[saltLen : saltLen+4]),
	}
	idLen := int(body[saltLen+4])
	if idLen != publicKeyLen {
		return nil, nil, CryptoError(fmt.Sprintf("keyid de %d octets, %d attendus", idLen, publicKeyLen), nil)
	}
	if len(body) < HeaderLen+tagLen+1 {
		return nil, nil, CryptoError("corps aes128gcm tronqué", nil)
	}
	header.KeyID = body[saltLen+5 : HeaderLen]

	ciphertext := body[HeaderLen:]
	if uint32(len(ciphertext)) > header.RecordSize {
		return nil, nil, CryptoError("plusieurs enregistrements non supportés", nil)
	}
	return header, ciphertext, nil
}
