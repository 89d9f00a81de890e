package webpush

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiration est la durée de validité d'un jeton VAPID (maximum 24h côté push service)
const DefaultTokenExpiration = 12 * time.Hour

// VAPIDSigner signe les jetons d'identification envoyés aux push services
type VAPIDSigner struct {
	keys       *VAPIDKeys
	subject    string
	expiration time.Duration
	now        func() time.Time
}

// NewVAPIDSigner crée un signataire à partir de clés déjà validées.
// Le sujet doit être une URI de contact mailto: ou https:.
func NewVAPIDSigner(keys *VAPIDKeys, subject string) (*VAPIDSigner, error) {
	if keys == nil || keys.private == nil {
		return nil, ConfigurationError("clés VAPID non initialisées", nil)
	}
	if !strings.HasPrefix(subject, "mailto:") && !strings.HasPrefix(subject, "https:") {
		return nil, ConfigurationError(fmt.Sprintf("sujet VAPID invalide %q (mailto: ou https: attendu)", subject), nil)
	}

	return &VAPIDSigner{
		keys:       keys,
		subject:    subject,
		expiration: DefaultTokenExpiration,
		now:        time.Now,
	}, nil
}

// PublicKey retourne la clé publique VAPID en base64url
func (s *VAPIDSigner) PublicKey() string {
	return s.keys.PublicKey()
}

// Token génère un JWT ES256 lié à l'audience (origine du push service)
func (s *VAPIDSigner) Token(audience string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"aud": audience,
		"exp": s.now().Add(s.expiration).Unix(),
		"sub": s.subject,
	})

	signed, err := token.SignedString(s.keys.private)
	if err != nil {
		return "", ConfigurationError("erreur lors de la signature du jeton VAPID", err)
	}
	return signed, nil
}

// AuthorizationHeader construit la valeur de l'en-tête Authorization pour un endpoint
func (s *VAPIDSigner) AuthorizationHeader(endpoint string) (string, error) {
	audience, err := Audience(endpoint)
	if err != nil {
		return "", err
	}

	token, err := s.Token(audience)
	if err != nil {
		return "", err
	}

	return "vapid t=" + token + ", k=" + s.keys.PublicKey(), nil
}

// Audience extrait l'origine (scheme://host) d'un endpoint de push service
func Audience(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", DeliveryError("endpoint invalide", 0, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", DeliveryError(fmt.Sprintf("endpoint invalide %q", endpoint), 0, nil)
	}
	return u.Scheme + "://" + u.Host, nil
}
