package webpush

import (
	"errors"
	"fmt"
)

// Kind classe les erreurs du moteur de notifications push
type Kind int

const (
	// KindConfiguration : clés VAPID absentes ou invalides, fatal au démarrage
	KindConfiguration Kind = iota + 1
	// KindInputValidation : lot vide ou payload incomplet, aucun envoi n'est tenté
	KindInputValidation
	// KindCrypto : import de clé ou dérivation impossible pour un destinataire
	KindCrypto
	// KindDelivery : réponse HTTP inattendue, erreur réseau ou timeout
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInputValidation:
		return "input_validation"
	case KindCrypto:
		return "crypto"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Error est l'erreur typée retournée par le moteur
type Error struct {
	Kind        Kind
	RecipientID string
	Endpoint    string
	StatusCode  int
	Message     string
	Err         error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + ": " + e.Message
	if e.RecipientID != "" {
		msg += fmt.Sprintf(" (destinataire %s)", e.RecipientID)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" [HTTP %d]", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConfigurationError construit une erreur de configuration
func ConfigurationError(message string, err error) *Error {
	return &Error{Kind: KindConfiguration, Message: message, Err: err}
}

// InputValidationError construit une erreur de validation d'entrée
func InputValidationError(message string, err error) *Error {
	return &Error{Kind: KindInputValidation, Message: message, Err: err}
}

// CryptoError construit une erreur de chiffrement
func CryptoError(message string, err error) *Error {
	return &Error{Kind: KindCrypto, Message: message, Err: err}
}

// DeliveryError construit une erreur de livraison
func DeliveryError(message string, statusCode int, err error) *Error {
	return &Error{Kind: KindDelivery, Message: message, StatusCode: statusCode, Err: err}
}

// IsKind indique si err (ou une erreur qu'elle enveloppe) est du type donné
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
