package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError représente une erreur de validation
type ValidationError struct {
	Field   string
	Message string
}

// Error implémente l'interface error
func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidateRequired valide qu'un champ n'est pas vide
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: fmt.Sprintf("le champ %s est requis", field)}
	}
	return nil
}

// ValidateIDs valide une liste d'identifiants non vide, sans entrée vide
func ValidateIDs(field string, ids []string) error {
	if len(ids) == 0 {
		return ValidationError{Field: field, Message: "au moins un identifiant est requis"}
	}
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return ValidationError{Field: field, Message: fmt.Sprintf("identifiant vide à l'index %d", i)}
		}
	}
	return nil
}

// ValidateEndpoint valide l'URL d'un endpoint de push service (https uniquement)
func ValidateEndpoint(endpoint string) error {
	if err := ValidateRequired("endpoint", endpoint); err != nil {
		return err
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ValidationError{Field: "endpoint", Message: "URL invalide"}
	}
	if u.Scheme != "https" {
		return ValidationError{Field: "endpoint", Message: "https requis"}
	}
	return nil
}

// ValidateContactURI valide le sujet VAPID (mailto: ou https:)
func ValidateContactURI(subject string) error {
	if !strings.HasPrefix(subject, "mailto:") && !strings.HasPrefix(subject, "https:") {
		return ValidationError{Field: "subject", Message: "mailto: ou https: attendu"}
	}
	return nil
}
