package models

import (
	"fmt"

	"adherence-push-backend/utils"
)

// PushPayload représente le contenu d'une notification, sérialisé en JSON puis chiffré
type PushPayload struct {
	Title              string      `json:"title"`
	Body               string      `json:"body"`
	Icon               string      `json:"icon,omitempty"`
	Tag                string      `json:"tag,omitempty"`
	Data               PayloadData `json:"data,omitempty"`
	RequireInteraction bool        `json:"require_interaction,omitempty"`
}

// PayloadData contient des champs libres dont les valeurs sont des primitives JSON
// (chaîne, nombre, booléen ou null)
type PayloadData map[string]interface{}

// Validate vérifie les champs obligatoires et le type des données libres
func (p PushPayload) Validate() error {
	if err := utils.ValidateRequired("title", p.Title); err != nil {
		return err
	}
	if err := utils.ValidateRequired("body", p.Body); err != nil {
		return err
	}
	return p.Data.Validate()
}

// Validate refuse les objets et tableaux imbriqués
func (d PayloadData) Validate() error {
	for key, value := range d {
		switch value.(type) {
		case nil, string, bool,
			float64, float32, int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64:
		default:
			return utils.ValidationError{
				Field:   "data." + key,
				Message: fmt.Sprintf("type %T non supporté, valeur primitive attendue", value),
			}
		}
	}
	return nil
}

// SendRequest représente la requête d'envoi d'un lot de notifications
type SendRequest struct {
	RecipientIDs []string    `json:"recipient_ids"`
	Payload      PushPayload `json:"payload"`
}
