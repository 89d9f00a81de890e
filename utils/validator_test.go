package utils

import (
	"testing"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		wantErr bool
	}{
		{"champ rempli", "title", "Rappel", false},
		{"champ vide", "title", "", true},
		{"champ espaces uniquement", "title", "   ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.field, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateIDs(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		wantErr bool
	}{
		{"un identifiant", []string{"patient-1"}, false},
		{"plusieurs identifiants", []string{"patient-1", "pharmacien-2"}, false},
		{"liste nil", nil, true},
		{"liste vide", []string{}, true},
		{"identifiant vide", []string{"patient-1", " "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIDs("recipient_ids", tt.ids)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIDs(%v) error = %v, wantErr %v", tt.ids, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		wantErr  bool
	}{
		{"endpoint FCM", "https://fcm.googleapis.com/fcm/send/abc", false},
		{"endpoint Mozilla", "https://updates.push.services.mozilla.com/wpush/v2/xyz", false},
		{"endpoint vide", "", true},
		{"endpoint http", "http://push.example.com/abc", true},
		{"pas une URL", "abc", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEndpoint(tt.endpoint)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEndpoint(%q) error = %v, wantErr %v", tt.endpoint, err, tt.wantErr)
			}
		})
	}
}

func TestValidateContactURI(t *testing.T) {
	if err := ValidateContactURI("mailto:contact@example.com"); err != nil {
		t.Errorf("mailto devrait être accepté: %v", err)
	}
	if err := ValidateContactURI("https://example.com"); err != nil {
		t.Errorf("https devrait être accepté: %v", err)
	}
	if err := ValidateContactURI("contact@example.com"); err == nil {
		t.Error("un sujet sans schéma devrait être refusé")
	}
}
