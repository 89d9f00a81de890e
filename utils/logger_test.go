package utils

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(true, "warn")
	if err != nil {
		t.Fatalf("NewLogger() erreur = %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("le niveau info ne devrait pas être actif avec LOG_LEVEL=warn")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("le niveau error devrait être actif")
	}

	if _, err := NewLogger(false, ""); err != nil {
		t.Errorf("NewLogger() sans niveau erreur = %v", err)
	}
	if _, err := NewLogger(false, "bavard"); err == nil {
		t.Error("NewLogger() devrait refuser un niveau inconnu")
	}
}
