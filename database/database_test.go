package database

import (
	"context"
	"testing"
)

func TestPing_clientNil(t *testing.T) {
	var m *Mongo

	err := m.Ping(context.Background())
	if err == nil {
		t.Error("Ping() devrait échouer quand Client est nil")
	}
	if err != nil && err.Error() != "client MongoDB non initialisé" {
		t.Errorf("Ping() erreur = %v", err)
	}

	if err := m.Close(context.Background()); err != nil {
		t.Errorf("Close() sur une connexion absente ne devrait pas échouer: %v", err)
	}
}
