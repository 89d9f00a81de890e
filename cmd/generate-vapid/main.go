package main

import (
	"fmt"
	"log"

	"adherence-push-backend/webpush"

	webpushgo "github.com/SherClockHolmes/webpush-go"
)

func main() {
	log.Println("🔐 Génération des clés VAPID...")

	publicKey, privateKey, err := generate()
	if err != nil {
		log.Fatalf("❌ Erreur lors de la génération des clés: %v", err)
	}

	fmt.Println("\n✅ Clés VAPID générées avec succès!")
	fmt.Print("\nAjoutez ces lignes dans votre fichier .env:\n\n")
	fmt.Println("VAPID_PUBLIC_KEY=" + publicKey)
	fmt.Println("VAPID_PRIVATE_KEY=" + privateKey)
	fmt.Println("VAPID_SUBJECT=mailto:votre-email@example.com")
	fmt.Println("\n⚠️  Important: Ne partagez JAMAIS votre clé privée!")
}

// generate crée une paire de clés et vérifie qu'elle sera acceptée au démarrage du serveur
func generate() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpushgo.GenerateVAPIDKeys()
	if err != nil {
		return "", "", err
	}

	keys, err := webpush.ParseVAPIDKeys(publicKey, privateKey)
	if err != nil {
		return "", "", fmt.Errorf("paire générée refusée: %w", err)
	}
	return keys.PublicKey(), privateKey, nil
}
