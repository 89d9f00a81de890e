package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSubscription représente un abonnement aux notifications push d'un appareil
type PushSubscription struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RecipientID string             `json:"recipient_id" bson:"recipient_id"` // Patient, soignant ou pharmacien
	Endpoint    string             `json:"endpoint" bson:"endpoint"`
	Keys        PushKeys           `json:"keys" bson:"keys"`
	UserAgent   string             `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	Created     time.Time          `json:"created_at" bson:"created_at"`
	Updated     time.Time          `json:"updated_at" bson:"updated_at"`
}

// PushKeys contient les clés de chiffrement pour les notifications (base64url)
type PushKeys struct {
	P256dh string `json:"p256dh" bson:"p256dh"`
	Auth   string `json:"auth" bson:"auth"`
}

// SubscribeRequest représente la requête d'abonnement aux notifications
type SubscribeRequest struct {
	RecipientID  string `json:"recipient_id"`
	UserAgent    string `json:"user_agent,omitempty"`
	Subscription struct {
		Endpoint string   `json:"endpoint"`
		Keys     PushKeys `json:"keys"`
	} `json:"subscription"`
}

// UnsubscribeRequest représente la requête de désabonnement
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}
