package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectRetries = 5

// Mongo regroupe le client et la base utilisée par le registre d'abonnements
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect établit la connexion à la base de données MongoDB et crée les index.
// Le ping initial est retenté avec un backoff exponentiel tant que ctx n'est pas expiré.
func Connect(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la connexion à MongoDB: %w", err)
	}

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx, nil)
	}
	if err = backoff.Retry(ping, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectRetries), ctx)); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("erreur lors du ping MongoDB: %w", err)
	}

	m := &Mongo{Client: client, DB: client.Database(dbName)}
	if err = m.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("erreur lors de la création des index: %w", err)
	}

	return m, nil
}

// Ping vérifie que la connexion MongoDB est active
func (m *Mongo) Ping(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return fmt.Errorf("client MongoDB non initialisé")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return m.Client.Ping(ctx, nil)
}

// Close ferme la connexion à la base de données
func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}

// createIndexes crée les index du registre d'abonnements
func (m *Mongo) createIndexes(ctx context.Context) error {
	subscriptions := m.DB.Collection(SubscriptionsCollection)

	_, err := subscriptions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "endpoint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "recipient_id", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("erreur lors de la création des index d'abonnements: %w", err)
	}

	return nil
}
