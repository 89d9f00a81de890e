package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adherence-push-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubscriptionRepository gère les opérations sur les abonnements push
type SubscriptionRepository struct {
	collection *mongo.Collection
}

// NewSubscriptionRepository crée une nouvelle instance de SubscriptionRepository
func NewSubscriptionRepository(db *mongo.Database) *SubscriptionRepository {
	return &SubscriptionRepository{
		collection: db.Collection(SubscriptionsCollection),
	}
}

// Upsert crée ou met à jour un abonnement identifié par son endpoint
func (r *SubscriptionRepository) Upsert(ctx context.Context, subscription *models.PushSubscription) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	update := bson.M{
		BSONSet: bson.M{
			"recipient_id": subscription.RecipientID,
			"keys":         subscription.Keys,
			"user_agent":   subscription.UserAgent,
			"updated_at":   now,
		},
		BSONSetOnInsert: bson.M{
			"created_at": now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"endpoint": subscription.Endpoint}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("erreur lors de l'enregistrement de l'abonnement: %w", err)
	}

	subscription.Updated = now
	return nil
}

// GetSubscriptions retourne tous les abonnements des destinataires donnés
func (r *SubscriptionRepository) GetSubscriptions(ctx context.Context, recipientIDs []string) ([]models.PushSubscription, error) {
	if len(recipientIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, recipientsFilter(recipientIDs))
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des abonnements: %w", err)
	}
	defer cursor.Close(ctx)

	var subscriptions []models.PushSubscription
	if err = cursor.All(ctx, &subscriptions); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des abonnements: %w", err)
	}

	return subscriptions, nil
}

// DeleteSubscriptions supprime en un seul appel les abonnements des endpoints donnés
func (r *SubscriptionRepository) DeleteSubscriptions(ctx context.Context, endpoints []string) error {
	if len(endpoints) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, endpointsFilter(endpoints))
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression des abonnements: %w", err)
	}

	return nil
}

// FindByEndpoint recherche un abonnement par endpoint
func (r *SubscriptionRepository) FindByEndpoint(ctx context.Context, endpoint string) (*models.PushSubscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var subscription models.PushSubscription
	err := r.collection.FindOne(ctx, bson.M{"endpoint": endpoint}).Decode(&subscription)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'abonnement: %w", err)
	}

	return &subscription, nil
}

// DeleteByEndpoint supprime un abonnement par endpoint
func (r *SubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	return r.DeleteSubscriptions(ctx, []string{endpoint})
}

// CountByRecipientID compte les appareils abonnés d'un destinataire
func (r *SubscriptionRepository) CountByRecipientID(ctx context.Context, recipientID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, recipientsFilter([]string{recipientID}))
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des abonnements: %w", err)
	}
	return count, nil
}

func recipientsFilter(recipientIDs []string) bson.M {
	return bson.M{"recipient_id": bson.M{BSONIn: recipientIDs}}
}

func endpointsFilter(endpoints []string) bson.M {
	return bson.M{"endpoint": bson.M{BSONIn: endpoints}}
}
