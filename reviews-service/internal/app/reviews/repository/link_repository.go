package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reviewboard/reviews-service/internal/app/reviews/entity"
)

type linkRepository struct {
	collection *mongo.Collection
}

// NewLinkRepository создает хранилище отложенных обратных ссылок.
// Сюда попадают given_reviews/received_reviews, которые не удалось
// записать при создании отзыва.
func NewLinkRepository(db *mongo.Database) LinkRepository {
	return &linkRepository{
		collection: db.Collection("review_link_backlog"),
	}
}

func (r *linkRepository) Enqueue(ctx context.Context, link *entity.PendingLink) error {
	link.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, link)
	if err != nil {
		return fmt.Errorf("failed to enqueue pending link: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		link.ID = oid
	}

	return nil
}

// List возвращает отложенные ссылки, старые первыми
func (r *linkRepository) List(ctx context.Context, limit int64) ([]entity.PendingLink, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending links: %w", err)
	}
	defer cursor.Close(ctx)

	var links []entity.PendingLink
	if err := cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("failed to decode pending links: %w", err)
	}

	return links, nil
}

func (r *linkRepository) Remove(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to remove pending link: %w", err)
	}
	return nil
}

func (r *linkRepository) IncrementAttempts(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$inc": bson.M{"attempts": 1}}

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}
	return nil
}
