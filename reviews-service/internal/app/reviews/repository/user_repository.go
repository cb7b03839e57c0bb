package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"reviewboard/pkg/metrics"
	"reviewboard/reviews-service/internal/app/reviews/entity"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

type userRepository struct {
	collection *mongo.Collection
}

// NewUserRepository создает репозиторий пользователей.
// Запись пользователя принадлежит User Service: здесь разрешено только
// чтение по ID и дозапись given_reviews/received_reviews.
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{
		collection: db.Collection("users"),
	}
}

// GetByID получает пользователя по ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Некорректный ID не может указывать на существующего пользователя
		return nil, ErrUserNotFound
	}

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "users")
	defer timer.ObserveDuration()

	var user entity.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// AppendReviewRef дописывает ID отзыва в given_reviews или received_reviews
func (r *userRepository) AppendReviewRef(ctx context.Context, userID string, field entity.ReviewRefField, reviewID string) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpdate, "users")
	defer timer.ObserveDuration()

	update := bson.M{
		"$push": bson.M{string(field): reviewID},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpdate)
		return fmt.Errorf("failed to append review ref: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}
