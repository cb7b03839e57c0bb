package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reviewboard/pkg/metrics"
	"reviewboard/reviews-service/internal/app/reviews/entity"
)

const serviceName = "reviews-service"

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrReviewNotFound = errors.New("review not found")
)

type reviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository создает новый репозиторий отзывов
// Автоматически создает индексы по author и target для фильтрации выборок
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	collection := db.Collection("reviews")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, field := range []string{"author", "target"} {
		indexModel := mongo.IndexModel{
			Keys: bson.D{
				{Key: field, Value: 1},
			},
			Options: options.Index().SetName(field + "_idx"),
		}

		if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
			// Логируем ошибку, но не прерываем работу - индекс может уже существовать
			fmt.Printf("Warning: failed to create index on %s: %v\n", field, err)
		}
	}

	return &reviewRepository{
		collection: collection,
	}
}

// Create создает новый отзыв с пустым списком лайков
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpInsert, "reviews")
	defer timer.ObserveDuration()

	review.CreatedAt = time.Now()
	review.UpdatedAt = time.Now()
	if review.Likes == nil {
		review.Likes = []string{}
	}

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpInsert)
		return fmt.Errorf("failed to create review: %w", err)
	}

	// Устанавливаем ID из результата вставки
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid
	}

	return nil
}

// GetByID получает отзыв по ID
func (r *reviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReviewNotFound
	}

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "reviews")
	defer timer.ObserveDuration()

	filter := bson.M{"_id": objectID}

	var review entity.Review
	err = r.collection.FindOne(ctx, filter).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// Update обновляет rating и text отзыва
func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpdate, "reviews")
	defer timer.ObserveDuration()

	review.UpdatedAt = time.Now()

	filter := bson.M{"_id": review.ID}
	update := bson.M{
		"$set": bson.M{
			"rating":     review.Rating,
			"text":       review.Text,
			"updated_at": review.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpdate)
		return fmt.Errorf("failed to update review: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// Delete удаляет отзыв. Обратные ссылки в записях пользователей
// не затрагиваются.
func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrReviewNotFound
	}

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpDelete, "reviews")
	defer timer.ObserveDuration()

	filter := bson.M{"_id": objectID}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpDelete)
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// List возвращает отзывы по типизированному описанию выборки вместе с общим
// количеством совпадений
func (r *reviewRepository) List(ctx context.Context, query ListReviewsQuery) ([]entity.Review, int64, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "reviews")
	defer timer.ObserveDuration()

	filter := query.Filter()
	skip, limit := query.Pagination()

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpCount)
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	opts := options.Find().
		SetSort(query.SortSpec()).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, 0, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []entity.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, total, nil
}

// UpdateLikes атомарно переключает лайк через $addToSet/$pull, чтобы
// конкурентные лайки разных пользователей не терялись при перезаписи
// всего списка. Возвращает документ после обновления.
func (r *reviewRepository) UpdateLikes(ctx context.Context, id string, userID string, add bool) (*entity.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReviewNotFound
	}

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpdate, "reviews")
	defer timer.ObserveDuration()

	var likesOp bson.M
	if add {
		likesOp = bson.M{"$addToSet": bson.M{"likes": userID}}
	} else {
		likesOp = bson.M{"$pull": bson.M{"likes": userID}}
	}
	likesOp["$set"] = bson.M{"updated_at": time.Now()}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var review entity.Review
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, likesOp, opts).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpdate)
		return nil, fmt.Errorf("failed to update likes: %w", err)
	}

	return &review, nil
}
