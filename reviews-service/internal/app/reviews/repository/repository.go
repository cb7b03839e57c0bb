package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"reviewboard/reviews-service/internal/app/reviews/entity"
)

// ReviewRepository определяет методы для работы с отзывами в MongoDB
type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, query ListReviewsQuery) ([]entity.Review, int64, error)
	// UpdateLikes атомарно добавляет ($addToSet) или убирает ($pull) лайк
	// и возвращает документ после обновления
	UpdateLikes(ctx context.Context, id string, userID string, add bool) (*entity.Review, error)
}

// UserRepository - доступ к записям пользователей, ограниченный чтением по ID
// и дозаписью обратных ссылок на отзывы. Полная запись пользователя
// принадлежит User Service.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	AppendReviewRef(ctx context.Context, userID string, field entity.ReviewRefField, reviewID string) error
}

// LinkRepository хранит обратные ссылки, которые не удалось записать
// при создании отзыва, для повторной обработки воркером
type LinkRepository interface {
	Enqueue(ctx context.Context, link *entity.PendingLink) error
	List(ctx context.Context, limit int64) ([]entity.PendingLink, error)
	Remove(ctx context.Context, id primitive.ObjectID) error
	IncrementAttempts(ctx context.Context, id primitive.ObjectID) error
}
