package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Author    string             `json:"author" bson:"author"` // ID пользователя-автора отзыва
	Target    string             `json:"target" bson:"target"` // ID пользователя, о котором отзыв
	Rating    int                `json:"rating" bson:"rating"` // Оценка от 1 до 5
	Text      string             `json:"text" bson:"text"`     // Текст отзыва
	Likes     []string           `json:"likes" bson:"likes"`   // ID пользователей, лайкнувших отзыв (без дубликатов)
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// User - частичное представление пользователя из User Service.
// Полная запись принадлежит сервису пользователей; здесь нужны только
// обратные ссылки на отзывы.
type User struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username        string             `json:"username" bson:"username"`
	GivenReviews    []string           `json:"given_reviews" bson:"given_reviews"`
	ReceivedReviews []string           `json:"received_reviews" bson:"received_reviews"`
}

// ReviewRefField - поле пользователя, в которое дописывается ID отзыва
type ReviewRefField string

const (
	FieldGivenReviews    ReviewRefField = "given_reviews"
	FieldReceivedReviews ReviewRefField = "received_reviews"
)

// PendingLink - обратная ссылка, которую не удалось записать при создании
// отзыва. Повторно обрабатывается фоновым воркером.
type PendingLink struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	Field     ReviewRefField     `json:"field" bson:"field"`
	ReviewID  string             `json:"review_id" bson:"review_id"`
	Attempts  int                `json:"attempts" bson:"attempts"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

type ReviewEvent struct {
	EventType string    `json:"event_type"` // REVIEW_CREATED, REVIEW_LIKED, REVIEW_DELETED
	ReviewID  string    `json:"review_id"`
	Author    string    `json:"author"`
	Target    string    `json:"target"`
	Rating    int       `json:"rating"`
	UserID    string    `json:"user_id,omitempty"` // для REVIEW_LIKED
	Liked     bool      `json:"liked,omitempty"`   // true = лайк, false = снятие лайка
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventReviewCreated = "REVIEW_CREATED"
	EventReviewLiked   = "REVIEW_LIKED"
	EventReviewDeleted = "REVIEW_DELETED"
)
