package service

import (
	"context"

	"reviewboard/reviews-service/internal/app/reviews/entity"
	"reviewboard/reviews-service/internal/app/reviews/repository"
)

type ReviewServiceInterface interface {
	CreateReview(ctx context.Context, req *entity.CreateReviewRequest) (*entity.Review, error)
	GetReview(ctx context.Context, reviewID string) (*entity.Review, error)
	ListReviews(ctx context.Context, query repository.ListReviewsQuery) ([]entity.Review, int64, error)
	UpdateReview(ctx context.Context, reviewID string, req *entity.UpdateReviewRequest) (*entity.Review, error)
	DeleteReview(ctx context.Context, reviewID string) error
	LikeReview(ctx context.Context, reviewID string, userID string) (*entity.LikeReviewResponse, error)
}
