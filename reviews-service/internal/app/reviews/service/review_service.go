package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reviewboard/pkg/logger"
	"reviewboard/pkg/metrics"
	"reviewboard/reviews-service/internal/app/reviews/entity"
	"reviewboard/reviews-service/internal/app/reviews/infrastructure"
	"reviewboard/reviews-service/internal/app/reviews/repository"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrReviewNotFound = errors.New("review not found")
	ErrTargetNotFound = errors.New("target user not found")
	ErrUserIDRequired = errors.New("user id is required")
)

// ReviewCache - кеш отзывов (Redis). Ошибки кеша никогда не
// прерывают обработку запроса.
type ReviewCache interface {
	GetReview(ctx context.Context, id string) (*entity.Review, error)
	SetReview(ctx context.Context, review *entity.Review) error
	DeleteReview(ctx context.Context, id string) error
}

// ReviewService обрабатывает бизнес-логику отзывов
// Координирует репозитории отзывов и пользователей, кеш и Kafka
type ReviewService struct {
	reviewRepo    repository.ReviewRepository
	userRepo      repository.UserRepository
	linkRepo      repository.LinkRepository
	cache         ReviewCache
	kafkaProducer infrastructure.MessagePublisher
}

// NewReviewService создает новый сервис отзывов с внедрением зависимостей
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	userRepo repository.UserRepository,
	linkRepo repository.LinkRepository,
	cache ReviewCache,
	kafkaProducer infrastructure.MessagePublisher,
) *ReviewService {
	return &ReviewService{
		reviewRepo:    reviewRepo,
		userRepo:      userRepo,
		linkRepo:      linkRepo,
		cache:         cache,
		kafkaProducer: kafkaProducer,
	}
}

// CreateReview создает новый отзыв
//  1. Проверяет, что target существует (author не проверяется)
//  2. Сохраняет отзыв в MongoDB
//  3. Дописывает ID отзыва в given_reviews автора и received_reviews адресата
//  4. Отправляет событие REVIEW_CREATED в Kafka
//
// Шаги 3-4 выполняются после записи отзыва и не откатывают её при сбое:
// источником истины остается сам отзыв, обратные ссылки - производный индекс.
func (s *ReviewService) CreateReview(ctx context.Context, req *entity.CreateReviewRequest) (*entity.Review, error) {
	// Проверяем существование адресата до любых записей
	if _, err := s.userRepo.GetByID(ctx, req.Target); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to resolve target user: %w", err)
	}

	review := &entity.Review{
		Author: req.Author,
		Target: req.Target,
		Rating: req.Rating,
		Text:   req.Text,
		Likes:  []string{},
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	reviewID := review.ID.Hex()

	// Обратные ссылки - best effort: отзыв уже создан
	s.appendReviewRef(ctx, review.Author, entity.FieldGivenReviews, reviewID)
	s.appendReviewRef(ctx, review.Target, entity.FieldReceivedReviews, reviewID)

	event := entity.ReviewEvent{
		EventType: entity.EventReviewCreated,
		ReviewID:  reviewID,
		Author:    review.Author,
		Target:    review.Target,
		Rating:    review.Rating,
		Timestamp: time.Now(),
	}

	if err := s.publishReviewEvent(ctx, event); err != nil {
		// Логируем ошибку, но не прерываем выполнение
		// Отзыв уже создан, проблемы с Kafka не критичны
		fmt.Printf("failed to publish review created event: %v\n", err)
	}

	metrics.ReviewsCreated.Inc()

	return review, nil
}

// appendReviewRef дописывает обратную ссылку в запись пользователя.
// Несуществующий пользователь - предупреждение (существование автора
// при создании не проверяется). Остальные сбои уходят в backlog
// и повторяются фоновым воркером.
func (s *ReviewService) appendReviewRef(ctx context.Context, userID string, field entity.ReviewRefField, reviewID string) {
	err := s.userRepo.AppendReviewRef(ctx, userID, field, reviewID)
	if err == nil {
		return
	}

	if errors.Is(err, repository.ErrUserNotFound) {
		logger.Warn().
			Str("user_id", userID).
			Str("field", string(field)).
			Str("review_id", reviewID).
			Msg("Skipping back-reference for unknown user")
		return
	}

	logger.Error().
		Err(err).
		Str("user_id", userID).
		Str("field", string(field)).
		Str("review_id", reviewID).
		Msg("Failed to append back-reference, queueing for repair")

	link := &entity.PendingLink{
		UserID:   userID,
		Field:    field,
		ReviewID: reviewID,
	}
	if err := s.linkRepo.Enqueue(ctx, link); err != nil {
		logger.Error().Err(err).Msg("Failed to enqueue pending link")
	}
}

// GetReview получает отзыв по ID, сначала из кеша
func (s *ReviewService) GetReview(ctx context.Context, reviewID string) (*entity.Review, error) {
	if s.cache != nil {
		cached, err := s.cache.GetReview(ctx, reviewID)
		if err != nil {
			logger.Warn().Err(err).Str("review_id", reviewID).Msg("Review cache read failed")
		}
		if cached != nil {
			return cached, nil
		}
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetReview(ctx, review); err != nil {
			logger.Warn().Err(err).Str("review_id", reviewID).Msg("Review cache write failed")
		}
	}

	return review, nil
}

// ListReviews возвращает выборку отзывов и общее количество совпадений
func (s *ReviewService) ListReviews(ctx context.Context, query repository.ListReviewsQuery) ([]entity.Review, int64, error) {
	reviews, total, err := s.reviewRepo.List(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, total, nil
}

// UpdateReview обновляет rating/text отзыва
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID string, req *entity.UpdateReviewRequest) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	// Обновляем только переданные поля
	if req.Rating > 0 {
		review.Rating = req.Rating
	}
	if req.Text != "" {
		review.Text = req.Text
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.invalidateCache(ctx, reviewID)

	return review, nil
}

// DeleteReview удаляет отзыв. Ссылки на него в given_reviews/received_reviews
// пользователей намеренно не вычищаются: отзыв трактуется как
// мягко-ссылочная история.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string) error {
	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.invalidateCache(ctx, reviewID)

	event := entity.ReviewEvent{
		EventType: entity.EventReviewDeleted,
		ReviewID:  reviewID,
		Timestamp: time.Now(),
	}
	if err := s.publishReviewEvent(ctx, event); err != nil {
		fmt.Printf("failed to publish review deleted event: %v\n", err)
	}

	metrics.ReviewsDeleted.Inc()

	return nil
}

// LikeReview переключает лайк пользователя на отзыве.
// Направление определяет чистая функция ToggleLike по прочитанному состоянию,
// а применяется оно атомарным $addToSet/$pull, чтобы конкурентные
// переключения разных пользователей не терялись.
func (s *ReviewService) LikeReview(ctx context.Context, reviewID string, userID string) (*entity.LikeReviewResponse, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	_, removed := entity.ToggleLike(review.Likes, userID)

	updated, err := s.reviewRepo.UpdateLikes(ctx, reviewID, userID, !removed)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to update likes: %w", err)
	}

	s.invalidateCache(ctx, reviewID)

	action := "like"
	if removed {
		action = "unlike"
	}
	metrics.ReviewLikes.WithLabelValues(action).Inc()

	event := entity.ReviewEvent{
		EventType: entity.EventReviewLiked,
		ReviewID:  reviewID,
		Author:    updated.Author,
		Target:    updated.Target,
		UserID:    userID,
		Liked:     !removed,
		Timestamp: time.Now(),
	}
	if err := s.publishReviewEvent(ctx, event); err != nil {
		fmt.Printf("failed to publish review liked event: %v\n", err)
	}

	return &entity.LikeReviewResponse{
		ID:        updated.ID.Hex(),
		Likes:     updated.Likes,
		LikeCount: len(updated.Likes),
	}, nil
}

func (s *ReviewService) invalidateCache(ctx context.Context, reviewID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteReview(ctx, reviewID); err != nil {
		logger.Warn().Err(err).Str("review_id", reviewID).Msg("Review cache invalidation failed")
	}
}

// publishReviewEvent отправляет событие об отзыве в Kafka
func (s *ReviewService) publishReviewEvent(ctx context.Context, event entity.ReviewEvent) error {
	// Сериализуем событие в JSON
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal review event: %w", err)
	}

	// Отправляем в Kafka с ключом = ReviewID для партиционирования
	if err := s.kafkaProducer.PublishMessage(ctx, event.ReviewID, eventData); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}
