package processor

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"

	"reviewboard/pkg/logger"
	"reviewboard/pkg/metrics"
	"reviewboard/reviews-service/internal/app/reviews/repository"
)

const repairBatchSize = 100

// LinkRepairScheduler повторно записывает обратные ссылки
// given_reviews/received_reviews, не записавшиеся при создании отзыва.
// Сам отзыв - источник истины, поэтому восстановление может быть
// отложенным и best effort.
type LinkRepairScheduler struct {
	cron     *cron.Cron
	userRepo repository.UserRepository
	linkRepo repository.LinkRepository
}

func NewLinkRepairScheduler(userRepo repository.UserRepository, linkRepo repository.LinkRepository) *LinkRepairScheduler {
	return &LinkRepairScheduler{
		cron:     cron.New(),
		userRepo: userRepo,
		linkRepo: linkRepo,
	}
}

func (s *LinkRepairScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting link repair scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RepairLinks(ctx); err != nil {
			logger.Error().Err(err).Msg("Link repair run failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *LinkRepairScheduler) Stop() {
	logger.Info().Msg("Stopping link repair scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RepairLinks обрабатывает партию отложенных ссылок.
// Успех и несуществующий пользователь убирают запись из backlog,
// временный сбой оставляет её на следующий запуск.
func (s *LinkRepairScheduler) RepairLinks(ctx context.Context) error {
	links, err := s.linkRepo.List(ctx, repairBatchSize)
	if err != nil {
		return err
	}

	for _, link := range links {
		err := s.userRepo.AppendReviewRef(ctx, link.UserID, link.Field, link.ReviewID)

		switch {
		case err == nil:
			metrics.ReviewLinkRepairs.WithLabelValues("success").Inc()
			if err := s.linkRepo.Remove(ctx, link.ID); err != nil {
				logger.Error().Err(err).Str("review_id", link.ReviewID).Msg("Failed to remove repaired link")
			}

		case errors.Is(err, repository.ErrUserNotFound):
			// Пользователь так и не появился: повтор не поможет
			metrics.ReviewLinkRepairs.WithLabelValues("user_not_found").Inc()
			logger.Warn().
				Str("user_id", link.UserID).
				Str("review_id", link.ReviewID).
				Msg("Dropping back-reference for unknown user")
			if err := s.linkRepo.Remove(ctx, link.ID); err != nil {
				logger.Error().Err(err).Str("review_id", link.ReviewID).Msg("Failed to remove dead link")
			}

		default:
			metrics.ReviewLinkRepairs.WithLabelValues("failed").Inc()
			logger.Warn().
				Err(err).
				Str("user_id", link.UserID).
				Str("review_id", link.ReviewID).
				Int("attempts", link.Attempts+1).
				Msg("Back-reference repair failed, will retry")
			if err := s.linkRepo.IncrementAttempts(ctx, link.ID); err != nil {
				logger.Error().Err(err).Str("review_id", link.ReviewID).Msg("Failed to increment link attempts")
			}
		}
	}

	return nil
}
