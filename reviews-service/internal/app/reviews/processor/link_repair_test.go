package processor

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reviewboard/pkg/logger"
	"reviewboard/reviews-service/internal/app/reviews/entity"
	"reviewboard/reviews-service/internal/app/reviews/repository"
	"reviewboard/reviews-service/internal/app/reviews/repository/mocks"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter("reviews-service-test", "error", io.Discard)
	m.Run()
}

func TestRepairLinks_Empty(t *testing.T) {
	userRepo := new(mocks.MockUserRepository)
	linkRepo := new(mocks.MockLinkRepository)
	scheduler := NewLinkRepairScheduler(userRepo, linkRepo)

	ctx := context.Background()
	linkRepo.On("List", ctx, int64(repairBatchSize)).Return([]entity.PendingLink{}, nil)

	err := scheduler.RepairLinks(ctx)

	assert.NoError(t, err)
	userRepo.AssertNotCalled(t, "AppendReviewRef", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRepairLinks_SuccessRemovesLink(t *testing.T) {
	userRepo := new(mocks.MockUserRepository)
	linkRepo := new(mocks.MockLinkRepository)
	scheduler := NewLinkRepairScheduler(userRepo, linkRepo)

	ctx := context.Background()
	link := entity.PendingLink{
		ID:       primitive.NewObjectID(),
		UserID:   "user-1",
		Field:    entity.FieldGivenReviews,
		ReviewID: "review-1",
	}

	linkRepo.On("List", ctx, int64(repairBatchSize)).Return([]entity.PendingLink{link}, nil)
	userRepo.On("AppendReviewRef", ctx, "user-1", entity.FieldGivenReviews, "review-1").Return(nil)
	linkRepo.On("Remove", ctx, link.ID).Return(nil)

	err := scheduler.RepairLinks(ctx)

	assert.NoError(t, err)
	linkRepo.AssertCalled(t, "Remove", ctx, link.ID)
}

func TestRepairLinks_UnknownUserDropsLink(t *testing.T) {
	userRepo := new(mocks.MockUserRepository)
	linkRepo := new(mocks.MockLinkRepository)
	scheduler := NewLinkRepairScheduler(userRepo, linkRepo)

	ctx := context.Background()
	link := entity.PendingLink{
		ID:       primitive.NewObjectID(),
		UserID:   "ghost",
		Field:    entity.FieldReceivedReviews,
		ReviewID: "review-1",
	}

	linkRepo.On("List", ctx, int64(repairBatchSize)).Return([]entity.PendingLink{link}, nil)
	userRepo.On("AppendReviewRef", ctx, "ghost", entity.FieldReceivedReviews, "review-1").Return(repository.ErrUserNotFound)
	linkRepo.On("Remove", ctx, link.ID).Return(nil)

	err := scheduler.RepairLinks(ctx)

	assert.NoError(t, err)
	linkRepo.AssertCalled(t, "Remove", ctx, link.ID)
	linkRepo.AssertNotCalled(t, "IncrementAttempts", mock.Anything, mock.Anything)
}

func TestRepairLinks_TransientFailureKeepsLink(t *testing.T) {
	userRepo := new(mocks.MockUserRepository)
	linkRepo := new(mocks.MockLinkRepository)
	scheduler := NewLinkRepairScheduler(userRepo, linkRepo)

	ctx := context.Background()
	link := entity.PendingLink{
		ID:       primitive.NewObjectID(),
		UserID:   "user-1",
		Field:    entity.FieldGivenReviews,
		ReviewID: "review-1",
		Attempts: 2,
	}

	linkRepo.On("List", ctx, int64(repairBatchSize)).Return([]entity.PendingLink{link}, nil)
	userRepo.On("AppendReviewRef", ctx, "user-1", entity.FieldGivenReviews, "review-1").Return(errors.New("write timeout"))
	linkRepo.On("IncrementAttempts", ctx, link.ID).Return(nil)

	err := scheduler.RepairLinks(ctx)

	assert.NoError(t, err)
	linkRepo.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	linkRepo.AssertCalled(t, "IncrementAttempts", ctx, link.ID)
}

func TestRepairLinks_ListError(t *testing.T) {
	userRepo := new(mocks.MockUserRepository)
	linkRepo := new(mocks.MockLinkRepository)
	scheduler := NewLinkRepairScheduler(userRepo, linkRepo)

	ctx := context.Background()
	linkRepo.On("List", ctx, mock.Anything).Return(nil, errors.New("db error"))

	err := scheduler.RepairLinks(ctx)

	assert.Error(t, err)
}

func TestLinkRepairScheduler_StartStop(t *testing.T) {
	userRepo := new(mocks.MockUserRepository)
	linkRepo := new(mocks.MockLinkRepository)
	scheduler := NewLinkRepairScheduler(userRepo, linkRepo)

	ctx := context.Background()

	err := scheduler.Start(ctx, "@every 1h")
	assert.NoError(t, err)

	scheduler.Stop()
}

func TestLinkRepairScheduler_InvalidSchedule(t *testing.T) {
	scheduler := NewLinkRepairScheduler(new(mocks.MockUserRepository), new(mocks.MockLinkRepository))

	err := scheduler.Start(context.Background(), "not a schedule")

	assert.Error(t, err)
}
