//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reviewboard/pkg/logger"
	"reviewboard/reviews-service/internal/app/reviews/entity"
	"reviewboard/reviews-service/internal/app/reviews/handler"
	"reviewboard/reviews-service/internal/app/reviews/repository"
	"reviewboard/reviews-service/internal/app/reviews/service"
)

type MockKafkaProducer struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockKafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKafkaProducer) Close() error { return nil }

type ReviewsIntegrationTestSuite struct {
	suite.Suite
	client        *mongo.Client
	db            *mongo.Database
	router        *gin.Engine
	kafkaProducer *MockKafkaProducer
	authorID      string
	targetID      string
}

func TestReviewsIntegrationSuite(t *testing.T) {
	suite.Run(t, new(ReviewsIntegrationTestSuite))
}

func (s *ReviewsIntegrationTestSuite) SetupSuite() {
	logger.InitWithWriter("reviews-service-test", "error", io.Discard)

	mongoURI := getEnv("TEST_MONGODB_URI", "mongodb://localhost:27018")
	dbName := getEnv("TEST_MONGODB_DATABASE", "reviewboard_test_db")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	s.client, err = mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	s.Require().NoError(err)

	s.db = s.client.Database(dbName)

	reviewRepo := repository.NewReviewRepository(s.db)
	userRepo := repository.NewUserRepository(s.db)
	linkRepo := repository.NewLinkRepository(s.db)
	s.kafkaProducer = &MockKafkaProducer{Messages: make([][]byte, 0)}
	reviewService := service.NewReviewService(reviewRepo, userRepo, linkRepo, nil, s.kafkaProducer)

	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	reviewHandler := handler.NewReviewHandler(reviewService)

	reviews := s.router.Group("/reviews")
	reviews.GET("", reviewHandler.ListReviews)
	reviews.POST("", reviewHandler.CreateReview)
	reviews.GET("/:review_id", reviewHandler.GetReview)
	reviews.PATCH("/:review_id", reviewHandler.UpdateReview)
	reviews.DELETE("/:review_id", reviewHandler.DeleteReview)
	reviews.POST("/:review_id/like", reviewHandler.LikeReview)

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}

func (s *ReviewsIntegrationTestSuite) SetupTest() {
	ctx := context.Background()
	s.db.Collection("reviews").Drop(ctx)
	s.db.Collection("users").Drop(ctx)
	s.db.Collection("review_link_backlog").Drop(ctx)
	s.kafkaProducer.Messages = make([][]byte, 0)
	s.kafkaProducer.ExpectedCalls = nil
	s.kafkaProducer.Calls = nil
	s.kafkaProducer.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	s.authorID = s.seedUser("author")
	s.targetID = s.seedUser("target")
}

func (s *ReviewsIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.client.Disconnect(ctx)
	}
}

func (s *ReviewsIntegrationTestSuite) seedUser(username string) string {
	ctx := context.Background()
	result, err := s.db.Collection("users").InsertOne(ctx, bson.M{
		"username":         username,
		"given_reviews":    []string{},
		"received_reviews": []string{},
	})
	s.Require().NoError(err)
	return result.InsertedID.(primitive.ObjectID).Hex()
}

func (s *ReviewsIntegrationTestSuite) getUser(id string) entity.User {
	ctx := context.Background()
	objectID, err := primitive.ObjectIDFromHex(id)
	s.Require().NoError(err)

	var user entity.User
	err = s.db.Collection("users").FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	s.Require().NoError(err)
	return user
}

func (s *ReviewsIntegrationTestSuite) createReview(rating int, text string) entity.Review {
	body, _ := json.Marshal(entity.CreateReviewRequest{
		Author: s.authorID,
		Target: s.targetID,
		Rating: rating,
		Text:   text,
	})
	req, _ := http.NewRequest(http.MethodPost, "/reviews", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Require().Equal(http.StatusCreated, w.Code)

	var created entity.Review
	json.Unmarshal(w.Body.Bytes(), &created)
	return created
}

func (s *ReviewsIntegrationTestSuite) TestCreateReview_LinksBothUsers() {
	created := s.createReview(4, "good")

	s.Equal(s.authorID, created.Author)
	s.Equal(s.targetID, created.Target)
	s.Empty(created.Likes)

	author := s.getUser(s.authorID)
	target := s.getUser(s.targetID)

	s.Equal([]string{created.ID.Hex()}, author.GivenReviews)
	s.Empty(author.ReceivedReviews)
	s.Equal([]string{created.ID.Hex()}, target.ReceivedReviews)
	s.Empty(target.GivenReviews)
}

func (s *ReviewsIntegrationTestSuite) TestCreateReview_TargetNotFound() {
	body, _ := json.Marshal(entity.CreateReviewRequest{
		Author: s.authorID,
		Target: primitive.NewObjectID().Hex(),
		Rating: 4,
		Text:   "good",
	})
	req, _ := http.NewRequest(http.MethodPost, "/reviews", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNotFound, w.Code)

	// Ни одного отзыва и ни одной обратной ссылки
	count, err := s.db.Collection("reviews").CountDocuments(context.Background(), bson.M{})
	s.NoError(err)
	s.Equal(int64(0), count)

	author := s.getUser(s.authorID)
	s.Empty(author.GivenReviews)
}

func (s *ReviewsIntegrationTestSuite) TestLikeThenUnlike() {
	created := s.createReview(5, "excellent")
	likerID := primitive.NewObjectID().Hex()

	body, _ := json.Marshal(entity.LikeReviewRequest{UserID: likerID})

	// Лайк
	req, _ := http.NewRequest(http.MethodPost, "/reviews/"+created.ID.Hex()+"/like", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	var liked entity.LikeReviewResponse
	json.Unmarshal(w.Body.Bytes(), &liked)
	s.Equal([]string{likerID}, liked.Likes)
	s.Equal(1, liked.LikeCount)

	// Повторный вызов снимает лайк
	req, _ = http.NewRequest(http.MethodPost, "/reviews/"+created.ID.Hex()+"/like", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	var unliked entity.LikeReviewResponse
	json.Unmarshal(w.Body.Bytes(), &unliked)
	s.Empty(unliked.Likes)
	s.Equal(0, unliked.LikeCount)
}

func (s *ReviewsIntegrationTestSuite) TestLike_MissingUserID() {
	created := s.createReview(3, "average")

	req, _ := http.NewRequest(http.MethodPost, "/reviews/"+created.ID.Hex()+"/like", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)

	// Состояние лайков не изменилось
	var stored entity.Review
	err := s.db.Collection("reviews").FindOne(context.Background(), bson.M{"_id": created.ID}).Decode(&stored)
	s.NoError(err)
	s.Empty(stored.Likes)
}

func (s *ReviewsIntegrationTestSuite) TestListReviews_FilterSortPaginate() {
	for i := 1; i <= 5; i++ {
		s.createReview(i, "review text")
	}

	req, _ := http.NewRequest(http.MethodGet, "/reviews?target="+s.targetID+"&sort=-rating&page=1&limit=2", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var response entity.ReviewListResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	s.Equal(int64(5), response.Total)
	s.Len(response.Reviews, 2)
	s.Equal(5, response.Reviews[0].Rating)
	s.Equal(4, response.Reviews[1].Rating)
}

func (s *ReviewsIntegrationTestSuite) TestListReviews_UnfilteredReturnsAll() {
	s.createReview(4, "one")
	s.createReview(5, "two")

	req, _ := http.NewRequest(http.MethodGet, "/reviews", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var response entity.ReviewListResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	s.Equal(int64(2), response.Total)
}

func (s *ReviewsIntegrationTestSuite) TestUpdateAndDeleteReview() {
	created := s.createReview(3, "before")

	body, _ := json.Marshal(entity.UpdateReviewRequest{Rating: 5, Text: "after"})
	req, _ := http.NewRequest(http.MethodPatch, "/reviews/"+created.ID.Hex(), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var updated entity.Review
	json.Unmarshal(w.Body.Bytes(), &updated)
	s.Equal(5, updated.Rating)
	s.Equal("after", updated.Text)

	req, _ = http.NewRequest(http.MethodDelete, "/reviews/"+created.ID.Hex(), nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	// Удаление не вычищает обратные ссылки
	author := s.getUser(s.authorID)
	s.Equal([]string{created.ID.Hex()}, author.GivenReviews)
}

func (s *ReviewsIntegrationTestSuite) TestHealthCheck() {
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
