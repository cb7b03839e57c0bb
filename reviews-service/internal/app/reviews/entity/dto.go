package entity

// CreateReviewRequest - запрос на создание отзыва
type CreateReviewRequest struct {
	Author string `json:"author" validate:"required"`
	Target string `json:"target" validate:"required"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"required,max=1000"`
}

// UpdateReviewRequest - запрос на обновление отзыва (частичный)
type UpdateReviewRequest struct {
	Rating int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Text   string `json:"text" validate:"omitempty,max=1000"`
}

// LikeReviewRequest - запрос на лайк/снятие лайка
type LikeReviewRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// ListReviewsRequest - параметры выборки отзывов
type ListReviewsRequest struct {
	Author string `form:"author"`
	Target string `form:"target"`
	Sort   string `form:"sort"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ReviewListResponse - ответ со списком отзывов
type ReviewListResponse struct {
	Reviews []Review `json:"reviews"`
	Total   int64    `json:"total"`
}

// LikeReviewResponse - результат переключения лайка
type LikeReviewResponse struct {
	ID        string   `json:"id"`
	Likes     []string `json:"likes"`
	LikeCount int      `json:"like_count"`
}
