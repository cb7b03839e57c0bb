package repository

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20

	defaultSortField = "created_at"
)

// ListReviewsQuery - типизированное описание выборки отзывов:
// фильтры по автору и адресату, сортировка и пагинация.
type ListReviewsQuery struct {
	Author string
	Target string
	Sort   string // имя поля, префикс "-" для сортировки по убыванию
	Page   int
	Limit  int
}

// Filter строит фильтр с точным совпадением по author/target.
// Пустые значения не накладывают ограничений: выборка без параметров
// возвращает все отзывы.
func (q ListReviewsQuery) Filter() bson.M {
	filter := bson.M{}
	if q.Author != "" {
		filter["author"] = q.Author
	}
	if q.Target != "" {
		filter["target"] = q.Target
	}
	return filter
}

// SortSpec разбирает директиву сортировки. По умолчанию - новые отзывы первыми.
func (q ListReviewsQuery) SortSpec() bson.D {
	field := strings.TrimSpace(q.Sort)
	order := 1

	if field == "" {
		return bson.D{{Key: defaultSortField, Value: -1}}
	}

	if strings.HasPrefix(field, "-") {
		field = field[1:]
		order = -1
	}

	if field == "" {
		return bson.D{{Key: defaultSortField, Value: -1}}
	}

	return bson.D{{Key: field, Value: order}}
}

// Pagination нормализует page/limit и возвращает skip/limit для запроса.
// Неположительные значения заменяются значениями по умолчанию.
func (q ListReviewsQuery) Pagination() (skip int64, limit int64) {
	page := q.Page
	if page < 1 {
		page = DefaultPage
	}

	size := q.Limit
	if size < 1 {
		size = DefaultLimit
	}

	return int64(page-1) * int64(size), int64(size)
}
