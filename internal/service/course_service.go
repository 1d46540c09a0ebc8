package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/config"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
)

type catalogGateway interface {
	FetchCourse(ctx context.Context, id string) (*models.Course, error)
	ListCourses(ctx context.Context, page, limit int) ([]models.Course, int, error)
	EnrollmentCounts(ctx context.Context, ids []string) ([]models.CourseCount, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CourseService serves the course catalog, caching upstream reads so the
// enrollment form can price selections without hammering the core API.
type CourseService struct {
	gateway catalogGateway
	cache   cacheStore
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCourseService constructs CourseService. cache may be nil.
func NewCourseService(gw catalogGateway, cache cacheStore, cfg config.CatalogConfig, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CourseService{gateway: gw, cache: cache, ttl: ttl, logger: logger}
}

// Course returns a single catalog entry, cache first.
func (s *CourseService) Course(ctx context.Context, id string) (*models.Course, error) {
	key := "course:" + id
	if s.cache != nil {
		var cached models.Course
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	course, err := s.gateway.FetchCourse(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "course not found")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, course, s.ttl); err != nil {
			s.logger.Warn("failed to cache course", zap.String("course_id", id), zap.Error(err))
		}
	}
	return course, nil
}

// List returns a catalog page with pagination metadata.
func (s *CourseService) List(ctx context.Context, page, limit int) ([]models.Course, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	key := fmt.Sprintf("courses:%d:%d", page, limit)
	type cachedPage struct {
		Courses []models.Course `json:"courses"`
		Total   int             `json:"total"`
	}
	if s.cache != nil {
		var cached cachedPage
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.Courses, &models.Pagination{Page: page, PageSize: limit, TotalCount: cached.Total}, nil
		}
	}

	courses, total, err := s.gateway.ListCourses(ctx, page, limit)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrGatewayUnavailable.Code, appErrors.ErrGatewayUnavailable.Status, "could not load courses")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedPage{Courses: courses, Total: total}, s.ttl); err != nil {
			s.logger.Warn("failed to cache course page", zap.String("key", key), zap.Error(err))
		}
	}
	return courses, &models.Pagination{Page: page, PageSize: limit, TotalCount: total}, nil
}

// Counts returns per-course enrollment occupancy. Cached briefly: the landing
// page polls this and the numbers only need to be roughly fresh.
func (s *CourseService) Counts(ctx context.Context, ids []string) ([]models.CourseCount, error) {
	key := "counts:" + strings.Join(ids, ",")
	if s.cache != nil {
		var cached []models.CourseCount
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	counts, err := s.gateway.EnrollmentCounts(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGatewayUnavailable.Code, appErrors.ErrGatewayUnavailable.Status, "could not load enrollment counts")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, counts, time.Minute); err != nil {
			s.logger.Warn("failed to cache counts", zap.Error(err))
		}
	}
	return counts, nil
}
