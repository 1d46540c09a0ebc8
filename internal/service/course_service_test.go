package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/config"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
)

type catalogGatewayStub struct {
	fetchCalls int
	listCalls  int
	courses    map[string]models.Course
	err        error
}

func (s *catalogGatewayStub) FetchCourse(ctx context.Context, id string) (*models.Course, error) {
	s.fetchCalls++
	if s.err != nil {
		return nil, s.err
	}
	course, ok := s.courses[id]
	if !ok {
		return nil, errors.New("404")
	}
	return &course, nil
}

func (s *catalogGatewayStub) ListCourses(ctx context.Context, page, limit int) ([]models.Course, int, error) {
	s.listCalls++
	if s.err != nil {
		return nil, 0, s.err
	}
	out := make([]models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (s *catalogGatewayStub) EnrollmentCounts(ctx context.Context, ids []string) ([]models.CourseCount, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.CourseCount{{CourseID: "a", Enrollments: 12, Seats: 30}}, nil
}

type memoryCacheStub struct {
	values map[string][]byte
}

func (s *memoryCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (s *memoryCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.values == nil {
		s.values = make(map[string][]byte)
	}
	s.values[key] = nil
	return nil
}

func TestCourseServiceFetchesAndCaches(t *testing.T) {
	gw := &catalogGatewayStub{courses: map[string]models.Course{
		"a": {ID: "a", Title: "Data Analytics", Price: 15000},
	}}
	cache := &memoryCacheStub{}
	svc := NewCourseService(gw, cache, config.CatalogConfig{CacheTTL: time.Minute}, nil)

	course, err := svc.Course(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Data Analytics", course.Title)
	assert.Equal(t, 1, gw.fetchCalls)
	assert.Contains(t, cache.values, "course:a")
}

func TestCourseServiceNotFound(t *testing.T) {
	gw := &catalogGatewayStub{courses: map[string]models.Course{}}
	svc := NewCourseService(gw, nil, config.CatalogConfig{}, nil)

	_, err := svc.Course(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceListPagination(t *testing.T) {
	gw := &catalogGatewayStub{courses: map[string]models.Course{
		"a": {ID: "a", Title: "Data Analytics", Price: 15000},
		"b": {ID: "b", Title: "Web Development", Price: 20000},
	}}
	svc := NewCourseService(gw, nil, config.CatalogConfig{}, nil)

	courses, pagination, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, courses, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestCourseServiceCountsUpstreamError(t *testing.T) {
	gw := &catalogGatewayStub{err: errors.New("502")}
	svc := NewCourseService(gw, nil, config.CatalogConfig{}, nil)

	_, err := svc.Counts(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrGatewayUnavailable.Code, appErrors.FromError(err).Code)
}
