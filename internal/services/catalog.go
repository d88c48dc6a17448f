package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pickleball-backend/internal/data/repos"
	types "github.com/yungbote/pickleball-backend/internal/domain"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

// CatalogService is the read-only query surface over courses and lessons.
// Lookups of a missing id return (nil, nil).
type CatalogService interface {
	ListCourses(dbc dbctx.Context) ([]*types.Course, error)
	ListCoursesByLevel(dbc dbctx.Context, level types.Level) ([]*types.Course, error)
	GetCourse(dbc dbctx.Context, id int64) (*types.Course, error)
	ListLessonsByCourse(dbc dbctx.Context, courseID int64) ([]*types.Lesson, error)
	GetLesson(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error)
}

type catalogService struct {
	db      *gorm.DB
	log     *logger.Logger
	courses repos.CourseRepo
	lessons repos.LessonRepo
}

func NewCatalogService(db *gorm.DB, log *logger.Logger, courses repos.CourseRepo, lessons repos.LessonRepo) CatalogService {
	return &catalogService{
		db:      db,
		log:     log.With("service", "CatalogService"),
		courses: courses,
		lessons: lessons,
	}
}

func (s *catalogService) ListCourses(dbc dbctx.Context) ([]*types.Course, error) {
	out, err := s.courses.List(dbc)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return out, nil
}

func (s *catalogService) ListCoursesByLevel(dbc dbctx.Context, level types.Level) ([]*types.Course, error) {
	out, err := s.courses.ListByLevel(dbc, level)
	if err != nil {
		return nil, fmt.Errorf("list courses for level %s: %w", level, err)
	}
	return out, nil
}

func (s *catalogService) GetCourse(dbc dbctx.Context, id int64) (*types.Course, error) {
	c, err := s.courses.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("get course %d: %w", id, err)
	}
	return c, nil
}

func (s *catalogService) ListLessonsByCourse(dbc dbctx.Context, courseID int64) ([]*types.Lesson, error) {
	out, err := s.lessons.ListByCourse(dbc, courseID)
	if err != nil {
		return nil, fmt.Errorf("list lessons for course %d: %w", courseID, err)
	}
	return out, nil
}

func (s *catalogService) GetLesson(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error) {
	l, err := s.lessons.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("get lesson %s: %w", id, err)
	}
	return l, nil
}
