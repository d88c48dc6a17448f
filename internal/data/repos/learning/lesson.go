package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pickleball-backend/internal/domain"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

type LessonRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Lesson, error)
	ListByCourse(dbc dbctx.Context, courseID int64) ([]*types.Lesson, error)
	ListBySkillAndLevel(dbc dbctx.Context, skill types.SkillType, level types.Level) ([]*types.Lesson, error)
	ListByLevel(dbc dbctx.Context, level types.Level) ([]*types.Lesson, error)
	FirstCourseLesson(dbc dbctx.Context) (*types.Lesson, error)
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Lesson
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// GetByIDs returns the lessons that exist, in the order the ids were given.
func (r *lessonRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Lesson, error) {
	if len(ids) == 0 {
		return []*types.Lesson{}, nil
	}
	var rows []*types.Lesson
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.Lesson, len(rows))
	for _, l := range rows {
		byID[l.ID] = l
	}
	out := make([]*types.Lesson, 0, len(rows))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			out = append(out, l)
			delete(byID, id)
		}
	}
	return out, nil
}

func (r *lessonRepo) ListByCourse(dbc dbctx.Context, courseID int64) ([]*types.Lesson, error) {
	var out []*types.Lesson
	err := dbc.DB(r.db).
		Where("course_id = ?", courseID).
		Order("order_in_course ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonRepo) ListBySkillAndLevel(dbc dbctx.Context, skill types.SkillType, level types.Level) ([]*types.Lesson, error) {
	var out []*types.Lesson
	err := dbc.DB(r.db).
		Where("skill_type = ? AND level = ?", skill, level).
		Order("order_in_course ASC, course_id ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonRepo) ListByLevel(dbc dbctx.Context, level types.Level) ([]*types.Lesson, error) {
	var out []*types.Lesson
	err := dbc.DB(r.db).
		Where("level = ?", level).
		Order("order_in_course ASC, course_id ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FirstCourseLesson returns the opening lesson of the first course that has one.
func (r *lessonRepo) FirstCourseLesson(dbc dbctx.Context) (*types.Lesson, error) {
	var row types.Lesson
	err := dbc.DB(r.db).
		Where("order_in_course = ?", 1).
		Order("course_id ASC, id ASC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
