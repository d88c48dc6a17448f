package learning

import (
	"gorm.io/gorm"

	types "github.com/yungbote/pickleball-backend/internal/domain"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

type CourseRepo interface {
	List(dbc dbctx.Context) ([]*types.Course, error)
	ListByLevel(dbc dbctx.Context, level types.Level) ([]*types.Course, error)
	GetByID(dbc dbctx.Context, id int64) (*types.Course, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) List(dbc dbctx.Context) ([]*types.Course, error) {
	var out []*types.Course
	if err := dbc.DB(r.db).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByLevel returns the level's courses with lessons preloaded, in catalog (id) order.
func (r *courseRepo) ListByLevel(dbc dbctx.Context, level types.Level) ([]*types.Course, error) {
	var out []*types.Course
	err := dbc.DB(r.db).
		Preload("Lessons", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("order_in_course ASC, id ASC")
		}).
		Where("level_required = ?", level).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id int64) (*types.Course, error) {
	if id <= 0 {
		return nil, nil
	}
	var row types.Course
	err := dbc.DB(r.db).
		Preload("Lessons", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("order_in_course ASC, id ASC")
		}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}
