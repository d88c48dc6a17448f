package learning

import (
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/pickleball-backend/internal/domain"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

type LearnerProgressRepo interface {
	ListIncomplete(dbc dbctx.Context, learnerID string) ([]*types.LearnerProgress, error)
}

type learnerProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearnerProgressRepo(db *gorm.DB, baseLog *logger.Logger) LearnerProgressRepo {
	return &learnerProgressRepo{db: db, log: baseLog.With("repo", "LearnerProgressRepo")}
}

func (r *learnerProgressRepo) ListIncomplete(dbc dbctx.Context, learnerID string) ([]*types.LearnerProgress, error) {
	learnerID = strings.TrimSpace(learnerID)
	if learnerID == "" {
		return []*types.LearnerProgress{}, nil
	}
	var out []*types.LearnerProgress
	err := dbc.DB(r.db).
		Preload("Lesson").
		Where("learner_id = ? AND is_completed = ?", learnerID, false).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
