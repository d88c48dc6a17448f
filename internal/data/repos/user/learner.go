package user

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pickleball-backend/internal/domain"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

const (
	defaultLearnerGoals    = `["Improve technique"]`
	defaultLearnerProgress = "0%"
)

type LearnerRepo interface {
	GetByUserID(dbc dbctx.Context, userID string) (*types.Learner, error)
	// FindOrCreate returns the user's learner profile, creating a Beginner profile on first use.
	FindOrCreate(dbc dbctx.Context, userID string) (*types.Learner, error)
	UpdateSkillLevel(dbc dbctx.Context, userID string, level types.Level) error
}

type learnerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearnerRepo(db *gorm.DB, baseLog *logger.Logger) LearnerRepo {
	return &learnerRepo{db: db, log: baseLog.With("repo", "LearnerRepo")}
}

func (r *learnerRepo) GetByUserID(dbc dbctx.Context, userID string) (*types.Learner, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	var row types.Learner
	if err := dbc.DB(r.db).Where("user_id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.UserID == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *learnerRepo) FindOrCreate(dbc dbctx.Context, userID string) (*types.Learner, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	now := time.Now().UTC()
	row := &types.Learner{
		UserID:     userID,
		SkillLevel: types.LevelBeginner.String(),
		Goals:      datatypes.JSON([]byte(defaultLearnerGoals)),
		Progress:   defaultLearnerProgress,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	// Concurrent first submissions race here; the loser keeps the winner's row.
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(dbc, userID)
}

func (r *learnerRepo) UpdateSkillLevel(dbc dbctx.Context, userID string, level types.Level) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.Learner{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"skill_level": level.String(),
			"updated_at":  time.Now().UTC(),
		}).Error
}
