package analysis

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pickleball-backend/internal/domain"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

type VideoLessonRecommendationRepo interface {
	FindLatestByUser(dbc dbctx.Context, userID string) (*types.VideoLessonRecommendation, error)
	// Upsert replaces the user's row unless the stored row is newer than row.
	Upsert(dbc dbctx.Context, row *types.VideoLessonRecommendation) error
}

type videoLessonRecommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoLessonRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) VideoLessonRecommendationRepo {
	return &videoLessonRecommendationRepo{db: db, log: baseLog.With("repo", "VideoLessonRecommendationRepo")}
}

func (r *videoLessonRecommendationRepo) FindLatestByUser(dbc dbctx.Context, userID string) (*types.VideoLessonRecommendation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	var row types.VideoLessonRecommendation
	err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
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

func (r *videoLessonRecommendationRepo) Upsert(dbc dbctx.Context, row *types.VideoLessonRecommendation) error {
	if row == nil || strings.TrimSpace(row.UserID) == "" {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "video_lesson_recommendation.created_at <= excluded.created_at"},
			}},
			DoUpdates: clause.AssignmentColumns([]string{
				"video_analysis_id",
				"skill_level",
				"average_score",
				"weakest_shots",
				"recommended_lesson_ids",
				"created_at",
				"updated_at",
			}),
		}).
		Create(row).Error
}
