package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/pickleball-backend/internal/data/repos"
	"github.com/yungbote/pickleball-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pickleball-backend/internal/domain"
	perrors "github.com/yungbote/pickleball-backend/internal/pkg/errors"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
)

func TestAnalysisQueryLatestRecommendation(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	analyses := repos.NewVideoAnalysisRepo(db, log)
	latest := repos.NewVideoLessonRecommendationRepo(db, log)
	svc := NewAnalysisQueryService(db, log, analyses, latest, repos.NewLessonRepo(db, log))

	got, err := svc.LatestRecommendation(dbc, "u1")
	if err != nil {
		t.Fatalf("LatestRecommendation before any analysis: %v", err)
	}
	if got != nil {
		t.Fatalf("LatestRecommendation before any analysis: want=nil got=%+v", got)
	}

	c := testutil.SeedCourse(t, ctx, tx, "Course", types.LevelBeginner,
		testutil.LessonSeed{Title: "L1", Skill: types.SkillGrip},
	)
	row := &types.VideoAnalysis{UserID: "u1", SkillLevel: "Beginner", Summary: "s"}
	if err := analyses.Create(dbc, row); err != nil {
		t.Fatalf("Create: %v", err)
	}
	now := time.Now().UTC()
	if err := latest.Upsert(dbc, &types.VideoLessonRecommendation{
		ID:                   uuid.New(),
		UserID:               "u1",
		VideoAnalysisID:      row.ID,
		SkillLevel:           "Beginner",
		WeakestShots:         datatypes.JSON([]byte(`["dink"]`)),
		RecommendedLessonIDs: datatypes.JSON([]byte(`["` + c.Lessons[0].ID.String() + `"]`)),
		CreatedAt:            now,
		UpdatedAt:            now,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err = svc.LatestRecommendation(dbc, "u1")
	if err != nil {
		t.Fatalf("LatestRecommendation: %v", err)
	}
	if got == nil || got.Record.VideoAnalysisID != row.ID {
		t.Fatalf("record: want analysis %s got=%+v", row.ID, got)
	}
	if len(got.Lessons) != 1 || got.Lessons[0].Title != "L1" {
		t.Fatalf("lessons: want=[L1] got=%v", lessonTitles(got.Lessons))
	}

	list, err := svc.ListUserAnalyses(dbc, "u1")
	if err != nil {
		t.Fatalf("ListUserAnalyses: %v", err)
	}
	if len(list) != 1 || list[0].ID != row.ID {
		t.Fatalf("ListUserAnalyses: want=[%s] got=%d rows", row.ID, len(list))
	}
	one, err := svc.GetAnalysis(dbc, row.ID)
	if err != nil || one == nil || one.ID != row.ID {
		t.Fatalf("GetAnalysis: want=%s got=%+v err=%v", row.ID, one, err)
	}
}

func TestAnalysisQueryRequiresUserID(t *testing.T) {
	svc := NewAnalysisQueryService(nil, testutil.Logger(t), nil, nil, nil)
	if _, err := svc.ListUserAnalyses(dbctx.Context{Ctx: context.Background()}, " "); !perrors.Is(err, perrors.KindValidation) {
		t.Fatalf("ListUserAnalyses: want validation error got=%v", err)
	}
	if _, err := svc.LatestRecommendation(dbctx.Context{Ctx: context.Background()}, ""); !perrors.Is(err, perrors.KindValidation) {
		t.Fatalf("LatestRecommendation: want validation error got=%v", err)
	}
}
