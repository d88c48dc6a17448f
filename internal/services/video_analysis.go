package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/pickleball-backend/internal/clients/analyzer"
	"github.com/yungbote/pickleball-backend/internal/clients/redis"
	"github.com/yungbote/pickleball-backend/internal/data/repos"
	types "github.com/yungbote/pickleball-backend/internal/domain"
	"github.com/yungbote/pickleball-backend/internal/modules/videoanalysis"
	"github.com/yungbote/pickleball-backend/internal/observability"
	perrors "github.com/yungbote/pickleball-backend/internal/pkg/errors"
	"github.com/yungbote/pickleball-backend/internal/platform/apierr"
	"github.com/yungbote/pickleball-backend/internal/platform/ctxutil"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/filestage"
	"github.com/yungbote/pickleball-backend/internal/platform/gcp"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

// MaxVideoBytes caps a single upload at 100 MiB.
const MaxVideoBytes int64 = 100 << 20

const defaultSideEffectTimeout = 2 * time.Minute

// Pipeline states, in the order a successful run visits them.
const (
	StateReceived    = "received"
	StateValidated   = "validated"
	StateStaged      = "staged"
	StateAnalyzed    = "analyzed"
	StatePromoted    = "promoted"
	StateInterpreted = "interpreted"
	StateRecommended = "recommended"
	StatePersisted   = "persisted"

	StateInvalid         = "invalid"
	StateStageFailed     = "stage_failed"
	StateRejected        = "rejected"
	StateGatewayFailed   = "gateway_failed"
	StateMalformed       = "malformed"
	StatePromoteFailed   = "promote_failed"
	StateInterpretFailed = "interpret_failed"
	StateRecommendFailed = "recommend_failed"
	StatePersistFailed   = "persist_failed"
	StateSelfAssessed    = "self_assessed"
)

type ResultStatus string

const (
	ResultCompleted    ResultStatus = "completed"
	ResultSelfAssessed ResultStatus = "self_assessed"
	ResultRejected     ResultStatus = "rejected"
	ResultFailed       ResultStatus = "failed"
)

const (
	messageCompleted    = "Video analysis successful"
	messageSelfAssessed = "Self-assessed level recorded"
	messageRejected     = "Video analysis unsuccessful"
)

// Submission is one inbound analysis request. Video is nil when only a level is self-assessed.
type Submission struct {
	UserID            string `validate:"required"`
	Video             io.Reader
	FileName          string
	Size              int64
	ContentType       string
	SelfAssessedLevel string
}

type AnalysisPayload struct {
	AnalysisID           string                         `json:"analysisId,omitempty"`
	SkillLevel           string                         `json:"skillLevel"`
	Summary              string                         `json:"summary"`
	AverageScore         *float64                       `json:"averageScore"`
	ShotAnalysis         json.RawMessage                `json:"shotAnalysis,omitempty"`
	DetailedFeedbacks    json.RawMessage                `json:"detailedFeedbacks,omitempty"`
	Recommendations      []videoanalysis.Recommendation `json:"recommendations"`
	RecommendedLessonIDs []string                       `json:"recommendedLessonIds,omitempty"`
}

type Result struct {
	Status  ResultStatus     `json:"status"`
	Message string           `json:"message"`
	Payload *AnalysisPayload `json:"data,omitempty"`
}

// VideoAnalysisService runs a submission through stage, analyze, interpret, recommend and persist.
type VideoAnalysisService interface {
	// Analyze always returns a result. A non-nil error carries the failure kind; only
	// validation and rejection errors hold caller-safe messages.
	Analyze(ctx context.Context, sub Submission) (*Result, error)
	// Shutdown waits for post-commit side effects still running.
	Shutdown(ctx context.Context) error
}

type VideoAnalysisDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Stage       *filestage.Manager
	Analyzer    analyzer.Client
	Interpreter *videoanalysis.Interpreter
	Curriculum  CurriculumService

	Learners repos.LearnerRepo
	Courses  repos.CourseRepo
	Analyses repos.VideoAnalysisRepo
	Latest   repos.VideoLessonRecommendationRepo

	// Optional post-commit effects.
	Events  redis.EventBus
	Archive gcp.VideoArchive

	SideEffectTimeout time.Duration
}

type videoAnalysisService struct {
	db  *gorm.DB
	log *logger.Logger

	stage       *filestage.Manager
	analyzer    analyzer.Client
	interpreter *videoanalysis.Interpreter
	curriculum  CurriculumService

	learners repos.LearnerRepo
	courses  repos.CourseRepo
	analyses repos.VideoAnalysisRepo
	latest   repos.VideoLessonRecommendationRepo

	events  redis.EventBus
	archive gcp.VideoArchive

	validate      *validator.Validate
	effectTimeout time.Duration
	effects       sync.WaitGroup
}

func NewVideoAnalysisService(deps VideoAnalysisDeps) VideoAnalysisService {
	events := deps.Events
	if events == nil {
		events = redis.NoopEventBus()
	}
	archive := deps.Archive
	if archive == nil {
		archive = gcp.NoopArchive()
	}
	timeout := deps.SideEffectTimeout
	if timeout <= 0 {
		timeout = defaultSideEffectTimeout
	}
	return &videoAnalysisService{
		db:            deps.DB,
		log:           deps.Log.With("service", "VideoAnalysisService"),
		stage:         deps.Stage,
		analyzer:      deps.Analyzer,
		interpreter:   deps.Interpreter,
		curriculum:    deps.Curriculum,
		learners:      deps.Learners,
		courses:       deps.Courses,
		analyses:      deps.Analyses,
		latest:        deps.Latest,
		events:        events,
		archive:       archive,
		validate:      validator.New(),
		effectTimeout: timeout,
	}
}

// run carries per-submission state for logging, tracing and metrics.
type run struct {
	log   *logger.Logger
	span  trace.Span
	start time.Time
}

func (r *run) enter(state string) {
	observability.Current().IncPipelineState(state)
	r.span.AddEvent(state)
	r.log.Debug("pipeline state", "state", state)
}

// finish records the terminal state and returns the result paired with err.
func (r *run) finish(state string, res *Result, err error) (*Result, error) {
	r.enter(state)
	observability.Current().ObservePipeline(state, time.Since(r.start))
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, string(perrors.KindOf(err)))
	}
	r.span.End()
	return res, err
}

// fault logs a system failure with full context and returns the generic caller-facing result.
func (r *run) fault(state string, err error, kv ...any) (*Result, error) {
	args := append([]any{"state", state, "kind", perrors.KindOf(err), "error", err}, kv...)
	r.log.Error("Video analysis pipeline failed", args...)
	return r.finish(state, failedResult(), err)
}

func failedResult() *Result {
	return &Result{Status: ResultFailed, Message: apierr.GenericMessage}
}

func (s *videoAnalysisService) Analyze(ctx context.Context, sub Submission) (*Result, error) {
	const op = "pipeline.Analyze"
	ctx = ctxutil.Default(ctx)
	ctx, span := otel.Tracer("pipeline").Start(ctx, op)

	sub.UserID = strings.TrimSpace(sub.UserID)
	span.SetAttributes(attribute.Bool("pipeline.has_video", sub.Video != nil))
	r := &run{log: s.log.With("user_id", sub.UserID), span: span, start: time.Now()}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		r.log = r.log.With("request_id", td.RequestID, "trace_id", td.TraceID)
	}
	r.enter(StateReceived)

	if err := s.validateSubmission(&sub); err != nil {
		r.log.Info("Submission rejected by validation", "error", err)
		return r.finish(StateInvalid, &Result{Status: ResultFailed, Message: err.Msg}, err)
	}
	r.enter(StateValidated)

	if sub.Video == nil {
		return s.selfAssess(ctx, r, sub)
	}
	return s.analyzeVideo(ctx, r, sub)
}

func (s *videoAnalysisService) validateSubmission(sub *Submission) *perrors.Error {
	const op = "pipeline.validate"
	if err := s.validate.Struct(sub); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "UserID" {
			return perrors.Validation(op, "user id is required")
		}
		return perrors.Validation(op, "invalid submission")
	}
	sub.SelfAssessedLevel = strings.TrimSpace(sub.SelfAssessedLevel)
	if sub.Video == nil {
		if sub.SelfAssessedLevel == "" {
			return perrors.Validation(op, "provide either a video or a self-assessed level")
		}
		return nil
	}
	if sub.Size == 0 {
		return perrors.Validation(op, "video file is empty")
	}
	if sub.Size > MaxVideoBytes {
		return perrors.Validation(op, fmt.Sprintf("video exceeds the %d MiB limit", MaxVideoBytes>>20))
	}
	if !isVideoContentType(sub.ContentType) {
		return perrors.Validation(op, "invalid video format; a video content type is required")
	}
	return nil
}

func isVideoContentType(raw string) bool {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "video/")
}

func (s *videoAnalysisService) analyzeVideo(ctx context.Context, r *run, sub Submission) (*Result, error) {
	dbc := dbctx.Context{Ctx: ctx}

	expected := sub.Size
	if expected < 0 {
		expected = -1
	}
	staged, err := s.stage.Stage(ctx, io.LimitReader(sub.Video, MaxVideoBytes+1), sub.FileName, expected)
	if err != nil {
		return r.fault(StateStageFailed, err, "file_name", sub.FileName)
	}
	// Every exit from here on removes the temp file unless it was promoted or retained.
	defer staged.Release()
	if staged.Size > MaxVideoBytes {
		verr := perrors.Validation("pipeline.stage", fmt.Sprintf("video exceeds the %d MiB limit", MaxVideoBytes>>20))
		return r.finish(StateInvalid, &Result{Status: ResultFailed, Message: verr.Msg}, verr)
	}
	r.log = r.log.With("temp_path", staged.Path)
	r.enter(StateStaged)

	verdict, err := s.analyzer.Invoke(ctx, staged.Path, sub.UserID)
	if err != nil {
		return r.fault(StateGatewayFailed, err)
	}

	var payload *analyzer.Payload
	switch verdict.Kind {
	case analyzer.KindAccepted:
		payload = verdict.Payload
	case analyzer.KindRejected:
		r.log.Info("Video rejected by analyzer", "reason", verdict.Reason)
		return r.finish(StateRejected, &Result{
			Status:  ResultRejected,
			Message: messageRejected + ": " + verdict.Reason,
		}, perrors.Rejection("pipeline.analyze", verdict.Reason))
	case analyzer.KindMalformed:
		return r.fault(StateMalformed,
			perrors.Malformed("pipeline.analyze", "missing sections: "+strings.Join(verdict.Missing, ", ")),
			"missing", verdict.Missing,
		)
	default:
		return r.fault(StateMalformed, perrors.Malformed("pipeline.analyze", fmt.Sprintf("unknown verdict %s", verdict.Kind)))
	}
	r.enter(StateAnalyzed)

	promoted, err := staged.Promote(sub.FileName)
	if err != nil {
		// The analyzer accepted this video; the retained temp file needs an operator.
		return r.fault(StatePromoteFailed, err, "retained", staged.Retained(), "operator_attention", true)
	}
	// Removes the permanent file unless the transaction below commits.
	defer promoted.Release()
	r.log = r.log.With("video_path", promoted.Path)
	r.enter(StatePromoted)

	facts, err := videoanalysis.Interpret(payload)
	if err != nil {
		return r.fault(StateInterpretFailed, err)
	}
	r.enter(StateInterpreted)

	courses, err := s.courses.ListByLevel(dbc, facts.SkillLevel)
	if err != nil {
		return r.fault(StateRecommendFailed, perrors.Persistence("pipeline.recommend", err))
	}
	recs := videoanalysis.Recommend(facts, facts.SkillLevel, courses)
	lessons, err := s.curriculum.RecommendFromAnalysis(dbc, sub.UserID, facts.SkillLevel, facts.WeakestShots)
	if err != nil {
		return r.fault(StateRecommendFailed, perrors.Persistence("pipeline.recommend", err))
	}
	r.enter(StateRecommended)

	row, latest, err := buildRecords(sub.UserID, promoted.Path, facts, recs, lessons)
	if err != nil {
		return r.fault(StatePersistFailed, perrors.Persistence("pipeline.persist", err))
	}
	if err := s.persist(ctx, sub.UserID, facts, row, latest); err != nil {
		return r.fault(StatePersistFailed, err)
	}
	promoted.Commit()

	s.afterCommit(r.log, redis.Event{
		Type:         redis.EventAnalysisCompleted,
		UserID:       sub.UserID,
		AnalysisID:   row.ID.String(),
		SkillLevel:   facts.SkillLevel.String(),
		AverageScore: facts.AverageScore,
		OccurredAt:   row.CreatedAt,
	}, promoted.Path, gcp.ObjectKey(sub.UserID, row.ID.String(), promoted.Name))

	r.log.Info("Video analysis completed",
		"analysis_id", row.ID,
		"skill_level", facts.SkillLevel,
		"frames", facts.FrameCount,
		"recommendations", len(recs),
		"lessons", len(lessons),
	)
	return r.finish(StatePersisted, &Result{
		Status:  ResultCompleted,
		Message: messageCompleted,
		Payload: &AnalysisPayload{
			AnalysisID:           row.ID.String(),
			SkillLevel:           facts.SkillLevel.String(),
			Summary:              facts.Summary,
			AverageScore:         facts.AverageScore,
			ShotAnalysis:         payload.ShotAnalysis,
			DetailedFeedbacks:    payload.DetailedFeedbacks,
			Recommendations:      recs,
			RecommendedLessonIDs: lessonIDStrings(lessons),
		},
	}, nil)
}

func buildRecords(
	userID, videoPath string,
	facts *videoanalysis.Facts,
	recs []videoanalysis.Recommendation,
	lessons []*types.Lesson,
) (*types.VideoAnalysis, *types.VideoLessonRecommendation, error) {
	recsJSON, err := json.Marshal(recs)
	if err != nil {
		return nil, nil, fmt.Errorf("encode recommendations: %w", err)
	}
	weakest := facts.WeakestShots
	if weakest == nil {
		weakest = []string{}
	}
	weakestJSON, err := json.Marshal(weakest)
	if err != nil {
		return nil, nil, fmt.Errorf("encode weakest shots: %w", err)
	}
	lessonJSON, err := lessonIDsJSON(lessons)
	if err != nil {
		return nil, nil, fmt.Errorf("encode lesson ids: %w", err)
	}

	now := time.Now().UTC()
	path := videoPath
	p := facts.Payload
	row := &types.VideoAnalysis{
		ID:                 uuid.New(),
		UserID:             userID,
		VideoPath:          &path,
		SkillLevel:         facts.SkillLevel.String(),
		AverageScore:       facts.AverageScore,
		Summary:            facts.Summary,
		DetailedFeedbacks:  datatypes.JSON(p.DetailedFeedbacks),
		TechniqueAnalysis:  datatypes.JSON(p.TechniqueAnalysis),
		ShotAnalysis:       datatypes.JSON(p.ShotAnalysis),
		PerformanceMetrics: datatypes.JSON(p.PerformanceMetrics),
		Recommendations:    datatypes.JSON(recsJSON),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	latest := &types.VideoLessonRecommendation{
		ID:                   uuid.New(),
		UserID:               userID,
		VideoAnalysisID:      row.ID,
		SkillLevel:           facts.SkillLevel.String(),
		AverageScore:         facts.AverageScore,
		WeakestShots:         datatypes.JSON(weakestJSON),
		RecommendedLessonIDs: datatypes.JSON(lessonJSON),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	return row, latest, nil
}

// persist applies the skill level and writes both records in one transaction.
func (s *videoAnalysisService) persist(
	ctx context.Context,
	userID string,
	facts *videoanalysis.Facts,
	row *types.VideoAnalysis,
	latest *types.VideoLessonRecommendation,
) error {
	const op = "pipeline.persist"
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.learners.FindOrCreate(dbc, userID); err != nil {
			return fmt.Errorf("find or create learner: %w", err)
		}
		if err := s.interpreter.Apply(dbc, userID, facts); err != nil {
			return err
		}
		if err := s.analyses.Create(dbc, row); err != nil {
			return fmt.Errorf("create video analysis: %w", err)
		}
		if err := s.latest.Upsert(dbc, latest); err != nil {
			return fmt.Errorf("upsert latest recommendation: %w", err)
		}
		return nil
	})
	if err != nil {
		return perrors.Persistence(op, err)
	}
	return nil
}

func (s *videoAnalysisService) selfAssess(ctx context.Context, r *run, sub Submission) (*Result, error) {
	const op = "pipeline.self_assess"
	level := types.ParseLevel(sub.SelfAssessedLevel)
	if !types.KnownLevel(sub.SelfAssessedLevel) {
		r.log.Info("Unrecognized self-assessed level, defaulting", "raw", sub.SelfAssessedLevel, "level", level)
	}
	facts := &videoanalysis.Facts{SkillLevel: level, Summary: messageSelfAssessed + ": " + level.String()}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.learners.FindOrCreate(dbc, sub.UserID); err != nil {
			return fmt.Errorf("find or create learner: %w", err)
		}
		return s.interpreter.Apply(dbc, sub.UserID, facts)
	})
	if err != nil {
		return r.fault(StatePersistFailed, perrors.Persistence(op, err))
	}

	courses, err := s.courses.ListByLevel(dbctx.Context{Ctx: ctx}, level)
	if err != nil {
		return r.fault(StateRecommendFailed, perrors.Persistence(op, err))
	}
	recs := videoanalysis.Recommend(nil, level, courses)

	s.afterCommit(r.log, redis.Event{
		Type:       redis.EventSkillAssessed,
		UserID:     sub.UserID,
		SkillLevel: level.String(),
		OccurredAt: time.Now().UTC(),
	}, "", "")

	r.log.Info("Self-assessed level recorded", "skill_level", level, "recommendations", len(recs))
	return r.finish(StateSelfAssessed, &Result{
		Status:  ResultSelfAssessed,
		Message: messageSelfAssessed,
		Payload: &AnalysisPayload{
			SkillLevel:      level.String(),
			Summary:         facts.Summary,
			Recommendations: recs,
		},
	}, nil)
}

// afterCommit publishes ev and archives the video in the background. Failures are logged only.
func (s *videoAnalysisService) afterCommit(log *logger.Logger, ev redis.Event, videoPath, archiveKey string) {
	s.effects.Add(1)
	go func() {
		defer s.effects.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.effectTimeout)
		defer cancel()

		err := s.events.Publish(ctx, ev)
		observability.Current().IncSideEffect("event", err == nil)
		if err != nil {
			log.Warn("Publish analysis event failed", "event", ev.Type, "error", err)
		}

		if videoPath == "" || archiveKey == "" {
			return
		}
		url, err := s.archive.Archive(ctx, videoPath, archiveKey)
		observability.Current().IncSideEffect("archive", err == nil)
		if err != nil {
			log.Warn("Archive video failed", "path", videoPath, "key", archiveKey, "error", err)
			return
		}
		if url != "" {
			log.Info("Video archived", "url", url)
		}
	}()
}

func (s *videoAnalysisService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.effects.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func lessonIDStrings(ls []*types.Lesson) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID.String())
	}
	return out
}
