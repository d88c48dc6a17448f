// Package videoanalysis turns an accepted analyzer payload into learner-facing facts and course
// recommendations.
package videoanalysis

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/yungbote/pickleball-backend/internal/clients/analyzer"
	"github.com/yungbote/pickleball-backend/internal/data/repos"
	types "github.com/yungbote/pickleball-backend/internal/domain"
	perrors "github.com/yungbote/pickleball-backend/internal/pkg/errors"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

// Facts is everything derived from one analyzer payload.
type Facts struct {
	SkillLevel   types.Level
	AverageScore *float64
	FrameCount   int
	Issues       IssueCounts
	WeakestShots []string
	Summary      string

	Payload *analyzer.Payload
}

type performanceMetrics struct {
	AverageScore *float64 `json:"averageScore"`
}

type shotAnalysis struct {
	WeakestShots      []json.RawMessage `json:"weakestShots"`
	WeakestShotsSnake []json.RawMessage `json:"weakest_shots"`
}

// Interpret derives facts from p. It has no side effects, so calling it twice yields equal facts.
func Interpret(p *analyzer.Payload) (*Facts, error) {
	const op = "videoanalysis.Interpret"
	if missing := p.MissingSections(); len(missing) > 0 {
		return nil, perrors.Malformed(op, "missing sections: "+strings.Join(missing, ", "))
	}

	var rawFrames []json.RawMessage
	if err := json.Unmarshal(p.DetailedFeedbacks, &rawFrames); err != nil {
		return nil, perrors.Malformed(op, fmt.Sprintf("detailed_feedbacks: %v", err))
	}
	frames := make([]Frame, 0, len(rawFrames))
	for _, raw := range rawFrames {
		var f Frame
		// entries the analyzer could not fill in still count as frames
		_ = json.Unmarshal(raw, &f)
		frames = append(frames, f)
	}

	var pm performanceMetrics
	// a non-numeric averageScore reads as absent
	_ = json.Unmarshal(p.PerformanceMetrics, &pm)

	facts := &Facts{
		SkillLevel:   ClassifySkillLevel(pm.AverageScore),
		AverageScore: pm.AverageScore,
		FrameCount:   len(frames),
		Issues:       ExtractIssues(frames),
		WeakestShots: WeakestShots(p.ShotAnalysis),
		Payload:      p,
	}
	facts.Summary = Summary(facts.FrameCount, facts.AverageScore)
	return facts, nil
}

// WeakestShots reads shotAnalysis.weakestShots, falling back to weakest_shots.
func WeakestShots(raw json.RawMessage) []string {
	var sa shotAnalysis
	if err := json.Unmarshal(raw, &sa); err != nil {
		return []string{}
	}
	src := sa.WeakestShots
	if src == nil {
		src = sa.WeakestShotsSnake
	}
	out := make([]string, 0, len(src))
	for _, raw := range src {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Interpreter applies facts to the learner profile.
type Interpreter struct {
	log      *logger.Logger
	learners repos.LearnerRepo
}

func NewInterpreter(log *logger.Logger, learners repos.LearnerRepo) *Interpreter {
	return &Interpreter{log: log.With("module", "VideoAnalysisInterpreter"), learners: learners}
}

// Apply records the classified skill level on the learner. This is the only write an analysis
// makes to the learner profile.
func (in *Interpreter) Apply(dbc dbctx.Context, userID string, facts *Facts) error {
	if facts == nil {
		return fmt.Errorf("apply: nil facts")
	}
	if err := in.learners.UpdateSkillLevel(dbc, userID, facts.SkillLevel); err != nil {
		return fmt.Errorf("apply skill level: %w", err)
	}
	in.log.Debug("learner skill level applied", "user_id", userID, "skill_level", facts.SkillLevel.String())
	return nil
}
