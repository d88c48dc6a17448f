package videoanalysis

import (
	"fmt"

	types "github.com/yungbote/pickleball-backend/internal/domain"
)

const (
	advancedThreshold     = 80
	intermediateThreshold = 50

	tierGood    = "Good technique, keep it up!"
	tierImprove = "Some techniques need improvement."
	tierBasics  = "Focus on the fundamentals."
)

// ClassifySkillLevel maps an average score to a level. A missing score is Intermediate.
func ClassifySkillLevel(avg *float64) types.Level {
	if avg == nil {
		return types.LevelIntermediate
	}
	switch s := *avg; {
	case s >= advancedThreshold:
		return types.LevelAdvanced
	case s >= intermediateThreshold:
		return types.LevelIntermediate
	default:
		return types.LevelBeginner
	}
}

func Summary(frameCount int, avg *float64) string {
	if avg == nil {
		return fmt.Sprintf("Analyzed %d frames; no average score reported. %s", frameCount, tierImprove)
	}
	tier := tierBasics
	switch {
	case *avg >= 70:
		tier = tierGood
	case *avg >= 50:
		tier = tierImprove
	}
	return fmt.Sprintf("Analyzed %d frames with an average score of %.1f/100. %s", frameCount, *avg, tier)
}
