package learning

import "strings"

// Level is the skill tier shared by learners, courses and lessons.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// ParseLevel normalizes a free-form level string. Anything unrecognized is Intermediate.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return LevelBeginner
	case "advanced":
		return LevelAdvanced
	default:
		return LevelIntermediate
	}
}

// KnownLevel reports whether s names one of the three tiers.
func KnownLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner", "intermediate", "advanced":
		return true
	}
	return false
}

func (l Level) String() string { return string(l) }

// SkillType tags a lesson with the technique it trains.
type SkillType string

const (
	SkillForehand SkillType = "forehand"
	SkillBackhand SkillType = "backhand"
	SkillServe    SkillType = "serve"
	SkillDink     SkillType = "dink"
	SkillBalance  SkillType = "balance"
	SkillGrip     SkillType = "grip"
	SkillFootwork SkillType = "footwork"
	SkillStrategy SkillType = "strategy"
)

// ShotSkillType maps a shot name reported by the analyzer to a lesson skill type.
func ShotSkillType(shot string) (SkillType, bool) {
	switch strings.ToLower(strings.TrimSpace(shot)) {
	case "forehand":
		return SkillForehand, true
	case "backhand":
		return SkillBackhand, true
	case "serve":
		return SkillServe, true
	case "dink", "half_volley":
		return SkillDink, true
	}
	return "", false
}

var issueSkillTypes = map[string]SkillType{
	"forehand_issue":    SkillForehand,
	"backhand_issue":    SkillBackhand,
	"serve_issue":       SkillServe,
	"dink_issue":        SkillDink,
	"half_volley_issue": SkillDink,
	"balance_issue":     SkillBalance,
	"grip_issue":        SkillGrip,
}

// IssueSkillType maps an issue counter key to a lesson skill type. Keys match exactly, so a shot
// reported as "Forehand" yields an unmapped "Forehand_issue".
func IssueSkillType(issue string) (SkillType, bool) {
	st, ok := issueSkillTypes[issue]
	return st, ok
}
