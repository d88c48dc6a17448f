package videoanalysis

import (
	"strings"

	types "github.com/yungbote/pickleball-backend/internal/domain"
)

type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Recommend ranks the level's courses for facts: courses training the most frequent issues first,
// then courses for each weakest shot, then every remaining level course. Titles are unique in the
// result and the order is deterministic for a given catalog.
func Recommend(facts *Facts, level types.Level, courses []*types.Course) []Recommendation {
	lvl := strings.ToLower(level.String())
	var out []Recommendation

	if facts != nil {
		for _, issue := range facts.Issues.ByFrequency() {
			skill, ok := types.IssueSkillType(issue)
			if !ok {
				continue
			}
			for _, c := range coursesWithSkill(courses, skill) {
				out = append(out, toRecommendation(c, "Course to improve your "+lvl+" skills"))
			}
		}
		for _, shot := range facts.WeakestShots {
			skill, ok := types.ShotSkillType(shot)
			if !ok {
				continue
			}
			for _, c := range coursesWithSkill(courses, skill) {
				out = append(out, toRecommendation(c, "Course to improve your "+shot))
			}
		}
	}

	out = append(out, LevelCourses(level, courses, out)...)
	return dedupeByTitle(out)
}

// LevelCourses returns every course whose title is not already in have.
func LevelCourses(level types.Level, courses []*types.Course, have []Recommendation) []Recommendation {
	lvl := strings.ToLower(level.String())
	seen := make(map[string]struct{}, len(have))
	for _, r := range have {
		seen[r.Title] = struct{}{}
	}
	var out []Recommendation
	for _, c := range courses {
		if c == nil {
			continue
		}
		if _, ok := seen[c.Title]; ok {
			continue
		}
		out = append(out, toRecommendation(c, "Course to advance your "+lvl+" skills"))
	}
	return out
}

func coursesWithSkill(courses []*types.Course, skill types.SkillType) []*types.Course {
	var out []*types.Course
	for _, c := range courses {
		if c != nil && c.HasSkill(skill) {
			out = append(out, c)
		}
	}
	return out
}

func toRecommendation(c *types.Course, defaultDescription string) Recommendation {
	desc := c.Description
	if strings.TrimSpace(desc) == "" {
		desc = defaultDescription
	}
	url := c.CourseURL
	if strings.TrimSpace(url) == "" {
		url = c.ThumbnailURL
	}
	return Recommendation{Title: c.Title, Description: desc, URL: url}
}

func dedupeByTitle(in []Recommendation) []Recommendation {
	out := make([]Recommendation, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, r := range in {
		if _, ok := seen[r.Title]; ok {
			continue
		}
		seen[r.Title] = struct{}{}
		out = append(out, r)
	}
	return out
}
