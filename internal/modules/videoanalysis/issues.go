package videoanalysis

import (
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

const (
	IssueGrip              = "grip_issue"
	IssueBalance           = "balance_issue"
	IssueLowTechniqueScore = "low_technique_score"

	lowScoreThreshold = 50
	goodGrip          = "eastern_grip"
	unknownShot       = "unknown"
)

// Frame is the part of one per-frame feedback entry that drives issue extraction.
type Frame struct {
	Grip *struct {
		Type string `json:"type"`
	} `json:"grip"`
	Balance *struct {
		Status string `json:"status"`
	} `json:"balance"`
	Shot *struct {
		Type string `json:"type"`
	} `json:"shot"`
	OverallScore *float64 `json:"overall_score"`
}

// IssueCounts counts issue keys and remembers the order they first appeared in.
type IssueCounts struct {
	order  []string
	counts map[string]int
}

func (c *IssueCounts) Inc(key string) {
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c IssueCounts) Get(key string) int { return c.counts[key] }

func (c IssueCounts) Len() int { return len(c.order) }

// Keys returns issue keys in first-seen order.
func (c IssueCounts) Keys() []string {
	return append([]string(nil), c.order...)
}

// ByFrequency returns issue keys by descending count; equal counts keep first-seen order.
func (c IssueCounts) ByFrequency() []string {
	out := c.Keys()
	sort.SliceStable(out, func(i, j int) bool {
		return c.counts[out[i]] > c.counts[out[j]]
	})
	return out
}

func (c IssueCounts) Map() map[string]int {
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

func (c IssueCounts) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

// ExtractIssues scans every frame and increments the matching issue counters.
func ExtractIssues(frames []Frame) IssueCounts {
	var counts IssueCounts
	for _, f := range frames {
		if f.Grip != nil {
			if t := strings.TrimSpace(f.Grip.Type); t != "" && t != goodGrip {
				counts.Inc(IssueGrip)
			}
		}
		if f.Balance != nil {
			switch strings.TrimSpace(f.Balance.Status) {
			case "unstable", "slightly_unstable":
				counts.Inc(IssueBalance)
			}
		}
		if f.Shot != nil {
			if t := strings.TrimSpace(f.Shot.Type); t != "" && t != unknownShot {
				counts.Inc(t + "_issue")
			}
		}
		if f.OverallScore != nil && *f.OverallScore < lowScoreThreshold {
			counts.Inc(IssueLowTechniqueScore)
		}
	}
	return counts
}
