package analyzer

import (
	"bytes"
	"strings"

	json "github.com/goccy/go-json"
)

// Section keys every analyzer payload must carry.
const (
	SectionDetailedFeedbacks  = "detailed_feedbacks"
	SectionTechniqueAnalysis  = "techniqueAnalysis"
	SectionShotAnalysis       = "shotAnalysis"
	SectionPerformanceMetrics = "performanceMetrics"
)

const emptyResponseReason = "empty response from analyzer"

type Kind int

const (
	KindAccepted Kind = iota + 1
	KindRejected
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindAccepted:
		return "accepted"
	case KindRejected:
		return "rejected"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// Payload holds the four required sections exactly as the analyzer sent them.
type Payload struct {
	DetailedFeedbacks  json.RawMessage `json:"detailed_feedbacks"`
	TechniqueAnalysis  json.RawMessage `json:"techniqueAnalysis"`
	ShotAnalysis       json.RawMessage `json:"shotAnalysis"`
	PerformanceMetrics json.RawMessage `json:"performanceMetrics"`
}

// Verdict is the classified analyzer response. Exactly one of Payload, Reason, Missing is meaningful,
// selected by Kind.
type Verdict struct {
	Kind    Kind
	Payload *Payload
	Reason  string
	Missing []string
}

func Accepted(p *Payload) Verdict { return Verdict{Kind: KindAccepted, Payload: p} }

func Rejected(reason string) Verdict { return Verdict{Kind: KindRejected, Reason: reason} }

func Malformed(missing ...string) Verdict { return Verdict{Kind: KindMalformed, Missing: missing} }

// Classify turns a successful (2xx) response body into a verdict.
func Classify(body []byte) Verdict {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Rejected(emptyResponseReason)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return Malformed("body")
	}
	if obj == nil {
		return Rejected(emptyResponseReason)
	}
	if raw, ok := obj["error"]; ok {
		return Rejected(errorReason(raw))
	}

	p := &Payload{
		DetailedFeedbacks:  obj[SectionDetailedFeedbacks],
		TechniqueAnalysis:  obj[SectionTechniqueAnalysis],
		ShotAnalysis:       obj[SectionShotAnalysis],
		PerformanceMetrics: obj[SectionPerformanceMetrics],
	}
	if missing := p.MissingSections(); len(missing) > 0 {
		return Malformed(missing...)
	}
	return Accepted(p)
}

// RejectionReason returns the analyzer's error message when the body carries one.
func RejectionReason(body []byte) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &obj); err != nil || obj == nil {
		return "", false
	}
	raw, ok := obj["error"]
	if !ok {
		return "", false
	}
	return errorReason(raw), true
}

// MissingSections lists required sections that are absent, null or of the wrong JSON shape.
func (p *Payload) MissingSections() []string {
	if p == nil {
		return []string{SectionDetailedFeedbacks, SectionTechniqueAnalysis, SectionShotAnalysis, SectionPerformanceMetrics}
	}
	var missing []string
	if !isJSONKind(p.DetailedFeedbacks, '[') {
		missing = append(missing, SectionDetailedFeedbacks)
	}
	if !isJSONKind(p.TechniqueAnalysis, '{') {
		missing = append(missing, SectionTechniqueAnalysis)
	}
	if !isJSONKind(p.ShotAnalysis, '{') {
		missing = append(missing, SectionShotAnalysis)
	}
	if !isJSONKind(p.PerformanceMetrics, '{') {
		missing = append(missing, SectionPerformanceMetrics)
	}
	return missing
}

func isJSONKind(raw json.RawMessage, open byte) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == open
}

func errorReason(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
		return "analysis rejected"
	}
	t := strings.TrimSpace(string(raw))
	if t == "" || t == "null" {
		return "analysis rejected"
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && strings.TrimSpace(obj.Message) != "" {
		return strings.TrimSpace(obj.Message)
	}
	return t
}
