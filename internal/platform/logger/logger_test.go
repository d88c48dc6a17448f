package logger

import (
	"strings"
	"testing"
)

func TestSanitizeValue(t *testing.T) {
	if got := sanitizeValue("password", "hunter2"); got != "[REDACTED]" {
		t.Fatalf("password: want=[REDACTED] got=%v", got)
	}
	if got := sanitizeValue("analyzer_api_key", "k"); got != "[REDACTED]" {
		t.Fatalf("api key: want=[REDACTED] got=%v", got)
	}

	hashed, ok := sanitizeValue("user_id", "u1").(string)
	if !ok || !strings.HasPrefix(hashed, "hash:") || len(hashed) != len("hash:")+12 {
		t.Fatalf("user_id: want hash:<12 hex> got=%v", hashed)
	}
	if again := sanitizeValue("user_id", "u1"); again != hashed {
		t.Fatalf("user_id hash: want stable %q got=%v", hashed, again)
	}
	if got := sanitizeValue("user_id", ""); got != "" {
		t.Fatalf("empty user_id: want empty got=%v", got)
	}

	nested, ok := sanitizeValue("payload", map[string]interface{}{"Secret": "x", "skill_level": "Advanced"}).(map[string]interface{})
	if !ok {
		t.Fatalf("nested: want map got=%T", nested)
	}
	if nested["Secret"] != "[REDACTED]" || nested["skill_level"] != "Advanced" {
		t.Fatalf("nested: got=%v", nested)
	}

	if got := sanitizeValue("skill_level", "Beginner"); got != "Beginner" {
		t.Fatalf("plain key: want=Beginner got=%v", got)
	}
}

func TestNopLoggerWith(t *testing.T) {
	l := Nop().With("service", "VideoAnalysisService")
	l.Info("discarded", "user_id", "u1")
	l.Sync()
}
