package emails

import (
	"strings"
	"testing"
	"time"
)

func TestWelcome_ContainsName(t *testing.T) {
	t.Parallel()

	_, html, err := Welcome("Maria")
	if err != nil {
		t.Fatalf("Welcome error: %v", err)
	}
	if !strings.Contains(html, "Maria") {
		t.Errorf("welcome body missing name: %s", html)
	}
}

func TestResetCode_ContainsCodeAndTTL(t *testing.T) {
	t.Parallel()

	_, html, err := ResetCode("042913", 10*time.Minute)
	if err != nil {
		t.Fatalf("ResetCode error: %v", err)
	}
	if !strings.Contains(html, "042913") {
		t.Errorf("body missing code: %s", html)
	}
	if !strings.Contains(html, "10 minutes") {
		t.Errorf("body missing ttl: %s", html)
	}
}

func TestActivityTemplates_EscapeUserInput(t *testing.T) {
	t.Parallel()

	_, html, err := ActivityCancelled("Eve", `<script>alert("x")</script>`)
	if err != nil {
		t.Fatalf("ActivityCancelled error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("activity name not escaped: %s", html)
	}
}
