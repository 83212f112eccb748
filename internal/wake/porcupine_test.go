package wake

import (
	"strings"
	"testing"
)

func TestResolveKeywords(t *testing.T) {
	builtins, err := resolveKeywords([]string{"bumblebee", " Porcupine ", "HEY GOOGLE"})
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if len(builtins) != 3 {
		t.Errorf("Expected 3 keywords, got %d", len(builtins))
	}
}

func TestResolveKeywordsUnknown(t *testing.T) {
	_, err := resolveKeywords([]string{"bumblebee", "kaboom"})
	if err == nil {
		t.Fatalf("Expected error for unknown keyword")
	}
	if !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("Expected error to name the keyword, got: %v", err)
	}
}

func TestKeywordIndexBounds(t *testing.T) {
	d := &Detector{keywords: []string{"bumblebee", "jarvis"}}

	if got := d.Keyword(1); got != "jarvis" {
		t.Errorf("Expected jarvis, got %q", got)
	}
	if got := d.Keyword(-1); got != "" {
		t.Errorf("Expected empty string for negative index, got %q", got)
	}
	if got := d.Keyword(2); got != "" {
		t.Errorf("Expected empty string for out-of-range index, got %q", got)
	}
}
