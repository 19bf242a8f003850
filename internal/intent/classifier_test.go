package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleBasedClassify(t *testing.T) {
	classifier := NewRuleBased()

	tests := []struct {
		name     string
		text     string
		expected CommandClass
	}{
		{"start keyword", "start", CommandStart},
		{"begin keyword", "begin", CommandStart},
		{"start with whitespace", "  Start  ", CommandStart},
		{"restart keyword", "restart", CommandRestart},
		{"reset keyword", "RESET", CommandRestart},
		{"exit keyword", "exit", CommandExit},
		{"quit keyword", "quit", CommandExit},
		{"back keyword", "back", CommandBack},
		{"go back phrase", "go back", CommandBack},
		{"menu keyword", "menu", CommandBack},
		{"pause keyword", "pause", CommandPause},
		{"resume keyword", "resume", CommandResume},
		{"stop keyword", "stop", CommandStop},
		{"submit keyword", "submit", CommandSubmit},
		{"finish keyword", "finish", CommandSubmit},
		{"help keyword", "help", CommandHelp},
		{"commands keyword", "commands", CommandHelp},
		{"progress keyword", "progress", CommandProgress},
		{"stats keyword", "stats", CommandProgress},
		{"progress phrase", "How am I doing so far?", CommandProgress},
		{"performance phrase", "show me my performance please", CommandProgress},
		{"empty text", "", CommandNone},
		{"whitespace only", "   ", CommandNone},
		{"ordinal selection", "2", CommandNone},
		{"answer label", "B", CommandNone},
		{"free text", "I want to practice biology", CommandNone},
		{"keyword inside sentence stays free text", "let's start over", CommandNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifier.Classify(tt.text))
		})
	}
}
