// Package intent classifies inbound free text into the fixed command set
// the session state machine understands. The production deployment may put
// an LLM-backed classifier upstream; the state machine only ever sees a
// CommandClass, never the raw model output.
package intent

import "strings"

// CommandClass is the closed set of control intents.
type CommandClass string

const (
	// Free text that is not a control command: ordinal selections and
	// answer labels are resolved by the state machine against the
	// current stage.
	CommandNone CommandClass = "none"

	CommandStart    CommandClass = "start"
	CommandRestart  CommandClass = "restart"
	CommandExit     CommandClass = "exit"
	CommandBack     CommandClass = "back"
	CommandPause    CommandClass = "pause"
	CommandResume   CommandClass = "resume"
	CommandStop     CommandClass = "stop"
	CommandSubmit   CommandClass = "submit"
	CommandHelp     CommandClass = "help"
	CommandProgress CommandClass = "progress"
)

// Classifier turns raw message text into a command class. Implementations
// must be deterministic for control keywords; anything unrecognized is
// CommandNone and falls through to stage-specific parsing.
type Classifier interface {
	Classify(text string) CommandClass
}

// RuleBased is the keyword classifier. Control commands are checked before
// any stage-specific parsing so an LLM can never swallow "submit".
type RuleBased struct{}

func NewRuleBased() *RuleBased { return &RuleBased{} }

var keywordClasses = map[string]CommandClass{
	"start":   CommandStart,
	"begin":   CommandStart,
	"restart": CommandRestart,
	"reset":   CommandRestart,

	"exit": CommandExit,
	"quit": CommandExit,

	"back":     CommandBack,
	"previous": CommandBack,
	"menu":     CommandBack,
	"return":   CommandBack,
	"go back":  CommandBack,

	"pause":  CommandPause,
	"resume": CommandResume,

	"stop": CommandStop,

	"submit": CommandSubmit,
	"end":    CommandSubmit,
	"finish": CommandSubmit,

	"help":     CommandHelp,
	"commands": CommandHelp,

	"progress": CommandProgress,
	"summary":  CommandProgress,
	"stats":    CommandProgress,
}

// Phrases that map to the analytics summary; matched as substrings so
// "how am I doing so far?" still resolves without an LLM.
var progressPhrases = []string{
	"how am i doing",
	"my progress",
	"my performance",
	"my stats",
}

func (RuleBased) Classify(text string) CommandClass {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return CommandNone
	}
	if class, ok := keywordClasses[normalized]; ok {
		return class
	}
	for _, phrase := range progressPhrases {
		if strings.Contains(normalized, phrase) {
			return CommandProgress
		}
	}
	return CommandNone
}
