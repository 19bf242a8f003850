package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/prepmate/practice-service/internal/analytics"
	"github.com/prepmate/practice-service/internal/events"
	"github.com/prepmate/practice-service/internal/exams"
	"github.com/prepmate/practice-service/internal/intent"
	"github.com/prepmate/practice-service/internal/models"
	"github.com/prepmate/practice-service/internal/provider"
	"github.com/prepmate/practice-service/internal/repositories"
	"github.com/prepmate/practice-service/internal/selector"
)

// QueueBuilder builds the question queue for a practice request.
// *selector.Selector is the production implementation.
type QueueBuilder interface {
	Select(ctx context.Context, userID string, req selector.Request, weak selector.WeaknessSource) (*selector.Result, error)
}

// Analytics is the slice of the aggregator the engine consumes.
type Analytics interface {
	Record(ctx context.Context, user string, ev models.AnswerEvent)
	RecordSession(ctx context.Context, user string, rec models.SessionRecord) error
	Summary(ctx context.Context, user string) *analytics.Summary
	Weaknesses(ctx context.Context, user, subject string) []analytics.Weakness
}

// Reply is the outbound message for one inbound message. Options, when
// present, mirrors the numbered choices embedded in Text so channel
// adapters can render native buttons.
type Reply struct {
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
}

// Engine drives the conversational state machine. One inbound message
// produces exactly one reply; all failures are user-local and surface as
// prompts, never as process errors.
type Engine struct {
	store      *Store
	classifier intent.Classifier
	queues     QueueBuilder
	analytics  Analytics
	summaries  repositories.SessionSummaryRepository
	publisher  events.EventPublisher
	registry   *exams.Registry
	logger     *slog.Logger
}

func NewEngine(
	store *Store,
	classifier intent.Classifier,
	queues QueueBuilder,
	analytics Analytics,
	summaries repositories.SessionSummaryRepository,
	publisher events.EventPublisher,
	registry *exams.Registry,
	logger *slog.Logger,
) *Engine {
	e := &Engine{
		store:      store,
		classifier: classifier,
		queues:     queues,
		analytics:  analytics,
		summaries:  summaries,
		publisher:  publisher,
		registry:   registry,
		logger:     logger,
	}
	store.OnExpire(func(sess *Session) {
		event := events.NewSessionExpiredEvent(events.SessionExpiredEvent{
			UserID:    sess.UserID,
			Stage:     string(sess.Stage),
			ExpiredAt: time.Now(),
		})
		if err := e.publisher.PublishPracticeEvent(context.Background(), event); err != nil {
			e.logger.Warn("Failed to publish session expired event",
				"user_id", sess.UserID, "error", err)
		}
	})
	return e
}

// weakSource adapts the analytics aggregator to the selector's view of
// weakness: topic names only, already ranked.
type weakSource struct {
	analytics Analytics
}

func (w weakSource) WeakTopics(ctx context.Context, userID, subject string) []string {
	ranked := w.analytics.Weaknesses(ctx, userID, subject)
	topics := make([]string, 0, len(ranked))
	for _, weakness := range ranked {
		if weakness.Topic != "" {
			topics = append(topics, weakness.Topic)
		}
	}
	return topics
}

// Handle processes one inbound message for one user. Messages for the same
// user are serialized by the store lock; concurrent users do not contend.
func (e *Engine) Handle(ctx context.Context, userID, text string, ts time.Time) (*Reply, error) {
	unlock := e.store.Lock(userID)
	defer unlock()

	sess, expired := e.store.Get(userID, ts)
	if sess != nil {
		if err := sess.Validate(); err != nil {
			e.logger.Error("Discarding corrupt session",
				"user_id", userID, "stage", sess.Stage, "error", err)
			e.store.Delete(userID)
			return &Reply{Text: corruptText}, nil
		}
		sess.LastActivity = ts
	}

	class := e.classifier.Classify(text)

	// Progress and help are read-only and answered from any stage,
	// paused included. Neither changes session state.
	switch class {
	case intent.CommandProgress:
		return &Reply{Text: formatProgress(e.analytics.Summary(ctx, userID))}, nil
	case intent.CommandHelp:
		return &Reply{Text: helpText}, nil
	}

	if sess == nil {
		return e.handleIdle(userID, class, ts, expired)
	}
	if sess.Paused {
		return e.handlePaused(ctx, sess, class, ts)
	}
	if reply, handled := e.handleCommand(ctx, sess, class, ts); handled {
		return reply, nil
	}
	return e.handleStage(ctx, sess, text, ts)
}

// handleIdle covers users with no live session. Everything opens a fresh
// session: free text and start intents directly, control commands with a
// short notice that there was nothing for them to act on.
func (e *Engine) handleIdle(userID string, class intent.CommandClass, ts time.Time, expired bool) (*Reply, error) {
	if expired {
		return e.startFresh(userID, ts, expiredText), nil
	}
	switch class {
	case intent.CommandExit, intent.CommandStop, intent.CommandSubmit,
		intent.CommandBack, intent.CommandPause, intent.CommandResume:
		return e.startFresh(userID, ts, noSessionText), nil
	}
	return e.startFresh(userID, ts, ""), nil
}

func (e *Engine) handlePaused(ctx context.Context, sess *Session, class intent.CommandClass, ts time.Time) (*Reply, error) {
	switch class {
	case intent.CommandResume:
		sess.Paused = false
		sess.QuestionAsked = ts
		reply := e.promptForStage(sess)
		reply.Text = "Resumed. Here's where you left off.\n\n" + reply.Text
		return reply, nil
	case intent.CommandStart, intent.CommandRestart:
		return e.startFresh(sess.UserID, ts, ""), nil
	case intent.CommandExit:
		e.store.Delete(sess.UserID)
		return &Reply{Text: exitText}, nil
	default:
		return &Reply{Text: pausedText}, nil
	}
}

// handleCommand dispatches control commands for a live, unpaused session.
// Returns handled=false for CommandNone so stage parsing takes over.
func (e *Engine) handleCommand(ctx context.Context, sess *Session, class intent.CommandClass, ts time.Time) (*Reply, bool) {
	switch class {
	case intent.CommandStart, intent.CommandRestart:
		return e.startFresh(sess.UserID, ts, ""), true

	case intent.CommandExit:
		e.store.Delete(sess.UserID)
		return &Reply{Text: exitText}, true

	case intent.CommandBack:
		return e.handleBack(sess), true

	case intent.CommandPause:
		if sess.Stage != StageTakingExam {
			return &Reply{Text: "There's nothing to pause right now."}, true
		}
		sess.Paused = true
		return &Reply{Text: "Paused. Say 'resume' when you're ready to continue."}, true

	case intent.CommandResume:
		reply := e.promptForStage(sess)
		reply.Text = "You're not paused.\n\n" + reply.Text
		return reply, true

	case intent.CommandStop:
		if sess.Stage != StageTakingExam || len(sess.Answers) == 0 {
			e.store.Delete(sess.UserID)
			return &Reply{Text: "Okay, stopped. Say 'start' whenever you want to practice."}, true
		}
		return e.finishExam(ctx, sess, ts, true, events.EventSessionStopped), true

	case intent.CommandSubmit:
		if sess.Stage != StageTakingExam {
			return &Reply{Text: "There's no exam in progress to submit."}, true
		}
		if len(sess.Answers) == 0 {
			reply := e.promptForStage(sess)
			reply.Text = "You haven't answered anything yet.\n\n" + reply.Text
			return reply, true
		}
		partial := sess.Cursor < len(sess.Queue)
		return e.finishExam(ctx, sess, ts, partial, events.EventSessionCompleted), true
	}
	return nil, false
}

// handleStage resolves free text against the current stage: ordinal menu
// selections before the exam, answer labels during it.
func (e *Engine) handleStage(ctx context.Context, sess *Session, text string, ts time.Time) (*Reply, error) {
	switch sess.Stage {
	case StageSelectingExam:
		n, ok := matchOption(text, sess.Options)
		if !ok {
			return e.rejectSelection(sess), nil
		}
		exam, _ := e.registry.ExamByOrdinal(n)
		sess.Exam = exam.Name
		sess.PushHistory(StageSelectingExam)
		sess.Stage = StageSelectingSubject
		return e.promptForStage(sess), nil

	case StageSelectingSubject:
		n, ok := matchOption(text, sess.Options)
		if !ok {
			return e.rejectSelection(sess), nil
		}
		sess.Subject = e.registry.SubjectNames(sess.Exam)[n-1]
		sess.PushHistory(StageSelectingSubject)
		sess.Stage = StageSelectingMode
		return e.promptForStage(sess), nil

	case StageSelectingMode:
		n, ok := matchOption(text, sess.Options)
		if !ok {
			if strings.EqualFold(strings.TrimSpace(text), "default") {
				return e.chooseMode(ctx, sess, e.registry.DefaultMode(sess.Exam), ts)
			}
			return e.rejectSelection(sess), nil
		}
		return e.chooseMode(ctx, sess, modeByOrdinal[n-1], ts)

	case StageSelectingScope:
		if sess.Mode.NeedsScope() && sess.Scope == "" {
			n, ok := matchOption(text, sess.Options)
			if !ok {
				return e.rejectSelection(sess), nil
			}
			sess.Scope = sess.Options[n-1]
			return e.startExam(ctx, sess, ts), nil
		}
		// Selections are already locked in; the previous fetch failed
		// on a transient error and this message retries it.
		return e.startExam(ctx, sess, ts), nil

	case StageTakingExam:
		return e.handleAnswer(ctx, sess, text, ts)
	}

	e.logger.Error("Message arrived in unexpected stage",
		"user_id", sess.UserID, "stage", sess.Stage)
	e.store.Delete(sess.UserID)
	return &Reply{Text: corruptText}, nil
}

// chooseMode locks in a practice mode and either asks for its scope or
// starts the exam directly.
func (e *Engine) chooseMode(ctx context.Context, sess *Session, mode models.PracticeMode, ts time.Time) (*Reply, error) {
	if mode == models.ModeTopic && len(e.registry.Topics(sess.Exam, sess.Subject)) == 0 {
		reply := e.promptForStage(sess)
		reply.Text = fmt.Sprintf("No topics are set up for %s yet. Try another practice mode.\n\n%s", sess.Subject, reply.Text)
		return reply, nil
	}
	if mode == models.ModeYear && len(e.registry.Years(sess.Exam, sess.Subject)) == 0 {
		reply := e.promptForStage(sess)
		reply.Text = fmt.Sprintf("No past years are set up for %s yet. Try another practice mode.\n\n%s", sess.Subject, reply.Text)
		return reply, nil
	}
	sess.Mode = mode
	sess.PushHistory(StageSelectingMode)
	sess.Stage = StageSelectingScope
	if mode.NeedsScope() {
		return e.promptForStage(sess), nil
	}
	return e.startExam(ctx, sess, ts), nil
}

func (e *Engine) handleAnswer(ctx context.Context, sess *Session, text string, ts time.Time) (*Reply, error) {
	q := sess.CurrentQuestion()
	if q == nil {
		return e.finishExam(ctx, sess, ts, false, events.EventSessionCompleted), nil
	}

	label := strings.ToUpper(strings.TrimSpace(text))
	if !q.HasOption(label) {
		reply := e.promptForStage(sess)
		reply.Text = fmt.Sprintf("Please answer with one of %s.\n\n%s",
			strings.Join(q.OptionLabels(), ", "), reply.Text)
		return reply, nil
	}

	ev := models.NewAnswerEvent(q, label, ts, ts.Sub(sess.QuestionAsked))
	sess.Answers = append(sess.Answers, ev)
	sess.Cursor++
	e.analytics.Record(ctx, sess.UserID, ev)

	feedback := formatFeedback(ev, q)
	if sess.Cursor >= len(sess.Queue) {
		final := e.finishExam(ctx, sess, ts, false, events.EventSessionCompleted)
		final.Text = feedback + "\n\n" + final.Text
		return final, nil
	}

	sess.QuestionAsked = ts
	next := sess.CurrentQuestion()
	return &Reply{Text: feedback + "\n\n" + formatQuestion(next, sess.Cursor+1, len(sess.Queue))}, nil
}

// startExam builds the question queue from the locked-in selections and
// enters taking_exam. Both failure shapes keep the user at the scope stage:
// a transient fetch error holds every selection for a plain retry, an empty
// result clears only the scope so a different one can be picked.
func (e *Engine) startExam(ctx context.Context, sess *Session, ts time.Time) *Reply {
	req := selector.Request{
		Exam:    sess.Exam,
		Subject: sess.Subject,
		Mode:    sess.Mode,
		Scope:   sess.Scope,
	}
	res, err := e.queues.Select(ctx, sess.UserID, req, weakSource{analytics: e.analytics})
	if err != nil {
		if errors.Is(err, provider.ErrEmpty) {
			e.logger.Warn("No questions for selection",
				"user_id", sess.UserID, "exam", sess.Exam,
				"subject", sess.Subject, "mode", sess.Mode, "scope", sess.Scope)
			sess.Scope = ""
			reply := e.promptForStage(sess)
			reply.Text = "I couldn't find questions for that selection.\n\n" + reply.Text
			return reply
		}
		e.logger.Warn("Question fetch failed, keeping selections",
			"user_id", sess.UserID, "error", err)
		return &Reply{Text: retryText}
	}

	sess.Queue = res.Questions
	sess.Cursor = 0
	sess.Answers = nil
	sess.DegradedNotice = res.Degraded
	sess.Options = nil
	sess.PushHistory(StageSelectingScope)
	sess.Stage = StageTakingExam
	sess.QuestionAsked = ts

	var b strings.Builder
	if res.Degraded {
		b.WriteString(formatDegradedNotice(sess.Subject))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Starting %s practice: %d questions. Good luck!\n\n", sess.Subject, len(sess.Queue))
	b.WriteString(formatQuestion(sess.CurrentQuestion(), 1, len(sess.Queue)))
	return &Reply{Text: b.String()}
}

// finishExam grades the answered portion, commits the analytics profile and
// the durable summary, publishes the lifecycle event and destroys the
// session. The analytics commit is the one write the next message for this
// user may depend on; summary and event failures are logged and absorbed.
func (e *Engine) finishExam(ctx context.Context, sess *Session, ts time.Time, partial bool, eventType events.EventType) *Reply {
	answered := len(sess.Answers)
	correct := sess.CorrectCount()
	accuracy := sess.Accuracy()

	rec := models.SessionRecord{
		Exam:        sess.Exam,
		Subject:     sess.Subject,
		Mode:        sess.Mode,
		Scope:       sess.Scope,
		Total:       answered,
		Correct:     correct,
		Accuracy:    accuracy,
		DurationSec: int64(ts.Sub(sess.StartedAt).Seconds()),
		CompletedAt: ts,
		Partial:     partial,
	}
	if err := e.analytics.RecordSession(ctx, sess.UserID, rec); err != nil {
		e.logger.Error("Failed to persist analytics profile",
			"user_id", sess.UserID, "error", err)
	}

	if e.summaries != nil {
		answers, err := json.Marshal(sess.Answers)
		if err != nil {
			answers = nil
		}
		row := &models.SessionSummaryRow{
			UserID:      sess.UserID,
			Exam:        sess.Exam,
			Subject:     sess.Subject,
			Mode:        sess.Mode,
			Scope:       sess.Scope,
			Total:       answered,
			Correct:     correct,
			Accuracy:    accuracy,
			Partial:     partial,
			Answers:     datatypes.JSON(answers),
			CompletedAt: ts,
		}
		if err := e.summaries.Create(ctx, row); err != nil {
			e.logger.Error("Failed to store session summary",
				"user_id", sess.UserID, "error", err)
		}
	}

	e.publishLifecycle(ctx, sess, ts, eventType, answered, correct, accuracy)

	reply := &Reply{Text: formatResults(sess, partial)}
	e.store.Delete(sess.UserID)
	return reply
}

func (e *Engine) publishLifecycle(ctx context.Context, sess *Session, ts time.Time, eventType events.EventType, answered, correct int, accuracy float64) {
	var event *events.PracticeEvent
	switch eventType {
	case events.EventSessionStopped:
		event = events.NewSessionStoppedEvent(events.SessionStoppedEvent{
			UserID:     sess.UserID,
			Exam:       sess.Exam,
			Subject:    sess.Subject,
			Mode:       string(sess.Mode),
			Answered:   answered,
			Correct:    correct,
			QueueTotal: len(sess.Queue),
			StoppedAt:  ts,
		})
	default:
		event = events.NewSessionCompletedEvent(events.SessionCompletedEvent{
			UserID:      sess.UserID,
			Exam:        sess.Exam,
			Subject:     sess.Subject,
			Mode:        string(sess.Mode),
			Scope:       sess.Scope,
			Total:       answered,
			Correct:     correct,
			Accuracy:    accuracy,
			DurationSec: int(ts.Sub(sess.StartedAt).Seconds()),
			CompletedAt: ts,
		})
	}
	if err := e.publisher.PublishPracticeEvent(ctx, event); err != nil {
		e.logger.Warn("Failed to publish practice event",
			"user_id", sess.UserID, "event_type", eventType, "error", err)
	}
}

// startFresh replaces any existing session and presents the exam menu.
func (e *Engine) startFresh(userID string, ts time.Time, prefix string) *Reply {
	sess := e.store.CreateOrReplace(userID, ts)
	reply := e.menuReply(sess, "Which exam are you preparing for?", e.registry.ExamNames())
	text := welcomeText + "\n\n" + reply.Text
	if prefix != "" {
		text = prefix + "\n\n" + text
	}
	reply.Text = text
	return reply
}

// handleBack pops one stage off the history and clears every selection made
// at or after it. An empty stack is a no-op that re-presents the current
// prompt and never pushes.
func (e *Engine) handleBack(sess *Session) *Reply {
	prev, ok := sess.PopHistory()
	if !ok {
		reply := e.promptForStage(sess)
		reply.Text = "You're already at the first step.\n\n" + reply.Text
		return reply
	}
	sess.Stage = prev
	clearFrom(sess, prev)
	return e.promptForStage(sess)
}

// clearFrom zeroes the selections made at or after the given stage so a
// back-navigated user re-enters it cleanly.
func clearFrom(sess *Session, stage Stage) {
	switch stage {
	case StageSelectingExam:
		sess.Exam = ""
		fallthrough
	case StageSelectingSubject:
		sess.Subject = ""
		fallthrough
	case StageSelectingMode:
		sess.Mode = ""
		fallthrough
	case StageSelectingScope:
		sess.Scope = ""
	}
	sess.Queue = nil
	sess.Cursor = 0
	sess.Answers = nil
	sess.Paused = false
	sess.DegradedNotice = false
}

// promptForStage renders the current stage's prompt without changing any
// selection. Menu stages refresh sess.Options as a side effect.
func (e *Engine) promptForStage(sess *Session) *Reply {
	switch sess.Stage {
	case StageSelectingExam:
		return e.menuReply(sess, "Which exam are you preparing for?", e.registry.ExamNames())
	case StageSelectingSubject:
		return e.menuReply(sess, "Which subject would you like to practice?", e.registry.SubjectNames(sess.Exam))
	case StageSelectingMode:
		return e.menuReply(sess, "How would you like to practice? Pick an option, or say 'default' for this exam's usual mode.", modeMenu)
	case StageSelectingScope:
		switch sess.Mode {
		case models.ModeTopic:
			return e.menuReply(sess, "Choose a topic:", e.registry.Topics(sess.Exam, sess.Subject))
		case models.ModeYear:
			return e.menuReply(sess, "Choose a year:", e.registry.Years(sess.Exam, sess.Subject))
		}
		// Mixed and weak-areas sessions have no scope menu; any message
		// here retries the fetch.
		sess.Options = nil
		return &Reply{Text: scopeRetryText}
	case StageTakingExam:
		q := sess.CurrentQuestion()
		if q == nil {
			return &Reply{Text: retryText}
		}
		return &Reply{Text: formatQuestion(q, sess.Cursor+1, len(sess.Queue))}
	}
	return &Reply{Text: unknownUserText}
}

func (e *Engine) menuReply(sess *Session, title string, options []string) *Reply {
	sess.Options = options
	return &Reply{Text: formatMenu(title, options), Options: options}
}

func (e *Engine) rejectSelection(sess *Session) *Reply {
	reply := e.promptForStage(sess)
	reply.Text = fmt.Sprintf("That's not one of the options. Reply with a number from 1 to %d.\n\n%s",
		len(sess.Options), reply.Text)
	return reply
}

// matchOption resolves a selection against the presented option list,
// accepting either the 1-based ordinal or the option text itself.
func matchOption(text string, options []string) (int, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len(options) == 0 {
		return 0, false
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= len(options) {
			return n, true
		}
		return 0, false
	}
	for i, opt := range options {
		if strings.EqualFold(trimmed, opt) {
			return i + 1, true
		}
	}
	return 0, false
}
