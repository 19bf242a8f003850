package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prepmate/practice-service/internal/analytics"
	"github.com/prepmate/practice-service/internal/models"
)

// Prompt texts and formatting helpers. Every outbound message the engine
// produces is built here so the conversational voice stays in one place.

const (
	welcomeText = "Welcome to PrepMate! Let's set up your practice session."

	helpText = "Here's what you can say at any point:\n" +
		"- start / restart: begin a new practice session\n" +
		"- back: return to the previous step\n" +
		"- pause / resume: pause the clock during an exam\n" +
		"- submit: finish early and grade what you've answered\n" +
		"- stop: end the session and save your progress\n" +
		"- progress: see how you've been doing\n" +
		"- exit: leave without saving the current exam"

	expiredText = "Your previous session expired after an hour of inactivity, so we'll start fresh."

	pausedText = "Your session is paused. Say 'resume' to continue, 'restart' to start over, or 'exit' to leave."

	retryText = "That didn't work, but your selections are saved. Send anything to try again."

	scopeRetryText = "Send anything to fetch a new set of questions, or say 'back' to pick a different practice mode."

	noSessionText = "There's no practice session in progress, so let's start one."

	unknownUserText = "Hi! Say 'start' to begin a practice session, or 'help' to see what I can do."

	corruptText = "Something went wrong with your session, so I've reset it. Say 'start' to begin again."

	exitText = "Goodbye! Say 'start' whenever you want to practice again."
)

var modeMenu = []string{
	"Practice by Topic",
	"Practice by Year",
	"Mixed Practice",
	"Weak Areas Focus",
}

var modeByOrdinal = []models.PracticeMode{
	models.ModeTopic,
	models.ModeYear,
	models.ModeMixed,
	models.ModeWeakAreas,
}

// formatMenu renders a numbered option list under a title line.
func formatMenu(title string, options []string) string {
	var b strings.Builder
	b.WriteString(title)
	for i, opt := range options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, opt)
	}
	return b.String()
}

// formatQuestion renders one question with its lettered options and a
// position marker.
func formatQuestion(q *models.QuestionRecord, position, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d of %d\n\n%s", position, total, q.Prompt)
	for _, label := range q.OptionLabels() {
		fmt.Fprintf(&b, "\n%s. %s", label, q.Options[label])
	}
	b.WriteString("\n\nReply with the letter of your answer.")
	return b.String()
}

// formatFeedback renders the per-answer verdict with the explanation when
// one exists.
func formatFeedback(ev models.AnswerEvent, q *models.QuestionRecord) string {
	var b strings.Builder
	if ev.Correct {
		fmt.Fprintf(&b, "Correct! The answer is %s.", q.CorrectLabel)
	} else {
		fmt.Fprintf(&b, "Not quite. You picked %s; the answer is %s.", ev.SelectedLabel, q.CorrectLabel)
	}
	if q.Explanation != "" {
		fmt.Fprintf(&b, "\n%s", q.Explanation)
	}
	return b.String()
}

// formatResults renders the end-of-session summary with a per-topic
// breakdown, sorted by topic name for a stable rendering.
func formatResults(sess *Session, partial bool) string {
	answered := len(sess.Answers)
	correct := sess.CorrectCount()

	var b strings.Builder
	if partial {
		fmt.Fprintf(&b, "Session ended early. You answered %d of %d questions.\n", answered, len(sess.Queue))
	} else {
		b.WriteString("Practice complete!\n")
	}
	pct := 0.0
	if answered > 0 {
		pct = float64(correct) / float64(answered) * 100
	}
	fmt.Fprintf(&b, "Score: %d/%d (%.0f%%)", correct, answered, pct)

	type topicScore struct {
		attempts int
		correct  int
	}
	byTopic := make(map[string]*topicScore)
	for _, a := range sess.Answers {
		topic := a.Topic
		if topic == "" {
			topic = "General"
		}
		ts := byTopic[topic]
		if ts == nil {
			ts = &topicScore{}
			byTopic[topic] = ts
		}
		ts.attempts++
		if a.Correct {
			ts.correct++
		}
	}
	if len(byTopic) > 1 {
		topics := make([]string, 0, len(byTopic))
		for topic := range byTopic {
			topics = append(topics, topic)
		}
		sort.Strings(topics)
		b.WriteString("\n\nBy topic:")
		for _, topic := range topics {
			ts := byTopic[topic]
			fmt.Fprintf(&b, "\n- %s: %d/%d", topic, ts.correct, ts.attempts)
		}
	}
	b.WriteString("\n\nSay 'start' whenever you want another round.")
	return b.String()
}

// formatProgress renders the analytics summary as a conversational report.
func formatProgress(s *analytics.Summary) string {
	if s.TotalQuestions == 0 {
		return "You haven't answered any questions yet. Say 'start' to begin your first practice session!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your progress so far:\n- Sessions: %d\n- Questions answered: %d\n- Overall accuracy: %.0f%%",
		s.TotalSessions, s.TotalQuestions, s.OverallAccuracy*100)

	switch s.Trend {
	case models.TrendImproving:
		b.WriteString("\n- Trend: improving, keep it up!")
	case models.TrendDeclining:
		b.WriteString("\n- Trend: slipping a little lately")
	default:
		b.WriteString("\n- Trend: steady")
	}

	if len(s.Weaknesses) > 0 {
		b.WriteString("\n\nAreas to work on:")
		for i, w := range s.Weaknesses {
			if i == 3 {
				break
			}
			if w.Topic != "" {
				fmt.Fprintf(&b, "\n- %s (%s): %.0f%%", w.Topic, w.Subject, w.Accuracy*100)
			} else {
				fmt.Fprintf(&b, "\n- %s: %.0f%%", w.Subject, w.Accuracy*100)
			}
		}
	}
	if len(s.Strengths) > 0 {
		best := s.Strengths[0]
		fmt.Fprintf(&b, "\n\nStrongest area: %s (%s) at %.0f%%.", best.Topic, best.Subject, best.Accuracy*100)
	}
	for _, rec := range s.Recommendations {
		fmt.Fprintf(&b, "\n%s", rec)
	}
	return b.String()
}

func formatDegradedNotice(subject string) string {
	return fmt.Sprintf("You don't have enough %s history yet for a weak-areas session, so here's a mixed set instead. Keep practicing and I'll learn where you need focus.", subject)
}
