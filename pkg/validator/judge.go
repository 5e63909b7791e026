package validator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/model"
)

var (
	scoreRe    = regexp.MustCompile(`(?i)score:\s*([0-9]*\.?[0-9]+)`)
	feedbackRe = regexp.MustCompile(`(?i)feedback:\s*(.+)`)
)

const judgePrompt = `You are a strict content reviewer. Evaluate the content below against these criteria:

%s

Content to evaluate:
---
%s
---

Reply with exactly two lines:
Score: <a number between 0.00 and 1.00>
Feedback: <one sentence explaining the score>`

// Judge scores content with its own model call and passes content whose
// score reaches the threshold.
type Judge struct {
	mdl       model.Model
	criteria  string
	threshold float64
}

// JudgeOption configures a Judge.
type JudgeOption func(*Judge)

// WithThreshold overrides the passing score (default 0.7).
func WithThreshold(threshold float64) JudgeOption {
	return func(j *Judge) {
		j.threshold = threshold
	}
}

// NewJudge creates a model-backed validator. criteria describes, in prose,
// what acceptable content looks like.
func NewJudge(mdl model.Model, criteria string, opts ...JudgeOption) *Judge {
	j := &Judge{
		mdl:       mdl,
		criteria:  criteria,
		threshold: 0.7,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Validate implements Validator. The judge call runs against a fresh
// session so the conversation under evaluation cannot steer the reviewer.
func (j *Judge) Validate(ctx context.Context, content string, _ *chat.Session) (Result, error) {
	prompt := fmt.Sprintf(judgePrompt, j.criteria, content)
	scoring := chat.NewSession(chat.WithMessages(chat.NewUser(prompt)))

	reply, err := j.mdl.Send(ctx, scoring)
	if err != nil {
		return Result{}, fmt.Errorf("judge model call failed: %w", err)
	}

	score, feedback := parseScore(reply.Content)
	if score >= j.threshold {
		return OK(), nil
	}
	if feedback == "" {
		feedback = fmt.Sprintf("content scored %.2f, below the %.2f threshold", score, j.threshold)
	}
	return Fail(feedback), nil
}

// parseScore extracts the score and feedback from the judge's reply.
// An unparseable score counts as 0 so a misbehaving judge fails closed.
func parseScore(reply string) (float64, string) {
	var score float64
	if m := scoreRe.FindStringSubmatch(reply); m != nil {
		if parsed, err := strconv.ParseFloat(m[1], 64); err == nil {
			score = parsed
		}
	}
	var feedback string
	if m := feedbackRe.FindStringSubmatch(reply); m != nil {
		feedback = strings.TrimSpace(m[1])
	}
	return score, feedback
}
