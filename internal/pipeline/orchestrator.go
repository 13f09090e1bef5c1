// Copyright 2025 Prompt Enhancer Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pipeline drives the multi-turn enhancement protocol: initial prompt,
// question loop, enhancement, terminal result. The session holds the complete
// state, so re-running a step with the same inputs is safe to retry.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/prompt-enhancer/internal/enhance"
	"github.com/your-org/prompt-enhancer/internal/mode"
	"github.com/your-org/prompt-enhancer/internal/provider"
	"github.com/your-org/prompt-enhancer/internal/questions"
	"go.uber.org/zap"
)

// State identifies where a session is in the enhancement protocol.
type State string

const (
	// StateAwaitingPrompt is the initial state before a prompt is supplied.
	StateAwaitingPrompt State = "awaiting_prompt"
	// StateQuestioning is the clarifying-question loop.
	StateQuestioning State = "questioning"
	// StateEnhancing means questioning is over; the next step synthesizes.
	StateEnhancing State = "enhancing"
	// StateDone is the terminal success state.
	StateDone State = "done"
	// StateErrored is the terminal failure state.
	StateErrored State = "errored"
)

// Session is the transient state of one enhancement run. It is single-writer:
// only one turn may be in flight at a time, and all cross-session memory
// belongs to the persistence layer.
type Session struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id,omitempty"`
	OriginalPrompt string        `json:"original_prompt"`
	Mode           mode.Mode     `json:"mode"`
	Provider       provider.Name `json:"provider"`
	Answers        []string      `json:"answers"`
	State          State         `json:"state"`
	Err            string        `json:"error,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TurnCount reports how many clarifying answers have been collected.
func (s *Session) TurnCount() int { return len(s.Answers) }

// Step is the outcome of advancing a session.
type Step struct {
	State     State                `json:"state"`
	Questions []questions.Question `json:"questions,omitempty"`
	Result    *enhance.Result      `json:"result,omitempty"`
}

// Orchestrator coordinates the question generator and the enhancement
// synthesizer over a session.
type Orchestrator struct {
	generator   *questions.Generator
	synthesizer *enhance.Synthesizer
	logger      *zap.Logger
}

// NewOrchestrator creates a pipeline orchestrator.
func NewOrchestrator(generator *questions.Generator, synthesizer *enhance.Synthesizer, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{generator: generator, synthesizer: synthesizer, logger: logger}
}

// Begin moves a session out of the initial state. The prompt must be
// non-empty; mode and provider are assumed validated by the caller.
func (o *Orchestrator) Begin(sess *Session) error {
	if sess.State != StateAwaitingPrompt && sess.State != "" {
		return fmt.Errorf("session %s already started (state %s)", sess.ID, sess.State)
	}
	if strings.TrimSpace(sess.OriginalPrompt) == "" {
		return &provider.ValidationError{Field: "prompt", Message: "must not be empty"}
	}
	sess.State = StateQuestioning
	sess.UpdatedAt = time.Now()
	return nil
}

// SubmitAnswer appends one clarifying answer to a questioning session.
func (o *Orchestrator) SubmitAnswer(sess *Session, answer string) error {
	if sess.State != StateQuestioning {
		return fmt.Errorf("session %s is not collecting answers (state %s)", sess.ID, sess.State)
	}
	if sess.TurnCount() >= questions.MaxTurns {
		return fmt.Errorf("session %s already has %d answers", sess.ID, questions.MaxTurns)
	}
	sess.Answers = append(sess.Answers, answer)
	sess.UpdatedAt = time.Now()
	return nil
}

// NextQuestions runs one question turn. When the generator returns zero
// questions, or the turn cap is reached, the session transitions to
// StateEnhancing and an empty question list is returned. Unrecoverable
// generator errors move the session to StateErrored.
func (o *Orchestrator) NextQuestions(ctx context.Context, sess *Session) (*Step, error) {
	if sess.State == StateAwaitingPrompt || sess.State == "" {
		if err := o.Begin(sess); err != nil {
			return nil, err
		}
	}
	if sess.State != StateQuestioning {
		return nil, fmt.Errorf("session %s is not questioning (state %s)", sess.ID, sess.State)
	}

	qs, err := o.generator.Generate(ctx, questions.Request{
		Prompt:          sess.OriginalPrompt,
		Mode:            sess.Mode,
		Provider:        sess.Provider,
		PreviousAnswers: sess.Answers,
	})
	if err != nil {
		o.fail(sess, err)
		return nil, err
	}

	if len(qs) == 0 || sess.TurnCount() >= questions.MaxTurns {
		sess.State = StateEnhancing
		sess.UpdatedAt = time.Now()
		o.logger.Debug("Question loop finished",
			zap.String("session_id", sess.ID),
			zap.Int("turns", sess.TurnCount()),
		)
		return &Step{State: StateEnhancing}, nil
	}

	sess.UpdatedAt = time.Now()
	return &Step{State: StateQuestioning, Questions: qs}, nil
}

// Finalize runs the two-stage enhancement and moves the session to its
// terminal state. It may be called from StateQuestioning as well; users can
// skip remaining questions.
func (o *Orchestrator) Finalize(ctx context.Context, sess *Session) (*Step, error) {
	switch sess.State {
	case StateQuestioning, StateEnhancing:
	case StateAwaitingPrompt, "":
		if err := o.Begin(sess); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("session %s cannot be finalized (state %s)", sess.ID, sess.State)
	}
	sess.State = StateEnhancing

	result, err := o.synthesizer.Enhance(ctx, enhance.Request{
		Prompt:   sess.OriginalPrompt,
		Mode:     sess.Mode,
		Provider: sess.Provider,
		Answers:  sess.Answers,
	})
	if err != nil {
		o.fail(sess, err)
		return nil, err
	}

	sess.State = StateDone
	sess.UpdatedAt = time.Now()
	o.logger.Info("Session completed",
		zap.String("session_id", sess.ID),
		zap.String("provider", string(sess.Provider)),
		zap.Int("turns", sess.TurnCount()),
	)
	return &Step{State: StateDone, Result: result}, nil
}

func (o *Orchestrator) fail(sess *Session, err error) {
	sess.State = StateErrored
	sess.Err = err.Error()
	sess.UpdatedAt = time.Now()
	o.logger.Error("Session failed",
		zap.String("session_id", sess.ID),
		zap.String("state", string(sess.State)),
		zap.Error(err),
	)
}
