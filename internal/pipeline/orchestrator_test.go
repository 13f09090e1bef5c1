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

package pipeline

import (
	"context"
	"testing"

	"github.com/your-org/prompt-enhancer/internal/enhance"
	"github.com/your-org/prompt-enhancer/internal/mode"
	"github.com/your-org/prompt-enhancer/internal/provider"
	"github.com/your-org/prompt-enhancer/internal/questions"
	"go.uber.org/zap"
)

// scriptedAdapter returns queued responses in order.
type scriptedAdapter struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedAdapter) Name() provider.Name { return provider.OpenAI }

func (s *scriptedAdapter) Generate(_ context.Context, _ provider.Request) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp string
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

func newTestOrchestrator(stub *scriptedAdapter) *Orchestrator {
	registry := provider.NewRegistry(provider.Credentials{}, zap.NewNop())
	registry.Register(stub, "")
	generator := questions.NewGenerator(registry, zap.NewNop())
	synthesizer := enhance.NewSynthesizer(registry, zap.NewNop())
	return NewOrchestrator(generator, synthesizer, zap.NewNop())
}

func newSession() *Session {
	return &Session{
		ID:             "session_test",
		OriginalPrompt: "write a poem",
		Mode:           mode.Writing,
		Provider:       provider.OpenAI,
	}
}

func TestFullSessionFlow(t *testing.T) {
	stub := &scriptedAdapter{responses: []string{
		// turn 1: two questions
		`{"questions": [
			{"question": "What tone?", "options": ["Formal", "Casual", "Playful"]},
			{"question": "How long?", "options": ["Short", "Medium", "Long"]}
		]}`,
		// turn 2: model is satisfied, no more questions
		`{"questions": []}`,
		// enhancement stages
		"Polished prompt",
		"Final answer",
	}}
	orchestrator := newTestOrchestrator(stub)
	sess := newSession()

	step, err := orchestrator.NextQuestions(context.Background(), sess)
	if err != nil {
		t.Fatalf("Turn 1 failed: %v", err)
	}
	if step.State != StateQuestioning {
		t.Fatalf("Expected questioning state, got %s", step.State)
	}
	if len(step.Questions) != 2 {
		t.Fatalf("Expected 2 questions, got %d", len(step.Questions))
	}

	if err := orchestrator.SubmitAnswer(sess, "Playful"); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	step, err = orchestrator.NextQuestions(context.Background(), sess)
	if err != nil {
		t.Fatalf("Turn 2 failed: %v", err)
	}
	if step.State != StateEnhancing {
		t.Fatalf("Expected enhancing state after empty question turn, got %s", step.State)
	}
	if len(step.Questions) != 0 {
		t.Errorf("Expected no questions, got %d", len(step.Questions))
	}

	step, err = orchestrator.Finalize(context.Background(), sess)
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if step.State != StateDone || sess.State != StateDone {
		t.Errorf("Expected done state, got step %s session %s", step.State, sess.State)
	}
	if step.Result == nil {
		t.Fatal("Expected a result")
	}
	if step.Result.EnhancedPrompt != "Polished prompt" || step.Result.AIResponse != "Final answer" {
		t.Errorf("Unexpected result %+v", step.Result)
	}
	if len(step.Result.Answers) != 1 || step.Result.Answers[0] != "Playful" {
		t.Errorf("Expected collected answers on the result, got %v", step.Result.Answers)
	}
}

func TestTurnCapForcesEnhancing(t *testing.T) {
	stub := &scriptedAdapter{}
	orchestrator := newTestOrchestrator(stub)
	sess := newSession()
	sess.State = StateQuestioning
	sess.Answers = []string{"a1", "a2", "a3", "a4", "a5"}

	step, err := orchestrator.NextQuestions(context.Background(), sess)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if step.State != StateEnhancing {
		t.Errorf("Expected enhancing at the turn cap, got %s", step.State)
	}
	if stub.calls != 0 {
		t.Errorf("Expected no provider call at the cap, got %d", stub.calls)
	}
}

func TestSubmitAnswerBeyondCap(t *testing.T) {
	orchestrator := newTestOrchestrator(&scriptedAdapter{})
	sess := newSession()
	sess.State = StateQuestioning
	sess.Answers = []string{"a1", "a2", "a3", "a4", "a5"}

	if err := orchestrator.SubmitAnswer(sess, "a6"); err == nil {
		t.Error("Expected error when submitting past the cap")
	}
	if len(sess.Answers) != 5 {
		t.Errorf("Answer list must not grow past the cap, got %d", len(sess.Answers))
	}
}

func TestFinalizeSkipsRemainingQuestions(t *testing.T) {
	stub := &scriptedAdapter{responses: []string{"Polished", "Answer"}}
	orchestrator := newTestOrchestrator(stub)
	sess := newSession()
	sess.State = StateQuestioning

	step, err := orchestrator.Finalize(context.Background(), sess)
	if err != nil {
		t.Fatalf("Finalize from questioning failed: %v", err)
	}
	if step.State != StateDone {
		t.Errorf("Expected done, got %s", step.State)
	}
}

func TestFinalizeFromTerminalState(t *testing.T) {
	orchestrator := newTestOrchestrator(&scriptedAdapter{})
	sess := newSession()
	sess.State = StateDone

	if _, err := orchestrator.Finalize(context.Background(), sess); err == nil {
		t.Error("Expected error finalizing a completed session")
	}
}

func TestGeneratorErrorMovesSessionToErrored(t *testing.T) {
	stub := &scriptedAdapter{errs: []error{&provider.ConfigurationError{Provider: provider.OpenAI}}}
	orchestrator := newTestOrchestrator(stub)
	sess := newSession()

	if _, err := orchestrator.NextQuestions(context.Background(), sess); err == nil {
		t.Fatal("Expected error")
	}
	if sess.State != StateErrored {
		t.Errorf("Expected errored state, got %s", sess.State)
	}
	if sess.Err == "" {
		t.Error("Expected the failure recorded on the session")
	}
}

func TestBeginRequiresPrompt(t *testing.T) {
	orchestrator := newTestOrchestrator(&scriptedAdapter{})
	sess := newSession()
	sess.OriginalPrompt = "   "

	if err := orchestrator.Begin(sess); err == nil {
		t.Error("Expected error for blank prompt")
	}
}
