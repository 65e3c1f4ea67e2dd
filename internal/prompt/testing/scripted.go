// Package testing provides a scripted Prompter for driving interactive
// workflows in tests.
package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/prompt"
)

// Answer is one scripted reply.
type Answer struct {
	Text  string
	Abort bool
}

// Say answers with text.
func Say(text string) Answer {
	return Answer{Text: text}
}

// Abort answers by quitting, like Ctrl-C.
func Abort() Answer {
	return Answer{Abort: true}
}

// Exchange records one question and what was answered.
type Exchange struct {
	Question string
	Answer   Answer
	Rejected error
}

// ScriptedPrompter replays answers in order. Ask and Confirm share the
// script. A validator rejection consumes the answer and Ask moves on to the
// next one, the way an operator would retype.
type ScriptedPrompter struct {
	mu        sync.Mutex
	answers   []Answer
	exchanges []Exchange
	asks      int
	confirms  int
}

var _ prompt.Prompter = (*ScriptedPrompter)(nil)

// NewScriptedPrompter returns a prompter that replays answers.
func NewScriptedPrompter(answers ...Answer) *ScriptedPrompter {
	return &ScriptedPrompter{answers: answers}
}

func (s *ScriptedPrompter) next(question string) (Answer, error) {
	if len(s.answers) == 0 {
		return Answer{}, fmt.Errorf("script exhausted at question %q", question)
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

// Ask implements prompt.Prompter.
func (s *ScriptedPrompter) Ask(ctx context.Context, question string, validate prompt.Validator) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.asks++
	for {
		if err := ctx.Err(); err != nil {
			return "", errors.WrapWithCode(err, errors.ErrAbort, "Quitting", "")
		}

		a, err := s.next(question)
		if err != nil {
			return "", err
		}

		ex := Exchange{Question: question, Answer: a}
		if a.Abort {
			s.exchanges = append(s.exchanges, ex)
			return "", errors.NewAbort("Quitting")
		}
		if validate != nil {
			if verr := validate(a.Text); verr != nil {
				ex.Rejected = verr
				s.exchanges = append(s.exchanges, ex)
				continue
			}
		}
		s.exchanges = append(s.exchanges, ex)
		return a.Text, nil
	}
}

// Confirm implements prompt.Prompter. Answers "y"/"yes" are yes, "n"/"no"
// are no, and "" takes the default.
func (s *ScriptedPrompter) Confirm(ctx context.Context, question string, defaultNo bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.confirms++
	a, err := s.next(question)
	if err != nil {
		return false, err
	}
	s.exchanges = append(s.exchanges, Exchange{Question: question, Answer: a})

	if a.Abort {
		return false, errors.NewAbort("Quitting")
	}
	switch a.Text {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	case "":
		return !defaultNo, nil
	}
	return false, fmt.Errorf("scripted confirm answer %q is not yes/no", a.Text)
}

// Asks returns how many times Ask was called.
func (s *ScriptedPrompter) Asks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asks
}

// Confirms returns how many times Confirm was called.
func (s *ScriptedPrompter) Confirms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirms
}

// Exchanges returns every question asked with its answer.
func (s *ScriptedPrompter) Exchanges() []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Exchange, len(s.exchanges))
	copy(out, s.exchanges)
	return out
}

// Remaining returns how many scripted answers are unused.
func (s *ScriptedPrompter) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}
