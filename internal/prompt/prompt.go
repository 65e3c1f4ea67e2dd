// Package prompt asks the operator questions. Workflows depend on the
// Prompter interface so every interactive path can be driven by a script in
// tests.
package prompt

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/neoprene-dev/neoprene/internal/errors"
	"golang.org/x/term"
)

// Validator rejects an answer with a message shown to the operator.
type Validator func(string) error

// Prompter asks questions and returns answers.
// Both methods return an ErrAbort error when the operator quits (Ctrl-C).
type Prompter interface {
	// Ask returns the operator's trimmed answer. When validate is non-nil the
	// question repeats until validate accepts the answer.
	Ask(ctx context.Context, question string, validate Validator) (string, error)

	// Confirm asks a yes/no question. With defaultNo an empty answer is "no".
	Confirm(ctx context.Context, question string, defaultNo bool) (bool, error)
}

// HuhPrompter implements Prompter with charmbracelet/huh forms.
type HuhPrompter struct {
	accessible bool
	in         io.Reader
	out        io.Writer
}

// NewHuhPrompter prompts on the terminal. When stdin isn't a TTY it falls back
// to huh's line-based accessible mode so answers can be piped in.
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{
		accessible: !term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// NewAccessiblePrompter reads answers line by line from in and writes
// questions to out.
func NewAccessiblePrompter(in io.Reader, out io.Writer) *HuhPrompter {
	return &HuhPrompter{accessible: true, in: in, out: out}
}

func (p *HuhPrompter) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).WithAccessible(p.accessible)
	if p.in != nil {
		form = form.WithInput(p.in)
	}
	if p.out != nil {
		form = form.WithOutput(p.out)
	}
	return mapFormError(form.RunWithContext(ctx))
}

// Ask implements Prompter.
func (p *HuhPrompter) Ask(ctx context.Context, question string, validate Validator) (string, error) {
	var answer string

	input := huh.NewInput().
		Title(question).
		Value(&answer)
	if validate != nil {
		input = input.Validate(func(s string) error {
			return validate(strings.TrimSpace(s))
		})
	}

	if err := p.run(ctx, input); err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// Confirm implements Prompter.
func (p *HuhPrompter) Confirm(ctx context.Context, question string, defaultNo bool) (bool, error) {
	answer := !defaultNo

	confirm := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)

	if err := p.run(ctx, confirm); err != nil {
		return false, err
	}
	return answer, nil
}

// mapFormError turns an operator quit into ErrAbort.
func mapFormError(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, huh.ErrUserAborted),
		stderrors.Is(err, context.Canceled),
		stderrors.Is(err, io.EOF):
		return errors.WrapWithCode(err, errors.ErrAbort, "Quitting", "")
	}
	return errors.WrapWithCode(err, errors.ErrExec,
		"Couldn't read an answer from the terminal",
		"Pipe answers on stdin to run without a terminal.")
}
