package testing

import (
	"context"
	"fmt"
	"testing"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedPrompter_Ask(t *testing.T) {
	p := NewScriptedPrompter(Say("first"), Say("second"))

	a, err := p.Ask(context.Background(), "Name?", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", a)

	a, err = p.Ask(context.Background(), "Name?", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", a)

	assert.Equal(t, 2, p.Asks())
	assert.Zero(t, p.Remaining())
}

func TestScriptedPrompter_AskValidatorRetries(t *testing.T) {
	p := NewScriptedPrompter(Say("3"), Say(""), Say("2"))
	validate := func(s string) error {
		if s != "1" && s != "2" {
			return fmt.Errorf("choose 1 or 2")
		}
		return nil
	}

	a, err := p.Ask(context.Background(), "Strategy?", validate)

	require.NoError(t, err)
	assert.Equal(t, "2", a)
	assert.Equal(t, 1, p.Asks())

	ex := p.Exchanges()
	require.Len(t, ex, 3)
	assert.Error(t, ex[0].Rejected)
	assert.Error(t, ex[1].Rejected)
	assert.NoError(t, ex[2].Rejected)
}

func TestScriptedPrompter_Abort(t *testing.T) {
	p := NewScriptedPrompter(Abort())

	_, err := p.Ask(context.Background(), "Name?", nil)

	assert.True(t, errors.IsAbort(err))
}

func TestScriptedPrompter_Exhausted(t *testing.T) {
	p := NewScriptedPrompter()

	_, err := p.Ask(context.Background(), "Name?", nil)
	assert.ErrorContains(t, err, "script exhausted")

	_, err = p.Confirm(context.Background(), "Sure?", true)
	assert.ErrorContains(t, err, "script exhausted")
}

func TestScriptedPrompter_Confirm(t *testing.T) {
	tests := []struct {
		answer    Answer
		defaultNo bool
		want      bool
		wantErr   bool
		wantAbort bool
	}{
		{answer: Say("y"), defaultNo: true, want: true},
		{answer: Say("yes"), want: true},
		{answer: Say("n"), want: false},
		{answer: Say(""), defaultNo: true, want: false},
		{answer: Say(""), defaultNo: false, want: true},
		{answer: Say("maybe"), wantErr: true},
		{answer: Abort(), wantAbort: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%+v/defaultNo=%v", tt.answer, tt.defaultNo), func(t *testing.T) {
			p := NewScriptedPrompter(tt.answer)

			got, err := p.Confirm(context.Background(), "Delete?", tt.defaultNo)

			switch {
			case tt.wantAbort:
				assert.True(t, errors.IsAbort(err))
			case tt.wantErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, 1, p.Confirms())
		})
	}
}

func TestScriptedPrompter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewScriptedPrompter(Say("x"))

	_, err := p.Ask(ctx, "Name?", nil)

	assert.True(t, errors.IsAbort(err))
	assert.Equal(t, 1, p.Remaining())
}
