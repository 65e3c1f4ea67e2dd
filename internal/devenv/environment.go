// Package devenv stands up a development clone of a live site and puts it
// on the branch the operator wants to work on.
package devenv

import (
	"fmt"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/errors"
)

// BranchMode is the operator's branch strategy for the new clone.
type BranchMode int

const (
	// NoBranch means provisioning stopped before a strategy was chosen.
	NoBranch BranchMode = iota
	// UseExisting checks out a branch that already exists on origin.
	UseExisting
	// CreateNew branches off a base branch.
	CreateNew
)

func (m BranchMode) String() string {
	switch m {
	case UseExisting:
		return "existing branch"
	case CreateNew:
		return "new branch"
	default:
		return "none"
	}
}

// Environment is a development clone, filled in as provisioning goes.
// BaseBranch is only set for CreateNew.
type Environment struct {
	LiveSourcePath string
	RemoteURL      string
	TargetPath     string
	BranchMode     BranchMode
	BranchName     string
	BaseBranch     string
}

// Finalized reports whether the clone is on its working branch.
func (e Environment) Finalized() bool {
	return e.BranchMode != NoBranch && e.BranchName != ""
}

// StrategyPrompt asks for the branch strategy.
const StrategyPrompt = "Type 1 to work on an existing branch or 2 to create a new branch"

// ValidateStrategy accepts exactly "1" and "2".
func ValidateStrategy(answer string) error {
	if answer == "1" || answer == "2" {
		return nil
	}
	return errors.New(errors.ErrBranch,
		fmt.Sprintf("%q isn't a branch strategy", answer),
		"Answer 1 (use an existing branch) or 2 (create a new branch).")
}

// ParseStrategy maps a validated answer to its BranchMode.
func ParseStrategy(answer string) (BranchMode, error) {
	if err := ValidateStrategy(answer); err != nil {
		return NoBranch, err
	}
	if answer == "1" {
		return UseExisting, nil
	}
	return CreateNew, nil
}

// ValidateBranchName rejects names git would refuse or read as an option.
func ValidateBranchName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("a branch name is required")
	case strings.HasPrefix(name, "-"):
		return fmt.Errorf("branch names can't start with '-'")
	case strings.ContainsAny(name, " \t~^:?*[\\"):
		return fmt.Errorf("branch names can't contain spaces or any of ~^:?*[\\")
	case strings.Contains(name, ".."), strings.HasSuffix(name, ".lock"), strings.HasSuffix(name, "/"):
		return fmt.Errorf("%q isn't a valid branch name", name)
	}
	return nil
}
