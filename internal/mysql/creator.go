package mysql

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/logger"
	"github.com/neoprene-dev/neoprene/internal/prompt"
	"github.com/neoprene-dev/neoprene/internal/remote"
	"github.com/neoprene-dev/neoprene/internal/ui"
)

// CreatePrompt is the question asked for each creation attempt.
const CreatePrompt = "What would you like to call your local database?"

// RetryHint follows every failed attempt.
const RetryHint = "Try again...or CTRL-C to exit."

// Target is where a database gets created.
type Target int

const (
	Local Target = iota
	Remote
)

func (t Target) String() string {
	if t == Remote {
		return "remote"
	}
	return "local"
}

// Outcome classifies one creation attempt.
type Outcome int

const (
	Success Outcome = iota
	NameConflict
	OtherFailure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NameConflict:
		return "name conflict"
	default:
		return "failure"
	}
}

// Attempt is the result of a single "mysqladmin create".
type Attempt struct {
	Name       string
	Outcome    Outcome
	Diagnostic string
}

// connectionFailures mark diagnostics where retrying with another name
// can't help.
var connectionFailures = []string{
	"connect to server at",
	"Can't connect to",
	"Unknown MySQL server host",
	"Lost connection to MySQL server",
}

// isConnectionFailure reports whether diag means the server can't be used at
// all. A denial naming a database comes from a reachable server and only
// rules out that name.
func isConnectionFailure(diag string) bool {
	for _, marker := range connectionFailures {
		if strings.Contains(diag, marker) {
			return true
		}
	}
	return strings.Contains(diag, "Access denied for user") && !strings.Contains(diag, "to database")
}

var identifier = regexp.MustCompile(`^[0-9A-Za-z$_]{1,64}$`)
var allDigits = regexp.MustCompile(`^[0-9]+$`)

// ValidateName accepts unquoted MySQL database identifiers.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("a database name is required")
	case len(name) > 64:
		return fmt.Errorf("database names are at most 64 characters")
	case !identifier.MatchString(name):
		return fmt.Errorf("use only letters, digits, '_' and '$'")
	case allDigits.MatchString(name):
		return fmt.Errorf("a database name can't be only digits")
	}
	return nil
}

// Creator asks the operator for a database name until one can be created.
type Creator struct {
	runner   remote.Runner
	prompter prompt.Prompter
	out      io.Writer
	log      logger.Logger

	// Binary is the mysqladmin executable.
	Binary string
}

// NewCreator returns a Creator that prints diagnostics to out.
func NewCreator(runner remote.Runner, prompter prompt.Prompter, out io.Writer, log logger.Logger) *Creator {
	if log == nil {
		log = logger.NewEnvLogger("[mysql]")
	}
	return &Creator{
		runner:   runner,
		prompter: prompter,
		out:      out,
		log:      log,
		Binary:   "mysqladmin",
	}
}

type createState int

const (
	statePrompting createState = iota
	stateAttempting
)

// CreateInteractively prompts for a name and tries to create it, looping on
// any failure other than an unreachable server. It returns the name that was
// created. Quitting at the prompt returns an ErrAbort error without a
// creation attempt.
func (c *Creator) CreateInteractively(ctx context.Context, target Target, conn ConnectionInfo) (string, error) {
	if target == Remote {
		return "", errors.NewNotImplemented("creating a database on the remote host")
	}

	state := statePrompting
	var name string
	for {
		switch state {
		case statePrompting:
			fmt.Fprintln(c.out)
			answer, err := c.prompter.Ask(ctx, CreatePrompt, ValidateName)
			if err != nil {
				return "", err
			}
			name = answer
			state = stateAttempting

		case stateAttempting:
			attempt, err := c.Attempt(ctx, name, conn)
			if err != nil {
				return "", err
			}
			if attempt.Outcome == Success {
				return name, nil
			}
			c.log.Debug("create %s: %s", name, attempt.Outcome)
			fmt.Fprintln(c.out, ui.RenderDanger(attempt.Diagnostic))
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, RetryHint)
			state = statePrompting
		}
	}
}

// Attempt runs one "mysqladmin create". Failures that mean the server
// can't be used at all return an ErrConnection error.
func (c *Creator) Attempt(ctx context.Context, name string, conn ConnectionInfo) (Attempt, error) {
	cmd := conn.command(c.Binary, []string{"create", name})
	res, err := c.runner.RunLocal(ctx, cmd, true)
	if err != nil {
		return Attempt{}, err
	}

	attempt := Attempt{Name: name, Outcome: Success}
	if res.OK() {
		return attempt, nil
	}

	attempt.Diagnostic = strings.TrimSpace(res.Combined())
	if attempt.Diagnostic == "" {
		attempt.Diagnostic = fmt.Sprintf("%s exited with status %d", c.Binary, res.ExitStatus)
	}

	if isConnectionFailure(attempt.Diagnostic) {
		attempt.Outcome = OtherFailure
		return attempt, errors.New(errors.ErrConnection,
			"Can't reach the MySQL server",
			attempt.Diagnostic+"\n\nCheck local_db.host, local_db.user and the password in local_db or ~/.my.cnf.")
	}

	if strings.Contains(attempt.Diagnostic, "database exists") {
		attempt.Outcome = NameConflict
	} else {
		attempt.Outcome = OtherFailure
	}
	return attempt, nil
}
