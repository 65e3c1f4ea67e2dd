package host

import (
	"fmt"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/ui"
)

// FailReason says why one SSH destination didn't answer.
type FailReason int

const (
	FailUnknown FailReason = iota
	FailTimeout
	FailRefused
	FailUnreachable
	FailAuth
	FailHostKey
)

var reasonText = map[FailReason]string{
	FailTimeout:     "connection timed out",
	FailRefused:     "connection refused",
	FailUnreachable: "host unreachable",
	FailAuth:        "authentication failed",
	FailHostKey:     "host key verification failed",
}

func (r FailReason) String() string {
	if text, ok := reasonText[r]; ok {
		return text
	}
	return "connection failed"
}

// Status is the connection display's word for r.
func (r FailReason) Status() ui.ConnectionStatus {
	switch r {
	case FailTimeout:
		return ui.StatusTimeout
	case FailRefused:
		return ui.StatusRefused
	case FailUnreachable:
		return ui.StatusUnreachable
	case FailAuth, FailHostKey:
		return ui.StatusAuthFailed
	}
	return ui.StatusFailed
}

// DialError is a failed dial of one destination in a host's ssh list.
type DialError struct {
	Alias  string
	Reason FailReason
	Cause  error
}

func (e *DialError) Error() string {
	return fmt.Sprintf("ssh %s: %s: %v", e.Alias, e.Reason, e.Cause)
}

func (e *DialError) Unwrap() error {
	return e.Cause
}

// reasonMarkers are matched in order against the lowercased error text;
// "timed out" must win over the generic host key wording some handshakes
// report alongside it.
var reasonMarkers = []struct {
	reason  FailReason
	markers []string
}{
	{FailTimeout, []string{"timeout", "timed out"}},
	{FailRefused, []string{"connection refused"}},
	{FailUnreachable, []string{"no route to host", "network is unreachable", "host is down", "no such host"}},
	{FailAuth, []string{"unable to authenticate", "no supported methods", "permission denied", "authentication failed"}},
	{FailHostKey, []string{"host key"}},
}

// classifyDialError wraps err in a DialError naming its reason. A nil err
// stays nil.
func classifyDialError(alias string, err error) *DialError {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, rm := range reasonMarkers {
		for _, marker := range rm.markers {
			if strings.Contains(msg, marker) {
				return &DialError{Alias: alias, Reason: rm.reason, Cause: err}
			}
		}
	}
	return &DialError{Alias: alias, Reason: FailUnknown, Cause: err}
}
