// Package host connects to the machine running the live site, trying each
// configured SSH destination in order.
package host

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neoprene-dev/neoprene/internal/config"
	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/pkg/sshutil"
)

// ConnectionEventType is the kind of progress a Selector reports.
type ConnectionEventType int

const (
	EventTrying ConnectionEventType = iota
	EventFailed
	EventConnected
)

func (t ConnectionEventType) String() string {
	switch t {
	case EventTrying:
		return "trying"
	case EventFailed:
		return "failed"
	case EventConnected:
		return "connected"
	}
	return "unknown"
}

// ConnectionEvent reports progress on one destination. Error is a
// *DialError on EventFailed.
type ConnectionEvent struct {
	Type    ConnectionEventType
	Alias   string
	Message string
	Error   error
	Latency time.Duration
}

// EventHandler receives every ConnectionEvent in order.
type EventHandler func(event ConnectionEvent)

// DialFunc opens an SSH connection to alias.
type DialFunc func(ctx context.Context, alias string, opts sshutil.DialOptions) (sshutil.SSHClient, error)

// Connection is an open session to a configured host.
type Connection struct {
	Name    string // host key in config, e.g. "prod"
	Alias   string // destination that answered, e.g. "prod-vpn"
	Client  sshutil.SSHClient
	Host    config.Host
	Latency time.Duration // connect plus authenticate
}

func (c *Connection) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// Selector connects to a host through the first SSH destination that answers.
type Selector struct {
	opts    sshutil.DialOptions
	dial    DialFunc
	onEvent EventHandler
}

// NewSelector returns a Selector that dials every destination with opts.
func NewSelector(opts sshutil.DialOptions) *Selector {
	return &Selector{opts: opts, dial: DialSSH, onEvent: func(ConnectionEvent) {}}
}

// DialSSH is the DialFunc backed by sshutil.Dial.
func DialSSH(ctx context.Context, alias string, opts sshutil.DialOptions) (sshutil.SSHClient, error) {
	client, err := sshutil.Dial(ctx, alias, opts)
	if err != nil {
		// keep a nil *Client out of the interface
		return nil, err
	}
	return client, nil
}

// SetDialer replaces how connections are opened.
func (s *Selector) SetDialer(dial DialFunc) {
	s.dial = dial
}

// SetEventHandler installs handler; nil silences events.
func (s *Selector) SetEventHandler(handler EventHandler) {
	if handler == nil {
		handler = func(ConnectionEvent) {}
	}
	s.onEvent = handler
}

// Connect dials h.SSH in order and returns the first destination that
// authenticates. Cancelling ctx, or a dial that reports an abort, stops the
// walk with an ErrAbort error.
func (s *Selector) Connect(ctx context.Context, name string, h config.Host) (*Connection, error) {
	if len(h.SSH) == 0 {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Host '%s' needs at least one SSH connection", name),
			"Add something like 'user@hostname' under the 'ssh:' section for this host.")
	}

	var lastErr error
	for i, alias := range h.SSH {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrAbort, "Quitting", "")
		}
		s.onEvent(ConnectionEvent{Type: EventTrying, Alias: alias, Message: "trying " + alias})

		start := time.Now()
		client, err := s.dial(ctx, alias, s.opts)
		took := time.Since(start)

		switch {
		case err == nil:
			msg := "connected via " + alias
			if i > 0 {
				msg += " (fallback)"
			}
			s.onEvent(ConnectionEvent{Type: EventConnected, Alias: alias, Message: msg, Latency: took})
			return &Connection{Name: name, Alias: alias, Client: client, Host: h, Latency: took}, nil
		case errors.IsAbort(err):
			return nil, err
		}

		dialErr := classifyDialError(alias, err)
		s.onEvent(ConnectionEvent{
			Type:    EventFailed,
			Alias:   alias,
			Message: dialErr.Reason.String(),
			Error:   dialErr,
			Latency: took,
		})
		lastErr = err
	}

	return nil, errors.WrapWithCode(lastErr, errors.ErrSSH,
		fmt.Sprintf("Couldn't connect to '%s' - tried: %s", name, strings.Join(h.SSH, ", ")),
		"The host might be offline, or there could be a network or firewall issue. Try: ssh "+h.SSH[0])
}
