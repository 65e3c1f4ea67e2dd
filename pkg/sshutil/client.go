package sshutil

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/logger"
	"golang.org/x/crypto/ssh"
)

// DefaultDialTimeout bounds the TCP connect and handshake when
// DialOptions.Timeout is zero.
const DefaultDialTimeout = 10 * time.Second

// DialOptions configures one Dial. The zero value dials with the defaults
// and checks host keys against ~/.ssh/known_hosts.
type DialOptions struct {
	// Timeout bounds the TCP connect and the SSH handshake.
	Timeout time.Duration

	// InsecureIgnoreHostKey skips known_hosts verification
	// (strict_host_key_checking: false).
	InsecureIgnoreHostKey bool

	// ConfigFile is the OpenSSH client config consulted for aliases.
	// Empty means ~/.ssh/config.
	ConfigFile string

	// KnownHostsFile is created empty when missing. Empty means
	// ~/.ssh/known_hosts.
	KnownHostsFile string

	Logger logger.Logger
}

func (o DialOptions) withDefaults() DialOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultDialTimeout
	}
	if o.ConfigFile == "" {
		o.ConfigFile = DefaultConfigPath()
	}
	if o.KnownHostsFile == "" {
		o.KnownHostsFile = sshDir("known_hosts")
	}
	if o.Logger == nil {
		o.Logger = logger.NewEnvLogger("[ssh]")
	}
	return o
}

// Client is an authenticated SSH connection to the live site's host.
type Client struct {
	*ssh.Client
	Host    string // destination as configured: alias, host, user@host[:port]
	Address string // resolved host:port
}

// Dial connects and authenticates to dest, which may be an alias from the
// SSH config, a hostname, user@host or host:port. Cancelling ctx aborts the
// TCP connect.
func Dial(ctx context.Context, dest string, opts DialOptions) (*Client, error) {
	opts = opts.withDefaults()
	ep := resolveEndpoint(dest, opts.ConfigFile, opts.Logger)

	auth, err := authMethods(ep)
	if err != nil {
		return nil, err
	}
	hostKeys, err := hostKeyCallback(opts)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't read %s", opts.KnownHostsFile),
			"Fix the file's permissions, or set strict_host_key_checking: false.")
	}

	dialCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	address := ep.address()
	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", address)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.WrapWithCode(ctx.Err(), errors.ErrAbort, "Quitting", "")
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach '%s' at %s", dest, address),
			suggestionForDialError(err))
	}

	_ = conn.SetDeadline(time.Now().Add(opts.Timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, &ssh.ClientConfig{
		User:            ep.user,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         opts.Timeout,
	})
	if err != nil {
		conn.Close()
		var mismatch *HostKeyMismatchError
		if stderrors.As(err, &mismatch) {
			return nil, errors.New(errors.ErrSSH, mismatch.Error(), mismatch.Suggestion())
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH handshake with '%s' didn't go through", dest),
			suggestionForHandshakeError(err, ep.encryptedKeys))
	}
	_ = conn.SetDeadline(time.Time{})

	opts.Logger.Debug("connected to %s as %s (%s)", dest, ep.user, address)
	return &Client{
		Client:  ssh.NewClient(sshConn, chans, reqs),
		Host:    dest,
		Address: address,
	}, nil
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// GetHost returns the destination Dial was given.
func (c *Client) GetHost() string {
	return c.Host
}

// GetAddress returns the resolved host:port.
func (c *Client) GetAddress() string {
	return c.Address
}

func (c *Client) newSSHSession() (*ssh.Session, error) {
	return c.Client.NewSession()
}

func suggestionForDialError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "Is SSH running on that box? Try: ssh <host>"
	case strings.Contains(msg, "no route to host"), strings.Contains(msg, "network is unreachable"):
		return "Can't route to the host. Check your network connection."
	case strings.Contains(msg, "timeout"):
		return "Connection timed out. Host might be offline or blocked by a firewall."
	default:
		return "Make sure the host is reachable: ping <host>"
	}
}

func suggestionForHandshakeError(err error, encryptedKeys []string) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unable to authenticate"), strings.Contains(msg, "no supported methods"):
		if len(encryptedKeys) > 0 {
			return "Your key(s) are encrypted. " + sshAddHint(encryptedKeys)
		}
		return "Auth failed. Check your keys are loaded: ssh-add -l"
	case strings.Contains(msg, "host key"):
		return "Host key issue. Try connecting manually first: ssh <host>"
	default:
		return "Something went wrong during SSH setup. Try: ssh <host>"
	}
}
