package sshutil

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// defaultKeys are tried after the agent and any IdentityFile.
var defaultKeys = []string{"id_ed25519", "id_rsa", "id_ecdsa"}

// authMethods collects the agent and every readable unencrypted key.
// Encrypted keys are recorded on ep so failures can say which to ssh-add.
func authMethods(ep *endpoint) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if a := agentAuth(); a != nil {
		methods = append(methods, a)
	}

	paths := []string{}
	if ep.identityFile != "" {
		paths = append(paths, ep.identityFile)
	}
	for _, name := range defaultKeys {
		if p := sshDir(name); p != ep.identityFile {
			paths = append(paths, p)
		}
	}

	for _, p := range paths {
		m, err := keyFileAuth(p)
		var encErr *EncryptedKeyError
		switch {
		case err == nil:
			methods = append(methods, m)
		case stderrors.As(err, &encErr):
			ep.encryptedKeys = append(ep.encryptedKeys, p)
		}
	}

	if len(methods) > 0 {
		return methods, nil
	}
	if len(ep.encryptedKeys) > 0 {
		return nil, errors.New(errors.ErrSSH,
			fmt.Sprintf("Found SSH key(s) but they're encrypted: %s", strings.Join(ep.encryptedKeys, ", ")),
			sshAddHint(ep.encryptedKeys))
	}
	return nil, errors.New(errors.ErrSSH,
		"No SSH auth methods available",
		"Check your keys are loaded: ssh-add -l")
}

// sshAddHint tells the operator how to load keys into the agent.
func sshAddHint(keys []string) string {
	var sb strings.Builder
	sb.WriteString("Add your key(s) to the agent:\n")
	flag := ""
	if runtime.GOOS == "darwin" {
		flag = "--apple-use-keychain "
	}
	for _, key := range keys {
		fmt.Fprintf(&sb, "  ssh-add %s%s\n", flag, key)
	}
	sb.WriteString("\nNot sure which key? Check with: ssh -v <host>")
	return sb.String()
}

// The agent connection is shared by every Dial in the process.
var (
	agentMu     sync.Mutex
	agentConn   net.Conn
	agentClient agent.ExtendedAgent
)

// agentAuth returns nil when there is no agent or it holds no keys; an
// empty agent ahead of key files makes servers reject the login.
func agentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	agentMu.Lock()
	if agentClient == nil {
		if conn, err := net.Dial("unix", socket); err == nil {
			agentConn = conn
			agentClient = agent.NewClient(conn)
		}
	}
	client := agentClient
	agentMu.Unlock()

	if client == nil {
		return nil
	}
	if signers, err := client.Signers(); err != nil || len(signers) == 0 {
		return nil
	}
	return ssh.PublicKeysCallback(client.Signers)
}

// CloseAgent drops the shared agent connection. A later Dial reconnects.
func CloseAgent() {
	agentMu.Lock()
	defer agentMu.Unlock()
	if agentConn != nil {
		agentConn.Close()
	}
	agentConn, agentClient = nil, nil
}

// EncryptedKeyError is returned for a key that needs a passphrase.
type EncryptedKeyError struct {
	Path string
}

func (e *EncryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is encrypted (passphrase protected)", e.Path)
}

func keyFileAuth(keyPath string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) || bytes.Contains(key, []byte("ENCRYPTED")) {
			return nil, &EncryptedKeyError{Path: keyPath}
		}
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}
