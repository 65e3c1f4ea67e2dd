package host

import (
	"github.com/neoprene-dev/neoprene/internal/ui"
	"github.com/neoprene-dev/neoprene/pkg/sshutil"
)

// Candidates lists the hosts in an OpenSSH config file for the picker.
func Candidates(sshConfigPath string) ([]ui.SSHHostInfo, error) {
	entries, err := sshutil.ListHosts(sshConfigPath)
	if err != nil {
		return nil, err
	}

	hosts := make([]ui.SSHHostInfo, 0, len(entries))
	for _, e := range entries {
		hosts = append(hosts, ui.SSHHostInfo{
			Alias:    e.Alias,
			Hostname: e.Hostname,
			User:     e.User,
			Port:     e.Port,
		})
	}
	return hosts, nil
}
