package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .neoprene.yaml configuration file.
type Config struct {
	Version int             `yaml:"version" mapstructure:"version"`
	Hosts   map[string]Host `yaml:"hosts" mapstructure:"hosts"`
	Default string          `yaml:"default" mapstructure:"default"`

	// Timeout bounds every remote and local command.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// ProbeTimeout bounds each SSH dial.
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`

	// Shell wraps remote commands so drush and git see the login environment.
	Shell string `yaml:"shell" mapstructure:"shell"`

	Tools   Tools         `yaml:"tools" mapstructure:"tools"`
	LocalDB LocalDBConfig `yaml:"local_db" mapstructure:"local_db"`

	// StagingDir is where dumps are downloaded. Empty means the system temp dir.
	StagingDir string `yaml:"staging_dir" mapstructure:"staging_dir"`

	// KeepDump leaves the decompressed dump behind after a successful import.
	KeepDump bool `yaml:"keep_dump" mapstructure:"keep_dump"`

	StrictHostKeyChecking bool `yaml:"strict_host_key_checking" mapstructure:"strict_host_key_checking"`

	Lock LockConfig `yaml:"lock" mapstructure:"lock"`
}

// Host defines a remote machine running the live site.
type Host struct {
	// SSH connection strings, tried in order until one succeeds.
	// Can be: hostname, user@hostname, or SSH config alias.
	SSH []string `yaml:"ssh" mapstructure:"ssh"`

	// SiteDir is the Drupal root on the host. Supports ${USER} and ${HOME},
	// which stays ~ for the remote shell.
	SiteDir string `yaml:"site_dir" mapstructure:"site_dir"`
}

// Tools names the executables neoprene drives.
type Tools struct {
	Drush      string `yaml:"drush" mapstructure:"drush"`
	Git        string `yaml:"git" mapstructure:"git"`
	MySQL      string `yaml:"mysql" mapstructure:"mysql"`
	MySQLAdmin string `yaml:"mysqladmin" mapstructure:"mysqladmin"`
}

// LocalDBConfig says how to reach the local MySQL server.
type LocalDBConfig struct {
	Host string `yaml:"host" mapstructure:"host"`

	// User defaults to the operator's login name when empty.
	User string `yaml:"user" mapstructure:"user"`

	// Password is passed to the clients when set. Leave it empty to let
	// MyCnf supply it.
	Password string `yaml:"password" mapstructure:"password"`

	MyCnf string `yaml:"my_cnf" mapstructure:"my_cnf"`
}

// LockConfig controls the per-site lock held on the remote host while a
// backup runs.
type LockConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Timeout is how long to wait for another operator's backup to finish.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Stale is the age after which a held lock is assumed abandoned.
	Stale time.Duration `yaml:"stale" mapstructure:"stale"`

	// Dir holds the lock directories on the remote host.
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:      CurrentConfigVersion,
		Hosts:        make(map[string]Host),
		Timeout:      10 * time.Minute,
		ProbeTimeout: 10 * time.Second,
		Shell:        "bash -l -c",
		Tools: Tools{
			Drush:      "drush",
			Git:        "git",
			MySQL:      "mysql",
			MySQLAdmin: "mysqladmin",
		},
		LocalDB: LocalDBConfig{
			Host:  "localhost",
			MyCnf: "~/.my.cnf",
		},
		StrictHostKeyChecking: true,
		Lock: LockConfig{
			Enabled: true,
			Timeout: 2 * time.Minute,
			Stale:   30 * time.Minute,
			Dir:     "/tmp",
		},
	}
}
