package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".neoprene.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/neoprene"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. NEOPRENE_LOCAL_DB_PASSWORD.
	EnvPrefix = "NEOPRENE"
)

// Load reads the config file at path, applying environment overrides and
// defaults.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"No config file at "+path,
				"Run 'neoprene init' to create one, or point --config at an existing file.")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't read "+path,
			"Make sure the file is readable YAML.")
	}
	return parseConfig(v, path)
}

// Find returns the config file to use, or "" when there is none. An explicit
// path must exist. Otherwise the first .neoprene.yaml found walking up from
// the working directory wins; the walk stops at the enclosing git root and
// never reaches $HOME. ~/.config/neoprene/config.yaml is the last resort.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Can't use config file "+explicit,
				"Check the path passed to --config and its permissions.")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Can't determine the working directory", "")
	}

	home, _ := os.UserHomeDir()
	candidates := make([]string, 0, 4)
	for _, dir := range searchDirs(cwd, home) {
		candidates = append(candidates, filepath.Join(dir, ConfigFileName))
	}
	if home != "" {
		candidates = append(candidates, filepath.Join(home, GlobalConfigDir, GlobalConfigFile))
	}

	for _, c := range candidates {
		if fileExists(c) {
			return c, nil
		}
	}
	return "", nil
}

// searchDirs is cwd followed by its ancestors up to the first git root,
// stopping below home.
func searchDirs(cwd, home string) []string {
	dirs := []string{cwd}
	for dir := cwd; !isGitRoot(dir); {
		parent := filepath.Dir(dir)
		if parent == dir || (home != "" && parent == home) {
			break
		}
		dir = parent
		dirs = append(dirs, dir)
	}
	return dirs
}

// LoadOrDefault loads the file Find picks. With no file, defaults plus
// environment overrides are returned and the path is "".
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	switch {
	case err != nil:
		return nil, "", err
	case path == "":
		cfg, err := parseConfig(newViper(), "environment")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig decodes v over DefaultConfig and expands path variables.
// source names where the values came from for error messages.
func parseConfig(v *viper.Viper, source string) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Config values in "+source+" don't fit their fields",
			"Durations look like 30s or 10m; booleans are true or false.")
	}

	for name, host := range cfg.Hosts {
		host.SiteDir = ExpandRemote(host.SiteDir)
		cfg.Hosts[name] = host
	}
	cfg.LocalDB.MyCnf = ExpandLocalPath(cfg.LocalDB.MyCnf)
	cfg.StagingDir = ExpandLocalPath(cfg.StagingDir)

	return cfg, nil
}

// setDefaults registers every scalar key so environment overrides reach
// Unmarshal even when the file doesn't mention the key.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("default", "")
	v.SetDefault("timeout", d.Timeout.String())
	v.SetDefault("probe_timeout", d.ProbeTimeout.String())
	v.SetDefault("shell", d.Shell)
	v.SetDefault("tools.drush", d.Tools.Drush)
	v.SetDefault("tools.git", d.Tools.Git)
	v.SetDefault("tools.mysql", d.Tools.MySQL)
	v.SetDefault("tools.mysqladmin", d.Tools.MySQLAdmin)
	v.SetDefault("local_db.host", d.LocalDB.Host)
	v.SetDefault("local_db.user", "")
	v.SetDefault("local_db.password", "")
	v.SetDefault("local_db.my_cnf", d.LocalDB.MyCnf)
	v.SetDefault("staging_dir", "")
	v.SetDefault("keep_dump", d.KeepDump)
	v.SetDefault("strict_host_key_checking", d.StrictHostKeyChecking)
	v.SetDefault("lock.enabled", d.Lock.Enabled)
	v.SetDefault("lock.timeout", d.Lock.Timeout.String())
	v.SetDefault("lock.stale", d.Lock.Stale.String())
	v.SetDefault("lock.dir", d.Lock.Dir)
}

func isGitRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
