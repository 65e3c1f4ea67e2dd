package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"gopkg.in/yaml.v3"
)

const starterHeader = `# neoprene configuration
# hosts.<name>.ssh is tried in order; site_dir is the Drupal root there.
# local_db.password may be left empty to use local_db.my_cnf.
`

// StarterConfig returns the config 'neoprene init' writes.
func StarterConfig(hostName string, ssh []string, siteDir string) *Config {
	cfg := DefaultConfig()
	cfg.Hosts[hostName] = Host{SSH: ssh, SiteDir: siteDir}
	cfg.Default = hostName
	return cfg
}

// Write saves cfg to path as YAML under a short explanatory header. An
// existing file is kept unless overwrite is set.
func Write(path string, cfg *Config, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return errors.New(errors.ErrConfig,
			"Config file already exists: "+path,
			"Use --force to overwrite it, or --add-host to add a host to it.")
	}

	body, err := encodeYAML(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't create "+filepath.Dir(path), "Check directory permissions.")
	}
	return writeConfigFile(path, starterHeader+body)
}

// AddHost sets hosts.<name> in the config file at configPath, editing the
// YAML node tree so comments and key order elsewhere survive.
func AddHost(configPath, name string, h Host) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Couldn't read "+configPath, "")
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't parse "+configPath, "Fix the YAML syntax, then run init again.")
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return errors.New(errors.ErrConfig,
			configPath+" isn't a YAML mapping", "Start over with 'neoprene init --force'.")
	}
	doc := root.Content[0]

	hosts := findMapValue(doc, "hosts")
	if hosts == nil || hosts.Kind != yaml.MappingNode {
		hosts = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		setMapValue(doc, "hosts", hosts)
	}

	var entry yaml.Node
	if err := entry.Encode(h); err != nil {
		return fmt.Errorf("encoding host %s: %w", name, err)
	}
	setMapValue(hosts, name, &entry)

	body, err := encodeYAML(&root)
	if err != nil {
		return err
	}
	return writeConfigFile(configPath, body)
}

func encodeYAML(v any) (string, error) {
	var buf strings.Builder
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig, "Couldn't encode the config", "")
	}
	if err := enc.Close(); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig, "Couldn't encode the config", "")
	}
	return buf.String(), nil
}

// writeConfigFile writes owner-only since local_db.password may be set.
func writeConfigFile(path, body string) error {
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write "+path, "Check directory permissions.")
	}
	return nil
}

// findMapValue returns key's value in a mapping node, or nil.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		if k := node.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// setMapValue replaces key's value in a mapping node, appending the pair
// when the key is new.
func setMapValue(node *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i < len(node.Content)-1; i += 2 {
		if k := node.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
			node.Content[i+1] = value
			return
		}
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value)
}
