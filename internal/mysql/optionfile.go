package mysql

import (
	"os"

	"github.com/go-ini/ini"
	"github.com/neoprene-dev/neoprene/internal/errors"
)

// optionGroups are read in order; later groups override earlier ones, the
// way the mysql client merges them.
var optionGroups = []string{"client", "mysql", "mysqladmin"}

// OptionFile is what a MySQL option file (~/.my.cnf) supplies to the
// command-line clients.
type OptionFile struct {
	Path        string
	Exists      bool
	Host        string
	User        string
	HasPassword bool
}

// ReadOptionFile parses path. A missing file is not an error; the result
// just reports Exists=false.
func ReadOptionFile(path string) (OptionFile, error) {
	of := OptionFile{Path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return of, nil
	}

	// Bare options such as "skip-ssl" or a lone "password" (prompt for
	// it) carry no value and are skipped.
	cfg, err := ini.LoadSources(ini.LoadOptions{
		SkipUnrecognizableLines: true,
		Insensitive:             true,
	}, path)
	if err != nil {
		return of, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't read MySQL option file "+path,
			"Fix the file's syntax or point local_db.my_cnf at another file.")
	}
	of.Exists = true

	for _, name := range optionGroups {
		section, err := cfg.GetSection(name)
		if err != nil {
			continue
		}
		if k := section.Key("host").String(); k != "" {
			of.Host = k
		}
		if k := section.Key("user").String(); k != "" {
			of.User = k
		}
		if section.HasKey("password") && section.Key("password").String() != "" {
			of.HasPassword = true
		}
	}
	return of, nil
}
