package reconcile

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// AliasTable maps a vendor store label (or a registry vendor store id) to a
// keyword expected in the matching restaurant's canonical name. Kept as a
// versioned configuration artifact because vendor naming drifts over time.
type AliasTable map[string]string

// Lookup is case-insensitive on the vendor label.
func (t AliasTable) Lookup(label string) (string, bool) {
	if v, ok := t[label]; ok {
		return v, true
	}
	for k, v := range t {
		if strings.EqualFold(k, label) {
			return v, true
		}
	}
	return "", false
}

type aliasFile struct {
	Aliases AliasTable `yaml:"aliases"`
}

// LoadAliases reads the alias table from a YAML file. A missing file is not
// an error; matching then relies on the substring and last-token tiers.
func LoadAliases(path string) (AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return AliasTable{}, nil
		}
		return nil, eris.Wrapf(err, "reconcile: read alias file %s", path)
	}
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "reconcile: parse alias file %s", path)
	}
	if f.Aliases == nil {
		f.Aliases = AliasTable{}
	}
	return f.Aliases, nil
}
