package pragma

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadFile reads an optional on-disk sdscc.toml pragma bundle, applied
// before -p flags so command-line overrides win. A missing or unreadable
// file is returned as an error; the CLI only calls this when -config is set.
func LoadFile(path string) (Bundle, error) {
	b := Default()
	if _, err := toml.DecodeFile(path, &b); err != nil {
		return b, fmt.Errorf("reading pragma config %s: %w", path, err)
	}
	return b, nil
}

// Flag implements flag.Value for repeatable "-p name value" pragma
// injection, mirroring the teacher's flag.Var(&selectors, "select", ...)
// pattern for repeatable string-list flags.
type Flag struct {
	Bundle *Bundle
}

func (f *Flag) String() string { return "" }

// Set parses "name value" or "name=value" and applies it to the bundle.
func (f *Flag) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	if !ok {
		name, value, ok = strings.Cut(raw, " ")
		if !ok {
			name, value = raw, ""
		}
	}
	return f.Bundle.Set(strings.TrimSpace(name), strings.TrimSpace(value))
}
