// Package config implements .tsforge.yaml project configuration.
//
// When a .tsforge.yaml exists in the project root its values become the
// defaults for every command; command-line flags still override single
// values. A missing file is not an error: the built-in defaults apply.
package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tsforge/tsforge/tablefile"
)

// FileName is the project configuration file name.
const FileName = ".tsforge.yaml"

// Project holds the settings shared by all commands.
type Project struct {
	// Repo is the git repository scanned for candidate strings (default ".").
	Repo string `yaml:"repo"`
	// Base is the catalog path prefix. The catalog for a locale lives at
	// {base}_{locale}.ts. Commands that touch catalogs require it when no
	// --base flag is given.
	Base string `yaml:"base"`
	// Languages are the locale codes served by apply, export and import.
	Languages []string `yaml:"languages"`
	// Patterns select the source files scanned for candidates.
	Patterns []string `yaml:"patterns"`
	// Range is the default commit range for collection.
	Range string `yaml:"range"`
}

// Default returns the configuration used when no .tsforge.yaml exists.
func Default() *Project {
	langs := make([]string, len(tablefile.Locales))
	for i, loc := range tablefile.Locales {
		langs[i] = loc.Code
	}
	return &Project{
		Repo:      ".",
		Languages: langs,
		Patterns:  []string{"*.cpp", "*.h", "*.ui"},
		Range:     "HEAD~10..HEAD",
	}
}

// Load reads .tsforge.yaml from rootDir. A missing file yields the
// defaults; omitted fields in a present file are filled with them.
func Load(rootDir string) (*Project, error) {
	cfgPath := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", cfgPath, err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", cfgPath, err)
	}
	p.fillDefaults()

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", cfgPath, err)
	}
	return &p, nil
}

// fillDefaults completes fields the file omitted.
func (p *Project) fillDefaults() {
	d := Default()
	if p.Repo == "" {
		p.Repo = d.Repo
	}
	if len(p.Languages) == 0 {
		p.Languages = d.Languages
	}
	if len(p.Patterns) == 0 {
		p.Patterns = d.Patterns
	}
	if p.Range == "" {
		p.Range = d.Range
	}
}

// Validate checks field shapes. Load wraps failures with the file path.
func (p *Project) Validate() error {
	for _, lang := range p.Languages {
		if !IsLocaleCode(lang) {
			return fmt.Errorf("languages: %q is not a locale code (expected ll or ll_CC)", lang)
		}
	}
	for _, pat := range p.Patterns {
		if _, err := path.Match(pat, "probe"); err != nil {
			return fmt.Errorf("patterns: %q: %w", pat, err)
		}
	}
	return nil
}

// CatalogPath returns the catalog file for a locale: {base}_{code}.ts.
func (p *Project) CatalogPath(code string) string {
	return p.Base + "_" + code + ".ts"
}

// Save writes the configuration to .tsforge.yaml under rootDir.
func (p *Project) Save(rootDir string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	cfgPath := filepath.Join(rootDir, FileName)
	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", cfgPath, err)
	}
	return nil
}

// IsLocaleCode checks if a string looks like a locale code (zh, zh_CN, pt_BR).
func IsLocaleCode(s string) bool {
	if len(s) == 2 {
		return s[0] >= 'a' && s[0] <= 'z' && s[1] >= 'a' && s[1] <= 'z'
	}
	if len(s) == 5 && s[2] == '_' {
		return s[0] >= 'a' && s[0] <= 'z' && s[1] >= 'a' && s[1] <= 'z' &&
			s[3] >= 'A' && s[3] <= 'Z' && s[4] >= 'A' && s[4] <= 'Z'
	}
	return false
}
