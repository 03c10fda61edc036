package commands

import (
	_ "embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

//go:embed manuals.toml
var manualsTOML []byte

// Page is the help metadata of one command.
type Page struct {
	Description string `toml:"description"`
	Manual      string `toml:"manual"`
}

// Pages maps command names to their pages.
type Pages map[string]Page

// LoadPages parses a manuals document.
func LoadPages(data []byte) (Pages, error) {
	var pages Pages
	if err := toml.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("parse manual pages: %w", err)
	}
	return pages, nil
}

// DefaultPages returns the embedded manual pages.
func DefaultPages() (Pages, error) {
	return LoadPages(manualsTOML)
}
