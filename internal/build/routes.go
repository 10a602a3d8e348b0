package build

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Routes maps each collection to the URL prefix its pages are written
// under. Prefixes always carry leading and trailing slashes.
type Routes struct {
	Posts   string `yaml:"posts"`
	Pages   string `yaml:"pages"`
	Docs    string `yaml:"docs"`
	Tags    string `yaml:"tags"`
	Authors string `yaml:"authors"`
}

// DefaultRoutes are the prefixes used when no routes file exists.
func DefaultRoutes() Routes {
	return Routes{
		Posts:   "/",
		Pages:   "/",
		Docs:    "/docs/",
		Tags:    "/tag/",
		Authors: "/author/",
	}
}

// LoadRoutes reads a routes file, falling back to defaults when the file is
// absent. Unset fields keep their default.
func LoadRoutes(path string) (Routes, error) {
	routes := DefaultRoutes()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return routes, nil
	}
	if err != nil {
		return routes, fmt.Errorf("read routes file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &routes); err != nil {
		return routes, fmt.Errorf("parse routes file %s: %w", path, err)
	}

	return routes, nil
}
