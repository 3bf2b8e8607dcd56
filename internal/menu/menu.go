package menu

import (
	"errors"
	"fmt"
	"strings"
)

// Item is a top-level navigation entry. Title doubles as its display key.
type Item struct {
	Title string `yaml:"title"`
	Path  string `yaml:"path"`
}

// App is an entry of the apps dropdown.
type App struct {
	Title       string `yaml:"title"`
	Path        string `yaml:"path"`
	Description string `yaml:"description"`
}

type Config struct {
	AppName   string `yaml:"app_name"`
	AppsLabel string `yaml:"apps_label"`
	Items     []Item `yaml:"items"`
	Apps      []App  `yaml:"apps"`
}

// Default is used when config.yaml carries no header section.
func Default() Config {
	return Config{
		AppName:   "Toolshub",
		AppsLabel: "AI tools and services",
		Items: []Item{
			{Title: "Home", Path: "/"},
			{Title: "Docs", Path: "/docs"},
			{Title: "Pricing", Path: "/pricing"},
		},
		Apps: []App{
			{Title: "Chat", Path: "/apps/chat", Description: "Talk to an assistant"},
			{Title: "Summarize", Path: "/apps/summarize", Description: "Condense long documents"},
			{Title: "Translate", Path: "/apps/translate", Description: "Translate text between languages"},
		},
	}
}

func (c *Config) Defaults() {
	d := Default()
	if c.AppName == "" {
		c.AppName = d.AppName
	}
	if c.AppsLabel == "" {
		c.AppsLabel = d.AppsLabel
	}
	if len(c.Items) == 0 && len(c.Apps) == 0 {
		c.Items = d.Items
		c.Apps = d.Apps
	}
}

// Validate rejects entries that would render blank or collide on their key.
func (c Config) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	check := func(kind string, i int, title, path string) {
		if strings.TrimSpace(title) == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: empty title", kind, i))
		}
		if !strings.HasPrefix(path, "/") {
			errs = append(errs, fmt.Errorf("%s[%d]: path %q must start with /", kind, i, path))
		}
		if seen[kind+"/"+title] {
			errs = append(errs, fmt.Errorf("%s[%d]: duplicate title %q", kind, i, title))
		}
		seen[kind+"/"+title] = true
	}
	for i, it := range c.Items {
		check("items", i, it.Title, it.Path)
	}
	for i, a := range c.Apps {
		check("apps", i, a.Title, a.Path)
	}
	return errors.Join(errs...)
}

// Lookup finds the title and description configured for path.
func (c Config) Lookup(path string) (title, description string, ok bool) {
	for _, it := range c.Items {
		if IsActive(path, it.Path) {
			return it.Title, "", true
		}
	}
	for _, a := range c.Apps {
		if IsActive(path, a.Path) {
			return a.Title, a.Description, true
		}
	}
	return "", "", false
}

// IsActive reports whether an entry pointing at itemPath is the page being
// shown.
func IsActive(currentPath, itemPath string) bool {
	return currentPath == itemPath
}
