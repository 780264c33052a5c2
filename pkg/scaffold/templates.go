package scaffold

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aymerick/raymond"
)

//go:embed templates/*.hbs
var builtin embed.FS

// Template names. A template directory may override either by providing
// <name>.hbs; missing files fall back to the built-in body.
const (
	BasicTemplate = "basic"
	APITemplate   = "api"
)

var templateNames = []string{BasicTemplate, APITemplate}

// Templates holds the compiled page bodies
type Templates struct {
	compiled map[string]*raymond.Template
}

// LoadTemplates compiles the page templates found in dir, or only the
// built-in ones when dir is empty.
func LoadTemplates(dir string) (*Templates, error) {
	t := &Templates{compiled: make(map[string]*raymond.Template, len(templateNames))}
	for _, name := range templateNames {
		src, err := readTemplate(dir, name)
		if err != nil {
			return nil, err
		}
		tpl, err := raymond.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("compiling template %s: %w", name, err)
		}
		t.compiled[name] = tpl
	}
	return t, nil
}

func readTemplate(dir, name string) (string, error) {
	file := name + ".hbs"
	if dir != "" {
		// #nosec G304 -- template directory comes from configuration
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("reading template %s: %w", name, err)
		}
	}
	data, err := builtin.ReadFile("templates/" + file)
	if err != nil {
		return "", fmt.Errorf("reading built-in template %s: %w", name, err)
	}
	return string(data), nil
}

// Render executes the named template against data
func (t *Templates) Render(name string, data map[string]interface{}) (string, error) {
	tpl, ok := t.compiled[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	out, err := tpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return out, nil
}
