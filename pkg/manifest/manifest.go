// Package manifest loads the navigation manifest that drives scaffolding: an
// ordered tree of named groups whose leaves are page paths.
package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema/manifest.schema.yaml
var schemaYAML []byte

// LoadError reports a manifest that is missing, unparsable or the wrong shape
type LoadError struct {
	Path     string
	Err      error
	Problems []string
}

func (e *LoadError) Error() string {
	if len(e.Problems) > 0 {
		return fmt.Sprintf("invalid manifest %s: %s", e.Path, strings.Join(e.Problems, "; "))
	}
	return fmt.Sprintf("cannot load manifest %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrShape is wrapped by a LoadError for a manifest that fails schema validation
var ErrShape = errors.New("manifest does not match the navigation schema")

// Manifest is a parsed navigation tree
type Manifest struct {
	Source string  `json:"-"`
	Groups []Group `json:"groups"`
}

// Group is a named section of the navigation
type Group struct {
	Name  string `json:"group"`
	Pages []Page `json:"pages"`
}

// Page is either a page path or a nested group
type Page struct {
	Path  string
	Group *Group
}

// UnmarshalJSON accepts a string path or a nested group object
func (p *Page) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.Path)
	}
	var g Group
	if err := json.Unmarshal(data, &g); err != nil {
		return err
	}
	p.Group = &g
	return nil
}

// MarshalJSON writes the page back in the form it was read
func (p Page) MarshalJSON() ([]byte, error) {
	if p.Group != nil {
		return json.Marshal(p.Group)
	}
	return json.Marshal(p.Path)
}

// Entry is a flattened page with the names of its enclosing groups
type Entry struct {
	Path       string   `json:"path"`
	Breadcrumb []string `json:"breadcrumb"`
}

// Flatten lists every page in manifest order
func (m *Manifest) Flatten() []Entry {
	var out []Entry
	var walk func(g Group, crumbs []string)
	walk = func(g Group, crumbs []string) {
		crumbs = append(append([]string(nil), crumbs...), g.Name)
		for _, p := range g.Pages {
			if p.Group != nil {
				walk(*p.Group, crumbs)
				continue
			}
			out = append(out, Entry{Path: cleanPagePath(p.Path), Breadcrumb: crumbs})
		}
	}
	for _, g := range m.Groups {
		walk(g, nil)
	}
	return out
}

func cleanPagePath(p string) string {
	p = strings.TrimSpace(filepath.ToSlash(p))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return p
	}
	return path.Clean(p)
}

// Load reads a JSON, YAML or TOML manifest chosen by file extension. The
// groups may sit at the top level, under a navigation array, or under
// navigation.groups.
func Load(file string) (*Manifest, error) {
	// #nosec G304 -- manifest path comes from configuration
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, &LoadError{Path: file, Err: err}
	}
	m, err := Parse(data, filepath.Ext(file))
	if err != nil {
		var lerr *LoadError
		if errors.As(err, &lerr) {
			lerr.Path = file
			return nil, lerr
		}
		return nil, &LoadError{Path: file, Err: err}
	}
	m.Source = file
	return m, nil
}

// Parse decodes manifest bytes in the format named by ext (".json", ".yaml", ".yml" or ".toml")
func Parse(data []byte, ext string) (*Manifest, error) {
	doc, err := decode(data, ext)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	groups, ok := findGroups(doc)
	if !ok {
		return nil, &LoadError{Err: ErrShape, Problems: []string{"no navigation groups found"}}
	}
	normalized := map[string]interface{}{"groups": groups}

	if problems, err := validate(normalized); err != nil {
		return nil, &LoadError{Err: err}
	} else if len(problems) > 0 {
		return nil, &LoadError{Err: ErrShape, Problems: problems}
	}

	raw, err := json.Marshal(normalized)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &LoadError{Err: err}
	}
	return &m, nil
}

func decode(data []byte, ext string) (interface{}, error) {
	var doc interface{}
	switch strings.ToLower(ext) {
	case ".json", "":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	case ".toml":
		var m map[string]interface{}
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
		doc = m
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", ext)
	}
	return doc, nil
}

func findGroups(doc interface{}) (interface{}, bool) {
	root, ok := doc.(map[string]interface{})
	if !ok {
		return nil, false
	}
	if g, ok := root["groups"]; ok {
		return g, true
	}
	switch nav := root["navigation"].(type) {
	case []interface{}:
		return nav, true
	case map[string]interface{}:
		g, ok := nav["groups"]
		return g, ok
	}
	return nil, false
}

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var schemaData interface{}
		if err := yaml.Unmarshal(schemaYAML, &schemaData); err != nil {
			schemaErr = fmt.Errorf("parsing manifest schema: %w", err)
			return
		}
		jsonBytes, err := json.Marshal(schemaData)
		if err != nil {
			schemaErr = fmt.Errorf("encoding manifest schema: %w", err)
			return
		}
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(jsonBytes))
	})
	return compiledSchema, schemaErr
}

func validate(doc interface{}) ([]string, error) {
	s, err := loadSchema()
	if err != nil {
		return nil, err
	}
	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	var problems []string
	for _, verr := range result.Errors() {
		field := verr.Field()
		if field == "" {
			field = "root"
		}
		problems = append(problems, fmt.Sprintf("%s: %s", field, verr.Description()))
	}
	return problems, nil
}
