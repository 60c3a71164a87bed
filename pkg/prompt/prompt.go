// Package prompt loads prompt text from files. Plain files are used as-is;
// YAML files carry a text/template body, default variables, and default
// provider:model targets.
package prompt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Template is a prompt loaded from disk.
type Template struct {
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Text        string                 `yaml:"text"`
	Models      []string               `yaml:"models"`
	Vars        map[string]interface{} `yaml:"vars"`

	// Path is the file the template was loaded from.
	Path string `yaml:"-"`

	// template is set for YAML files; only those are rendered.
	template bool
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads a prompt file. A .yaml/.yml file is parsed as a Template; any
// other file becomes a Template whose Text is the file content verbatim and
// whose Name is the file stem.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt file %s: %w", path, err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !isYAML(path) {
		return &Template{Name: stem, Text: string(data), Path: path}, nil
	}

	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing prompt file %s: %w", path, err)
	}
	if t.Name == "" {
		t.Name = stem
	}
	t.Path = path
	t.template = true
	return &t, nil
}

// Validate checks that the Template has prompt text.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("prompt %q has no text", t.Name)
	}
	return nil
}

// Render returns the prompt text. Plain-file text is returned unchanged.
// YAML text is executed as a Go text/template over the template's own Vars
// overlaid with vars; referencing an undefined variable is an error.
func (t *Template) Render(vars map[string]interface{}) (string, error) {
	if !t.template {
		return t.Text, nil
	}

	merged := make(map[string]interface{}, len(t.Vars)+len(vars))
	for k, v := range t.Vars {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}

	out, err := renderTemplate(t.Name, t.Text, merged)
	if err != nil {
		return "", fmt.Errorf("rendering prompt %q: %w", t.Name, err)
	}
	return out, nil
}

// renderTemplate parses and executes a Go text/template with "missingkey=error"
// so that undefined variables produce an error instead of empty strings.
func renderTemplate(name, text string, vars map[string]interface{}) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
