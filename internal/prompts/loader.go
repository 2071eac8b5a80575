// Package prompts loads conversation presets: markdown documents whose
// frontmatter names the preset and whose body becomes the opening message.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/alanmeadows/langbridge/internal/langgraph"
	"github.com/alanmeadows/langbridge/internal/store"
)

//go:embed *.md
var builtinFS embed.FS

// Preset is a named system prompt.
type Preset struct {
	Name        string
	Description string
	Role        langgraph.Role
	Tags        []string
	Body        string
	// Builtin is false for presets read from the user directory.
	Builtin bool
}

// UserDir is where user presets live; they shadow builtins of the same name.
// Tests point it at a temp dir.
var UserDir = func() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "langbridge", "presets")
}

// Load returns the preset with the given name, checking the user
// directory before the embedded set.
func Load(name string) (*Preset, error) {
	file := strings.TrimSuffix(name, ".md") + ".md"

	if dir := UserDir(); dir != "" {
		path := filepath.Join(dir, file)
		if store.Exists(path) {
			doc, err := store.ReadDocument(path)
			if err != nil {
				return nil, err
			}
			return fromDocument(file, doc, false), nil
		}
	}

	data, err := builtinFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("loading preset %s: %w", name, err)
	}
	return fromDocument(file, store.ParseDocument(data), true), nil
}

// Render executes the preset body as a text/template with vars.
func (p *Preset) Render(vars map[string]string) (string, error) {
	tmpl, err := template.New(p.Name).Option("missingkey=zero").Parse(p.Body)
	if err != nil {
		return "", fmt.Errorf("parsing preset %s: %w", p.Name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("executing preset %s: %w", p.Name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Messages renders the preset into the messages that open a conversation.
// An empty body yields no messages.
func (p *Preset) Messages(vars map[string]string) ([]langgraph.Message, error) {
	text, err := p.Render(vars)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	return []langgraph.Message{langgraph.NewTextMessage(p.Role, text)}, nil
}

// Save writes a user preset.
func Save(p *Preset) error {
	dir := UserDir()
	if dir == "" {
		return fmt.Errorf("no user config directory")
	}
	fm := map[string]any{
		"name": p.Name,
		"role": string(p.Role),
	}
	if p.Description != "" {
		fm["description"] = p.Description
	}
	if len(p.Tags) > 0 {
		fm["tags"] = p.Tags
	}
	path := filepath.Join(dir, p.Name+".md")
	return store.WriteDocument(path, &store.Document{Frontmatter: fm, Body: p.Body})
}

// List returns every available preset, user presets shadowing builtins,
// sorted by name.
func List() ([]*Preset, error) {
	byName := make(map[string]*Preset)

	entries, err := builtinFS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		data, err := builtinFS.ReadFile(e.Name())
		if err != nil {
			return nil, err
		}
		p := fromDocument(e.Name(), store.ParseDocument(data), true)
		byName[p.Name] = p
	}

	if dir := UserDir(); dir != "" {
		files, _ := filepath.Glob(filepath.Join(dir, "*.md"))
		for _, path := range files {
			doc, err := store.ReadDocument(path)
			if err != nil {
				return nil, err
			}
			p := fromDocument(filepath.Base(path), doc, false)
			byName[p.Name] = p
		}
	}

	out := make([]*Preset, 0, len(byName))
	for _, p := range byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func fromDocument(file string, doc *store.Document, builtin bool) *Preset {
	name := store.GetString(doc.Frontmatter, "name")
	if name == "" {
		name = strings.TrimSuffix(file, ".md")
	}
	role := langgraph.Role(store.GetString(doc.Frontmatter, "role"))
	if role == "" {
		role = langgraph.RoleSystem
	}
	return &Preset{
		Name:        name,
		Description: store.GetString(doc.Frontmatter, "description"),
		Role:        role,
		Tags:        store.GetStringSlice(doc.Frontmatter, "tags"),
		Body:        doc.Body,
		Builtin:     builtin,
	}
}
