// Package loader reads declarative control stack documents (YAML or JSON)
// and replays them against a controls.Stack.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-controls/internal/hydrate"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a document.
type Format string

// Supported document formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("loader: unsupported document format")

// Document declares the controls of one entity type.
type Document struct {
	Name       string      `json:"name"`
	Sections   []Section   `json:"sections"`
	Injections []Injection `json:"injections,omitempty"`
	// Source is the file the document was read from.
	Source string `json:"-"`
}

// Section opens a section and declares the controls inside it.
type Section struct {
	ID       string         `json:"id"`
	Args     map[string]any `json:"args,omitempty"`
	Controls []Entry        `json:"controls,omitempty"`
}

// Entry is one item of a section. Exactly one of the shapes applies: a plain
// control, a responsive control, a group, a tabs group or a popover.
type Entry struct {
	ID         string         `json:"id,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
	Responsive bool           `json:"responsive,omitempty"`
	Group      string         `json:"group,omitempty"`
	Overwrite  bool           `json:"overwrite,omitempty"`
	Tabs       *Tabs          `json:"tabs,omitempty"`
	Popover    []Entry        `json:"popover,omitempty"`
}

// Tabs is a tabs group with its tabs.
type Tabs struct {
	ID   string         `json:"id"`
	Args map[string]any `json:"args,omitempty"`
	Tabs []Tab          `json:"tabs"`
}

// Tab is one tab of a tabs group.
type Tab struct {
	ID       string         `json:"id"`
	Args     map[string]any `json:"args,omitempty"`
	Controls []Entry        `json:"controls,omitempty"`
}

// Injection adds controls at a position of the already declared stack.
type Injection struct {
	Position Position `json:"position"`
	Controls []Entry  `json:"controls"`
}

// Position mirrors controls.Position.
type Position struct {
	Type string `json:"type,omitempty"`
	At   string `json:"at,omitempty"`
	Of   string `json:"of"`
}

// entryKeys are the structural keys of an entry; every other key is a
// control arg.
var entryKeys = map[string]bool{
	"id": true, "args": true, "responsive": true, "group": true,
	"overwrite": true, "tabs": true, "popover": true,
}

var sectionKeys = map[string]bool{"id": true, "args": true, "controls": true}

var tabKeys = map[string]bool{"id": true, "args": true, "controls": true, "tabs": true}

// Parse decodes data in format. source labels errors and fills the document
// name when the document carries none.
func Parse(data []byte, format Format, source string) (Document, error) {
	payload := map[string]any{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return Document{}, fmt.Errorf("loader: parse %s: %w", source, err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &payload); err != nil {
			return Document{}, fmt.Errorf("loader: parse %s: %w", source, err)
		}
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	ctx := hydrate.Context{Source: source, Entity: nameFromSource(source)}
	decoder := hydrate.NewDecoder(
		hydrate.WithPreHook[Document](foldShorthand),
		hydrate.WithStrict[Document](),
		hydrate.WithPostHook[Document](validateDocument),
	)
	doc, err := decoder.Decode(ctx, payload)
	if err != nil {
		return Document{}, err
	}
	doc.Source = source
	return doc, nil
}

// LoadFile reads one document, picking the format from the extension.
func LoadFile(path string) (Document, error) {
	format, ok := formatOf(path)
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return Parse(data, format, path)
}

// LoadDir reads every document directly inside dir in file name order.
// Hidden files and other extensions are skipped.
func LoadDir(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loader: read dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, ok := formatOf(entry.Name()); ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	docs := make([]Document, 0, len(names))
	seen := map[string]string{}
	for _, name := range names {
		path := filepath.Join(dir, name)
		doc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if previous, dup := seen[doc.Name]; dup {
			return nil, fmt.Errorf("loader: %s redeclares %q from %s", path, doc.Name, previous)
		}
		seen[doc.Name] = path
		docs = append(docs, doc)
	}
	return docs, nil
}

func formatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	default:
		return "", false
	}
}

func nameFromSource(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// foldShorthand moves the arg keys written inline on sections, entries and
// tabs into their "args" map and defaults the name to the file name.
func foldShorthand(ctx hydrate.Context, payload map[string]any) (map[string]any, error) {
	if name, _ := payload["name"].(string); strings.TrimSpace(name) == "" && ctx.Entity != "" && ctx.Entity != "." {
		payload["name"] = ctx.Entity
	}
	sections, _ := payload["sections"].([]any)
	for _, raw := range sections {
		section, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		foldArgs(section, sectionKeys)
		foldEntries(section["controls"])
	}
	injections, _ := payload["injections"].([]any)
	for _, raw := range injections {
		if injection, ok := raw.(map[string]any); ok {
			foldEntries(injection["controls"])
		}
	}
	return payload, nil
}

func foldEntries(value any) {
	entries, _ := value.([]any)
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		foldArgs(entry, entryKeys)
		foldEntries(entry["popover"])
		if tabs, ok := entry["tabs"].(map[string]any); ok {
			foldArgs(tabs, tabKeys)
			items, _ := tabs["tabs"].([]any)
			for _, item := range items {
				if tab, ok := item.(map[string]any); ok {
					foldArgs(tab, tabKeys)
					foldEntries(tab["controls"])
				}
			}
		}
	}
}

func foldArgs(node map[string]any, structural map[string]bool) {
	args, _ := node["args"].(map[string]any)
	for key, value := range node {
		if structural[key] {
			continue
		}
		if args == nil {
			args = map[string]any{}
		}
		if _, exists := args[key]; !exists {
			args[key] = value
		}
		delete(node, key)
	}
	if args != nil {
		node["args"] = args
	}
}

func validateDocument(ctx hydrate.Context, doc *Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	doc.Name = strings.TrimSpace(doc.Name)
	if doc.Name == "" {
		return errors.New("document name is required")
	}
	for i, section := range doc.Sections {
		if strings.TrimSpace(section.ID) == "" {
			return fmt.Errorf("sections[%d] is missing an id", i)
		}
		if err := validateEntries(fmt.Sprintf("sections[%d]", i), section.Controls); err != nil {
			return err
		}
	}
	for i, injection := range doc.Injections {
		if strings.TrimSpace(injection.Position.Of) == "" {
			return fmt.Errorf("injections[%d] position is missing \"of\"", i)
		}
		if err := validateEntries(fmt.Sprintf("injections[%d]", i), injection.Controls); err != nil {
			return err
		}
	}
	return nil
}

func validateEntries(path string, entries []Entry) error {
	for i, entry := range entries {
		at := fmt.Sprintf("%s.controls[%d]", path, i)
		shapes := 0
		if entry.Group != "" {
			shapes++
		}
		if entry.Tabs != nil {
			shapes++
		}
		if entry.Popover != nil {
			shapes++
		}
		if shapes > 1 || (shapes == 1 && entry.Responsive) {
			return fmt.Errorf("%s mixes group, tabs, popover or responsive", at)
		}
		switch {
		case entry.Tabs != nil:
			if strings.TrimSpace(entry.Tabs.ID) == "" {
				return fmt.Errorf("%s tabs group is missing an id", at)
			}
			for j, tab := range entry.Tabs.Tabs {
				if strings.TrimSpace(tab.ID) == "" {
					return fmt.Errorf("%s.tabs[%d] is missing an id", at, j)
				}
				if err := validateEntries(fmt.Sprintf("%s.tabs[%d]", at, j), tab.Controls); err != nil {
					return err
				}
			}
		case entry.Popover != nil:
			if err := validateEntries(at+".popover", entry.Popover); err != nil {
				return err
			}
		case entry.Group != "":
		default:
			if strings.TrimSpace(entry.ID) == "" {
				return fmt.Errorf("%s is missing an id", at)
			}
		}
	}
	return nil
}
