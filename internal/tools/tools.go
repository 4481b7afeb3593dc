// Package tools holds the catalog of AI edit tools shown in the editor.
//
// A tool is either a DirectEdit, whose prompt is sent as-is, or a
// TemplateEdit, whose prompt contains bracketed placeholders such as
// "[DESCRIBE BACKGROUND HERE]" that the user fills in before sending.
package tools

import (
	"fmt"
	"regexp"
	"strings"
)

// Edit is implemented by DirectEdit and TemplateEdit.
type Edit interface {
	isEdit()
}

// DirectEdit is sent to the editing service unchanged.
type DirectEdit struct {
	Prompt string
}

// TemplateEdit needs its placeholders filled before it can be sent.
type TemplateEdit struct {
	Prompt string
}

func (DirectEdit) isEdit()   {}
func (TemplateEdit) isEdit() {}

var placeholderRe = regexp.MustCompile(`\[[^\]]+\]`)

// Placeholders returns the bracketed placeholders in order of appearance,
// without duplicates.
func (t TemplateEdit) Placeholders() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeholderRe.FindAllString(t.Prompt, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// Fill replaces each placeholder with its value. Keys may be given with or
// without brackets. Every placeholder must be filled.
func (t TemplateEdit) Fill(values map[string]string) (string, error) {
	norm := make(map[string]string, len(values))
	for k, v := range values {
		k = strings.TrimSpace(k)
		if !strings.HasPrefix(k, "[") {
			k = "[" + k + "]"
		}
		norm[k] = strings.TrimSpace(v)
	}

	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(t.Prompt, func(m string) string {
		v, ok := norm[m]
		if !ok || v == "" {
			missing = append(missing, m)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unfilled placeholders: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Tool is one named entry in a category.
type Tool struct {
	Name string
	Edit Edit
}

// IsTemplate reports whether the tool needs placeholders filled.
func (t Tool) IsTemplate() bool {
	_, ok := t.Edit.(TemplateEdit)
	return ok
}

// Prompt resolves the tool to the instruction text sent to the editing service.
func (t Tool) Prompt(values map[string]string) (string, error) {
	switch e := t.Edit.(type) {
	case DirectEdit:
		return e.Prompt, nil
	case TemplateEdit:
		return e.Fill(values)
	default:
		return "", fmt.Errorf("tool %q has no edit", t.Name)
	}
}

// Category groups related tools.
type Category struct {
	Name  string
	Tools []Tool
}

// Find looks a tool up by case-insensitive name across all categories.
func Find(name string) (Tool, bool) {
	for _, c := range Catalog {
		for _, t := range c.Tools {
			if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
				return t, true
			}
		}
	}
	return Tool{}, false
}
