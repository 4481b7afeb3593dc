package tools

import (
	"strings"
	"testing"
)

func TestTemplatePlaceholders(t *testing.T) {
	tool, ok := Find("Background + Clothes")
	if !ok {
		t.Fatal("Expected to find Background + Clothes")
	}
	if !tool.IsTemplate() {
		t.Fatal("Expected Background + Clothes to be a template")
	}

	tmpl := tool.Edit.(TemplateEdit)
	got := tmpl.Placeholders()
	want := []string{"[DESCRIBE OUTFIT]", "[DESCRIBE BACKGROUND]"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected placeholder %d to be %s, got %s", i, want[i], got[i])
		}
	}
}

func TestPrompt(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		values   map[string]string
		contains string
		wantErr  bool
	}{
		{
			name:     "direct edit ignores values",
			tool:     "Rim Light",
			contains: "rim light",
		},
		{
			name:     "template filled without brackets",
			tool:     "Only Background",
			values:   map[string]string{"DESCRIBE BACKGROUND HERE": "a foggy pine forest"},
			contains: "Replace only the background with a foggy pine forest,",
		},
		{
			name:    "template with missing value",
			tool:    "Background + Clothes",
			values:  map[string]string{"[DESCRIBE OUTFIT]": "a navy suit"},
			wantErr: true,
		},
		{
			name:    "template with blank value",
			tool:    "Only Clothes",
			values:  map[string]string{"DESCRIBE OUTFIT HERE": "  "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, ok := Find(tt.tool)
			if !ok {
				t.Fatalf("Tool %q not found", tt.tool)
			}
			got, err := tool.Prompt(tt.values)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("Expected prompt to contain %q, got %q", tt.contains, got)
			}
			if strings.Contains(got, "[") {
				t.Errorf("Expected no brackets left in %q", got)
			}
		})
	}
}

func TestCatalogNamesUnique(t *testing.T) {
	seen := make(map[string]string)
	for _, c := range Catalog {
		for _, tool := range c.Tools {
			key := strings.ToLower(tool.Name)
			if prev, ok := seen[key]; ok {
				t.Errorf("Tool %q appears in both %s and %s", tool.Name, prev, c.Name)
			}
			seen[key] = c.Name
			if tool.Edit == nil {
				t.Errorf("Tool %q has no edit", tool.Name)
			}
		}
	}
}
