package compiler

import (
	"strings"
	"testing"
)

const yamlFlow = `
name: tiny
entry: hello
options:
  diacritic_folding: true
nodes:
  - name: hello
    persona: friendly
    prompt: Olá
edges:
  - from: hello
    to: END
`

func TestParse_YAML(t *testing.T) {
	flow, err := NewParser().Parse([]byte(yamlFlow), FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if flow.Name != "tiny" || flow.Entry != "hello" {
		t.Errorf("unexpected header: %+v", flow)
	}
	if !flow.Options.DiacriticFolding {
		t.Error("expected diacritic folding option")
	}
	if len(flow.Nodes) != 1 || flow.Nodes[0].Persona != "friendly" {
		t.Errorf("unexpected nodes: %+v", flow.Nodes)
	}
	if len(flow.Edges) != 1 || flow.Edges[0].To != "END" {
		t.Errorf("unexpected edges: %+v", flow.Edges)
	}
}

func TestParse_JSON(t *testing.T) {
	data := `{"entry": "a", "nodes": [{"name": "a", "reply": "oi"}], "edges": [{"from": "a", "to": "END"}]}`
	flow, err := NewParser().Parse([]byte(data), FormatJSON)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if flow.Nodes[0].Reply != "oi" {
		t.Errorf("expected reply 'oi', got %q", flow.Nodes[0].Reply)
	}
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := NewParser().Parse([]byte("entry: a\nnodez: []\n"), FormatYAML)
	if err == nil || !strings.Contains(err.Error(), "nodez") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := NewParser().Parse([]byte("entry: [a"), FormatYAML); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFormatFor(t *testing.T) {
	cases := map[string]Format{
		"flow.yaml": FormatYAML,
		"flow.yml":  FormatYAML,
		"flow.JSON": FormatJSON,
		"flow":      FormatYAML,
	}
	for path, want := range cases {
		if got := FormatFor(path); got != want {
			t.Errorf("FormatFor(%q) = %q, want %q", path, got, want)
		}
	}
}
