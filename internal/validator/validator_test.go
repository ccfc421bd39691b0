package validator

import (
	"strings"
	"testing"

	"github.com/aretw0/switchboard/internal/dto"
)

func TestStruct_Valid(t *testing.T) {
	flow := dto.Flow{
		Entry: "a",
		Nodes: []dto.FlowNode{{Name: "a", Reply: "oi"}},
	}
	if err := Struct(flow); err != nil {
		t.Errorf("expected valid flow, got %v", err)
	}
}

func TestStruct_ReportsEveryViolation(t *testing.T) {
	flow := dto.Flow{
		Nodes:  []dto.FlowNode{{Name: "a"}},
		Routes: []dto.FlowRoute{{From: "a", Rules: []dto.FlowRule{{Match: "x"}}}},
	}
	err := Struct(flow)
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{
		"Entry is required",
		"Nodes[0].Prompt is required when Reply is empty",
		"Routes[0].Default is required",
		"Routes[0].Rules[0].To is required",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in:\n%s", want, msg)
		}
	}
	if !strings.HasPrefix(msg, "found 4 errors") {
		t.Errorf("expected 4 errors, got:\n%s", msg)
	}
}

func TestStruct_NoNodes(t *testing.T) {
	err := Struct(dto.Flow{Entry: "a"})
	if err == nil || !strings.Contains(err.Error(), "Nodes") {
		t.Fatalf("expected Nodes error, got %v", err)
	}
}
