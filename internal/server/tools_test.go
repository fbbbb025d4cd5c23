package server

import (
	"testing"

	"github.com/ironsheep/particle-tracker-mcp/internal/tracker"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"frame_load",
		"frame_sample",
		"particles_list_detectors",
		"particles_detect",
		"particles_render",
		"particles_batch",
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("tool %s defined twice", tool.Name)
		}
		toolMap[tool.Name] = tool
	}
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type = %v, want object", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema has no properties map")
			}
			required, _ := tool.InputSchema["required"].([]string)
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required property %s is not declared", r)
				}
			}
		})
	}
}

func TestToolDefinitions_DetectorEnum(t *testing.T) {
	enum := detectorProperty["enum"].([]string)
	kinds := tracker.Kinds()
	if len(enum) != len(kinds) {
		t.Fatalf("detector enum has %d entries, want %d", len(enum), len(kinds))
	}
	for i, k := range kinds {
		if enum[i] != k.String() {
			t.Errorf("enum[%d] = %s, want %s", i, enum[i], k)
		}
	}
}
