package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ironsheep/particle-tracker-mcp/internal/config"
)

func newTestServer() *Server {
	return New(config.App{
		DefaultDetector: "connected-component",
		CacheFrames:     8,
		OverlayColor:    "#ff3030",
	}, zerolog.Nop())
}

func TestNew(t *testing.T) {
	s := newTestServer()
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cache == nil {
		t.Fatal("New() did not initialize cache")
	}
	if s.registry == nil {
		t.Fatal("New() did not initialize the detector registry")
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}
			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	if resp == nil || resp.Error != nil {
		t.Fatalf("initialize failed: %+v", resp)
	}

	result := resp.Result.(map[string]interface{})
	info := result["serverInfo"].(map[string]interface{})
	if info["name"] != Name {
		t.Errorf("server name = %v, want %s", info["name"], Name)
	}
	if info["version"] != Version {
		t.Errorf("server version = %v, want %s", info["version"], Version)
	}
}

func TestHandleRequest_Routing(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	if resp := s.handleRequest(ctx, &MCPRequest{Method: "notifications/initialized"}); resp != nil {
		t.Errorf("notification produced a response: %+v", resp)
	}

	resp := s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 2, Method: "ping"})
	if resp == nil || resp.Error != nil {
		t.Fatalf("ping failed: %+v", resp)
	}

	resp = s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 3, Method: "resources/list"})
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Errorf("unknown method: got %+v, want code -32601", resp.Error)
	}

	resp = s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 4, Method: "tools/list"})
	tools := resp.Result.(map[string]interface{})["tools"].([]Tool)
	if len(tools) != len(GetToolDefinitions()) {
		t.Errorf("tools/list returned %d tools", len(tools))
	}
}

func TestServe(t *testing.T) {
	s := newTestServer()
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"particles_list_detectors"}}`,
	}, "\n"))
	var out bytes.Buffer

	if err := s.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	dec := json.NewDecoder(&out)
	var responses []MCPResponse
	for dec.More() {
		var r MCPResponse
		if err := dec.Decode(&r); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		responses = append(responses, r)
	}
	if len(responses) != 3 {
		t.Fatalf("got %d responses, want 3", len(responses))
	}
	if responses[0].ID != float64(1) || responses[0].Error != nil {
		t.Errorf("ping response: %+v", responses[0])
	}
	if responses[1].Error == nil || responses[1].Error.Code != -32700 {
		t.Errorf("parse error response: %+v", responses[1])
	}
	if responses[2].ID != float64(2) || responses[2].Error != nil {
		t.Errorf("tools/call response: %+v", responses[2])
	}
}

func TestServe_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := newTestServer().Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	if err != context.Canceled {
		t.Errorf("Serve on a cancelled context = %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}
