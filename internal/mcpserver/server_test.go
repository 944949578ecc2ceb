package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/recordbook/internal/models"
	"github.com/starford/recordbook/internal/recordservice"
	"github.com/starford/recordbook/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	svc := recordservice.New(testutil.TestStore(t), recordservice.WithJournal(testutil.TestJournal(t)))
	exportDir := filepath.Join(t.TempDir(), "exports")
	return New(svc, exportDir), exportDir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so dispatch to the
	// handler functions by name.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "find_records":
		result, err = srv.findRecords(ctx, req)
	case "list_records":
		result, err = srv.listRecords(ctx, req)
	case "add_record":
		result, err = srv.addRecord(ctx, req)
	case "edit_record":
		result, err = srv.editRecord(ctx, req)
	case "delete_records":
		result, err = srv.deleteRecords(ctx, req)
	case "export_records":
		result, err = srv.exportRecords(ctx, req)
	case "get_record_format":
		result, err = srv.getRecordFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func addArgs(id int, name string, age int, address string) map[string]interface{} {
	return map[string]interface{}{"id": float64(id), "name": name, "age": float64(age), "address": address}
}

func TestAddAndFind(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "add_record", addArgs(1, "Alice", 30, "1 Main St"))
	if r.IsError {
		t.Fatalf("add failed: %s", resultText(r))
	}
	if text := resultText(r); text != "added: 1, Alice, 30, 1 Main St" {
		t.Errorf("add result = %q", text)
	}

	r = callTool(t, srv, "find_records", map[string]interface{}{"field": "name", "value": "Alice"})
	var recs []models.Record
	if err := json.Unmarshal([]byte(resultText(r)), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != 1 {
		t.Errorf("find = %+v", recs)
	}
}

func TestAddDuplicate(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "add_record", addArgs(7, "Bob", 25, "X"))
	r := callTool(t, srv, "add_record", addArgs(7, "Carol", 40, "Y"))
	if !r.IsError {
		t.Error("expected error for duplicate id")
	}
}

func TestEditAndDelete(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "add_record", addArgs(5, "E", 50, "Oak"))

	r := callTool(t, srv, "edit_record", map[string]interface{}{"id": float64(5), "field": "address", "value": "Pine"})
	if r.IsError || !strings.Contains(resultText(r), "Pine") {
		t.Errorf("edit = %q", resultText(r))
	}
	r = callTool(t, srv, "edit_record", map[string]interface{}{"id": float64(5), "field": "id", "value": "6"})
	if !r.IsError {
		t.Error("expected error editing id")
	}

	r = callTool(t, srv, "delete_records", map[string]interface{}{"field": "address", "value": "Pine"})
	if text := resultText(r); text != "deleted: 1" {
		t.Errorf("delete = %q", text)
	}
	r = callTool(t, srv, "delete_records", map[string]interface{}{"field": "address", "value": "Pine"})
	if !r.IsError {
		t.Error("expected error when nothing matched")
	}
}

func TestListRecordsEmpty(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_records", map[string]interface{}{})
	if text := resultText(r); text != "[]" {
		t.Errorf("list = %q", text)
	}
}

func TestExportRecords(t *testing.T) {
	srv, dir := testServer(t)
	_ = callTool(t, srv, "add_record", addArgs(1, "A", 1, "a"))

	r := callTool(t, srv, "export_records", map[string]interface{}{"name": "out.xlsx"})
	if r.IsError {
		t.Fatalf("export failed: %s", resultText(r))
	}
	if _, err := os.Stat(filepath.Join(dir, "out.xlsx")); err != nil {
		t.Errorf("export file missing: %v", err)
	}

	for _, name := range []string{"../out.xlsx", "out.txt"} {
		if r := callTool(t, srv, "export_records", map[string]interface{}{"name": name}); !r.IsError {
			t.Errorf("expected error for %q", name)
		}
	}
}

func TestGetRecordFormat(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_record_format", nil)
	if !strings.Contains(resultText(r), "id,name,age,address") {
		t.Error("contract missing line format")
	}
}

func TestAddRecordRejectsFractionalNumbers(t *testing.T) {
	srv, _ := testServer(t)

	cases := []map[string]interface{}{
		{"id": 1.5, "name": "A", "age": float64(3), "address": "a"},
		{"id": float64(1), "name": "A", "age": 3.2, "address": "a"},
	}
	for _, args := range cases {
		if r := callTool(t, srv, "add_record", args); !r.IsError {
			t.Errorf("expected error for %v, got %q", args, resultText(r))
		}
	}

	r := callTool(t, srv, "list_records", map[string]interface{}{})
	if text := resultText(r); text != "[]" {
		t.Errorf("nothing should be stored, list = %q", text)
	}

	r = callTool(t, srv, "edit_record", map[string]interface{}{"id": 0.5, "field": "name", "value": "B"})
	if !r.IsError {
		t.Error("expected error for fractional id in edit")
	}
}
