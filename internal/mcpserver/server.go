// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes recordbook operations for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/recordbook/internal/models"
	"github.com/starford/recordbook/internal/recordservice"
)

const formatResourceURI = "recordbook://record-format"

// Server wraps the MCP server with recordbook tools.
type Server struct {
	mcp       *server.MCPServer
	svc       *recordservice.Service
	exportDir string
}

// New creates a new MCP server with all recordbook tools registered.
// Exports are written into exportDir.
func New(svc *recordservice.Service, exportDir string) *Server {
	s := &Server{svc: svc, exportDir: exportDir}

	s.mcp = server.NewMCPServer(
		"recordbook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("find_records",
		mcp.WithDescription("Find records whose field exactly equals value."),
		mcp.WithString("field", mcp.Required(), mcp.Enum(models.FieldID, models.FieldName, models.FieldAge, models.FieldAddress),
			mcp.Description("Field to match")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Exact value; numbers in plain decimal form")),
	), s.findRecords)

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List every record in file order."),
	), s.listRecords)

	s.mcp.AddTool(mcp.NewTool("add_record",
		mcp.WithDescription("Add a record. The id must not already exist. "+
			"Read the format first via get_record_format or the "+formatResourceURI+" resource."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Unique non-negative integer id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name without commas")),
		mcp.WithNumber("age", mcp.Required(), mcp.Description("Age in years")),
		mcp.WithString("address", mcp.Required(), mcp.Description("Address without commas")),
	), s.addRecord)

	s.mcp.AddTool(mcp.NewTool("edit_record",
		mcp.WithDescription("Change the name, age or address of the record with the given id. The id cannot be edited."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Id of the record to edit")),
		mcp.WithString("field", mcp.Required(), mcp.Enum(models.FieldName, models.FieldAge, models.FieldAddress),
			mcp.Description("Field to change")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
	), s.editRecord)

	s.mcp.AddTool(mcp.NewTool("delete_records",
		mcp.WithDescription("Delete every record whose field exactly equals value."),
		mcp.WithString("field", mcp.Required(), mcp.Enum(models.FieldID, models.FieldName, models.FieldAge, models.FieldAddress),
			mcp.Description("Field to match")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Exact value")),
	), s.deleteRecords)

	s.mcp.AddTool(mcp.NewTool("export_records",
		mcp.WithDescription("Export all records to an xlsx workbook in the export directory."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name ending in .xlsx")),
	), s.exportRecords)

	s.mcp.AddTool(mcp.NewTool("get_record_format",
		mcp.WithDescription("Returns the record model and file format rules."),
	), s.getRecordFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatResourceURI, "Record Format",
			mcp.WithResourceDescription("Record fields, validation rules and backing file format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// requireWhole reads a numeric argument and rejects fractional values,
// which RequireInt would silently truncate.
func requireWhole(req mcp.CallToolRequest, key string) (int, error) {
	v, err := req.RequireFloat(key)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("argument %q must be a whole number, got %v", key, v)
	}
	return int(v), nil
}

func (s *Server) findRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	recs, err := s.svc.Find(ctx, field, value)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(recs), nil
}

func (s *Server) listRecords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := s.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(recs), nil
}

func (s *Server) addRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireWhole(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	age, err := requireWhole(req, "age")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	address, err := req.RequireString("address")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.svc.Add(ctx, models.Record{ID: id, Name: name, Age: age, Address: address})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added: %s", rec)), nil
}

func (s *Server) editRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireWhole(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if field == models.FieldID {
		return mcp.NewToolResultError("the id cannot be edited"), nil
	}

	rec, err := s.svc.Edit(ctx, id, field, value)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", rec)), nil
}

func (s *Server) deleteRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Delete(ctx, field, value)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %d", n)), nil
}

func (s *Server) exportRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !strings.HasSuffix(name, ".xlsx") || strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid export name: %s", name)), nil
	}
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dst := filepath.Join(s.exportDir, name)
	if err := s.svc.Export(ctx, dst); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("exported: %s", dst)), nil
}

func (s *Server) getRecordFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readRecordFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatResourceURI,
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
