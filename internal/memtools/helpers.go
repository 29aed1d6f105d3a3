// Package memtools provides the MCP tool handlers for the context
// index.
//
// Each tool handler follows the same pattern:
// - A struct with dependencies (memory.Store) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Write tools surface every storage error to the caller; read tools
// return whatever the store could retrieve, which may be empty.
package memtools

import (
	"os"

	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// stringListArg extracts a list-of-strings argument. Non-string
// elements are skipped.
func stringListArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// resolveContent returns the markdown text for an indexing tool call:
// inline content wins, otherwise the file at path is read.
func resolveContent(req mcp.CallToolRequest) (text string, source string, err error) {
	content := req.GetString("content", "")
	path := req.GetString("path", "")

	if content != "" {
		return content, req.GetString("source_file", "inline.md"), nil
	}
	if path == "" {
		return "", "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	source = req.GetString("source_file", "")
	if source == "" {
		source = path
	}
	return string(data), source, nil
}
