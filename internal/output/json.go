package output

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/dotcommander/agentflow/internal/models"
)

// Response represents a standard JSON response. Every operation exposed to
// callers resolves to one of these; errors never escape as panics or raw
// process output.
type Response struct {
	SchemaVersion string      `json:"schema_version"`
	Success       bool        `json:"success"`
	Data          interface{} `json:"data,omitempty"`
	Error         string      `json:"error,omitempty"`
	Code          string      `json:"code,omitempty"`
}

// Success wraps a successful response with data
func Success(data interface{}) Response {
	return Response{
		SchemaVersion: "v1",
		Success:       true,
		Data:          data,
	}
}

// Error wraps an error in a response. Structured errors contribute their
// machine-readable code.
func Error(err error) Response {
	resp := Response{
		SchemaVersion: "v1",
		Success:       false,
		Error:         err.Error(),
	}
	var re models.RecoverableError
	if errors.As(err, &re) {
		resp.Code = re.ErrorCode()
	}
	return resp
}

// Print prints a value as JSON to stdout
func Print(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	// Default to compact JSON to minimize token/output size for agent consumption.
	// Enable pretty JSON for humans via env var: AGENTFLOW_PRETTY_JSON=1.
	if os.Getenv("AGENTFLOW_PRETTY_JSON") == "1" || os.Getenv("AGENTFLOW_PRETTY_JSON") == "true" {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// PrintSuccess prints a success response
func PrintSuccess(data interface{}) error {
	return Print(Success(data))
}

// PrintError prints an error response
func PrintError(err error) error {
	return Print(Error(err))
}

// Keep output package focused: commands should handle human-readable formatting.
