// json_output.go - JSON output support for scripting and pipelines.
//
// Every command accepts --json and then prints exactly one JSONResponse on
// stdout; human-readable progress goes to stderr.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/storage"
	"github.com/bionova/seqdiff/internal/verify"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Error:     nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      nil,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout, highlighted on a color terminal.
func (r *JSONResponse) Print() error {
	return r.Fprint(os.Stdout, ColorsEnabled())
}

// Fprint writes the indented response to w.
func (r *JSONResponse) Fprint(w io.Writer, highlight bool) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	out := string(data)
	if highlight {
		out = highlightJSON(out)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// StderrPrint prints a message to stderr (for human-readable output in JSON mode).
func StderrPrint(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// CompareData is returned by compare and demo.
type CompareData struct {
	ID           string        `json:"id,omitempty"`
	Summary      string        `json:"summary"`
	EditScript   string        `json:"edit_script"`
	ResultHash   string        `json:"result_hash"`
	Similarity   float64       `json:"similarity"`
	EditDistance int           `json:"edit_distance"`
	Counts       align.Counts  `json:"counts"`
	Hunks        []string      `json:"hunks"`
	Result       *align.Result `json:"result"`
	OutputFile   string        `json:"output_file,omitempty"`
}

// VerifyData is returned by verify.
type VerifyData struct {
	TaskID       string          `json:"task_id"`
	ComparisonID string          `json:"comparison_id,omitempty"`
	ResultHash   string          `json:"result_hash"`
	State        string          `json:"state"`
	Receipt      *verify.Receipt `json:"receipt,omitempty"`
}

// HistoryListData is returned by history list.
type HistoryListData struct {
	Comparisons []*storage.Comparison `json:"comparisons"`
	Total       int                   `json:"total"`
}

// HistoryShowData is returned by history show.
type HistoryShowData struct {
	*storage.Comparison
	Verifications []storage.Verification `json:"verifications"`
}

// ConfigPathData is returned by config path.
type ConfigPathData struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// ApprovalSetupData is returned by config approval-setup.
type ApprovalSetupData struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	Saved  bool   `json:"saved"`
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
