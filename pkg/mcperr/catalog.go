package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & Input
	Validation     Code = "VALIDATION"
	InvalidHandle  Code = "INVALID_HANDLE"
	InvalidSheet   Code = "INVALID_SHEET"
	InvalidProfile Code = "INVALID_PROFILE"
	CursorInvalid  Code = "CURSOR_INVALID"

	// Resource & Limits
	BusyResource    Code = "BUSY_RESOURCE"
	Timeout         Code = "TIMEOUT"
	LimitExceeded   Code = "LIMIT_EXCEEDED"
	PayloadTooLarge Code = "PAYLOAD_TOO_LARGE"

	// IO & Formats
	OpenFailed    Code = "OPEN_FAILED"
	IngestFailed  Code = "INGEST_FAILED"
	StoreFailed   Code = "STORE_FAILED"
	PreviewFailed Code = "PREVIEW_FAILED"
	MergeFailed   Code = "MERGE_FAILED"

	// Analysis
	FilterFailed    Code = "FILTER_FAILED"
	AggregateFailed Code = "AGGREGATE_FAILED"
	AnalysisFailed  Code = "ANALYSIS_FAILED"

	// Integrity
	UnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	PermissionDenied  Code = "PERMISSION_DENIED"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:     {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry", "See examples in tool description"}},
	InvalidHandle:  {Code: InvalidHandle, Message: "dataset handle not found or expired", Retryable: true, NextSteps: []string{"Reopen the dataset via path and retry"}},
	InvalidSheet:   {Code: InvalidSheet, Message: "sheet not found", Retryable: true, NextSteps: []string{"Verify sheet names, case, and spacing"}},
	InvalidProfile: {Code: InvalidProfile, Message: "geography profile not found", Retryable: true, NextSteps: []string{"Use a registered profile id (us-states, world-countries)"}},
	CursorInvalid:  {Code: CursorInvalid, Message: "cursor is invalid for current context", Retryable: true, NextSteps: []string{"Restart pagination from the first page"}},

	BusyResource:    {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:         {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Narrow scope (rows/roles) or increase timeout"}},
	LimitExceeded:   {Code: LimitExceeded, Message: "operation exceeded configured limits", Retryable: true, NextSteps: []string{"Narrow filters or lower page size"}},
	PayloadTooLarge: {Code: PayloadTooLarge, Message: "payload exceeds configured size", Retryable: true, NextSteps: []string{"Reduce preview rows or split into pages"}},

	OpenFailed:    {Code: OpenFailed, Message: "failed to open dataset", Retryable: true, NextSteps: []string{"Verify path, permissions, and format"}},
	IngestFailed:  {Code: IngestFailed, Message: "failed to ingest rows", Retryable: true, NextSteps: []string{"Verify sheet layout: header row followed by data rows"}},
	StoreFailed:   {Code: StoreFailed, Message: "dataset unavailable: row retrieval failed", Retryable: false, NextSteps: []string{"Reload the dataset; do not aggregate a partially-loaded dataset"}},
	PreviewFailed: {Code: PreviewFailed, Message: "failed to generate preview", Retryable: true, NextSteps: []string{"Retry with fewer rows"}},
	MergeFailed:   {Code: MergeFailed, Message: "failed to merge datasets", Retryable: true, NextSteps: []string{"Verify all dataset handles are open"}},

	FilterFailed:    {Code: FilterFailed, Message: "filter resolution failed", Retryable: true, NextSteps: []string{"Check location codes, region names, and industry categories"}},
	AggregateFailed: {Code: AggregateFailed, Message: "aggregation failed", Retryable: true, NextSteps: []string{"Verify the dataset handle and filter state"}},
	AnalysisFailed:  {Code: AnalysisFailed, Message: "analysis failed", Retryable: true, NextSteps: []string{"Verify the dataset handle", "Reduce top_n"}},

	UnsupportedFormat: {Code: UnsupportedFormat, Message: "unsupported dataset format", Retryable: false, NextSteps: []string{"Convert to .xlsx and retry"}},
	PermissionDenied:  {Code: PermissionDenied, Message: "insufficient permissions to access path", Retryable: false, NextSteps: []string{"Adjust permissions or choose an allowed directory"}},
}

// normalize builds a standard error string including next steps for MCP clients that
// surface only a message string. Format: "CODE: message" followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		// Unknown code; preserve as-is
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}

// IsInvalidSheet returns true if an error matches common excelize "sheet does not exist" messages.
func IsInvalidSheet(err error) bool {
	if err == nil {
		return false
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "doesn't exist") || strings.Contains(low, "does not exist")
}
