package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/polygenea/internal/engine"
	"github.com/roach88/polygenea/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Input rejected (malformed text, invalid nodes, dangling references, etc.)
	ExitCommandError = 2 // Command error (unreadable files, journal failures, bad flags, etc.)
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeReadFailed    = "E002" // Input file could not be read
	ErrCodeJournal       = "E003" // Journal open/read/write failed
	ErrCodeWriteFailed   = "E004" // Output file could not be written
	ErrCodeNotFound      = "E005" // Named node is not stored
	ErrCodeBadArgument   = "E006" // Argument is not what the command takes
	ErrCodeMalformed     = "E010" // Text is not valid canonical JSON
	ErrCodeUnknownClass  = "E011" // !class has no registered variant
	ErrCodeSchema        = "E012" // Missing, mistyped or undeclared attribute
	ErrCodeIdentity      = "E013" // Supplied !uuid disagrees with content
	ErrCodeDangling      = "E014" // Reference to a node that is not stored
	ErrCodeUnknownRef    = "E015" // Reference token cannot be resolved
	ErrCodeInvalid       = "E016" // Node failed validation
	ErrCodeDuplicate     = "E017" // Members that must be distinct repeat
	ErrCodeBadPattern    = "E020" // Rule pattern cannot be evaluated
	ErrCodeQuotaExceeded = "E021" // Inference hit --max-steps
)

var irCodes = map[ir.ErrorCode]string{
	ir.CodeMalformedInput:    ErrCodeMalformed,
	ir.CodeUnknownVariant:    ErrCodeUnknownClass,
	ir.CodeSchemaViolation:   ErrCodeSchema,
	ir.CodeIdentity:          ErrCodeIdentity,
	ir.CodeDanglingReference: ErrCodeDangling,
	ir.CodeUnknownReference:  ErrCodeUnknownRef,
	ir.CodeValidationFailure: ErrCodeInvalid,
	ir.CodeDuplicateIdentity: ErrCodeDuplicate,
}

// codeFor maps an error from the core packages to a CLI error code and
// exit code. Rejected input exits with ExitFailure.
func codeFor(err error) (string, int) {
	if code, ok := irCodes[ir.CodeOf(err)]; ok {
		return code, ExitFailure
	}
	switch {
	case engine.IsUnsupportedPattern(err):
		return ErrCodeBadPattern, ExitFailure
	case engine.IsQuotaError(err):
		return ErrCodeQuotaExceeded, ExitFailure
	}
	return ErrCodeGeneric, ExitCommandError
}

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
// Errors from the core packages get their own code; anything else is
// reported under fallback as a command error.
func (f *OutputFormatter) Fail(fallback, message string, err error) error {
	code, exit := codeFor(err)
	if code == ErrCodeGeneric {
		code = fallback
	}
	var details any
	var ie *ir.Error
	if errors.As(err, &ie) && (ie.ID != "" || len(ie.Problems) > 0) {
		details = errorDetails{ID: ie.ID, Problems: ie.Problems}
	}
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), details)
	return WrapExitError(exit, fmt.Sprintf("%s: %s", code, message), err)
}

type errorDetails struct {
	ID       string   `json:"id,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

func (d errorDetails) String() string {
	if len(d.Problems) == 0 {
		return "id " + d.ID
	}
	return fmt.Sprintf("id %s, problems %q", d.ID, d.Problems)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
