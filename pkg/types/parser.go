package types

import "fmt"

// ParseResult represents the output of analyzing one source file
type ParseResult struct {
	PackageName string
	Summary     SyntaxSummary

	// Errors encountered during parsing
	Errors []ParseError
}

// ParseError represents an error that occurred during parsing
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface as "file:line:col: message"; the
// position is omitted when unknown
func (pe *ParseError) Error() string {
	if pe.Line == 0 {
		return pe.File + ": " + pe.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s", pe.File, pe.Line, pe.Column, pe.Message)
}

// HasErrors returns true if any parsing errors occurred
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}

// AddError adds a parsing error to the result
func (pr *ParseResult) AddError(file string, line, col int, msg string) {
	pr.Errors = append(pr.Errors, ParseError{
		File:    file,
		Line:    line,
		Column:  col,
		Message: msg,
	})
}

// Analysis returns the file analysis handed to the chunking core
func (pr *ParseResult) Analysis(file string) FileAnalysis {
	return FileAnalysis{File: file, Summary: pr.Summary}
}
