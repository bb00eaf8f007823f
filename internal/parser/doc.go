// Package parser builds syntax summaries of Go source files using AST parsing.
//
// The parser leverages Go's standard library (go/parser, go/ast, go/token) and
// flattens each file into a types.SyntaxSummary: functions, imports, exports,
// classes, and variables.
//
// # Basic Usage
//
//	p := parser.New()
//	result, err := p.ParseFile("/path/to/file.go")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, fn := range result.Summary.Functions {
//	    fmt.Printf("%s(%s) calls %v\n", fn.Name, strings.Join(fn.Params, ", "), fn.Calls)
//	}
//
// # Mapping Go to the summary
//
//   - Functions: top-level functions and methods (named "Type.Method"), plus
//     package-level vars bound to function literals
//   - Calls: callee expressions in first-seen order, builtins excluded
//   - Async: the body starts a goroutine
//   - Imports: one entry per import spec; unaliased imports are default
//     bindings, dot imports are namespace bindings, blank imports bind nothing
//   - Exports: exported functions, types (structs as classes), vars and consts
//   - Classes: struct type names
//   - Variables: package-level var and const names
//
// # Error Handling
//
// Syntax errors are recorded, not returned:
//
//	result, err := p.ParseFile("broken.go")
//	// err is nil even for syntax errors
//	if result.HasErrors() {
//	    for _, parseErr := range result.Errors {
//	        fmt.Printf("Parse error: %v\n", parseErr)
//	    }
//	}
//
// Whatever the Go parser recovers is still summarized, so indexing continues
// past broken files.
package parser
