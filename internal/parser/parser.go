package parser

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/codechunk/pkg/types"
)

// Parser handles AST-based analysis of Go source files. It keeps no state
// between calls and is safe for concurrent use; the zero value is usable.
type Parser struct {
	mode parser.Mode
}

// New creates a Parser that skips identifier resolution, which the syntax
// summary does not need.
func New() *Parser {
	return &Parser{mode: parser.SkipObjectResolution}
}

// ParseFile reads and analyzes a Go source file
func (p *Parser) ParseFile(filePath string) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ParseSource(filePath, content)
}

// ParseSource analyzes Go source held in memory and builds its syntax summary.
// Syntax errors are recorded in the result; whatever partial AST the Go
// parser recovers is still summarized.
func (p *Parser) ParseSource(filePath string, src []byte) (*types.ParseResult, error) {
	result := &types.ParseResult{}

	// A FileSet per call: positions are resolved into the result below, and a
	// shared set would grow for the life of a watch or serve process.
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, src, p.mode)
	var syntaxErrs scanner.ErrorList
	switch {
	case errors.As(err, &syntaxErrs):
		for _, e := range syntaxErrs {
			result.AddError(filePath, e.Pos.Line, e.Pos.Column, e.Msg)
		}
	case err != nil:
		result.AddError(filePath, 0, 0, fmt.Sprintf("syntax error: %v", err))
	}

	if file == nil {
		return result, nil
	}

	if file.Name != nil {
		result.PackageName = file.Name.Name
	}

	b := &summaryBuilder{}
	b.addImports(file.Imports)
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			b.addFuncDecl(d)
		case *ast.GenDecl:
			b.addGenDecl(d)
		}
	}
	result.Summary = b.summary

	return result, nil
}

// summaryBuilder accumulates the syntax summary of one file
type summaryBuilder struct {
	summary types.SyntaxSummary
}

func (b *summaryBuilder) addImports(specs []*ast.ImportSpec) {
	for _, spec := range specs {
		source, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			source = strings.Trim(spec.Path.Value, "`\"")
		}

		imp := types.ImportInfo{Source: source}
		switch {
		case spec.Name == nil:
			imp.Imports = []string{defaultBinding(source)}
			imp.IsDefault = true
		case spec.Name.Name == "_":
			// side-effect import, no bindings
		case spec.Name.Name == ".":
			imp.Imports = []string{defaultBinding(source)}
			imp.IsNamespace = true
		default:
			imp.Imports = []string{spec.Name.Name}
		}

		b.summary.Imports = append(b.summary.Imports, imp)
	}
}

// addFuncDecl records functions and methods; methods are named Type.Method
func (b *summaryBuilder) addFuncDecl(fn *ast.FuncDecl) {
	name := fn.Name.Name
	isMethod := fn.Recv != nil && len(fn.Recv.List) > 0
	if isMethod {
		if recv := receiverType(fn.Recv.List[0].Type); recv != "" {
			name = recv + "." + name
		}
	}

	b.summary.Functions = append(b.summary.Functions, functionInfo(name, fn.Name.Name, fn.Type, fn.Body))

	if !isMethod && token.IsExported(fn.Name.Name) {
		b.addExport(fn.Name.Name, types.ExportFunction)
	}
}

// addGenDecl records type, const, and var declarations
func (b *summaryBuilder) addGenDecl(decl *ast.GenDecl) {
	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			b.addTypeSpec(s)
		case *ast.ValueSpec:
			b.addValueSpec(s)
		}
	}
}

func (b *summaryBuilder) addTypeSpec(spec *ast.TypeSpec) {
	name := spec.Name.Name

	kind := types.ExportType
	switch spec.Type.(type) {
	case *ast.StructType:
		kind = types.ExportClass
		b.summary.Classes = append(b.summary.Classes, name)
	case *ast.InterfaceType:
		kind = types.ExportInterface
	}

	if token.IsExported(name) {
		b.addExport(name, kind)
	}
}

// addValueSpec records package-level vars and consts. A var bound to a
// function literal is recorded as a function instead of a variable.
func (b *summaryBuilder) addValueSpec(spec *ast.ValueSpec) {
	for i, ident := range spec.Names {
		if ident.Name == "_" {
			continue
		}

		if i < len(spec.Values) {
			if lit, ok := spec.Values[i].(*ast.FuncLit); ok {
				b.summary.Functions = append(b.summary.Functions, functionInfo(ident.Name, ident.Name, lit.Type, lit.Body))
				if token.IsExported(ident.Name) {
					b.addExport(ident.Name, types.ExportFunction)
				}
				continue
			}
		}

		b.summary.Variables = append(b.summary.Variables, ident.Name)
		if token.IsExported(ident.Name) {
			b.addExport(ident.Name, types.ExportVariable)
		}
	}
}

func (b *summaryBuilder) addExport(name string, kind types.ExportKind) {
	b.summary.Exports = append(b.summary.Exports, types.ExportInfo{Name: name, Type: kind})
}

// functionInfo describes a function body; simpleName decides exportedness
func functionInfo(name, simpleName string, fnType *ast.FuncType, body *ast.BlockStmt) types.FunctionInfo {
	info := types.FunctionInfo{
		Name:       name,
		Params:     paramNames(fnType.Params),
		IsExported: token.IsExported(simpleName),
	}
	if body == nil {
		return info
	}

	seen := make(map[string]bool)
	ast.Inspect(body, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.GoStmt:
			info.IsAsync = true
		case *ast.CallExpr:
			callee := calleeName(node.Fun)
			if callee != "" && !builtins[callee] && !seen[callee] {
				seen[callee] = true
				info.Calls = append(info.Calls, callee)
			}
		}
		return true
	})

	return info
}

// paramNames lists parameter names, or the type text for unnamed parameters
func paramNames(fields *ast.FieldList) []string {
	if fields == nil {
		return nil
	}

	var params []string
	for _, field := range fields.List {
		if len(field.Names) == 0 {
			params = append(params, exprToString(field.Type))
			continue
		}
		for _, name := range field.Names {
			params = append(params, name.Name)
		}
	}
	return params
}

// calleeName renders the called expression; anonymous calls yield ""
func calleeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		if x := calleeName(t.X); x != "" {
			return x + "." + t.Sel.Name
		}
		return t.Sel.Name
	case *ast.IndexExpr:
		return calleeName(t.X)
	case *ast.IndexListExpr:
		return calleeName(t.X)
	case *ast.ParenExpr:
		return calleeName(t.X)
	case *ast.CallExpr:
		return calleeName(t.Fun)
	default:
		return ""
	}
}

var builtins = map[string]bool{
	"append": true, "cap": true, "clear": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true, "make": true,
	"max": true, "min": true, "new": true, "panic": true, "print": true,
	"println": true, "real": true, "recover": true,
}

// receiverType extracts the receiver type name from a method
func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverType(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverType(t.X)
	case *ast.IndexListExpr:
		return receiverType(t.X)
	}
	return ""
}

// exprToString converts a type expression to a short string representation
func exprToString(expr ast.Expr) string {
	if expr == nil {
		return ""
	}

	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprToString(t.X)
	case *ast.ArrayType:
		return "[]" + exprToString(t.Elt)
	case *ast.MapType:
		return fmt.Sprintf("map[%s]%s", exprToString(t.Key), exprToString(t.Value))
	case *ast.ChanType:
		return "chan " + exprToString(t.Value)
	case *ast.FuncType:
		return "func(...)"
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.SelectorExpr:
		return exprToString(t.X) + "." + t.Sel.Name
	case *ast.Ellipsis:
		return "..." + exprToString(t.Elt)
	case *ast.IndexExpr:
		return exprToString(t.X) + "[" + exprToString(t.Index) + "]"
	default:
		return "..."
	}
}

var (
	majorVersionElem = regexp.MustCompile(`^v[0-9]+$`)
	gopkgVersion     = regexp.MustCompile(`\.v[0-9]+$`)
)

// defaultBinding guesses the package name an unaliased import binds
func defaultBinding(importPath string) string {
	elems := strings.Split(importPath, "/")
	last := elems[len(elems)-1]
	if majorVersionElem.MatchString(last) && len(elems) > 1 {
		last = elems[len(elems)-2]
	}
	last = gopkgVersion.ReplaceAllString(last, "")
	last = strings.TrimPrefix(last, "go-")
	if last == "" {
		return path.Base(importPath)
	}
	return last
}
