package types

// ExportKind is the declared kind of an exported binding
type ExportKind string

const (
	ExportFunction  ExportKind = "function"
	ExportVariable  ExportKind = "variable"
	ExportClass     ExportKind = "class"
	ExportInterface ExportKind = "interface"
	ExportType      ExportKind = "type"
)

// FunctionInfo describes one function or method found by static analysis
type FunctionInfo struct {
	Name       string   `json:"name" yaml:"name"`
	Params     []string `json:"params" yaml:"params"`
	Calls      []string `json:"calls" yaml:"calls"`
	IsAsync    bool     `json:"isAsync" yaml:"isAsync"`
	IsExported bool     `json:"isExported" yaml:"isExported"`
}

// ImportInfo describes one import statement and the bindings it introduces
type ImportInfo struct {
	Source      string   `json:"source" yaml:"source"`
	Imports     []string `json:"imports" yaml:"imports"`
	IsDefault   bool     `json:"isDefault" yaml:"isDefault"`
	IsNamespace bool     `json:"isNamespace" yaml:"isNamespace"`
}

// ExportInfo describes one exported binding
type ExportInfo struct {
	Name      string     `json:"name" yaml:"name"`
	Type      ExportKind `json:"type" yaml:"type"`
	IsDefault bool       `json:"isDefault" yaml:"isDefault"`
}

// SyntaxSummary is the per-file inventory of syntactic elements.
// A nil slice is an empty category; every category is always present.
type SyntaxSummary struct {
	Functions []FunctionInfo `json:"functions" yaml:"functions"`
	Imports   []ImportInfo   `json:"imports" yaml:"imports"`
	Exports   []ExportInfo   `json:"exports" yaml:"exports"`
	Classes   []string       `json:"classes" yaml:"classes"`
	Variables []string       `json:"variables" yaml:"variables"`
}

// IsEmpty reports whether every category of the summary is empty
func (s *SyntaxSummary) IsEmpty() bool {
	return len(s.Functions) == 0 &&
		len(s.Imports) == 0 &&
		len(s.Exports) == 0 &&
		len(s.Classes) == 0 &&
		len(s.Variables) == 0
}

// FileAnalysis pairs a source file path with its syntax summary
type FileAnalysis struct {
	File    string        `json:"file" yaml:"file"`
	Summary SyntaxSummary `json:"ast_summary" yaml:"ast_summary"`
}
