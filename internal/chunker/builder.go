package chunker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/codechunk/pkg/types"
)

const (
	idSeparator = "::"

	importsSuffix   = "imports"
	exportsSuffix   = "exports"
	variablesSuffix = "variables"
	summarySuffix   = "summary"

	emptyList = "none"
)

// BuildChunks converts one file's syntax summary into labeled chunks in
// fixed category order: functions, imports, exports, classes, variables.
// A summary chunk is emitted only when no other chunk was produced.
func BuildChunks(analysis types.FileAnalysis) []types.Chunk {
	file := analysis.File
	summary := &analysis.Summary

	chunks := make([]types.Chunk, 0, len(summary.Functions)+len(summary.Classes)+3)

	for i := range summary.Functions {
		chunks = append(chunks, functionChunk(file, &summary.Functions[i]))
	}

	if len(summary.Imports) > 0 {
		chunks = append(chunks, importChunk(file, summary.Imports))
	}

	if len(summary.Exports) > 0 {
		chunks = append(chunks, exportChunk(file, summary.Exports))
	}

	for _, class := range summary.Classes {
		chunks = append(chunks, types.Chunk{
			ID:   chunkID(file, class),
			Text: "Class: " + class,
			Type: types.ChunkClass,
			File: file,
			Name: class,
		})
	}

	if len(summary.Variables) > 0 {
		chunks = append(chunks, types.Chunk{
			ID:   chunkID(file, variablesSuffix),
			Text: "Variables: " + strings.Join(summary.Variables, ", "),
			Type: types.ChunkVariable,
			File: file,
		})
	}

	if len(chunks) == 0 {
		chunks = append(chunks, summaryChunk(file, summary))
	}

	return disambiguate(chunks)
}

// disambiguate suffixes repeated ids within one file with "~<n>".
// Go permits several init functions per file, and a function may share a
// name with a grouped chunk suffix such as "imports".
func disambiguate(chunks []types.Chunk) []types.Chunk {
	seen := make(map[string]int, len(chunks))
	for i := range chunks {
		id := chunks[i].ID
		seen[id]++
		if seen[id] == 1 {
			continue
		}
		for n := seen[id]; ; n++ {
			candidate := id + "~" + strconv.Itoa(n)
			if _, taken := seen[candidate]; !taken {
				seen[candidate] = 1
				chunks[i].ID = candidate
				break
			}
		}
	}
	return chunks
}

func functionChunk(file string, fn *types.FunctionInfo) types.Chunk {
	var b strings.Builder
	fmt.Fprintf(&b, "Function: %s\n", fn.Name)
	fmt.Fprintf(&b, "Parameters: %s\n", joinOrNone(fn.Params))
	fmt.Fprintf(&b, "Calls: %s\n", joinOrNone(fn.Calls))
	fmt.Fprintf(&b, "Async: %s\n", strconv.FormatBool(fn.IsAsync))
	fmt.Fprintf(&b, "Exported: %s", strconv.FormatBool(fn.IsExported))

	return types.Chunk{
		ID:   chunkID(file, fn.Name),
		Text: b.String(),
		Type: types.ChunkFunction,
		File: file,
		Name: fn.Name,
	}
}

func importChunk(file string, imports []types.ImportInfo) types.Chunk {
	var b strings.Builder
	b.WriteString("Imports:")
	for _, imp := range imports {
		bindings := "(side effect)"
		if len(imp.Imports) > 0 {
			bindings = strings.Join(imp.Imports, ", ")
		}
		fmt.Fprintf(&b, "\n- %s: %s", imp.Source, bindings)
		if imp.IsDefault {
			b.WriteString(" (default)")
		}
		if imp.IsNamespace {
			b.WriteString(" (namespace)")
		}
	}

	return types.Chunk{
		ID:   chunkID(file, importsSuffix),
		Text: b.String(),
		Type: types.ChunkImport,
		File: file,
	}
}

func exportChunk(file string, exports []types.ExportInfo) types.Chunk {
	var b strings.Builder
	b.WriteString("Exports:")
	for _, exp := range exports {
		fmt.Fprintf(&b, "\n- %s %s", exp.Type, exp.Name)
		if exp.IsDefault {
			b.WriteString(" (default)")
		}
	}

	return types.Chunk{
		ID:   chunkID(file, exportsSuffix),
		Text: b.String(),
		Type: types.ChunkExport,
		File: file,
	}
}

func summaryChunk(file string, summary *types.SyntaxSummary) types.Chunk {
	text := fmt.Sprintf("File: %s\nFunctions: %d\nImports: %d\nExports: %d\nClasses: %d",
		file,
		len(summary.Functions),
		len(summary.Imports),
		len(summary.Exports),
		len(summary.Classes),
	)

	return types.Chunk{
		ID:   chunkID(file, summarySuffix),
		Text: text,
		Type: types.ChunkSummary,
		File: file,
	}
}

func chunkID(file, name string) string {
	return file + idSeparator + name
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return emptyList
	}
	return strings.Join(items, ", ")
}
