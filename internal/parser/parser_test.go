package parser

import (
	"go/parser"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codechunk/pkg/types"
)

const serviceSource = `package service

import (
	"context"
	"fmt"
	alog "github.com/acme/log"
	. "github.com/acme/matchers"
	_ "github.com/lib/pq"
	"github.com/go-resty/resty/v2"
	"gopkg.in/yaml.v3"
)

const MaxUsers = 100

var (
	defaultName = "anon"
	_           = fmt.Sprintf
	Handler     = func(w Writer, r *Request) { go serve(w, r) }
)

// User represents a user in the system
type User struct {
	ID   int
	Name string
}

type Store interface {
	Get(ctx context.Context, id int) (*User, error)
}

type userID int

// GetName returns the user's name
func (u *User) GetName() string {
	return fmt.Sprintf("%s", u.Name)
}

func NewUser(id int, name string) *User {
	u := make([]int, 0)
	_ = append(u, id)
	alog.Info("new user", name)
	return &User{ID: id, Name: name}
}

func (s *service) run(ctx context.Context, _ int) {
	go func() {
		s.store.Get(ctx, 1)
	}()
	resty.New()
}
`

func parseService(t *testing.T) *types.ParseResult {
	t.Helper()
	result, err := New().ParseSource("service.go", []byte(serviceSource))
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	return result
}

func TestNew(t *testing.T) {
	p := New()
	require.NotNil(t, p)
	assert.Equal(t, parser.SkipObjectResolution, p.mode)
}

func TestParseSource_RepeatedParsesAreIndependent(t *testing.T) {
	broken := []byte("package broken\n\nfunc f( {\n")

	var zero Parser
	first, err := zero.ParseSource("broken.go", broken)
	require.NoError(t, err)
	require.NotEmpty(t, first.Errors)

	p := New()
	for i := 0; i < 50; i++ {
		again, err := p.ParseSource("broken.go", broken)
		require.NoError(t, err)
		require.Equal(t, first.Errors, again.Errors)
	}
}

func TestParseSource_Functions(t *testing.T) {
	result := parseService(t)
	assert.Equal(t, "service", result.PackageName)

	fns := result.Summary.Functions
	require.Len(t, fns, 4)

	assert.Equal(t, "Handler", fns[0].Name)
	assert.Equal(t, []string{"w", "r"}, fns[0].Params)
	assert.True(t, fns[0].IsAsync)
	assert.True(t, fns[0].IsExported)
	assert.Equal(t, []string{"serve"}, fns[0].Calls)

	assert.Equal(t, "User.GetName", fns[1].Name)
	assert.True(t, fns[1].IsExported)
	assert.Equal(t, []string{"fmt.Sprintf"}, fns[1].Calls)

	assert.Equal(t, "NewUser", fns[2].Name)
	assert.Equal(t, []string{"id", "name"}, fns[2].Params)
	assert.Equal(t, []string{"alog.Info"}, fns[2].Calls, "builtins are excluded")
	assert.False(t, fns[2].IsAsync)

	assert.Equal(t, "service.run", fns[3].Name)
	assert.Equal(t, []string{"ctx", "_"}, fns[3].Params)
	assert.True(t, fns[3].IsAsync)
	assert.False(t, fns[3].IsExported)
	assert.Equal(t, []string{"s.store.Get", "resty.New"}, fns[3].Calls)
}

func TestParseSource_Imports(t *testing.T) {
	imports := parseService(t).Summary.Imports
	require.Len(t, imports, 7)

	assert.Equal(t, types.ImportInfo{Source: "context", Imports: []string{"context"}, IsDefault: true}, imports[0])
	assert.Equal(t, types.ImportInfo{Source: "github.com/acme/log", Imports: []string{"alog"}}, imports[2])
	assert.Equal(t, types.ImportInfo{Source: "github.com/acme/matchers", Imports: []string{"matchers"}, IsNamespace: true}, imports[3])
	assert.Equal(t, types.ImportInfo{Source: "github.com/lib/pq"}, imports[4])
	assert.Equal(t, []string{"resty"}, imports[5].Imports)
	assert.Equal(t, []string{"yaml"}, imports[6].Imports)
}

func TestParseSource_TypesAndValues(t *testing.T) {
	summary := parseService(t).Summary

	assert.Equal(t, []string{"User"}, summary.Classes)
	assert.Equal(t, []string{"MaxUsers", "defaultName"}, summary.Variables)
	assert.Equal(t, []types.ExportInfo{
		{Name: "MaxUsers", Type: types.ExportVariable},
		{Name: "Handler", Type: types.ExportFunction},
		{Name: "User", Type: types.ExportClass},
		{Name: "Store", Type: types.ExportInterface},
		{Name: "NewUser", Type: types.ExportFunction},
	}, summary.Exports)
}

func TestParseSource_SyntaxErrorKeepsPartialResult(t *testing.T) {
	src := `package broken

func Good() {}

func Bad( {
`
	result, err := New().ParseSource("broken.go", []byte(src))
	require.NoError(t, err)
	assert.True(t, result.HasErrors())
	assert.Equal(t, "broken", result.PackageName)
	assert.Equal(t, 5, result.Errors[0].Line)
	assert.Positive(t, result.Errors[0].Column)
	assert.Contains(t, result.Errors[0].Error(), "broken.go:5:")

	var names []string
	for _, fn := range result.Summary.Functions {
		names = append(names, fn.Name)
	}
	assert.Contains(t, names, "Good")
}

func TestParseSource_PackageOnly(t *testing.T) {
	result, err := New().ParseSource("doc.go", []byte("// Package x does things.\npackage x\n"))
	require.NoError(t, err)
	assert.True(t, result.Summary.IsEmpty())
}

func TestParseFile(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "service.go")
	require.NoError(t, os.WriteFile(testFile, []byte(serviceSource), 0644))

	result, err := New().ParseFile(testFile)
	require.NoError(t, err)
	assert.Len(t, result.Summary.Functions, 4)

	analysis := result.Analysis("service.go")
	assert.Equal(t, "service.go", analysis.File)
	assert.Equal(t, result.Summary, analysis.Summary)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := New().ParseFile(filepath.Join(t.TempDir(), "nope.go"))
	assert.Error(t, err)
}

func TestDefaultBinding(t *testing.T) {
	tests := map[string]string{
		"fmt":                               "fmt",
		"net/http":                          "http",
		"github.com/go-resty/resty/v2":      "resty",
		"gopkg.in/yaml.v3":                  "yaml",
		"github.com/sashabaranov/go-openai": "openai",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, defaultBinding(in))
		})
	}
}
