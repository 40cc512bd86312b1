package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const modulePath = "github.com/leapstack-labs/leapdb"

// imports returns the imports of the non-test Go files in dir.
func imports(t *testing.T, dir string) map[string][]string {
	t.Helper()

	fset := token.NewFileSet()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}

	byFile := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") || strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}
		for _, imp := range f.Imports {
			byFile[entry.Name()] = append(byFile[entry.Name()], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return byFile
}

// TestCoreImportsOnlyStdlib verifies pkg/core imports nothing outside the
// standard library.
// The Golden Rule: all other packages depend on core, not the reverse.
func TestCoreImportsOnlyStdlib(t *testing.T) {
	for file, imps := range imports(t, ".") {
		for _, imp := range imps {
			if strings.Contains(strings.SplitN(imp, "/", 2)[0], ".") {
				t.Errorf("%s imports non-stdlib package: %s", file, imp)
			}
		}
	}
}

// TestLayering verifies each pkg/ package imports only the module packages
// beneath it: core <- result <- query <- grammar <- db.
func TestLayering(t *testing.T) {
	allowed := map[string][]string{
		"result":             {"pkg/core"},
		"query":              {"pkg/core", "pkg/result"},
		"grammar":            {"pkg/core", "pkg/query"},
		"adapter":            {"pkg/core"},
		"adapters/duckdb":    {"pkg/adapter", "pkg/core"},
		"adapters/mysql":     {"pkg/adapter", "pkg/core"},
		"adapters/postgres":  {"pkg/adapter", "pkg/core"},
		"adapters/sqlite":    {"pkg/adapter", "pkg/core"},
		"adapters/sqlserver": {"pkg/adapter", "pkg/core"},
		"profiler":           {},
		"db":                 {"pkg/adapter", "pkg/core", "pkg/grammar", "pkg/profiler", "pkg/query", "pkg/result"},
	}

	names := make([]string, 0, len(allowed))
	for name := range allowed {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			ok := make(map[string]bool)
			for _, p := range allowed[name] {
				ok[modulePath+"/"+p] = true
			}
			for file, imps := range imports(t, filepath.Join("..", name)) {
				for _, imp := range imps {
					if !strings.HasPrefix(imp, modulePath+"/") {
						continue
					}
					if strings.Contains(imp, "/internal/") {
						t.Errorf("%s/%s imports internal package: %s (pkg must not import internal packages)", name, file, imp)
						continue
					}
					if !ok[imp] {
						t.Errorf("%s/%s imports %s, which is not beneath it", name, file, strings.TrimPrefix(imp, modulePath+"/"))
					}
				}
			}
		})
	}
}
