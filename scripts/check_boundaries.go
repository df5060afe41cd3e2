package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const moduleRoot = "backoffice"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerPolicy lists what a top-level directory of a service may import
// besides the standard library. A nil allow func means any import is fine
// apart from the cross-module and storage-driver rules.
type layerPolicy struct {
	allow          func(modulePrefix string) []string
	forbidAdapters bool
	forbidRuntime  bool
}

var layerPolicies = map[string]layerPolicy{
	"domain": {
		allow: func(modulePrefix string) []string {
			return []string{modulePrefix + "/domain"}
		},
		forbidAdapters: true,
		forbidRuntime:  true,
	},
	"ports": {
		allow: func(modulePrefix string) []string {
			return []string{modulePrefix + "/domain", moduleRoot + "/contracts"}
		},
		forbidAdapters: true,
		forbidRuntime:  true,
	},
	"application": {
		allow: func(modulePrefix string) []string {
			return []string{
				modulePrefix + "/application",
				modulePrefix + "/domain",
				modulePrefix + "/ports",
				moduleRoot + "/contracts",
			}
		},
		forbidAdapters: true,
		forbidRuntime:  true,
	},
	// Transport DTOs are plain wire shapes.
	"transport": {
		allow:          func(string) []string { return nil },
		forbidAdapters: true,
		forbidRuntime:  true,
	},
	"adapters": {
		forbidRuntime: true,
	},
}

// storageDrivers may only be imported by the relational adapter, which is the
// one place that owns transactions and unique indexes.
var storageDrivers = []string{
	"gorm.io/",
	"github.com/jackc/pgx",
	"github.com/glebarez/sqlite",
}

const storageAdapterDir = "adapters/postgres"

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		normalized := filepath.ToSlash(path)
		parts := strings.Split(normalized, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}

		modulePrefix := fmt.Sprintf("%s/contexts/%s/%s", moduleRoot, parts[1], parts[2])
		relative := strings.Join(parts[3:], "/")

		imports, err := readImports(path)
		if err != nil {
			violations = append(violations, violation{File: normalized, Line: 1, Rule: "file must parse"})
			return nil
		}
		for _, imp := range imports {
			violations = append(violations, checkImport(normalized, relative, modulePrefix, imp.path, imp.line)...)
		}
		return nil
	})

	return violations
}

type importRef struct {
	path string
	line int
}

func readImports(path string) ([]importRef, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}
	refs := make([]importRef, 0, len(file.Imports))
	for _, imp := range file.Imports {
		refs = append(refs, importRef{
			path: strings.Trim(imp.Path.Value, "\""),
			line: fset.Position(imp.Pos()).Line,
		})
	}
	return refs, nil
}

// checkImport applies every rule to one import. relative is the file path
// inside its service, e.g. "application/commands/votes.go".
func checkImport(file string, relative string, modulePrefix string, importPath string, line int) []violation {
	var violations []violation
	report := func(rule string) {
		violations = append(violations, violation{File: file, Line: line, Import: importPath, Rule: rule})
	}

	if strings.HasPrefix(importPath, moduleRoot+"/contexts/") && !hasPrefix(importPath, modulePrefix) {
		report("cross-module imports are forbidden")
	}
	if isStorageDriver(importPath) && !strings.HasPrefix(relative, storageAdapterDir+"/") {
		report("storage drivers are confined to " + storageAdapterDir)
	}

	layer := relative
	if idx := strings.Index(layer, "/"); idx != -1 {
		layer = layer[:idx]
	}
	policy, ok := layerPolicies[layer]
	if !ok {
		return violations
	}
	if policy.forbidAdapters && strings.Contains(importPath, "/adapters/") {
		report(layer + " must not import adapters")
	}
	if policy.forbidRuntime && isRuntimeInfrastructure(importPath) {
		report(layer + " must not import runtime infrastructure")
	}
	if policy.allow != nil && !isStdlib(importPath) && !isAllowed(importPath, policy.allow(modulePrefix)) {
		report(layer + " import is outside explicit allowlist")
	}
	return violations
}

func isStorageDriver(importPath string) bool {
	for _, prefix := range storageDrivers {
		if strings.HasPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}

func isRuntimeInfrastructure(importPath string) bool {
	return strings.HasPrefix(importPath, moduleRoot+"/internal/") ||
		strings.HasPrefix(importPath, moduleRoot+"/cmd/")
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if strings.HasPrefix(importPath, moduleRoot+"/") {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
