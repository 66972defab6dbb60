// Package analysis provides AST-based source inspection for the workspace
// the debugged program was built from. It complements the live-debugger
// tools: the debugger answers "what is the state", these answer "what does
// the code look like" without needing a suspended session.
package analysis

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/voitta-ai/jetbrains-voitta/internal/errors"
	"github.com/voitta-ai/jetbrains-voitta/pkg/types"
)

// Analyzer parses Go source files under a workspace root.
type Analyzer struct {
	workspace string
}

// New creates an analyzer rooted at the given workspace directory.
func New(workspace string) *Analyzer {
	if workspace == "" {
		workspace = "."
	}
	return &Analyzer{workspace: workspace}
}

// FileStructure parses one source file and returns its outline: package,
// imports, types with fields and methods, and top-level functions.
// Syntax errors are non-fatal when the parser can still produce a partial
// AST; only a nil AST is reported as a parse failure.
func (a *Analyzer) FileStructure(path string) (*types.FileStructure, error) {
	absPath, err := a.resolvePath(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.FileNotFound(path)
	}

	fset := token.NewFileSet()
	file, parseErr := parser.ParseFile(fset, absPath, content, parser.ParseComments)
	if file == nil {
		return nil, errors.ParseFailed(path, parseErr)
	}

	result := &types.FileStructure{Path: path}
	if file.Name != nil {
		result.Package = file.Name.Name
	}
	for _, imp := range file.Imports {
		result.Imports = append(result.Imports, strings.Trim(imp.Path.Value, `"`))
	}

	ex := &extractor{fset: fset}
	ast.Inspect(file, ex.visit)
	ex.attachMethods()

	result.Types = ex.types
	result.Functions = ex.functions
	return result, nil
}

// FindSymbol searches every Go file under the workspace for declarations
// whose name contains the query (case-insensitive). kind narrows results to
// "type", "function", or "method"; empty matches everything. Unparseable
// files are skipped, not fatal.
func (a *Analyzer) FindSymbol(query, kind string) ([]types.SymbolMatch, error) {
	if query == "" {
		return nil, errors.MissingParameter("symbol", "Provide the name (or a substring) of the symbol to search for.")
	}

	root, err := filepath.Abs(a.workspace)
	if err != nil {
		return nil, errors.FileNotFound(a.workspace)
	}

	needle := strings.ToLower(query)
	var matches []types.SymbolMatch

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if name != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		matches = append(matches, searchFile(path, rel, needle, kind)...)
		return nil
	})
	if walkErr != nil {
		return nil, errors.FileNotFound(a.workspace)
	}
	return matches, nil
}

// resolvePath maps a tool-supplied path onto the workspace, rejecting
// escapes above the root.
func (a *Analyzer) resolvePath(path string) (string, error) {
	if path == "" {
		return "", errors.MissingParameter("filePath", "Provide a path relative to the workspace root.")
	}

	root, err := filepath.Abs(a.workspace)
	if err != nil {
		return "", errors.FileNotFound(path)
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, path)
	}
	abs = filepath.Clean(abs)

	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", errors.InvalidParameter("filePath", path, "a path inside the configured workspace")
	}
	return abs, nil
}

// searchFile parses one file and collects matching declarations. A file the
// parser rejects outright contributes nothing.
func searchFile(absPath, relPath, needle, kind string) []types.SymbolMatch {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil
	}

	fset := token.NewFileSet()
	file, _ := parser.ParseFile(fset, absPath, content, 0)
	if file == nil {
		return nil
	}

	var matches []types.SymbolMatch
	ast.Inspect(file, func(node ast.Node) bool {
		switch n := node.(type) {
		case *ast.FuncDecl:
			symKind := "function"
			container := ""
			if n.Recv != nil && len(n.Recv.List) > 0 {
				symKind = "method"
				container = receiverTypeName(n.Recv.List[0].Type)
			}
			if kindMatches(kind, symKind) && strings.Contains(strings.ToLower(n.Name.Name), needle) {
				matches = append(matches, types.SymbolMatch{
					Name:      n.Name.Name,
					Kind:      symKind,
					File:      relPath,
					Line:      fset.Position(n.Pos()).Line,
					Container: container,
				})
			}
		case *ast.TypeSpec:
			if kindMatches(kind, "type") && strings.Contains(strings.ToLower(n.Name.Name), needle) {
				matches = append(matches, types.SymbolMatch{
					Name: n.Name.Name,
					Kind: "type",
					File: relPath,
					Line: fset.Position(n.Pos()).Line,
				})
			}
		}
		return true
	})
	return matches
}

func kindMatches(filter, kind string) bool {
	return filter == "" || strings.EqualFold(filter, kind)
}

// extractor walks one file's AST and accumulates the outline.
type extractor struct {
	fset      *token.FileSet
	types     []types.TypeInfo
	functions []types.FunctionInfo
	methods   []types.FunctionInfo
}

func (e *extractor) visit(node ast.Node) bool {
	switch n := node.(type) {
	case *ast.FuncDecl:
		e.extractFunction(n)
		return false
	case *ast.GenDecl:
		if n.Tok == token.TYPE {
			for _, spec := range n.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					e.extractType(ts, n.Doc)
				}
			}
		}
		return false
	}
	return true
}

func (e *extractor) extractFunction(fn *ast.FuncDecl) {
	info := types.FunctionInfo{
		Name:      fn.Name.Name,
		Signature: functionSignature(fn),
		Doc:       docText(fn.Doc),
		Line:      e.fset.Position(fn.Pos()).Line,
		Exported:  token.IsExported(fn.Name.Name),
	}

	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		info.Receiver = receiverTypeName(fn.Recv.List[0].Type)
		e.methods = append(e.methods, info)
		return
	}
	e.functions = append(e.functions, info)
}

func (e *extractor) extractType(ts *ast.TypeSpec, genDoc *ast.CommentGroup) {
	doc := ts.Doc
	if doc == nil {
		doc = genDoc
	}

	info := types.TypeInfo{
		Name:     ts.Name.Name,
		Doc:      docText(doc),
		Line:     e.fset.Position(ts.Pos()).Line,
		Exported: token.IsExported(ts.Name.Name),
	}

	switch t := ts.Type.(type) {
	case *ast.StructType:
		info.Kind = "struct"
		info.Fields = structFields(e.fset, t)
	case *ast.InterfaceType:
		info.Kind = "interface"
		info.Methods = interfaceMethods(e.fset, t)
	default:
		if ts.Assign.IsValid() {
			info.Kind = "alias"
		} else {
			info.Kind = "other"
		}
	}

	e.types = append(e.types, info)
}

// attachMethods moves collected methods onto their declaring types. Methods
// whose receiver type is declared in another file stay as plain functions so
// they remain visible in the outline.
func (e *extractor) attachMethods() {
	byName := make(map[string]int, len(e.types))
	for i, t := range e.types {
		byName[t.Name] = i
	}

	for _, m := range e.methods {
		if i, ok := byName[m.Receiver]; ok {
			e.types[i].Methods = append(e.types[i].Methods, m)
			continue
		}
		e.functions = append(e.functions, m)
	}
	e.methods = nil
}

func structFields(fset *token.FileSet, st *ast.StructType) []types.FieldInfo {
	if st.Fields == nil {
		return nil
	}

	var fields []types.FieldInfo
	for _, field := range st.Fields.List {
		typeStr := exprString(field.Type)
		tag := ""
		if field.Tag != nil {
			tag = strings.Trim(field.Tag.Value, "`")
		}
		line := fset.Position(field.Pos()).Line

		if len(field.Names) == 0 {
			// Embedded field: the type is the name.
			fields = append(fields, types.FieldInfo{Name: typeStr, Type: typeStr, Tag: tag, Line: line})
			continue
		}
		for _, name := range field.Names {
			fields = append(fields, types.FieldInfo{Name: name.Name, Type: typeStr, Tag: tag, Line: line})
		}
	}
	return fields
}

func interfaceMethods(fset *token.FileSet, it *ast.InterfaceType) []types.FunctionInfo {
	if it.Methods == nil {
		return nil
	}

	var methods []types.FunctionInfo
	for _, m := range it.Methods.List {
		ft, ok := m.Type.(*ast.FuncType)
		if !ok || len(m.Names) == 0 {
			continue
		}
		name := m.Names[0].Name
		methods = append(methods, types.FunctionInfo{
			Name:      name,
			Signature: name + funcTypeSignature(ft),
			Doc:       docText(m.Doc),
			Line:      fset.Position(m.Pos()).Line,
			Exported:  token.IsExported(name),
		})
	}
	return methods
}

func functionSignature(fn *ast.FuncDecl) string {
	var sig strings.Builder
	sig.WriteString("func ")

	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		sig.WriteString("(")
		sig.WriteString(exprString(fn.Recv.List[0].Type))
		sig.WriteString(") ")
	}

	sig.WriteString(fn.Name.Name)
	sig.WriteString(funcTypeSignature(fn.Type))
	return sig.String()
}

func funcTypeSignature(ft *ast.FuncType) string {
	var sig strings.Builder

	sig.WriteString("(")
	sig.WriteString(fieldListString(ft.Params))
	sig.WriteString(")")

	if ft.Results != nil && ft.Results.NumFields() > 0 {
		results := fieldListString(ft.Results)
		if ft.Results.NumFields() > 1 || len(ft.Results.List[0].Names) > 0 {
			sig.WriteString(" (")
			sig.WriteString(results)
			sig.WriteString(")")
		} else {
			sig.WriteString(" ")
			sig.WriteString(results)
		}
	}
	return sig.String()
}

func fieldListString(fieldList *ast.FieldList) string {
	if fieldList == nil || len(fieldList.List) == 0 {
		return ""
	}

	var parts []string
	for _, field := range fieldList.List {
		typeStr := exprString(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, typeStr)
			continue
		}
		for _, name := range field.Names {
			parts = append(parts, fmt.Sprintf("%s %s", name.Name, typeStr))
		}
	}
	return strings.Join(parts, ", ")
}

func exprString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprString(t.X)
	case *ast.ArrayType:
		return "[]" + exprString(t.Elt)
	case *ast.MapType:
		return fmt.Sprintf("map[%s]%s", exprString(t.Key), exprString(t.Value))
	case *ast.ChanType:
		return "chan " + exprString(t.Value)
	case *ast.FuncType:
		return "func" + funcTypeSignature(t)
	case *ast.InterfaceType:
		if t.Methods == nil || t.Methods.NumFields() == 0 {
			return "interface{}"
		}
		return "interface{...}"
	case *ast.SelectorExpr:
		return exprString(t.X) + "." + t.Sel.Name
	case *ast.Ellipsis:
		return "..." + exprString(t.Elt)
	case *ast.IndexExpr:
		return exprString(t.X) + "[" + exprString(t.Index) + "]"
	default:
		return "..."
	}
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	}
	return ""
}

func docText(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}
