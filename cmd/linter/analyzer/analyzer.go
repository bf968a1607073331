// Package analyzer implements golinkscheck, the repository's own vet pass.
//
// It reports two things:
//
//   - panic, log.Fatal, zerolog's log.Fatal/log.Panic and os.Exit outside
//     func main of package main;
//   - == and != comparisons against package-level Err* sentinel errors,
//     which break as soon as the error is wrapped. Is methods are exempt.
package analyzer

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const (
	analyzerName = "golinkscheck"
	analyzerDoc  = "reports process-terminating calls outside main and sentinel errors compared with == or !="
)

var Analyzer = &analysis.Analyzer{
	Name:     analyzerName,
	Doc:      analyzerDoc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// terminating lists calls allowed only in func main, keyed by package path.
var terminating = map[string]map[string]bool{
	"log":                       {"Fatal": true, "Fatalf": true, "Fatalln": true, "Panic": true, "Panicf": true, "Panicln": true},
	"os":                        {"Exit": true},
	"github.com/rs/zerolog/log": {"Fatal": true, "Panic": true},
}

var errorType = types.Universe.Lookup("error").Type().Underlying().(*types.Interface)

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.FuncDecl)(nil),
		(*ast.CallExpr)(nil),
		(*ast.BinaryExpr)(nil),
	}

	var current *ast.FuncDecl
	insp.Nodes(nodeFilter, func(node ast.Node, push bool) bool {
		switch n := node.(type) {
		case *ast.FuncDecl:
			if push {
				current = n
			} else {
				current = nil
			}
		case *ast.CallExpr:
			if push {
				checkCall(pass, n, current != nil && isMainFunc(pass, current))
			}
		case *ast.BinaryExpr:
			// Is methods compare identity.
			if push && !isIsMethod(current) {
				checkComparison(pass, n)
			}
		}
		return true
	})

	return nil, nil
}

func isMainFunc(pass *analysis.Pass, fn *ast.FuncDecl) bool {
	return pass.Pkg.Name() == "main" && fn.Recv == nil && fn.Name.Name == "main"
}

func isIsMethod(fn *ast.FuncDecl) bool {
	return fn != nil && fn.Recv != nil && fn.Name.Name == "Is"
}

func checkCall(pass *analysis.Pass, call *ast.CallExpr, inMain bool) {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		if _, ok := pass.TypesInfo.Uses[fn].(*types.Builtin); ok && fn.Name == "panic" {
			pass.Reportf(call.Pos(), "panic is forbidden")
		}
	case *ast.SelectorExpr:
		if inMain {
			return
		}
		pkgPath, ok := importedPath(pass, fn.X)
		if !ok {
			return
		}
		if terminating[pkgPath][fn.Sel.Name] {
			pass.Reportf(call.Pos(), "%s.%s is forbidden outside main function", pkgPath[strings.LastIndex(pkgPath, "/")+1:], fn.Sel.Name)
		}
	}
}

// importedPath resolves x to the path of the package it names, if any.
func importedPath(pass *analysis.Pass, x ast.Expr) (string, bool) {
	ident, ok := x.(*ast.Ident)
	if !ok {
		return "", false
	}
	pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
	if !ok {
		return "", false
	}
	return pkgName.Imported().Path(), true
}

func checkComparison(pass *analysis.Pass, expr *ast.BinaryExpr) {
	if expr.Op != token.EQL && expr.Op != token.NEQ {
		return
	}

	for _, operand := range []ast.Expr{expr.X, expr.Y} {
		if name, ok := sentinelName(pass, operand); ok {
			pass.Reportf(expr.Pos(), "comparison with sentinel error %s, use errors.Is", name)
			return
		}
	}
}

func sentinelName(pass *analysis.Pass, e ast.Expr) (string, bool) {
	var ident *ast.Ident
	switch v := e.(type) {
	case *ast.Ident:
		ident = v
	case *ast.SelectorExpr:
		ident = v.Sel
	default:
		return "", false
	}

	obj, ok := pass.TypesInfo.Uses[ident].(*types.Var)
	if !ok || obj.Pkg() == nil || obj.Parent() != obj.Pkg().Scope() {
		return "", false
	}

	if !strings.HasPrefix(obj.Name(), "Err") || !types.Implements(obj.Type(), errorType) {
		return "", false
	}

	return obj.Name(), true
}
