// Command linter runs the golinkscheck analyzer.
//
//	go run ./cmd/linter ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/MikhailRaia/golinks/cmd/linter/analyzer"
)

func main() {
	singlechecker.Main(analyzer.Analyzer)
}
