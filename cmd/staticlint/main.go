// Command staticlint runs the project's multichecker: standard vet passes,
// staticcheck SA checks, a few simple and stylecheck rules, nilerr, forcetypeassert and osexitmain.
//
//	go run ./cmd/staticlint ./...
package main

import (
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"

	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/cgocall"
	"golang.org/x/tools/go/analysis/passes/composite"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shift"
	"golang.org/x/tools/go/analysis/passes/stdmethods"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/tests"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unsafeptr"
	"golang.org/x/tools/go/analysis/passes/unusedresult"

	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/gostaticanalysis/forcetypeassert"
	"github.com/gostaticanalysis/nilerr"
	"github.com/vshulcz/sfxbridge/cmd/staticlint/osexitmain"
)

func main() {
	var analyzers []*analysis.Analyzer
	analyzers = append(analyzers, vetAnalyzers()...)
	analyzers = append(analyzers, lintAnalyzers(staticcheck.Analyzers, "SA")...)
	analyzers = append(analyzers, lintAnalyzers(simple.Analyzers, "S1000", "S1002", "S1008")...)
	analyzers = append(analyzers, lintAnalyzers(stylecheck.Analyzers, "ST1000", "ST1005")...)
	analyzers = append(analyzers, nilerr.Analyzer, forcetypeassert.Analyzer, osexitmain.Analyzer)

	multichecker.Main(filterAnalyzers(analyzers)...)
}

func vetAnalyzers() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		assign.Analyzer,
		atomic.Analyzer,
		bools.Analyzer,
		buildtag.Analyzer,
		cgocall.Analyzer,
		composite.Analyzer,
		copylock.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		nilfunc.Analyzer,
		printf.Analyzer,
		shift.Analyzer,
		stdmethods.Analyzer,
		structtag.Analyzer,
		tests.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,
		unsafeptr.Analyzer,
		unusedresult.Analyzer,
	}
}

// lintAnalyzers picks checks whose name is listed exactly or starts with a
// listed prefix of two letters ("SA" selects the whole class).
func lintAnalyzers(all []*lint.Analyzer, names ...string) []*analysis.Analyzer {
	var out []*analysis.Analyzer
	for _, la := range all {
		if la == nil || la.Analyzer == nil {
			continue
		}
		for _, n := range names {
			if la.Analyzer.Name == n || (len(n) == 2 && strings.HasPrefix(la.Analyzer.Name, n)) {
				out = append(out, la.Analyzer)
				break
			}
		}
	}
	return out
}

// filterAnalyzers drops nil entries and keeps the first analyzer for each name.
func filterAnalyzers(analyzers []*analysis.Analyzer) []*analysis.Analyzer {
	seen := make(map[string]struct{}, len(analyzers))
	filtered := make([]*analysis.Analyzer, 0, len(analyzers))
	for _, a := range analyzers {
		if a == nil {
			continue
		}
		if _, ok := seen[a.Name]; ok {
			continue
		}
		seen[a.Name] = struct{}{}
		filtered = append(filtered, a)
	}
	return filtered
}
