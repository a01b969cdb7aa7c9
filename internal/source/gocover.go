package source

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/fzipp/gocyclo"
	"github.com/shopspring/decimal"
	"golang.org/x/tools/cover"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/runner"
)

// GoCoverParser reads a Go coverage profile as an additional coverage
// source: per-function sequence coverage joined with gocyclo
// cyclomatic complexity. When no profile path is given it generates
// one by running "go test -coverprofile" through the process runner,
// honoring the configured timeout.
//
// Symbol mapping into the report hierarchy: the module path becomes
// the assembly, the package import path (slashes as dots) the
// namespace, the receiver type — or the file name stem for plain
// functions — the type, and the function the member.
type GoCoverParser struct {
	// ModuleDir is the module root used to resolve profile paths and
	// run go test. Defaults to the current directory.
	ModuleDir string

	// Packages are the go test patterns used when generating a
	// profile. Defaults to "./...".
	Packages []string

	// TestTimeout bounds profile generation. Zero means no limit.
	TestTimeout time.Duration

	// Run executes go test. The zero Runner is ready to use.
	Run runner.Runner
}

func (GoCoverParser) Format() string { return FormatGoCover }

var testFileRe = regexp.MustCompile(`_test\.go$`)

// Parse reads the profile at path, or generates one when path is
// empty, and yields one member element per function.
func (p GoCoverParser) Parse(ctx context.Context, path string) (*Document, error) {
	moduleDir := p.ModuleDir
	if moduleDir == "" {
		moduleDir, _ = os.Getwd()
	}
	modulePath := readModulePath(moduleDir)
	if modulePath == "" {
		return nil, errs.Validation("no go.mod found under %s", moduleDir)
	}

	if path == "" {
		generated, err := p.generateProfile(ctx, moduleDir)
		if err != nil {
			return nil, err
		}
		defer os.Remove(generated)
		path = generated
	}

	profiles, err := cover.ParseProfiles(path)
	if err != nil {
		return nil, errs.Parsing("malformed cover profile %s: %w", path, err)
	}

	doc := &Document{Format: FormatGoCover, SourceFile: path}

	for _, profile := range profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		filePath := resolveProfilePath(profile.FileName, moduleDir, modulePath)
		if filePath == "" {
			charmlog.Debug("cannot resolve profile file", "name", profile.FileName)
			continue
		}

		funcs, err := findFunctions(filePath)
		if err != nil {
			charmlog.Debug("skipping unparseable source file", "file", filePath, "err", err)
			continue
		}

		complexity := complexityByLine(filePath)
		pkgPath := strings.TrimSuffix(profile.FileName, "/"+filepath.Base(filePath))

		for _, fn := range funcs {
			covered, total := funcCoverage(fn, profile)
			values := make(map[metric.ID]decimal.Decimal, 2)
			if total > 0 {
				values[metric.SequenceCoverage] = decimal.NewFromInt(covered * 100).
					Div(decimal.NewFromInt(total)).Round(4)
			}
			if c, ok := complexity[fn.startLine]; ok {
				values[metric.CoverageCyclomaticComplexity] = decimal.NewFromInt(int64(c))
			}
			if len(values) == 0 {
				continue
			}

			doc.Elements = append(doc.Elements, Element{
				Kind:     metric.KindMember,
				Assembly: modulePath,
				FQN:      goFQN(pkgPath, filePath, fn),
				Values:   values,
				Location: &Location{
					FilePath:  filePath,
					StartLine: fn.startLine,
					EndLine:   fn.endLine,
				},
				SourceFile: path,
			})
		}
	}

	return doc, nil
}

// generateProfile runs go test to produce a temporary coverage
// profile. A timeout is a validation error naming the limit, so CI
// runs fail loudly instead of reporting stale coverage.
func (p GoCoverParser) generateProfile(ctx context.Context, moduleDir string) (string, error) {
	tmp, err := os.CreateTemp("", "tally-cover-*.out")
	if err != nil {
		return "", errs.IO("creating temp cover profile: %w", err)
	}
	profilePath := tmp.Name()
	tmp.Close()

	patterns := p.Packages
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	args := append([]string{"test", "-coverprofile=" + profilePath}, patterns...)

	res, err := p.Run.Run(ctx, runner.Request{
		Path:    "go",
		Args:    args,
		Dir:     moduleDir,
		Timeout: p.TestTimeout,
	})
	if err != nil {
		os.Remove(profilePath)
		return "", errs.IO("running go test: %w", err)
	}
	if res.TimedOut {
		os.Remove(profilePath)
		return "", errs.Validation("go test timed out after %s", p.TestTimeout)
	}
	if res.ExitCode != 0 {
		os.Remove(profilePath)
		return "", errs.Validation("go test failed (exit %d):\n%s", res.ExitCode, res.Stderr)
	}

	return profilePath, nil
}

// goFQN builds the canonical symbol name for a Go function. The
// parameter placeholder keeps Go members consistent with the other
// sources.
func goFQN(pkgPath, filePath string, fn funcExtent) string {
	ns := strings.ReplaceAll(pkgPath, "/", ".")

	typeName := strings.TrimSuffix(filepath.Base(filePath), ".go")
	name := fn.name
	if strings.HasPrefix(name, "(") {
		// "(*Store).Save" — receiver type is the containing type.
		if idx := strings.Index(name, ")."); idx > 0 {
			typeName = strings.TrimLeft(name[1:idx], "*")
			name = name[idx+2:]
		}
	}

	return ns + "." + typeName + "." + name + "(...)"
}

// complexityByLine computes gocyclo complexity for one file, keyed by
// declaration line.
func complexityByLine(filePath string) map[int]int {
	stats := gocyclo.Analyze([]string{filePath}, testFileRe)
	out := make(map[int]int, len(stats))
	for _, s := range stats {
		out[s.Pos.Line] = s.Complexity
	}
	return out
}

// funcExtent describes a function's source position.
type funcExtent struct {
	name      string
	startLine int
	startCol  int
	endLine   int
	endCol    int
}

// findFunctions parses a Go source file and returns the extent of
// each function declaration.
func findFunctions(filePath string) ([]funcExtent, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filePath, nil, 0)
	if err != nil {
		return nil, err
	}

	var funcs []funcExtent
	ast.Inspect(f, func(n ast.Node) bool {
		fn, ok := n.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			return true
		}
		start := fset.Position(fn.Pos())
		end := fset.Position(fn.End())

		name := fn.Name.Name
		if fn.Recv != nil && fn.Recv.NumFields() > 0 {
			name = "(" + recvTypeString(fn.Recv.List[0].Type) + ")." + fn.Name.Name
		}

		funcs = append(funcs, funcExtent{
			name:      name,
			startLine: start.Line,
			startCol:  start.Column,
			endLine:   end.Line,
			endCol:    end.Column,
		})
		return true
	})
	return funcs, nil
}

// recvTypeString extracts the receiver type as a string.
func recvTypeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return "*" + recvTypeString(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return recvTypeString(t.X) + "[" + recvTypeString(t.Index) + "]"
	default:
		return "?"
	}
}

// funcCoverage computes the covered and total statement counts for a
// function within a coverage profile.
func funcCoverage(fn funcExtent, profile *cover.Profile) (covered, total int64) {
	for _, b := range profile.Blocks {
		if b.StartLine > fn.endLine {
			break
		}
		if b.StartLine == fn.endLine && b.StartCol >= fn.endCol {
			break
		}
		if b.EndLine < fn.startLine {
			continue
		}
		if b.EndLine == fn.startLine && b.EndCol <= fn.startCol {
			continue
		}
		total += int64(b.NumStmt)
		if b.Count > 0 {
			covered += int64(b.NumStmt)
		}
	}
	return
}

// resolveProfilePath maps a profile filename (import-path relative)
// to an absolute filesystem path under the module directory.
func resolveProfilePath(profileName, moduleDir, modulePath string) string {
	if filepath.IsAbs(profileName) {
		if _, err := os.Stat(profileName); err == nil {
			return profileName
		}
	}
	if strings.HasPrefix(profileName, modulePath) {
		rel := strings.TrimPrefix(strings.TrimPrefix(profileName, modulePath), "/")
		abs := filepath.Join(moduleDir, rel)
		if _, err := os.Stat(abs); err == nil {
			return abs
		}
	}
	return ""
}

// readModulePath reads the module path from go.mod in dir.
func readModulePath(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "module"))
		}
	}
	return ""
}
