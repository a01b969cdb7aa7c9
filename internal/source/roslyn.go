package source

import (
	"context"
	"encoding/xml"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
)

// RoslynParser reads Microsoft.CodeAnalysis.Metrics XML. The format
// is already hierarchical (assembly → namespace → type → member), so
// the parser flattens it into per-level elements that the builder
// re-assembles alongside the other sources.
type RoslynParser struct{}

func (RoslynParser) Format() string { return FormatRoslyn }

// roslynMetricNames maps the XML metric names to identifiers.
var roslynMetricNames = map[string]metric.ID{
	"MaintainabilityIndex": metric.RoslynMaintainabilityIndex,
	"CyclomaticComplexity": metric.RoslynCyclomaticComplexity,
	"ClassCoupling":        metric.RoslynClassCoupling,
	"DepthOfInheritance":   metric.RoslynDepthOfInheritance,
	"SourceLines":          metric.RoslynSourceLines,
	"ExecutableLines":      metric.RoslynExecutableLines,
}

type rsReport struct {
	Targets []rsTarget `xml:"Targets>Target"`
}

type rsTarget struct {
	Assemblies []rsAssembly `xml:"Assembly"`
}

type rsAssembly struct {
	Name       string        `xml:"Name,attr"`
	Metrics    []rsMetric    `xml:"Metrics>Metric"`
	Namespaces []rsNamespace `xml:"Namespaces>Namespace"`
}

type rsNamespace struct {
	Name    string     `xml:"Name,attr"`
	Metrics []rsMetric `xml:"Metrics>Metric"`
	Types   []rsType   `xml:"Types>NamedType"`
}

type rsType struct {
	Name    string     `xml:"Name,attr"`
	File    string     `xml:"File,attr"`
	Line    int        `xml:"Line,attr"`
	Metrics []rsMetric `xml:"Metrics>Metric"`
	Members rsMembers  `xml:"Members"`
}

type rsMembers struct {
	Items []rsMember `xml:",any"`
}

type rsMember struct {
	XMLName xml.Name
	Name    string     `xml:"Name,attr"`
	File    string     `xml:"File,attr"`
	Line    int        `xml:"Line,attr"`
	Metrics []rsMetric `xml:"Metrics>Metric"`
}

type rsMetric struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:"Value,attr"`
}

// Parse reads one code-metrics XML file.
func (p RoslynParser) Parse(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IO("reading metrics file: %w", err)
	}

	var rep rsReport
	if err := xml.Unmarshal(data, &rep); err != nil {
		return nil, errs.Parsing("malformed metrics XML %s: %w", path, err)
	}

	doc := &Document{Format: FormatRoslyn, SourceFile: path}

	for _, target := range rep.Targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, asm := range target.Assemblies {
			asmName := assemblyShortName(asm.Name)
			if asmName == "" {
				charmlog.Debug("skipping unnamed assembly", "file", path)
				continue
			}

			appendRoslyn(doc, metric.KindAssembly, asmName, asmName, nil, asm.Metrics, path)

			for _, ns := range asm.Namespaces {
				appendRoslyn(doc, metric.KindNamespace, asmName, ns.Name, nil, ns.Metrics, path)

				for _, typ := range ns.Types {
					typeFQN := qualify(ns.Name, typ.Name)
					appendRoslyn(doc, metric.KindType, asmName, typeFQN,
						locationOf(typ.File, typ.Line), typ.Metrics, path)

					for _, mem := range typ.Members.Items {
						if mem.Name == "" {
							continue
						}
						appendRoslyn(doc, metric.KindMember, asmName, qualify(typeFQN, mem.Name),
							locationOf(mem.File, mem.Line), mem.Metrics, path)
					}
				}
			}
		}
	}

	return doc, nil
}

func appendRoslyn(d *Document, kind metric.Kind, assembly, fqn string, loc *Location, metrics []rsMetric, path string) {
	values := make(map[metric.ID]decimal.Decimal, len(metrics))
	for _, m := range metrics {
		id, ok := roslynMetricNames[m.Name]
		if !ok {
			charmlog.Debug("unknown Roslyn metric", "name", m.Name)
			continue
		}
		v, err := decimal.NewFromString(m.Value)
		if err != nil {
			charmlog.Debug("unparseable Roslyn metric value", "name", m.Name, "value", m.Value)
			continue
		}
		values[id] = v
	}
	if len(values) == 0 {
		return
	}
	d.Elements = append(d.Elements, Element{
		Kind:       kind,
		Assembly:   assembly,
		FQN:        fqn,
		Values:     values,
		Location:   loc,
		SourceFile: path,
	})
}

// assemblyShortName trims the version/culture suffix off a full
// assembly name ("Acme.Billing, Version=1.0.0.0, ..." → "Acme.Billing").
func assemblyShortName(full string) string {
	if idx := strings.Index(full, ","); idx >= 0 {
		full = full[:idx]
	}
	return strings.TrimSpace(full)
}

// qualify joins a container FQN and a member name, tolerating member
// names that arrive already qualified.
func qualify(container, name string) string {
	if container == "" || strings.HasPrefix(name, container+".") {
		return name
	}
	return container + "." + name
}

func locationOf(file string, line int) *Location {
	if file == "" && line == 0 {
		return nil
	}
	return &Location{FilePath: file, StartLine: line}
}
