// Package drawer renders a flow as a Graphviz DOT document, optionally
// heat-colored by the durations recorded in a measure.
package drawer

import (
	"io"
	"os"
	"sort"
	"text/template"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-flowfit/pkg/flow"
	"github.com/askiada/go-flowfit/pkg/flow/measure"
)

const maxRGB = 240

// Option configures a drawing.
type Option func(*drawing)

// WithMeasure colors nodes by their average fit duration and annotates
// them with it.
func WithMeasure(msr *measure.Measure) Option {
	return func(d *drawing) { d.msr = msr }
}

type drawing struct {
	msr *measure.Measure
}

type nodeStatement struct {
	Name  string
	Label string
	Shape string
	Fill  string
	Note  string
}

type edgeStatement struct {
	Parent string
	Child  string
}

type description struct {
	Nodes []nodeStatement
	Edges []edgeStatement
}

//nolint:lll //this is a template
const dotTemplate = `strict digraph {
	rankdir="LR";
	node [shape=box, style=filled, fillcolor=white];
	{{range $n := .Nodes}}
	"{{$n.Name}}" [ label="{{$n.Label}}"{{if $n.Shape}}, shape={{$n.Shape}}{{end}}{{if $n.Fill}}, fillcolor="{{$n.Fill}}"{{end}}{{if $n.Note}}, xlabel="{{$n.Note}}"{{end}} ];
	{{end}}
	{{range $e := .Edges}}
	"{{$e.Parent}}" -> "{{$e.Child}}";
	{{end}}
	}
	`

// Draw writes the DOT rendering of a flow.
func Draw(f *flow.Flow, wrt io.Writer, opts ...Option) error {
	if f == nil {
		return flow.ErrFlowMustBeSet
	}

	d := &drawing{}
	for _, opt := range opts {
		opt(d)
	}

	desc, err := d.describe(f)
	if err != nil {
		return err
	}

	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "unable to parse template")
	}

	return errors.Wrap(tpl.Execute(wrt, desc), "unable to execute template")
}

// DrawFile renders a flow into a file.
func DrawFile(f *flow.Flow, path string, opts ...Option) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", path)
	}
	defer file.Close()

	return Draw(f, file, opts...)
}

func (d *drawing) describe(f *flow.Flow) (description, error) {
	fills, err := d.heatColors()
	if err != nil {
		return description{}, err
	}

	desc := description{}
	for _, node := range f.Nodes() {
		stmt := nodeStatement{
			Name:  node.Name(),
			Label: node.Name(),
		}
		if node.Union() {
			stmt.Shape = "diamond"
			stmt.Label = node.Name() + `\nunion`
		} else {
			stmt.Label = node.Name() + `\n` + string(node.Operator().Kind())
		}

		if d.msr != nil {
			avg := d.msr.Metric(node.Name()).AvgFit()
			if avg > 0 {
				stmt.Note = avg.String()
				stmt.Fill = fills[avg]
			}
		}

		desc.Nodes = append(desc.Nodes, stmt)
	}

	for _, edge := range f.Edges() {
		desc.Edges = append(desc.Edges, edgeStatement{Parent: edge[0], Child: edge[1]})
	}

	return desc, nil
}

// heatColors maps every recorded average fit duration onto a red-blue
// gradient: the slowest node is pure red, the fastest pure blue.
func (d *drawing) heatColors() (map[time.Duration]string, error) {
	fills := make(map[time.Duration]string)
	if d.msr == nil {
		return fills, nil
	}

	var sorted []time.Duration
	for _, mt := range d.msr.All() {
		avg := mt.AvgFit()
		if avg == 0 {
			continue
		}
		if _, ok := fills[avg]; ok {
			continue
		}
		fills[avg] = ""
		sorted = append(sorted, avg)
	}
	if len(sorted) == 0 {
		return fills, nil
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	maxValue := sorted[0]
	minValue := sorted[len(sorted)-1]

	for curr := range fills {
		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(curr-minValue) / float64(maxValue-minValue)
		}

		red := maxRGB * fraction
		blue := maxRGB - maxRGB*fraction

		heat, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return nil, errors.Wrap(err, "unable to get colour")
		}

		fills[curr] = heat.ToHEX().String()
	}

	return fills, nil
}
