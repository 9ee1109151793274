// Package gauge renders offset summaries as a gauge offset XML document:
// GAUGE > STATION > MODEL > CHECKPOINT > AXIS.
package gauge

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/cmmcal/internal/config"
	"github.com/dbsmedya/cmmcal/internal/offset"
	"github.com/dbsmedya/cmmcal/internal/types"
)

// Default station and model names.
const (
	DefaultStation = "T1XX_FLEX_Front_Mod"
	DefaultModel   = "K_SUV"
)

// DiameterAxis is appended to every checkpoint with a fixed offset of "0".
const DiameterAxis = "Diameter"

// Axes are emitted in this order for every checkpoint, before Diameter.
var Axes = []string{"X", "Y", "Z"}

// Options control the document header.
type Options struct {
	StationName    string
	ModelName      string
	XMLDeclaration bool
}

// OptionsFromConfig builds Options from the gauge section of the config.
func OptionsFromConfig(cfg *config.GaugeConfig) Options {
	opts := Options{StationName: DefaultStation, ModelName: DefaultModel}
	if cfg == nil {
		return opts
	}
	if cfg.StationName != "" {
		opts.StationName = cfg.StationName
	}
	if cfg.ModelName != "" {
		opts.ModelName = cfg.ModelName
	}
	opts.XMLDeclaration = cfg.XMLDeclaration
	return opts
}

// Document is the root GAUGE element.
type Document struct {
	XMLName xml.Name `xml:"GAUGE"`
	Station Station  `xml:"STATION"`
}

type Station struct {
	Name  string `xml:"NAME"`
	Model Model  `xml:"MODEL"`
}

type Model struct {
	Name        string       `xml:"NAME"`
	Checkpoints []Checkpoint `xml:"CHECKPOINT"`
}

type Checkpoint struct {
	Name string `xml:"NAME"`
	Axes []Axis `xml:"AXIS"`
}

type Axis struct {
	Name   string `xml:"NAME"`
	Offset string `xml:"OFFSET"`
}

// Stats counts how records were used.
type Stats struct {
	Records     int
	Checkpoints int
	Excluded    []string // Perceptron axis names without a checkpoint[axis] pattern
}

// ParseAxisName splits "checkpoint[axis]" into its parts. ok is false when
// the name does not hold both brackets.
func ParseAxisName(name string) (checkpoint, axis string, ok bool) {
	open := strings.Index(name, "[")
	if open < 0 || !strings.Contains(name, "]") {
		return "", "", false
	}
	checkpoint = name[:open]
	axis = name[open+1:]
	if next := strings.Index(axis, "["); next >= 0 {
		axis = axis[:next]
	}
	axis = strings.ReplaceAll(axis, "]", "")
	return checkpoint, axis, true
}

// Build groups records by checkpoint, in first-seen order, and lays out the
// document. A later record for the same checkpoint and axis replaces an earlier one.
func Build(records []offset.Record, opts Options) (*Document, Stats) {
	stats := Stats{Records: len(records)}
	groups := orderedmap.NewOrderedMap[string, map[string]float64]()

	for _, rec := range records {
		checkpoint, axis, ok := ParseAxisName(rec.PercAxis)
		if !ok {
			stats.Excluded = append(stats.Excluded, rec.PercAxis)
			continue
		}
		offsets, exists := groups.Get(checkpoint)
		if !exists {
			offsets = make(map[string]float64)
			groups.Set(checkpoint, offsets)
		}
		offsets[axis] = rec.Offset
	}

	doc := &Document{
		Station: Station{
			Name:  stripLineBreaks(opts.StationName),
			Model: Model{Name: stripLineBreaks(opts.ModelName)},
		},
	}

	for el := groups.Front(); el != nil; el = el.Next() {
		cp := Checkpoint{Name: stripLineBreaks(el.Key)}
		for _, name := range Axes {
			cp.Axes = append(cp.Axes, Axis{
				Name:   name,
				Offset: types.FormatFloat(types.Round(el.Value[name], 3)),
			})
		}
		cp.Axes = append(cp.Axes, Axis{Name: DiameterAxis, Offset: "0"})
		doc.Station.Model.Checkpoints = append(doc.Station.Model.Checkpoints, cp)
	}
	stats.Checkpoints = groups.Len()

	return doc, stats
}

var lineBreaks = strings.NewReplacer("\n", "", "\r", "")

// stripLineBreaks removes line breaks from element text, which would
// otherwise be escaped as character references by the encoder.
func stripLineBreaks(s string) string {
	return lineBreaks.Replace(s)
}

// Marshal renders records as a single-line XML string.
func Marshal(records []offset.Record, opts Options) (string, Stats, error) {
	doc, stats := Build(records, opts)

	out, err := xml.Marshal(doc)
	if err != nil {
		return "", stats, fmt.Errorf("failed to marshal gauge document: %w", err)
	}

	s := string(out)
	if opts.XMLDeclaration {
		s = strings.TrimRight(xml.Header, "\n") + s
	}
	s = lineBreaks.Replace(s)
	return s, stats, nil
}
