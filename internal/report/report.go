// Package report converts CMM dimension reports (fixed-column text) into
// measurement records.
//
// Two line shapes are recognised. A checkpoint header:
//
//	DIM UBI1= UBICACION DE CIRCULO CIR1  UNIDADES=MM
//
// sets the label for the data lines that follow it:
//
//	X   10.001   10.000   0.010  -0.010   0.001   0
//
// (axis, measured, nominal, tolerance+, tolerance-, deviation, out of tolerance).
// Everything else in the report is ignored.
package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/dbsmedya/cmmcal/internal/config"
	"github.com/dbsmedya/cmmcal/internal/logger"
)

// ErrNoData is returned together with a non-nil Result when a report held no
// measurement lines. Callers treat it as a warning.
var ErrNoData = errors.New("no measurement data found in report")

const (
	headerPrefix = "DIM "
	unitsMarker  = "UNIDADES=MM"
	unitsWord    = "UNIDADES"
	minTokens    = 7
)

// Axes lists the axis codes accepted as the first token of a data line.
var Axes = []string{"X", "Y", "Z", "M", "D", "E"}

var axisSet = func() map[string]bool {
	m := make(map[string]bool, len(Axes))
	for _, a := range Axes {
		m[a] = true
	}
	return m
}()

// Measurement is one parsed data line of a CMM report.
type Measurement struct {
	Checkpoint     string
	Axis           string
	Nominal        float64
	TolPlus        float64
	TolMinus       float64
	Measured       float64
	Deviation      float64
	OutOfTolerance float64
}

// Stats counts what happened to each line of the report.
type Stats struct {
	Lines   int // Total lines read
	Headers int // Checkpoint header lines
	Records int // Measurement records emitted
	Skipped int // Axis lines whose numeric fields did not parse
	Ignored int // Any other line
}

// Result is the output of a conversion.
type Result struct {
	Measurements []Measurement
	Stats        Stats
}

// Parser converts report text into measurements.
type Parser struct {
	encoding string
	logger   *logger.Logger
}

// NewParser creates a parser for the configured input encoding.
func NewParser(cfg *config.ReportConfig, log *logger.Logger) *Parser {
	if log == nil {
		log = logger.NewNop()
	}
	enc := config.EncodingLatin1
	if cfg != nil && cfg.Encoding != "" {
		enc = cfg.Encoding
	}
	return &Parser{encoding: enc, logger: log}
}

// Parse reads the whole report from r. When no measurement line was found it
// returns the (empty) result along with ErrNoData.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	text, err := p.decode(raw)
	if err != nil {
		return nil, err
	}

	res := ParseLines(SplitLines(text))

	p.logger.Infow("Report parsed",
		"lines", res.Stats.Lines,
		"checkpoints", res.Stats.Headers,
		"records", res.Stats.Records,
		"skipped", res.Stats.Skipped,
	)

	if len(res.Measurements) == 0 {
		return res, ErrNoData
	}
	return res, nil
}

func (p *Parser) decode(raw []byte) (string, error) {
	switch p.encoding {
	case config.EncodingUTF8:
		return string(raw), nil
	case config.EncodingLatin1, "":
		decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), raw)
		if err != nil {
			return "", fmt.Errorf("failed to decode report as latin1: %w", err)
		}
		return string(decoded), nil
	default:
		return "", fmt.Errorf("unsupported report encoding %q", p.encoding)
	}
}

// SplitLines splits text on \n, \r\n and \r.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	// A trailing newline does not start another line.
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ParseLines folds the lines into measurements. The current checkpoint label
// starts empty and is replaced by every header line.
func ParseLines(lines []string) *Result {
	res := &Result{Measurements: []Measurement{}}
	checkpoint := ""

	for _, line := range lines {
		res.Stats.Lines++
		line = strings.TrimSpace(line)

		if label, ok := parseHeader(line); ok {
			checkpoint = label
			res.Stats.Headers++
			continue
		}

		tokens := strings.Fields(line)
		if len(tokens) < minTokens || !axisSet[tokens[0]] {
			res.Stats.Ignored++
			continue
		}

		m, err := parseMeasurement(checkpoint, tokens)
		if err != nil {
			res.Stats.Skipped++
			continue
		}
		res.Measurements = append(res.Measurements, m)
		res.Stats.Records++
	}

	return res
}

// parseHeader extracts the checkpoint label from a DIM header line.
func parseHeader(line string) (string, bool) {
	if !strings.HasPrefix(line, headerPrefix) || !strings.Contains(line, unitsMarker) {
		return "", false
	}

	label := strings.TrimPrefix(line, "DIM")
	if i := strings.Index(label, "="); i >= 0 {
		label = label[:i]
	}
	label = strings.TrimSpace(label)

	// "DIM P1 UNIDADES=MM": the first '=' belongs to the unit marker.
	if rest, ok := strings.CutSuffix(label, unitsWord); ok {
		if r, _ := utf8.DecodeLastRuneInString(rest); rest == "" || unicode.IsSpace(r) {
			label = strings.TrimSpace(rest)
		}
	}
	return label, true
}

func parseMeasurement(checkpoint string, tokens []string) (Measurement, error) {
	var vals [6]float64
	for i := range vals {
		v, err := strconv.ParseFloat(tokens[i+1], 64)
		// Out of range values parse as ±Inf and are kept.
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return Measurement{}, err
		}
		vals[i] = v
	}

	return Measurement{
		Checkpoint:     checkpoint,
		Axis:           tokens[0],
		Measured:       vals[0],
		Nominal:        vals[1],
		TolPlus:        vals[2],
		TolMinus:       vals[3],
		Deviation:      vals[4],
		OutOfTolerance: vals[5],
	}, nil
}
