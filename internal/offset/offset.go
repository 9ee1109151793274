// Package offset computes per-axis calibration offsets between Perceptron
// and CMM measurements of the same parts.
package offset

import (
	"errors"
	"fmt"

	"github.com/dbsmedya/cmmcal/internal/config"
	"github.com/dbsmedya/cmmcal/internal/logger"
	"github.com/dbsmedya/cmmcal/internal/types"
)

// Column names the input sheets must carry.
const (
	ColJSN            = "JSN"
	ColPerceptronJSN  = "PerceptronJSN"
	ColCMMJSN         = "CMMJSN"
	ColPerceptronAxis = "PerceptronAxis"
	ColCMMAxis        = "CMMAxis"
)

// MinPairs is the smallest number of matched parts that yields a record.
const MinPairs = 2

// ErrDuplicateJSN is returned under the "error" duplicate policy when a
// mapped JSN matches more than one row of a raw table.
var ErrDuplicateJSN = errors.New("duplicate JSN")

// Input holds the four comparison tables.
type Input struct {
	Perceptron  *types.Table
	CMM         *types.Table
	JSNMapping  *types.Table
	AxisMapping *types.Table
}

// Record is the offset summary of one axis mapping.
type Record struct {
	PercAxis    string
	CMMAxis     string
	PercMean    float64
	CMMMean     float64
	Correlation float64 // NaN when undefined
	SixSigma    float64
	Offset      float64
	Pairs       int
}

// AxisPair names one axis mapping row.
type AxisPair struct {
	Perceptron string
	CMM        string
}

// Stats describes what the calculation matched, dropped and skipped.
type Stats struct {
	AxisMappings  int
	JSNMappings   int
	Produced      int
	Dropped       []AxisPair // Axis mappings with fewer than MinPairs pairs
	MatchedPairs  int
	UnmatchedJSN  int // JSN mapping rows with no raw row on at least one side
	MissingValues int // Blank or non-numeric cells among resolved rows
	DuplicateJSN  int // Mapped JSNs found on more than one raw row
}

// Result is the output of a calculation.
type Result struct {
	Records []Record
	Stats   Stats
}

// Calculator joins the raw tables through the mappings and aggregates.
type Calculator struct {
	duplicatePolicy string
	logger          *logger.Logger
}

// NewCalculator creates a calculator using the configured duplicate JSN policy.
func NewCalculator(cfg *config.CompareConfig, log *logger.Logger) *Calculator {
	if log == nil {
		log = logger.NewNop()
	}
	policy := config.DuplicateFirst
	if cfg != nil && cfg.DuplicateJSN != "" {
		policy = cfg.DuplicateJSN
	}
	return &Calculator{duplicatePolicy: policy, logger: log}
}

// Validate checks that every table and column the calculation needs is present.
// All problems are returned together as a *types.SchemaError.
func Validate(in *Input) error {
	se := &types.SchemaError{}
	if in == nil {
		se.Add("no input tables")
		return se
	}

	tables := []struct {
		table   *types.Table
		label   string
		columns []string
	}{
		{in.Perceptron, "Perceptron", []string{ColJSN}},
		{in.CMM, "CMM", []string{ColJSN}},
		{in.JSNMapping, "JSN mapping", []string{ColPerceptronJSN, ColCMMJSN}},
		{in.AxisMapping, "axis mapping", []string{ColPerceptronAxis, ColCMMAxis}},
	}
	for _, t := range tables {
		if t.table == nil {
			se.Add("%s sheet is missing", t.label)
			continue
		}
		for _, col := range t.table.MissingColumns(t.columns...) {
			se.Add("sheet %q: missing column %q", t.table.Name, col)
		}
	}

	// Axis columns named by the mapping must exist in the raw tables.
	am := in.AxisMapping
	if am != nil && am.HasColumn(ColPerceptronAxis) && am.HasColumn(ColCMMAxis) {
		for i := 0; i < am.Len(); i++ {
			pa := am.Cell(i, ColPerceptronAxis)
			ca := am.Cell(i, ColCMMAxis)
			row := i + 2 // 1-based, after the header

			if pa == "" || ca == "" {
				se.Add("sheet %q row %d: %s and %s must both be set", am.Name, row, ColPerceptronAxis, ColCMMAxis)
				continue
			}
			if in.Perceptron != nil && !in.Perceptron.HasColumn(pa) {
				se.Add("sheet %q: missing axis column %q (%s row %d)", in.Perceptron.Name, pa, am.Name, row)
			}
			if in.CMM != nil && !in.CMM.HasColumn(ca) {
				se.Add("sheet %q: missing axis column %q (%s row %d)", in.CMM.Name, ca, am.Name, row)
			}
		}
	}

	return se.Err()
}

// partPair is one JSN mapping row resolved to raw table rows.
type partPair struct {
	percRow int
	cmmRow  int
}

// Calculate validates the input and produces one record per axis mapping
// with at least MinPairs matched parts, in axis mapping order.
func (c *Calculator) Calculate(in *Input) (*Result, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	res := &Result{Records: []Record{}}
	res.Stats.AxisMappings = in.AxisMapping.Len()
	res.Stats.JSNMappings = in.JSNMapping.Len()

	parts, err := c.resolveParts(in, &res.Stats)
	if err != nil {
		return nil, err
	}

	for i := 0; i < in.AxisMapping.Len(); i++ {
		pa := in.AxisMapping.Cell(i, ColPerceptronAxis)
		ca := in.AxisMapping.Cell(i, ColCMMAxis)
		log := c.logger.WithAxis(pa, ca)

		var percVals, cmmVals []float64
		for _, p := range parts {
			pv, pok := types.ParseNumber(in.Perceptron.Cell(p.percRow, pa))
			cv, cok := types.ParseNumber(in.CMM.Cell(p.cmmRow, ca))
			if !pok || !cok {
				res.Stats.MissingValues++
				continue
			}
			percVals = append(percVals, pv)
			cmmVals = append(cmmVals, cv)
		}
		res.Stats.MatchedPairs += len(percVals)

		if len(percVals) < MinPairs {
			log.Debugw("Axis mapping dropped", "pairs", len(percVals))
			res.Stats.Dropped = append(res.Stats.Dropped, AxisPair{Perceptron: pa, CMM: ca})
			continue
		}

		rec := summarize(pa, ca, percVals, cmmVals)
		log.Debugw("Axis offset computed", "pairs", rec.Pairs, "offset", rec.Offset)
		res.Records = append(res.Records, rec)
	}
	res.Stats.Produced = len(res.Records)

	c.logger.Infow("Offsets calculated",
		"axis_mappings", res.Stats.AxisMappings,
		"produced", res.Stats.Produced,
		"dropped", len(res.Stats.Dropped),
		"unmatched_jsn", res.Stats.UnmatchedJSN,
		"duplicate_jsn", res.Stats.DuplicateJSN,
	)

	return res, nil
}

// resolveParts maps each JSN mapping row onto its Perceptron and CMM rows.
// Rows missing on either side are counted and left out.
func (c *Calculator) resolveParts(in *Input, stats *Stats) ([]partPair, error) {
	percIdx, err := in.Perceptron.Index(ColJSN)
	if err != nil {
		return nil, err
	}
	cmmIdx, err := in.CMM.Index(ColJSN)
	if err != nil {
		return nil, err
	}

	seenDup := make(map[string]bool)
	parts := make([]partPair, 0, in.JSNMapping.Len())

	for i := 0; i < in.JSNMapping.Len(); i++ {
		pj := types.NormalizeKey(in.JSNMapping.Cell(i, ColPerceptronJSN))
		cj := types.NormalizeKey(in.JSNMapping.Cell(i, ColCMMJSN))

		percRow, err := c.pick(in.Perceptron.Name, pj, percIdx, seenDup, stats)
		if err != nil {
			return nil, err
		}
		cmmRow, err := c.pick(in.CMM.Name, cj, cmmIdx, seenDup, stats)
		if err != nil {
			return nil, err
		}

		if percRow < 0 || cmmRow < 0 {
			c.logger.Debugw("JSN mapping unmatched", "perceptron_jsn", pj, "cmm_jsn", cj)
			stats.UnmatchedJSN++
			continue
		}
		parts = append(parts, partPair{percRow: percRow, cmmRow: cmmRow})
	}

	return parts, nil
}

// pick returns the raw row for key, or -1 when the table has none.
func (c *Calculator) pick(sheet, key string, idx map[string][]int, seenDup map[string]bool, stats *Stats) (int, error) {
	rows := idx[key]
	if len(rows) == 0 {
		return -1, nil
	}
	if len(rows) > 1 {
		if c.duplicatePolicy == config.DuplicateError {
			return -1, fmt.Errorf("%w: sheet %q has %d rows with JSN %s", ErrDuplicateJSN, sheet, len(rows), key)
		}
		id := sheet + "\x00" + key
		if !seenDup[id] {
			seenDup[id] = true
			stats.DuplicateJSN++
			c.logger.WithSheet(sheet).Warnw("JSN appears on several rows, using the first", "jsn", key, "rows", len(rows))
		}
	}
	return rows[0], nil
}

func summarize(pa, ca string, percVals, cmmVals []float64) Record {
	percMean := mean(percVals)
	cmmMean := mean(cmmVals)
	sd := sampleStdDev(differences(percVals, cmmVals))

	return Record{
		PercAxis:    pa,
		CMMAxis:     ca,
		PercMean:    types.Round(percMean, 3),
		CMMMean:     types.Round(cmmMean, 3),
		Correlation: types.Round(pearson(percVals, cmmVals), 3),
		SixSigma:    types.Round(6*sd, 3),
		Offset:      types.Round(cmmMean-percMean, 3),
		Pairs:       len(percVals),
	}
}
