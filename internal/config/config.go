// Package config provides configuration structures and loading for cmmcal.
package config

// Config represents the complete application configuration.
type Config struct {
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	Compare CompareConfig `yaml:"compare" mapstructure:"compare"`
	Gauge   GaugeConfig   `yaml:"gauge" mapstructure:"gauge"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ReportConfig controls the CMM TXT report conversion.
type ReportConfig struct {
	Encoding  string `yaml:"encoding" mapstructure:"encoding"` // latin1 or utf8
	SheetName string `yaml:"sheet_name" mapstructure:"sheet_name"`
	Output    string `yaml:"output" mapstructure:"output"`
}

// CompareConfig controls the Perceptron vs CMM offset calculation.
type CompareConfig struct {
	PerceptronSheet  string `yaml:"perceptron_sheet" mapstructure:"perceptron_sheet"`
	CMMSheet         string `yaml:"cmm_sheet" mapstructure:"cmm_sheet"`
	JSNMappingSheet  string `yaml:"jsn_mapping_sheet" mapstructure:"jsn_mapping_sheet"`
	AxisMappingSheet string `yaml:"axis_mapping_sheet" mapstructure:"axis_mapping_sheet"`
	DuplicateJSN     string `yaml:"duplicate_jsn" mapstructure:"duplicate_jsn"` // first or error
	SummarySheet     string `yaml:"summary_sheet" mapstructure:"summary_sheet"`
	SummaryOutput    string `yaml:"summary_output" mapstructure:"summary_output"`
}

// GaugeConfig controls the gauge offset XML document.
type GaugeConfig struct {
	StationName    string `yaml:"station_name" mapstructure:"station_name"`
	ModelName      string `yaml:"model_name" mapstructure:"model_name"`
	Output         string `yaml:"output" mapstructure:"output"` // file path or "-"
	XMLDeclaration bool   `yaml:"xml_declaration" mapstructure:"xml_declaration"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// Supported report encodings.
const (
	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf8"
)

// StdoutPath as an output path selects standard output.
const StdoutPath = "-"

// Duplicate JSN policies.
const (
	DuplicateFirst = "first"
	DuplicateError = "error"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Report: ReportConfig{
			Encoding:  EncodingLatin1,
			SheetName: "CMM TXT",
			Output:    "Mediciones_procesadas.xlsx",
		},
		Compare: CompareConfig{
			PerceptronSheet:  "Perceptron",
			CMMSheet:         "CMM",
			JSNMappingSheet:  "JSN-Mapping",
			AxisMappingSheet: "Axis-Mapping",
			DuplicateJSN:     DuplicateFirst,
			SummarySheet:     "Offset Summary",
			SummaryOutput:    "Resultados_Offsets.xlsx",
		},
		Gauge: GaugeConfig{
			StationName:    "T1XX_FLEX_Front_Mod",
			ModelName:      "K_SUV",
			Output:         "resultado.xml",
			XMLDeclaration: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Sheets returns the four comparison workbook sheet names in the order
// Perceptron, CMM, JSN mapping, axis mapping.
func (c *CompareConfig) Sheets() []string {
	return []string{c.PerceptronSheet, c.CMMSheet, c.JSNMappingSheet, c.AxisMappingSheet}
}
