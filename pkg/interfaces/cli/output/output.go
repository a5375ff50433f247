package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/clsp/pkg/application/dto"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/xlsx"
	"github.com/xuri/excelize/v2"
)

// Formats lists the supported output formats
var Formats = []string{"text", "json", "csv", "xlsx", "svg"}

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Out receives console output, os.Stdout when nil
	Out io.Writer
}

func (c Config) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Generate creates output in the specified format
func Generate(report *dto.SolutionReport, config Config) error {
	switch config.Format {
	case "text":
		return generateTextOutput(report, config)
	case "json":
		return generateJSONOutput(report, config)
	case "csv":
		return generateCSVOutput(report, config)
	case "xlsx":
		return generateXLSXOutput(report, config)
	case "svg":
		return generateSVGOutput(report, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return d.Decimal.String()
}

func scenarioList(report *dto.SolutionReport) string {
	names := make([]string, len(report.Scenarios))
	for i, s := range report.Scenarios {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// generateTextOutput creates human-readable text output
func generateTextOutput(report *dto.SolutionReport, config Config) error {
	w := config.out()
	var file *os.File
	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		var err error
		file, err = os.Create(filepath.Join(config.OutputDir, "solution.txt"))
		if err != nil {
			return fmt.Errorf("failed to create text file: %w", err)
		}
		defer file.Close()
		w = io.MultiWriter(w, file)
	}

	fmt.Fprintf(w, "📊 Lot-Sizing Results Summary\n")
	fmt.Fprintf(w, "=============================\n\n")

	fmt.Fprintf(w, "Problem Instance: %s\n", report.ProblemInstanceID)
	fmt.Fprintf(w, "Scenarios: %s\n", scenarioList(report))
	fmt.Fprintf(w, "Run: %s\n", report.RunID)
	fmt.Fprintf(w, "Status: %s\n", report.Status)
	fmt.Fprintf(w, "%s\n\n", report.Message)

	fmt.Fprintf(w, "Objective: %s\n", nullString(report.ObjectiveValue))
	fmt.Fprintf(w, "Bound: %s\n", nullString(report.ObjectiveBound))
	fmt.Fprintf(w, "MIP Gap: %s\n", nullString(report.MIPGap))
	fmt.Fprintf(w, "Build Time: %v\n", report.BuildTime)
	fmt.Fprintf(w, "Solve Time: %v\n", report.SolveTime)
	fmt.Fprintf(w, "Nodes: %d\n\n", report.Statistics.Nodes)

	st := report.Statistics
	fmt.Fprintf(w, "Model: %d variables (%d binary, %d integer, %d continuous), %d constraints, %d nonzeros\n\n",
		st.Variables, st.Binary, st.Integer, st.Continuous, st.Constraints, st.NonZeros)

	if report.CostBreakdown != nil {
		c := report.CostBreakdown
		fmt.Fprintf(w, "💰 Cost Breakdown (scenario average):\n")
		fmt.Fprintf(w, "  %-12s %12s\n", "Holding", c.Holding.StringFixed(2))
		fmt.Fprintf(w, "  %-12s %12s\n", "Backorder", c.Backorder.StringFixed(2))
		fmt.Fprintf(w, "  %-12s %12s\n", "Setup", c.Setup.StringFixed(2))
		fmt.Fprintf(w, "  %-12s %12s\n\n", "Total", c.Total().StringFixed(2))
	}

	if len(report.Lots) > 0 {
		fmt.Fprintf(w, "📋 Production Lots:\n")
		fmt.Fprintf(w, "%-10s %-15s %-15s %-6s %-12s %-6s %-8s\n",
			"Scenario", "Machine", "Material", "Period", "Quantity", "Setup", "Carried")
		fmt.Fprintf(w, "%-10s %-15s %-15s %-6s %-12s %-6s %-8s\n",
			"----------", "---------------", "---------------", "------", "------------", "------", "--------")

		for _, lot := range report.Lots {
			fmt.Fprintf(w, "%-10s %-15s %-15s %-6d %-12s %-6t %-8t\n",
				lot.Scenario,
				lot.Machine,
				lot.Product,
				lot.Period,
				lot.Quantity.String(),
				lot.Setup,
				lot.CarriedOver)
		}
		fmt.Fprintln(w)
	}

	if len(report.Violations) > 0 {
		fmt.Fprintf(w, "⚠️  Violations (%d):\n", len(report.Violations))
		for _, v := range report.Violations {
			fmt.Fprintf(w, "  %s\n", v)
		}
		fmt.Fprintln(w)
	}

	if file != nil && config.Verbose {
		fmt.Fprintf(config.out(), "💾 Results saved to: %s\n", file.Name())
	}
	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(report *dto.SolutionReport, config Config) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.out(), string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, "solution.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.out(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

var (
	summaryHeader  = []string{"key", "value"}
	lotsHeader     = []string{"scenario_id", "machine_id", "material_id", "planning_period", "quantity", "setup", "carried_over"}
	variableHeader = []string{"variable", "value"}
)

func summaryRows(report *dto.SolutionReport) [][]string {
	rows := [][]string{
		{"run_id", report.RunID.String()},
		{"problem_instance_id", report.ProblemInstanceID},
		{"scenarios", scenarioList(report)},
		{"status", report.Status.String()},
		{"message", report.Message},
		{"objective_value", nullString(report.ObjectiveValue)},
		{"objective_bound", nullString(report.ObjectiveBound)},
		{"mip_gap", nullString(report.MIPGap)},
		{"variables", strconv.Itoa(report.Statistics.Variables)},
		{"constraints", strconv.Itoa(report.Statistics.Constraints)},
		{"nodes", strconv.Itoa(report.Statistics.Nodes)},
		{"build_time", report.BuildTime.String()},
		{"solve_time", report.SolveTime.String()},
		{"violations", strconv.Itoa(len(report.Violations))},
	}
	if c := report.CostBreakdown; c != nil {
		rows = append(rows,
			[]string{"inventory_holding_cost", c.Holding.String()},
			[]string{"backorder_cost", c.Backorder.String()},
			[]string{"setup_cost", c.Setup.String()},
		)
	}
	return rows
}

func lotRows(report *dto.SolutionReport) [][]string {
	rows := make([][]string, 0, len(report.Lots))
	for _, lot := range report.Lots {
		rows = append(rows, []string{
			string(lot.Scenario),
			string(lot.Machine),
			string(lot.Product),
			strconv.Itoa(int(lot.Period)),
			lot.Quantity.String(),
			strconv.FormatBool(lot.Setup),
			strconv.FormatBool(lot.CarriedOver),
		})
	}
	return rows
}

// variableRows lists the assignment sorted by variable name
func variableRows(report *dto.SolutionReport) [][]string {
	rows := make([][]string, 0, len(report.Assignment))
	for k, v := range report.Assignment {
		rows = append(rows, []string{k.String(), strconv.FormatFloat(v, 'g', -1, 64)})
	}
	slices.SortFunc(rows, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return rows
}

// generateCSVOutput creates CSV output
func generateCSVOutput(report *dto.SolutionReport, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"summary.csv", summaryHeader, summaryRows(report)},
		{"production_lots.csv", lotsHeader, lotRows(report)},
		{"variables.csv", variableHeader, variableRows(report)},
	}
	for _, f := range files {
		filename := filepath.Join(config.OutputDir, f.name)
		if err := writeCSV(filename, f.header, f.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		if config.Verbose {
			fmt.Fprintf(config.out(), "💾 CSV results saved to: %s\n", filename)
		}
	}
	return nil
}

func writeCSV(filename string, header []string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

// generateXLSXOutput writes a workbook with summary, lot and variable sheets
func generateXLSXOutput(report *dto.SolutionReport, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for xlsx format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := xlsx.HeaderStyle(f)
	if err != nil {
		return err
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"Summary", summaryHeader, summaryRows(report)},
		{"ProductionLots", lotsHeader, lotRows(report)},
		{"Variables", variableHeader, variableRows(report)},
	}
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
		if err := xlsx.WriteSheet(f, sh.name, sh.header, sh.rows, headerStyle); err != nil {
			return err
		}
	}

	filename := filepath.Join(config.OutputDir, "solution.xlsx")
	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.out(), "💾 Excel results saved to: %s\n", filename)
	}
	return nil
}

// generateSVGOutput renders the production schedule chart
func generateSVGOutput(report *dto.SolutionReport, config Config) error {
	svg := NewScheduleChart(report).GenerateSVG(report)
	if config.OutputDir == "" {
		fmt.Fprintln(config.out(), svg)
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "schedule.svg")
	if err := os.WriteFile(filename, []byte(svg), 0644); err != nil {
		return fmt.Errorf("failed to write SVG file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.out(), "💾 Schedule chart saved to: %s\n", filename)
	}
	return nil
}
