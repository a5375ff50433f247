package output

import (
	"fmt"
	"html"
	"strings"

	"github.com/vsinha/clsp/pkg/application/dto"
	"github.com/vsinha/clsp/pkg/domain/entities"
)

// ScheduleChart is a Gantt-style chart of production lots over periods
type ScheduleChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
	Periods      int
}

// ScheduleRow is one scenario, machine and product line of the chart
type ScheduleRow struct {
	Scenario entities.ScenarioID
	Machine  entities.MachineID
	Product  entities.ProductID
}

func (r ScheduleRow) label() string {
	return fmt.Sprintf("%s %s/%s", r.Scenario, r.Machine, r.Product)
}

// ScheduleBar represents a single lot in the chart
type ScheduleBar struct {
	Lot   dto.ProductionLot
	X     int
	Width int
	Color string
}

// NewScheduleChart sizes a chart for the report's lots
func NewScheduleChart(report *dto.SolutionReport) *ScheduleChart {
	periods := int(report.Horizon)
	for _, lot := range report.Lots {
		periods = max(periods, int(lot.Period))
	}

	rowHeight := 30
	rows := len(organizeRows(report.Lots))
	return &ScheduleChart{
		Width:        1200,
		Height:       max(rows*rowHeight+140, 200),
		MarginLeft:   220,
		MarginTop:    60,
		MarginRight:  220,
		MarginBottom: 80,
		RowHeight:    rowHeight,
		Periods:      max(periods, 1),
	}
}

// GenerateSVG creates an SVG representation of the chart
func (sc *ScheduleChart) GenerateSVG(report *dto.SolutionReport) string {
	if len(report.Lots) == 0 {
		return sc.generateEmptyChart(report)
	}

	var svg strings.Builder

	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, sc.Width, sc.Height))
	svg.WriteString(`<defs>`)
	svg.WriteString(`<style>`)
	svg.WriteString(`.row-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.time-label { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.lot-bar { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`.lot-text { font-family: Arial, sans-serif; font-size: 9px; fill: white; }`)
	svg.WriteString(`</style>`)
	svg.WriteString(`</defs>`)

	svg.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, sc.Width, sc.Height))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="30" class="title" text-anchor="middle">Production Schedule - %s (%s)</text>`,
		sc.Width/2, html.EscapeString(report.ProblemInstanceID), report.Status))

	rows := organizeRows(report.Lots)

	sc.drawTimeAxis(&svg)
	sc.drawTimeGrid(&svg, len(rows))
	sc.drawRows(&svg, rows)
	sc.drawLegend(&svg)

	svg.WriteString(`</svg>`)
	return svg.String()
}

type scheduleLine struct {
	row  ScheduleRow
	lots []dto.ProductionLot
}

// organizeRows groups lots by row, keeping the order of first appearance
func organizeRows(lots []dto.ProductionLot) []scheduleLine {
	var out []scheduleLine
	index := make(map[ScheduleRow]int)
	for _, lot := range lots {
		r := ScheduleRow{Scenario: lot.Scenario, Machine: lot.Machine, Product: lot.Product}
		i, ok := index[r]
		if !ok {
			i = len(out)
			index[r] = i
			out = append(out, scheduleLine{row: r})
		}
		out[i].lots = append(out[i].lots, lot)
	}
	return out
}

func (sc *ScheduleChart) columnWidth() int {
	return (sc.Width - sc.MarginLeft - sc.MarginRight) / sc.Periods
}

func (sc *ScheduleChart) periodX(t entities.Period) int {
	return sc.MarginLeft + (int(t)-1)*sc.columnWidth()
}

func (sc *ScheduleChart) drawTimeAxis(svg *strings.Builder) {
	col := sc.columnWidth()
	for t := 1; t <= sc.Periods; t++ {
		x := sc.periodX(entities.Period(t)) + col/2
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="time-label" text-anchor="middle">t%d</text>`,
			x, sc.Height-sc.MarginBottom+15, t))
	}

	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		sc.MarginLeft, sc.Height-sc.MarginBottom, sc.MarginLeft+sc.Periods*col, sc.Height-sc.MarginBottom))
}

func (sc *ScheduleChart) drawTimeGrid(svg *strings.Builder, numRows int) {
	gridBottom := sc.MarginTop + numRows*sc.RowHeight
	for t := 1; t <= sc.Periods+1; t++ {
		x := sc.periodX(entities.Period(t))
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			x, sc.MarginTop, x, gridBottom))
	}
}

func (sc *ScheduleChart) drawRows(svg *strings.Builder, rows []scheduleLine) {
	for i, r := range rows {
		y := sc.MarginTop + i*sc.RowHeight

		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="row-label" text-anchor="end">%s</text>`,
			sc.MarginLeft-15, y+sc.RowHeight/2+4, html.EscapeString(r.row.label())))

		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			sc.MarginLeft, y+sc.RowHeight, sc.MarginLeft+sc.Periods*sc.columnWidth(), y+sc.RowHeight))

		for _, lot := range r.lots {
			sc.drawBar(svg, sc.createBar(lot), y)
		}
	}
}

func (sc *ScheduleChart) createBar(lot dto.ProductionLot) ScheduleBar {
	return ScheduleBar{
		Lot:   lot,
		X:     sc.periodX(lot.Period) + 2,
		Width: max(sc.columnWidth()-4, 2),
		Color: barColor(lot),
	}
}

func (sc *ScheduleChart) drawBar(svg *strings.Builder, bar ScheduleBar, rowY int) {
	barHeight := sc.RowHeight - 4
	barY := rowY + 2

	svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="lot-bar">`,
		bar.X, barY, bar.Width, barHeight, bar.Color))
	svg.WriteString(fmt.Sprintf(`<title>%s</title></rect>`, html.EscapeString(fmt.Sprintf(
		"Scenario: %s, Machine: %s, Material: %s, Period: %d, Qty: %s, Setup: %t, Carried over: %t",
		bar.Lot.Scenario, bar.Lot.Machine, bar.Lot.Product, bar.Lot.Period,
		bar.Lot.Quantity.String(), bar.Lot.Setup, bar.Lot.CarriedOver))))

	if bar.Width > 40 {
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="lot-text" text-anchor="middle">%s</text>`,
			bar.X+bar.Width/2, barY+barHeight/2+3, bar.Lot.Quantity.String()))
	}
}

func (sc *ScheduleChart) drawLegend(svg *strings.Builder) {
	legendX := sc.Width - sc.MarginRight + 20
	legendY := sc.MarginTop

	svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="180" height="60" fill="white" stroke="#ccc" stroke-width="1"/>`,
		legendX, legendY))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="row-label" font-weight="bold">Legend</text>`,
		legendX+10, legendY+15))

	items := []struct {
		color string
		label string
	}{
		{colorSetup, "Lot with setup"},
		{colorCarried, "Linked lot (setup carried over)"},
		{colorOther, "Lot without setup"},
	}
	for i, item := range items {
		itemY := legendY + 25 + i*12
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="12" height="8" fill="%s"/>`,
			legendX+10, itemY, item.color))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="time-label">%s</text>`,
			legendX+30, itemY+6, item.label))
	}
}

const (
	colorSetup   = "#4CAF50"
	colorCarried = "#2196F3"
	colorOther   = "#9E9E9E"
)

func barColor(lot dto.ProductionLot) string {
	switch {
	case lot.Setup:
		return colorSetup
	case lot.CarriedOver:
		return colorCarried
	default:
		return colorOther
	}
}

func (sc *ScheduleChart) generateEmptyChart(report *dto.SolutionReport) string {
	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
		<rect width="%d" height="%d" fill="white"/>
		<text x="%d" y="%d" class="title" text-anchor="middle">No Production Lots (%s)</text>
		<style>
			.title { font-family: Arial, sans-serif; font-size: 16px; fill: #666; }
		</style>
	</svg>`, sc.Width, sc.Height, sc.Width, sc.Height, sc.Width/2, sc.Height/2, report.Status)
}
