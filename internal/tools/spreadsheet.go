package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

type SpreadsheetTool struct {
	Workspace *Workspace
}

func NewSpreadsheetTool(ws *Workspace) *SpreadsheetTool {
	return &SpreadsheetTool{Workspace: ws}
}

func (s *SpreadsheetTool) Name() string {
	return "spreadsheet"
}

func (s *SpreadsheetTool) Description() string {
	return "Create and edit Excel (.xlsx) files: 'create' a styled sheet from headers and rows, 'set_cell' a single value, 'add_chart' (bar, line, pie) from a data range, 'read' a sheet back."
}

func (s *SpreadsheetTool) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "action", Description: "One of: create, set_cell, add_chart, read", Required: true},
		{Name: "path", Description: "The .xlsx file path", Required: true},
		{Name: "headers", Description: "Column headers for create, e.g. [\"Month\", \"Sales\"]"},
		{Name: "rows", Description: "Data rows for create, a list of lists"},
		{Name: "sheet", Description: "Sheet name (default Sheet1)"},
		{Name: "cell", Description: "Cell reference for set_cell, or the chart anchor for add_chart"},
		{Name: "value", Description: "Value for set_cell"},
		{Name: "chart_type", Description: "bar, line or pie"},
		{Name: "data_range", Description: "Chart data range, first column categories, second values, e.g. A2:B7"},
		{Name: "title", Description: "Chart title"},
		{Name: "totals", Description: "Add a TOTAL row with SUM formulas (create only)"},
	}
}

func (s *SpreadsheetTool) Invoke(ctx context.Context, args map[string]any) Result {
	action := strings.ToLower(strArg(args, "action"))
	path, err := s.Workspace.Resolve(strArg(args, "path"))
	if err != nil {
		return Fail("cannot resolve path: %v", err)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}

	sheet := strArg(args, "sheet")
	if sheet == "" {
		sheet = "Sheet1"
	}

	switch action {
	case "create":
		return s.create(path, sheet, args)
	case "set_cell":
		return s.setCell(path, sheet, args)
	case "add_chart":
		return s.addChart(path, sheet, args)
	case "read":
		return s.read(path, sheet)
	default:
		return Fail("invalid action %q: use create, set_cell, add_chart or read", action)
	}
}

func (s *SpreadsheetTool) create(path, sheet string, args map[string]any) Result {
	headers := sliceArg(args, "headers")
	rows := sliceArg(args, "rows")
	if len(headers) == 0 {
		return Fail("create needs a non-empty 'headers' list")
	}

	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return Fail("failed to name sheet: %v", err)
		}
	}

	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, cellValue(h)); err != nil {
			return Fail("failed to write header: %v", err)
		}
	}
	for r, row := range rows {
		cells, ok := row.([]any)
		if !ok {
			return Fail("row %d is not a list", r+1)
		}
		for col, v := range cells {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return Fail("failed to write cell: %v", err)
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	lastRow := len(rows) + 1

	if err := s.style(f, sheet, headers, rows, lastCol, lastRow); err != nil {
		return Fail("failed to style sheet: %v", err)
	}

	if boolArg(args, "totals") && len(rows) > 0 {
		if err := s.addTotals(f, sheet, headers, rows, lastRow); err != nil {
			return Fail("failed to add totals: %v", err)
		}
	}

	if err := s.Workspace.EnsureParent(path); err != nil {
		return Fail("failed to create directory: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		return Fail("failed to save spreadsheet: %v", err)
	}
	return OK("Created spreadsheet %s with %d columns and %d rows", path, len(headers), len(rows)).WithFile(path)
}

// style applies the house look: bold white header on a blue fill, zebra
// striping on data rows, widths sized to content, a frozen header and an
// auto-filter over the whole table.
func (s *SpreadsheetTool) style(f *excelize.File, sheet string, headers, rows []any, lastCol string, lastRow int) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "bottom", Color: "2F528F", Style: 2},
		},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	zebraStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return err
	}
	for r := 2; r <= lastRow; r++ {
		if r%2 == 0 {
			if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", r), fmt.Sprintf("%s%d", lastCol, r), zebraStyle); err != nil {
				return err
			}
		}
	}

	for col := range headers {
		width := len(fmt.Sprint(headers[col]))
		for _, row := range rows {
			if cells, ok := row.([]any); ok && col < len(cells) {
				if l := len(fmt.Sprint(cells[col])); l > width {
					width = l
				}
			}
		}
		name, _ := excelize.ColumnNumberToName(col + 1)
		w := float64(width) + 3
		if w < 10 {
			w = 10
		}
		if w > 60 {
			w = 60
		}
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}
	if lastRow > 1 {
		if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, lastRow), nil); err != nil {
			return err
		}
	}
	return nil
}

// addTotals appends a TOTAL row with a SUM formula under every column whose
// data is numeric.
func (s *SpreadsheetTool) addTotals(f *excelize.File, sheet string, headers, rows []any, lastRow int) error {
	totalRow := lastRow + 1
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "TOTAL"); err != nil {
		return err
	}

	for col := 1; col < len(headers); col++ {
		numeric := false
		for _, row := range rows {
			if cells, ok := row.([]any); ok && col < len(cells) {
				if _, isNum := cellValue(cells[col]).(float64); isNum {
					numeric = true
				} else {
					numeric = false
					break
				}
			}
		}
		if !numeric {
			continue
		}
		name, _ := excelize.ColumnNumberToName(col + 1)
		cell := fmt.Sprintf("%s%d", name, totalRow)
		if err := f.SetCellFormula(sheet, cell, fmt.Sprintf("SUM(%s2:%s%d)", name, name, lastRow)); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "top", Color: "4472C4", Style: 2}},
	})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("%s%d", lastCol, totalRow), totalStyle)
}

func (s *SpreadsheetTool) setCell(path, sheet string, args map[string]any) Result {
	cell := strings.ToUpper(strArg(args, "cell"))
	if cell == "" {
		return Fail("set_cell needs a 'cell' reference like B3")
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Fail("failed to open spreadsheet: %v", err)
	}
	defer f.Close()

	if err := f.SetCellValue(sheet, cell, cellValue(args["value"])); err != nil {
		return Fail("failed to set cell: %v", err)
	}
	if err := f.Save(); err != nil {
		return Fail("failed to save spreadsheet: %v", err)
	}
	return OK("Set %s!%s in %s", sheet, cell, path)
}

func (s *SpreadsheetTool) addChart(path, sheet string, args map[string]any) Result {
	dataRange := strings.ToUpper(strArg(args, "data_range"))
	if dataRange == "" {
		return Fail("add_chart needs a 'data_range' like A2:B7")
	}
	catRange, valRange, valHeader, err := splitChartRange(dataRange)
	if err != nil {
		return Fail("bad data_range: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return Fail("failed to open spreadsheet: %v", err)
	}
	defer f.Close()

	chartType := excelize.Col
	switch strings.ToLower(strArg(args, "chart_type")) {
	case "", "bar", "column":
		chartType = excelize.Col
	case "line":
		chartType = excelize.Line
	case "pie":
		chartType = excelize.Pie
	default:
		return Fail("unsupported chart_type %q: use bar, line or pie", strArg(args, "chart_type"))
	}

	title := strArg(args, "title")
	if title == "" {
		title = "Chart"
	}
	anchor := strings.ToUpper(strArg(args, "cell"))
	if anchor == "" {
		anchor = "E2"
	}

	vary := chartType == excelize.Pie
	chart := &excelize.Chart{
		Type: chartType,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!%s", sheet, absRef(valHeader)),
			Categories: fmt.Sprintf("%s!%s", sheet, absRange(catRange)),
			Values:     fmt.Sprintf("%s!%s", sheet, absRange(valRange)),
		}},
		Title:      []excelize.RichTextRun{{Text: title}},
		Legend:     excelize.ChartLegend{Position: "bottom"},
		VaryColors: &vary,
	}
	if err := f.AddChart(sheet, anchor, chart); err != nil {
		return Fail("failed to add chart: %v", err)
	}
	if err := f.Save(); err != nil {
		return Fail("failed to save spreadsheet: %v", err)
	}
	return OK("Added %s chart %q over %s in %s", strArg(args, "chart_type"), title, dataRange, path)
}

func (s *SpreadsheetTool) read(path, sheet string) Result {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Fail("failed to open spreadsheet: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return Fail("failed to read sheet %s: %v", sheet, err)
	}
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return OK("Sheet %s is empty", sheet)
	}
	return OK("Read %d rows from %s", len(rows), path).WithData(b.String())
}

// cellValue coerces decoded JSON values into something worth storing:
// numeric strings become numbers so SUM and charts work on them.
func cellValue(v any) any {
	switch t := v.(type) {
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return t
		}
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return n
		}
		return t
	case float64, bool, nil:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// splitChartRange splits a two-column range like A2:B7 into the category
// range (first column), the value range (second column), and the value
// column's header cell used as the series name.
func splitChartRange(dataRange string) (cat, val, header string, err error) {
	parts := strings.Split(dataRange, ":")
	if len(parts) != 2 {
		return "", "", "", fmt.Errorf("expected START:END, got %s", dataRange)
	}
	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return "", "", "", err
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return "", "", "", err
	}
	if endCol-startCol < 1 {
		return "", "", "", fmt.Errorf("need at least two columns (categories and values)")
	}
	catStart, _ := excelize.CoordinatesToCellName(startCol, startRow)
	catEnd, _ := excelize.CoordinatesToCellName(startCol, endRow)
	valStart, _ := excelize.CoordinatesToCellName(startCol+1, startRow)
	valEnd, _ := excelize.CoordinatesToCellName(startCol+1, endRow)
	valHead, _ := excelize.CoordinatesToCellName(startCol+1, 1)
	return catStart + ":" + catEnd, valStart + ":" + valEnd, valHead, nil
}

// absRef turns B7 into $B$7.
func absRef(cell string) string {
	i := 0
	for i < len(cell) && cell[i] >= 'A' && cell[i] <= 'Z' {
		i++
	}
	return "$" + cell[:i] + "$" + cell[i:]
}

func absRange(r string) string {
	parts := strings.Split(r, ":")
	for i, p := range parts {
		parts[i] = absRef(p)
	}
	return strings.Join(parts, ":")
}
