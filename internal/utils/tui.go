package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Gruvbox-like palette
var (
	paletteFgDark   = text.Colors{text.FgHiBlack}
	paletteFgLight  = text.Colors{text.FgWhite}
	paletteRed      = text.Colors{text.FgRed}
	paletteGreen    = text.Colors{text.FgGreen}
	paletteYellow   = text.Colors{text.FgYellow}
	paletteBlue     = text.Colors{text.FgBlue}
	paletteAqua     = text.Colors{text.FgCyan}
	paletteBold     = text.Colors{text.Bold}
	paletteBlueHi   = text.Colors{text.FgHiBlue}
	paletteAquaHi   = text.Colors{text.FgHiCyan}
	paletteGreenHi  = text.Colors{text.FgHiGreen}
	paletteYellowHi = text.Colors{text.FgHiYellow}
)

// Theme holds the colors shared by all command output
var Theme = struct {
	Success     text.Colors
	Info        text.Colors
	Warning     text.Colors
	Error       text.Colors
	Heading     text.Colors
	Subtle      text.Colors
	Accent      text.Colors
	Title       text.Colors
	TableHeader text.Colors
	TableBorder text.Colors
	TableRow    text.Colors
	TableAltRow text.Colors
	Badge       text.Colors
	Code        text.Colors
}{
	Success:     paletteGreen,
	Info:        paletteBlue,
	Warning:     paletteYellow,
	Error:       paletteRed,
	Heading:     append(paletteAquaHi, text.Bold),
	Subtle:      paletteFgDark,
	Accent:      paletteAqua,
	Title:       append(paletteAquaHi, text.Bold),
	TableHeader: append(paletteBlueHi, text.Bold),
	TableBorder: paletteBlue,
	TableRow:    paletteFgLight,
	TableAltRow: text.Colors{text.FgWhite, text.Faint},
	Badge:       append(paletteYellowHi, text.Bold),
	Code:        paletteGreenHi,
}

// PrintHeading prints a formatted heading
func PrintHeading(title string) {
	fmt.Println(Theme.Heading.Sprint(title))
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Println(Theme.Success.Sprint("✓ ") + message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Println(Theme.Info.Sprint("ℹ ") + message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println(Theme.Warning.Sprint("⚠ ") + message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Println(Theme.Error.Sprint("✗ ") + message)
}

// PrintKeyValue prints a key-value pair
func PrintKeyValue(key, value string) {
	fmt.Printf("%s: %s\n", paletteBold.Sprint(key), value)
}

// PrintKeyValueWithColor prints a key-value pair with colored value
func PrintKeyValueWithColor(key string, value string, colors text.Colors) {
	fmt.Printf("%s: %s\n", paletteBold.Sprint(key), colors.Sprint(value))
}

// PrintDivider prints a horizontal divider
func PrintDivider() {
	fmt.Println(Theme.Subtle.Sprint(strings.Repeat("─", 51)))
}

// CodeBlock indents code and styles it with the code color
func CodeBlock(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return Theme.Code.Sprint(strings.Join(lines, "\n"))
}

// TableOptions defines options for table creation
type TableOptions struct {
	Title string
	// Footer is appended below the rows when set
	Footer []string
}

// DefaultTableOptions returns default table options
func DefaultTableOptions() TableOptions {
	return TableOptions{Title: "methodgen"}
}

// CreateTable creates a new table with the theme applied
func CreateTable(options ...TableOptions) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)

	opts := DefaultTableOptions()
	if len(options) > 0 {
		opts = options[0]
	}
	if opts.Title != "" {
		t.SetTitle(opts.Title)
	}

	style := table.StyleDouble
	style.Color.Header = Theme.TableHeader
	style.Color.Border = Theme.TableBorder
	style.Color.Row = Theme.TableRow
	style.Color.RowAlternate = Theme.TableAltRow
	style.Title.Colors = Theme.Title
	style.Title.Align = text.AlignCenter
	style.Options.DrawBorder = true
	style.Options.SeparateColumns = true
	style.Options.SeparateFooter = true
	style.Options.SeparateHeader = true
	style.Options.SeparateRows = false
	style.Box.PaddingLeft = " "
	style.Box.PaddingRight = " "
	t.SetStyle(style)

	return t
}

// PrintTable prints a table with headers and rows
func PrintTable(headers []string, rows [][]string, options ...TableOptions) {
	opts := DefaultTableOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	t := CreateTable(opts)
	t.AppendHeader(toRow(headers))
	for _, r := range rows {
		t.AppendRow(toRow(r))
	}
	if len(opts.Footer) > 0 {
		t.AppendFooter(toRow(opts.Footer))
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignCenter,
		})
	}
	t.SetColumnConfigs(configs)

	t.Render()
}

func toRow(cells []string) table.Row {
	row := make(table.Row, 0, len(cells))
	for _, c := range cells {
		row = append(row, c)
	}
	return row
}

// CreateProgressTracker creates a progress tracker for a single task
func CreateProgressTracker(message string, totalUnits int64) *progress.Tracker {
	return &progress.Tracker{
		Message: message,
		Total:   totalUnits,
		Units:   progress.UnitsDefault,
	}
}

// CreateProgressWriter creates a progress writer rendering to stderr
func CreateProgressWriter() progress.Writer {
	pw := progress.NewWriter()
	pw.SetAutoStop(false)
	pw.SetTrackerLength(25)
	pw.SetMessageLength(40)
	pw.SetNumTrackersExpected(1)
	pw.SetSortBy(progress.SortByPercentDsc)
	pw.SetStyle(progress.StyleDefault)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.SetUpdateFrequency(time.Millisecond * 100)
	pw.Style().Colors.Message = Theme.Info
	pw.Style().Colors.Percent = Theme.Badge
	pw.Style().Colors.Time = Theme.Subtle
	pw.Style().Colors.Value = Theme.Success
	pw.Style().Options.PercentFormat = " %.1f%%"
	pw.SetOutputWriter(os.Stderr)
	return pw
}
