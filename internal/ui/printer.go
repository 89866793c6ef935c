package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/evilb/openmotics/internal/api"
)

// Printer writes UI components to a writer.
type Printer struct {
	out   io.Writer
	width int
	json  bool
}

// NewPrinter creates a Printer writing to w, or os.Stdout when w is nil.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// SetJSON switches structured output to indented JSON.
func (p *Printer) SetJSON(on bool) *Printer {
	p.json = on
	return p
}

// JSON reports whether JSON output is selected.
func (p *Printer) JSON() bool { return p.json }

// SetWidth overrides the detected terminal width.
func (p *Printer) SetWidth(width int) *Printer {
	p.width = max(width, MinTerminalWidth)
	return p
}

func (p *Printer) Width() int { return p.width }

func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintJSON writes v as indented JSON.
func (p *Printer) PrintJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	p.Println(string(data))
	return nil
}

// PrintTable renders rows under headers, or v as JSON in JSON mode.
func (p *Printer) PrintTable(v any, headers []string, rows [][]string) error {
	if p.json {
		return p.PrintJSON(v)
	}
	if len(rows) == 0 {
		p.Println(MutedStyle.Render("  (none)"))
		return nil
	}
	p.Println(RenderTable(headers, rows))
	return nil
}

// PrintHeader prints a command header box.
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	if p.json {
		return
	}
	p.Println(RenderHeader(title, command, params, p.width))
}

// PrintSuccess prints a success box, or the details as JSON.
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	if p.json {
		_ = p.PrintJSON(map[string]any{"result": "ok", "message": title, "details": details})
		return
	}
	p.Println(RenderSuccessBox(title, details, p.width))
}

// PrintError prints a failure box with troubleshooting tips derived from err.
func (p *Printer) PrintError(title string, err error) {
	if p.json {
		_ = p.PrintJSON(map[string]any{"result": "error", "message": title, "error": api.ShortErrorMessage(err)})
		return
	}
	p.Println(RenderErrorBox(title, err, Troubleshooting(err), p.width))
}

// RenderTable draws a rounded table with styled headers.
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(MutedColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	return t.Render()
}

// RenderHeader renders a command header box. Params are listed in key order.
func RenderHeader(title, command string, params map[string]string, width int) string {
	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(title)),
		labelStyle.Render(command))
	if len(params) == 0 {
		return headerBox(width).Render(top)
	}

	var lines []string
	for _, k := range sortedKeys(params) {
		lines = append(lines, labelStyle.Render(k+":")+" "+valueStyle.Render(params[k]))
	}
	rule := divider(max(width-6, 10))
	content := lipgloss.JoinVertical(lipgloss.Left, top, rule, strings.Join(lines, "\n"))
	return headerBox(width).Render(content)
}

func RenderSuccessBox(title string, details map[string]string, width int) string {
	lines := []string{"", SuccessTitleStyle.Render(SuccessMarker + "  " + title), ""}
	for _, k := range sortedKeys(details) {
		lines = append(lines, detailKeyStyle.Render(k+":")+" "+valueStyle.Render(details[k]))
	}
	if len(details) > 0 {
		lines = append(lines, "")
	}
	return successBox(width).Render(strings.Join(lines, "\n"))
}

func RenderErrorBox(title string, err error, troubleshooting []string, width int) string {
	lines := []string{"", ErrorTitleStyle.Render(FailureMarker + "  FAILED  ─  " + title), ""}
	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("Error: "+api.ShortErrorMessage(err)), "")
	}
	if len(troubleshooting) > 0 {
		tl := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
		for _, tip := range troubleshooting {
			tl = append(tl, TroubleshootingItemStyle.Render("• "+tip))
		}
		lines = append(lines, tipsBox(width).Render(strings.Join(tl, "\n")), "")
	}
	return errorBox(width).Render(strings.Join(lines, "\n"))
}

// Troubleshooting extracts the bullet points of api.TroubleshootingHint.
// Hints without bullets are returned as a single tip.
func Troubleshooting(err error) []string {
	if err == nil {
		return nil
	}
	hint := api.TroubleshootingHint(err)
	var tips []string
	for _, line := range strings.Split(hint, "\n") {
		if tip, ok := strings.CutPrefix(strings.TrimSpace(line), "• "); ok {
			tips = append(tips, tip)
		}
	}
	if len(tips) == 0 && hint != "" {
		tips = []string{hint}
	}
	return tips
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
