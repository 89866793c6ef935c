package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/evilb/openmotics/internal/discovery"
)

// ScanFunc runs one discovery pass.
type ScanFunc func() ([]*discovery.Gateway, error)

type scanStartMsg struct{}

type scanCompleteMsg struct {
	gateways []*discovery.Gateway
	err      error
}

type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Rescan, k.Manual, k.Quit}
}

func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Select}, {k.Rescan, k.Manual, k.Quit}}
}

type manualKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

func (k manualKeyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Confirm, k.Cancel} }
func (k manualKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// gatewayItem adapts a gateway to list.Item.
type gatewayItem struct {
	gw *discovery.Gateway
}

func (i gatewayItem) FilterValue() string {
	return i.gw.Name + " " + i.gw.IP + " " + i.gw.Hostname
}

func (i gatewayItem) Title() string { return i.gw.Name }

func (i gatewayItem) Description() string {
	d := i.gw.BaseURL()
	if v := i.gw.GetMetadata("version"); v != "" {
		d += " • firmware " + v
	}
	return d
}

// GatewayPicker scans for gateways and lets the user pick one, or type a
// host by hand.
type GatewayPicker struct {
	scan    ScanFunc
	timeout time.Duration

	scanning bool
	started  time.Time
	list     list.Model
	manual   bool
	input    textinput.Model
	selected *discovery.Gateway
	err      error

	width   int
	height  int
	spinner spinner.Model
	bar     progress.Model
	help    help.Model
	keys    pickerKeyMap
	mkeys   manualKeyMap
}

// NewGatewayPicker returns a picker; timeout only drives the progress bar.
func NewGatewayPicker(scan ScanFunc, timeout time.Duration) GatewayPicker {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	in := textinput.New()
	in.Placeholder = "192.168.0.10"
	in.CharLimit = 253
	in.Width = 30

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "OpenMotics gateways"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.Styles.Title = HeaderTitleStyle.Foreground(PrimaryColor)

	return GatewayPicker{
		scan:    scan,
		timeout: timeout,
		list:    l,
		input:   in,
		spinner: s,
		bar:     bar,
		help:    help.New(),
		width:   GetTerminalWidth(),
		keys: pickerKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
			Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "enter host")),
			Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		},
		mkeys: manualKeyMap{
			Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
			Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		},
	}
}

// Selected returns the chosen gateway, or nil when the user quit.
func (m GatewayPicker) Selected() *discovery.Gateway { return m.selected }

// Err returns the last scan error.
func (m GatewayPicker) Err() error { return m.err }

func (m GatewayPicker) scanCmd() tea.Cmd {
	scan := m.scan
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		func() tea.Msg {
			gws, err := scan()
			return scanCompleteMsg{gateways: gws, err: err}
		},
		m.spinner.Tick,
	)
}

func (m GatewayPicker) Init() tea.Cmd { return m.scanCmd() }

func (m GatewayPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.manual {
			return m.updateManual(msg)
		}
		return m.updateList(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, max(msg.Height-6, 5))

	case scanStartMsg:
		m.scanning = true
		m.started = time.Now()

	case scanCompleteMsg:
		m.scanning = false
		m.err = msg.err
		items := make([]list.Item, len(msg.gateways))
		for i, gw := range msg.gateways {
			items[i] = gatewayItem{gw: gw}
		}
		cmd = m.list.SetItems(items)
		return m, cmd

	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if !m.manual && !m.scanning {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m GatewayPicker) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case m.scanning:
		if key.Matches(msg, m.keys.Manual) {
			m.manual = true
			m.input.Focus()
		}
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if it, ok := m.list.SelectedItem().(gatewayItem); ok {
			m.selected = it.gw
			return m, tea.Quit
		}
		return m, nil
	case key.Matches(msg, m.keys.Rescan):
		m.err = nil
		return m, tea.Batch(m.list.SetItems(nil), m.scanCmd())
	case key.Matches(msg, m.keys.Manual):
		m.manual = true
		m.input.SetValue("")
		m.input.Focus()
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m GatewayPicker) updateManual(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.mkeys.Cancel):
		m.manual = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.mkeys.Confirm):
		host := strings.TrimSpace(m.input.Value())
		if host == "" {
			return m, nil
		}
		m.selected = &discovery.Gateway{
			Name:         host,
			Hostname:     host,
			IP:           host,
			Port:         discovery.DefaultPort,
			DiscoveredAt: time.Now(),
		}
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m GatewayPicker) View() string {
	var content, helpText string
	switch {
	case m.manual:
		content = HeaderTitleStyle.Render("Gateway host or IP") + "\n\n  " + m.input.View() + "\n"
		helpText = m.help.View(m.mkeys)
	case m.scanning:
		content = m.renderScanning()
		helpText = m.help.View(pickerKeyMap{Manual: m.keys.Manual, Quit: m.keys.Quit})
	default:
		content = m.renderResults()
		helpText = m.help.View(m.keys)
	}
	return content + "\n" + lipgloss.NewStyle().PaddingLeft(2).Render(helpText) + "\n"
}

func (m GatewayPicker) renderScanning() string {
	elapsed := time.Since(m.started)
	pct := 0.0
	if m.timeout > 0 {
		pct = min(1, elapsed.Seconds()/m.timeout.Seconds())
	}
	body := lipgloss.JoinVertical(lipgloss.Center,
		"",
		HeaderTitleStyle.Render(m.spinner.View()+" SEARCHING FOR GATEWAYS"),
		"",
		MutedStyle.Render("Browsing mDNS on the local network..."),
		"",
		m.bar.ViewAs(pct),
		"",
	)
	return lipgloss.Place(m.width, 0, lipgloss.Center, lipgloss.Top, body)
}

func (m GatewayPicker) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(ErrorMessageStyle.Render(fmt.Sprintf("  %s Scan failed: %v", FailureMarker, m.err)))
		b.WriteString("\n\n")
		b.WriteString(MutedStyle.Render("  Press r to rescan or m to enter a host."))
		b.WriteString("\n")
	case len(m.list.Items()) == 0:
		b.WriteString(lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("  ⚠ No gateways found"))
		b.WriteString("\n\n")
		b.WriteString(TroubleshootingItemStyle.Render("  • Check that multicast (UDP 5353) is allowed\n  • Make sure you are on the gateway's network\n  • Press m to enter the host by hand"))
		b.WriteString("\n")
	default:
		b.WriteString(m.list.View())
	}
	return b.String()
}

// RunGatewayPicker runs the picker and returns the chosen gateway, or nil
// when the user quit.
func RunGatewayPicker(m GatewayPicker) (*discovery.Gateway, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, fmt.Errorf("run gateway picker: %w", err)
	}
	fm, _ := final.(GatewayPicker)
	return fm.Selected(), nil
}
