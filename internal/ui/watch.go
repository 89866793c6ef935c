package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/events"
)

// DefaultWatchHistory is how many events the watch view keeps on screen.
const DefaultWatchHistory = 20

// ConnectFunc opens the event source. It runs in a tea.Cmd so the spinner
// keeps turning while it blocks.
type ConnectFunc func() (<-chan events.Event, error)

type connectedMsg struct {
	events <-chan events.Event
	err    error
}

type eventMsg events.Event

type streamEndedMsg struct{}

// WatchModel is a Bubble Tea model that connects to an event stream and
// scrolls incoming events until q is pressed or the stream ends.
type WatchModel struct {
	title   string
	connect ConnectFunc
	spinner spinner.Model

	events    <-chan events.Event
	history   []events.Event
	max       int
	received  int
	connected bool
	err       error
	width     int
}

func NewWatchModel(title string, connect ConnectFunc) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = HeaderTitleStyle.UnsetPaddingLeft().Foreground(PrimaryColor)
	return WatchModel{
		title:   title,
		connect: connect,
		spinner: s,
		max:     DefaultWatchHistory,
		width:   GetTerminalWidth(),
	}
}

// Err returns the connection error, if any, after the program exits.
func (m WatchModel) Err() error { return m.err }

// Received returns the total number of events seen.
func (m WatchModel) Received() int { return m.received }

func (m WatchModel) Init() tea.Cmd {
	connect := m.connect
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ch, err := connect()
		return connectedMsg{events: ch, err: err}
	})
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamEndedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = min(max(msg.Width, MinTerminalWidth), MaxContentWidth)

	case connectedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.connected = true
		m.events = msg.events
		return m, waitForEvent(m.events)

	case eventMsg:
		m.received++
		m.history = append(m.history, events.Event(msg))
		if len(m.history) > m.max {
			m.history = m.history[len(m.history)-m.max:]
		}
		return m, waitForEvent(m.events)

	case streamEndedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		if m.connected {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder
	b.WriteString(HeaderTitleStyle.Render(strings.ToUpper(m.title)))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(ErrorMessageStyle.Render("  " + FailureMarker + " " + api.ShortErrorMessage(m.err)))
		b.WriteString("\n")
		return b.String()
	case !m.connected:
		b.WriteString("  " + m.spinner.View() + " Connecting to the event stream...\n")
		return b.String()
	}

	if len(m.history) == 0 {
		b.WriteString(MutedStyle.Render("  Waiting for events..."))
		b.WriteString("\n")
	}
	for _, ev := range m.history {
		b.WriteString(FormatEvent(ev, m.width))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render(fmt.Sprintf("  %d events received  ·  q to quit", m.received)))
	b.WriteString("\n")
	return b.String()
}

// FormatEvent renders one event line, truncating the payload to width.
func FormatEvent(ev events.Event, width int) string {
	ts := MutedStyle.Render(ev.ReceivedAt.Format("15:04:05"))
	kind := EventTypeStyle.Render(ev.Type)
	ids := "id=" + strconv.Itoa(ev.ID)
	if ev.InstallationID != 0 {
		ids += " installation=" + strconv.Itoa(ev.InstallationID)
	}
	payload := string(ev.Status())
	if payload == "" {
		payload = string(ev.Data)
	}
	line := "  " + ts + "  " + kind + "  " + ids
	if payload != "" {
		room := width - len(ev.Type) - len(ids) - 20
		if room > 3 && len(payload) > room {
			payload = payload[:room-3] + "..."
		}
		line += "  " + MutedStyle.Render(payload)
	}
	return line
}

// RunWatch runs the model full screen and returns the connection error, if any.
func RunWatch(m WatchModel) (WatchModel, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return m, fmt.Errorf("run watch view: %w", err)
	}
	fm, _ := final.(WatchModel)
	return fm, fm.Err()
}
