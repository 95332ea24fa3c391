// Package tui implements the interactive terminal surfaces of gloski: the
// live stats dashboard, the host add/remove forms, and the provisioning
// wizard. Views are Bubbletea models composed from the render helpers in
// the components package.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gloski/cli/internal/api"
	"github.com/gloski/cli/internal/profile"
	"github.com/gloski/cli/internal/session"
	"github.com/gloski/cli/internal/statstream"
	"github.com/gloski/cli/internal/tui/components"
	"github.com/gloski/cli/internal/tui/styles"
	"github.com/gloski/cli/internal/util"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// dashTickInterval drives the once-a-second housekeeping tick. Package
// variable so tests can shorten it.
var dashTickInterval = time.Second

const (
	// procsRefreshTicks is how many ticks pass between process table
	// refreshes while the process view is visible.
	procsRefreshTicks = 3

	// procsLimit caps how many processes are requested per refresh.
	procsLimit = 50

	// netHistory caps the retained network throughput samples.
	netHistory = 120

	sparkHeight = 4
)

// --- Messages ---

// statsMsg carries one live reading from the stats channel into the
// Bubbletea loop.
type statsMsg statstream.Update

type procsLoadedMsg struct {
	procs []api.ProcessInfo
	err   error
}

type dashTickMsg struct{}

// --- Views ---

type dashView int

const (
	dashViewStats dashView = iota
	dashViewProcs
)

// --- Model ---

// dashboardModel renders a host's live system stats. The overview shows
// CPU and memory sparklines, a network throughput chart, and the load
// averages; tab switches to a sortable process table. The stream's
// connection state is always visible in the header.
type dashboardModel struct {
	client *api.Client
	prof   *profile.Profile
	ch     *statstream.Channel

	view dashView

	snap  *api.StatsSnapshot
	state statstream.State

	cpu *components.Sparkline
	mem *components.Sparkline
	rx  []float64
	tx  []float64

	procs       table.Model
	procsLoaded bool

	spinner spinner.Model
	ticks   int

	status  string
	isError bool

	width  int
	height int
}

func newDashboardModel(client *api.Client, prof *profile.Profile, ch *statstream.Channel) dashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	cpu := components.NewSparkline(60, sparkHeight, lipgloss.NewStyle().Foreground(styles.Blue))
	cpu.SetMax(100)
	mem := components.NewSparkline(60, sparkHeight, lipgloss.NewStyle().Foreground(styles.Green))
	mem.SetMax(100)

	return dashboardModel{
		client:  client,
		prof:    prof,
		ch:      ch,
		view:    dashViewStats,
		state:   ch.State(),
		cpu:     cpu,
		mem:     mem,
		procs:   newProcsTable(),
		spinner: s,
	}
}

func newProcsTable() table.Model {
	t := table.New(
		table.WithColumns(procsColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	ts := table.DefaultStyles()
	ts.Header = styles.TableHeader
	ts.Cell = styles.TableCell
	ts.Selected = styles.TableSelectedRow
	t.SetStyles(ts)

	return t
}

// procsColumns sizes the fixed columns and gives the command column the
// remaining width.
func procsColumns(width int) []table.Column {
	const fixed = 7 + 10 + 18 + 7 + 7 + 10
	cmdWidth := max(width-fixed-14, 12)

	return []table.Column{
		{Title: "PID", Width: 7},
		{Title: "USER", Width: 10},
		{Title: "NAME", Width: 18},
		{Title: "CPU%", Width: 7},
		{Title: "MEM%", Width: 7},
		{Title: "RSS", Width: 10},
		{Title: "COMMAND", Width: cmdWidth},
	}
}

// --- Entry point ---

// RunDashboard opens the live stats dashboard for one host. It subscribes
// to the manager's stats channel for the profile, connects it, and keeps
// the screen updated until the user quits. The channel's reconnect loop
// keeps running underneath; the dashboard only observes it.
func RunDashboard(sessions *session.Manager, prof *profile.Profile, client *api.Client) error {
	ch := sessions.Stream(prof)

	m := newDashboardModel(client, prof, ch)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Subscribers run on the channel's reader goroutine, so hand each
	// update straight to the program and return.
	cancel := ch.Subscribe(func(u statstream.Update) {
		p.Send(statsMsg(u))
	})
	defer cancel()

	ch.Connect(client.StatsSocketURL(), nil)
	defer ch.Disconnect()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

// --- Model implementation ---

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, scheduleDashTick())
}

func scheduleDashTick() tea.Cmd {
	return tea.Tick(dashTickInterval, func(_ time.Time) tea.Msg {
		return dashTickMsg{}
	})
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case statsMsg:
		return m.applyStats(statstream.Update(msg)), nil

	case dashTickMsg:
		return m.handleTick()

	case procsLoadedMsg:
		return m.applyProcs(msg), nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m dashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.view == dashViewStats {
			m.view = dashViewProcs
			m.status = ""
			if !m.procsLoaded {
				return m, m.fetchProcesses()
			}
			return m, nil
		}
		m.view = dashViewStats
		m.status = ""
		return m, nil
	}

	// Remaining keys drive the process table (cursor movement).
	if m.view == dashViewProcs {
		var cmd tea.Cmd
		m.procs, cmd = m.procs.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applyStats folds one live reading into the chart histories.
func (m dashboardModel) applyStats(u statstream.Update) dashboardModel {
	snap := u.Snapshot
	m.snap = &snap

	m.cpu.Push(snap.CPU.Percent)
	m.mem.Push(snap.Memory.Percent)

	m.rx = appendCapped(m.rx, snap.Network.RxSpeed, netHistory)
	m.tx = appendCapped(m.tx, snap.Network.TxSpeed, netHistory)

	return m
}

func appendCapped(data []float64, v float64, capLen int) []float64 {
	data = append(data, v)
	if len(data) > capLen {
		data = data[1:]
	}
	return data
}

func (m dashboardModel) handleTick() (tea.Model, tea.Cmd) {
	m.ticks++
	m.state = m.ch.State()

	cmds := []tea.Cmd{scheduleDashTick()}
	if m.view == dashViewProcs && m.ticks%procsRefreshTicks == 0 {
		cmds = append(cmds, m.fetchProcesses())
	}
	return m, tea.Batch(cmds...)
}

func (m dashboardModel) fetchProcesses() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		procs, err := client.System.Processes(context.Background(), procsLimit)
		return procsLoadedMsg{procs: procs, err: err}
	}
}

func (m dashboardModel) applyProcs(msg procsLoadedMsg) dashboardModel {
	if msg.err != nil {
		m.status = "process list: " + msg.err.Error()
		m.isError = true
		return m
	}

	m.status = ""
	m.isError = false
	m.procsLoaded = true

	rows := make([]table.Row, len(msg.procs))
	for i, p := range msg.procs {
		rows[i] = table.Row{
			fmt.Sprintf("%d", p.PID),
			p.User,
			p.Name,
			fmt.Sprintf("%.1f", p.CPUPercent),
			fmt.Sprintf("%.1f", p.MemPercent),
			humanize.IBytes(p.RSSBytes),
			p.Command,
		}
	}
	m.procs.SetRows(rows)
	return m
}

func (m *dashboardModel) resize() {
	inner := max(m.width-4, 20)
	m.cpu.Resize(inner, sparkHeight)
	m.mem.Resize(inner, sparkHeight)

	m.procs.SetColumns(procsColumns(m.width))
	m.procs.SetHeight(max(m.height-8, 5))
}

// --- View ---

func (m dashboardModel) View() string {
	header := components.Header(m.width, m.prof.Name, streamIndicator(m.state))

	var body string
	switch m.view {
	case dashViewProcs:
		body = m.procsView()
	default:
		body = m.statsView()
	}

	statusBar := components.StatusBar(m.width, m.status, m.isError)
	footer := components.Footer(m.width, m.footerBindings())

	sections := []string{header, body}
	if statusBar != "" {
		sections = append(sections, statusBar)
	}
	sections = append(sections, footer)

	view := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return padToHeight(view, m.width, m.height)
}

func (m dashboardModel) footerBindings() []components.KeyBinding {
	toggle := "processes"
	if m.view == dashViewProcs {
		toggle = "overview"
	}
	return []components.KeyBinding{
		{Key: "tab", Desc: toggle},
		{Key: "q", Desc: "quit"},
	}
}

func (m dashboardModel) statsView() string {
	frame := lipgloss.NewStyle().Padding(1, 2)

	if m.snap == nil {
		return frame.Render(m.spinner.View() + " Waiting for the first reading from " + m.prof.Name + "...")
	}

	snap := m.snap
	inner := max(m.width-4, 20)

	cpuCaption := fmt.Sprintf("%.1f%%  (%d cores)", snap.CPU.Percent, snap.CPU.Cores)
	cpuSection := lipgloss.JoinVertical(lipgloss.Left,
		styles.Label.Render("CPU")+"  "+styles.Value.Render(cpuCaption),
		m.cpu.View(),
	)

	memCaption := fmt.Sprintf("%.1f%%  (%s / %s)", snap.Memory.Percent,
		humanize.IBytes(snap.Memory.Used), humanize.IBytes(snap.Memory.Total))
	memSection := lipgloss.JoinVertical(lipgloss.Left,
		styles.Label.Render("Memory")+"  "+styles.Value.Render(memCaption),
		m.mem.View(),
	)

	netSection := components.DualChart("Network", m.rx, m.tx, "rx", "tx", inner, sparkHeight, "B/s")

	info := strings.Join([]string{
		styles.Label.Render("Load") + " " + styles.Value.Render(fmt.Sprintf("%.2f %.2f %.2f",
			snap.Load.Load1, snap.Load.Load5, snap.Load.Load15)),
		styles.Label.Render("Uptime") + " " + styles.Value.Render(util.FormatUptime(snap.Uptime)),
		styles.Label.Render("Procs") + " " + styles.Value.Render(fmt.Sprintf("%d", snap.Processes)),
		styles.Label.Render("Threads") + " " + styles.Value.Render(fmt.Sprintf("%d", snap.Threads)),
	}, styles.MutedText.Render("   "))

	return frame.Render(lipgloss.JoinVertical(lipgloss.Left,
		cpuSection, "", memSection, "", netSection, "", info))
}

func (m dashboardModel) procsView() string {
	frame := lipgloss.NewStyle().Padding(1, 2)

	if !m.procsLoaded {
		return frame.Render(m.spinner.View() + " Loading processes...")
	}
	return frame.Render(m.procs.View())
}

// streamIndicator renders the live stream's connection state as a colored
// dot for the header.
func streamIndicator(s statstream.State) string {
	switch s {
	case statstream.StateConnected:
		return styles.SuccessText.Render("● connected")
	case statstream.StateConnecting:
		return styles.WarningText.Render("● connecting")
	default:
		return styles.ErrorText.Render("● disconnected")
	}
}

// padToHeight pads the view to exactly height lines so Bubbletea's alt
// screen renderer repaints the full terminal. Without this, shrinking
// content leaves ghost lines from the prior frame.
func padToHeight(view string, width, height int) string {
	if height <= 0 {
		return view
	}
	lines := strings.Split(view, "\n")
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
