// Package viewer provides the Bubble Tea statistics map viewer.
package viewer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/sramscan/internal/analyze"
	"github.com/verte-zerg/sramscan/internal/heatmap"
	"github.com/verte-zerg/sramscan/internal/model"
	"github.com/verte-zerg/sramscan/internal/store"
)

const (
	tabProbability = iota
	tabEntropy
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea map viewer over cached statistics.
type Model struct {
	store    *store.Store
	mapWidth int

	devices []model.CachedDevice
	table   table.Model

	tabs      []string
	activeTab int
	viewport  viewport.Model

	opened  string
	stats   model.BitStatistics
	showMap bool
	errMsg  string
	width   int
	height  int
}

// NewModel constructs a viewer model. mapWidth is the bitmap row width used
// to fold the 1-D statistic arrays into a 2-D map.
func NewModel(st *store.Store, mapWidth int) *Model {
	m := &Model{
		store:    st,
		mapWidth: mapWidth,
		tabs:     []string{"Probability", "Entropy"},
	}
	m.initTable()
	m.viewport = viewport.New(0, 0)
	m.refreshDevices()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) initTable() {
	columns := []table.Column{
		{Title: "Device", Width: 24},
		{Title: "Bits", Width: 10},
		{Title: "Dumps", Width: 8},
		{Title: "Updated", Width: 20},
	}
	m.table = table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
	)
}

func (m *Model) refreshDevices() {
	devices, err := m.store.List(context.Background())
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to list devices: %v", err)
		return
	}
	m.devices = devices
	rows := make([]table.Row, 0, len(devices))
	for _, dev := range devices {
		rows = append(rows, table.Row{
			dev.Name,
			strconv.Itoa(dev.MemoryBits),
			strconv.Itoa(dev.TotalDumps),
			dev.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	m.table.SetRows(rows)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(maxInt(m.height-6, 3))
		m.viewport.Width = m.width
		m.viewport.Height = maxInt(m.height-5, 3)
		if m.showMap {
			m.renderMap()
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			if m.showMap {
				m.activeTab = (m.activeTab + 1) % len(m.tabs)
				m.renderMap()
			}
			return m, nil
		case "enter":
			if !m.showMap {
				m.openSelected()
			}
			return m, nil
		case "esc":
			if m.showMap {
				m.showMap = false
				m.errMsg = ""
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.showMap {
		m.viewport, cmd = m.viewport.Update(msg)
	} else {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

func (m *Model) openSelected() {
	row := m.table.SelectedRow()
	if row == nil {
		return
	}
	name := row[0]
	stats, err := analyze.Statistics(context.Background(), m.store, name)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load statistics: %v", err)
		return
	}
	m.opened = name
	m.stats = stats
	m.showMap = true
	m.errMsg = ""
	m.renderMap()
}

func (m *Model) renderMap() {
	values := m.stats.Probability
	if m.activeTab == tabEntropy {
		values = m.stats.Entropy
	}
	width := m.mapWidth
	if width <= 0 || len(values)%width != 0 {
		m.errMsg = fmt.Sprintf("map width %d does not divide %d bits", width, len(values))
		m.viewport.SetContent("")
		return
	}
	content, err := heatmap.Render(values, width, len(values)/width, m.viewport.Width)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to render map: %v", err)
		m.viewport.SetContent("")
		return
	}
	m.errMsg = ""
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	var body string
	var header string
	var footer string
	if m.showMap {
		header = m.renderTabs() + "\n" + titleStyle.Render(m.opened)
		body = m.viewport.View()
		footer = "tab: statistic · ↑/↓: scroll · esc: back · q: quit"
	} else {
		header = titleStyle.Render("Cached devices")
		body = m.table.View()
		footer = "enter: open map · ↑/↓: select · q: quit"
	}
	if m.errMsg != "" {
		footer = errorStyle.Render(m.errMsg)
	}
	footer = footerStyle.Render(runewidth.Truncate(footer, maxInt(m.width, 1), "…"))
	return header + "\n" + body + "\n" + footer
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		style := inactiveNavStyle
		if i == m.activeTab {
			style = activeNavStyle
		}
		parts = append(parts, style.Render(tab))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
