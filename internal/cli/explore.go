package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/energyatlas/pkg/app"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/hierarchy"
	"github.com/matzehuels/energyatlas/pkg/scene"
	"github.com/matzehuels/energyatlas/pkg/view"
)

var (
	exploreKeyStyle    = lipgloss.NewStyle().Foreground(colorGray)
	exploreCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	explorePlayStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	exploreErrStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		metric string
		year   int
		out    string
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Explore the atlas from the terminal",
		Long: `Drive one interactive session from the terminal.

Keys: ←/→ year, m metric, v view, +/- top-N, space play/pause,
↑/↓ and enter open a country's drill-down, esc close it,
s write an SVG snapshot, q quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runExplore(ctx, metric, year, out)
		},
	}

	cmd.Flags().StringVarP(&metric, "metric", "m", "", "initial metric")
	cmd.Flags().IntVar(&year, "year", 0, "initial year")
	cmd.Flags().StringVarP(&out, "output", "o", ".", "snapshot directory")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, metric string, year int, out string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Loading datasets...")
	spinner.Start()
	a, err := runner.NewApp(ctx, app.Options{Metric: metric, Year: year})
	spinner.Stop()
	if err != nil {
		return err
	}
	defer a.Close()

	model := NewExploreModel(a, out)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	unsubscribe := a.Subscribe(func(ev app.Event) { p.Send(eventMsg(ev)) })
	defer unsubscribe()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(ExploreModel); ok && m.LastSnapshot != "" {
		printSuccess("Last snapshot")
		printFile(m.LastSnapshot)
	}
	return nil
}

// =============================================================================
// ExploreModel - Terminal session
// =============================================================================

// eventMsg carries an app event into the bubbletea loop.
type eventMsg app.Event

// rankRow is one country of the current ranking.
type rankRow struct {
	Country   string
	Continent string
	Value     float64
}

// ExploreModel is the bubbletea model driving an App.
type ExploreModel struct {
	App          *app.App
	State        app.State
	Ranking      []rankRow
	Cursor       int
	Status       string
	Err          error
	SnapshotDir  string
	LastSnapshot string
}

// NewExploreModel creates a model for a.
func NewExploreModel(a *app.App, snapshotDir string) ExploreModel {
	m := ExploreModel{App: a, SnapshotDir: snapshotDir}
	m.refresh()
	return m
}

func (m *ExploreModel) refresh() {
	m.State = m.App.State()
	m.Ranking = ranking(m.App.Hierarchy())
	if m.Cursor >= len(m.Ranking) {
		m.Cursor = max(0, len(m.Ranking)-1)
	}
}

// ranking flattens the treemap hierarchy into its ranked leaves.
func ranking(root *hierarchy.Node) []rankRow {
	if root == nil {
		return nil
	}
	var rows []rankRow
	for _, continent := range root.Children {
		for _, leaf := range continent.Leaves() {
			rows = append(rows, rankRow{Country: leaf.Name, Continent: continent.Name, Value: leaf.Sum()})
		}
	}
	slices.SortStableFunc(rows, func(a, b rankRow) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		}
		return 0
	})
	return rows
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case eventMsg:
		m.refresh()
		switch msg.Kind {
		case app.EventDetail:
			m.Status = fmt.Sprintf("%s: %s", msg.Country, msg.Detail)
		case app.EventPlayback:
			if !msg.Playing {
				m.Status = "playback finished"
			}
		}
		m.takeNotice(msg.Output)
	}
	return m, nil
}

func (m ExploreModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.Err = nil
	var (
		out app.Output
		err error
	)
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		out, err = m.App.SetYear(m.State.Year - 1)
	case "right", "l":
		out, err = m.App.SetYear(m.State.Year + 1)
	case "m":
		out, err = m.App.SetMetric(nextMetric(m.App.Metrics(), m.State.Metric))
	case "v":
		out, err = m.App.SwitchView(m.State.Mode.Next())
	case "+", "=":
		out, err = m.App.SetTopN(m.State.TopN + 1)
	case "-":
		if m.State.TopN > 1 {
			out, err = m.App.SetTopN(m.State.TopN - 1)
		}
	case " ":
		_, err = m.App.TogglePlay()
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Ranking)-1 {
			m.Cursor++
		}
	case "enter":
		if len(m.Ranking) > 0 {
			country := m.Ranking[m.Cursor].Country
			out, err = m.App.SelectCountry(country)
			m.Status = country + ": loading"
		}
	case "esc":
		out = m.App.DismissDetail()
		m.Status = ""
	case "s":
		err = m.snapshot()
	}
	m.Err = err
	m.refresh()
	m.takeNotice(out)
	return m, nil
}

// takeNotice surfaces notifications and reload prompts as the status line.
func (m *ExploreModel) takeNotice(out app.Output) {
	for _, in := range out.Instructions {
		if in.Text != "" && (in.Op == scene.OpNotify || in.Op == scene.OpReloadPrompt) {
			m.Status = in.Text
		}
	}
}

// snapshot writes the current frame as SVG. An open drill-down panel is
// written instead of the map.
func (m *ExploreModel) snapshot() error {
	data := m.App.SVG(false)
	name := fmt.Sprintf("%s-%d-%s.svg", slug(m.State.Metric), m.State.Year, m.State.Mode)
	if m.State.Detail == app.DetailReady {
		svg, err := m.App.DetailSVG(false)
		if err != nil {
			return err
		}
		data = svg
		name = fmt.Sprintf("%s-%d-%s.svg", slug(m.State.Metric), m.State.Year, slug(m.State.Country))
	}
	if err := os.MkdirAll(m.SnapshotDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(m.SnapshotDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	m.LastSnapshot = path
	m.Status = "wrote " + path
	return nil
}

func nextMetric(keys []string, current string) string {
	i := slices.Index(keys, current)
	return keys[(i+1)%len(keys)]
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Energy Atlas"))
	b.WriteString("  ")
	b.WriteString(StyleHighlight.Render(m.State.Metric))
	b.WriteString(" ")
	b.WriteString(StyleNumber.Render(strconv.Itoa(m.State.Year)))
	b.WriteString(StyleDim.Render(fmt.Sprintf(" [%d-%d]", m.State.WindowStart, m.State.WindowEnd)))
	b.WriteString("  ")
	b.WriteString(StyleValue.Render(viewLabel(m.State.Mode)))
	if m.State.Playing {
		b.WriteString("  ")
		b.WriteString(explorePlayStyle.Render("▶ playing"))
	}
	b.WriteString("\n")
	b.WriteString(exploreKeyStyle.Render("←/→ year  m metric  v view  +/- top  space play  ⏎ detail  esc close  s snapshot  q quit"))
	b.WriteString("\n\n")

	rows := make([][]string, len(m.Ranking))
	for i, r := range m.Ranking {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows[i] = []string{cursor, strconv.Itoa(i + 1), r.Country, r.Continent, formatValue(r.Value)}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Country", "Continent", m.State.Metric).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			}
			if row == m.Cursor {
				return exploreCursorStyle
			}
			return StyleValue
		})
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("top %d", m.State.TopN)))

	if m.Status != "" {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render(m.Status))
	}
	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(exploreErrStyle.Render(iconError + " " + apperrors.UserMessage(m.Err)))
	}
	return b.String()
}

func viewLabel(m view.Mode) string {
	switch m {
	case view.Globe:
		return "globe"
	case view.Treemap:
		return "treemap"
	}
	return "flat map"
}

// formatValue shortens large values to k/M/B suffixes.
func formatValue(v float64) string {
	switch {
	case v >= 1e9:
		return strconv.FormatFloat(v/1e9, 'f', 1, 64) + "B"
	case v >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case v >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 1, 64) + "k"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
