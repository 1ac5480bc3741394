package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/sahilm/fuzzy"

	"github.com/fleetops/ultragrid/internal/grid"
	"github.com/fleetops/ultragrid/internal/source"
)

// DataMsg replaces the displayed dataset.
type DataMsg struct {
	Records []grid.Record
}

// chrome is the number of lines around the data viewport: title,
// header, and status bar.
const chrome = 3

type styleSet struct {
	title  lipgloss.Style
	header lipgloss.Style
	status lipgloss.Style
	errLbl lipgloss.Style
}

func defaultStyles() styleSet {
	return styleSet{
		title:  lipgloss.NewStyle().Bold(true).Foreground(charmtone.Charple),
		header: lipgloss.NewStyle().Bold(true).Underline(true),
		status: lipgloss.NewStyle().Foreground(charmtone.Squid),
		errLbl: lipgloss.NewStyle().Foreground(charmtone.Cherry),
	}
}

// Model is the bubbletea model driving the grid view.
type Model struct {
	renderer  *grid.Renderer
	container *termContainer
	target    *termTarget
	sched     *teaScheduler

	title   string
	records []grid.Record
	filters grid.FilterSet

	mu       sync.Mutex
	columns  []string
	widths   []int
	lastView string

	filterInput textinput.Model
	searchInput textinput.Model
	filtering   bool
	searching   bool

	keys   KeyMap
	styles styleSet

	width  int
	height int

	scrollTick time.Duration

	// ReloadCmd is run when the user presses the reload key. The view
	// command wires it to the active source.
	ReloadCmd tea.Cmd
}

// New builds a grid view with the given renderer settings. The row
// height is forced to one terminal line.
func New(title string, cfg grid.Config) (*Model, error) {
	cfg.RowHeight = 1

	m := &Model{
		title:      title,
		container:  &termContainer{},
		target:     newTermTarget(),
		sched:      newTeaScheduler(),
		keys:       DefaultKeyMap(),
		styles:     defaultStyles(),
		scrollTick: cfg.ScrollThrottle + 10*time.Millisecond,
	}

	fi := textinput.New()
	fi.Prompt = "filter> "
	fi.Placeholder = "field=value ..."
	m.filterInput = fi

	si := textinput.New()
	si.Prompt = "search> "
	m.searchInput = si

	m.renderer = grid.New(
		grid.WithConfig(cfg),
		grid.WithScheduler(m.sched),
		grid.WithSurfaceFactory(newTermSurface),
		grid.WithPopulateFunc(m.populateRow),
	)
	if err := m.renderer.Attach(m.container, m.target); err != nil {
		return nil, err
	}
	return m, nil
}

// Scheduler exposes the deferred-work queue so the view command can
// wire its notify hook to the running program.
func (m *Model) Scheduler() *teaScheduler { return m.sched }

// Renderer exposes the underlying grid renderer.
func (m *Model) Renderer() *grid.Renderer { return m.renderer }

// SetRecords loads a dataset before the program starts.
func (m *Model) SetRecords(records []grid.Record) {
	m.records = records
	m.computeLayout(records)
	m.renderer.Load(records, m.filters)
}

// SetFilters applies an initial filter set.
func (m *Model) SetFilters(filters grid.FilterSet) {
	m.filters = filters
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.container.SetHeight(max(msg.Height-chrome, 1))
		m.renderer.Resize()
		return m, m.redrawLater()

	case FlushMsg:
		m.sched.Flush()
		return m, nil

	case DataMsg:
		m.records = msg.Records
		m.computeLayout(msg.Records)
		m.renderer.Load(msg.Records, m.filters)
		return m, nil

	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelUp:
			return m, m.scrollBy(-3)
		case tea.MouseWheelDown:
			return m, m.scrollBy(3)
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.filtering {
			return m.updateFilterInput(msg)
		}
		if m.searching {
			return m.updateSearchInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.renderer.Destroy()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		return m, m.scrollBy(-1)
	case key.Matches(msg, m.keys.Down):
		return m, m.scrollBy(1)
	case key.Matches(msg, m.keys.PageUp):
		return m, m.scrollBy(-m.container.Height())
	case key.Matches(msg, m.keys.PageDown):
		return m, m.scrollBy(m.container.Height())
	case key.Matches(msg, m.keys.Home):
		return m, m.scrollTo(0)
	case key.Matches(msg, m.keys.End):
		return m, m.scrollTo(m.maxScroll())
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filterInput.Focus()
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.searchInput.Focus()
	case key.Matches(msg, m.keys.Clear):
		if len(m.filters) > 0 {
			m.filters = nil
			m.renderer.UpdateFilters(nil)
		}
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		return m, m.ReloadCmd
	}
	return m, nil
}

func (m *Model) updateFilterInput(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
		m.filtering = false
		m.filterInput.Blur()
		m.filters = ParseFilterQuery(m.filterInput.Value())
		m.renderer.UpdateFilters(m.filters)
		return m, m.scrollTo(0)
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m *Model) updateSearchInput(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
		m.searching = false
		m.searchInput.Blur()
		if idx, ok := m.findRow(m.searchInput.Value()); ok {
			return m, m.scrollTo(idx)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) scrollBy(lines int) tea.Cmd {
	return m.scrollTo(m.container.ScrollOffset() + lines)
}

func (m *Model) scrollTo(offset int) tea.Cmd {
	offset = min(max(offset, 0), m.maxScroll())
	m.container.SetScrollOffset(offset)
	m.renderer.Scroll()
	return m.redrawLater()
}

// maxScroll keeps the last page of rows on screen.
func (m *Model) maxScroll() int {
	return max(m.renderer.FilteredLen()-m.container.Height(), 0)
}

// redrawLater forces a repaint after a throttled render's trailing
// edge has had a chance to run.
func (m *Model) redrawLater() tea.Cmd {
	return tea.Tick(m.scrollTick, func(time.Time) tea.Msg {
		return FlushMsg{}
	})
}

// findRow fuzzy-matches the query against visible row text and returns
// the best matching filtered row index.
func (m *Model) findRow(query string) (int, bool) {
	if query == "" {
		return 0, false
	}
	n := m.renderer.FilteredLen()
	haystack := make([]string, 0, n)
	for i := range n {
		rec, ok := m.renderer.Row(i)
		if !ok {
			break
		}
		var sb strings.Builder
		for _, f := range rec {
			sb.WriteString(grid.FormatValue(f.Value))
			sb.WriteByte(' ')
		}
		haystack = append(haystack, sb.String())
	}
	matches := fuzzy.Find(query, haystack)
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0].Index, true
}

// computeLayout derives column names and widths from the dataset.
func (m *Model) computeLayout(records []grid.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.columns = nil
	m.widths = nil
	if len(records) == 0 {
		return
	}
	m.columns = records[0].Names()
	m.widths = make([]int, len(m.columns))
	for i, name := range m.columns {
		m.widths[i] = len(name)
	}
	// Sample the head of the dataset; scanning millions of rows for
	// exact widths is not worth the load time.
	limit := min(len(records), 200)
	for _, rec := range records[:limit] {
		for i := range m.columns {
			if i >= len(rec) {
				break
			}
			w := ansi.StringWidth(grid.FormatValue(rec[i].Value))
			if w > m.widths[i] {
				m.widths[i] = w
			}
		}
	}
}

// populateRow formats a record into an aligned single-line row.
func (m *Model) populateRow(s grid.Surface, rec grid.Record, index int) {
	m.mu.Lock()
	widths := m.widths
	m.mu.Unlock()

	var sb strings.Builder
	for i, f := range rec {
		w := 0
		if i < len(widths) {
			w = widths[i]
		}
		cell := grid.FormatValue(f.Value)
		if pad := w - ansi.StringWidth(cell); pad > 0 {
			cell += strings.Repeat(" ", pad)
		}
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(cell)
	}
	s.SetContent(sb.String())
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	var sb strings.Builder

	start, end := m.renderer.Window()
	filtered := m.renderer.FilteredLen()

	title := fmt.Sprintf("%s — %d rows", m.title, filtered)
	if filtered != len(m.records) {
		title = fmt.Sprintf("%s — %d of %d rows", m.title, filtered, len(m.records))
	}
	sb.WriteString(m.styles.title.Render(ansi.Truncate(title, m.width, "…")))
	sb.WriteByte('\n')
	sb.WriteString(m.styles.header.Render(ansi.Truncate(m.headerLine(), m.width, "…")))
	sb.WriteByte('\n')

	viewHeight := max(m.height-chrome, 1)
	for _, line := range m.target.Lines(viewHeight) {
		sb.WriteString(ansi.Truncate(line, m.width, "…"))
		sb.WriteByte('\n')
	}

	sb.WriteString(m.statusLine(start, end))
	return sb.String()
}

func (m *Model) headerLine() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sb strings.Builder
	for i, name := range m.columns {
		cell := name
		if pad := m.widths[i] - len(name); pad > 0 {
			cell += strings.Repeat(" ", pad)
		}
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(cell)
	}
	return sb.String()
}

func (m *Model) statusLine(start, end int) string {
	if m.filtering {
		return m.filterInput.View()
	}
	if m.searching {
		return m.searchInput.View()
	}
	stats := m.renderer.Metrics()
	hitRate := 0.0
	if total := stats.CacheHits + stats.CacheMisses; total > 0 {
		hitRate = float64(stats.CacheHits) / float64(total) * 100
	}
	status := fmt.Sprintf(
		"rows %d-%d  renders %d  avg %.1fms  cache %.0f%%  pool %d  f filter  / search  q quit",
		start, end, stats.TotalRenders, stats.AverageRenderTime, hitRate, stats.PoolSize,
	)
	return m.styles.status.Render(ansi.Truncate(status, m.width, "…"))
}

// ParseFilterQuery turns "field=value field2=value2" into a filter
// set, sniffing values into scalars the same way sources do.
func ParseFilterQuery(query string) grid.FilterSet {
	filters := grid.FilterSet{}
	for _, part := range strings.Fields(query) {
		k, v, ok := strings.Cut(part, "=")
		if !ok || k == "" {
			continue
		}
		filters[k] = source.SniffValue(v)
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}
