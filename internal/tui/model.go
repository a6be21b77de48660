package tui

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/sheetboard/internal/filter"
	"github.com/Veraticus/sheetboard/internal/period"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/Veraticus/sheetboard/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// clockInterval is how often the selection is re-run against the wall
// clock between fetches.
const clockInterval = time.Minute

// Model holds the watch dashboard state. The snapshot is replaced whenever
// a fetch completes; every key press only re-runs the selection against it.
type Model struct {
	theme       themes.Theme
	fetchedAt   time.Time
	lastError   error
	pipeline    *pipeline.Pipeline
	snapshot    *pipeline.Snapshot
	now         func() time.Time
	refresh     func()
	help        help.Model
	keymap      KeyMap
	selection   pipeline.Selection
	result      pipeline.Result
	base        filter.Selection
	picks       map[string]string
	facets      []string
	values      []string
	customYear  int
	width       int
	height      int
	facet       int
	metric      int
	customMonth time.Month
	refreshing  bool
	ready       bool
	quitting    bool
}

// New creates the watch model for one dashboard.
func New(p *pipeline.Pipeline, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	h := help.New()
	h.ShowAll = cfg.ShowHelp
	h.Width = cfg.Width

	m := Model{
		theme:     cfg.Theme,
		pipeline:  p,
		now:       cfg.Now,
		refresh:   cfg.Refresh,
		help:      h,
		keymap:    DefaultKeyMap(),
		selection: cfg.Selection,
		base:      copySelection(cfg.Selection.Categories),
		facets:    facets(p),
		width:     cfg.Width,
		height:    cfg.Height,
	}
	if m.selection.Period == "" {
		m.selection.Period = period.Yesterday
	}
	m.initCustom()
	m.rerun()
	return m
}

// Init starts the clock; data arrives as SnapshotMsg from the poller.
func (m Model) Init() tea.Cmd {
	return tickClock()
}

func tickClock() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case SnapshotMsg:
		m.refreshing = false
		if msg.Err != nil {
			m.lastError = msg.Err
			return m, nil
		}
		if msg.Snapshot == nil {
			return m, nil
		}
		m.lastError = nil
		m.snapshot = msg.Snapshot
		m.fetchedAt = msg.Snapshot.FetchedAt
		m.ready = true
		m.loadValues()
		m.rerun()
		return m, nil

	case clockMsg:
		m.rerun()
		return m, tickClock()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keymap
	switch {
	case key.Matches(msg, k.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, k.Refresh):
		m.refreshing = true
		m.refresh()
		return m, nil

	case key.Matches(msg, k.Today):
		m.selection.Period = period.Today
	case key.Matches(msg, k.Yesterday):
		m.selection.Period = period.Yesterday
	case key.Matches(msg, k.Week):
		m.selection.Period = period.Week
	case key.Matches(msg, k.Month):
		m.selection.Period = period.Month
	case key.Matches(msg, k.Custom):
		m.selection.Period = period.Custom

	case key.Matches(msg, k.PrevMonth):
		if m.selection.Period != period.Custom {
			return m, nil
		}
		m.shiftMonth(-1)
	case key.Matches(msg, k.NextMonth):
		if m.selection.Period != period.Custom {
			return m, nil
		}
		m.shiftMonth(1)

	case key.Matches(msg, k.NextFacet):
		if len(m.facets) < 2 {
			return m, nil
		}
		m.facet = (m.facet + 1) % len(m.facets)
		m.loadValues()
	case key.Matches(msg, k.NextValue):
		if len(m.values) == 0 {
			return m, nil
		}
		m.nextValue()
	case key.Matches(msg, k.ClearFilter):
		if column := m.Facet(); column != "" {
			m.setPick(column, "")
		}
	case key.Matches(msg, k.NextMetric):
		if n := len(m.pipeline.Dashboard().Metrics); n > 0 {
			m.metric = (m.metric + 1) % n
		}

	default:
		return m, nil
	}

	m.rerun()
	return m, nil
}

// initCustom seeds the custom month from the configured selection, or the
// current month when none was given.
func (m *Model) initCustom() {
	now := m.now().In(m.pipeline.Location())
	m.customMonth = now.Month()
	m.customYear = now.Year()
	if mo, err := strconv.Atoi(m.selection.CustomMonth); err == nil && mo >= 1 && mo <= 12 {
		m.customMonth = time.Month(mo)
	}
	if y, err := strconv.Atoi(m.selection.CustomYear); err == nil && y > 0 {
		m.customYear = y
	}
}

func (m *Model) shiftMonth(delta int) {
	t := time.Date(m.customYear, m.customMonth+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	m.customMonth = t.Month()
	m.customYear = t.Year()
}

// facets lists the columns that can be filtered interactively: the group
// column first, then the dashboard's category columns.
func facets(p *pipeline.Pipeline) []string {
	d := p.Dashboard()
	var out []string
	if d.GroupColumn != "" {
		out = append(out, d.GroupColumn)
	}
	for _, c := range d.CategoryColumns {
		if c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func copySelection(sel filter.Selection) filter.Selection {
	if len(sel) == 0 {
		return nil
	}
	out := make(filter.Selection, len(sel))
	for column, values := range sel {
		out[column] = slices.Clone(values)
	}
	return out
}

// loadValues refreshes the choices of the current facet from the snapshot
// and drops picks that no longer exist in it.
func (m *Model) loadValues() {
	column := m.Facet()
	if column == "" || m.snapshot == nil {
		m.values = nil
		return
	}
	m.values = m.pipeline.Options(m.snapshot, column)
	for c, v := range m.picks {
		if !slices.Contains(m.pipeline.Options(m.snapshot, c), v) {
			m.setPick(c, "")
		}
	}
}

// nextValue moves the current facet to its next value, wrapping back to
// no pick after the last one.
func (m *Model) nextValue() {
	column := m.Facet()
	i := slices.Index(m.values, m.picks[column])
	if m.picks[column] == "" {
		i = -1
	}
	if i+1 >= len(m.values) {
		m.setPick(column, "")
		return
	}
	m.setPick(column, m.values[i+1])
}

// setPick copies the picks so earlier models returned by Update keep
// their own filters. An empty value removes the pick.
func (m *Model) setPick(column, value string) {
	picks := make(map[string]string, len(m.picks)+1)
	for c, v := range m.picks {
		picks[c] = v
	}
	if value == "" {
		delete(picks, column)
	} else {
		picks[column] = value
	}
	m.picks = picks
}

// rerun applies the current selection to the snapshot. Picks made in the
// dashboard replace the configured filter of their column.
func (m *Model) rerun() {
	m.selection.CustomMonth = strconv.Itoa(int(m.customMonth))
	m.selection.CustomYear = strconv.Itoa(m.customYear)

	categories := copySelection(m.base)
	for column, value := range m.picks {
		if categories == nil {
			categories = make(filter.Selection, len(m.picks))
		}
		categories[column] = []string{value}
	}
	m.selection.Categories = categories

	m.result = m.pipeline.Run(m.snapshot, m.selection, m.now())
}

// Owner returns the owner picked in the dashboard, empty for all.
func (m Model) Owner() string {
	return m.picks[m.pipeline.Dashboard().GroupColumn]
}

// Facet returns the column the value keys currently cycle through.
func (m Model) Facet() string {
	if len(m.facets) == 0 {
		return ""
	}
	return m.facets[m.facet%len(m.facets)]
}

// FilterLabel describes the active filter of a column for display.
func (m Model) FilterLabel(column string) string {
	values := m.selection.Categories[column]
	if len(values) == 0 {
		return "all"
	}
	return strings.Join(values, ", ")
}

// Result returns the aggregation currently on screen.
func (m Model) Result() pipeline.Result {
	return m.result
}

// Selection returns the active selection.
func (m Model) Selection() pipeline.Selection {
	return m.selection
}

// MetricKey returns the key of the metric charted.
func (m Model) MetricKey() string {
	metrics := m.pipeline.Dashboard().Metrics
	if len(metrics) == 0 {
		return ""
	}
	return metrics[m.metric%len(metrics)].Key
}
