package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/dbspctl/dbsp"
	"github.com/five82/dbspctl/internal/logtail"
	"github.com/five82/dbspctl/internal/state"
)

// Actions performs lifecycle calls on a pipeline selected in the dashboard.
type Actions interface {
	Pause(ctx context.Context, id dbsp.PipelineID) error
	Shutdown(ctx context.Context, id dbsp.PipelineID) error
	Teardown(ctx context.Context, id dbsp.PipelineID) error
}

type focusArea int

const (
	focusProjects focusArea = iota
	focusPipelines
)

const (
	logLines       = 6
	defaultTick    = 2 * time.Second
	actionTimeout  = 15 * time.Second
	minTableHeight = 3
)

type tickMsg time.Time

type snapshotMsg struct {
	snap state.Snapshot
	logs []string
}

type actionDoneMsg struct {
	op  string
	id  dbsp.PipelineID
	err error
}

// Model is the bubbletea model for the watch dashboard.
type Model struct {
	ctx      context.Context
	store    *state.Store
	actions  Actions
	logPath  string
	pollTick time.Duration

	theme Theme
	keys  keyMap
	help  help.Model

	projects  table.Model
	pipelines table.Model
	focus     focusArea

	snapshot    state.Snapshot
	lastUpdated time.Time
	logs        []string
	message     string
	messageErr  bool

	width  int
	height int
}

// NewModel builds the dashboard model from opts.
func NewModel(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.PollTick
	if tick <= 0 {
		tick = defaultTick
	}
	theme := GetTheme(opts.ThemeName)

	projects := table.New(
		table.WithColumns(projectColumns()),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	pipelines := table.New(
		table.WithColumns(pipelineColumns()),
		table.WithHeight(6),
	)

	m := Model{
		ctx:       ctx,
		store:     opts.Store,
		actions:   opts.Actions,
		logPath:   opts.LogPath,
		pollTick:  tick,
		theme:     theme,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		projects:  projects,
		pipelines: pipelines,
		focus:     focusProjects,
	}
	m.applyTheme()
	return m
}

func projectColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: 24},
		{Title: "Version", Width: 8},
		{Title: "Status", Width: 12},
		{Title: "Pipelines", Width: 10},
		{Title: "Detail", Width: 40},
	}
}

func pipelineColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Port", Width: 6},
		{Title: "Version", Width: 8},
		{Title: "State", Width: 8},
		{Title: "Created", Width: 26},
	}
}

// Init starts the refresh cycle.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), tick(m.pollTick))
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// load reads the store and the log tail off the update loop.
func (m Model) load() tea.Cmd {
	store := m.store
	logPath := m.logPath
	return func() tea.Msg {
		var msg snapshotMsg
		if store != nil {
			msg.snap = store.Snapshot()
		}
		if logPath != "" {
			lines, err := logtail.Read(logPath, logLines)
			if err == nil {
				msg.logs = logtail.FormatLines(lines)
			}
		}
		return msg
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.load(), tick(m.pollTick))

	case snapshotMsg:
		m.applySnapshot(msg.snap)
		m.logs = msg.logs
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("%s pipeline %d failed: %v", msg.op, msg.id, msg.err)
			m.messageErr = true
		} else {
			m.message = fmt.Sprintf("%s pipeline %d done", msg.op, msg.id)
			m.messageErr = false
		}
		return m, m.load()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.toggleFocus()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()
	case key.Matches(msg, m.keys.Pause):
		return m, m.pipelineAction("pause")
	case key.Matches(msg, m.keys.Shutdown):
		return m, m.pipelineAction("shutdown")
	case key.Matches(msg, m.keys.Teardown):
		return m, m.pipelineAction("teardown")
	}

	var cmd tea.Cmd
	if m.focus == focusProjects {
		before := m.projects.Cursor()
		m.projects, cmd = m.projects.Update(msg)
		if m.projects.Cursor() != before {
			m.refreshPipelineRows()
		}
	} else {
		m.pipelines, cmd = m.pipelines.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == focusProjects {
		m.focus = focusPipelines
		m.projects.Blur()
		m.pipelines.Focus()
	} else {
		m.focus = focusProjects
		m.pipelines.Blur()
		m.projects.Focus()
	}
	m.applyTheme()
}

// pipelineAction returns a command for the selected pipeline, or nil when the
// pipelines table is not focused or empty.
func (m *Model) pipelineAction(op string) tea.Cmd {
	if m.focus != focusPipelines || m.actions == nil {
		return nil
	}
	id, ok := m.selectedPipeline()
	if !ok {
		return nil
	}
	m.message = fmt.Sprintf("%s pipeline %d...", op, id)
	m.messageErr = false

	ctx, actions := m.ctx, m.actions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		var err error
		switch op {
		case "pause":
			err = actions.Pause(ctx, id)
		case "shutdown":
			err = actions.Shutdown(ctx, id)
		case "teardown":
			err = actions.Teardown(ctx, id)
		}
		return actionDoneMsg{op: op, id: id, err: err}
	}
}

func (m Model) selectedPipeline() (dbsp.PipelineID, bool) {
	row := m.pipelines.SelectedRow()
	if len(row) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return dbsp.PipelineID(id), true
}

func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	if !snap.LastUpdated.IsZero() {
		m.lastUpdated = snap.LastUpdated
	}

	rows := make([]table.Row, 0, len(snap.Projects))
	for _, view := range snap.Projects {
		rows = append(rows, table.Row{
			strconv.FormatInt(int64(view.Project.ProjectID), 10),
			view.Project.Name,
			strconv.FormatInt(int64(view.Project.Version), 10),
			statusLabel(view),
			strconv.Itoa(view.PipelineCount()),
			statusDetail(view),
		})
	}
	m.projects.SetRows(rows)
	if m.projects.Cursor() >= len(rows) && len(rows) > 0 {
		m.projects.SetCursor(len(rows) - 1)
	}
	m.refreshPipelineRows()
}

func (m *Model) refreshPipelineRows() {
	var rows []table.Row
	if view, ok := m.selectedProject(); ok {
		for _, p := range view.Pipelines {
			rows = append(rows, table.Row{
				strconv.FormatInt(int64(p.PipelineID), 10),
				strconv.Itoa(int(p.Port)),
				strconv.FormatInt(int64(p.ProjectVersion), 10),
				pipelineLabel(p),
				p.Created,
			})
		}
	}
	m.pipelines.SetRows(rows)
	if m.pipelines.Cursor() >= len(rows) {
		m.pipelines.SetCursor(max(len(rows)-1, 0))
	}
}

func (m Model) selectedProject() (state.ProjectView, bool) {
	idx := m.projects.Cursor()
	if idx < 0 || idx >= len(m.snapshot.Projects) {
		return state.ProjectView{}, false
	}
	return m.snapshot.Projects[idx], true
}

func statusLabel(view state.ProjectView) string {
	if view.StatusErr != nil {
		return "invalid"
	}
	return view.Status.Kind.String()
}

func statusDetail(view state.ProjectView) string {
	if view.StatusErr != nil {
		return truncate(view.StatusErr.Error(), 40)
	}
	return truncate(strings.ReplaceAll(view.Status.Detail, "\n", " "), 40)
}

func pipelineLabel(p dbsp.PipelineDescr) string {
	if p.Killed {
		return "killed"
	}
	return "active"
}

func (m *Model) applyTheme() {
	m.projects.SetStyles(m.theme.TableStyles(m.focus == focusProjects))
	m.pipelines.SetStyles(m.theme.TableStyles(m.focus == focusPipelines))
}

// resize splits the height between the two tables after reserving room for
// the header, log tail, message line and help.
func (m *Model) resize() {
	if m.height == 0 {
		return
	}
	helpLines := 1
	if m.help.ShowAll {
		helpLines = 4
	}
	// header + section borders/titles + message + log block + help
	reserved := 1 + 2*4 + 1 + logLines + 2 + helpLines
	avail := m.height - reserved
	projectHeight := max(avail*3/5, minTableHeight)
	pipelineHeight := max(avail-projectHeight, minTableHeight)
	m.projects.SetHeight(projectHeight)
	m.pipelines.SetHeight(pipelineHeight)
	if m.width > 4 {
		m.projects.SetWidth(m.width - 4)
		m.pipelines.SetWidth(m.width - 4)
	}
}
