package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"comptes-client/internal/panel"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
)

// Results of network calls, tagged with the panel that issued them.
type (
	loadedMsg[T any] struct {
		panel string
		seq   uint64
		items []T
		err   error
	}

	createdMsg struct {
		panel string
		err   error
	}

	deletedMsg struct {
		panel string
		id    string
		err   error
	}
)

// PanelModel draws a panel.Panel and turns keys into panel operations.
// Network calls run as commands; their results come back as messages.
type PanelModel[T any] struct {
	panel   *panel.Panel[T]
	cursor  int
	form    *huh.Form
	binding map[string]*string
	width   int

	ctx    context.Context
	now    func() time.Time
	log    *log.Logger
	keys   KeyMap
	styles styles
}

type PanelOptions struct {
	Context context.Context
	Now     func() time.Time
	Logger  *log.Logger
	Theme   Theme
}

func NewPanelModel[T any](source panel.Source[T], opts PanelOptions) *PanelModel[T] {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &PanelModel[T]{
		panel:  panel.New(source),
		ctx:    opts.Context,
		now:    opts.Now,
		log:    opts.Logger.WithPrefix(strings.ToLower(source.Name)),
		keys:   DefaultKeyMap,
		styles: newStyles(opts.Theme),
	}
}

func (m *PanelModel[T]) Title() string { return m.panel.Name() }

func (m *PanelModel[T]) Panel() *panel.Panel[T] { return m.panel }

// Capturing reports whether the create dialog owns the keyboard.
func (m *PanelModel[T]) Capturing() bool {
	d := m.panel.Dialog()
	return d != nil && d.State() != panel.Closed
}

// Submitting reports whether a create is in flight.
func (m *PanelModel[T]) Submitting() bool {
	d := m.panel.Dialog()
	return d != nil && d.State() == panel.Submitting
}

func (m *PanelModel[T]) Init() tea.Cmd {
	return m.load()
}

func (m *PanelModel[T]) load() tea.Cmd {
	seq := m.panel.BeginLoad()
	p, ctx, name := m.panel, m.ctx, m.panel.Name()
	return func() tea.Msg {
		items, err := p.Fetch(ctx)
		return loadedMsg[T]{panel: name, seq: seq, items: items, err: err}
	}
}

func (m *PanelModel[T]) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[T]:
		if msg.panel != m.panel.Name() {
			return nil
		}
		if !m.panel.FinishLoad(msg.seq, msg.items, msg.err) {
			return nil
		}
		if msg.err != nil {
			m.log.Error("failed to load", "err", msg.err)
		}
		m.clampCursor()
		return nil

	case createdMsg:
		if msg.panel != m.panel.Name() {
			return nil
		}
		if !m.panel.FinishCreate(msg.err) {
			m.log.Error("failed to create", "err", msg.err)
			return m.openForm()
		}
		m.form = nil
		m.binding = nil
		return m.load()

	case deletedMsg:
		if msg.panel != m.panel.Name() {
			return nil
		}
		if !m.panel.FinishDelete(msg.id, msg.err) {
			m.log.Error("failed to delete", "id", msg.id, "err", msg.err)
			return nil
		}
		m.log.Info("deleted", "id", msg.id)
		return m.load()

	case tea.KeyMsg:
		if m.Capturing() {
			return m.updateDialog(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
	}

	if m.form != nil {
		return m.forwardToForm(msg)
	}
	return nil
}

func (m *PanelModel[T]) handleKey(msg tea.KeyMsg) tea.Cmd {
	rows := m.panel.Rows()
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(rows) {
			m.panel.Toggle(rows[m.cursor].ID)
		}
	case key.Matches(msg, m.keys.Reload):
		return m.load()
	case key.Matches(msg, m.keys.Add):
		if err := m.panel.OpenDialog(); err != nil {
			return nil
		}
		return m.openForm()
	case key.Matches(msg, m.keys.Delete):
		if m.cursor < len(rows) {
			return m.delete(rows[m.cursor].ID)
		}
	}
	return nil
}

func (m *PanelModel[T]) delete(id string) tea.Cmd {
	if err := m.panel.BeginDelete(id); err != nil {
		return nil
	}
	p, ctx, name := m.panel, m.ctx, m.panel.Name()
	return func() tea.Msg {
		return deletedMsg{panel: name, id: id, err: p.Delete(ctx, id)}
	}
}

func (m *PanelModel[T]) updateDialog(msg tea.KeyMsg) tea.Cmd {
	d := m.panel.Dialog()
	if d.State() == panel.Submitting {
		return nil
	}
	if key.Matches(msg, m.keys.Cancel) {
		m.cancel()
		return nil
	}
	return m.forwardToForm(msg)
}

func (m *PanelModel[T]) forwardToForm(msg tea.Msg) tea.Cmd {
	if m.form == nil {
		return nil
	}
	model, cmd := m.form.Update(msg)
	if form, ok := model.(*huh.Form); ok {
		m.form = form
	}
	m.syncForm()

	switch m.form.State {
	case huh.StateCompleted:
		return tea.Batch(cmd, m.submit())
	case huh.StateAborted:
		m.cancel()
		return nil
	}
	return cmd
}

// submit hands the dialog payload to the create mutation. The dialog stays
// in the submitting state, which ignores keys, until createdMsg arrives.
// App still lets the quit binding through.
func (m *PanelModel[T]) submit() tea.Cmd {
	m.syncForm()
	payload, err := m.panel.Dialog().Submit(m.now())
	if err != nil {
		return nil
	}
	p, ctx, name := m.panel, m.ctx, m.panel.Name()
	return func() tea.Msg {
		return createdMsg{panel: name, err: p.Create(ctx, payload)}
	}
}

func (m *PanelModel[T]) cancel() {
	m.panel.Dialog().Cancel()
	m.form = nil
	m.binding = nil
}

// openForm builds a form seeded from the dialog's current values, so a
// failed submission comes back with what was entered.
func (m *PanelModel[T]) openForm() tea.Cmd {
	m.form, m.binding = newDialogForm(m.panel.Dialog(), m.formWidth())
	return m.form.Init()
}

const maxFormWidth = 60

func (m *PanelModel[T]) formWidth() int {
	if m.width > 0 && m.width-4 < maxFormWidth {
		return max(m.width-4, 20)
	}
	return maxFormWidth
}

// syncForm copies the form's values into the dialog. Values are frozen
// once the dialog is submitting.
func (m *PanelModel[T]) syncForm() {
	d := m.panel.Dialog()
	if d.State() != panel.Open {
		return
	}
	for name, value := range m.binding {
		if err := d.Set(name, *value); err != nil {
			m.log.Warn("failed to sync dialog field", "field", name, "err", err)
		}
	}
}

func newDialogForm(d *panel.Dialog, width int) (*huh.Form, map[string]*string) {
	binding := make(map[string]*string)
	var fields []huh.Field
	for _, field := range d.Schema().Fields {
		value := d.Value(field.Name)
		binding[field.Name] = &value

		if field.Kind == panel.Enum {
			fields = append(fields, huh.NewSelect[string]().
				Key(field.Name).
				Title(field.Label).
				Options(huh.NewOptions(field.Choices...)...).
				Value(&value))
			continue
		}
		input := huh.NewInput().
			Key(field.Name).
			Title(field.Label).
			Value(&value)
		if field.Kind == panel.Numeric {
			input = input.Placeholder("0.00")
		}
		fields = append(fields, input)
	}

	form := huh.NewForm(huh.NewGroup(fields...)).
		WithShowHelp(true).
		WithWidth(width)
	return form, binding
}

func (m *PanelModel[T]) clampCursor() {
	rows := len(m.panel.Rows())
	if m.cursor >= rows {
		m.cursor = rows - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *PanelModel[T]) View() string {
	if m.Capturing() {
		return m.dialogView()
	}

	var b strings.Builder
	switch m.panel.Status() {
	case panel.Loading:
		b.WriteString("Loading...\n")
		return b.String()
	case panel.Failed:
		b.WriteString(m.styles.err.Render(fmt.Sprintf("Error: %s", m.panel.LoadErr())))
		b.WriteString("\n")
		return b.String()
	}

	rows := m.panel.Rows()
	if len(rows) == 0 {
		b.WriteString(m.styles.faint.Render(fmt.Sprintf("No %s yet.", strings.ToLower(m.panel.Name()))))
		b.WriteString("\n")
	}
	for i, row := range rows {
		marker := "▸"
		if row.Expanded {
			marker = "▾"
		}
		line := fmt.Sprintf("%s %s", marker, joinFields(row.Summary, " | "))
		if row.Deleting {
			line += " (deleting...)"
		}
		if i == m.cursor {
			b.WriteString(m.styles.selected.Render(line))
		} else {
			b.WriteString(m.styles.normal.Render(line))
		}
		b.WriteString("\n")
		for _, f := range row.Details {
			b.WriteString(m.styles.faint.Render(fmt.Sprintf("    %s: %s", f.Label, f.Value)))
			b.WriteString("\n")
		}
	}
	if m.panel.Refreshing() {
		b.WriteString(m.styles.faint.Render("Refreshing..."))
		b.WriteString("\n")
	}
	if err := m.panel.DeleteErr(); err != nil {
		b.WriteString(m.styles.err.Render(fmt.Sprintf("Error: %s", err)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *PanelModel[T]) dialogView() string {
	d := m.panel.Dialog()
	var b strings.Builder
	b.WriteString(m.styles.header.Render(d.Schema().Title))
	b.WriteString("\n")
	if d.State() == panel.Submitting {
		b.WriteString("Saving...")
		return m.styles.dialog.Render(b.String())
	}
	b.WriteString(m.styles.faint.Render("Fill in the details, esc to cancel."))
	b.WriteString("\n")
	if err := d.Err(); err != nil {
		b.WriteString(m.styles.err.Render(fmt.Sprintf("Error: %s", err)))
		b.WriteString("\n")
	}
	if m.form != nil {
		b.WriteString(m.form.View())
	}
	return m.styles.dialog.Render(b.String())
}

// help lists the keys that apply to this panel.
func (m *PanelModel[T]) help() []key.Binding {
	if m.Submitting() {
		return []key.Binding{m.keys.Quit}
	}
	if m.Capturing() {
		return []key.Binding{m.keys.Cancel}
	}
	bindings := []key.Binding{m.keys.Down, m.keys.Up, m.keys.Toggle}
	if m.panel.CanCreate() {
		bindings = append(bindings, m.keys.Add)
	}
	if m.panel.CanDelete() {
		bindings = append(bindings, m.keys.Delete)
	}
	return append(bindings, m.keys.Reload)
}

func joinFields(fields []panel.Field, sep string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Label, f.Value))
	}
	return strings.Join(parts, sep)
}
