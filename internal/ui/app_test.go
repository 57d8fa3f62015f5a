package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"comptes-client/internal/domain"
	"comptes-client/internal/panel"
	"comptes-client/internal/screens"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

type fakeGateway struct {
	comptes      []domain.Compte
	transactions []domain.Transaction
	saved        []domain.CompteRequest
	deleted      []int64
	loadErr      error
	saveErr      error
	block        chan struct{}
}

func (g *fakeGateway) AllComptes(context.Context) ([]domain.Compte, error) {
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	return g.comptes, nil
}

func (g *fakeGateway) SaveCompte(_ context.Context, input domain.CompteRequest) (*domain.Compte, error) {
	if g.block != nil {
		<-g.block
	}
	g.saved = append(g.saved, input)
	if g.saveErr != nil {
		return nil, g.saveErr
	}
	c := domain.Compte{ID: "3", Solde: *input.Solde, DateCreation: input.DateCreation, Type: input.Type}
	g.comptes = append(g.comptes, c)
	return &c, nil
}

func (g *fakeGateway) DeleteCompte(_ context.Context, id int64) (bool, error) {
	g.deleted = append(g.deleted, id)
	return true, nil
}

func (g *fakeGateway) AllTransactions(context.Context) ([]domain.Transaction, error) {
	return g.transactions, nil
}

func (g *fakeGateway) AddTransaction(_ context.Context, input domain.TransactionRequest) (*domain.Transaction, error) {
	return &domain.Transaction{ID: "1", Type: input.Type}, nil
}

func testGateway() *fakeGateway {
	return &fakeGateway{
		comptes: []domain.Compte{
			{ID: "1", Solde: 100, DateCreation: "2024/01/01", Type: domain.Courant},
			{ID: "2", Solde: 250.5, DateCreation: "2024/02/02", Type: domain.Epargne},
		},
		transactions: []domain.Transaction{
			{ID: "1", Date: "2024/03/03", Montant: 75, Type: domain.Depot, Compte: domain.CompteRef{ID: "1"}},
		},
	}
}

var testNow = time.Date(2024, time.May, 17, 12, 0, 0, 0, time.Local)

func testOptions() PanelOptions {
	return PanelOptions{
		Now:    func() time.Time { return testNow },
		Logger: log.New(io.Discard),
		Theme:  DefaultTheme,
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// run executes a network command and feeds its result back.
func run(t *testing.T, app App, cmd tea.Cmd) App {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				app = run(t, app, c)
			}
		}
		return app
	}
	updated, _ := app.Update(msg)
	return updated.(App)
}

// settle runs cmd and every command the resulting messages produce,
// feeding each message to app. Commands still blocked after a short wait,
// such as cursor blinks or a hung gateway, are dropped.
func settle(t *testing.T, app App, cmd tea.Cmd) App {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 500 {
			t.Fatal("commands did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg, ok := within(next, 200*time.Millisecond)
		if !ok || msg == nil {
			continue
		}
		if cmds, ok := unbatch(msg); ok {
			queue = append(queue, cmds...)
			continue
		}
		updated, c := app.Update(msg)
		app = updated.(App)
		queue = append(queue, c)
	}
	return app
}

func within(cmd tea.Cmd, d time.Duration) (tea.Msg, bool) {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg, true
	case <-time.After(d):
		return nil, false
	}
}

var cmdsType = reflect.TypeOf([]tea.Cmd(nil))

// unbatch unpacks batch and sequence messages into their commands.
func unbatch(msg tea.Msg) ([]tea.Cmd, bool) {
	v := reflect.ValueOf(msg)
	if v.Kind() != reflect.Slice || !v.Type().ConvertibleTo(cmdsType) {
		return nil, false
	}
	return v.Convert(cmdsType).Interface().([]tea.Cmd), true
}

// typeKeys sends each key through the app and settles what it triggers.
func typeKeys(t *testing.T, app App, keys ...tea.KeyMsg) App {
	t.Helper()
	for _, k := range keys {
		var cmd tea.Cmd
		app, cmd = press(app, k)
		app = settle(t, app, cmd)
	}
	return app
}

func runes(s string) []tea.KeyMsg {
	keys := make([]tea.KeyMsg, 0, len(s))
	for _, r := range s {
		keys = append(keys, keyRune(r))
	}
	return keys
}

func loadedApp(t *testing.T, gw *fakeGateway) App {
	t.Helper()
	app := NewApp(gw, testOptions())
	return run(t, app, app.Init())
}

func press(app App, msg tea.KeyMsg) (App, tea.Cmd) {
	updated, cmd := app.Update(msg)
	return updated.(App), cmd
}

func TestAppShowsLoadingThenRows(t *testing.T) {
	gw := testGateway()
	app := NewApp(gw, testOptions())
	if !strings.Contains(app.View(), "Loading...") {
		t.Error("view should show loading before the first result")
	}

	app = run(t, app, app.Init())
	view := app.View()
	if !strings.Contains(view, "Type: COURANT | Solde: 100") {
		t.Errorf("view should list comptes, got:\n%s", view)
	}
	if !strings.Contains(view, "Type: EPARGNE | Solde: 250.5") {
		t.Errorf("view should list every compte, got:\n%s", view)
	}
	if strings.Contains(view, "Date Creation") {
		t.Error("details should be hidden until toggled")
	}
}

func TestAppToggleDetails(t *testing.T) {
	app := loadedApp(t, testGateway())

	app, _ = press(app, tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(app.View(), "Date Creation: 2024/01/01") {
		t.Error("enter should show the selected compte's details")
	}
	if strings.Contains(app.View(), "Date Creation: 2024/02/02") {
		t.Error("other comptes should stay collapsed")
	}

	app, _ = press(app, tea.KeyMsg{Type: tea.KeyEnter})
	if strings.Contains(app.View(), "Date Creation") {
		t.Error("second enter should hide the details again")
	}
}

func TestAppTabsAreIndependent(t *testing.T) {
	app := loadedApp(t, testGateway())

	app, _ = press(app, tea.KeyMsg{Type: tea.KeyEnter})
	app, _ = press(app, keyRune('2'))
	if app.Active() != "Transactions" {
		t.Fatalf("expected transactions tab, got %s", app.Active())
	}
	view := app.View()
	if !strings.Contains(view, "Type: DEPOT | Montant: 75") {
		t.Errorf("transactions should be listed, got:\n%s", view)
	}
	if strings.Contains(view, "Compte ID") {
		t.Error("expanding a compte must not expand a transaction with the same id")
	}

	app, _ = press(app, keyRune('a'))
	if !app.Transactions.Capturing() {
		t.Fatal("a should open the transaction dialog")
	}
	if app.Comptes.Capturing() {
		t.Error("opening a dialog in one tab must not open the other")
	}

	// While the dialog owns the keyboard, tab keys go to the form.
	app, _ = press(app, keyRune('1'))
	if app.Active() != "Transactions" {
		t.Error("tab switching should be disabled while a dialog is open")
	}

	app, _ = press(app, tea.KeyMsg{Type: tea.KeyEsc})
	app, _ = press(app, tea.KeyMsg{Type: tea.KeyTab})
	if app.Active() != "Comptes" {
		t.Errorf("tab should cycle back to comptes, got %s", app.Active())
	}
	if !app.Comptes.Panel().Expanded("1") {
		t.Error("compte expansion should survive switching tabs")
	}
}

func TestAppQuit(t *testing.T) {
	app := loadedApp(t, testGateway())
	_, cmd := press(app, keyRune('q'))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestAppDeleteReloads(t *testing.T) {
	gw := testGateway()
	app := loadedApp(t, gw)

	app, _ = press(app, keyRune('j'))
	app, cmd := press(app, keyRune('d'))
	if !strings.Contains(app.View(), "(deleting...)") {
		t.Error("row should stay visible and marked while the delete is in flight")
	}

	gw.comptes = gw.comptes[:1]
	app = run(t, app, cmd) // deletedMsg, which returns the reload
	if len(gw.deleted) != 1 || gw.deleted[0] != 2 {
		t.Fatalf("expected deleteCompte(2), got %v", gw.deleted)
	}
	if !app.Comptes.Panel().Refreshing() {
		t.Fatal("a successful delete should start a reload")
	}
}

func TestAppLoadErrorAndReload(t *testing.T) {
	gw := testGateway()
	gw.loadErr = errors.New("connection refused")
	app := loadedApp(t, gw)

	view := app.View()
	if !strings.Contains(view, "Error: connection refused") {
		t.Errorf("load error should be shown verbatim, got:\n%s", view)
	}
	if strings.Contains(view, "Solde") {
		t.Error("no partial list should be shown after a failed load")
	}

	gw.loadErr = nil
	app, cmd := press(app, keyRune('r'))
	if !strings.Contains(app.View(), "Loading...") {
		t.Error("reload after a failure should show loading")
	}
	app = run(t, app, cmd)
	if !strings.Contains(app.View(), "Type: COURANT | Solde: 100") {
		t.Error("reload should recover the list")
	}
}

func TestAppCreateCompteThroughForm(t *testing.T) {
	gw := testGateway()
	app := loadedApp(t, gw)

	app = typeKeys(t, app, keyRune('a'))
	if !app.Comptes.Capturing() {
		t.Fatal("a should open the dialog")
	}
	app = typeKeys(t, app, runes("150.50")...)
	app = typeKeys(t, app,
		tea.KeyMsg{Type: tea.KeyEnter},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	if len(gw.saved) != 1 {
		t.Fatalf("expected one saveCompte call, got %d", len(gw.saved))
	}
	saved := gw.saved[0]
	if saved.Solde == nil || *saved.Solde != 150.5 {
		t.Errorf("solde: got %v, want 150.5", saved.Solde)
	}
	if saved.Type != domain.Epargne {
		t.Errorf("type: got %s, want EPARGNE", saved.Type)
	}
	if saved.DateCreation != "2024/05/17" {
		t.Errorf("dateCreation: got %s, want 2024/05/17", saved.DateCreation)
	}
	if app.Comptes.Capturing() {
		t.Error("dialog should close after a successful create")
	}
	if !strings.Contains(app.View(), "Type: EPARGNE | Solde: 150.5") {
		t.Errorf("reloaded list should show the new compte, got:\n%s", app.View())
	}
}

func TestAppCtrlCAbortsOpenForm(t *testing.T) {
	gw := testGateway()
	app := loadedApp(t, gw)

	app = typeKeys(t, app, keyRune('a'))
	app = typeKeys(t, app, runes("42")...)

	app, cmd := press(app, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("ctrl+c in an open form should abort the form, not quit")
		}
	}
	if app.Comptes.Capturing() {
		t.Fatal("ctrl+c should close the dialog")
	}
	if len(gw.saved) != 0 {
		t.Errorf("an aborted form must not submit, got %v", gw.saved)
	}

	app = typeKeys(t, app, keyRune('a'))
	if got := app.Comptes.Panel().Dialog().Value("solde"); got != "" {
		t.Errorf("aborted values should be discarded, got %q", got)
	}
}

func TestAppQuitsWhileSubmitting(t *testing.T) {
	gw := testGateway()
	gw.block = make(chan struct{})
	t.Cleanup(func() { close(gw.block) })
	app := loadedApp(t, gw)

	app = typeKeys(t, app, keyRune('a'))
	app = typeKeys(t, app, runes("5")...)
	app = typeKeys(t, app, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEnter})
	if !app.Comptes.Submitting() {
		t.Fatal("the create should still be in flight")
	}

	app, cmd := press(app, keyRune('x'))
	if cmd != nil {
		t.Error("other keys should be ignored while submitting")
	}

	_, cmd = press(app, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should return a command while submitting")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit while submitting")
	}
}

func TestAppForwardsWindowSize(t *testing.T) {
	app := loadedApp(t, testGateway())
	app = typeKeys(t, app, keyRune('a'))

	updated, _ := app.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	app = updated.(App)
	if app.Comptes.width != 40 || app.Transactions.width != 40 {
		t.Errorf("panels should learn the width, got %d and %d", app.Comptes.width, app.Transactions.width)
	}
	if got := app.Comptes.formWidth(); got != 36 {
		t.Errorf("form width should follow the terminal, got %d", got)
	}
	if !app.Comptes.Capturing() {
		t.Error("a resize should not close the open dialog")
	}
}

func loadedPanel(t *testing.T, gw *fakeGateway) *PanelModel[domain.Compte] {
	t.Helper()
	m := NewPanelModel(screens.Comptes(gw), testOptions())
	m.Update(m.Init()())
	return m
}

func TestPanelModelCreate(t *testing.T) {
	gw := testGateway()
	m := loadedPanel(t, gw)

	m.Update(keyRune('a'))
	if !m.Capturing() || m.form == nil {
		t.Fatal("a should open the dialog form")
	}
	if !strings.Contains(m.View(), "Add New Compte") {
		t.Error("dialog view should carry its title")
	}

	*m.binding["solde"] = "150.50"
	*m.binding["type"] = "EPARGNE"
	cmd := m.submit()
	if cmd == nil {
		t.Fatal("submit should return the mutation command")
	}
	if !strings.Contains(m.View(), "Saving...") {
		t.Error("dialog should show it is saving")
	}

	reload := m.Update(cmd())
	if len(gw.saved) != 1 {
		t.Fatalf("expected one saveCompte call, got %d", len(gw.saved))
	}
	saved := gw.saved[0]
	if *saved.Solde != 150.5 || saved.Type != domain.Epargne || saved.DateCreation != "2024/05/17" {
		t.Errorf("unexpected saveCompte input: solde=%v type=%s date=%s", *saved.Solde, saved.Type, saved.DateCreation)
	}
	if m.Capturing() {
		t.Error("dialog should close after a successful create")
	}
	if reload == nil {
		t.Fatal("a successful create should reload the list")
	}
	m.Update(reload())
	if len(m.Panel().Rows()) != 3 {
		t.Errorf("reloaded list should include the new compte, got %d rows", len(m.Panel().Rows()))
	}
}

func TestPanelModelCreateFailureKeepsForm(t *testing.T) {
	gw := testGateway()
	gw.saveErr = errors.New("gateway down")
	m := loadedPanel(t, gw)

	m.Update(keyRune('a'))
	*m.binding["solde"] = "42"
	*m.binding["type"] = "EPARGNE"
	cmd := m.submit()

	// Keys are ignored and a second submit is refused while in flight.
	if m.Update(keyRune('x')) != nil {
		t.Error("keys should be ignored while submitting")
	}
	if m.submit() != nil {
		t.Error("a second submit should be refused while in flight")
	}

	m.Update(cmd())
	if !m.Capturing() {
		t.Fatal("dialog should stay open after a failed create")
	}
	d := m.Panel().Dialog()
	if d.State() != panel.Open {
		t.Errorf("expected open, got %s", d.State())
	}
	if d.Value("solde") != "42" || d.Value("type") != "EPARGNE" {
		t.Errorf("entered values should be intact, got %v", d.Values())
	}
	if *m.binding["solde"] != "42" {
		t.Error("rebuilt form should be seeded with the entered values")
	}
	if !strings.Contains(m.View(), "Error: failed") && !strings.Contains(m.View(), "gateway down") {
		t.Errorf("error should be surfaced in the dialog, got:\n%s", m.View())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if strings.Contains(m.View(), "gateway down") {
		t.Errorf("a cancelled create should leave no error under the list, got:\n%s", m.View())
	}
}

func TestPanelModelEscCancels(t *testing.T) {
	m := loadedPanel(t, testGateway())
	m.Update(keyRune('a'))
	*m.binding["solde"] = "10"

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.Capturing() {
		t.Fatal("esc should close the dialog")
	}

	m.Update(keyRune('a'))
	if *m.binding["solde"] != "" {
		t.Error("cancelled values should be discarded")
	}
}

func TestPanelModelIgnoresOtherPanelsResults(t *testing.T) {
	m := loadedPanel(t, testGateway())
	if cmd := m.Update(createdMsg{panel: "Transactions"}); cmd != nil {
		t.Error("results for another panel should be ignored")
	}
	if cmd := m.Update(deletedMsg{panel: "Transactions", id: "1"}); cmd != nil {
		t.Error("results for another panel should be ignored")
	}
}

func TestPanelModelCursorBounds(t *testing.T) {
	m := loadedPanel(t, testGateway())
	m.Update(keyRune('k'))
	if m.cursor != 0 {
		t.Errorf("cursor should not go above the first row, got %d", m.cursor)
	}
	m.Update(keyRune('j'))
	m.Update(keyRune('j'))
	if m.cursor != 1 {
		t.Errorf("cursor should stop at the last row, got %d", m.cursor)
	}
}

func TestPanelModelSyncForm(t *testing.T) {
	var buf bytes.Buffer
	opts := testOptions()
	opts.Logger = log.New(&buf)
	m := NewPanelModel(screens.Comptes(testGateway()), opts)
	m.Update(m.Init()())

	m.Update(keyRune('a'))
	extra := "1"
	m.binding["nope"] = &extra
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if !strings.Contains(buf.String(), "failed to sync dialog field") {
		t.Errorf("a field the dialog rejects should be logged, got %q", buf.String())
	}
	delete(m.binding, "nope")

	*m.binding["solde"] = "42"
	m.submit()
	buf.Reset()
	*m.binding["solde"] = "99"
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if got := m.Panel().Dialog().Value("solde"); got != "42" {
		t.Errorf("values should be frozen while submitting, got %q", got)
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be synced while submitting, got %q", buf.String())
	}
}
