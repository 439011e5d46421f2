package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"dashboard/internal/app"
	"dashboard/internal/domain"
	"dashboard/internal/logging"
)

// Sessions is the session slot the dashboard logs in through.
type Sessions interface {
	Login(ctx context.Context, username, password string) (domain.UserView, error)
	Logout(ctx context.Context)
	VerifySession(ctx context.Context) (domain.UserView, error)
}

// Generator produces generation records.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (domain.GenerationRecord, error)
	GenerateSampling(ctx context.Context, prompt string, images []string) (domain.GenerationRecord, error)
}

// Records reads and clears the generation log.
type Records interface {
	List(ctx context.Context) ([]domain.GenerationRecord, error)
	Clear(ctx context.Context) error
}

// Users is the account administration service.
type Users interface {
	List(ctx context.Context, actor *domain.UserView) ([]domain.UserView, error)
	Create(ctx context.Context, actor *domain.UserView, in app.NewUser) (domain.UserView, error)
	Update(ctx context.Context, actor *domain.UserView, id string, upd app.UserUpdate) (domain.UserView, error)
	Delete(ctx context.Context, actor *domain.UserView, id string) error
}

// Gate is the optional access-code gate in front of the login form.
type Gate interface {
	Required(ctx context.Context) bool
	Validate(ctx context.Context, code string) error
}

// Services are the collaborators of the dashboard. Users and Gate may be
// nil, which hides the users tab and skips the access gate.
type Services struct {
	Sessions  Sessions
	Generator Generator
	Records   Records
	Users     Users
	Gate      Gate
	Clock     domain.Clock
	Log       logging.Logger
}

type screen int

const (
	screenAccess screen = iota
	screenLogin
	screenDashboard
	screenDetail
)

// Tab is a dashboard tab.
type Tab int

const (
	TabGenerate Tab = iota
	TabSampling
	TabRecords
	TabUsers
)

var tabLabels = [...]string{
	TabGenerate: "文字生成",
	TabSampling: "打樣生成",
	TabRecords:  "生成記錄",
	TabUsers:    "使用者管理",
}

// Status messages.
const (
	msgRequiredFields = "請填寫所有必填欄位"
	msgGenerating     = "生成中..."
	msgGenerated      = "生成完成"
	msgSaving         = "儲存中..."
	msgUserCreated    = "使用者建立成功！"
	msgUserUpdated    = "使用者更新成功！"
	msgUserDeleted    = "使用者已刪除"
	msgRecordsCleared = "記錄已清除"
	msgDeleteSelf     = "無法刪除目前登入的使用者"
	msgDeactivateSelf = "無法停用目前登入的使用者"
	msgCanceled       = "已取消"
)

// Result messages of the service commands.
type (
	sessionCheckedMsg struct {
		user domain.UserView
		err  error
	}
	accessResultMsg struct{ err error }
	loginResultMsg  struct {
		user domain.UserView
		err  error
	}
	loggedOutMsg struct{}
	generatedMsg struct {
		rec domain.GenerationRecord
		err error
	}
	recordsMsg struct {
		records []domain.GenerationRecord
		err     error
	}
	recordsClearedMsg struct{ err error }
	usersMsg          struct {
		users []domain.UserView
		err   error
	}
	userChangedMsg struct {
		note string
		err  error
	}
)

// Model is the bubbletea model of the dashboard.
type Model struct {
	svc    Services
	keys   KeyMap
	styles styles
	ctx    context.Context

	screen screen
	tab    Tab
	user   *domain.UserView
	width  int
	height int

	access   *input
	login    *form
	prompt   *input
	sampling *form
	search   *input

	searching bool
	busy      bool
	cancel    context.CancelFunc
	spinner   spinner.Model

	status    string
	statusErr bool
	last      *domain.GenerationRecord

	records []domain.GenerationRecord
	filter  app.Filter
	page    int
	cursor  int
	detail  *domain.GenerationRecord

	users      []domain.UserView
	userCursor int
	userForm   *form
	creating   bool
}

// New creates the dashboard model. ctx bounds every service call.
func New(ctx context.Context, svc Services) Model {
	if svc.Clock == nil {
		svc.Clock = domain.RealClock{}
	}
	if svc.Log == nil {
		svc.Log = logging.Nop{}
	}
	m := Model{
		svc:    svc,
		keys:   DefaultKeyMap,
		styles: newStyles(DefaultTheme),
		ctx:    ctx,
		screen: screenLogin,
		access: &input{label: "訪問碼"},
		login: newForm(
			&input{label: "用戶名"},
			&input{label: "密碼", masked: true},
		),
		prompt: &input{label: "提示詞"},
		sampling: newForm(
			&input{label: "打樣提示詞"},
			&input{label: "圖片（以逗號分隔）"},
		),
		search: &input{label: "搜尋"},
		userForm: newForm(
			&input{label: "用戶名"},
			&input{label: "電子郵件"},
			&input{label: "密碼", masked: true},
			&input{label: "角色 (admin/user)"},
		),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		page:    1,
	}
	if svc.Gate != nil && svc.Gate.Required(ctx) {
		m.screen = screenAccess
	}
	return m
}

// Init restores a stored session unless the access gate is showing.
func (m Model) Init() tea.Cmd {
	if m.screen == screenAccess {
		return nil
	}
	return m.verifySession()
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionCheckedMsg:
		if msg.err != nil {
			return m, nil
		}
		m.enterDashboard(msg.user)
		return m, m.loadRecords()

	case accessResultMsg:
		m.busy = false
		if msg.err != nil {
			m.access.Clear()
			m.setError(msg.err)
			return m, nil
		}
		m.screen = screenLogin
		m.clearStatus()
		return m, m.verifySession()

	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.login.fields[1].Clear()
			m.setError(msg.err)
			return m, nil
		}
		m.login.Reset()
		m.enterDashboard(msg.user)
		return m, m.loadRecords()

	case loggedOutMsg:
		m.resetSession()
		return m, nil

	case generatedMsg:
		m.busy = false
		m.cancel = nil
		if msg.err != nil {
			return m.failGeneration(msg.err)
		}
		m.last = &msg.rec
		m.prompt.Clear()
		if msg.rec.Type == domain.RecordSampling {
			m.sampling.Reset()
		}
		m.setOK(msgGenerated)
		return m, m.loadRecords()

	case recordsMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.records = msg.records
		m.clampPage()
		return m, nil

	case recordsClearedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setOK(msgRecordsCleared)
		return m, m.loadRecords()

	case usersMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.users = msg.users
		if m.userCursor >= len(m.users) {
			m.userCursor = max(len(m.users)-1, 0)
		}
		return m, nil

	case userChangedMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.creating = false
		m.userForm.Reset()
		m.setOK(msg.note)
		return m, m.loadUsers()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	}

	switch m.screen {
	case screenAccess:
		return m.handleAccessKeys(msg)
	case screenLogin:
		return m.handleLoginKeys(msg)
	case screenDetail:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Submit) {
			m.screen = screenDashboard
			m.detail = nil
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Logout) {
		return m, m.logout()
	}
	if !m.searching && !m.creating {
		switch {
		case key.Matches(msg, m.keys.NextTab):
			cmd := m.switchTab(1)
			return m, cmd
		case key.Matches(msg, m.keys.PrevTab):
			cmd := m.switchTab(-1)
			return m, cmd
		}
	}

	switch m.tab {
	case TabGenerate:
		return m.handleGenerateKeys(msg)
	case TabSampling:
		return m.handleSamplingKeys(msg)
	case TabRecords:
		return m.handleRecordsKeys(msg)
	case TabUsers:
		return m.handleUsersKeys(msg)
	}
	return m, nil
}

// editInput applies a text-editing key to in. It reports whether the key
// was consumed.
func editInput(in *input, msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyBackspace:
		in.HandleBackspace()
		return true
	case tea.KeyRunes, tea.KeySpace:
		for _, r := range msg.Runes {
			in.HandleRune(r)
		}
		return true
	}
	return false
}

// moveFocus handles field navigation inside a form.
func moveFocus(f *form, msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyDown, tea.KeyTab:
		f.Next()
		return true
	case tea.KeyUp, tea.KeyShiftTab:
		f.Prev()
		return true
	}
	return false
}

func (m Model) handleAccessKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) {
		if m.busy {
			return m, nil
		}
		code := strings.TrimSpace(m.access.Value())
		if code == "" {
			m.setStatusError(msgRequiredFields)
			return m, nil
		}
		m.busy = true
		gate, ctx := m.svc.Gate, m.ctx
		return m, func() tea.Msg {
			return accessResultMsg{err: gate.Validate(ctx, code)}
		}
	}
	editInput(m.access, msg)
	return m, nil
}

func (m Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if moveFocus(m.login, msg) {
		return m, nil
	}
	if key.Matches(msg, m.keys.Submit) {
		if m.busy {
			return m, nil
		}
		username := strings.TrimSpace(m.login.fields[0].Value())
		password := m.login.fields[1].Value()
		if username == "" || password == "" {
			m.setStatusError(msgRequiredFields)
			return m, nil
		}
		m.busy = true
		sessions, ctx := m.svc.Sessions, m.ctx
		return m, func() tea.Msg {
			user, err := sessions.Login(ctx, username, password)
			return loginResultMsg{user: user, err: err}
		}
	}
	editInput(m.login.Focused(), msg)
	return m, nil
}

func (m Model) handleGenerateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		prompt := m.prompt.Value()
		cmd := m.startGeneration(func(ctx context.Context, g Generator) (domain.GenerationRecord, error) {
			return g.GenerateText(ctx, prompt)
		})
		return m, cmd
	case key.Matches(msg, m.keys.Back):
		m.cancelGeneration()
		return m, nil
	}
	editInput(m.prompt, msg)
	return m, nil
}

func (m Model) handleSamplingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if moveFocus(m.sampling, msg) {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Submit):
		prompt := m.sampling.fields[0].Value()
		images := splitImages(m.sampling.fields[1].Value())
		cmd := m.startGeneration(func(ctx context.Context, g Generator) (domain.GenerationRecord, error) {
			return g.GenerateSampling(ctx, prompt, images)
		})
		return m, cmd
	case key.Matches(msg, m.keys.Back):
		m.cancelGeneration()
		return m, nil
	}
	editInput(m.sampling.Focused(), msg)
	return m, nil
}

func splitImages(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// startGeneration runs gen in the background. A second request while one
// is in flight is ignored.
func (m *Model) startGeneration(gen func(context.Context, Generator) (domain.GenerationRecord, error)) tea.Cmd {
	if m.busy {
		return nil
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.busy = true
	m.cancel = cancel
	m.status, m.statusErr = msgGenerating, false

	g := m.svc.Generator
	run := func() tea.Msg {
		defer cancel()
		rec, err := gen(ctx, g)
		return generatedMsg{rec: rec, err: err}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Model) cancelGeneration() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m Model) failGeneration(err error) (tea.Model, tea.Cmd) {
	if errors.Is(err, domain.ErrNoSession) || errors.Is(err, domain.ErrSessionExpired) {
		m.resetSession()
		m.setError(err)
		return m, nil
	}
	if !errors.Is(err, domain.ErrValidation) && !errors.Is(err, context.Canceled) {
		m.svc.Log.Warn(m.ctx, "generation failed", "error", err)
	}
	m.setError(err)
	return m, nil
}

func (m Model) handleRecordsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch {
		case key.Matches(msg, m.keys.Submit):
			m.searching = false
		case key.Matches(msg, m.keys.Back):
			m.searching = false
			m.search.Clear()
			m.setFilter(func(f *app.Filter) { f.Search = "" })
		default:
			if editInput(m.search, msg) {
				value := m.search.Value()
				m.setFilter(func(f *app.Filter) { f.Search = value })
			}
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
	case key.Matches(msg, m.keys.CycleType):
		m.setFilter(func(f *app.Filter) { f.Type = nextType(f.Type) })
	case key.Matches(msg, m.keys.CycleDate):
		m.setFilter(func(f *app.Filter) { f.Date = nextDate(f.Date) })
	case key.Matches(msg, m.keys.NextPage):
		if m.page < m.totalPages() {
			m.page++
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.PrevPage):
		if m.page > 1 {
			m.page--
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.pageRecords())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Submit):
		if recs := m.pageRecords(); m.cursor < len(recs) {
			rec := recs[m.cursor]
			m.detail = &rec
			m.screen = screenDetail
		}
	case key.Matches(msg, m.keys.ClearAll):
		records, ctx := m.svc.Records, m.ctx
		return m, func() tea.Msg {
			return recordsClearedMsg{err: records.Clear(ctx)}
		}
	}
	return m, nil
}

// setFilter changes the filter and returns to the first page.
func (m *Model) setFilter(change func(*app.Filter)) {
	change(&m.filter)
	m.page = 1
	m.cursor = 0
}

func nextType(t domain.RecordType) domain.RecordType {
	order := append([]domain.RecordType{""}, domain.RecordTypes...)
	for i, v := range order {
		if v == t {
			return order[(i+1)%len(order)]
		}
	}
	return ""
}

func nextDate(d app.DateBucket) app.DateBucket {
	order := []app.DateBucket{app.DateAny, app.DateToday, app.DateWeek, app.DateMonth}
	for i, v := range order {
		if v == d {
			return order[(i+1)%len(order)]
		}
	}
	return app.DateAny
}

func (m Model) filtered() []domain.GenerationRecord {
	return app.Query(m.records, m.filter, m.svc.Clock.Now())
}

func (m Model) pageRecords() []domain.GenerationRecord {
	return app.Paginate(m.filtered(), m.page, app.DefaultPageSize)
}

func (m Model) totalPages() int {
	return app.TotalPages(len(m.filtered()), app.DefaultPageSize)
}

func (m *Model) clampPage() {
	if total := m.totalPages(); m.page > total {
		m.page = max(total, 1)
	}
	if n := len(m.pageRecords()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m Model) handleUsersKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.creating {
		if moveFocus(m.userForm, msg) {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Back):
			m.creating = false
			m.userForm.Reset()
			m.clearStatus()
		case key.Matches(msg, m.keys.Submit):
			cmd := m.createUser()
			return m, cmd
		default:
			editInput(m.userForm.Focused(), msg)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.userCursor > 0 {
			m.userCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.userCursor < len(m.users)-1 {
			m.userCursor++
		}
	case key.Matches(msg, m.keys.NewUser):
		m.creating = true
		m.clearStatus()
	case key.Matches(msg, m.keys.ToggleActive):
		cmd := m.toggleUser()
		return m, cmd
	case key.Matches(msg, m.keys.DeleteUser):
		cmd := m.deleteUser()
		return m, cmd
	}
	return m, nil
}

func (m *Model) createUser() tea.Cmd {
	if m.busy {
		return nil
	}
	f := m.userForm.fields
	in := app.NewUser{
		Username: f[0].Value(),
		Email:    f[1].Value(),
		Password: f[2].Value(),
		Role:     domain.Role(strings.TrimSpace(f[3].Value())),
	}
	m.busy = true
	m.status, m.statusErr = msgSaving, false
	users, ctx, actor := m.svc.Users, m.ctx, m.user
	return func() tea.Msg {
		_, err := users.Create(ctx, actor, in)
		return userChangedMsg{note: msgUserCreated, err: err}
	}
}

func (m *Model) selectedUser() (domain.UserView, bool) {
	if m.userCursor < 0 || m.userCursor >= len(m.users) {
		return domain.UserView{}, false
	}
	return m.users[m.userCursor], true
}

func (m *Model) toggleUser() tea.Cmd {
	target, ok := m.selectedUser()
	if !ok {
		return nil
	}
	if target.Active && m.user != nil && target.ID == m.user.ID {
		m.setStatusError(msgDeactivateSelf)
		return nil
	}
	active := !target.Active
	users, ctx, actor := m.svc.Users, m.ctx, m.user
	return func() tea.Msg {
		_, err := users.Update(ctx, actor, target.ID, app.UserUpdate{Active: &active})
		return userChangedMsg{note: msgUserUpdated, err: err}
	}
}

func (m *Model) deleteUser() tea.Cmd {
	target, ok := m.selectedUser()
	if !ok {
		return nil
	}
	if m.user != nil && target.ID == m.user.ID {
		m.setStatusError(msgDeleteSelf)
		return nil
	}
	users, ctx, actor := m.svc.Users, m.ctx, m.user
	return func() tea.Msg {
		return userChangedMsg{note: msgUserDeleted, err: users.Delete(ctx, actor, target.ID)}
	}
}

// tabs lists the tabs the current user may open.
func (m Model) tabs() []Tab {
	tabs := []Tab{TabGenerate, TabSampling, TabRecords}
	if m.svc.Users != nil && m.user != nil && m.user.IsAdmin() && m.user.HasPermission(domain.PermUserManagement) {
		tabs = append(tabs, TabUsers)
	}
	return tabs
}

func (m *Model) switchTab(delta int) tea.Cmd {
	tabs := m.tabs()
	idx := 0
	for i, t := range tabs {
		if t == m.tab {
			idx = i
		}
	}
	m.tab = tabs[(idx+delta+len(tabs))%len(tabs)]
	m.clearStatus()
	switch m.tab {
	case TabRecords:
		return m.loadRecords()
	case TabUsers:
		return m.loadUsers()
	}
	return nil
}

func (m *Model) enterDashboard(user domain.UserView) {
	m.user = &user
	m.screen = screenDashboard
	m.tab = TabGenerate
	m.clearStatus()
}

func (m *Model) resetSession() {
	m.cancelGeneration()
	m.user = nil
	m.screen = screenLogin
	m.busy = false
	m.cancel = nil
	m.records = nil
	m.users = nil
	m.last = nil
	m.filter = app.Filter{}
	m.page, m.cursor = 1, 0
	m.clearStatus()
}

func (m Model) verifySession() tea.Cmd {
	sessions, ctx := m.svc.Sessions, m.ctx
	return func() tea.Msg {
		user, err := sessions.VerifySession(ctx)
		return sessionCheckedMsg{user: user, err: err}
	}
}

func (m Model) logout() tea.Cmd {
	m.cancelGeneration()
	sessions, ctx := m.svc.Sessions, m.ctx
	return func() tea.Msg {
		sessions.Logout(ctx)
		return loggedOutMsg{}
	}
}

func (m Model) loadRecords() tea.Cmd {
	records, ctx := m.svc.Records, m.ctx
	return func() tea.Msg {
		list, err := records.List(ctx)
		return recordsMsg{records: list, err: err}
	}
}

func (m Model) loadUsers() tea.Cmd {
	if m.svc.Users == nil {
		return nil
	}
	users, ctx, actor := m.svc.Users, m.ctx, m.user
	return func() tea.Msg {
		list, err := users.List(ctx, actor)
		return usersMsg{users: list, err: err}
	}
}

func (m *Model) setError(err error) {
	m.status, m.statusErr = errorText(err), true
}

func (m *Model) setStatusError(text string) {
	m.status, m.statusErr = text, true
}

func (m *Model) setOK(text string) {
	m.status, m.statusErr = text, false
}

func (m *Model) clearStatus() {
	m.status, m.statusErr = "", false
}
