package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"dashboard/internal/app"
	"dashboard/internal/domain"
)

const (
	appTitle   = "Dolce AI 生成平台"
	timeLayout = "2006-01-02 15:04"
)

// View renders the current screen.
func (m Model) View() string {
	var body string
	switch m.screen {
	case screenAccess:
		body = m.viewAccess()
	case screenLogin:
		body = m.viewLogin()
	case screenDetail:
		body = m.viewDetail()
	default:
		body = m.viewDashboard()
	}

	parts := []string{m.styles.title.Render(appTitle), "", body}
	if m.status != "" {
		st := m.styles.ok
		if m.statusErr {
			st = m.styles.err
		}
		line := m.status
		if m.busy && !m.statusErr {
			line = m.spinner.View() + " " + line
		}
		parts = append(parts, "", st.Render(line))
	}
	parts = append(parts, "", m.styles.faint.Render(m.helpLine()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewAccess() string {
	return m.styles.box.Render(lipgloss.JoinVertical(lipgloss.Left,
		"請輸入今日訪問碼",
		"",
		m.access.label+"："+m.access.Render(true),
	))
}

func (m Model) viewLogin() string {
	return m.styles.box.Render(m.renderForm(m.login, "登入"))
}

func (m Model) renderForm(f *form, heading string) string {
	lines := []string{heading, ""}
	for i, in := range f.fields {
		label := in.label + "："
		if i == f.focus {
			label = m.styles.focused.Render(label)
		}
		lines = append(lines, label+in.Render(i == f.focus))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewDashboard() string {
	var tabs []string
	for _, t := range m.tabs() {
		st := m.styles.tab
		if t == m.tab {
			st = m.styles.tabOn
		}
		tabs = append(tabs, st.Render(tabLabels[t]))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.user != nil {
		header += "  " + m.styles.faint.Render(m.user.Username+" ("+roleLabel(m.user.Role)+")")
	}

	var content string
	switch m.tab {
	case TabGenerate:
		content = m.viewGenerate()
	case TabSampling:
		content = m.viewSampling()
	case TabRecords:
		content = m.viewRecords()
	case TabUsers:
		content = m.viewUsers()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", content)
}

func (m Model) viewGenerate() string {
	lines := []string{m.prompt.label + "：" + m.prompt.Render(true)}
	if m.last != nil && m.last.Type != domain.RecordSampling {
		lines = append(lines, "", m.renderResult(*m.last))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewSampling() string {
	lines := []string{m.renderForm(m.sampling, "上傳圖片並輸入打樣提示詞")}
	if n := len(splitImages(m.sampling.fields[1].Value())); n > 0 {
		lines = append(lines, m.styles.faint.Render(fmt.Sprintf("已上傳 %d 張圖片", n)))
	}
	if m.last != nil && m.last.Type == domain.RecordSampling {
		lines = append(lines, "", m.renderResult(*m.last))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderResult(rec domain.GenerationRecord) string {
	text := rec.PlainResult()
	if src := rec.ImageSource(); src != "" {
		text = "圖片：" + src + "\n" + text
	}
	st := m.styles.box
	if m.width > 8 {
		st = st.Width(m.width - 4)
	}
	return st.Render(text)
}

func (m Model) viewRecords() string {
	search := m.search.Value()
	if m.searching {
		search = m.search.Render(true)
	}
	filterLine := fmt.Sprintf("搜尋：%s  類型：%s  日期：%s", search, typeLabel(m.filter.Type), dateLabel(m.filter.Date))

	filtered := m.filtered()
	page := app.Paginate(filtered, m.page, app.DefaultPageSize)
	lines := []string{m.styles.faint.Render(filterLine), ""}
	if len(page) == 0 {
		lines = append(lines, m.styles.faint.Render("沒有找到相關記錄"))
	}
	for i, rec := range page {
		row := fmt.Sprintf("%s  %s  %s",
			m.badge(rec.Type), rec.Timestamp.Local().Format(timeLayout), truncate(rec.Prompt, 40))
		if i == m.cursor {
			row = m.styles.selected.Render(row)
		}
		lines = append(lines, row)
	}

	lines = append(lines, "",
		fmt.Sprintf("顯示 %d 筆，共 %d 筆資料", len(page), len(filtered)),
		m.renderPager(app.TotalPages(len(filtered), app.DefaultPageSize)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderPager(total int) string {
	items := app.PageWindow(m.page, total)
	if len(items) == 0 {
		return ""
	}
	parts := []string{"上一頁"}
	for _, it := range items {
		switch {
		case it.Ellipsis:
			parts = append(parts, "…")
		case it.Current:
			parts = append(parts, m.styles.tabOn.Render(fmt.Sprint(it.Page)))
		default:
			parts = append(parts, fmt.Sprint(it.Page))
		}
	}
	parts = append(parts, "下一頁")
	return strings.Join(parts, " ")
}

func (m Model) viewDetail() string {
	if m.detail == nil {
		return ""
	}
	rec := *m.detail
	return lipgloss.JoinVertical(lipgloss.Left,
		m.badge(rec.Type)+"  "+rec.Timestamp.Local().Format(timeLayout),
		"",
		"提示詞："+rec.Prompt,
		"",
		m.renderResult(rec),
	)
}

func (m Model) viewUsers() string {
	if m.creating {
		return m.styles.box.Render(m.renderForm(m.userForm, "新增使用者"))
	}
	lines := []string{}
	for i, u := range m.users {
		state := "啟用"
		if !u.Active {
			state = "停用"
		}
		row := fmt.Sprintf("%-12s %-24s %-6s %s", u.Username, u.Email, roleLabel(u.Role), state)
		if i == m.userCursor {
			row = m.styles.selected.Render(row)
		}
		lines = append(lines, row)
	}
	if len(lines) == 0 {
		lines = append(lines, m.styles.faint.Render("沒有使用者"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) helpLine() string {
	var bindings []key.Binding
	switch m.screen {
	case screenAccess, screenLogin:
		bindings = []key.Binding{m.keys.Submit, m.keys.Quit}
	case screenDetail:
		bindings = []key.Binding{m.keys.Back}
	default:
		bindings = []key.Binding{m.keys.NextTab, m.keys.Submit}
		switch m.tab {
		case TabRecords:
			bindings = append(bindings, m.keys.Search, m.keys.CycleType, m.keys.CycleDate,
				m.keys.PrevPage, m.keys.NextPage, m.keys.ClearAll)
		case TabUsers:
			bindings = append(bindings, m.keys.NewUser, m.keys.ToggleActive, m.keys.DeleteUser)
		default:
			bindings = append(bindings, m.keys.Back)
		}
		bindings = append(bindings, m.keys.Logout, m.keys.Quit)
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

func (m Model) badge(t domain.RecordType) string {
	st, ok := m.styles.badges[string(t)]
	if !ok {
		return t.Label()
	}
	return st.Render(t.Label())
}

func typeLabel(t domain.RecordType) string {
	if t == "" {
		return "全部"
	}
	return t.Label()
}

func dateLabel(d app.DateBucket) string {
	switch d {
	case app.DateToday:
		return "今天"
	case app.DateWeek:
		return "本週"
	case app.DateMonth:
		return "本月"
	default:
		return "全部"
	}
}

func roleLabel(r domain.Role) string {
	if r == domain.RoleAdmin {
		return "管理員"
	}
	return "一般用戶"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
