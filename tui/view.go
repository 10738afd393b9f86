package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"tarefas-cli/diff"
	"tarefas-cli/model"
)

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "carregando..."
	}

	var body string
	switch m.mode {
	case modeAdd:
		body = m.renderAddForm()
	case modeDetail:
		body = m.renderDetail()
	case modeCompare:
		body = m.renderCompare()
	default:
		body = m.renderTaskTable()
	}

	parts := []string{m.renderHeader(), body, m.renderFooter()}
	if prompt := m.renderPrompt(); prompt != "" {
		parts = append(parts, prompt)
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderHeader() string {
	total, completed, selected := m.svc.Counts()
	title := lipgloss.NewStyle().Bold(true).Render("tarefas")
	summary := fmt.Sprintf("total: %d • concluídas: %d • selecionadas: %d • filtro: %s",
		total, completed, selected, filterLabel(m.filter))
	return lipgloss.JoinHorizontal(lipgloss.Left,
		title,
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("  "+summary),
	)
}

func (m *Model) renderTaskTable() string {
	viewW := m.viewportWidth()
	innerW := viewW - 4
	if innerW < 40 {
		innerW = 40
	}
	panelH := m.height - 5
	if panelH < 8 {
		panelH = 8
	}

	tasks := m.visibleTasks()
	lines := make([]string, 0, len(tasks)+2)
	lines = append(lines, m.renderTableHeader(innerW))

	if len(tasks) == 0 {
		empty := "Nenhuma tarefa. Pressione 'a' para adicionar a primeira."
		if m.filter != model.FilterAll {
			empty = "Nenhuma tarefa para o filtro atual (use 'f')."
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(empty))
	} else {
		for i, t := range tasks {
			lines = append(lines, m.renderTaskRow(t, i == m.cursor, innerW))
		}
	}

	if m.showHelp {
		popup := m.renderHelpOverlay(min(innerW, 78))
		return lipgloss.Place(viewW, panelH, lipgloss.Center, lipgloss.Center, popup)
	}

	frameColor := lipgloss.Color("240")
	if m.mode == modeList {
		frameColor = lipgloss.Color("39")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(frameColor).
		Width(viewW - 2).
		Height(panelH).
		Render(strings.Join(lines, "\n"))
}

// column widths for the fixed part of a row; the short description takes the
// remaining space.
const (
	colSel      = 3
	colID       = 4
	colProject  = 16
	colPriority = 8
	colTime     = 17
	colState    = 10
)

func (m *Model) renderTableHeader(width int) string {
	descW := descColumnWidth(width)
	head := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %-*s %-*s %-*s",
		colSel, "sel",
		colID, "id",
		colProject, "projeto",
		descW, "descrição",
		colPriority, "prior.",
		colTime, "criada",
		colTime, "modificada",
		colState, "estado",
	)
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111")).Render(head)
}

func (m *Model) renderTaskRow(t model.Task, active bool, width int) string {
	descW := descColumnWidth(width)

	sel := " "
	if m.svc.IsSelected(t.UID) {
		sel = "✓"
	}
	state := "pendente"
	if t.Completed {
		state = "concluída"
	}

	row := fmt.Sprintf("%-*s %-*d %-*s %-*s %s %-*s %-*s %-*s",
		colSel, sel,
		colID, t.ID,
		colProject, truncateRunes(t.Project, colProject),
		descW, truncateRunes(t.ShortDesc, descW),
		priorityCell(t.Priority),
		colTime, truncateRunes(t.CreateTime, colTime),
		colTime, truncateRunes(t.ModifiedTime, colTime),
		colState, state,
	)

	style := lipgloss.NewStyle()
	if t.Completed {
		style = style.Faint(true)
	}
	if active {
		style = style.Bold(true).Foreground(lipgloss.Color("229"))
		row = "▸" + row[1:]
	}
	return style.Render(row)
}

func descColumnWidth(total int) int {
	fixed := colSel + colID + colProject + colPriority + 2*colTime + colState + 8
	w := total - fixed
	if w < 12 {
		w = 12
	}
	return w
}

func (m *Model) renderAddForm() string {
	viewW := m.viewportWidth()
	label := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	focused := func(field int) string {
		if m.addFocus == field {
			return lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Render("▸ ")
		}
		return "  "
	}

	priorityLine := focused(fieldPriority) + label.Render("Prioridade: ") + priorityCell(m.priority) + " " + priorityLabel(m.priority)
	if m.addFocus == fieldPriority {
		priorityLine += lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("  (←/→ altera)")
	}

	rows := []string{
		lipgloss.NewStyle().Bold(true).Render("Nova tarefa"),
		"",
		focused(fieldProject) + label.Render("Projeto:"),
		"  " + m.projectInput.View(),
		"",
		focused(fieldShortDesc) + label.Render("Descrição simples:"),
		"  " + m.shortInput.View(),
		"",
		priorityLine,
		"",
		focused(fieldLongDesc) + label.Render("Descrição detalhada:"),
		m.descArea.View(),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("Tab alterna campos • Ctrl+S adiciona • Esc cancela"),
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("39")).
		Padding(0, 1).
		Width(viewW - 2).
		Render(strings.Join(rows, "\n"))
}

func (m *Model) renderDetail() string {
	task, ok := m.detailTask()
	if !ok {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render("A tarefa não existe mais. Esc volta.")
	}
	viewW := m.viewportWidth()
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	state := "pendente"
	if task.Completed {
		state = "concluída"
	}
	meta := fmt.Sprintf("#%d • %s • %s • prioridade %s • criada %s • modificada %s",
		task.ID, task.Project, state, priorityLabel(task.Priority), task.CreateTime, task.ModifiedTime)

	rows := []string{
		lipgloss.NewStyle().Bold(true).Render(task.ShortDesc),
		dim.Render(meta),
		"",
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111")).Render("Histórico de versões"),
	}

	versions := historyNewestFirst(task)
	latestVersion := 0
	if latest, err := task.History.Latest(); err == nil {
		latestVersion = latest.Version
	}
	for i, v := range versions {
		cursor := " "
		if i == m.histCursor && !m.editing {
			cursor = "▸"
		}
		tag := string(v.Action)
		if v.Version == latestVersion {
			tag += " • atual"
		}
		line := fmt.Sprintf("%s v%d  %s  (%s)", cursor, v.Version, v.Timestamp, tag)
		style := lipgloss.NewStyle()
		if i == m.histCursor && !m.editing {
			style = style.Bold(true).Foreground(lipgloss.Color("229"))
		} else if v.Version != latestVersion {
			style = style.Faint(true)
		}
		rows = append(rows, style.Render(line))
	}

	rows = append(rows, "")
	if m.editing {
		rows = append(rows,
			lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111")).Render("Descrição detalhada (editando)"),
			m.editArea.View(),
			"",
			dim.Render("Ctrl+S salva como nova versão • Esc cancela"),
		)
	} else {
		content := ""
		if ver, ok := m.selectedVersion(); ok {
			content = ver.Content
		}
		if strings.TrimSpace(content) == "" {
			content = dim.Render("(sem descrição)")
		}
		rows = append(rows,
			lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111")).Render("Descrição detalhada"),
			content,
			"",
			dim.Render("e edita (última versão) • o abre pasta • c compara com anterior • Esc volta"),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("39")).
		Padding(0, 1).
		Width(viewW - 2).
		Render(strings.Join(rows, "\n"))
}

func (m *Model) renderCompare() string {
	viewW := m.viewportWidth()
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	added := lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	removed := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	rows := []string{
		lipgloss.NewStyle().Bold(true).Render(
			fmt.Sprintf("Comparação v%d → v%d", m.comparePrev.Version, m.compareCurr.Version)),
		dim.Render(fmt.Sprintf("v%d: %s • v%d: %s",
			m.comparePrev.Version, m.comparePrev.Timestamp,
			m.compareCurr.Version, m.compareCurr.Timestamp)),
		"",
	}

	if m.compareSummary.Empty() {
		rows = append(rows, dim.Render("Sem alterações"))
	} else {
		for _, line := range m.compareSummary.Lines {
			if line.Kind == diff.Added {
				rows = append(rows, added.Render("+ "+line.Text))
			} else {
				rows = append(rows, removed.Render("- "+line.Text))
			}
		}
	}

	rows = append(rows, "", dim.Render("Esc volta para o detalhe"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("39")).
		Padding(0, 1).
		Width(viewW - 2).
		Render(strings.Join(rows, "\n"))
}

func (m *Model) renderPrompt() string {
	prompt := ""
	switch m.mode {
	case modeConfirmDelete:
		prompt = fmt.Sprintf("Excluir %s? [y/N]", m.deleteName)
	case modeConfirmClear:
		_, completed, _ := m.svc.Counts()
		prompt = fmt.Sprintf("Remover as %d tarefa(s) concluída(s)? [y/N]", completed)
	}
	if prompt == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Width(m.viewportWidth()).Render(prompt)
}

func (m *Model) renderFooter() string {
	left := strings.TrimSpace(m.status)
	if left == "" {
		left = "Pronto"
	}
	right := "? atalhos"
	if m.showHelp {
		right = "Esc/? fechar atalhos"
	}

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	if m.statusErr {
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}

	leftW := utf8.RuneCountInString(left)
	rightW := utf8.RuneCountInString(right)
	width := m.viewportWidth()
	if leftW+rightW+1 > width {
		maxLeft := width - rightW - 1
		if maxLeft < 8 {
			maxLeft = 8
		}
		left = truncateRunes(left, maxLeft)
		leftW = utf8.RuneCountInString(left)
	}

	padding := width - leftW - rightW
	if padding < 1 {
		padding = 1
	}
	rightStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	line := statusStyle.Render(left) + strings.Repeat(" ", padding) + rightStyle.Render(right)
	return lipgloss.NewStyle().Width(width).Render(line)
}

func (m *Model) renderHelpOverlay(width int) string {
	title := lipgloss.NewStyle().Bold(true).Render("Atalhos")
	section := lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	line := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	rows := []string{
		title,
		"",
		section.Render("Lista"),
		line.Render("  j/k navega • Espaço seleciona • s todas • i inverte"),
		line.Render("  a adiciona • x conclui/reabre • d exclui • C limpa concluídas"),
		line.Render("  f filtro • o abre pasta • Enter detalhe • q sai"),
		"",
		section.Render("Detalhe"),
		line.Render("  j/k versões • e edita última • o abre pasta da versão"),
		line.Render("  c compara com a anterior • Esc volta"),
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("244")).
		Padding(1, 2)
	return style.Width(width).Render(strings.Join(rows, "\n"))
}

func (m *Model) viewportWidth() int {
	if m.width <= 0 {
		return 1
	}
	// Reservamos 1 coluna para evitar clipping/wrap no último caractere
	// em alguns terminais.
	if m.width > 1 {
		return m.width - 1
	}
	return m.width
}

func priorityCell(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render("● alta  ")
	case model.PriorityLow:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Render("● baixa ")
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Render("● média ")
	}
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "alta"
	case model.PriorityLow:
		return "baixa"
	default:
		return "média"
	}
}

func filterLabel(f model.Filter) string {
	switch f {
	case model.FilterIncomplete:
		return "pendentes"
	case model.FilterComplete:
		return "concluídas"
	default:
		return "todas"
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
