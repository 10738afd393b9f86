package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tarefas-cli/app"
	"tarefas-cli/diff"
	"tarefas-cli/folder"
	"tarefas-cli/model"
	"tarefas-cli/store"
)

type uiMode int

const (
	modeList uiMode = iota
	modeAdd
	modeDetail
	modeCompare
	modeConfirmDelete
	modeConfirmClear
)

// add form focus order
const (
	fieldProject = iota
	fieldShortDesc
	fieldPriority
	fieldLongDesc
	fieldCount
)

type Model struct {
	svc       *app.Service
	statePath string

	mode   uiMode
	filter model.Filter
	cursor int

	// add form
	projectInput textinput.Model
	shortInput   textinput.Model
	priority     model.Priority
	descArea     textarea.Model
	addFocus     int

	// detail view
	detailID   int
	histCursor int
	editArea   textarea.Model
	editing    bool

	// compare view
	comparePrev    model.DescriptionVersion
	compareCurr    model.DescriptionVersion
	compareSummary diff.Summary

	// pending delete confirmation
	deleteIDs  []int
	deleteName string

	showHelp bool

	status    string
	statusErr bool

	width  int
	height int
}

func NewModel(svc *app.Service, statePath, startupStatus string) *Model {
	status := strings.TrimSpace(startupStatus)
	if status == "" {
		status = "Pronto"
	}

	project := textinput.New()
	project.Placeholder = model.DefaultProject
	project.CharLimit = 120

	short := textinput.New()
	short.Placeholder = "obrigatório"
	short.CharLimit = 200

	desc := textarea.New()
	desc.Placeholder = "Descrição detalhada (opcional)"

	edit := textarea.New()

	return &Model{
		svc:          svc,
		statePath:    statePath,
		filter:       model.FilterAll,
		status:       status,
		projectInput: project,
		shortInput:   short,
		priority:     model.PriorityMedium,
		descArea:     desc,
		editArea:     edit,
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeAreas()
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m, m.updateAddMode(msg)
		case modeDetail:
			return m, m.updateDetailMode(msg)
		case modeCompare:
			m.updateCompareMode(msg)
		case modeConfirmDelete, modeConfirmClear:
			m.updateConfirmMode(msg)
		default:
			if quit := m.updateListMode(msg); quit {
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m *Model) updateListMode(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "ctrl+c", "q":
		return true
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case " ":
		m.toggleSelection()
	case "s":
		m.svc.SelectAll()
		m.setStatus("Todas as tarefas selecionadas", false)
	case "i":
		m.svc.InvertSelection()
		m.setStatus("Seleção invertida", false)
	case "esc":
		if m.showHelp {
			m.showHelp = false
			break
		}
		m.svc.ClearSelection()
		m.setStatus("Seleção limpa", false)
	case "a":
		m.startAdd()
	case "x":
		m.toggleCompleted()
	case "d":
		m.startDeleteConfirm()
	case "C":
		m.startClearConfirm()
	case "f":
		m.cycleFilter()
	case "o":
		m.openCursorFolder()
	case "enter":
		m.openDetail()
	case "?":
		m.showHelp = !m.showHelp
	}
	m.ensureCursor()
	return false
}

func (m *Model) updateAddMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.setStatus("Cadastro cancelado", false)
		return nil
	case "tab":
		m.focusAddField((m.addFocus + 1) % fieldCount)
		return nil
	case "shift+tab":
		m.focusAddField((m.addFocus + fieldCount - 1) % fieldCount)
		return nil
	case "ctrl+s":
		m.submitAdd()
		return nil
	case "enter":
		// Enter advances until the description area, which is multiline.
		if m.addFocus != fieldLongDesc {
			m.focusAddField((m.addFocus + 1) % fieldCount)
			return nil
		}
	case "left", "right":
		if m.addFocus == fieldPriority {
			m.cyclePriority(msg.String() == "right")
			return nil
		}
	}

	var cmd tea.Cmd
	switch m.addFocus {
	case fieldProject:
		m.projectInput, cmd = m.projectInput.Update(msg)
	case fieldShortDesc:
		m.shortInput, cmd = m.shortInput.Update(msg)
	case fieldLongDesc:
		m.descArea, cmd = m.descArea.Update(msg)
	}
	return cmd
}

func (m *Model) updateDetailMode(msg tea.KeyMsg) tea.Cmd {
	if m.editing {
		switch msg.String() {
		case "esc":
			m.editing = false
			m.editArea.Blur()
			m.setStatus("Edição cancelada", false)
			return nil
		case "ctrl+s":
			m.saveEditedDescription()
			return nil
		}
		var cmd tea.Cmd
		m.editArea, cmd = m.editArea.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "esc", "q":
		m.mode = modeList
		m.setStatus("Pronto", false)
	case "j", "down":
		m.moveHistoryCursor(1)
	case "k", "up":
		m.moveHistoryCursor(-1)
	case "e":
		m.startEditDescription()
	case "o":
		m.openHistoryFolder()
	case "c":
		m.openCompare()
	}
	return nil
}

func (m *Model) updateCompareMode(msg tea.KeyMsg) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.mode = modeDetail
	}
}

func (m *Model) updateConfirmMode(msg tea.KeyMsg) {
	switch strings.ToLower(msg.String()) {
	case "y":
		if m.mode == modeConfirmClear {
			m.confirmClearCompleted()
			return
		}
		m.confirmDelete()
	case "n", "esc", "enter":
		m.deleteIDs = nil
		m.deleteName = ""
		m.mode = modeList
		m.setStatus("Ação cancelada", false)
	}
}

func (m *Model) startAdd() {
	m.mode = modeAdd
	m.projectInput.SetValue("")
	m.shortInput.SetValue("")
	m.descArea.SetValue("")
	m.priority = model.PriorityMedium
	m.focusAddField(fieldProject)
}

func (m *Model) focusAddField(field int) {
	m.addFocus = field
	m.projectInput.Blur()
	m.shortInput.Blur()
	m.descArea.Blur()
	switch field {
	case fieldProject:
		m.projectInput.Focus()
	case fieldShortDesc:
		m.shortInput.Focus()
	case fieldLongDesc:
		m.descArea.Focus()
	}
}

func (m *Model) cyclePriority(forward bool) {
	order := []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow}
	idx := 1
	for i, p := range order {
		if p == m.priority {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(order)
	} else {
		idx = (idx + len(order) - 1) % len(order)
	}
	m.priority = order[idx]
}

func (m *Model) submitAdd() {
	task, err := m.svc.AddTask(m.projectInput.Value(), m.shortInput.Value(), m.priority, m.descArea.Value())
	if err != nil {
		switch {
		case errors.Is(err, app.ErrShortDescEmpty):
			m.setStatus("Descrição simples não pode ser vazia", true)
			m.focusAddField(fieldShortDesc)
		case errors.Is(err, app.ErrProvisionFailed):
			m.setStatus("Falha ao criar a pasta da tarefa: "+err.Error(), true)
		default:
			m.setStatus("Erro ao adicionar tarefa: "+err.Error(), true)
		}
		return
	}

	m.mode = modeList
	m.cursor = m.indexOfTask(task.ID)
	m.persist(fmt.Sprintf("Tarefa #%d criada", task.ID))
	if v1, err := task.History.Latest(); err == nil {
		m.presentFolder(v1.FolderPath)
	}
}

func (m *Model) toggleSelection() {
	task, ok := m.cursorTask()
	if !ok {
		return
	}
	m.svc.ToggleSelected(task.UID)
	if m.svc.IsSelected(task.UID) {
		m.setStatus(fmt.Sprintf("Tarefa #%d selecionada", task.ID), false)
	} else {
		m.setStatus(fmt.Sprintf("Tarefa #%d desselecionada", task.ID), false)
	}
}

// actionIDs returns the ids an action applies to: the selection when there is
// one, otherwise the task under the cursor.
func (m *Model) actionIDs() []int {
	if ids := m.svc.SelectedIDs(); len(ids) > 0 {
		return ids
	}
	if task, ok := m.cursorTask(); ok {
		return []int{task.ID}
	}
	return nil
}

func (m *Model) toggleCompleted() {
	ids := m.actionIDs()
	if len(ids) == 0 {
		m.setStatus("Nenhuma tarefa para marcar", true)
		return
	}
	m.svc.ToggleCompleted(ids)
	m.persist(fmt.Sprintf("%d tarefa(s) alternada(s)", len(ids)))
}

func (m *Model) startDeleteConfirm() {
	ids := m.actionIDs()
	if len(ids) == 0 {
		m.setStatus("Nenhuma tarefa para excluir", true)
		return
	}
	name := fmt.Sprintf("%d tarefas", len(ids))
	if len(ids) == 1 {
		if task, err := m.svc.Task(ids[0]); err == nil {
			name = fmt.Sprintf("\"%s\"", task.ShortDesc)
		}
	}
	m.mode = modeConfirmDelete
	m.deleteIDs = ids
	m.deleteName = name
}

func (m *Model) confirmDelete() {
	count := len(m.deleteIDs)
	m.svc.DeleteTasks(m.deleteIDs)
	m.deleteIDs = nil
	m.deleteName = ""
	m.mode = modeList
	m.cursor = 0
	m.persist(fmt.Sprintf("%d tarefa(s) excluída(s)", count))
}

func (m *Model) startClearConfirm() {
	_, completed, _ := m.svc.Counts()
	if completed == 0 {
		m.setStatus("Não há tarefas concluídas para limpar", false)
		return
	}
	m.mode = modeConfirmClear
}

func (m *Model) confirmClearCompleted() {
	count, err := m.svc.ClearCompleted()
	m.mode = modeList
	if err != nil {
		if errors.Is(err, app.ErrNoCompletedTasks) {
			m.setStatus("Não há tarefas concluídas para limpar", false)
			return
		}
		m.setStatus("Erro ao limpar concluídas: "+err.Error(), true)
		return
	}
	m.cursor = 0
	m.persist(fmt.Sprintf("%d tarefa(s) concluída(s) removida(s)", count))
}

func (m *Model) cycleFilter() {
	switch m.filter {
	case model.FilterAll:
		m.filter = model.FilterIncomplete
	case model.FilterIncomplete:
		m.filter = model.FilterComplete
	default:
		m.filter = model.FilterAll
	}
	m.cursor = 0
	m.setStatus("Filtro: "+filterLabel(m.filter), false)
}

func (m *Model) openCursorFolder() {
	task, ok := m.cursorTask()
	if !ok {
		m.setStatus("Nenhuma tarefa selecionada", true)
		return
	}
	latest, err := task.History.Latest()
	if err != nil {
		m.setStatus("Tarefa sem histórico de versões", true)
		return
	}
	m.presentFolder(latest.FolderPath)
}

func (m *Model) openDetail() {
	task, ok := m.cursorTask()
	if !ok {
		m.setStatus("Nenhuma tarefa selecionada", true)
		return
	}
	m.mode = modeDetail
	m.detailID = task.ID
	m.histCursor = 0
	m.editing = false
	m.editArea.Blur()
	m.resizeAreas()
}

func (m *Model) detailTask() (model.Task, bool) {
	task, err := m.svc.Task(m.detailID)
	if err != nil {
		return model.Task{}, false
	}
	return task, true
}

// historyNewestFirst returns the versions ordered by descending version
// number, the order they are listed in.
func historyNewestFirst(task model.Task) []model.DescriptionVersion {
	versions := make([]model.DescriptionVersion, len(task.History))
	copy(versions, task.History)
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Version > versions[j].Version
	})
	return versions
}

func (m *Model) moveHistoryCursor(delta int) {
	task, ok := m.detailTask()
	if !ok {
		return
	}
	versions := historyNewestFirst(task)
	if len(versions) == 0 {
		return
	}
	m.histCursor = clamp(m.histCursor+delta, 0, len(versions)-1)
}

func (m *Model) selectedVersion() (model.DescriptionVersion, bool) {
	task, ok := m.detailTask()
	if !ok {
		return model.DescriptionVersion{}, false
	}
	versions := historyNewestFirst(task)
	if len(versions) == 0 {
		return model.DescriptionVersion{}, false
	}
	idx := clamp(m.histCursor, 0, len(versions)-1)
	return versions[idx], true
}

func (m *Model) startEditDescription() {
	task, ok := m.detailTask()
	if !ok {
		return
	}
	latest, err := task.History.Latest()
	if err != nil {
		m.setStatus("Tarefa sem histórico de versões", true)
		return
	}
	ver, ok := m.selectedVersion()
	if ok && ver.Version != latest.Version {
		m.setStatus("Somente a versão mais recente pode ser editada", false)
		return
	}
	m.editing = true
	m.editArea.SetValue(latest.Content)
	m.editArea.Focus()
}

func (m *Model) saveEditedDescription() {
	version, folderPath, err := m.svc.EditDescription(m.detailID, m.editArea.Value())
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoChange):
			m.editing = false
			m.editArea.Blur()
			m.setStatus("Conteúdo sem alterações, nada a salvar", false)
		case errors.Is(err, app.ErrProvisionFailed):
			m.setStatus("Falha ao criar a pasta da versão: "+err.Error(), true)
		case errors.Is(err, app.ErrTaskNotFound):
			m.mode = modeList
			m.setStatus("A tarefa não existe mais", true)
		default:
			m.setStatus("Erro ao salvar descrição: "+err.Error(), true)
		}
		return
	}

	m.editing = false
	m.editArea.Blur()
	m.histCursor = 0
	m.persist(fmt.Sprintf("Descrição atualizada para v%d", version))
	m.presentFolder(folderPath)
}

func (m *Model) openHistoryFolder() {
	ver, ok := m.selectedVersion()
	if !ok {
		m.setStatus("Nenhuma versão selecionada", true)
		return
	}
	if strings.TrimSpace(ver.FolderPath) == "" {
		m.setStatus("Versão sem pasta associada (registro migrado)", false)
		return
	}
	m.presentFolder(ver.FolderPath)
}

func (m *Model) openCompare() {
	ver, ok := m.selectedVersion()
	if !ok {
		m.setStatus("Nenhuma versão selecionada", true)
		return
	}
	prev, curr, summary, err := m.svc.CompareVersions(m.detailID, ver.Version)
	if err != nil {
		if errors.Is(err, app.ErrNoPriorVersion) {
			m.setStatus("v1 não tem versão anterior para comparar", false)
			return
		}
		m.setStatus("Erro ao comparar versões: "+err.Error(), true)
		return
	}
	m.comparePrev = prev
	m.compareCurr = curr
	m.compareSummary = summary
	m.mode = modeCompare
}

func (m *Model) persist(success string) {
	if err := store.Autosave(m.statePath, m.svc.Tasks()); err != nil {
		m.setStatus("Alteração aplicada, mas falhou ao salvar em disco: "+err.Error(), true)
		return
	}
	m.ensureCursor()
	m.setStatus(success, false)
}

// presentFolder opens the version folder in the native file browser. The
// operation already committed, so failures here are informational only.
func (m *Model) presentFolder(path string) {
	if err := folder.OpenInFileBrowser(path); err != nil {
		m.setStatus(m.status+" • pasta não aberta: "+err.Error(), false)
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) visibleTasks() []model.Task {
	return m.svc.Filter(m.filter)
}

func (m *Model) cursorTask() (model.Task, bool) {
	tasks := m.visibleTasks()
	if len(tasks) == 0 {
		return model.Task{}, false
	}
	if m.cursor < 0 || m.cursor >= len(tasks) {
		m.cursor = 0
	}
	return tasks[m.cursor], true
}

func (m *Model) indexOfTask(id int) int {
	for i, t := range m.visibleTasks() {
		if t.ID == id {
			return i
		}
	}
	return 0
}

func (m *Model) moveCursor(delta int) {
	tasks := m.visibleTasks()
	if len(tasks) == 0 {
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, len(tasks)-1)
}

func (m *Model) ensureCursor() {
	tasks := m.visibleTasks()
	if len(tasks) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = clamp(m.cursor, 0, len(tasks)-1)
}

func (m *Model) resizeAreas() {
	w := m.viewportWidth() - 8
	if w < 30 {
		w = 30
	}
	m.descArea.SetWidth(w)
	m.descArea.SetHeight(6)
	m.editArea.SetWidth(w)
	h := m.height / 3
	if h < 5 {
		h = 5
	}
	m.editArea.SetHeight(h)
	m.projectInput.Width = w
	m.shortInput.Width = w
}
