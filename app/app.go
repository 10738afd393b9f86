package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tarefas-cli/diff"
	"tarefas-cli/model"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrShortDescEmpty   = errors.New("short description must not be empty")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrNoChange         = errors.New("content unchanged")
	ErrNoCompletedTasks = errors.New("no completed tasks to clear")
	ErrNoPriorVersion   = errors.New("no earlier version to compare against")
	ErrProvisionFailed  = errors.New("folder provisioning failed")
)

// Provisioner resolves and creates the on-disk folder bound to a description
// version. folder.Workspace is the production implementation.
type Provisioner interface {
	Resolve(project, shortDesc, versionLabel string) string
	Ensure(path string) error
}

// Service holds domain rules and in-memory state. Mutations are synchronous
// and single-threaded; persistence is triggered by the caller after each
// successful mutation.
type Service struct {
	tasks    []model.Task
	folders  Provisioner
	selected map[string]bool // keyed by task UID, so renumbering cannot stale it
}

// NewService creates a service over a copy of the provided tasks.
func NewService(tasks []model.Task, folders Provisioner) *Service {
	return &Service{
		tasks:    model.CloneTasks(tasks),
		folders:  folders,
		selected: map[string]bool{},
	}
}

// Tasks returns all tasks as a copy, in insertion order.
func (s *Service) Tasks() []model.Task {
	return model.CloneTasks(s.tasks)
}

// Task returns a task by display id.
func (s *Service) Task(id int) (model.Task, error) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return model.Task{}, ErrTaskNotFound
}

// AddTask validates input, provisions the version-1 folder and only then
// creates the task. A provisioning failure leaves the task set untouched.
// Returns the created task; its history holds exactly one created version
// whose FolderPath the caller should present to the user.
func (s *Service) AddTask(project, shortDesc string, priority model.Priority, longDesc string) (model.Task, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		project = model.DefaultProject
	}
	shortDesc = strings.TrimSpace(shortDesc)
	if shortDesc == "" {
		return model.Task{}, ErrShortDescEmpty
	}
	if !priority.Valid() {
		return model.Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	folderPath := s.folders.Resolve(project, shortDesc, "1")
	if err := s.folders.Ensure(folderPath); err != nil {
		return model.Task{}, fmt.Errorf("%w: %v", ErrProvisionFailed, err)
	}

	now := time.Now()
	task := model.Task{
		ID:           len(s.tasks) + 1,
		UID:          model.NewUID(),
		Project:      project,
		ShortDesc:    shortDesc,
		Priority:     priority,
		CreateTime:   model.FormatTime(now),
		ModifiedTime: model.FormatTime(now),
		Completed:    false,
	}
	task.History.Append(strings.TrimSpace(longDesc), model.ActionCreated, folderPath, now)

	s.tasks = append(s.tasks, task)
	return task.Clone(), nil
}

// EditDescription applies the edit protocol to the task's latest version:
// content identical to the latest version (after trimming) is a no-op and
// returns ErrNoChange with nothing created; otherwise a folder for the next
// version is provisioned and an immutable record appended. Returns the new
// version number and its folder path.
func (s *Service) EditDescription(id int, newContent string) (int, string, error) {
	idx := s.indexOf(id)
	if idx == -1 {
		return 0, "", ErrTaskNotFound
	}
	task := &s.tasks[idx]

	latest, err := task.History.Latest()
	if err != nil {
		return 0, "", err
	}

	newContent = strings.TrimSpace(newContent)
	if newContent == strings.TrimSpace(latest.Content) {
		return 0, "", ErrNoChange
	}

	next := latest.Version + 1
	folderPath := s.folders.Resolve(task.Project, task.ShortDesc, strconv.Itoa(next))
	if err := s.folders.Ensure(folderPath); err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrProvisionFailed, err)
	}

	now := time.Now()
	version := task.History.Append(newContent, model.ActionModified, folderPath, now)
	task.ModifiedTime = model.FormatTime(now)
	return version, folderPath, nil
}

// ToggleCompleted flips the completion state of every matching task and
// stamps its modified time. Unknown ids are silently skipped.
func (s *Service) ToggleCompleted(ids []int) {
	now := model.FormatTime(time.Now())
	for _, id := range ids {
		if idx := s.indexOf(id); idx != -1 {
			s.tasks[idx].Completed = !s.tasks[idx].Completed
			s.tasks[idx].ModifiedTime = now
		}
	}
}

// DeleteTasks removes every matching task and renumbers the survivors to a
// dense 1..N sequence in their existing relative order. Selection entries of
// removed tasks are dropped; the rest stay valid because they key on UID.
func (s *Service) DeleteTasks(ids []int) {
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if drop[t.ID] {
			delete(s.selected, t.UID)
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	s.renumber()
}

// ClearCompleted removes all completed tasks, renumbers the rest and returns
// how many were removed. ErrNoCompletedTasks when there was nothing to do.
func (s *Service) ClearCompleted() (int, error) {
	kept := make([]model.Task, 0, len(s.tasks))
	removed := 0
	for _, t := range s.tasks {
		if t.Completed {
			removed++
			delete(s.selected, t.UID)
			continue
		}
		kept = append(kept, t)
	}
	if removed == 0 {
		return 0, ErrNoCompletedTasks
	}
	s.tasks = kept
	s.renumber()
	return removed, nil
}

// Filter returns tasks matching the status filter, in insertion order.
func (s *Service) Filter(f model.Filter) []model.Task {
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		switch f {
		case model.FilterIncomplete:
			if t.Completed {
				continue
			}
		case model.FilterComplete:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t.Clone())
	}
	return out
}

// CompareVersions summarizes the changes between version and its immediate
// predecessor. Version 1 has no predecessor and is rejected with
// ErrNoPriorVersion; non-adjacent pairings are not supported.
func (s *Service) CompareVersions(id, version int) (prev, curr model.DescriptionVersion, summary diff.Summary, err error) {
	task, err := s.Task(id)
	if err != nil {
		return model.DescriptionVersion{}, model.DescriptionVersion{}, diff.Summary{}, err
	}
	if version <= 1 {
		return model.DescriptionVersion{}, model.DescriptionVersion{}, diff.Summary{}, ErrNoPriorVersion
	}
	curr, err = task.History.Get(version)
	if err != nil {
		return model.DescriptionVersion{}, model.DescriptionVersion{}, diff.Summary{}, err
	}
	prev, err = task.History.Get(version - 1)
	if err != nil {
		return model.DescriptionVersion{}, model.DescriptionVersion{}, diff.Summary{}, err
	}
	return prev, curr, diff.Summarize(prev.Content, curr.Content), nil
}

// Counts reports totals for the status line.
func (s *Service) Counts() (total, completed, selected int) {
	for _, t := range s.tasks {
		if t.Completed {
			completed++
		}
		if s.selected[t.UID] {
			selected++
		}
	}
	return len(s.tasks), completed, selected
}

// ToggleSelected flips a task in or out of the selection set.
func (s *Service) ToggleSelected(uid string) {
	if s.selected[uid] {
		delete(s.selected, uid)
		return
	}
	s.selected[uid] = true
}

func (s *Service) IsSelected(uid string) bool {
	return s.selected[uid]
}

// SelectAll marks every task as selected.
func (s *Service) SelectAll() {
	for _, t := range s.tasks {
		s.selected[t.UID] = true
	}
}

// InvertSelection selects every unselected task and vice versa.
func (s *Service) InvertSelection() {
	for _, t := range s.tasks {
		if s.selected[t.UID] {
			delete(s.selected, t.UID)
		} else {
			s.selected[t.UID] = true
		}
	}
}

func (s *Service) ClearSelection() {
	s.selected = map[string]bool{}
}

// SelectedIDs returns the display ids of the selected tasks, in task order.
func (s *Service) SelectedIDs() []int {
	out := make([]int, 0, len(s.selected))
	for _, t := range s.tasks {
		if s.selected[t.UID] {
			out = append(out, t.ID)
		}
	}
	return out
}

func (s *Service) indexOf(id int) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) renumber() {
	for i := range s.tasks {
		s.tasks[i].ID = i + 1
	}
}
