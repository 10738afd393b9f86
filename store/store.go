package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tarefas-cli/model"
)

const maxRotatingBackups = 10

var errNoValidBackup = errors.New("no valid backup found")

// Load reads the task list from a JSON file and applies the load migration.
// If the file does not exist, it returns an empty task list.
func Load(path string) ([]model.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Task{}, nil
		}
		return nil, err
	}
	return decodeTasks(data)
}

// LoadWithRecovery loads tasks and tries automatic recovery when the main
// JSON is corrupted. It returns an optional status message to be shown to the
// user.
func LoadWithRecovery(path string) ([]model.Task, string, error) {
	tasks, err := Load(path)
	if err == nil {
		return tasks, "", nil
	}
	if !isCorruptStateError(err) {
		return nil, "", err
	}

	corruptPath, moveErr := moveCorruptFile(path)
	if moveErr != nil {
		return nil, "", fmt.Errorf("falha ao mover arquivo corrompido: %w", moveErr)
	}

	recovered, backupPath, backupErr := loadLatestValidBackup(path)
	if backupErr == nil {
		if err := Save(path, recovered); err != nil {
			return nil, "", fmt.Errorf("falha ao restaurar backup: %w", err)
		}
		msg := fmt.Sprintf("Tarefas corrompidas recuperadas de %s", filepath.Base(backupPath))
		if corruptPath != "" {
			msg += fmt.Sprintf(" (arquivo ruim movido para %s)", filepath.Base(corruptPath))
		}
		return recovered, msg, nil
	}
	if !errors.Is(backupErr, errNoValidBackup) {
		return nil, "", fmt.Errorf("falha ao inspecionar backups: %w", backupErr)
	}

	empty := []model.Task{}
	if err := Save(path, empty); err != nil {
		return nil, "", fmt.Errorf("falha ao inicializar novo arquivo após corrupção: %w", err)
	}
	msg := "Arquivo corrompido sem backup válido; iniciando com lista vazia"
	if corruptPath != "" {
		msg += fmt.Sprintf(" (arquivo ruim movido para %s)", filepath.Base(corruptPath))
	}
	return empty, msg, nil
}

// Save writes the task list to path as JSON.
func Save(path string, tasks []model.Task) error {
	return writeJSON(path, tasks)
}

// Autosave writes safely using temporary file + atomic rename.
// It also stores a latest backup (.bak) and a rotating timestamped backup set.
func Autosave(path string, tasks []model.Task) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	if err := backup(path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// decodeTasks parses the persisted JSON array and migrates legacy records:
// a task without history gets a synthetic created version stamped with its
// create time, and a task without a modified time inherits the create time.
// Running the migration over already-migrated records changes nothing.
func decodeTasks(data []byte) ([]model.Task, error) {
	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	for i := range tasks {
		t := &tasks[i]
		if len(t.History) == 0 {
			t.History = model.History{{
				Version:   1,
				Content:   "",
				Timestamp: t.CreateTime,
				Action:    model.ActionCreated,
			}}
		}
		if strings.TrimSpace(t.ModifiedTime) == "" {
			t.ModifiedTime = t.CreateTime
		}
		if !t.Priority.Valid() {
			t.Priority = model.PriorityMedium
		}
		t.UID = model.NewUID()
	}

	// IDs must form a dense 1..N range; repair files edited by hand.
	for i := range tasks {
		tasks[i].ID = i + 1
	}

	return tasks, nil
}

func writeJSON(path string, tasks []model.Task) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func backup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
		return err
	}

	timestamp := time.Now().UTC().Format("20060102-150405.000000000")
	rotatingPath := fmt.Sprintf("%s.bak.%s", path, timestamp)
	if err := os.WriteFile(rotatingPath, data, 0o644); err != nil {
		return err
	}

	return pruneRotatingBackups(path)
}

func pruneRotatingBackups(path string) error {
	files, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return err
	}
	if len(files) <= maxRotatingBackups {
		return nil
	}

	sort.Strings(files)
	toDelete := files[:len(files)-maxRotatingBackups]
	for _, old := range toDelete {
		if err := os.Remove(old); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func loadLatestValidBackup(path string) ([]model.Task, string, error) {
	candidates := make([]string, 0, 12)
	latest := path + ".bak"
	if _, err := os.Stat(latest); err == nil {
		candidates = append(candidates, latest)
	}
	rotating, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return nil, "", err
	}
	candidates = append(candidates, rotating...)
	if len(candidates) == 0 {
		return nil, "", errNoValidBackup
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		iInfo, iErr := os.Stat(candidates[i])
		jInfo, jErr := os.Stat(candidates[j])
		if iErr != nil || jErr != nil {
			return candidates[i] > candidates[j]
		}
		return iInfo.ModTime().After(jInfo.ModTime())
	})

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		tasks, err := decodeTasks(data)
		if err != nil {
			continue
		}
		return tasks, candidate, nil
	}

	return nil, "", errNoValidBackup
}

func moveCorruptFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timestamp := time.Now().UTC().Format("20060102-150405")
	corruptName := fmt.Sprintf("%s.corrupt-%s%s", name, timestamp, ext)
	corruptPath := filepath.Join(filepath.Dir(path), corruptName)
	if err := os.Rename(path, corruptPath); err != nil {
		return "", err
	}
	return corruptPath, nil
}

func isCorruptStateError(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
