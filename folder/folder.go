// Package folder derives and provisions the on-disk folder bound to each
// description version of a task.
package folder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// reserved holds the characters that are not safe inside a path segment on at
// least one supported filesystem.
const reserved = `\/:*?"<>|`

// Sanitize converts arbitrary user text into a filesystem-safe path segment:
// surrounding whitespace is trimmed, then every reserved character is replaced
// with an underscore. Sanitize(Sanitize(x)) == Sanitize(x) for all x.
// Length limits are left to the filesystem.
func Sanitize(text string) string {
	trimmed := strings.TrimSpace(text)
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(reserved, r) {
			return '_'
		}
		return r
	}, trimmed)
}

// Resolve derives the folder path for one description version. The result
// depends only on its inputs (no randomness, no timestamps). Callers persist
// the result on the version record instead of re-deriving it later.
func Resolve(baseDir, project, shortDesc, versionLabel string) string {
	return filepath.Join(baseDir, Sanitize(project), Sanitize(shortDesc), Sanitize(versionLabel))
}

// Workspace resolves and provisions version folders under a fixed base
// directory.
type Workspace struct {
	BaseDir string
}

// NewWorkspace returns a workspace rooted at baseDir, made absolute so
// persisted folder paths do not depend on the working directory.
func NewWorkspace(baseDir string) (Workspace, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolver diretório base: %w", err)
	}
	return Workspace{BaseDir: abs}, nil
}

func (w Workspace) Resolve(project, shortDesc, versionLabel string) string {
	return Resolve(w.BaseDir, project, shortDesc, versionLabel)
}

// Ensure creates the directory at path, including missing ancestors. An
// already existing directory is success. A failure carries the underlying
// reason and leaves nothing for the caller to clean up.
func (w Workspace) Ensure(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("criar pasta %s: %w", path, err)
	}
	return nil
}

var ErrUnsupportedPlatform = errors.New("abrir pasta não suportado neste sistema")

// OpenInFileBrowser shows path in the native file browser, best-effort. The
// command is launched without waiting so a slow file manager cannot block the
// UI. The caller reports errors but must not fail the operation that created
// the folder, which has already committed.
func OpenInFileBrowser(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("pasta indisponível: %w", err)
	}

	var name string
	var args []string
	switch runtime.GOOS {
	case "windows":
		name, args = "explorer", []string{path}
	case "darwin":
		name, args = "open", []string{path}
	case "linux":
		name, args = "xdg-open", []string{path}
	default:
		return ErrUnsupportedPlatform
	}

	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("comando %s não encontrado: %w", name, err)
	}
	go runOpenCommand(name, args)
	return nil
}

func runOpenCommand(name string, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = exec.CommandContext(ctx, name, args...).Run()
}
