// Package editor spawns the external editor/pager subprocess that the MPI
// framer hands remote-editing sessions to. It is the "remote-editing task"
// collaborator named as out-of-scope-but-interfaced: the proxy only needs
// to know whether the user's edits survived.
package editor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

// Task runs editor/pager subprocesses against scratch files named with a
// fresh uuid, mirroring the original implementation's tempfile-per-session
// behavior without relying on OS-assigned random suffixes.
type Task struct {
	Dir    string
	Editor string
	Pager  string
}

// New returns a Task that uses notepad as editor and pager on Windows;
// elsewhere it reads $TINTINEDITOR/$TINTINPAGER, falling back to nano -w
// and less.
func New(scratchDir string) *Task {
	t := &Task{Dir: scratchDir}
	if runtime.GOOS == "windows" {
		t.Editor, t.Pager = "notepad", "notepad"
		return t
	}
	t.Editor = envOr("TINTINEDITOR", "nano -w")
	t.Pager = envOr("TINTINPAGER", "less")
	return t
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Edit writes body to a scratch file, runs the configured editor against
// it, and reports the file's contents after the editor exits. ok is false
// if the file's mtime didn't change, meaning the user closed the editor
// without saving — the MPI framer turns that into a cancel reply.
func (t *Task) Edit(ctx context.Context, body []byte) (edited []byte, ok bool, err error) {
	path, err := t.scratchFile("edit", body)
	if err != nil {
		return nil, false, err
	}
	defer os.Remove(path)

	before, err := os.Stat(path)
	if err != nil {
		return nil, false, err
	}

	if err := t.run(ctx, t.Editor, path); err != nil {
		return nil, false, err
	}

	after, err := os.Stat(path)
	if err != nil {
		return nil, false, err
	}
	if after.ModTime().Equal(before.ModTime()) {
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return normalizeLineEndings(data), true, nil
}

// View writes body to a scratch file and runs the configured pager
// against it. No reply is expected from a view session.
func (t *Task) View(ctx context.Context, body []byte) error {
	path, err := t.scratchFile("view", body)
	if err != nil {
		return err
	}
	defer os.Remove(path)
	return t.run(ctx, t.Pager, path)
}

func (t *Task) scratchFile(kind string, body []byte) (string, error) {
	name := "mapperproxy_" + kind + "_" + uuid.NewString() + ".txt"
	path := filepath.Join(t.Dir, name)
	crlf := strings.ReplaceAll(string(normalizeLineEndings(body)), "\n", "\r\n")
	if err := os.WriteFile(path, []byte(crlf), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (t *Task) run(ctx context.Context, command, path string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	args := append(append([]string(nil), fields[1:]...), path)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	return cmd.Run()
}

func normalizeLineEndings(data []byte) []byte {
	return []byte(strings.ReplaceAll(string(data), "\r", ""))
}
