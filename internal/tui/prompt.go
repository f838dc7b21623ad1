// Package tui holds the interactive terminal prompts and the tree view.
package tui

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/snipdeck/snipdeck/internal/snippet"
)

// Prompter asks the user for choices and values. Every method returns
// snippet.ErrCancelled when the prompt is dismissed.
type Prompter interface {
	Pick(title string, items []string, preview func(i int) string) (int, error)
	Input(title, initial string, validate func(string) error) (string, error)
	Confirm(question string) (bool, error)
}

// Terminal prompts on the controlling terminal.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr}
}

func (t *Terminal) Pick(title string, items []string, preview func(i int) string) (int, error) {
	if len(items) == 0 {
		return -1, snippet.ErrCancelled
	}
	opts := []fuzzyfinder.Option{fuzzyfinder.WithPromptString(title + "> ")}
	if preview != nil {
		opts = append(opts, fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i < 0 {
				return ""
			}
			return preview(i)
		}))
	}
	idx, err := fuzzyfinder.Find(items, func(i int) string { return items[i] }, opts...)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return -1, snippet.ErrCancelled
		}
		return -1, fmt.Errorf("select %s: %w", title, err)
	}
	return idx, nil
}

func (t *Terminal) Input(title, initial string, validate func(string) error) (string, error) {
	final, err := t.run(newInputModel(title, initial, validate))
	if err != nil {
		return "", err
	}
	m := final.(inputModel)
	if m.cancelled {
		return "", snippet.ErrCancelled
	}
	return m.value(), nil
}

func (t *Terminal) Confirm(question string) (bool, error) {
	final, err := t.run(confirmModel{question: question})
	if err != nil {
		return false, err
	}
	m := final.(confirmModel)
	if m.cancelled {
		return false, snippet.ErrCancelled
	}
	return m.answer, nil
}

func (t *Terminal) run(model tea.Model) (tea.Model, error) {
	program := tea.NewProgram(model, tea.WithInput(t.In), tea.WithOutput(t.Out))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}
	return final, nil
}
