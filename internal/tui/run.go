package tui

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// TUIConfig holds display-only values for the welcome banner.
type TUIConfig struct {
	Version     string
	BaseURL     string
	ShowWelcome bool
}

// RunTUI starts the bubbletea program inline and runs loopFn concurrently.
// Output scrolls into the terminal's own scrollback via tea.Println. It
// blocks until either the loop finishes or the user quits.
func RunTUI(cfg TUIConfig, loopFn func(io IO) error) error {
	inputCh := make(chan inputResult, 1)
	model := NewModel(inputCh, cfg)

	tuiIO := &TuiIO{inputCh: inputCh}
	p := tea.NewProgram(model)
	tuiIO.program = p

	var (
		loopErr error
		wg      sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		loopErr = loopFn(tuiIO)
		// Signal the TUI that the loop is done
		p.Send(loopDoneMsg{err: loopErr})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	// Wait for the loop goroutine to finish after TUI exits
	wg.Wait()

	return loopErr
}
