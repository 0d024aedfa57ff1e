package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/jotter/internal/controller"
)

// Run starts the terminal client against api and blocks until the user quits
// or ctx is cancelled.
func Run(ctx context.Context, api controller.NotesAPI, logger *slog.Logger) error {
	prompter := NewPrompter()
	defer prompter.Close()

	ctrl := controller.New(api, prompter, controller.WithLogger(logger))
	p := tea.NewProgram(NewModel(ctx, ctrl, prompter), tea.WithAltScreen(), tea.WithContext(ctx))
	prompter.Attach(p.Send)

	logger.Info("terminal client starting")
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	logger.Info("terminal client stopped")
	return nil
}
