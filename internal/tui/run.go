package tui

import (
	"context"
	"fmt"

	"github.com/Veraticus/commerce-admin/internal/service"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the browser on the alternate screen and blocks until the user
// quits or ctx is canceled.
func Run(ctx context.Context, svc service.CategoryService, cfg Config) error {
	if svc == nil {
		return fmt.Errorf("category service is required")
	}

	p := tea.NewProgram(New(ctx, svc, cfg),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tree browser failed: %w", err)
	}
	return nil
}
