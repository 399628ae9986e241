// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ckyc-assist/internal/flow"
	"github.com/jeranaias/ckyc-assist/internal/logging"
	"github.com/jeranaias/ckyc-assist/internal/telemetry"
	"github.com/jeranaias/ckyc-assist/internal/transcript"
	"github.com/jeranaias/ckyc-assist/internal/ui/styles"
)

// Config configures Run.
type Config struct {
	Backend flow.Backend

	Language    string
	StartClosed bool
	Theme       string
	PlainText   bool

	ExportDir    string
	ExportFormat string

	Metrics *telemetry.Metrics
	Logger  *logrus.Entry
}

// Run shows the widget full screen until the user quits or ctx is done.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Backend == nil {
		return errors.New("widget: backend is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Component("widget")
	}

	theme, err := styles.NewTheme(cfg.Theme)
	if err != nil {
		return err
	}

	loop := flow.NewLoop()
	log := transcript.NewLog()
	ctrl, err := flow.New(flow.Config{
		Backend:    cfg.Backend,
		Renderer:   log,
		Runner:     loop,
		Language:   cfg.Language,
		WidgetOpen: !cfg.StartClosed,
		Metrics:    cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("widget: %w", err)
	}

	model := NewModel(ModelConfig{
		Controller:   ctrl,
		Log:          log,
		Theme:        theme,
		PlainText:    cfg.PlainText,
		ExportDir:    cfg.ExportDir,
		ExportFormat: cfg.ExportFormat,
		Logger:       cfg.Logger,
	})

	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	loop.SetDispatcher(Dispatcher(p))
	loop.Start()
	defer loop.Stop()

	cfg.Logger.WithField("session", ctrl.Session().ID).Info("widget started")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("widget: %w", err)
	}
	return nil
}
