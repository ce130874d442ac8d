package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"nutrihelper/internal/core"
	"nutrihelper/internal/session"
)

type Dashboard struct {
	Month    core.MonthOverview
	Progress Progress
}

// DashboardService loads the chart and today's progress in parallel.
type DashboardService struct {
	charts   *ChartService
	progress *ProgressService
}

func NewDashboardService(charts *ChartService, progress *ProgressService) *DashboardService {
	return &DashboardService{charts: charts, progress: progress}
}

func (s *DashboardService) Load(ctx context.Context, sess session.Session, stats core.UserStats) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ov, err := s.charts.Month(gctx, sess)
		if err != nil {
			return err
		}
		d.Month = ov
		return nil
	})
	g.Go(func() error {
		p, err := s.progress.Today(gctx, sess, stats)
		if err != nil {
			return err
		}
		d.Progress = p
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
