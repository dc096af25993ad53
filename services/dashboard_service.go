package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Temirlan00/league-system/models"
	"github.com/Temirlan00/league-system/repositories"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	disputeRepo      repositories.DisputeRepository
	cancellationRepo repositories.CancellationRepository
	matchRepo        repositories.MatchRepository
	penaltyRepo      repositories.PenaltyRepository
}

func NewDashboardService(
	disputeRepo repositories.DisputeRepository,
	cancellationRepo repositories.CancellationRepository,
	matchRepo repositories.MatchRepository,
	penaltyRepo repositories.PenaltyRepository,
) DashboardService {
	return &dashboardService{
		disputeRepo:      disputeRepo,
		cancellationRepo: cancellationRepo,
		matchRepo:        matchRepo,
		penaltyRepo:      penaltyRepo,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	since := time.Now().AddDate(0, 0, -30)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.disputeRepo.CountActive(gctx)
		stats.OpenDisputes = count
		return err
	})
	g.Go(func() error {
		count, err := s.cancellationRepo.CountPending(gctx)
		stats.PendingCancellations = count
		return err
	})
	g.Go(func() error {
		count, err := s.matchRepo.CountDisputed(gctx)
		stats.DisputedMatches = count
		return err
	})
	g.Go(func() error {
		count, err := s.penaltyRepo.CountSince(gctx, since)
		stats.PenaltiesLast30Days = count
		return err
	})
	g.Go(func() error {
		count, err := s.matchRepo.CountCompletedSince(gctx, since)
		stats.MatchesLast30Days = count
		return err
	})

	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, err
	}
	return stats, nil
}
