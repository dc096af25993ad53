package services

import (
	"context"
	"testing"

	"github.com/Temirlan00/league-system/models"
)

func TestGetStats(t *testing.T) {
	disputeRepo := newFakeDisputeRepo(
		testDispute(1, 1),
		testDispute(2, 2),
	)
	resolved := testDispute(3, 3)
	resolved.Status = models.DisputeStatusResolved
	disputeRepo.disputes[3] = resolved

	cancellationRepo := newFakeCancellationRepo(testCancellation(1, 1))
	penaltyRepo := &fakePenaltyRepo{created: []*models.Penalty{{ID: 1, UserID: 20}}}

	svc := NewDashboardService(disputeRepo, cancellationRepo, newFakeMatchRepo(), penaltyRepo)

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats returned error: %v", err)
	}
	if stats.OpenDisputes != 2 {
		t.Errorf("open disputes = %d, want 2 (resolved dispute excluded)", stats.OpenDisputes)
	}
	if stats.PendingCancellations != 1 {
		t.Errorf("pending cancellations = %d, want 1", stats.PendingCancellations)
	}
	if stats.PenaltiesLast30Days != 1 {
		t.Errorf("recent penalties = %d, want 1", stats.PenaltiesLast30Days)
	}
}
