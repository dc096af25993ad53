package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Temirlan00/league-system/models"
	"github.com/Temirlan00/league-system/repositories"
)

func testMatch(id int) *models.Match {
	one := 1
	two := 0
	outcome := models.OutcomeTeam1Win
	return &models.Match{
		ID:          id,
		LeagueID:    7,
		SeasonID:    3,
		Team1UserID: 10,
		Team2UserID: 20,
		Status:      models.MatchStatusCompleted,
		Team1Score:  &one,
		Team2Score:  &two,
		Outcome:     &outcome,
		IsDisputed:  true,
		UpdatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func testDispute(id, matchID int) *models.Dispute {
	return &models.Dispute{
		ID:             id,
		MatchID:        matchID,
		RaisedByUserID: 20,
		Status:         models.DisputeStatusOpen,
		Priority:       models.PriorityNormal,
		Reason:         "score was entered incorrectly",
	}
}

func TestResolveDisputeCustomScore(t *testing.T) {
	matchRepo := newFakeMatchRepo(testMatch(1))
	disputeRepo := newFakeDisputeRepo(testDispute(5, 1))
	notifier := &fakeNotifier{}
	svc := NewDisputeService(newTestDB(t), disputeRepo, matchRepo, notifier, nil)
	admin := models.AdminContext{ID: 99, Role: models.RoleAdmin}

	resolved, err := svc.ResolveDispute(context.Background(), admin, 5, ResolveDisputeInput{
		Action:        models.ActionCustomScore,
		FinalScore:    []models.SetScore{{Team1: 4, Team2: 6}, {Team1: 3, Team2: 6}},
		Reason:        "screenshot confirms disputer's score",
		NotifyPlayers: true,
	})
	if err != nil {
		t.Fatalf("ResolveDispute returned error: %v", err)
	}

	if resolved.Status != models.DisputeStatusResolved {
		t.Errorf("dispute status = %s, want resolved", resolved.Status)
	}
	if resolved.ResolutionAction == nil || *resolved.ResolutionAction != models.ActionCustomScore {
		t.Errorf("resolution action = %v, want CUSTOM_SCORE", resolved.ResolutionAction)
	}
	if resolved.ResolvedByID == nil || *resolved.ResolvedByID != admin.ID {
		t.Errorf("resolved_by = %v, want %d", resolved.ResolvedByID, admin.ID)
	}

	match := matchRepo.matches[1]
	if match.Status != models.MatchStatusCompleted {
		t.Errorf("match status = %s, want completed", match.Status)
	}
	if match.Team1Score == nil || *match.Team1Score != 0 || match.Team2Score == nil || *match.Team2Score != 2 {
		t.Errorf("match score = %v:%v, want 0:2", match.Team1Score, match.Team2Score)
	}
	if match.WinnerUserID == nil || *match.WinnerUserID != 20 {
		t.Errorf("winner = %v, want 20", match.WinnerUserID)
	}
	if match.IsDisputed {
		t.Error("is_disputed flag should be cleared after resolution")
	}

	if len(notifier.enqueued) != 2 {
		t.Fatalf("enqueued %d notifications, want 2 (both players)", len(notifier.enqueued))
	}
	for _, n := range notifier.enqueued {
		if n.Kind != models.NotifyDisputeResolved {
			t.Errorf("notification kind = %s, want dispute_resolved", n.Kind)
		}
	}
}

func TestResolveDisputeUpholdOriginalKeepsMatch(t *testing.T) {
	matchRepo := newFakeMatchRepo(testMatch(1))
	disputeRepo := newFakeDisputeRepo(testDispute(5, 1))
	svc := NewDisputeService(newTestDB(t), disputeRepo, matchRepo, &fakeNotifier{}, nil)

	_, err := svc.ResolveDispute(context.Background(), models.AdminContext{ID: 99}, 5, ResolveDisputeInput{
		Action: models.ActionUpholdOriginal,
		Reason: "original result stands",
	})
	if err != nil {
		t.Fatalf("ResolveDispute returned error: %v", err)
	}

	if matchRepo.updateCalls != 0 {
		t.Errorf("match result was rewritten %d times, want 0", matchRepo.updateCalls)
	}
	match := matchRepo.matches[1]
	if match.Outcome == nil || *match.Outcome != models.OutcomeTeam1Win {
		t.Errorf("outcome = %v, want team1_win untouched", match.Outcome)
	}
	if match.IsDisputed {
		t.Error("is_disputed flag should be cleared even when the result is upheld")
	}
}

func TestResolveDisputeAwardWalkover(t *testing.T) {
	// winner_user_id опущен: побеждает заявитель диспута (оппонент не явился).
	matchRepo := newFakeMatchRepo(testMatch(1))
	disputeRepo := newFakeDisputeRepo(testDispute(5, 1))
	svc := NewDisputeService(newTestDB(t), disputeRepo, matchRepo, &fakeNotifier{}, nil)

	_, err := svc.ResolveDispute(context.Background(), models.AdminContext{ID: 99}, 5, ResolveDisputeInput{
		Action: models.ActionAwardWalkover,
		Reason: "opponent forfeited",
	})
	if err != nil {
		t.Fatalf("ResolveDispute returned error: %v", err)
	}

	match := matchRepo.matches[1]
	if match.Status != models.MatchStatusWalkover {
		t.Errorf("match status = %s, want walkover", match.Status)
	}
	if !match.IsWalkover {
		t.Error("is_walkover flag not set")
	}
	if match.WalkoverReason == nil || *match.WalkoverReason != "opponent forfeited" {
		t.Errorf("walkover reason = %v", match.WalkoverReason)
	}
	if match.WinnerUserID == nil || *match.WinnerUserID != 20 {
		t.Errorf("winner = %v, want the disputing player 20", match.WinnerUserID)
	}
}

func TestResolveDisputeAwardWalkoverExplicitWinner(t *testing.T) {
	matchRepo := newFakeMatchRepo(testMatch(1))
	svc := NewDisputeService(newTestDB(t), newFakeDisputeRepo(testDispute(5, 1)), matchRepo, &fakeNotifier{}, nil)
	winner := 10

	_, err := svc.ResolveDispute(context.Background(), models.AdminContext{ID: 99}, 5, ResolveDisputeInput{
		Action:       models.ActionAwardWalkover,
		WinnerUserID: &winner,
		Reason:       "the disputing player was the one who failed to show",
	})
	if err != nil {
		t.Fatalf("ResolveDispute returned error: %v", err)
	}
	if match := matchRepo.matches[1]; match.WinnerUserID == nil || *match.WinnerUserID != winner {
		t.Errorf("winner = %v, want explicit %d", match.WinnerUserID, winner)
	}
}

func TestResolveDisputeWalkoverWinnerMustParticipate(t *testing.T) {
	matchRepo := newFakeMatchRepo(testMatch(1))
	disputeRepo := newFakeDisputeRepo(testDispute(5, 1))
	svc := NewDisputeService(newTestDB(t), disputeRepo, matchRepo, &fakeNotifier{}, nil)
	outsider := 777

	_, err := svc.ResolveDispute(context.Background(), models.AdminContext{ID: 99}, 5, ResolveDisputeInput{
		Action:       models.ActionAwardWalkover,
		WinnerUserID: &outsider,
		Reason:       "walkover",
	})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	if dispute := disputeRepo.disputes[5]; dispute.Status != models.DisputeStatusOpen {
		t.Errorf("dispute status = %s, want open (nothing committed)", dispute.Status)
	}
}

func TestResolveDisputeRequestMoreInfo(t *testing.T) {
	matchRepo := newFakeMatchRepo(testMatch(1))
	disputeRepo := newFakeDisputeRepo(testDispute(5, 1))
	notifier := &fakeNotifier{}
	svc := NewDisputeService(newTestDB(t), disputeRepo, matchRepo, notifier, nil)

	resolved, err := svc.ResolveDispute(context.Background(), models.AdminContext{ID: 99}, 5, ResolveDisputeInput{
		Action:        models.ActionRequestMoreInfo,
		Reason:        "please attach the score sheet",
		NotifyPlayers: true,
	})
	if err != nil {
		t.Fatalf("ResolveDispute returned error: %v", err)
	}

	if resolved.Status != models.DisputeStatusInReview {
		t.Errorf("dispute status = %s, want in_review", resolved.Status)
	}
	if resolved.ResolutionAction != nil {
		t.Errorf("resolution action = %v, want nil for non-terminal action", resolved.ResolutionAction)
	}
	if matchRepo.updateCalls != 0 {
		t.Error("match must not be touched by REQUEST_MORE_INFO")
	}
	if !matchRepo.matches[1].IsDisputed {
		t.Error("is_disputed must stay set while the dispute is in review")
	}
	if len(disputeRepo.notes) != 1 {
		t.Fatalf("notes = %d, want 1 (the info request)", len(disputeRepo.notes))
	}
	if len(notifier.enqueued) != 0 {
		t.Errorf("enqueued %d notifications, want 0 for non-terminal action", len(notifier.enqueued))
	}
}

func TestResolveDisputeAlreadyResolved(t *testing.T) {
	dispute := testDispute(5, 1)
	dispute.Status = models.DisputeStatusResolved
	svc := NewDisputeService(newTestDB(t), newFakeDisputeRepo(dispute), newFakeMatchRepo(testMatch(1)), &fakeNotifier{}, nil)

	_, err := svc.ResolveDispute(context.Background(), models.AdminContext{ID: 99}, 5, ResolveDisputeInput{
		Action: models.ActionUpholdOriginal,
		Reason: "second opinion",
	})
	if !errors.Is(err, ErrDisputeAlreadyResolved) {
		t.Fatalf("err = %v, want ErrDisputeAlreadyResolved", err)
	}
}

func TestResolveDisputeConcurrentMatchUpdate(t *testing.T) {
	matchRepo := newFakeMatchRepo(testMatch(1))
	// Матч успели поменять между чтением и условным UPDATE.
	matchRepo.updateErr = repositories.ErrMatchConcurrentUpdate
	svc := NewDisputeService(newTestDB(t), newFakeDisputeRepo(testDispute(5, 1)), matchRepo, &fakeNotifier{}, nil)

	_, err := svc.ResolveDispute(context.Background(), models.AdminContext{ID: 99}, 5, ResolveDisputeInput{
		Action:     models.ActionCustomScore,
		FinalScore: []models.SetScore{{Team1: 6, Team2: 4}},
		Reason:     "corrected",
	})
	if !errors.Is(err, ErrMatchModifiedConcurrently) {
		t.Fatalf("err = %v, want ErrMatchModifiedConcurrently", err)
	}
}

func TestResolveDisputeValidation(t *testing.T) {
	svc := NewDisputeService(newTestDB(t), newFakeDisputeRepo(testDispute(5, 1)), newFakeMatchRepo(testMatch(1)), &fakeNotifier{}, nil)
	admin := models.AdminContext{ID: 99}

	cases := []struct {
		name  string
		input ResolveDisputeInput
		want  error
	}{
		{"unknown action", ResolveDisputeInput{Action: "BAN_EVERYONE", Reason: "r"}, ErrInvalidDisputeAction},
		{"missing reason", ResolveDisputeInput{Action: models.ActionUpholdOriginal}, ErrReasonRequired},
		{"custom score without score", ResolveDisputeInput{Action: models.ActionCustomScore, Reason: "r"}, ErrFinalScoreRequired},
		{"tied set", ResolveDisputeInput{
			Action:     models.ActionCustomScore,
			FinalScore: []models.SetScore{{Team1: 6, Team2: 6}},
			Reason:     "r",
		}, ErrInvalidSetScores},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ResolveDispute(context.Background(), admin, 5, tc.input); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestOpenDispute(t *testing.T) {
	match := testMatch(1)
	match.IsDisputed = false
	matchRepo := newFakeMatchRepo(match)
	disputeRepo := newFakeDisputeRepo()
	svc := NewDisputeService(newTestDB(t), disputeRepo, matchRepo, &fakeNotifier{}, nil)

	dispute, err := svc.OpenDispute(context.Background(), 1, OpenDisputeInput{
		RaisedByUserID: 20,
		ClaimedScore:   []models.SetScore{{Team1: 4, Team2: 6}},
		Reason:         "wrong score entered",
	})
	if err != nil {
		t.Fatalf("OpenDispute returned error: %v", err)
	}
	if dispute.ID == 0 {
		t.Error("dispute was not assigned an id")
	}
	if dispute.Status != models.DisputeStatusOpen {
		t.Errorf("status = %s, want open", dispute.Status)
	}
	if dispute.Priority != models.PriorityNormal {
		t.Errorf("priority = %s, want default normal", dispute.Priority)
	}
	if !matchRepo.matches[1].IsDisputed {
		t.Error("match was not flagged as disputed")
	}

	// Второй активный диспут на тот же матч запрещён.
	_, err = svc.OpenDispute(context.Background(), 1, OpenDisputeInput{
		RaisedByUserID: 10,
		Reason:         "me too",
	})
	if !errors.Is(err, ErrDisputeAlreadyOpen) {
		t.Fatalf("err = %v, want ErrDisputeAlreadyOpen", err)
	}
}

func TestOpenDisputeMatchNotFound(t *testing.T) {
	svc := NewDisputeService(newTestDB(t), newFakeDisputeRepo(), newFakeMatchRepo(), &fakeNotifier{}, nil)

	_, err := svc.OpenDispute(context.Background(), 404, OpenDisputeInput{
		RaisedByUserID: 20,
		Reason:         "missing match",
	})
	if !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("err = %v, want ErrMatchNotFound", err)
	}
}

func TestAddNote(t *testing.T) {
	disputeRepo := newFakeDisputeRepo(testDispute(5, 1))
	svc := NewDisputeService(newTestDB(t), disputeRepo, newFakeMatchRepo(testMatch(1)), &fakeNotifier{}, nil)

	note, err := svc.AddNote(context.Background(), models.AdminContext{ID: 99}, 5, AddNoteInput{
		Note:           "called both players",
		IsInternalOnly: true,
	})
	if err != nil {
		t.Fatalf("AddNote returned error: %v", err)
	}
	if note.AuthorID != 99 || !note.IsInternalOnly {
		t.Errorf("note = %+v, want author 99 internal-only", note)
	}

	if _, err := svc.AddNote(context.Background(), models.AdminContext{ID: 99}, 404, AddNoteInput{Note: "x"}); !errors.Is(err, ErrDisputeNotFound) {
		t.Fatalf("err = %v, want ErrDisputeNotFound", err)
	}
}
