package workflow

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/volunteerhub/volunteerhub/internal/database"
	"github.com/volunteerhub/volunteerhub/internal/ledger"
)

func setupEngineTest(t *testing.T) (*Engine, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewEngine(db, ledger.NewStore(db), ledger.NewKeyedMutex(), logger)
	return engine, db
}

func createPromoter(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO promoters (name, email) VALUES ('Beach Org', 'org-' || hex(randomblob(4)) || '@example.org')`)
	if err != nil {
		t.Fatalf("create promoter: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func createVolunteer(t *testing.T, db *sql.DB, points int) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO volunteers (name, email, total_points) VALUES ('Ana', 'ana-' || hex(randomblob(4)) || '@example.org', ?)`,
		points,
	)
	if err != nil {
		t.Fatalf("create volunteer: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func createOpportunity(t *testing.T, db *sql.DB, promoterID int64, reward int, status string) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO opportunities (promoter_id, title, points_reward, status) VALUES (?, 'Beach Cleanup', ?, ?)`,
		promoterID, reward, status,
	)
	if err != nil {
		t.Fatalf("create opportunity: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func createApplication(t *testing.T, db *sql.DB, volunteerID, opportunityID int64, status string) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO applications (volunteer_id, opportunity_id, status) VALUES (?, ?, ?)`,
		volunteerID, opportunityID, status,
	)
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func createBenefit(t *testing.T, db *sql.DB, cost int, active bool) int64 {
	t.Helper()
	a := 0
	if active {
		a = 1
	}
	res, err := db.Exec(
		`INSERT INTO benefits (title, points_required, active) VALUES ('Cinema Ticket', ?, ?)`,
		cost, a,
	)
	if err != nil {
		t.Fatalf("create benefit: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func balance(t *testing.T, db *sql.DB, volunteerID int64) int {
	t.Helper()
	var b int
	if err := db.QueryRow(`SELECT total_points FROM volunteers WHERE id = ?`, volunteerID).Scan(&b); err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return b
}

func ledgerCount(t *testing.T, db *sql.DB, volunteerID int64) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE volunteer_id = ?`, volunteerID).Scan(&n); err != nil {
		t.Fatalf("count ledger entries: %v", err)
	}
	return n
}

func TestSetApplicationStatusAccept(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	volunteerID := createVolunteer(t, db, 0)
	oppID := createOpportunity(t, db, promoterID, 50, OpportunityOpen)
	appID := createApplication(t, db, volunteerID, oppID, ApplicationPending)

	app, err := engine.SetApplicationStatus(context.Background(), appID, ApplicationAccepted)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if app.Status != ApplicationAccepted {
		t.Errorf("status = %q, want %q", app.Status, ApplicationAccepted)
	}
	// Acceptance alone never credits points.
	if got := balance(t, db, volunteerID); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}

func TestSetApplicationStatusReject(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	volunteerID := createVolunteer(t, db, 0)
	oppID := createOpportunity(t, db, promoterID, 50, OpportunityOpen)
	appID := createApplication(t, db, volunteerID, oppID, ApplicationPending)

	app, err := engine.SetApplicationStatus(context.Background(), appID, ApplicationRejected)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if app.Status != ApplicationRejected {
		t.Errorf("status = %q, want %q", app.Status, ApplicationRejected)
	}
}

func TestSetApplicationStatusInvalidTransitions(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	volunteerID := createVolunteer(t, db, 0)

	tests := []struct {
		name string
		from string
		to   string
	}{
		{"accepted to rejected", ApplicationAccepted, ApplicationRejected},
		{"rejected to accepted", ApplicationRejected, ApplicationAccepted},
		{"accepted to pending", ApplicationAccepted, ApplicationPending},
		{"pending to garbage", ApplicationPending, "approved"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oppID := createOpportunity(t, db, promoterID, 10, OpportunityOpen)
			appID := createApplication(t, db, volunteerID, oppID, tt.from)

			_, err := engine.SetApplicationStatus(context.Background(), appID, tt.to)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("err = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestSetApplicationStatusNotFound(t *testing.T) {
	engine, _ := setupEngineTest(t)

	_, err := engine.SetApplicationStatus(context.Background(), 9999, ApplicationAccepted)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestConfirmParticipationAwardsPoints(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	volunteerID := createVolunteer(t, db, 25)
	oppID := createOpportunity(t, db, promoterID, 50, OpportunityOpen)
	appID := createApplication(t, db, volunteerID, oppID, ApplicationAccepted)

	app, err := engine.ConfirmParticipation(context.Background(), appID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !app.ParticipationConfirmed {
		t.Error("participation_confirmed = false, want true")
	}
	if app.PointsAwarded != 50 {
		t.Errorf("points_awarded = %d, want 50", app.PointsAwarded)
	}
	if app.ConfirmedAt == nil {
		t.Error("confirmed_at = nil, want set")
	}
	if got := balance(t, db, volunteerID); got != 75 {
		t.Errorf("balance = %d, want 75", got)
	}
	if got := ledgerCount(t, db, volunteerID); got != 1 {
		t.Errorf("ledger entries = %d, want 1", got)
	}
}

func TestConfirmParticipationTwice(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	volunteerID := createVolunteer(t, db, 0)
	oppID := createOpportunity(t, db, promoterID, 50, OpportunityOpen)
	appID := createApplication(t, db, volunteerID, oppID, ApplicationAccepted)

	if _, err := engine.ConfirmParticipation(context.Background(), appID); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	_, err := engine.ConfirmParticipation(context.Background(), appID)
	if !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("second confirm err = %v, want ErrAlreadyConfirmed", err)
	}
	// The failed second confirm must not touch the balance or the ledger.
	if got := balance(t, db, volunteerID); got != 50 {
		t.Errorf("balance = %d, want 50", got)
	}
	if got := ledgerCount(t, db, volunteerID); got != 1 {
		t.Errorf("ledger entries = %d, want 1", got)
	}
}

func TestConfirmParticipationRequiresAccepted(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	oppID := createOpportunity(t, db, promoterID, 50, OpportunityOpen)

	for _, status := range []string{ApplicationPending, ApplicationRejected} {
		volunteerID := createVolunteer(t, db, 0)
		appID := createApplication(t, db, volunteerID, oppID, status)

		_, err := engine.ConfirmParticipation(context.Background(), appID)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("confirm %s application: err = %v, want ErrInvalidTransition", status, err)
		}
		if got := balance(t, db, volunteerID); got != 0 {
			t.Errorf("balance after failed confirm = %d, want 0", got)
		}
	}
}

func TestConcludeOpportunity(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	oppID := createOpportunity(t, db, promoterID, 40, OpportunityOpen)

	v1 := createVolunteer(t, db, 0)
	v2 := createVolunteer(t, db, 10)
	v3 := createVolunteer(t, db, 0)
	accepted1 := createApplication(t, db, v1, oppID, ApplicationAccepted)
	accepted2 := createApplication(t, db, v2, oppID, ApplicationAccepted)
	pending := createApplication(t, db, v3, oppID, ApplicationPending)

	result, err := engine.ConcludeOpportunity(context.Background(), oppID, promoterID,
		[]int64{accepted1, accepted2, pending})
	if err != nil {
		t.Fatalf("conclude: %v", err)
	}

	if result.ParticipantsConfirmed != 2 {
		t.Errorf("participants_confirmed = %d, want 2", result.ParticipantsConfirmed)
	}
	if result.TotalPointsAwarded != 80 {
		t.Errorf("total_points_awarded = %d, want 80", result.TotalPointsAwarded)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", len(result.Skipped))
	}
	if result.Skipped[0].ApplicationID != pending {
		t.Errorf("skipped id = %d, want %d", result.Skipped[0].ApplicationID, pending)
	}

	if got := balance(t, db, v1); got != 40 {
		t.Errorf("v1 balance = %d, want 40", got)
	}
	if got := balance(t, db, v2); got != 50 {
		t.Errorf("v2 balance = %d, want 50", got)
	}
	if got := balance(t, db, v3); got != 0 {
		t.Errorf("v3 balance = %d, want 0", got)
	}

	var status string
	var concludedAt sql.NullTime
	if err := db.QueryRow(`SELECT status, concluded_at FROM opportunities WHERE id = ?`, oppID).Scan(&status, &concludedAt); err != nil {
		t.Fatalf("read opportunity: %v", err)
	}
	if status != OpportunityConcluded {
		t.Errorf("opportunity status = %q, want %q", status, OpportunityConcluded)
	}
	if !concludedAt.Valid {
		t.Error("concluded_at = nil, want set")
	}
}

func TestConcludeOpportunityEmptyList(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	oppID := createOpportunity(t, db, promoterID, 40, OpportunityOpen)

	result, err := engine.ConcludeOpportunity(context.Background(), oppID, promoterID, nil)
	if err != nil {
		t.Fatalf("conclude: %v", err)
	}
	if result.ParticipantsConfirmed != 0 {
		t.Errorf("participants_confirmed = %d, want 0", result.ParticipantsConfirmed)
	}

	var status string
	if err := db.QueryRow(`SELECT status FROM opportunities WHERE id = ?`, oppID).Scan(&status); err != nil {
		t.Fatalf("read opportunity: %v", err)
	}
	if status != OpportunityConcluded {
		t.Errorf("status = %q, want %q", status, OpportunityConcluded)
	}
}

func TestConcludeOpportunityDedupesIDs(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	oppID := createOpportunity(t, db, promoterID, 40, OpportunityOpen)
	volunteerID := createVolunteer(t, db, 0)
	appID := createApplication(t, db, volunteerID, oppID, ApplicationAccepted)

	result, err := engine.ConcludeOpportunity(context.Background(), oppID, promoterID,
		[]int64{appID, appID, appID})
	if err != nil {
		t.Fatalf("conclude: %v", err)
	}
	if result.ParticipantsConfirmed != 1 {
		t.Errorf("participants_confirmed = %d, want 1", result.ParticipantsConfirmed)
	}
	if got := balance(t, db, volunteerID); got != 40 {
		t.Errorf("balance = %d, want 40", got)
	}
}

func TestConcludeOpportunitySkipsForeignAndConfirmed(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	oppID := createOpportunity(t, db, promoterID, 40, OpportunityOpen)
	otherOppID := createOpportunity(t, db, promoterID, 15, OpportunityOpen)

	v1 := createVolunteer(t, db, 0)
	v2 := createVolunteer(t, db, 0)
	foreign := createApplication(t, db, v1, otherOppID, ApplicationAccepted)
	confirmedID := createApplication(t, db, v2, oppID, ApplicationAccepted)
	if _, err := engine.ConfirmParticipation(context.Background(), confirmedID); err != nil {
		t.Fatalf("pre-confirm: %v", err)
	}

	result, err := engine.ConcludeOpportunity(context.Background(), oppID, promoterID,
		[]int64{foreign, confirmedID})
	if err != nil {
		t.Fatalf("conclude: %v", err)
	}
	if result.ParticipantsConfirmed != 0 {
		t.Errorf("participants_confirmed = %d, want 0", result.ParticipantsConfirmed)
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("skipped = %d, want 2", len(result.Skipped))
	}
	// The already-confirmed volunteer keeps exactly one award.
	if got := balance(t, db, v2); got != 40 {
		t.Errorf("v2 balance = %d, want 40", got)
	}
}

func TestConcludeOpportunityMissingApplicationFailsWhole(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	oppID := createOpportunity(t, db, promoterID, 40, OpportunityOpen)
	volunteerID := createVolunteer(t, db, 0)
	appID := createApplication(t, db, volunteerID, oppID, ApplicationAccepted)

	_, err := engine.ConcludeOpportunity(context.Background(), oppID, promoterID,
		[]int64{appID, 9999})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	// Whole call rolled back: no award, opportunity still open.
	if got := balance(t, db, volunteerID); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
	var status string
	if err := db.QueryRow(`SELECT status FROM opportunities WHERE id = ?`, oppID).Scan(&status); err != nil {
		t.Fatalf("read opportunity: %v", err)
	}
	if status != OpportunityOpen {
		t.Errorf("status = %q, want %q", status, OpportunityOpen)
	}
}

func TestConcludeOpportunityOwnership(t *testing.T) {
	engine, db := setupEngineTest(t)
	owner := createPromoter(t, db)
	other := createPromoter(t, db)
	oppID := createOpportunity(t, db, owner, 40, OpportunityOpen)

	_, err := engine.ConcludeOpportunity(context.Background(), oppID, other, nil)
	if !errors.Is(err, ErrOwnershipViolation) {
		t.Errorf("err = %v, want ErrOwnershipViolation", err)
	}
}

func TestConcludeOpportunityTwice(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	oppID := createOpportunity(t, db, promoterID, 40, OpportunityOpen)

	if _, err := engine.ConcludeOpportunity(context.Background(), oppID, promoterID, nil); err != nil {
		t.Fatalf("first conclude: %v", err)
	}
	_, err := engine.ConcludeOpportunity(context.Background(), oppID, promoterID, nil)
	if !errors.Is(err, ErrAlreadyConcluded) {
		t.Errorf("second conclude err = %v, want ErrAlreadyConcluded", err)
	}
}

func TestConcludeOpportunityNotFound(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)

	_, err := engine.ConcludeOpportunity(context.Background(), 9999, promoterID, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRedeemPoints(t *testing.T) {
	engine, db := setupEngineTest(t)
	volunteerID := createVolunteer(t, db, 100)
	benefitID := createBenefit(t, db, 60, true)

	result, err := engine.RedeemPoints(context.Background(), volunteerID, benefitID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if result.Balance != 40 {
		t.Errorf("balance = %d, want 40", result.Balance)
	}
	if result.Redemption.PointsSpent != 60 {
		t.Errorf("points_spent = %d, want 60", result.Redemption.PointsSpent)
	}
	if result.Redemption.Status != RedemptionCompleted {
		t.Errorf("status = %q, want %q", result.Redemption.Status, RedemptionCompleted)
	}
	if result.Redemption.Reference == "" {
		t.Error("reference is empty")
	}
	if got := balance(t, db, volunteerID); got != 40 {
		t.Errorf("stored balance = %d, want 40", got)
	}
	if got := ledgerCount(t, db, volunteerID); got != 1 {
		t.Errorf("ledger entries = %d, want 1", got)
	}
}

func TestRedeemPointsExactBalance(t *testing.T) {
	engine, db := setupEngineTest(t)
	volunteerID := createVolunteer(t, db, 60)
	benefitID := createBenefit(t, db, 60, true)

	result, err := engine.RedeemPoints(context.Background(), volunteerID, benefitID)
	if err != nil {
		t.Fatalf("redeem at exact balance: %v", err)
	}
	if result.Balance != 0 {
		t.Errorf("balance = %d, want 0", result.Balance)
	}
}

func TestRedeemPointsInsufficient(t *testing.T) {
	engine, db := setupEngineTest(t)
	volunteerID := createVolunteer(t, db, 59)
	benefitID := createBenefit(t, db, 60, true)

	_, err := engine.RedeemPoints(context.Background(), volunteerID, benefitID)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}
	// Nothing written on failure.
	if got := balance(t, db, volunteerID); got != 59 {
		t.Errorf("balance = %d, want 59", got)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM redemptions WHERE volunteer_id = ?`, volunteerID).Scan(&n); err != nil {
		t.Fatalf("count redemptions: %v", err)
	}
	if n != 0 {
		t.Errorf("redemptions = %d, want 0", n)
	}
}

func TestRedeemPointsInactiveBenefit(t *testing.T) {
	engine, db := setupEngineTest(t)
	volunteerID := createVolunteer(t, db, 100)
	benefitID := createBenefit(t, db, 60, false)

	_, err := engine.RedeemPoints(context.Background(), volunteerID, benefitID)
	if !errors.Is(err, ErrBenefitInactive) {
		t.Errorf("err = %v, want ErrBenefitInactive", err)
	}
}

func TestRedeemPointsMissingBenefit(t *testing.T) {
	engine, db := setupEngineTest(t)
	volunteerID := createVolunteer(t, db, 100)

	_, err := engine.RedeemPoints(context.Background(), volunteerID, 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRedeemPointsMissingVolunteer(t *testing.T) {
	engine, db := setupEngineTest(t)
	benefitID := createBenefit(t, db, 60, true)

	_, err := engine.RedeemPoints(context.Background(), 9999, benefitID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// Two redemptions of 100 against a balance of 150 must not both succeed.
func TestConcurrentRedemptionsCannotOverdraw(t *testing.T) {
	engine, db := setupEngineTest(t)
	volunteerID := createVolunteer(t, db, 150)
	benefitID := createBenefit(t, db, 100, true)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.RedeemPoints(context.Background(), volunteerID, benefitID)
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientPoints):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || insufficient != 1 {
		t.Fatalf("got %d successes and %d insufficient, want 1 and 1", ok, insufficient)
	}
	if got := balance(t, db, volunteerID); got != 50 {
		t.Errorf("balance = %d, want 50", got)
	}
}

// A conclusion raced against itself still awards each application once.
func TestConcurrentConclusionAwardsOnce(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	oppID := createOpportunity(t, db, promoterID, 40, OpportunityOpen)
	volunteerID := createVolunteer(t, db, 0)
	appID := createApplication(t, db, volunteerID, oppID, ApplicationAccepted)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.ConcludeOpportunity(context.Background(), oppID, promoterID, []int64{appID})
		}(i)
	}
	wg.Wait()

	var ok, concluded int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyConcluded):
			concluded++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || concluded != 1 {
		t.Fatalf("got %d successes and %d already-concluded, want 1 and 1", ok, concluded)
	}
	if got := balance(t, db, volunteerID); got != 40 {
		t.Errorf("balance = %d, want 40", got)
	}
	if got := ledgerCount(t, db, volunteerID); got != 1 {
		t.Errorf("ledger entries = %d, want 1", got)
	}
}

func TestListAffordable(t *testing.T) {
	engine, db := setupEngineTest(t)
	volunteerID := createVolunteer(t, db, 50)

	cheap := createBenefit(t, db, 20, true)
	if _, err := db.Exec(`UPDATE benefits SET title = 'Bus Pass' WHERE id = ?`, cheap); err != nil {
		t.Fatalf("rename benefit: %v", err)
	}
	exact := createBenefit(t, db, 50, true)
	createBenefit(t, db, 51, true)  // too expensive
	createBenefit(t, db, 10, false) // inactive

	benefits, err := engine.ListAffordable(context.Background(), volunteerID)
	if err != nil {
		t.Fatalf("list affordable: %v", err)
	}
	if len(benefits) != 2 {
		t.Fatalf("len = %d, want 2", len(benefits))
	}
	if benefits[0].ID != cheap {
		t.Errorf("first = %d, want cheapest %d", benefits[0].ID, cheap)
	}
	if benefits[1].ID != exact {
		t.Errorf("second = %d, want exact-cost %d", benefits[1].ID, exact)
	}
}

func TestListAffordableEmptyNotNil(t *testing.T) {
	engine, db := setupEngineTest(t)
	volunteerID := createVolunteer(t, db, 0)
	createBenefit(t, db, 10, true)

	benefits, err := engine.ListAffordable(context.Background(), volunteerID)
	if err != nil {
		t.Fatalf("list affordable: %v", err)
	}
	if benefits == nil {
		t.Fatal("benefits = nil, want empty slice")
	}
	if len(benefits) != 0 {
		t.Errorf("len = %d, want 0", len(benefits))
	}
}

func TestListAffordableMissingVolunteer(t *testing.T) {
	engine, _ := setupEngineTest(t)

	_, err := engine.ListAffordable(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestEventsEmittedAfterCommit(t *testing.T) {
	engine, db := setupEngineTest(t)
	promoterID := createPromoter(t, db)
	volunteerID := createVolunteer(t, db, 0)
	oppID := createOpportunity(t, db, promoterID, 40, OpportunityOpen)
	appID := createApplication(t, db, volunteerID, oppID, ApplicationPending)

	var mu sync.Mutex
	var events []Event
	engine.OnEvent(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	if _, err := engine.SetApplicationStatus(context.Background(), appID, ApplicationAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := engine.ConcludeOpportunity(context.Background(), oppID, promoterID, []int64{appID}); err != nil {
		t.Fatalf("conclude: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{EventApplicationAccepted, EventPointsAwarded, EventOpportunityConcluded}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, typ := range want {
		if events[i].Type != typ {
			t.Errorf("events[%d].Type = %q, want %q", i, events[i].Type, typ)
		}
	}
	if events[1].Points != 40 {
		t.Errorf("award event points = %d, want 40", events[1].Points)
	}
}

func TestNoEventsOnFailure(t *testing.T) {
	engine, db := setupEngineTest(t)
	volunteerID := createVolunteer(t, db, 10)
	benefitID := createBenefit(t, db, 100, true)

	fired := false
	engine.OnEvent(func(Event) { fired = true })

	if _, err := engine.RedeemPoints(context.Background(), volunteerID, benefitID); err == nil {
		t.Fatal("expected redemption to fail")
	}
	if fired {
		t.Error("event emitted for failed redemption")
	}
}
