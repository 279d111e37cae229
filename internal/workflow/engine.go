package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/volunteerhub/volunteerhub/internal/ledger"
	"github.com/volunteerhub/volunteerhub/internal/model"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Engine runs the points workflows: application status transitions,
// participation confirmation (the only path that credits points),
// opportunity conclusion, and benefit redemption (the only path that debits
// points). Every operation executes as one transaction; conflicting
// operations on the same volunteer or opportunity are serialized through
// keyed mutexes held for the duration of the transaction.
type Engine struct {
	db     *sql.DB
	ledger *ledger.Store
	locks  *ledger.KeyedMutex
	logger *slog.Logger
	notify func(Event)
}

func NewEngine(db *sql.DB, ls *ledger.Store, locks *ledger.KeyedMutex, logger *slog.Logger) *Engine {
	return &Engine{db: db, ledger: ls, locks: locks, logger: logger}
}

// OnEvent registers a callback invoked after an operation commits. Events are
// never emitted for rolled-back work.
func (e *Engine) OnEvent(fn func(Event)) {
	e.notify = fn
}

func (e *Engine) emit(ev Event) {
	if e.notify != nil {
		e.notify(ev)
	}
}

// ConclusionResult reports what a successful ConcludeOpportunity did.
type ConclusionResult struct {
	OpportunityID         int64                `json:"opportunity_id"`
	Title                 string               `json:"title"`
	ConcludedAt           time.Time            `json:"concluded_at"`
	ParticipantsConfirmed int                  `json:"participants_confirmed"`
	TotalPointsAwarded    int                  `json:"total_points_awarded"`
	Participants          []Participant        `json:"participants"`
	Skipped               []SkippedApplication `json:"skipped,omitempty"`
}

// Participant is one application confirmed during a conclusion.
type Participant struct {
	ApplicationID int64  `json:"application_id"`
	VolunteerID   int64  `json:"volunteer_id"`
	VolunteerName string `json:"volunteer_name"`
	PointsAwarded int    `json:"points_awarded"`
}

// SkippedApplication is an application id passed to ConcludeOpportunity that
// the per-item policy excluded rather than failing the whole call.
type SkippedApplication struct {
	ApplicationID int64  `json:"application_id"`
	Reason        string `json:"reason"`
}

// RedemptionResult is a completed redemption plus the post-debit balance.
type RedemptionResult struct {
	Redemption model.Redemption `json:"redemption"`
	Balance    int              `json:"balance"`
}

// SetApplicationStatus moves an application out of pending. Only
// pending -> accepted and pending -> rejected are legal; anything else is
// ErrInvalidTransition. Returns the updated application.
func (e *Engine) SetApplicationStatus(ctx context.Context, applicationID int64, status string) (*model.Application, error) {
	if !ValidApplicationStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	app, err := getApplication(tx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("application %d: %w", applicationID, ErrNotFound)
	}
	if !CanTransitionApplication(app.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, app.Status, status)
	}

	// Guard on the source status so a racing transition loses cleanly.
	res, err := tx.Exec(
		`UPDATE applications SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		status, time.Now().UTC(), applicationID, app.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("%w: application %d changed concurrently", ErrInvalidTransition, applicationID)
	}

	app, err = getApplication(tx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	e.logger.Info("application status set",
		"application_id", applicationID, "status", status)
	if status == ApplicationAccepted {
		e.emit(Event{
			Type:          EventApplicationAccepted,
			ApplicationID: app.ID,
			VolunteerID:   app.VolunteerID,
			OpportunityID: app.OpportunityID,
		})
	}
	return app, nil
}

// ConfirmParticipation marks an accepted application as participated and
// credits the volunteer with the opportunity's reward, as one atomic unit.
// A second call fails with ErrAlreadyConfirmed and mutates nothing: the
// caller must learn that the award already happened, not get a silent no-op.
func (e *Engine) ConfirmParticipation(ctx context.Context, applicationID int64) (*model.Application, error) {
	// Pre-read to learn the volunteer whose balance lock we need. Everything
	// is re-checked inside the transaction.
	app, err := getApplication(e.db, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("application %d: %w", applicationID, ErrNotFound)
	}

	unlock := e.locks.Lock(ledger.VolunteerKey(app.VolunteerID))
	defer unlock()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	app, awarded, err := e.confirmOne(tx, applicationID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	e.logger.Info("participation confirmed",
		"application_id", app.ID, "volunteer_id", app.VolunteerID, "points", awarded)
	e.emit(Event{
		Type:          EventPointsAwarded,
		ApplicationID: app.ID,
		VolunteerID:   app.VolunteerID,
		OpportunityID: app.OpportunityID,
		Points:        awarded,
	})
	return app, nil
}

// confirmOne is the single award primitive shared by ConfirmParticipation and
// ConcludeOpportunity. It flips participation_confirmed under a guard so the
// award happens at most once, then credits the balance through the ledger.
// Returns the refreshed application and the amount credited.
func (e *Engine) confirmOne(tx *sql.Tx, applicationID int64, now time.Time) (*model.Application, int, error) {
	app, err := getApplication(tx, applicationID)
	if err != nil {
		return nil, 0, err
	}
	if app == nil {
		return nil, 0, fmt.Errorf("application %d: %w", applicationID, ErrNotFound)
	}
	if app.ParticipationConfirmed {
		return nil, 0, fmt.Errorf("application %d: %w", applicationID, ErrAlreadyConfirmed)
	}
	if app.Status != ApplicationAccepted {
		return nil, 0, fmt.Errorf("%w: cannot confirm %s application", ErrInvalidTransition, app.Status)
	}

	opp, err := getOpportunity(tx, app.OpportunityID)
	if err != nil {
		return nil, 0, err
	}
	if opp == nil {
		return nil, 0, fmt.Errorf("opportunity %d: %w", app.OpportunityID, ErrNotFound)
	}

	res, err := tx.Exec(
		`UPDATE applications
		 SET participation_confirmed = 1, points_awarded = ?, confirmed_at = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND participation_confirmed = 0`,
		opp.PointsReward, now, now, applicationID, ApplicationAccepted,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("confirm application: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, 0, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, 0, fmt.Errorf("application %d: %w", applicationID, ErrAlreadyConfirmed)
	}

	ref := fmt.Sprintf("application:%d", applicationID)
	if _, err := e.ledger.Adjust(tx, app.VolunteerID, opp.PointsReward, ledger.ReasonAward, ref); err != nil {
		return nil, 0, fmt.Errorf("credit award: %w", err)
	}

	app, err = getApplication(tx, applicationID)
	if err != nil {
		return nil, 0, err
	}
	return app, opp.PointsReward, nil
}

// Skip reasons for the per-item policy in ConcludeOpportunity.
const (
	skipNotThisOpportunity = "not part of this opportunity"
	skipNotAccepted        = "not accepted"
	skipAlreadyConfirmed   = "already confirmed"
)

// concludeSkipReason is the per-item policy: a non-empty return means the
// application is skipped rather than confirmed, and never fails the call.
func concludeSkipReason(app *model.Application, opportunityID int64) string {
	switch {
	case app.OpportunityID != opportunityID:
		return skipNotThisOpportunity
	case app.ParticipationConfirmed:
		return skipAlreadyConfirmed
	case app.Status != ApplicationAccepted:
		return skipNotAccepted
	default:
		return ""
	}
}

// ConcludeOpportunity confirms participation for every eligible application
// in applicationIDs, awards their points, and closes the opportunity, all in
// one transaction under the opportunity's lock. A missing opportunity or
// application id fails the whole call with ErrNotFound; a wrong promoter
// fails with ErrOwnershipViolation; a second conclusion fails with
// ErrAlreadyConcluded. Ids that exist but are ineligible are skipped.
func (e *Engine) ConcludeOpportunity(ctx context.Context, opportunityID, promoterID int64, applicationIDs []int64) (*ConclusionResult, error) {
	unlock := e.locks.Lock(ledger.OpportunityKey(opportunityID))
	defer unlock()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	opp, err := getOpportunity(tx, opportunityID)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, fmt.Errorf("opportunity %d: %w", opportunityID, ErrNotFound)
	}
	if opp.PromoterID != promoterID {
		return nil, fmt.Errorf("opportunity %d: %w", opportunityID, ErrOwnershipViolation)
	}
	if !CanConclude(opp.Status) {
		return nil, fmt.Errorf("opportunity %d: %w", opportunityID, ErrAlreadyConcluded)
	}

	now := time.Now().UTC()
	result := &ConclusionResult{
		OpportunityID: opp.ID,
		Title:         opp.Title,
		ConcludedAt:   now,
		Participants:  []Participant{},
	}

	seen := make(map[int64]bool, len(applicationIDs))
	for _, id := range applicationIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		app, err := getApplication(tx, id)
		if err != nil {
			return nil, err
		}
		if app == nil {
			return nil, fmt.Errorf("application %d: %w", id, ErrNotFound)
		}

		if reason := concludeSkipReason(app, opportunityID); reason != "" {
			result.Skipped = append(result.Skipped, SkippedApplication{ApplicationID: id, Reason: reason})
			continue
		}

		app, awarded, err := e.confirmOne(tx, id, now)
		if err != nil {
			return nil, err
		}

		var name string
		if err := tx.QueryRow(`SELECT name FROM volunteers WHERE id = ?`, app.VolunteerID).Scan(&name); err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("get volunteer name: %w", err)
		}

		result.Participants = append(result.Participants, Participant{
			ApplicationID: app.ID,
			VolunteerID:   app.VolunteerID,
			VolunteerName: name,
			PointsAwarded: awarded,
		})
		result.ParticipantsConfirmed++
		result.TotalPointsAwarded += awarded
	}

	res, err := tx.Exec(
		`UPDATE opportunities SET status = ?, concluded_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		OpportunityConcluded, now, now, opportunityID, OpportunityOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("conclude opportunity: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("opportunity %d: %w", opportunityID, ErrAlreadyConcluded)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	e.logger.Info("opportunity concluded",
		"opportunity_id", opportunityID,
		"participants", result.ParticipantsConfirmed,
		"points_awarded", result.TotalPointsAwarded)

	for _, p := range result.Participants {
		e.emit(Event{
			Type:          EventPointsAwarded,
			ApplicationID: p.ApplicationID,
			VolunteerID:   p.VolunteerID,
			OpportunityID: opportunityID,
			Points:        p.PointsAwarded,
		})
	}
	e.emit(Event{
		Type:          EventOpportunityConcluded,
		OpportunityID: opportunityID,
		Points:        result.TotalPointsAwarded,
	})
	return result, nil
}

// RedeemPoints atomically debits a volunteer's balance against a benefit's
// cost and records a completed redemption. The volunteer's lock is held
// across the read-check-debit sequence so two redemptions that would jointly
// overdraw cannot both succeed.
func (e *Engine) RedeemPoints(ctx context.Context, volunteerID, benefitID int64) (*RedemptionResult, error) {
	unlock := e.locks.Lock(ledger.VolunteerKey(volunteerID))
	defer unlock()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var balance int
	err = tx.QueryRow(`SELECT total_points FROM volunteers WHERE id = ?`, volunteerID).Scan(&balance)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("volunteer %d: %w", volunteerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get volunteer: %w", err)
	}

	benefit, err := getBenefit(tx, benefitID)
	if err != nil {
		return nil, err
	}
	if benefit == nil {
		return nil, fmt.Errorf("benefit %d: %w", benefitID, ErrNotFound)
	}
	if !benefit.Active {
		return nil, fmt.Errorf("benefit %d: %w", benefitID, ErrBenefitInactive)
	}
	if balance < benefit.PointsRequired {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientPoints, balance, benefit.PointsRequired)
	}

	ref := uuid.NewString()
	balance, err = e.ledger.Adjust(tx, volunteerID, -benefit.PointsRequired, ledger.ReasonRedemption, ref)
	if errors.Is(err, ledger.ErrInsufficientBalance) {
		return nil, fmt.Errorf("%w: balance changed concurrently", ErrInsufficientPoints)
	}
	if err != nil {
		return nil, fmt.Errorf("debit redemption: %w", err)
	}

	now := time.Now().UTC()
	res, err := tx.Exec(
		`INSERT INTO redemptions (reference, volunteer_id, benefit_id, points_spent, status, redeemed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		ref, volunteerID, benefitID, benefit.PointsRequired, RedemptionCompleted, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	e.logger.Info("points redeemed",
		"volunteer_id", volunteerID, "benefit_id", benefitID,
		"points", benefit.PointsRequired, "balance", balance)
	e.emit(Event{
		Type:         EventRedemptionCompleted,
		VolunteerID:  volunteerID,
		BenefitID:    benefitID,
		RedemptionID: id,
		Points:       benefit.PointsRequired,
		Balance:      balance,
	})

	return &RedemptionResult{
		Redemption: model.Redemption{
			ID:          id,
			Reference:   ref,
			VolunteerID: volunteerID,
			BenefitID:   benefitID,
			PointsSpent: benefit.PointsRequired,
			Status:      RedemptionCompleted,
			RedeemedAt:  now,
		},
		Balance: balance,
	}, nil
}

// ListAffordable returns the active benefits the volunteer can afford right
// now, cheapest first. The balance read is the same column RedeemPoints
// checks, so the listing never shows a benefit a redemption at the same
// moment would reject for insufficient points.
func (e *Engine) ListAffordable(ctx context.Context, volunteerID int64) ([]model.Benefit, error) {
	var exists int
	err := e.db.QueryRow(`SELECT 1 FROM volunteers WHERE id = ?`, volunteerID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("volunteer %d: %w", volunteerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get volunteer: %w", err)
	}

	rows, err := e.db.Query(
		`SELECT `+benefitCols+` FROM benefits
		 WHERE active = 1
		   AND points_required <= (SELECT total_points FROM volunteers WHERE id = ?)
		 ORDER BY points_required ASC, title ASC`,
		volunteerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list affordable benefits: %w", err)
	}
	defer rows.Close()

	benefits := []model.Benefit{}
	for rows.Next() {
		b, err := scanBenefit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan benefit: %w", err)
		}
		benefits = append(benefits, *b)
	}
	return benefits, rows.Err()
}

// --- row helpers ---

func scanApplication(scanner interface{ Scan(...any) error }) (*model.Application, error) {
	var a model.Application
	var confirmed int
	var confirmedAt sql.NullTime

	err := scanner.Scan(
		&a.ID, &a.VolunteerID, &a.OpportunityID, &a.Status,
		&confirmed, &a.PointsAwarded, &confirmedAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.ParticipationConfirmed = confirmed != 0
	if confirmedAt.Valid {
		a.ConfirmedAt = &confirmedAt.Time
	}
	return &a, nil
}

const applicationCols = `id, volunteer_id, opportunity_id, status, participation_confirmed, points_awarded, confirmed_at, created_at, updated_at`

func getApplication(q dbtx, id int64) (*model.Application, error) {
	row := q.QueryRow(`SELECT `+applicationCols+` FROM applications WHERE id = ?`, id)
	a, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

func scanOpportunity(scanner interface{ Scan(...any) error }) (*model.Opportunity, error) {
	var o model.Opportunity
	var concludedAt sql.NullTime

	err := scanner.Scan(
		&o.ID, &o.PromoterID, &o.Title, &o.Description, &o.PointsReward,
		&o.Status, &concludedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if concludedAt.Valid {
		o.ConcludedAt = &concludedAt.Time
	}
	return &o, nil
}

const opportunityCols = `id, promoter_id, title, description, points_reward, status, concluded_at, created_at, updated_at`

func getOpportunity(q dbtx, id int64) (*model.Opportunity, error) {
	row := q.QueryRow(`SELECT `+opportunityCols+` FROM opportunities WHERE id = ?`, id)
	o, err := scanOpportunity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return o, nil
}

func scanBenefit(scanner interface{ Scan(...any) error }) (*model.Benefit, error) {
	var b model.Benefit
	var active int

	err := scanner.Scan(
		&b.ID, &b.Title, &b.Description, &b.Category, &b.PointsRequired,
		&active, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Active = active != 0
	return &b, nil
}

const benefitCols = `id, title, description, category, points_required, active, created_at, updated_at`

func getBenefit(q dbtx, id int64) (*model.Benefit, error) {
	row := q.QueryRow(`SELECT `+benefitCols+` FROM benefits WHERE id = ?`, id)
	b, err := scanBenefit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get benefit: %w", err)
	}
	return b, nil
}
