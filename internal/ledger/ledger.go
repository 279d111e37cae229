package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/volunteerhub/volunteerhub/internal/model"
)

// Adjustment reasons recorded on ledger entries.
const (
	ReasonAward      = "participation_award"
	ReasonRedemption = "redemption"
)

// ErrInsufficientBalance is returned when a debit would take a volunteer's
// balance below zero.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrNoSuchVolunteer is returned when the volunteer row does not exist.
var ErrNoSuchVolunteer = errors.New("no such volunteer")

// Store is the single mutation path for volunteer balances. Both the award
// workflow and the redemption engine go through Adjust, so the non-negative
// invariant and the audit trail are enforced in exactly one place.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Adjust applies delta to the volunteer's balance inside the caller's
// transaction and appends a ledger entry recording it. The UPDATE is guarded
// so the balance can never go negative regardless of what the caller checked
// beforehand. Returns the balance after the adjustment.
func (s *Store) Adjust(tx *sql.Tx, volunteerID int64, delta int, reason, reference string) (int, error) {
	res, err := tx.Exec(
		`UPDATE volunteers
		 SET total_points = total_points + ?, updated_at = datetime('now')
		 WHERE id = ? AND total_points + ? >= 0`,
		delta, volunteerID, delta,
	)
	if err != nil {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Either the volunteer is gone or the guard rejected the debit.
		var exists int
		err := tx.QueryRow(`SELECT 1 FROM volunteers WHERE id = ?`, volunteerID).Scan(&exists)
		if err == sql.ErrNoRows {
			return 0, ErrNoSuchVolunteer
		}
		if err != nil {
			return 0, fmt.Errorf("check volunteer: %w", err)
		}
		return 0, ErrInsufficientBalance
	}

	var balance int
	if err := tx.QueryRow(`SELECT total_points FROM volunteers WHERE id = ?`, volunteerID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO ledger_entries (volunteer_id, delta, reason, reference, balance_after) VALUES (?, ?, ?, ?, ?)`,
		volunteerID, delta, reason, reference, balance,
	); err != nil {
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}

	return balance, nil
}

// Balance returns the volunteer's current balance, or ErrNoSuchVolunteer.
func (s *Store) Balance(volunteerID int64) (int, error) {
	var balance int
	err := s.db.QueryRow(`SELECT total_points FROM volunteers WHERE id = ?`, volunteerID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrNoSuchVolunteer
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

func scanLedgerEntry(scanner interface{ Scan(...any) error }) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	err := scanner.Scan(&e.ID, &e.VolunteerID, &e.Delta, &e.Reason, &e.Reference, &e.BalanceAfter, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const ledgerEntryCols = `id, volunteer_id, delta, reason, reference, balance_after, created_at`

// Entries returns the volunteer's ledger history, newest first.
func (s *Store) Entries(volunteerID int64) ([]model.LedgerEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+ledgerEntryCols+` FROM ledger_entries WHERE volunteer_id = ? ORDER BY id DESC`,
		volunteerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
