package store

import (
	"database/sql"
	"fmt"

	"github.com/volunteerhub/volunteerhub/internal/model"
)

// RedemptionStore reads redemption records. Redemptions are only ever created
// by the workflow engine inside its debit transaction.
type RedemptionStore struct {
	db *sql.DB
}

func NewRedemptionStore(db *sql.DB) *RedemptionStore {
	return &RedemptionStore{db: db}
}

func scanRedemption(scanner interface{ Scan(...any) error }) (*model.Redemption, error) {
	var r model.Redemption
	err := scanner.Scan(&r.ID, &r.Reference, &r.VolunteerID, &r.BenefitID, &r.PointsSpent, &r.Status, &r.RedeemedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const redemptionCols = `id, reference, volunteer_id, benefit_id, points_spent, status, redeemed_at`

func (s *RedemptionStore) GetByID(id int64) (*model.Redemption, error) {
	row := s.db.QueryRow(`SELECT `+redemptionCols+` FROM redemptions WHERE id = ?`, id)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

func (s *RedemptionStore) ListByVolunteer(volunteerID int64) ([]model.Redemption, error) {
	rows, err := s.db.Query(
		`SELECT `+redemptionCols+` FROM redemptions WHERE volunteer_id = ? ORDER BY redeemed_at DESC, id DESC`,
		volunteerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list redemptions by volunteer: %w", err)
	}
	defer rows.Close()

	var redemptions []model.Redemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}
