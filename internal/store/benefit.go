package store

import (
	"database/sql"
	"fmt"

	"github.com/volunteerhub/volunteerhub/internal/model"
)

type BenefitStore struct {
	db *sql.DB
}

func NewBenefitStore(db *sql.DB) *BenefitStore {
	return &BenefitStore{db: db}
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

func (s *BenefitStore) Create(title, description, category string, pointsRequired int, active bool) (*model.Benefit, error) {
	var a int
	if active {
		a = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO benefits (title, description, category, points_required, active) VALUES (?, ?, ?, ?, ?)`,
		title, description, category, pointsRequired, a,
	)
	if err != nil {
		return nil, fmt.Errorf("insert benefit: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *BenefitStore) GetByID(id int64) (*model.Benefit, error) {
	row := s.db.QueryRow(`SELECT `+benefitCols+` FROM benefits WHERE id = ?`, id)
	b, err := scanBenefit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get benefit: %w", err)
	}
	return b, nil
}

// List returns all benefits, active first, then cheapest first.
func (s *BenefitStore) List() ([]model.Benefit, error) {
	rows, err := s.db.Query(`SELECT ` + benefitCols + ` FROM benefits ORDER BY active DESC, points_required ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list benefits: %w", err)
	}
	defer rows.Close()

	return collectBenefits(rows)
}

// ListActive returns only active benefits, cheapest first.
func (s *BenefitStore) ListActive() ([]model.Benefit, error) {
	rows, err := s.db.Query(`SELECT ` + benefitCols + ` FROM benefits WHERE active = 1 ORDER BY points_required ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active benefits: %w", err)
	}
	defer rows.Close()

	return collectBenefits(rows)
}

func collectBenefits(rows *sql.Rows) ([]model.Benefit, error) {
	var benefits []model.Benefit
	for rows.Next() {
		b, err := scanBenefit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan benefit: %w", err)
		}
		benefits = append(benefits, *b)
	}
	return benefits, rows.Err()
}

func (s *BenefitStore) Update(id int64, title, description, category string, pointsRequired int) (*model.Benefit, error) {
	_, err := s.db.Exec(
		`UPDATE benefits SET title = ?, description = ?, category = ?, points_required = ?, updated_at = datetime('now') WHERE id = ?`,
		title, description, category, pointsRequired, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update benefit: %w", err)
	}
	return s.GetByID(id)
}

// SetActive flips the active flag. Deactivated benefits stay in the catalog
// so past redemptions keep a valid reference.
func (s *BenefitStore) SetActive(id int64, active bool) (*model.Benefit, error) {
	var a int
	if active {
		a = 1
	}

	_, err := s.db.Exec(
		`UPDATE benefits SET active = ?, updated_at = datetime('now') WHERE id = ?`,
		a, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set benefit active: %w", err)
	}
	return s.GetByID(id)
}

func (s *BenefitStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM benefits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete benefit: %w", err)
	}
	return nil
}
