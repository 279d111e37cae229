package store

import (
	"database/sql"
	"fmt"

	"github.com/volunteerhub/volunteerhub/internal/model"
)

type VolunteerStore struct {
	db *sql.DB
}

func NewVolunteerStore(db *sql.DB) *VolunteerStore {
	return &VolunteerStore{db: db}
}

func scanVolunteer(scanner interface{ Scan(...any) error }) (*model.Volunteer, error) {
	var v model.Volunteer
	err := scanner.Scan(&v.ID, &v.Name, &v.Email, &v.TotalPoints, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

const volunteerCols = `id, name, email, total_points, created_at, updated_at`

func (s *VolunteerStore) Create(name, email, passwordHash string) (*model.Volunteer, error) {
	result, err := s.db.Exec(
		`INSERT INTO volunteers (name, email, password_hash) VALUES (?, ?, ?)`,
		name, email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert volunteer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *VolunteerStore) GetByID(id int64) (*model.Volunteer, error) {
	row := s.db.QueryRow(`SELECT `+volunteerCols+` FROM volunteers WHERE id = ?`, id)
	v, err := scanVolunteer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get volunteer: %w", err)
	}
	return v, nil
}

func (s *VolunteerStore) GetByEmail(email string) (*model.Volunteer, error) {
	row := s.db.QueryRow(`SELECT `+volunteerCols+` FROM volunteers WHERE email = ?`, email)
	v, err := scanVolunteer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get volunteer by email: %w", err)
	}
	return v, nil
}

// GetPasswordHash returns the stored hash for login verification.
func (s *VolunteerStore) GetPasswordHash(id int64) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM volunteers WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get volunteer password hash: %w", err)
	}
	return hash, nil
}

func (s *VolunteerStore) List() ([]model.Volunteer, error) {
	rows, err := s.db.Query(`SELECT ` + volunteerCols + ` FROM volunteers ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []model.Volunteer
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan volunteer: %w", err)
		}
		volunteers = append(volunteers, *v)
	}
	return volunteers, rows.Err()
}

func (s *VolunteerStore) Update(id int64, name, email string) (*model.Volunteer, error) {
	_, err := s.db.Exec(
		`UPDATE volunteers SET name = ?, email = ?, updated_at = datetime('now') WHERE id = ?`,
		name, email, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update volunteer: %w", err)
	}
	return s.GetByID(id)
}

func (s *VolunteerStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM volunteers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete volunteer: %w", err)
	}
	return nil
}
