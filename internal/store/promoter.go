package store

import (
	"database/sql"
	"fmt"

	"github.com/volunteerhub/volunteerhub/internal/model"
)

type PromoterStore struct {
	db *sql.DB
}

func NewPromoterStore(db *sql.DB) *PromoterStore {
	return &PromoterStore{db: db}
}

func scanPromoter(scanner interface{ Scan(...any) error }) (*model.Promoter, error) {
	var p model.Promoter
	err := scanner.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const promoterCols = `id, name, email, created_at, updated_at`

func (s *PromoterStore) Create(name, email, passwordHash string) (*model.Promoter, error) {
	result, err := s.db.Exec(
		`INSERT INTO promoters (name, email, password_hash) VALUES (?, ?, ?)`,
		name, email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert promoter: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PromoterStore) GetByID(id int64) (*model.Promoter, error) {
	row := s.db.QueryRow(`SELECT `+promoterCols+` FROM promoters WHERE id = ?`, id)
	p, err := scanPromoter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get promoter: %w", err)
	}
	return p, nil
}

func (s *PromoterStore) GetByEmail(email string) (*model.Promoter, error) {
	row := s.db.QueryRow(`SELECT `+promoterCols+` FROM promoters WHERE email = ?`, email)
	p, err := scanPromoter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get promoter by email: %w", err)
	}
	return p, nil
}

// GetPasswordHash returns the stored hash for login verification.
func (s *PromoterStore) GetPasswordHash(id int64) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM promoters WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get promoter password hash: %w", err)
	}
	return hash, nil
}

func (s *PromoterStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM promoters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete promoter: %w", err)
	}
	return nil
}
