package store

import (
	"database/sql"
	"fmt"

	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/workflow"
)

type OpportunityStore struct {
	db *sql.DB
}

func NewOpportunityStore(db *sql.DB) *OpportunityStore {
	return &OpportunityStore{db: db}
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

// Create inserts a new opportunity in the open status.
func (s *OpportunityStore) Create(promoterID int64, title, description string, pointsReward int) (*model.Opportunity, error) {
	result, err := s.db.Exec(
		`INSERT INTO opportunities (promoter_id, title, description, points_reward, status) VALUES (?, ?, ?, ?, ?)`,
		promoterID, title, description, pointsReward, workflow.OpportunityOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("insert opportunity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *OpportunityStore) GetByID(id int64) (*model.Opportunity, error) {
	row := s.db.QueryRow(`SELECT `+opportunityCols+` FROM opportunities WHERE id = ?`, id)
	o, err := scanOpportunity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return o, nil
}

// List returns all opportunities, open first, newest within each status.
func (s *OpportunityStore) List() ([]model.Opportunity, error) {
	rows, err := s.db.Query(`SELECT ` + opportunityCols + ` FROM opportunities ORDER BY status DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	return collectOpportunities(rows)
}

func (s *OpportunityStore) ListByPromoter(promoterID int64) ([]model.Opportunity, error) {
	rows, err := s.db.Query(
		`SELECT `+opportunityCols+` FROM opportunities WHERE promoter_id = ? ORDER BY created_at DESC`,
		promoterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list opportunities by promoter: %w", err)
	}
	defer rows.Close()

	return collectOpportunities(rows)
}

func collectOpportunities(rows *sql.Rows) ([]model.Opportunity, error) {
	var opportunities []model.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		opportunities = append(opportunities, *o)
	}
	return opportunities, rows.Err()
}

// Update edits title, description, and reward. Status and concluded_at are
// owned by the workflow engine and never touched here.
func (s *OpportunityStore) Update(id int64, title, description string, pointsReward int) (*model.Opportunity, error) {
	_, err := s.db.Exec(
		`UPDATE opportunities SET title = ?, description = ?, points_reward = ?, updated_at = datetime('now') WHERE id = ?`,
		title, description, pointsReward, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update opportunity: %w", err)
	}
	return s.GetByID(id)
}

func (s *OpportunityStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM opportunities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	return nil
}
