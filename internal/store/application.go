package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/workflow"
)

// ErrDuplicateApplication is returned when a volunteer already applied to the
// opportunity. One application per volunteer per opportunity.
var ErrDuplicateApplication = errors.New("volunteer already applied to this opportunity")

type ApplicationStore struct {
	db *sql.DB
}

func NewApplicationStore(db *sql.DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

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

// Create inserts a pending application.
func (s *ApplicationStore) Create(volunteerID, opportunityID int64) (*model.Application, error) {
	result, err := s.db.Exec(
		`INSERT INTO applications (volunteer_id, opportunity_id, status) VALUES (?, ?, ?)`,
		volunteerID, opportunityID, workflow.ApplicationPending,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateApplication
		}
		return nil, fmt.Errorf("insert application: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ApplicationStore) GetByID(id int64) (*model.Application, error) {
	row := s.db.QueryRow(`SELECT `+applicationCols+` FROM applications WHERE id = ?`, id)
	a, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

func (s *ApplicationStore) ListByOpportunity(opportunityID int64) ([]model.Application, error) {
	rows, err := s.db.Query(
		`SELECT `+applicationCols+` FROM applications WHERE opportunity_id = ? ORDER BY created_at ASC`,
		opportunityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list applications by opportunity: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

func (s *ApplicationStore) ListByVolunteer(volunteerID int64) ([]model.Application, error) {
	rows, err := s.db.Query(
		`SELECT `+applicationCols+` FROM applications WHERE volunteer_id = ? ORDER BY created_at DESC`,
		volunteerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list applications by volunteer: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

func collectApplications(rows *sql.Rows) ([]model.Application, error) {
	var applications []model.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		applications = append(applications, *a)
	}
	return applications, rows.Err()
}
