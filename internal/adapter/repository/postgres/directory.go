package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/ntdung97/spacebook/internal/core/domain"
)

// Directory resolves notification receivers from the venue/user tables owned
// by the CRUD service.
type Directory struct {
	db *sql.DB
}

func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

// SpaceManagers returns the venue owner plus any assigned managers for the
// venue the space belongs to.
func (d *Directory) SpaceManagers(ctx context.Context, spaceID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := d.db.QueryContext(ctx, `
	SELECT v.owner_id FROM spaces s JOIN venues v ON v.id = s.venue_id WHERE s.id = $1
	UNION
	SELECT vm.user_id FROM spaces s JOIN venue_managers vm ON vm.venue_id = s.venue_id WHERE s.id = $1
	`, spaceID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	return scanIDs(rows)
}

func (d *Directory) Operators(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id FROM users WHERE role = 'OPERATOR'`)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	return scanIDs(rows)
}

func (d *Directory) Contact(ctx context.Context, userID uuid.UUID) (*domain.Contact, error) {
	var c domain.Contact
	var phone sql.NullString

	err := d.db.QueryRowContext(ctx, `SELECT email, phone FROM users WHERE id = $1`, userID).
		Scan(&c.Email, &phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	c.Phone = phone.String
	return &c, nil
}

func scanIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}
