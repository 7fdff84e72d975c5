package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stwalsh4118/casebridge/internal/database"
	"github.com/stwalsh4118/casebridge/internal/models"
)

// DBTX is the subset of pgx shared by pools, connections and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CaseStore defines the row-level operations on cases, parties and issue
// selections. All methods run against the transaction they were created for.
type CaseStore interface {
	// InsertCase writes a new case row and fills in its timestamps.
	InsertCase(ctx context.Context, c *models.Case) error

	// InsertParty writes a new party row and fills in its timestamps.
	InsertParty(ctx context.Context, p *models.Party) error

	// InsertSelection links a party to an issue option.
	// Returns false when the pair already existed.
	InsertSelection(ctx context.Context, partyID, optionID uuid.UUID) (bool, error)

	// DeleteSelection unlinks a party from an issue option.
	// Returns false when there was nothing to delete.
	DeleteSelection(ctx context.Context, partyID, optionID uuid.UUID) (bool, error)

	// GetCase returns nil, nil if the case does not exist.
	GetCase(ctx context.Context, caseID uuid.UUID) (*models.Case, error)

	// GetParty returns nil, nil if the party does not exist in the case.
	GetParty(ctx context.Context, caseID, partyID uuid.UUID) (*models.Party, error)

	// ListParties returns the case's parties of one type ordered by party number.
	ListParties(ctx context.Context, caseID uuid.UUID, partyType models.PartyType) ([]models.Party, error)

	// ListSelections returns every plaintiff selection of the case ordered by
	// party number, category display order and option display order.
	ListSelections(ctx context.Context, caseID uuid.UUID) ([]models.SelectionRow, error)

	// UpdatePartyName overwrites the name triad. Returns false if no row matched.
	UpdatePartyName(ctx context.Context, p *models.Party) (bool, error)

	// UpdateLatestPayload overwrites the latest view and bumps updated_at.
	// Returns false if the case no longer exists.
	UpdateLatestPayload(ctx context.Context, caseID uuid.UUID, payload json.RawMessage) (bool, error)
}

// Transactor runs a unit of work against a CaseStore bound to one
// transaction. The transaction commits when fn returns nil and rolls back
// otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(CaseStore) error) error
	WithinReadTx(ctx context.Context, fn func(CaseStore) error) error
}

// caseRepository is the pgx-backed Transactor.
type caseRepository struct {
	db *database.Database
}

// NewCaseRepository creates a Transactor over the connection pool.
func NewCaseRepository(db *database.Database) Transactor {
	return &caseRepository{db: db}
}

func (r *caseRepository) WithinTx(ctx context.Context, fn func(CaseStore) error) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(NewCaseStore(tx))
	})
}

func (r *caseRepository) WithinReadTx(ctx context.Context, fn func(CaseStore) error) error {
	return r.db.WithReadTx(ctx, func(tx pgx.Tx) error {
		return fn(NewCaseStore(tx))
	})
}

// caseStore implements CaseStore on any DBTX.
type caseStore struct {
	q DBTX
}

// NewCaseStore binds a CaseStore to q.
func NewCaseStore(q DBTX) CaseStore {
	return &caseStore{q: q}
}

func (s *caseStore) InsertCase(ctx context.Context, c *models.Case) error {
	query := `
		INSERT INTO cases (
			id,
			property_address,
			city,
			state,
			zip_code,
			filing_county,
			filing_city,
			display_name,
			internal_name,
			raw_payload,
			latest_payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11::jsonb)
		RETURNING created_at, updated_at
	`

	err := s.q.QueryRow(ctx, query,
		c.ID,
		c.PropertyAddress,
		c.City,
		c.State,
		c.ZipCode,
		c.FilingCounty,
		c.FilingCity,
		c.DisplayName,
		c.InternalName,
		string(c.RawPayload),
		string(c.LatestPayload),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert case %s: %w", c.ID, err)
	}

	return nil
}

func (s *caseStore) InsertParty(ctx context.Context, p *models.Party) error {
	query := `
		INSERT INTO parties (
			id,
			case_id,
			party_type,
			party_number,
			first_name,
			last_name,
			full_name,
			plaintiff_type,
			age_category,
			is_head_of_household,
			unit_number,
			entity_type,
			role
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := s.q.QueryRow(ctx, query,
		p.ID,
		p.CaseID,
		string(p.PartyType),
		p.PartyNumber,
		p.FirstName,
		p.LastName,
		p.FullName,
		p.PlaintiffType,
		p.AgeCategory,
		p.IsHeadOfHousehold,
		p.UnitNumber,
		p.EntityType,
		p.Role,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert %s #%d for case %s: %w", p.PartyType, p.PartyNumber, p.CaseID, err)
	}

	return nil
}

func (s *caseStore) InsertSelection(ctx context.Context, partyID, optionID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO party_issue_selections (party_id, issue_option_id)
		VALUES ($1, $2)
		ON CONFLICT (party_id, issue_option_id) DO NOTHING
	`

	tag, err := s.q.Exec(ctx, query, partyID, optionID)
	if err != nil {
		return false, fmt.Errorf("failed to insert issue selection (party=%s, option=%s): %w", partyID, optionID, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *caseStore) DeleteSelection(ctx context.Context, partyID, optionID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM party_issue_selections
		WHERE party_id = $1 AND issue_option_id = $2
	`

	tag, err := s.q.Exec(ctx, query, partyID, optionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete issue selection (party=%s, option=%s): %w", partyID, optionID, err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *caseStore) GetCase(ctx context.Context, caseID uuid.UUID) (*models.Case, error) {
	query := `
		SELECT
			id,
			property_address,
			city,
			state,
			zip_code,
			filing_county,
			filing_city,
			display_name,
			internal_name,
			raw_payload,
			latest_payload,
			created_at,
			updated_at
		FROM cases
		WHERE id = $1
	`

	var c models.Case
	var raw, latest []byte

	err := s.q.QueryRow(ctx, query, caseID).Scan(
		&c.ID,
		&c.PropertyAddress,
		&c.City,
		&c.State,
		&c.ZipCode,
		&c.FilingCounty,
		&c.FilingCity,
		&c.DisplayName,
		&c.InternalName,
		&raw,
		&latest,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query case %s: %w", caseID, err)
	}

	c.RawPayload = json.RawMessage(raw)
	c.LatestPayload = json.RawMessage(latest)

	return &c, nil
}

const partyColumns = `
			id,
			case_id,
			party_type,
			party_number,
			first_name,
			last_name,
			full_name,
			plaintiff_type,
			age_category,
			is_head_of_household,
			unit_number,
			entity_type,
			role,
			created_at,
			updated_at`

func scanParty(row pgx.Row) (models.Party, error) {
	var p models.Party
	var partyType string

	err := row.Scan(
		&p.ID,
		&p.CaseID,
		&partyType,
		&p.PartyNumber,
		&p.FirstName,
		&p.LastName,
		&p.FullName,
		&p.PlaintiffType,
		&p.AgeCategory,
		&p.IsHeadOfHousehold,
		&p.UnitNumber,
		&p.EntityType,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	p.PartyType = models.PartyType(partyType)
	return p, err
}

func (s *caseStore) GetParty(ctx context.Context, caseID, partyID uuid.UUID) (*models.Party, error) {
	query := `SELECT` + partyColumns + `
		FROM parties
		WHERE case_id = $1 AND id = $2
	`

	p, err := scanParty(s.q.QueryRow(ctx, query, caseID, partyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query party %s of case %s: %w", partyID, caseID, err)
	}

	return &p, nil
}

func (s *caseStore) ListParties(ctx context.Context, caseID uuid.UUID, partyType models.PartyType) ([]models.Party, error) {
	query := `SELECT` + partyColumns + `
		FROM parties
		WHERE case_id = $1 AND party_type = $2
		ORDER BY party_number
	`

	rows, err := s.q.Query(ctx, query, caseID, string(partyType))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s parties of case %s: %w", partyType, caseID, err)
	}
	defer rows.Close()

	parties := []models.Party{}
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan party row: %w", err)
		}
		parties = append(parties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating party rows: %w", err)
	}

	return parties, nil
}

func (s *caseStore) ListSelections(ctx context.Context, caseID uuid.UUID) ([]models.SelectionRow, error) {
	query := `
		SELECT
			s.party_id,
			c.category_code,
			o.option_name
		FROM party_issue_selections s
		JOIN parties p ON p.id = s.party_id
		JOIN issue_options o ON o.id = s.issue_option_id
		JOIN issue_categories c ON c.id = o.category_id
		WHERE p.case_id = $1
		  AND p.party_type = 'plaintiff'
		ORDER BY p.party_number, c.display_order, o.display_order, o.option_name
	`

	rows, err := s.q.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issue selections of case %s: %w", caseID, err)
	}
	defer rows.Close()

	selections := []models.SelectionRow{}
	for rows.Next() {
		var sel models.SelectionRow
		if err := rows.Scan(&sel.PartyID, &sel.CategoryCode, &sel.OptionName); err != nil {
			return nil, fmt.Errorf("failed to scan issue selection row: %w", err)
		}
		selections = append(selections, sel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issue selection rows: %w", err)
	}

	return selections, nil
}

func (s *caseStore) UpdatePartyName(ctx context.Context, p *models.Party) (bool, error) {
	query := `
		UPDATE parties
		SET first_name = $3,
			last_name = $4,
			full_name = $5,
			updated_at = NOW()
		WHERE case_id = $1 AND id = $2
		RETURNING updated_at
	`

	err := s.q.QueryRow(ctx, query, p.CaseID, p.ID, p.FirstName, p.LastName, p.FullName).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update name of party %s: %w", p.ID, err)
	}

	return true, nil
}

func (s *caseStore) UpdateLatestPayload(ctx context.Context, caseID uuid.UUID, payload json.RawMessage) (bool, error) {
	query := `
		UPDATE cases
		SET latest_payload = $2::jsonb,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := s.q.Exec(ctx, query, caseID, string(payload))
	if err != nil {
		return false, fmt.Errorf("failed to update latest payload of case %s: %w", caseID, err)
	}

	return tag.RowsAffected() > 0, nil
}
