package models

import (
	"time"

	"github.com/google/uuid"
)

// PartyType distinguishes plaintiffs from defendants. It is fixed at creation.
type PartyType string

const (
	PartyTypePlaintiff PartyType = "plaintiff"
	PartyTypeDefendant PartyType = "defendant"
)

// Party is one plaintiff or defendant of a case. PartyNumber is the 1-based
// ordinal, unique per (case, type). Plaintiff-only and defendant-only
// attributes are nullable.
type Party struct {
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
	FirstName         *string   `db:"first_name" json:"firstName,omitempty"`
	LastName          *string   `db:"last_name" json:"lastName,omitempty"`
	PlaintiffType     *string   `db:"plaintiff_type" json:"plaintiffType,omitempty"`
	AgeCategory       *string   `db:"age_category" json:"ageCategory,omitempty"`
	IsHeadOfHousehold *bool     `db:"is_head_of_household" json:"isHeadOfHousehold,omitempty"`
	UnitNumber        *string   `db:"unit_number" json:"unitNumber,omitempty"`
	EntityType        *string   `db:"entity_type" json:"entityType,omitempty"`
	Role              *string   `db:"role" json:"role,omitempty"`
	PartyType         PartyType `db:"party_type" json:"partyType"`
	FullName          string    `db:"full_name" json:"fullName"`
	PartyNumber       int       `db:"party_number" json:"partyNumber"`
	ID                uuid.UUID `db:"id" json:"id"`
	CaseID            uuid.UUID `db:"case_id" json:"caseId"`
}

// TableName returns the backing table.
func (Party) TableName() string {
	return "parties"
}

// IsPlaintiff reports whether the party can carry issue selections.
func (p *Party) IsPlaintiff() bool {
	return p.PartyType == PartyTypePlaintiff
}
