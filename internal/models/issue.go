package models

import (
	"time"

	"github.com/google/uuid"
)

// IssueCategory is one of the fixed discovery categories.
type IssueCategory struct {
	CategoryCode string    `db:"category_code" json:"categoryCode"`
	CategoryName string    `db:"category_name" json:"categoryName"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	ID           uuid.UUID `db:"id" json:"id"`
}

// IssueOption is a selectable value within a category.
type IssueOption struct {
	OptionName   string    `db:"option_name" json:"optionName"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	ID           uuid.UUID `db:"id" json:"id"`
	CategoryID   uuid.UUID `db:"category_id" json:"categoryId"`
}

// PartyIssueSelection links a plaintiff to an issue option. The pair is unique.
type PartyIssueSelection struct {
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	PartyID       uuid.UUID `db:"party_id" json:"partyId"`
	IssueOptionID uuid.UUID `db:"issue_option_id" json:"issueOptionId"`
}

// SelectionRow is a selection joined through its option to its category,
// the shape reconstruction reads.
type SelectionRow struct {
	CategoryCode string
	OptionName   string
	PartyID      uuid.UUID
}
