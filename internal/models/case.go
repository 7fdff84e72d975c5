package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Case is one form submission. RawPayload is written once at ingest;
// LatestPayload is regenerated from relational rows after every edit.
type Case struct {
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
	FilingCounty    *string         `db:"filing_county" json:"filingCounty,omitempty"`
	FilingCity      *string         `db:"filing_city" json:"filingCity,omitempty"`
	DisplayName     *string         `db:"display_name" json:"displayName,omitempty"`
	InternalName    *string         `db:"internal_name" json:"internalName,omitempty"`
	PropertyAddress string          `db:"property_address" json:"propertyAddress"`
	City            string          `db:"city" json:"city"`
	State           string          `db:"state" json:"state"`
	ZipCode         string          `db:"zip_code" json:"zipCode"`
	RawPayload      json.RawMessage `db:"raw_payload" json:"rawPayload"`
	LatestPayload   json.RawMessage `db:"latest_payload" json:"latestPayload"`
	ID              uuid.UUID       `db:"id" json:"id"`
}

// TableName returns the backing table.
func (Case) TableName() string {
	return "cases"
}
