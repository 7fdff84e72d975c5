// Package form defines the nested document shape of a habitability
// complaint submission. The same types describe the inbound payload and the
// document rebuilt from relational rows.
package form

import "strings"

// UnknownDefendantName stands in for a defendant submitted without any name.
const UnknownDefendantName = "Unknown Defendant"

// Submission is the complete form document.
type Submission struct {
	Form         Form        `json:"Form"`
	Plaintiffs   []Plaintiff `json:"PlaintiffDetails" binding:"required,min=1,dive"`
	Defendants   []Defendant `json:"DefendantDetails" binding:"required,min=1,dive"`
	Address      *Address    `json:"Full_Address"`
	FilingCity   string      `json:"FilingCity"`
	FilingCounty string      `json:"FilingCounty"`
}

// Form carries submission metadata. ID is the case id once persisted.
type Form struct {
	ID           string `json:"Id,omitempty"`
	InternalName string `json:"InternalName"`
	Name         string `json:"Name"`
}

// Address is the structured property address.
type Address struct {
	StreetAddress string `json:"StreetAddress"`
	City          string `json:"City"`
	State         string `json:"State"`
	PostalCode    string `json:"PostalCode"`
}

// Name is the name triad shared by plaintiffs and defendants.
type Name struct {
	First        string `json:"First"`
	Last         string `json:"Last"`
	FirstAndLast string `json:"FirstAndLast"`
}

// Plaintiff is one tenant bringing the complaint.
type Plaintiff struct {
	ID              string     `json:"Id,omitempty"`
	ItemNumber      int        `json:"ItemNumber" binding:"required,min=1"`
	Name            Name       `json:"Name"`
	Type            string     `json:"Type"`
	AgeCategory     []string   `json:"AgeCategory"`
	HeadOfHousehold bool       `json:"HeadOfHousehold"`
	Discovery       *Discovery `json:"Discovery"`
}

// Defendant is one landlord, manager or other responsible party.
type Defendant struct {
	ID         string `json:"Id,omitempty"`
	ItemNumber int    `json:"ItemNumber" binding:"required,min=1"`
	Name       Name   `json:"Name"`
	EntityType string `json:"EntityType"`
	Role       string `json:"Role"`
}

// Joined returns first and last name separated by a space, skipping blanks.
func (n Name) Joined() string {
	parts := make([]string, 0, 2)
	if first := strings.TrimSpace(n.First); first != "" {
		parts = append(parts, first)
	}
	if last := strings.TrimSpace(n.Last); last != "" {
		parts = append(parts, last)
	}
	return strings.Join(parts, " ")
}

// FullName returns the supplied full name, else the joined first and last
// name, else placeholder.
func (n Name) FullName(placeholder string) string {
	if full := strings.TrimSpace(n.FirstAndLast); full != "" {
		return full
	}
	if joined := n.Joined(); joined != "" {
		return joined
	}
	return placeholder
}

// IsEmpty reports whether no part of the name was supplied.
func (n Name) IsEmpty() bool {
	return strings.TrimSpace(n.FirstAndLast) == "" && n.Joined() == ""
}
