package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/casebridge/internal/form"
	"github.com/stwalsh4118/casebridge/internal/logger"
	"github.com/stwalsh4118/casebridge/internal/models"
	"github.com/stwalsh4118/casebridge/internal/repository"
)

// Reasons recorded for issue selections that were skipped during ingest.
const (
	SkipReasonPlaintiffNotFound = "plaintiff_not_found"
	SkipReasonUnknownOption     = "unknown_option"
)

// OptionResolver maps a (category code, option name) pair to an issue option id.
type OptionResolver interface {
	Resolve(ctx context.Context, code, option string) (uuid.UUID, bool, error)
}

// IngestDefaults are applied when a submission has no structured address.
type IngestDefaults struct {
	State string
	Zip   string
}

// SkippedIssue records one issue selection that could not be attached.
type SkippedIssue struct {
	ItemNumber int    `json:"item_number"`
	Category   string `json:"category,omitempty"`
	Option     string `json:"option,omitempty"`
	Reason     string `json:"reason"`
}

// IngestResult summarizes a committed ingest.
type IngestResult struct {
	CreatedAt         time.Time      `json:"created_at"`
	SkippedIssues     []SkippedIssue `json:"skipped_issues"`
	PlaintiffCount    int            `json:"plaintiff_count"`
	DefendantCount    int            `json:"defendant_count"`
	IssueCount        int            `json:"issue_count"`
	SkippedIssueCount int            `json:"skipped_issue_count"`
	CaseID            uuid.UUID      `json:"case_id"`
}

// IngestService defines the ingestion engine.
type IngestService interface {
	// Ingest writes the submission as one case, its parties and issue
	// selections in a single transaction. Nothing is persisted on error.
	// Unresolvable issue selections are skipped and reported, not fatal.
	Ingest(ctx context.Context, sub *form.Submission) (*IngestResult, error)
}

// ingestService is the concrete implementation of IngestService.
type ingestService struct {
	tx       repository.Transactor
	options  OptionResolver
	defaults IngestDefaults
	log      *logger.Logger
	newID    func() uuid.UUID
}

// NewIngestService creates a new instance of IngestService.
func NewIngestService(tx repository.Transactor, options OptionResolver, defaults IngestDefaults, log *logger.Logger) IngestService {
	return &ingestService{
		tx:       tx,
		options:  options,
		defaults: defaults,
		log:      log,
		newID:    uuid.New,
	}
}

func (s *ingestService) Ingest(ctx context.Context, sub *form.Submission) (*IngestResult, error) {
	if sub == nil || len(sub.Plaintiffs) == 0 || len(sub.Defendants) == 0 {
		return nil, fmt.Errorf("%w: plaintiff and defendant lists must be non-empty", ErrInvalidSubmission)
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize submission: %w", err)
	}

	caseRow := s.buildCase(sub, payload)
	log := s.log.WithCaseID(caseRow.ID.String())

	result := &IngestResult{CaseID: caseRow.ID}

	err = s.tx.WithinTx(ctx, func(store repository.CaseStore) error {
		// Reset so a retried callback never double counts.
		result.IssueCount = 0
		result.SkippedIssues = []SkippedIssue{}

		if err := store.InsertCase(ctx, caseRow); err != nil {
			return err
		}

		plaintiffIDs, err := s.insertPlaintiffs(ctx, store, caseRow.ID, sub.Plaintiffs)
		if err != nil {
			return err
		}
		result.PlaintiffCount = len(plaintiffIDs)

		defendants, err := s.insertDefendants(ctx, store, caseRow.ID, sub.Defendants)
		if err != nil {
			return err
		}
		result.DefendantCount = defendants

		return s.attachIssues(ctx, log, store, sub.Plaintiffs, plaintiffIDs, result)
	})
	if err != nil {
		log.Error("Failed to ingest submission", err, map[string]interface{}{
			"plaintiffs": len(sub.Plaintiffs),
			"defendants": len(sub.Defendants),
		})
		return nil, fmt.Errorf("failed to ingest submission: %w", err)
	}

	result.CreatedAt = caseRow.CreatedAt
	result.SkippedIssueCount = len(result.SkippedIssues)

	log.Info("Submission ingested", map[string]interface{}{
		"plaintiffs":     result.PlaintiffCount,
		"defendants":     result.DefendantCount,
		"issues":         result.IssueCount,
		"skipped_issues": result.SkippedIssueCount,
	})

	return result, nil
}

// buildCase maps the submission onto the case row. Without a structured
// address the filing city and the configured state and zip are used.
func (s *ingestService) buildCase(sub *form.Submission, payload []byte) *models.Case {
	c := &models.Case{
		ID:            s.newID(),
		City:          strings.TrimSpace(sub.FilingCity),
		State:         s.defaults.State,
		ZipCode:       s.defaults.Zip,
		FilingCity:    nilIfEmpty(sub.FilingCity),
		FilingCounty:  nilIfEmpty(sub.FilingCounty),
		DisplayName:   nilIfEmpty(sub.Form.Name),
		InternalName:  nilIfEmpty(sub.Form.InternalName),
		RawPayload:    payload,
		LatestPayload: payload,
	}

	if addr := sub.Address; addr != nil {
		c.PropertyAddress = strings.TrimSpace(addr.StreetAddress)
		if city := strings.TrimSpace(addr.City); city != "" {
			c.City = city
		}
		if state := canonicalState(addr.State); state != "" {
			c.State = state
		}
		if zip := strings.TrimSpace(addr.PostalCode); zip != "" {
			c.ZipCode = zip
		}
	}

	return c
}

// canonicalState upper-cases a jurisdiction code and truncates it to two characters.
func canonicalState(state string) string {
	runes := []rune(strings.ToUpper(strings.TrimSpace(state)))
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes)
}

// insertPlaintiffs writes plaintiffs in input order and returns their ids keyed by item number.
func (s *ingestService) insertPlaintiffs(ctx context.Context, store repository.CaseStore, caseID uuid.UUID, plaintiffs []form.Plaintiff) (map[int]uuid.UUID, error) {
	ids := make(map[int]uuid.UUID, len(plaintiffs))

	for _, pl := range plaintiffs {
		party := &models.Party{
			ID:                s.newID(),
			CaseID:            caseID,
			PartyType:         models.PartyTypePlaintiff,
			PartyNumber:       pl.ItemNumber,
			FirstName:         nilIfEmpty(pl.Name.First),
			LastName:          nilIfEmpty(pl.Name.Last),
			FullName:          pl.Name.FullName(""),
			PlaintiffType:     nilIfEmpty(pl.Type),
			IsHeadOfHousehold: boolPtr(pl.HeadOfHousehold),
		}
		if len(pl.AgeCategory) > 0 {
			party.AgeCategory = nilIfEmpty(pl.AgeCategory[0])
		}
		if pl.Discovery != nil {
			party.UnitNumber = pl.Discovery.Unit
		}

		if err := store.InsertParty(ctx, party); err != nil {
			return nil, err
		}
		ids[pl.ItemNumber] = party.ID
	}

	return ids, nil
}

func (s *ingestService) insertDefendants(ctx context.Context, store repository.CaseStore, caseID uuid.UUID, defendants []form.Defendant) (int, error) {
	for _, d := range defendants {
		party := &models.Party{
			ID:          s.newID(),
			CaseID:      caseID,
			PartyType:   models.PartyTypeDefendant,
			PartyNumber: d.ItemNumber,
			FirstName:   nilIfEmpty(d.Name.First),
			LastName:    nilIfEmpty(d.Name.Last),
			FullName:    d.Name.FullName(form.UnknownDefendantName),
			EntityType:  nilIfEmpty(d.EntityType),
			Role:        nilIfEmpty(d.Role),
		}

		if err := store.InsertParty(ctx, party); err != nil {
			return 0, err
		}
	}

	return len(defendants), nil
}

// attachIssues turns every plaintiff's discovery lists into selection rows.
// Lookup misses are logged and recorded on result; they do not fail the ingest.
func (s *ingestService) attachIssues(ctx context.Context, log *logger.Logger, store repository.CaseStore, plaintiffs []form.Plaintiff, ids map[int]uuid.UUID, result *IngestResult) error {
	for _, pl := range plaintiffs {
		if pl.Discovery == nil {
			continue
		}

		partyID, ok := ids[pl.ItemNumber]
		if !ok {
			log.Warn("Plaintiff not found while attaching issues", map[string]interface{}{
				"item_number": pl.ItemNumber,
			})
			result.SkippedIssues = append(result.SkippedIssues, SkippedIssue{
				ItemNumber: pl.ItemNumber,
				Reason:     SkipReasonPlaintiffNotFound,
			})
			continue
		}

		for _, cat := range form.Categories {
			for _, option := range pl.Discovery.Options(cat.Code) {
				optionID, found, err := s.options.Resolve(ctx, cat.Code, option)
				if err != nil {
					return err
				}
				if !found {
					log.Warn("Issue option not found in taxonomy", map[string]interface{}{
						"item_number": pl.ItemNumber,
						"category":    cat.Code,
						"option":      option,
					})
					result.SkippedIssues = append(result.SkippedIssues, SkippedIssue{
						ItemNumber: pl.ItemNumber,
						Category:   cat.Code,
						Option:     option,
						Reason:     SkipReasonUnknownOption,
					})
					continue
				}

				inserted, err := store.InsertSelection(ctx, partyID, optionID)
				if err != nil {
					return err
				}
				if inserted {
					result.IssueCount++
				}
			}
		}
	}

	return nil
}
