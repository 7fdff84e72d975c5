package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stwalsh4118/casebridge/internal/form"
	"github.com/stwalsh4118/casebridge/internal/logger"
	"github.com/stwalsh4118/casebridge/internal/models"
	"github.com/stwalsh4118/casebridge/internal/repository"
)

// ReconstructService rebuilds a case's document from its normalized rows.
type ReconstructService interface {
	// Rebuild assembles the document from a consistent snapshot.
	// It never writes.
	Rebuild(ctx context.Context, caseID uuid.UUID) (*form.Submission, error)

	// PersistLatest rebuilds the document and stores it as the case's
	// latest payload in one transaction.
	PersistLatest(ctx context.Context, caseID uuid.UUID) (*form.Submission, error)

	// RawPayload returns the submission exactly as it was first ingested.
	RawPayload(ctx context.Context, caseID uuid.UUID) (json.RawMessage, error)
}

type reconstructService struct {
	tx  repository.Transactor
	log *logger.Logger
}

// NewReconstructService creates a new instance of ReconstructService.
func NewReconstructService(tx repository.Transactor, log *logger.Logger) ReconstructService {
	return &reconstructService{tx: tx, log: log}
}

func (s *reconstructService) Rebuild(ctx context.Context, caseID uuid.UUID) (*form.Submission, error) {
	var doc *form.Submission

	err := s.tx.WithinReadTx(ctx, func(store repository.CaseStore) error {
		var err error
		doc, err = rebuildWith(ctx, store, caseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *reconstructService) PersistLatest(ctx context.Context, caseID uuid.UUID) (*form.Submission, error) {
	var doc *form.Submission

	err := s.tx.WithinTx(ctx, func(store repository.CaseStore) error {
		var err error
		doc, err = persistLatestWith(ctx, store, caseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithCaseID(caseID.String()).Info("Latest payload refreshed", nil)
	return doc, nil
}

func (s *reconstructService) RawPayload(ctx context.Context, caseID uuid.UUID) (json.RawMessage, error) {
	var raw json.RawMessage

	err := s.tx.WithinReadTx(ctx, func(store repository.CaseStore) error {
		c, err := store.GetCase(ctx, caseID)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
		}
		raw = c.RawPayload
		return nil
	})
	if err != nil {
		return nil, err
	}

	return raw, nil
}

// persistLatestWith rebuilds and writes the latest payload through an open
// transaction. Edit operations call it as their last step.
func persistLatestWith(ctx context.Context, store repository.CaseStore, caseID uuid.UUID) (*form.Submission, error) {
	doc, err := rebuildWith(ctx, store, caseID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize rebuilt document: %w", err)
	}

	ok, err := store.UpdateLatestPayload(ctx, caseID, payload)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}

	return doc, nil
}

// rebuildWith assembles the document. Plaintiffs and defendants appear in
// party number order; within a plaintiff's discovery, selections follow
// category display order and then option display order.
func rebuildWith(ctx context.Context, store repository.CaseStore, caseID uuid.UUID) (*form.Submission, error) {
	c, err := store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}

	plaintiffs, err := store.ListParties(ctx, caseID, models.PartyTypePlaintiff)
	if err != nil {
		return nil, err
	}

	defendants, err := store.ListParties(ctx, caseID, models.PartyTypeDefendant)
	if err != nil {
		return nil, err
	}

	selections, err := store.ListSelections(ctx, caseID)
	if err != nil {
		return nil, err
	}

	byParty := make(map[uuid.UUID][]models.SelectionRow, len(plaintiffs))
	for _, sel := range selections {
		byParty[sel.PartyID] = append(byParty[sel.PartyID], sel)
	}

	doc := &form.Submission{
		Form: form.Form{
			ID:           c.ID.String(),
			InternalName: deref(c.InternalName),
			Name:         deref(c.DisplayName),
		},
		Plaintiffs: make([]form.Plaintiff, 0, len(plaintiffs)),
		Defendants: make([]form.Defendant, 0, len(defendants)),
		Address: &form.Address{
			StreetAddress: c.PropertyAddress,
			City:          c.City,
			State:         strings.TrimSpace(c.State),
			PostalCode:    c.ZipCode,
		},
		FilingCity:   deref(c.FilingCity),
		FilingCounty: deref(c.FilingCounty),
	}

	for _, p := range plaintiffs {
		doc.Plaintiffs = append(doc.Plaintiffs, plaintiffEntry(p, byParty[p.ID]))
	}
	for _, p := range defendants {
		doc.Defendants = append(doc.Defendants, defendantEntry(p))
	}

	return doc, nil
}

func plaintiffEntry(p models.Party, selections []models.SelectionRow) form.Plaintiff {
	discovery := form.NewDiscovery()
	discovery.Unit = p.UnitNumber
	for _, sel := range selections {
		discovery.Select(sel.CategoryCode, sel.OptionName)
	}

	ages := []string{}
	if p.AgeCategory != nil {
		ages = append(ages, *p.AgeCategory)
	}

	return form.Plaintiff{
		ID:              p.ID.String(),
		ItemNumber:      p.PartyNumber,
		Name:            partyName(p),
		Type:            deref(p.PlaintiffType),
		AgeCategory:     ages,
		HeadOfHousehold: p.IsHeadOfHousehold != nil && *p.IsHeadOfHousehold,
		Discovery:       discovery,
	}
}

// defendantEntry never carries issues.
func defendantEntry(p models.Party) form.Defendant {
	return form.Defendant{
		ID:         p.ID.String(),
		ItemNumber: p.PartyNumber,
		Name:       partyName(p),
		EntityType: deref(p.EntityType),
		Role:       deref(p.Role),
	}
}

func partyName(p models.Party) form.Name {
	return form.Name{
		First:        deref(p.FirstName),
		Last:         deref(p.LastName),
		FirstAndLast: p.FullName,
	}
}
