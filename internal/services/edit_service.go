package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stwalsh4118/casebridge/internal/form"
	"github.com/stwalsh4118/casebridge/internal/logger"
	"github.com/stwalsh4118/casebridge/internal/models"
	"github.com/stwalsh4118/casebridge/internal/repository"
)

// NameUpdate carries the name fields to overwrite. Nil fields are left as-is.
type NameUpdate struct {
	First        *string `json:"first"`
	Last         *string `json:"last"`
	FirstAndLast *string `json:"full"`
}

// CaseEditService applies edits to normalized rows. Every edit and the
// refresh of the case's latest payload commit together.
type CaseEditService interface {
	UpdatePartyName(ctx context.Context, caseID, partyID uuid.UUID, update NameUpdate) (*form.Submission, error)
	AddIssue(ctx context.Context, caseID, partyID uuid.UUID, categoryCode, optionName string) (*form.Submission, error)
	RemoveIssue(ctx context.Context, caseID, partyID uuid.UUID, categoryCode, optionName string) (*form.Submission, error)
}

type caseEditService struct {
	tx      repository.Transactor
	options OptionResolver
	log     *logger.Logger
}

// NewCaseEditService creates a new instance of CaseEditService.
func NewCaseEditService(tx repository.Transactor, options OptionResolver, log *logger.Logger) CaseEditService {
	return &caseEditService{tx: tx, options: options, log: log}
}

func (s *caseEditService) UpdatePartyName(ctx context.Context, caseID, partyID uuid.UUID, update NameUpdate) (*form.Submission, error) {
	var doc *form.Submission

	err := s.tx.WithinTx(ctx, func(store repository.CaseStore) error {
		party, err := loadParty(ctx, store, caseID, partyID)
		if err != nil {
			return err
		}

		if err := applyNameUpdate(party, update); err != nil {
			return err
		}

		ok, err := store.UpdatePartyName(ctx, party)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrPartyNotFound, partyID)
		}

		doc, err = persistLatestWith(ctx, store, caseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithCaseID(caseID.String()).Info("Party name updated", map[string]interface{}{
		"party_id": partyID.String(),
	})
	return doc, nil
}

func (s *caseEditService) AddIssue(ctx context.Context, caseID, partyID uuid.UUID, categoryCode, optionName string) (*form.Submission, error) {
	return s.editIssue(ctx, caseID, partyID, categoryCode, optionName, func(store repository.CaseStore, optionID uuid.UUID) error {
		_, err := store.InsertSelection(ctx, partyID, optionID)
		return err
	})
}

func (s *caseEditService) RemoveIssue(ctx context.Context, caseID, partyID uuid.UUID, categoryCode, optionName string) (*form.Submission, error) {
	return s.editIssue(ctx, caseID, partyID, categoryCode, optionName, func(store repository.CaseStore, optionID uuid.UUID) error {
		_, err := store.DeleteSelection(ctx, partyID, optionID)
		return err
	})
}

// editIssue resolves the option for a plaintiff, applies change and
// refreshes the latest payload in the same transaction.
func (s *caseEditService) editIssue(
	ctx context.Context,
	caseID, partyID uuid.UUID,
	categoryCode, optionName string,
	change func(repository.CaseStore, uuid.UUID) error,
) (*form.Submission, error) {
	categoryCode = strings.TrimSpace(categoryCode)
	optionName = strings.TrimSpace(optionName)

	if _, ok := form.LookupCategory(categoryCode); !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrUnknownIssueOption, categoryCode)
	}

	var doc *form.Submission

	err := s.tx.WithinTx(ctx, func(store repository.CaseStore) error {
		party, err := loadParty(ctx, store, caseID, partyID)
		if err != nil {
			return err
		}
		if !party.IsPlaintiff() {
			return fmt.Errorf("%w: party %s is a %s", ErrPartyNotPlaintiff, partyID, party.PartyType)
		}

		optionID, found, err := s.options.Resolve(ctx, categoryCode, optionName)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s/%s", ErrUnknownIssueOption, categoryCode, optionName)
		}

		if err := change(store, optionID); err != nil {
			return err
		}

		doc, err = persistLatestWith(ctx, store, caseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithCaseID(caseID.String()).Info("Party issues updated", map[string]interface{}{
		"party_id": partyID.String(),
		"category": categoryCode,
		"option":   optionName,
	})
	return doc, nil
}

// loadParty distinguishes a missing case from a party missing in an existing case.
func loadParty(ctx context.Context, store repository.CaseStore, caseID, partyID uuid.UUID) (*models.Party, error) {
	c, err := store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}

	party, err := store.GetParty(ctx, caseID, partyID)
	if err != nil {
		return nil, err
	}
	if party == nil {
		return nil, fmt.Errorf("%w: %s", ErrPartyNotFound, partyID)
	}

	return party, nil
}

// applyNameUpdate overwrites the given fields. Without an explicit full
// name it is re-derived from first and last, falling back to the
// defendant placeholder. Plaintiffs must keep a non-empty name. An empty
// update leaves the party untouched.
func applyNameUpdate(party *models.Party, update NameUpdate) error {
	if update.First != nil {
		party.FirstName = nilIfEmpty(*update.First)
	}
	if update.Last != nil {
		party.LastName = nilIfEmpty(*update.Last)
	}

	if update.First == nil && update.Last == nil && update.FirstAndLast == nil {
		return nil
	}

	placeholder := ""
	if party.PartyType == models.PartyTypeDefendant {
		placeholder = form.UnknownDefendantName
	}

	name := form.Name{First: deref(party.FirstName), Last: deref(party.LastName)}
	if update.FirstAndLast != nil {
		name.FirstAndLast = *update.FirstAndLast
	}
	party.FullName = name.FullName(placeholder)

	if party.FullName == "" {
		return ErrInvalidPartyName
	}
	return nil
}
