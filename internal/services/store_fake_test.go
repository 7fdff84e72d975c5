package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/casebridge/internal/logger"
	"github.com/stwalsh4118/casebridge/internal/models"
	"github.com/stwalsh4118/casebridge/internal/repository"
	"github.com/stwalsh4118/casebridge/internal/taxonomy"
)

var errReadOnly = errors.New("cannot execute in a read-only transaction")

// memState is one committed snapshot of the fake database.
type memState struct {
	cases      map[uuid.UUID]models.Case
	parties    map[uuid.UUID]models.Party
	selections map[uuid.UUID]map[uuid.UUID]bool
}

func newMemState() *memState {
	return &memState{
		cases:      map[uuid.UUID]models.Case{},
		parties:    map[uuid.UUID]models.Party{},
		selections: map[uuid.UUID]map[uuid.UUID]bool{},
	}
}

func (s *memState) clone() *memState {
	out := newMemState()
	for id, c := range s.cases {
		c.RawPayload = append(json.RawMessage(nil), c.RawPayload...)
		c.LatestPayload = append(json.RawMessage(nil), c.LatestPayload...)
		out.cases[id] = c
	}
	for id, p := range s.parties {
		out.parties[id] = p
	}
	for party, opts := range s.selections {
		cp := make(map[uuid.UUID]bool, len(opts))
		for opt := range opts {
			cp[opt] = true
		}
		out.selections[party] = cp
	}
	return out
}

type optionRef struct {
	code          string
	name          string
	categoryOrder int
	optionOrder   int
}

// memDB is a Transactor over an in-memory state. A transaction works on a
// clone that replaces the committed state only when fn succeeds.
type memDB struct {
	mu      sync.Mutex
	state   *memState
	options map[uuid.UUID]optionRef

	// fail, when set, is consulted before every store operation.
	fail func(op string) error
}

func newMemDB(categories []taxonomy.Category) *memDB {
	db := &memDB{state: newMemState(), options: map[uuid.UUID]optionRef{}}
	for _, cat := range categories {
		for _, opt := range cat.Options {
			db.options[opt.ID] = optionRef{
				code:          cat.Code,
				name:          opt.Name,
				categoryOrder: cat.DisplayOrder,
				optionOrder:   opt.DisplayOrder,
			}
		}
	}
	return db
}

func (db *memDB) WithinTx(ctx context.Context, fn func(repository.CaseStore) error) error {
	return db.run(fn, false)
}

func (db *memDB) WithinReadTx(ctx context.Context, fn func(repository.CaseStore) error) error {
	return db.run(fn, true)
}

func (db *memDB) run(fn func(repository.CaseStore) error, readOnly bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	work := db.state.clone()
	if err := fn(&memStore{db: db, st: work, readOnly: readOnly}); err != nil {
		return err
	}
	if !readOnly {
		db.state = work
	}
	return nil
}

// committed returns a copy of the committed state for assertions.
func (db *memDB) committed() *memState {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.clone()
}

type memStore struct {
	db       *memDB
	st       *memState
	readOnly bool
}

func (s *memStore) check(op string, write bool) error {
	if write && s.readOnly {
		return errReadOnly
	}
	if s.db.fail != nil {
		return s.db.fail(op)
	}
	return nil
}

func (s *memStore) InsertCase(_ context.Context, c *models.Case) error {
	if err := s.check("InsertCase", true); err != nil {
		return err
	}
	if _, exists := s.st.cases[c.ID]; exists {
		return fmt.Errorf("duplicate case %s", c.ID)
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	row := *c
	row.RawPayload = append(json.RawMessage(nil), c.RawPayload...)
	row.LatestPayload = append(json.RawMessage(nil), c.LatestPayload...)
	s.st.cases[c.ID] = row
	return nil
}

func (s *memStore) InsertParty(_ context.Context, p *models.Party) error {
	if err := s.check("InsertParty", true); err != nil {
		return err
	}
	if _, ok := s.st.cases[p.CaseID]; !ok {
		return fmt.Errorf("case %s does not exist", p.CaseID)
	}
	for _, existing := range s.st.parties {
		if existing.CaseID == p.CaseID && existing.PartyType == p.PartyType && existing.PartyNumber == p.PartyNumber {
			return fmt.Errorf("duplicate %s #%d", p.PartyType, p.PartyNumber)
		}
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	s.st.parties[p.ID] = *p
	return nil
}

func (s *memStore) InsertSelection(_ context.Context, partyID, optionID uuid.UUID) (bool, error) {
	if err := s.check("InsertSelection", true); err != nil {
		return false, err
	}
	if _, ok := s.st.parties[partyID]; !ok {
		return false, fmt.Errorf("party %s does not exist", partyID)
	}
	if _, ok := s.db.options[optionID]; !ok {
		return false, fmt.Errorf("option %s does not exist", optionID)
	}
	if s.st.selections[partyID] == nil {
		s.st.selections[partyID] = map[uuid.UUID]bool{}
	}
	if s.st.selections[partyID][optionID] {
		return false, nil
	}
	s.st.selections[partyID][optionID] = true
	return true, nil
}

func (s *memStore) DeleteSelection(_ context.Context, partyID, optionID uuid.UUID) (bool, error) {
	if err := s.check("DeleteSelection", true); err != nil {
		return false, err
	}
	if !s.st.selections[partyID][optionID] {
		return false, nil
	}
	delete(s.st.selections[partyID], optionID)
	return true, nil
}

func (s *memStore) GetCase(_ context.Context, caseID uuid.UUID) (*models.Case, error) {
	if err := s.check("GetCase", false); err != nil {
		return nil, err
	}
	c, ok := s.st.cases[caseID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *memStore) GetParty(_ context.Context, caseID, partyID uuid.UUID) (*models.Party, error) {
	if err := s.check("GetParty", false); err != nil {
		return nil, err
	}
	p, ok := s.st.parties[partyID]
	if !ok || p.CaseID != caseID {
		return nil, nil
	}
	return &p, nil
}

func (s *memStore) ListParties(_ context.Context, caseID uuid.UUID, partyType models.PartyType) ([]models.Party, error) {
	if err := s.check("ListParties", false); err != nil {
		return nil, err
	}
	out := []models.Party{}
	for _, p := range s.st.parties {
		if p.CaseID == caseID && p.PartyType == partyType {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartyNumber < out[j].PartyNumber })
	return out, nil
}

func (s *memStore) ListSelections(_ context.Context, caseID uuid.UUID) ([]models.SelectionRow, error) {
	if err := s.check("ListSelections", false); err != nil {
		return nil, err
	}

	type sortable struct {
		row         models.SelectionRow
		partyNumber int
		ref         optionRef
	}
	var rows []sortable
	for partyID, opts := range s.st.selections {
		p, ok := s.st.parties[partyID]
		if !ok || p.CaseID != caseID || !p.IsPlaintiff() {
			continue
		}
		for optID := range opts {
			ref := s.db.options[optID]
			rows = append(rows, sortable{
				row:         models.SelectionRow{CategoryCode: ref.code, OptionName: ref.name, PartyID: partyID},
				partyNumber: p.PartyNumber,
				ref:         ref,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.partyNumber != b.partyNumber {
			return a.partyNumber < b.partyNumber
		}
		if a.ref.categoryOrder != b.ref.categoryOrder {
			return a.ref.categoryOrder < b.ref.categoryOrder
		}
		if a.ref.optionOrder != b.ref.optionOrder {
			return a.ref.optionOrder < b.ref.optionOrder
		}
		return a.ref.name < b.ref.name
	})

	out := make([]models.SelectionRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.row)
	}
	return out, nil
}

func (s *memStore) UpdatePartyName(_ context.Context, p *models.Party) (bool, error) {
	if err := s.check("UpdatePartyName", true); err != nil {
		return false, err
	}
	row, ok := s.st.parties[p.ID]
	if !ok || row.CaseID != p.CaseID {
		return false, nil
	}
	row.FirstName, row.LastName, row.FullName = p.FirstName, p.LastName, p.FullName
	row.UpdatedAt = time.Now().UTC()
	s.st.parties[p.ID] = row
	return true, nil
}

func (s *memStore) UpdateLatestPayload(_ context.Context, caseID uuid.UUID, payload json.RawMessage) (bool, error) {
	if err := s.check("UpdateLatestPayload", true); err != nil {
		return false, err
	}
	c, ok := s.st.cases[caseID]
	if !ok {
		return false, nil
	}
	c.LatestPayload = append(json.RawMessage(nil), payload...)
	c.UpdatedAt = time.Now().UTC()
	s.st.cases[caseID] = c
	return true, nil
}

// staticLoader serves a fixed taxonomy.
type staticLoader struct {
	categories []taxonomy.Category
	err        error
}

func (l staticLoader) LoadTaxonomy(context.Context) ([]taxonomy.Category, error) {
	return l.categories, l.err
}

func testTaxonomy() []taxonomy.Category {
	cat := func(code string, order int, names ...string) taxonomy.Category {
		c := taxonomy.Category{ID: uuid.New(), Code: code, Name: code, DisplayOrder: order}
		for i, n := range names {
			c.Options = append(c.Options, taxonomy.Option{ID: uuid.New(), Name: n, DisplayOrder: i + 1})
		}
		return c
	}
	return []taxonomy.Category{
		cat("vermin", 1, "Rats/Mice", "Skunks", "Bats"),
		cat("insects", 2, "Ants", "Roaches", "Bedbugs"),
		cat("plumbing", 8, "Toilet", "Leaky faucet", "No hot water"),
		cat("notices", 19, "3-day"),
	}
}

// fixture bundles the services over one fake database.
type fixture struct {
	db          *memDB
	cache       *taxonomy.Cache
	ingest      IngestService
	reconstruct ReconstructService
	edit        CaseEditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	categories := testTaxonomy()
	db := newMemDB(categories)
	cache := taxonomy.NewCache(staticLoader{categories: categories}, 0)
	require.NoError(t, cache.Refresh(context.Background()))

	log := logger.Nop()
	return &fixture{
		db:          db,
		cache:       cache,
		ingest:      NewIngestService(db, cache, IngestDefaults{State: "CA", Zip: "00000"}, log),
		reconstruct: NewReconstructService(db, log),
		edit:        NewCaseEditService(db, cache, log),
	}
}
