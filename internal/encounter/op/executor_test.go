package op

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hearthvale/initiative/internal/encounter/domain"
	"github.com/hearthvale/initiative/internal/encounter/storage"
	apperrors "github.com/hearthvale/initiative/internal/platform/errors"
	"github.com/hearthvale/initiative/internal/platform/requestctx"
)

// memoryStore is an in-memory EncounterStore with the same conditional save
// semantics as the sqlite store.
type memoryStore struct {
	encounters map[string]domain.Encounter
	saveErr    error
	saves      int
}

func newMemoryStore(encounters ...domain.Encounter) *memoryStore {
	s := &memoryStore{encounters: make(map[string]domain.Encounter)}
	for _, enc := range encounters {
		s.encounters[enc.ID] = enc
	}
	return s
}

func (s *memoryStore) Put(ctx context.Context, enc domain.Encounter) error {
	s.encounters[enc.ID] = enc
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (domain.Encounter, error) {
	enc, ok := s.encounters[id]
	if !ok {
		return domain.Encounter{}, storage.ErrNotFound
	}
	return enc, nil
}

func (s *memoryStore) Save(ctx context.Context, enc domain.Encounter) (domain.Encounter, error) {
	s.saves++
	if s.saveErr != nil {
		return domain.Encounter{}, s.saveErr
	}
	stored, ok := s.encounters[enc.ID]
	if !ok {
		return domain.Encounter{}, storage.ErrNotFound
	}
	if stored.Version != enc.Version {
		return domain.Encounter{}, storage.ErrVersionConflict
	}
	enc.Version++
	s.encounters[enc.ID] = enc
	return enc, nil
}

func (s *memoryStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Encounter, error) {
	var encounters []domain.Encounter
	for _, enc := range s.encounters {
		if enc.OwnerID == ownerID {
			encounters = append(encounters, enc)
		}
	}
	return encounters, nil
}

func testExecutor(store storage.EncounterStore) *Executor {
	e := NewExecutor(store)
	e.clock = func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	counter := 0
	e.newID = func() (string, error) {
		counter++
		return fmt.Sprintf("generated-%d", counter), nil
	}
	return e
}

func ownerContext() context.Context {
	return requestctx.WithUserID(context.Background(), "user-1")
}

func activeEncounter() domain.Encounter {
	return domain.Encounter{
		ID:      "enc-1",
		OwnerID: "user-1",
		Name:    "Goblin Ambush",
		Version: 3,
		Combat:  domain.CombatState{Active: true, Round: 1, Turn: 0},
		Participants: []domain.Participant{
			{ID: "p1", Name: "Sira", Initiative: 18},
			{ID: "p2", Name: "Grim", Initiative: 12},
		},
	}
}

func assertOpCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("err = %v, want *errors.Error with code %s", err, want)
	}
	if appErr.Code != want {
		t.Fatalf("code = %s, want %s", appErr.Code, want)
	}
}

func TestExecuteRequiresIdentity(t *testing.T) {
	store := newMemoryStore(activeEncounter())
	e := testExecutor(store)

	_, err := e.Execute(context.Background(), OpAdvanceTurn, Request{EncounterID: "enc-1"})
	assertOpCode(t, err, apperrors.CodeAuthenticationRequired)
	if store.saves != 0 {
		t.Fatalf("saves = %d, want 0", store.saves)
	}
}

func TestExecuteChecksIdentityBeforeEncounter(t *testing.T) {
	e := testExecutor(newMemoryStore())

	// Missing encounter, but the unauthenticated caller must not learn that.
	_, err := e.Execute(context.Background(), OpAdvanceTurn, Request{EncounterID: "missing"})
	assertOpCode(t, err, apperrors.CodeAuthenticationRequired)
}

func TestExecuteUnknownOperation(t *testing.T) {
	e := testExecutor(newMemoryStore(activeEncounter()))

	_, err := e.Execute(ownerContext(), "teleport", Request{EncounterID: "enc-1"})
	assertOpCode(t, err, apperrors.CodeNotFound)
}

func TestExecuteEncounterNotFound(t *testing.T) {
	e := testExecutor(newMemoryStore())

	_, err := e.Execute(ownerContext(), OpAdvanceTurn, Request{EncounterID: "missing"})
	assertOpCode(t, err, apperrors.CodeEncounterNotFound)
}

func TestExecuteRejectsForeignEncounter(t *testing.T) {
	store := newMemoryStore(activeEncounter())
	e := testExecutor(store)
	ctx := requestctx.WithUserID(context.Background(), "intruder")

	_, err := e.Execute(ctx, OpAdvanceTurn, Request{EncounterID: "enc-1"})
	assertOpCode(t, err, apperrors.CodeAccessDenied)
	if store.saves != 0 {
		t.Fatalf("saves = %d, want 0", store.saves)
	}
}

func TestExecuteRequiresActiveCombat(t *testing.T) {
	enc := activeEncounter()
	enc.Combat = domain.CombatState{Round: 1}
	e := testExecutor(newMemoryStore(enc))

	_, err := e.Execute(ownerContext(), OpAdvanceTurn, Request{EncounterID: "enc-1"})
	assertOpCode(t, err, apperrors.CodeCombatNotActive)
}

func TestExecuteMissingRequiredFields(t *testing.T) {
	store := newMemoryStore(activeEncounter())
	e := testExecutor(store)

	_, err := e.Execute(ownerContext(), OpDelay, Request{EncounterID: "enc-1"})
	assertOpCode(t, err, apperrors.CodeFieldRequired)

	var appErr *apperrors.Error
	errors.As(err, &appErr)
	if appErr.Metadata["fields"] != "participant_id" {
		t.Fatalf("metadata fields = %q, want %q", appErr.Metadata["fields"], "participant_id")
	}
	if store.saves != 0 {
		t.Fatalf("saves = %d, want 0", store.saves)
	}
}

func TestExecuteParticipantNotFoundLeavesStateUntouched(t *testing.T) {
	store := newMemoryStore(activeEncounter())
	e := testExecutor(store)

	_, err := e.Execute(ownerContext(), OpDelay, Request{
		EncounterID: "enc-1",
		Body:        []byte(`{"participant_id":"ghost"}`),
	})
	assertOpCode(t, err, apperrors.CodeParticipantNotFound)

	stored, _ := store.Get(context.Background(), "enc-1")
	if stored.Version != 3 {
		t.Fatalf("version = %d, want 3", stored.Version)
	}
	if store.saves != 0 {
		t.Fatalf("saves = %d, want 0", store.saves)
	}
}

func TestExecuteAdvanceTurnPersists(t *testing.T) {
	store := newMemoryStore(activeEncounter())
	e := testExecutor(store)

	outcome, err := e.Execute(ownerContext(), OpAdvanceTurn, Request{EncounterID: "enc-1"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if outcome.Encounter == nil {
		t.Fatal("outcome.Encounter = nil, want encounter")
	}
	if outcome.Encounter.Combat.Turn != 1 {
		t.Fatalf("turn = %d, want 1", outcome.Encounter.Combat.Turn)
	}
	if outcome.Encounter.Version != 4 {
		t.Fatalf("version = %d, want 4", outcome.Encounter.Version)
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if !outcome.Encounter.UpdatedAt.Equal(want) {
		t.Fatalf("updated_at = %v, want %v", outcome.Encounter.UpdatedAt, want)
	}
}

func TestExecutePauseGatesMutations(t *testing.T) {
	store := newMemoryStore(activeEncounter())
	e := testExecutor(store)
	ctx := ownerContext()

	if _, err := e.Execute(ctx, OpPause, Request{EncounterID: "enc-1"}); err != nil {
		t.Fatalf("pause error = %v", err)
	}

	_, err := e.Execute(ctx, OpAdvanceTurn, Request{EncounterID: "enc-1"})
	assertOpCode(t, err, apperrors.CodeCombatPaused)

	_, err = e.Execute(ctx, OpPause, Request{EncounterID: "enc-1"})
	assertOpCode(t, err, apperrors.CodeCombatAlreadyPaused)

	stored, _ := store.Get(context.Background(), "enc-1")
	if stored.Combat.Turn != 0 {
		t.Fatalf("turn = %d, want 0", stored.Combat.Turn)
	}

	if _, err := e.Execute(ctx, OpResume, Request{EncounterID: "enc-1"}); err != nil {
		t.Fatalf("resume error = %v", err)
	}
	outcome, err := e.Execute(ctx, OpAdvanceTurn, Request{EncounterID: "enc-1"})
	if err != nil {
		t.Fatalf("advance after resume error = %v", err)
	}
	if outcome.Encounter.Combat.Turn != 1 {
		t.Fatalf("turn = %d, want 1", outcome.Encounter.Combat.Turn)
	}
}

func TestExecuteResumeRequiresPause(t *testing.T) {
	e := testExecutor(newMemoryStore(activeEncounter()))

	_, err := e.Execute(ownerContext(), OpResume, Request{EncounterID: "enc-1"})
	assertOpCode(t, err, apperrors.CodeCombatNotPaused)
}

func TestExecuteStartCombat(t *testing.T) {
	enc := activeEncounter()
	enc.Combat = domain.CombatState{Round: 1}
	store := newMemoryStore(enc)
	e := testExecutor(store)
	ctx := ownerContext()

	outcome, err := e.Execute(ctx, OpStartCombat, Request{EncounterID: "enc-1"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	combat := outcome.Encounter.Combat
	if !combat.Active || combat.Round != 1 || combat.Turn != 0 {
		t.Fatalf("combat = %+v, want active round 1 turn 0", combat)
	}

	_, err = e.Execute(ctx, OpStartCombat, Request{EncounterID: "enc-1"})
	assertOpCode(t, err, apperrors.CodeCombatAlreadyActive)
}

func TestExecuteStartCombatNeedsParticipants(t *testing.T) {
	enc := activeEncounter()
	enc.Combat = domain.CombatState{Round: 1}
	enc.Participants = nil
	e := testExecutor(newMemoryStore(enc))

	_, err := e.Execute(ownerContext(), OpStartCombat, Request{EncounterID: "enc-1"})
	assertOpCode(t, err, apperrors.CodeNoParticipants)
}

func TestExecuteAddParticipantGeneratesID(t *testing.T) {
	store := newMemoryStore(activeEncounter())
	e := testExecutor(store)

	outcome, err := e.Execute(ownerContext(), OpAddParticipant, Request{
		EncounterID: "enc-1",
		Body:        []byte(`{"participant":{"name":"Wolf","initiative":9}}`),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	added := outcome.Encounter.Participant("generated-1")
	if added == nil {
		t.Fatal("participant with generated id not found")
	}
	if added.Name != "Wolf" {
		t.Fatalf("name = %q, want %q", added.Name, "Wolf")
	}
}

func TestExecuteVersionConflictSurfaces(t *testing.T) {
	store := newMemoryStore(activeEncounter())
	store.saveErr = storage.ErrVersionConflict
	e := testExecutor(store)

	_, err := e.Execute(ownerContext(), OpAdvanceTurn, Request{EncounterID: "enc-1"})
	assertOpCode(t, err, apperrors.CodeEncounterVersionConflict)
}

func TestExecuteMasksStoreFailures(t *testing.T) {
	store := newMemoryStore(activeEncounter())
	store.saveErr = errors.New("disk on fire")
	e := testExecutor(store)

	_, err := e.Execute(ownerContext(), OpAdvanceTurn, Request{EncounterID: "enc-1"})
	assertOpCode(t, err, apperrors.CodeInternal)
	if got := err.Error(); got != "an unexpected error occurred" {
		t.Fatalf("message = %q, want generic internal message", got)
	}
}

func TestCreateEncounter(t *testing.T) {
	store := newMemoryStore()
	e := testExecutor(store)

	enc, err := e.CreateEncounter(ownerContext(), domain.CreateInput{
		Name: "Bridge Standoff",
		Participants: []domain.Participant{
			{Name: "Sira", Initiative: 15},
			{Name: "Bandit", Initiative: 11},
		},
	})
	if err != nil {
		t.Fatalf("CreateEncounter() error = %v", err)
	}
	if enc.OwnerID != "user-1" {
		t.Fatalf("owner = %q, want %q", enc.OwnerID, "user-1")
	}
	if enc.Version != 1 {
		t.Fatalf("version = %d, want 1", enc.Version)
	}
	if _, err := store.Get(context.Background(), enc.ID); err != nil {
		t.Fatalf("stored encounter lookup error = %v", err)
	}
}

func TestCreateEncounterValidates(t *testing.T) {
	e := testExecutor(newMemoryStore())

	_, err := e.CreateEncounter(ownerContext(), domain.CreateInput{Name: "   "})
	assertOpCode(t, err, apperrors.CodeEncounterNameEmpty)
}

func TestGetEncounterOwnership(t *testing.T) {
	e := testExecutor(newMemoryStore(activeEncounter()))

	if _, err := e.GetEncounter(ownerContext(), "enc-1"); err != nil {
		t.Fatalf("GetEncounter() error = %v", err)
	}

	ctx := requestctx.WithUserID(context.Background(), "intruder")
	_, err := e.GetEncounter(ctx, "enc-1")
	assertOpCode(t, err, apperrors.CodeAccessDenied)

	_, err = e.GetEncounter(ownerContext(), "missing")
	assertOpCode(t, err, apperrors.CodeEncounterNotFound)
}

func TestListEncounters(t *testing.T) {
	other := activeEncounter()
	other.ID = "enc-2"
	other.OwnerID = "user-2"
	e := testExecutor(newMemoryStore(activeEncounter(), other))

	encounters, err := e.ListEncounters(ownerContext())
	if err != nil {
		t.Fatalf("ListEncounters() error = %v", err)
	}
	if len(encounters) != 1 {
		t.Fatalf("len(encounters) = %d, want 1", len(encounters))
	}
	if encounters[0].ID != "enc-1" {
		t.Fatalf("id = %q, want %q", encounters[0].ID, "enc-1")
	}
}
