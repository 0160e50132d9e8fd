package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/repository"
)

type fakeProvider struct {
	events       []models.NormalizedEvent
	classes      []models.CarClass
	eventsErr    error
	classesErr   error
	members      map[string]*models.MemberInfo
	memberErrs   map[string]error
	mu           sync.Mutex
	statsQueried []string
	// onFetchEvents runs before the schedule fetch returns
	onFetchEvents func()
}

func (p *fakeProvider) FetchSpecialEvents(ctx context.Context, now time.Time) ([]models.NormalizedEvent, error) {
	if p.onFetchEvents != nil {
		p.onFetchEvents()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.events, p.eventsErr
}

func (p *fakeProvider) FetchCarClasses(ctx context.Context) ([]models.CarClass, error) {
	return p.classes, p.classesErr
}

func (p *fakeProvider) FetchDriverStats(ctx context.Context, customerID string) (*models.MemberInfo, error) {
	p.mu.Lock()
	p.statsQueried = append(p.statsQueried, customerID)
	p.mu.Unlock()
	if err := p.memberErrs[customerID]; err != nil {
		return nil, err
	}
	return p.members[customerID], nil
}

func (p *fakeProvider) Name() string { return "fake" }

type fakeCarClassRepo struct {
	upserted []models.CarClass
	err      error
}

func (r *fakeCarClassRepo) Upsert(ctx context.Context, classes []models.CarClass) (map[int]uuid.UUID, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.upserted = append(r.upserted, classes...)
	ids := make(map[int]uuid.UUID, len(classes))
	for _, c := range classes {
		ids[c.ExternalID] = classUUID(c.ExternalID)
	}
	return ids, nil
}

func (r *fakeCarClassRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.CarClass, error) {
	return nil, nil
}

func classUUID(externalID int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(externalID >> 8), byte(externalID)})
}

type storedEvent struct {
	event      models.NormalizedEvent
	carClasses []uuid.UUID
	races      []models.NormalizedRace
}

// fakeEventStore buffers writes per transaction and only applies them on commit.
type fakeEventStore struct {
	committed map[string]*storedEvent
	failOn    string
	txCount   int
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{committed: map[string]*storedEvent{}}
}

type fakeEventTx struct {
	store   *fakeEventStore
	pending map[string]*storedEvent
	ids     map[uuid.UUID]string
}

func (s *fakeEventStore) WithinEvent(ctx context.Context, fn func(w repository.EventWriter) error) error {
	s.txCount++
	tx := &fakeEventTx{store: s, pending: map[string]*storedEvent{}, ids: map[uuid.UUID]string{}}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.pending {
		s.committed[k] = v
	}
	return nil
}

func (tx *fakeEventTx) UpsertEvent(ctx context.Context, event *models.NormalizedEvent, carClassIDs []uuid.UUID) (uuid.UUID, error) {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(event.ExternalID))
	tx.pending[event.ExternalID] = &storedEvent{event: *event, carClasses: carClassIDs}
	tx.ids[id] = event.ExternalID
	return id, nil
}

func (tx *fakeEventTx) UpsertRace(ctx context.Context, eventID uuid.UUID, race *models.NormalizedRace) (uuid.UUID, error) {
	if race.ExternalID == tx.store.failOn {
		return uuid.Nil, errors.New("unique violation")
	}
	ev := tx.pending[tx.ids[eventID]]
	ev.races = append(ev.races, *race)
	return uuid.New(), nil
}

type fakeSyncLogRepo struct {
	entries     map[uuid.UUID]*models.SyncLog
	finalized   int
	createErr   error
	finalizeErr error
}

func newFakeSyncLogRepo() *fakeSyncLogRepo {
	return &fakeSyncLogRepo{entries: map[uuid.UUID]*models.SyncLog{}}
}

func (r *fakeSyncLogRepo) Create(ctx context.Context, source models.SyncSource, start time.Time) (*models.SyncLog, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	entry := &models.SyncLog{ID: uuid.New(), Status: models.SyncStatusInProgress, Source: source, StartTime: start}
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *fakeSyncLogRepo) Finalize(ctx context.Context, id uuid.UUID, status models.SyncStatus, count int, errMsg *string, end time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.finalizeErr != nil {
		return r.finalizeErr
	}
	entry, ok := r.entries[id]
	if !ok {
		return models.ErrNotFound
	}
	if entry.IsTerminal() {
		return repository.ErrSyncLogFinalized
	}
	r.finalized++
	entry.Status = status
	entry.Count = count
	entry.Error = errMsg
	entry.EndTime = &end
	return nil
}

func (r *fakeSyncLogRepo) ListRecent(ctx context.Context, limit int) ([]models.SyncLog, error) {
	out := make([]models.SyncLog, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (r *fakeSyncLogRepo) only() *models.SyncLog {
	for _, e := range r.entries {
		return e
	}
	return nil
}

type fakeUserRepo struct {
	users   []models.User
	listErr error
	renamed map[uuid.UUID]string
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for i := range r.users {
		if r.users[i].ID == id {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeUserRepo) ListWithCustomerID(ctx context.Context) ([]models.User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		if u.IRacingCustomerID != nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	if r.renamed == nil {
		r.renamed = map[uuid.UUID]string{}
	}
	r.renamed[id] = name
	return nil
}

type fakeDriverStatsRepo struct {
	rows map[string]models.DriverStats
}

func (r *fakeDriverStatsRepo) Upsert(ctx context.Context, s *models.DriverStats) error {
	if r.rows == nil {
		r.rows = map[string]models.DriverStats{}
	}
	r.rows[fmt.Sprintf("%s/%d", s.UserID, s.CategoryID)] = *s
	return nil
}

func (r *fakeDriverStatsRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.DriverStats, error) {
	var out []models.DriverStats
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

type recordingInvalidator struct {
	prefixes []string
}

func (r *recordingInvalidator) InvalidatePrefix(prefix string) int {
	r.prefixes = append(r.prefixes, prefix)
	return 0
}
