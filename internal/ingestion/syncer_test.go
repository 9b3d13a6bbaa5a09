package ingestion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/drawtest"
	"lotofacil-lab/internal/storage"
	"lotofacil-lab/internal/storage/memory"
)

type fakeResults struct {
	latest  int64
	draws   map[int64]domain.Draw
	fetched []int64
}

func newFakeResults(draws []domain.Draw) *fakeResults {
	f := &fakeResults{draws: make(map[int64]domain.Draw)}
	for _, d := range draws {
		f.draws[d.ID] = d
		if d.ID > f.latest {
			f.latest = d.ID
		}
	}
	return f
}

func (f *fakeResults) Latest(context.Context) (int64, error) {
	return f.latest, nil
}

func (f *fakeResults) Fetch(_ context.Context, id int64) (domain.Draw, error) {
	f.fetched = append(f.fetched, id)
	d, ok := f.draws[id]
	if !ok {
		return domain.Draw{}, fmt.Errorf("fetch draw %d: %w", id, ErrDrawNotPublished)
	}
	return d, nil
}

type failingDrawStore struct {
	*memory.DrawStore
}

func (s failingDrawStore) Upsert(context.Context, domain.Draw) (bool, error) {
	return false, errors.New("disk full")
}

func TestSyncer_FetchesMissingDraws(t *testing.T) {
	ctx := context.Background()
	all := drawtest.Synthetic(10, 1)
	store := memory.NewDrawStore()
	for _, d := range all[:4] {
		if _, err := store.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	api := newFakeResults(all)
	res, err := NewSyncer(api, store, SyncerOptions{RequestDelay: -1}).Sync(ctx)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if res.StoredBefore != 4 || res.APILatest != 10 {
		t.Errorf("Expected range 4..10, got %d..%d", res.StoredBefore, res.APILatest)
	}
	if res.Inserted != 6 || res.Fetched != 6 {
		t.Errorf("Expected 6 fetched and inserted, got %d/%d", res.Fetched, res.Inserted)
	}
	if len(api.fetched) != 6 || api.fetched[0] != 5 {
		t.Errorf("Expected fetches of ids 5..10, got %v", api.fetched)
	}

	latest, _ := store.LatestID(ctx)
	if latest != 10 {
		t.Errorf("Expected latest stored 10, got %d", latest)
	}
}

func TestSyncer_UpToDate(t *testing.T) {
	ctx := context.Background()
	all := drawtest.Synthetic(3, 2)
	store := memory.NewDrawStore()
	for _, d := range all {
		store.Upsert(ctx, d)
	}

	api := newFakeResults(all)
	res, err := NewSyncer(api, store, SyncerOptions{RequestDelay: -1}).Sync(ctx)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Fetched != 0 || len(api.fetched) != 0 {
		t.Errorf("Expected no fetches, got %v", api.fetched)
	}
}

func TestSyncer_SkipsFailedFetch(t *testing.T) {
	ctx := context.Background()
	all := drawtest.Synthetic(6, 3)
	api := newFakeResults(all)
	delete(api.draws, 3)

	store := memory.NewDrawStore()
	res, err := NewSyncer(api, store, SyncerOptions{RequestDelay: -1}).Sync(ctx)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if len(res.Skipped) != 1 || res.Skipped[0] != 3 {
		t.Errorf("Expected draw 3 skipped, got %v", res.Skipped)
	}
	if res.Inserted != 5 {
		t.Errorf("Expected 5 inserted, got %d", res.Inserted)
	}
	if _, err := store.GetByID(ctx, 3); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected draw 3 absent, got %v", err)
	}
}

func TestSyncer_StoreFailureAborts(t *testing.T) {
	ctx := context.Background()
	api := newFakeResults(drawtest.Synthetic(5, 4))
	store := failingDrawStore{memory.NewDrawStore()}

	_, err := NewSyncer(api, store, SyncerOptions{RequestDelay: -1}).Sync(ctx)
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	if len(api.fetched) != 1 {
		t.Errorf("Expected abort after first write, got fetches %v", api.fetched)
	}
}

func TestSyncer_ContextCancelledBetweenRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := newFakeResults(drawtest.Synthetic(5, 5))
	store := memory.NewDrawStore()
	cancel()

	_, err := NewSyncer(api, store, SyncerOptions{}).Sync(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(api.fetched) != 1 {
		t.Errorf("Expected a single fetch before cancellation, got %v", api.fetched)
	}
}
