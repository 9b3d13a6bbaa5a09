package ingestion

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"lotofacil-lab/internal/observability"
	"lotofacil-lab/internal/storage"
)

// DefaultRequestDelay is the pause between consecutive draw fetches.
const DefaultRequestDelay = 500 * time.Millisecond

// SyncerOptions configures a Syncer.
type SyncerOptions struct {
	RequestDelay time.Duration // zero uses DefaultRequestDelay, negative disables
	Logger       *log.Logger
	Clock        func() time.Time
}

// SyncResult summarizes one sync pass.
type SyncResult struct {
	StoredBefore int64   // newest stored id before the pass
	APILatest    int64   // newest published id
	Fetched      int     // draws fetched successfully
	Inserted     int     // draws newly stored
	Skipped      []int64 // ids whose fetch failed
}

// Syncer copies newly published draws into a DrawStore.
type Syncer struct {
	client ResultsClient
	draws  storage.DrawStore
	opts   SyncerOptions
}

// NewSyncer creates a syncer.
func NewSyncer(client ResultsClient, draws storage.DrawStore, opts SyncerOptions) *Syncer {
	if opts.RequestDelay == 0 {
		opts.RequestDelay = DefaultRequestDelay
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Syncer{client: client, draws: draws, opts: opts}
}

// Sync fetches every draw after the newest stored one.
// A failed fetch is logged and skipped; a failed store write aborts the pass.
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	stored, err := s.draws.LatestID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: latest stored draw: %w", storage.ErrUnavailable, err)
	}

	latest, err := s.client.Latest(ctx)
	if err != nil {
		observability.RecordFetchError("latest")
		return nil, err
	}

	res := &SyncResult{StoredBefore: stored, APILatest: latest}
	if latest <= stored {
		s.opts.Logger.Printf("up to date at draw %d", stored)
		observability.RecordSyncCompleted(stored, float64(s.opts.Clock().Unix()))
		return res, nil
	}
	s.opts.Logger.Printf("fetching draws %d..%d", stored+1, latest)

	for id := stored + 1; id <= latest; id++ {
		if id > stored+1 && s.opts.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(s.opts.RequestDelay):
			}
		}

		d, err := s.client.Fetch(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			observability.RecordFetchError("draw")
			s.opts.Logger.Printf("skip draw %d: %v", id, err)
			res.Skipped = append(res.Skipped, id)
			continue
		}
		res.Fetched++

		inserted, err := s.draws.Upsert(ctx, d)
		if err != nil {
			return res, fmt.Errorf("%w: store draw %d: %w", storage.ErrUnavailable, id, err)
		}
		observability.RecordDrawFetched(inserted)
		if inserted {
			res.Inserted++
		}
	}

	newest, err := s.draws.LatestID(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: latest stored draw: %w", storage.ErrUnavailable, err)
	}
	observability.RecordSyncCompleted(newest, float64(s.opts.Clock().Unix()))
	s.opts.Logger.Printf("sync done: fetched=%d inserted=%d skipped=%d", res.Fetched, res.Inserted, len(res.Skipped))
	return res, nil
}
