package store

import (
	"context"
	"encoding/json"
	"time"

	"wedding-guestsync/internal/models"
)

// PutCached overwrites the cached reference entry for key wholesale
func (s *Store) PutCached(ctx context.Context, key string, content []byte) error {
	entry := models.CachedEntry{
		Key:       key,
		Content:   content,
		FetchedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return models.StorageError("store.PutCached", err)
	}
	return s.Put(ctx, CollectionCache, key, payload)
}

// GetCached returns the last-known-good entry for key, or ErrNotFound
// when nothing has been cached yet.
func (s *Store) GetCached(ctx context.Context, key string) (*models.CachedEntry, error) {
	payload, err := s.Get(ctx, CollectionCache, key)
	if err != nil {
		return nil, err
	}
	var entry models.CachedEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, models.StorageError("store.GetCached", err)
	}
	return &entry, nil
}
