// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
)

// Setting keys.
const (
	KeyOpenAIKey = "openai_api_key"
)

// DefaultWatchlist is the list used when no name is given.
const DefaultWatchlist = "default"

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Settings
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error

	// Watchlist
	AddToWatchlist(ctx context.Context, symbol, listName string) error
	RemoveFromWatchlist(ctx context.Context, symbol, listName string) error
	GetWatchlist(ctx context.Context, listName string) ([]string, error)
	GetAllWatchlists(ctx context.Context) (map[string][]string, error)

	// Lifecycle
	Close() error
}

// CredentialStore persists the assistant credential as one settings field.
type CredentialStore struct {
	store DataStore
}

// NewCredentialStore wraps a DataStore.
func NewCredentialStore(store DataStore) *CredentialStore {
	return &CredentialStore{store: store}
}

// Get returns the saved credential; ok is false when none is saved.
func (c *CredentialStore) Get(ctx context.Context) (string, bool, error) {
	return c.store.GetSetting(ctx, KeyOpenAIKey)
}

// Save persists the credential.
func (c *CredentialStore) Save(ctx context.Context, key string) error {
	return c.store.SetSetting(ctx, KeyOpenAIKey, key)
}

// Clear removes the credential.
func (c *CredentialStore) Clear(ctx context.Context) error {
	return c.store.DeleteSetting(ctx, KeyOpenAIKey)
}
