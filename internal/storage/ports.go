package storage

import (
	"context"
	"errors"

	"finanse/internal/core"
)

// Collections of per-owner documents.
const (
	Categories    = "categories"
	Transactions  = "transactions"
	Budgets       = "budgets"
	Notifications = "notifications"
)

var ErrEmailTaken = errors.New("email already registered")

// Ports implemented by the storage backends.
type (
	// DocumentStore persists loosely typed documents under owner/collection/id.
	// List returns documents oldest first.
	DocumentStore interface {
		Put(ctx context.Context, owner, collection, id string, doc core.Document) error
		Get(ctx context.Context, owner, collection, id string) (core.Document, bool, error)
		List(ctx context.Context, owner, collection string) ([]core.Document, error)
		Delete(ctx context.Context, owner, collection, id string) error
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.User) error
		UserByEmail(ctx context.Context, email string) (core.User, error)
		UserByID(ctx context.Context, id string) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) error
	}

	// Backend is everything a storage implementation provides.
	Backend interface {
		DocumentStore
		UserStore
		Ping(ctx context.Context) error
		Close() error
	}
)
