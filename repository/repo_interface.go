package repository

import (
	"context"
	"errors"

	"zenwallet/models"
)

// ErrNoState is returned by Load when nothing has been saved yet.
var ErrNoState = errors.New("no ledger state stored")

// StateRepository persists the complete ledger state. Save is only ever
// called with a committed snapshot and replaces whatever was stored.
type StateRepository interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Save(ctx context.Context, s models.Snapshot) error
	Close() error
}
