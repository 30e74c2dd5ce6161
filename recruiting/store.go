/*
store.go - Persistence interface for the tracker's four tables

PURPOSE:
  Defines the contract between the registration workflow, the importer,
  the dashboard and whatever holds the data.

WRITE PATTERN:
  Registration inserts the master row first, then the detail row with the
  master's ID. The two writes are not transactional: a failure between
  them leaves an orphan master row, which no read path depends on.

LOOKUPS:
  Get* and FindRequisitionBySystemID return an error wrapping
  ErrRecordNotFound when nothing matches.

IMPLEMENTATIONS:
  - store/sqlite: SQLite database
  - store/memory: In-memory, for tests and demos

SEE ALSO:
  - service.go: Registration workflow
  - importer/importer.go: Bulk reconciliation by system ID
*/
package recruiting

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Store persists masters and their detail records.
type Store interface {
	InsertMaster(ctx context.Context, m Master) (int64, error)
	// UpdateMaster rewrites position and location; kind and creation time stay.
	UpdateMaster(ctx context.Context, m Master) error
	ListMasters(ctx context.Context) ([]Master, error)

	InsertHire(ctx context.Context, h Hire) (int64, error)
	ListHires(ctx context.Context) ([]Hire, error)

	InsertTermination(ctx context.Context, t Termination) (int64, error)
	UpdateTermination(ctx context.Context, t Termination) error
	GetTermination(ctx context.Context, id int64) (*Termination, error)
	ListTerminations(ctx context.Context) ([]Termination, error)

	InsertRequisition(ctx context.Context, r Requisition) (int64, error)
	UpdateRequisition(ctx context.Context, r Requisition) error
	GetRequisition(ctx context.Context, id int64) (*Requisition, error)
	FindRequisitionBySystemID(ctx context.Context, systemID int64) (*Requisition, error)
	ListRequisitions(ctx context.Context) ([]Requisition, error)

	// Reset removes every record. Used by demo scenarios.
	Reset(ctx context.Context) error
}

// LoadSnapshot reads every collection from the store concurrently. Each
// list is consistent on its own; the snapshot as a whole is not a
// transaction.
func LoadSnapshot(ctx context.Context, s Store) (Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		if snap.Masters, err = s.ListMasters(ctx); err != nil {
			return fmt.Errorf("list masters: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.Hires, err = s.ListHires(ctx); err != nil {
			return fmt.Errorf("list hires: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.Terminations, err = s.ListTerminations(ctx); err != nil {
			return fmt.Errorf("list terminations: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.Requisitions, err = s.ListRequisitions(ctx); err != nil {
			return fmt.Errorf("list requisitions: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
