// Package memory provides an in-memory recruiting.Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/talent-tracker/recruiting"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	seq          map[string]int64
	masters      map[int64]recruiting.Master
	hires        map[int64]recruiting.Hire
	terminations map[int64]recruiting.Termination
	requisitions map[int64]recruiting.Requisition
	bySystemID   map[int64]int64
}

var _ recruiting.Store = (*Memory)(nil)

func New() *Memory {
	m := &Memory{}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.seq = make(map[string]int64)
	m.masters = make(map[int64]recruiting.Master)
	m.hires = make(map[int64]recruiting.Hire)
	m.terminations = make(map[int64]recruiting.Termination)
	m.requisitions = make(map[int64]recruiting.Requisition)
	m.bySystemID = make(map[int64]int64)
}

func (m *Memory) next(table string) int64 {
	m.seq[table]++
	return m.seq[table]
}

// Reset drops every record and restarts the ID sequences.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

// =============================================================================
// MASTERS
// =============================================================================

func (m *Memory) InsertMaster(_ context.Context, rec recruiting.Master) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.next("registros_rh")
	m.masters[rec.ID] = rec
	return rec.ID, nil
}

func (m *Memory) UpdateMaster(_ context.Context, rec recruiting.Master) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.masters[rec.ID]
	if !ok {
		return &recruiting.NotFoundError{Table: "registros_rh", ID: rec.ID}
	}
	existing.Position = rec.Position
	existing.Company = rec.Company
	existing.Site = rec.Site
	existing.Area = rec.Area
	m.masters[rec.ID] = existing
	return nil
}

func (m *Memory) ListMasters(_ context.Context) ([]recruiting.Master, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.masters), nil
}

// =============================================================================
// HIRES
// =============================================================================

func (m *Memory) InsertHire(_ context.Context, h recruiting.Hire) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = m.next("altas")
	m.hires[h.ID] = h
	return h.ID, nil
}

func (m *Memory) ListHires(_ context.Context) ([]recruiting.Hire, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.hires), nil
}

// =============================================================================
// TERMINATIONS
// =============================================================================

func (m *Memory) InsertTermination(_ context.Context, t recruiting.Termination) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.next("bajas")
	m.terminations[t.ID] = t
	return t.ID, nil
}

func (m *Memory) UpdateTermination(_ context.Context, t recruiting.Termination) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.terminations[t.ID]; !ok {
		return &recruiting.NotFoundError{Table: "bajas", ID: t.ID}
	}
	m.terminations[t.ID] = t
	return nil
}

func (m *Memory) GetTermination(_ context.Context, id int64) (*recruiting.Termination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.terminations[id]
	if !ok {
		return nil, &recruiting.NotFoundError{Table: "bajas", ID: id}
	}
	return &t, nil
}

func (m *Memory) ListTerminations(_ context.Context) ([]recruiting.Termination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.terminations), nil
}

// =============================================================================
// REQUISITIONS
// =============================================================================

func (m *Memory) InsertRequisition(_ context.Context, r recruiting.Requisition) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.SystemID != nil {
		if _, taken := m.bySystemID[*r.SystemID]; taken {
			return 0, fmt.Errorf("system id %d: %w", *r.SystemID, recruiting.ErrDuplicateSystemID)
		}
	}
	r.ID = m.next("vacantes")
	m.requisitions[r.ID] = r
	if r.SystemID != nil {
		m.bySystemID[*r.SystemID] = r.ID
	}
	return r.ID, nil
}

func (m *Memory) UpdateRequisition(_ context.Context, r recruiting.Requisition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.requisitions[r.ID]
	if !ok {
		return &recruiting.NotFoundError{Table: "vacantes", ID: r.ID}
	}
	if r.SystemID != nil {
		if owner, taken := m.bySystemID[*r.SystemID]; taken && owner != r.ID {
			return fmt.Errorf("system id %d: %w", *r.SystemID, recruiting.ErrDuplicateSystemID)
		}
	}
	if existing.SystemID != nil {
		delete(m.bySystemID, *existing.SystemID)
	}
	m.requisitions[r.ID] = r
	if r.SystemID != nil {
		m.bySystemID[*r.SystemID] = r.ID
	}
	return nil
}

func (m *Memory) GetRequisition(_ context.Context, id int64) (*recruiting.Requisition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requisitions[id]
	if !ok {
		return nil, &recruiting.NotFoundError{Table: "vacantes", ID: id}
	}
	return &r, nil
}

func (m *Memory) FindRequisitionBySystemID(_ context.Context, systemID int64) (*recruiting.Requisition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.bySystemID[systemID]
	if !ok {
		return nil, recruiting.ErrRecordNotFound
	}
	r := m.requisitions[id]
	return &r, nil
}

func (m *Memory) ListRequisitions(_ context.Context) ([]recruiting.Requisition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.requisitions), nil
}

// sortedValues returns a copy of the map's values in ID order.
func sortedValues[V any](rows map[int64]V) []V {
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]V, len(ids))
	for i, id := range ids {
		out[i] = rows[id]
	}
	return out
}
