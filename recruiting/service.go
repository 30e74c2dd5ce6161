/*
service.go - Registration and update workflow

PURPOSE:
  Validates and normalises hires, terminations and requisitions before they
  reach the store, and keeps master rows in step with their details.

REGISTRATION FLOW:
  1. Validate (position required, counts not negative, known kinds)
  2. Normalise text (upper-case, accents folded, blanks -> SIN ESPECIFICAR)
  3. Default missing dates to today in the business timezone
  4. Insert the master row, then the detail row pointing at it

OPEN POSITIONS:
  A requisition registered with positions already filled stores only what
  is still open: requested = max(requested - filled, 0). When nothing was
  filled the fill date is dropped and the recruitment kind and channel are
  SIN ESPECIFICAR. Updates store counts exactly as given.

RECONCILIATION:
  UpsertRequisition matches on the ATS system ID: an existing requisition
  (and its master) is updated in place, otherwise a new one is registered.

SEE ALSO:
  - store.go: Persistence contract
  - importer/importer.go: Calls UpsertRequisition per spreadsheet row
*/
package recruiting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/talent-tracker/engine"
	"go.uber.org/zap"
)

// Service registers and updates records.
type Service struct {
	store    Store
	calendar engine.Calendar
	log      *zap.Logger
}

// NewService wires a service to its store. A nil logger discards logs.
func NewService(store Store, calendar engine.Calendar, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, calendar: calendar, log: log.Named("recruiting")}
}

// Calendar is the business calendar the service defaults dates with.
func (s *Service) Calendar() engine.Calendar { return s.calendar }

// Store is the underlying store.
func (s *Service) Store() Store { return s.store }

// =============================================================================
// HIRES
// =============================================================================

// RegisterHire validates h, inserts its master row and then the hire.
func (s *Service) RegisterHire(ctx context.Context, h Hire) (Hire, error) {
	if err := requirePosition(h.Position); err != nil {
		return Hire{}, err
	}
	if h.Hired < 0 {
		return Hire{}, fmt.Errorf("hired %d: %w", h.Hired, ErrInvalidCount)
	}

	h.Position = NormalizeText(h.Position)
	h.Company = OrUnspecified(h.Company)
	h.Site = OrUnspecified(h.Site)
	h.Area = OrUnspecified(h.Area)
	h.Channel = OrUnspecified(h.Channel)
	h.Recruiter = OrUnspecified(h.Recruiter)
	if h.HiredOn == nil {
		h.HiredOn = s.calendar.Today().Ptr()
	}

	masterID, err := s.insertMaster(ctx, KindHire, h.Position, h.Company, h.Site, h.Area)
	if err != nil {
		return Hire{}, err
	}
	h.MasterID = masterID

	id, err := s.store.InsertHire(ctx, h)
	if err != nil {
		return Hire{}, fmt.Errorf("insert hire: %w", err)
	}
	h.ID = id

	s.log.Info("hire registered",
		zap.Int64("id", h.ID),
		zap.Int64("master_id", h.MasterID),
		zap.String("position", h.Position),
		zap.Int("hired", h.Hired))
	return h, nil
}

// =============================================================================
// TERMINATIONS
// =============================================================================

// RegisterTermination validates t, inserts its master row and then the
// termination. RegisteredOn defaults to today.
func (s *Service) RegisterTermination(ctx context.Context, t Termination) (Termination, error) {
	if err := s.prepareTermination(&t); err != nil {
		return Termination{}, err
	}
	if t.RegisteredOn == nil {
		t.RegisteredOn = s.calendar.Today().Ptr()
	}

	masterID, err := s.insertMaster(ctx, KindTermination, t.Position, t.Company, t.Site, t.Area)
	if err != nil {
		return Termination{}, err
	}
	t.MasterID = masterID

	id, err := s.store.InsertTermination(ctx, t)
	if err != nil {
		return Termination{}, fmt.Errorf("insert termination: %w", err)
	}
	t.ID = id

	s.log.Info("termination registered",
		zap.Int64("id", t.ID),
		zap.Int64("master_id", t.MasterID),
		zap.String("kind", string(t.Kind)))
	return t, nil
}

// UpdateTermination replaces the editable fields of an existing
// termination and mirrors position and location onto its master row.
func (s *Service) UpdateTermination(ctx context.Context, t Termination) (Termination, error) {
	existing, err := s.store.GetTermination(ctx, t.ID)
	if err != nil {
		return Termination{}, err
	}
	if err := s.prepareTermination(&t); err != nil {
		return Termination{}, err
	}
	t.MasterID = existing.MasterID
	if t.RegisteredOn == nil {
		t.RegisteredOn = existing.RegisteredOn
	}

	if err := s.updateMaster(ctx, KindTermination, t.MasterID, t.Position, t.Company, t.Site, t.Area); err != nil {
		return Termination{}, err
	}
	if err := s.store.UpdateTermination(ctx, t); err != nil {
		return Termination{}, fmt.Errorf("update termination %d: %w", t.ID, err)
	}

	s.log.Info("termination updated", zap.Int64("id", t.ID))
	return t, nil
}

func (s *Service) prepareTermination(t *Termination) error {
	if err := requirePosition(t.Position); err != nil {
		return err
	}
	kind, err := ParseTerminationKind(string(t.Kind))
	if err != nil {
		return err
	}
	t.Kind = kind
	t.Position = NormalizeText(t.Position)
	t.Company = OrUnspecified(t.Company)
	t.Site = OrUnspecified(t.Site)
	t.Area = OrUnspecified(t.Area)
	t.Reason = NormalizeText(t.Reason)
	return nil
}

// =============================================================================
// REQUISITIONS
// =============================================================================

// RegisterRequisition validates r, stores only its still-open positions,
// inserts its master row and then the requisition.
func (s *Service) RegisterRequisition(ctx context.Context, r Requisition) (Requisition, error) {
	if err := prepareRequisition(&r); err != nil {
		return Requisition{}, err
	}
	openPositions(&r)
	if r.RequestedOn == nil {
		r.RequestedOn = s.calendar.Today().Ptr()
	}
	return s.insertRequisition(ctx, r)
}

// UpdateRequisition replaces the editable fields of an existing
// requisition and mirrors position and location onto its master row.
// Counts are stored as given.
func (s *Service) UpdateRequisition(ctx context.Context, r Requisition) (Requisition, error) {
	existing, err := s.store.GetRequisition(ctx, r.ID)
	if err != nil {
		return Requisition{}, err
	}
	if err := prepareRequisition(&r); err != nil {
		return Requisition{}, err
	}
	r.MasterID = existing.MasterID
	if r.SystemID == nil {
		r.SystemID = existing.SystemID
	}
	return s.updateRequisition(ctx, r)
}

// UpsertRequisition reconciles r against the stored requisition with the
// same system ID. created reports whether a new record was inserted.
// Positions already filled are subtracted from the requested count, as in
// RegisterRequisition.
func (s *Service) UpsertRequisition(ctx context.Context, r Requisition) (_ Requisition, created bool, err error) {
	if err := prepareRequisition(&r); err != nil {
		return Requisition{}, false, err
	}
	openPositions(&r)

	if r.SystemID != nil {
		existing, err := s.store.FindRequisitionBySystemID(ctx, *r.SystemID)
		switch {
		case err == nil:
			r.ID = existing.ID
			r.MasterID = existing.MasterID
			updated, err := s.updateRequisition(ctx, r)
			return updated, false, err
		case !errors.Is(err, ErrRecordNotFound):
			return Requisition{}, false, fmt.Errorf("find requisition %d: %w", *r.SystemID, err)
		}
	}

	inserted, err := s.insertRequisition(ctx, r)
	return inserted, err == nil, err
}

func (s *Service) insertRequisition(ctx context.Context, r Requisition) (Requisition, error) {
	masterID, err := s.insertMaster(ctx, KindRequisition, r.Position, r.Company, r.Site, r.Area)
	if err != nil {
		return Requisition{}, err
	}
	r.MasterID = masterID

	id, err := s.store.InsertRequisition(ctx, r)
	if err != nil {
		return Requisition{}, fmt.Errorf("insert requisition: %w", err)
	}
	r.ID = id

	s.log.Info("requisition registered",
		zap.Int64("id", r.ID),
		zap.Int64("master_id", r.MasterID),
		zap.Int("requested", r.Requested),
		zap.Int("filled", r.Filled),
		zap.String("state", string(r.State())))
	return r, nil
}

func (s *Service) updateRequisition(ctx context.Context, r Requisition) (Requisition, error) {
	if err := s.updateMaster(ctx, KindRequisition, r.MasterID, r.Position, r.Company, r.Site, r.Area); err != nil {
		return Requisition{}, err
	}
	if err := s.store.UpdateRequisition(ctx, r); err != nil {
		return Requisition{}, fmt.Errorf("update requisition %d: %w", r.ID, err)
	}

	s.log.Info("requisition updated",
		zap.Int64("id", r.ID),
		zap.String("state", string(r.State())))
	return r, nil
}

func prepareRequisition(r *Requisition) error {
	if err := requirePosition(r.Position); err != nil {
		return err
	}
	if r.Requested < 0 || r.Filled < 0 {
		return fmt.Errorf("requested %d, filled %d: %w", r.Requested, r.Filled, ErrInvalidCount)
	}
	r.Position = NormalizeText(r.Position)
	r.Site = OrUnspecified(r.Site)
	r.Company = OrUnspecified(r.Company)
	r.Area = OrUnspecified(r.Area)
	r.RequestKind = OrUnspecified(r.RequestKind)
	r.Status = OrUnspecified(r.Status)
	r.Phase = OrUnspecified(r.Phase)
	r.Recruiter = OrUnspecified(r.Recruiter)
	r.RecruitmentKind = OrUnspecified(r.RecruitmentKind)
	r.Channel = OrUnspecified(r.Channel)
	r.Comments = strings.TrimSpace(r.Comments)
	return nil
}

// openPositions keeps only the positions that are still open.
func openPositions(r *Requisition) {
	if r.Filled > 0 {
		r.Requested = max(r.Requested-r.Filled, 0)
		return
	}
	r.FilledOn = nil
	r.RecruitmentKind = Unspecified
	r.Channel = Unspecified
}

// =============================================================================
// MASTER ROWS
// =============================================================================

func (s *Service) insertMaster(ctx context.Context, kind Kind, position, company, site, area string) (int64, error) {
	id, err := s.store.InsertMaster(ctx, Master{
		Kind:      kind,
		CreatedAt: s.calendar.Now().UTC(),
		Position:  position,
		Company:   company,
		Site:      site,
		Area:      area,
	})
	if err != nil {
		return 0, fmt.Errorf("insert master %s: %w", kind, err)
	}
	return id, nil
}

func (s *Service) updateMaster(ctx context.Context, kind Kind, id int64, position, company, site, area string) error {
	err := s.store.UpdateMaster(ctx, Master{
		ID:       id,
		Kind:     kind,
		Position: position,
		Company:  company,
		Site:     site,
		Area:     area,
	})
	if err != nil {
		return fmt.Errorf("update master %d: %w", id, err)
	}
	return nil
}

func requirePosition(position string) error {
	if strings.TrimSpace(position) == "" {
		return ErrPositionRequired
	}
	return nil
}
