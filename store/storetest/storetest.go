// Package storetest holds the behaviour every recruiting.Store must show.
// Each implementation runs it from its own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/talent-tracker/engine"
	"github.com/warp/talent-tracker/recruiting"
)

// Run exercises a fresh store produced by newStore for every subtest.
func Run(t *testing.T, newStore func(t *testing.T) recruiting.Store) {
	t.Run("MasterRoundTrip", func(t *testing.T) { testMasterRoundTrip(t, newStore(t)) })
	t.Run("HireRoundTrip", func(t *testing.T) { testHireRoundTrip(t, newStore(t)) })
	t.Run("TerminationUpdate", func(t *testing.T) { testTerminationUpdate(t, newStore(t)) })
	t.Run("RequisitionOptionalDates", func(t *testing.T) { testRequisitionOptionalDates(t, newStore(t)) })
	t.Run("RequisitionBySystemID", func(t *testing.T) { testRequisitionBySystemID(t, newStore(t)) })
	t.Run("DuplicateSystemID", func(t *testing.T) { testDuplicateSystemID(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("Reset", func(t *testing.T) { testReset(t, newStore(t)) })
}

func day(y int, m time.Month, d int) *engine.Day { return engine.NewDay(y, m, d).Ptr() }

func master(t *testing.T, s recruiting.Store, kind recruiting.Kind) int64 {
	t.Helper()
	id, err := s.InsertMaster(context.Background(), recruiting.Master{
		Kind:      kind,
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Position:  "ANALISTA",
		Company:   "ACME",
		Site:      "MONTERREY",
		Area:      recruiting.AreaAdministrative,
	})
	require.NoError(t, err)
	return id
}

func testMasterRoundTrip(t *testing.T, s recruiting.Store) {
	ctx := context.Background()
	id := master(t, s, recruiting.KindRequisition)

	require.NoError(t, s.UpdateMaster(ctx, recruiting.Master{ID: id, Position: "GERENTE", Company: "ACME", Site: "CDMX", Area: recruiting.AreaOperational}))

	masters, err := s.ListMasters(ctx)
	require.NoError(t, err)
	require.Len(t, masters, 1)
	assert.Equal(t, recruiting.KindRequisition, masters[0].Kind, "kind is not rewritten")
	assert.Equal(t, "GERENTE", masters[0].Position)
	assert.Equal(t, "CDMX", masters[0].Site)
	assert.True(t, masters[0].CreatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func testHireRoundTrip(t *testing.T, s recruiting.Store) {
	ctx := context.Background()
	masterID := master(t, s, recruiting.KindHire)

	in := recruiting.Hire{
		MasterID:     masterID,
		HiredOn:      day(2024, time.March, 4),
		Company:      "ACME",
		Position:     "ANALISTA",
		Site:         "MONTERREY",
		Area:         recruiting.AreaAdministrative,
		Hired:        2,
		Channel:      "INDEED",
		Recruiter:    "HELEN RUIZ",
		Confidential: true,
	}
	id, err := s.InsertHire(ctx, in)
	require.NoError(t, err)
	in.ID = id

	hires, err := s.ListHires(ctx)
	require.NoError(t, err)
	require.Len(t, hires, 1)
	assert.Equal(t, in, hires[0])
}

func testTerminationUpdate(t *testing.T, s recruiting.Store) {
	ctx := context.Background()
	masterID := master(t, s, recruiting.KindTermination)

	id, err := s.InsertTermination(ctx, recruiting.Termination{
		MasterID:     masterID,
		JoinedOn:     day(2023, time.May, 2),
		RegisteredOn: day(2024, time.March, 1),
		Position:     "CHOFER",
		Kind:         recruiting.TerminationUnspecified,
	})
	require.NoError(t, err)

	got, err := s.GetTermination(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.TerminatedOn)

	got.TerminatedOn = day(2024, time.February, 28)
	got.Kind = recruiting.TerminationVoluntary
	got.Reason = "CAMBIO DE CIUDAD"
	require.NoError(t, s.UpdateTermination(ctx, *got))

	list, err := s.ListTerminations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *got, list[0])
}

func testRequisitionOptionalDates(t *testing.T, s recruiting.Store) {
	ctx := context.Background()
	masterID := master(t, s, recruiting.KindRequisition)

	in := recruiting.Requisition{
		MasterID:    masterID,
		RequestedOn: day(2024, time.January, 5),
		Position:    "ANALISTA",
		Requested:   3,
		Status:      "EN PROCESO",
	}
	id, err := s.InsertRequisition(ctx, in)
	require.NoError(t, err)

	got, err := s.GetRequisition(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.SystemID)
	assert.Nil(t, got.AuthorizedOn, "never authorised stays absent")
	assert.Nil(t, got.FilledOn)
	assert.Equal(t, engine.StateOpen, got.State())

	got.AuthorizedOn = day(2024, time.January, 10)
	got.FilledOn = day(2024, time.February, 1)
	got.Filled = 1
	got.Requested = 2
	require.NoError(t, s.UpdateRequisition(ctx, *got))

	list, err := s.ListRequisitions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *got, list[0])
}

func testRequisitionBySystemID(t *testing.T, s recruiting.Store) {
	ctx := context.Background()
	sys := int64(4711)

	id, err := s.InsertRequisition(ctx, recruiting.Requisition{
		MasterID: master(t, s, recruiting.KindRequisition),
		SystemID: &sys,
		Position: "SOLDADOR",
	})
	require.NoError(t, err)

	got, err := s.FindRequisitionBySystemID(ctx, sys)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	require.NotNil(t, got.SystemID)
	assert.Equal(t, sys, *got.SystemID)

	_, err = s.FindRequisitionBySystemID(ctx, 1)
	assert.ErrorIs(t, err, recruiting.ErrRecordNotFound)
}

func testDuplicateSystemID(t *testing.T, s recruiting.Store) {
	ctx := context.Background()
	sys := int64(99)

	_, err := s.InsertRequisition(ctx, recruiting.Requisition{MasterID: master(t, s, recruiting.KindRequisition), SystemID: &sys, Position: "A"})
	require.NoError(t, err)

	_, err = s.InsertRequisition(ctx, recruiting.Requisition{MasterID: master(t, s, recruiting.KindRequisition), SystemID: &sys, Position: "B"})
	assert.ErrorIs(t, err, recruiting.ErrDuplicateSystemID)

	// requisitions without a system ID never collide
	for i := 0; i < 2; i++ {
		_, err = s.InsertRequisition(ctx, recruiting.Requisition{MasterID: master(t, s, recruiting.KindRequisition), Position: "C"})
		require.NoError(t, err)
	}
}

func testNotFound(t *testing.T, s recruiting.Store) {
	ctx := context.Background()

	_, err := s.GetRequisition(ctx, 404)
	assert.ErrorIs(t, err, recruiting.ErrRecordNotFound)
	_, err = s.GetTermination(ctx, 404)
	assert.ErrorIs(t, err, recruiting.ErrRecordNotFound)
	err = s.UpdateRequisition(ctx, recruiting.Requisition{ID: 404, Position: "X"})
	assert.ErrorIs(t, err, recruiting.ErrRecordNotFound)
	err = s.UpdateTermination(ctx, recruiting.Termination{ID: 404, Position: "X"})
	assert.ErrorIs(t, err, recruiting.ErrRecordNotFound)
	err = s.UpdateMaster(ctx, recruiting.Master{ID: 404, Position: "X"})
	assert.ErrorIs(t, err, recruiting.ErrRecordNotFound)
}

func testReset(t *testing.T, s recruiting.Store) {
	ctx := context.Background()
	masterID := master(t, s, recruiting.KindHire)
	_, err := s.InsertHire(ctx, recruiting.Hire{MasterID: masterID, Position: "A", Hired: 1})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	snap, err := recruiting.LoadSnapshot(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, snap.Masters)
	assert.Empty(t, snap.Hires)
	assert.Empty(t, snap.Terminations)
	assert.Empty(t, snap.Requisitions)
}
