/*
Package importer loads requisitions from an ATS spreadsheet export.

PURPOSE:
  Reads the first worksheet of an .xlsx file, maps each data row onto a
  requisition by header name and reconciles it against the store by its
  external system ID.

FLOW:
  1. Read: open the workbook, trim headers, keep the raw cell values
  2. Preview: first N rows keyed by header, for confirmation
  3. Import: per row, Service.UpsertRequisition; failures are collected
     and never stop the batch

RECONCILIATION:
  Row with a system ID already stored -> update master + requisition
  Anything else                       -> insert master + requisition

SEE ALSO:
  - columns.go: Header names and cell parsing
  - recruiting/service.go: UpsertRequisition
  - api/handlers.go: POST /api/import
*/
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/warp/talent-tracker/recruiting"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrEmptyWorkbook = errors.New("workbook has no data")
	ErrUnreadable    = errors.New("file is not a readable xlsx workbook")
)

// CellError reports a cell that could not be read.
type CellError struct {
	Column string
	Value  string
	Reason string
}

func (e *CellError) Error() string {
	return fmt.Sprintf("column %q: %s (%q)", e.Column, e.Reason, e.Value)
}

// RowError is the failure of a single spreadsheet row. Row is the 1-based
// sheet row number, header included.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e RowError) Unwrap() error { return e.Err }

// =============================================================================
// SHEET
// =============================================================================

// Sheet is a workbook's first worksheet, header row split off.
type Sheet struct {
	Name    string
	Headers []string
	rows    []row
}

// Len is the number of data rows.
func (s *Sheet) Len() int { return len(s.rows) }

// Preview returns up to n data rows keyed by header.
func (s *Sheet) Preview(n int) []map[string]string {
	if n <= 0 || n > len(s.rows) {
		n = len(s.rows)
	}
	out := make([]map[string]string, 0, n)
	for _, r := range s.rows[:n] {
		cells := make(map[string]string, len(s.Headers))
		for _, h := range s.Headers {
			cells[h] = r.cells[h]
		}
		out = append(out, cells)
	}
	return out
}

// Read parses the first worksheet of an .xlsx stream.
func Read(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	// Raw values keep dates as serials instead of locale-formatted text.
	grid, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(grid) == 0 {
		return nil, ErrEmptyWorkbook
	}

	s := &Sheet{Name: sheets[0]}
	for _, h := range grid[0] {
		s.Headers = append(s.Headers, strings.TrimSpace(h))
	}
	for i, cells := range grid[1:] {
		if blank(cells) {
			continue
		}
		r := row{number: i + 2, cells: make(map[string]string, len(s.Headers))}
		// GetRows drops trailing empty cells, so rows can be shorter than the header.
		for j, v := range cells {
			if j < len(s.Headers) && s.Headers[j] != "" {
				r.cells[s.Headers[j]] = v
			}
		}
		s.rows = append(s.rows, r)
	}
	return s, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// IMPORT
// =============================================================================

// Result summarises one import batch.
type Result struct {
	BatchID string
	New     int
	Updated int
	Failed  int
	Errors  []RowError
}

// Processed is the number of rows written.
func (r *Result) Processed() int { return r.New + r.Updated }

// Importer writes spreadsheet rows through the recruiting service.
type Importer struct {
	svc *recruiting.Service
	log *zap.Logger
}

// New creates an importer. A nil logger discards output.
func New(svc *recruiting.Service, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{svc: svc, log: log.Named("importer")}
}

// Import upserts every row of the sheet. Only a cancelled context stops the
// batch early; row failures are recorded in the result.
func (im *Importer) Import(ctx context.Context, s *Sheet) (*Result, error) {
	res := &Result{BatchID: uuid.NewString()}
	log := im.log.With(zap.String("batch_id", res.BatchID), zap.String("sheet", s.Name))
	log.Info("import started", zap.Int("rows", s.Len()))

	cal := im.svc.Calendar()
	for _, r := range s.rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		req, err := r.requisition(cal)
		if err == nil {
			var created bool
			req, created, err = im.svc.UpsertRequisition(ctx, req)
			if err == nil {
				if created {
					res.New++
				} else {
					res.Updated++
				}
				log.Debug("row imported",
					zap.Int("row", r.number),
					zap.Int64("requisition_id", req.ID),
					zap.Bool("created", created))
				continue
			}
		}

		res.Failed++
		res.Errors = append(res.Errors, RowError{Row: r.number, Err: err})
		log.Warn("row failed", zap.Int("row", r.number), zap.Error(err))
	}

	log.Info("import finished",
		zap.Int("new", res.New),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed))
	return res, nil
}

// ImportReader reads and imports a workbook in one step.
func (im *Importer) ImportReader(ctx context.Context, r io.Reader) (*Result, error) {
	s, err := Read(r)
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, s)
}
