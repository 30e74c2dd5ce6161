package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/warp/talent-tracker/engine"
	"github.com/warp/talent-tracker/recruiting"
	"github.com/xuri/excelize/v2"
)

// ATS export header names.
const (
	ColRequestedOn     = "Fecha Solicitud"
	ColRequestKind     = "Tipo de solicitud"
	ColStatus          = "Estatus De Solicitud"
	ColPhase           = "Fase del Proceso"
	ColProgressOn      = "Fecha de avance del proceso"
	ColAuthorizedOn    = "Fecha Autorizada"
	ColPosition        = "Puesto solicitado"
	ColSite            = "Plaza"
	ColCompany         = "Empresa"
	ColArea            = "Función Área"
	ColRequested       = "No.Vacantes Solicitadas"
	ColFilled          = "No. Vacantes Contratados"
	ColRecruiter       = "Responsable Del Proceso"
	ColComments        = "Comentarios Del Seguimiento Del Proceso"
	ColRecruitmentKind = "Tipo de Reclutamiento"
	ColChannel         = "Medio de Reclutamiento/HeadHunter"
	ColSystemID        = "ID"
	ColFilledOn        = "Fecha Del Seguimiento Del Proceso"
)

// Columns lists every header the importer reads. Missing columns read as
// empty cells.
var Columns = []string{
	ColRequestedOn, ColRequestKind, ColStatus, ColPhase, ColProgressOn,
	ColAuthorizedOn, ColPosition, ColSite, ColCompany, ColArea,
	ColRequested, ColFilled, ColRecruiter, ColComments, ColRecruitmentKind,
	ColChannel, ColSystemID, ColFilledOn,
}

// row is one data line addressed by header name.
type row struct {
	number int
	cells  map[string]string
}

func (r row) text(col string) string {
	return strings.TrimSpace(r.cells[col])
}

// count reads a whole number; Excel stores them as floats ("3" or "3.0").
func (r row) count(col string) (int, error) {
	raw := r.text(col)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &CellError{Column: col, Value: raw, Reason: "not a number"}
	}
	return int(f), nil
}

func (r row) systemID() (*int64, error) {
	raw := r.text(ColSystemID)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &CellError{Column: ColSystemID, Value: raw, Reason: "not a number"}
	}
	id := int64(f)
	return &id, nil
}

// date reads an Excel serial or a textual date. Unreadable values are
// treated as absent.
func (r row) date(cal engine.Calendar, col string) *engine.Day {
	raw := r.text(col)
	if raw == "" {
		return nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil
		}
		return engine.DayOf(t, time.UTC).Ptr()
	}
	return cal.ParsePtr(raw)
}

// requisition maps the row onto a requisition ready for upsert.
func (r row) requisition(cal engine.Calendar) (recruiting.Requisition, error) {
	requested, err := r.count(ColRequested)
	if err != nil {
		return recruiting.Requisition{}, err
	}
	filled, err := r.count(ColFilled)
	if err != nil {
		return recruiting.Requisition{}, err
	}
	systemID, err := r.systemID()
	if err != nil {
		return recruiting.Requisition{}, err
	}

	return recruiting.Requisition{
		SystemID:        systemID,
		RequestedOn:     r.date(cal, ColRequestedOn),
		ProgressOn:      r.date(cal, ColProgressOn),
		AuthorizedOn:    r.date(cal, ColAuthorizedOn),
		FilledOn:        r.date(cal, ColFilledOn),
		RequestKind:     r.text(ColRequestKind),
		Status:          r.text(ColStatus),
		Phase:           r.text(ColPhase),
		Position:        r.text(ColPosition),
		Site:            r.text(ColSite),
		Company:         r.text(ColCompany),
		Area:            r.text(ColArea),
		Requested:       requested,
		Filled:          filled,
		Recruiter:       r.text(ColRecruiter),
		Comments:        r.text(ColComments),
		RecruitmentKind: r.text(ColRecruitmentKind),
		Channel:         r.text(ColChannel),
	}, nil
}
