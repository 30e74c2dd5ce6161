package dashboard

import (
	"time"

	"github.com/warp/talent-tracker/engine"
)

var monthLabels = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthLabel is the Spanish month name.
func MonthLabel(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthLabels[m-1]
}

// MonthLabels lists the twelve month names in calendar order.
func MonthLabels() []string {
	return append([]string(nil), monthLabels[:]...)
}

// ModeLabel is the picker label of a period mode.
func ModeLabel(m engine.Mode) string {
	switch m {
	case engine.ModeYear:
		return "Por año"
	case engine.ModeQuarter:
		return "Por trimestre"
	case engine.ModeMonth:
		return "Por mes"
	case engine.ModeWeek:
		return "Por semana"
	case engine.ModeDateRange:
		return "Por rango"
	}
	return "Todo el tiempo"
}
