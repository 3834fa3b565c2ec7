package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/georgeokwiri254/entered-on-audit/src/models"
	"github.com/shopspring/decimal"
)

// Reservation converts an ExtractedRecord into a NormalizedReservation:
// dates become calendar dates (with the source's month/day swap applied),
// amounts become decimals, counts become integers and the room description
// becomes a short code. A field that fails to normalize is recorded as
// missing with a parse note; nothing here aborts the record.
func Reservation(rec models.ExtractedRecord) models.NormalizedReservation {
	n := models.NormalizedReservation{
		DocID:      rec.DocID,
		Source:     rec.Source,
		ReceivedAt: rec.ReceivedAt,
	}
	swap := rec.Source.DateSwap()

	if v, ok := rec.Get(models.FieldFullName); ok {
		n.FullName = strings.TrimSpace(v)
	}
	if v, ok := rec.Get(models.FieldFirstName); ok {
		n.FirstName = strings.TrimSpace(v)
	}
	if v, ok := rec.Get(models.FieldRateCode); ok {
		n.RateCode = strings.TrimSpace(v)
	}
	if v, ok := rec.Get(models.FieldCTS); ok {
		n.CTS = strings.TrimSpace(v)
	}

	if v, ok := rec.Get(models.FieldArrival); ok {
		if t, err := ParseDate(v, swap); err != nil {
			note(&n, rec, models.FieldArrival, err)
		} else {
			n.Arrival = &t
		}
	}
	if v, ok := rec.Get(models.FieldDeparture); ok {
		if t, err := ParseDate(v, swap); err != nil {
			note(&n, rec, models.FieldDeparture, err)
		} else {
			n.Departure = &t
		}
	}

	if v, ok := rec.Get(models.FieldNights); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err != nil {
			note(&n, rec, models.FieldNights, fmt.Errorf("nights %q not an integer", v))
		} else {
			n.Nights = &i
		}
	}
	if v, ok := rec.Get(models.FieldPersons); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err != nil {
			note(&n, rec, models.FieldPersons, fmt.Errorf("persons %q not an integer", v))
		} else {
			n.Persons = &i
		}
	}

	// Fill nights from the dates when the email never states them.
	if n.Nights == nil && n.Arrival != nil && n.Departure != nil {
		d := int(n.Departure.Sub(*n.Arrival).Hours() / 24)
		if d >= 0 {
			n.Nights = &d
		}
	}

	if v, ok := rec.Get(models.FieldRoom); ok {
		if code, mapped := MapRoom(v); mapped {
			n.Room = code
		} else {
			note(&n, rec, models.FieldRoom, fmt.Errorf("%w: %q", ErrRoomUnmapped, v))
		}
	}

	for field, target := range map[string]**decimal.Decimal{
		models.FieldNetTotal: &n.NetTotal,
		models.FieldTotal:    &n.Total,
		models.FieldTDF:      &n.TDF,
		models.FieldADR:      &n.ADR,
		models.FieldAmount:   &n.Amount,
	} {
		v, ok := rec.Get(field)
		if !ok {
			continue
		}
		d, currency, err := ParseAmount(v)
		if err != nil {
			note(&n, rec, field, err)
			continue
		}
		if currency != "" && n.Currency == "" {
			n.Currency = currency
		}
		dd := d
		*target = &dd
	}

	return n
}

func note(n *models.NormalizedReservation, rec models.ExtractedRecord, field string, err error) {
	msg := fmt.Sprintf("%s: %v", field, err)
	n.ParseNotes = append(n.ParseNotes, msg)
	rec.SetNote(field, err.Error())
	rec.Clear(field)
}
