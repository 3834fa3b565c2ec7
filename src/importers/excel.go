package importers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/georgeokwiri254/entered-on-audit/src/logger"
	"github.com/georgeokwiri254/entered-on-audit/src/models"
	"github.com/georgeokwiri254/entered-on-audit/src/normalize"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	ErrWorkbookOpen = errors.New("workbook open failed")
	ErrNoHeader     = errors.New("workbook has no header row")
)

// Column-header aliases, normalized to upper snake case. The "Entered On"
// export has drifted across property-management versions; all spellings map
// to the same canonical field.
var headerAliases = map[string]string{
	"RESV_ID": "RESV_ID", "RESV_NO": "RESV_ID", "CONFIRMATION": "RESV_ID", "CONFIRMATION_NO": "RESV_ID", "CONF_NO": "RESV_ID",

	"FULL_NAME": models.FieldFullName, "NAME": models.FieldFullName, "GUEST_NAME": models.FieldFullName, "LAST_NAME": models.FieldFullName,
	"FIRST_NAME": models.FieldFirstName,
	"ARRIVAL":    models.FieldArrival, "ARRIVAL_DATE": models.FieldArrival, "CHECK_IN": models.FieldArrival,
	"DEPARTURE": models.FieldDeparture, "DEPARTURE_DATE": models.FieldDeparture, "CHECK_OUT": models.FieldDeparture,
	"NIGHTS":  models.FieldNights,
	"PERSONS": models.FieldPersons, "ADULTS": models.FieldPersons, "PAX": models.FieldPersons,
	"ROOM": models.FieldRoom, "ROOM_TYPE": models.FieldRoom,
	"RATE_CODE": models.FieldRateCode, "RATE_PLAN": models.FieldRateCode,
	"C_T_S": models.FieldCTS, "C_T_S_NAME": models.FieldCTS, "COMPANY": models.FieldCTS,
	"NET_TOTAL": models.FieldNetTotal, "NET": models.FieldNetTotal,
	"TOTAL": models.FieldTotal, "TOTAL_AMOUNT": models.FieldTotal,
	"TDF": models.FieldTDF,
	"ADR": models.FieldADR, "RATE": models.FieldADR,
	"AMOUNT": models.FieldAmount,
}

// ReadWorkbook reads the first sheet of an "Entered On" workbook into typed
// reservation rows. Rows missing both a guest name and an arrival date are
// skipped with a warning; a malformed cell empties that field only.
func ReadWorkbook(r io.Reader) ([]models.SpreadsheetReservation, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookOpen, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookOpen, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	columns := make(map[int]string)
	for i, h := range rows[0] {
		if field, ok := headerAliases[normalizeHeader(h)]; ok {
			columns[i] = field
		}
	}
	if len(columns) == 0 {
		return nil, ErrNoHeader
	}

	var out []models.SpreadsheetReservation
	for rowNum, row := range rows[1:] {
		cells := make(map[string]string)
		for i, raw := range row {
			field, ok := columns[i]
			if !ok {
				continue
			}
			if v := strings.TrimSpace(raw); v != "" {
				cells[field] = v
			}
		}
		if len(cells) == 0 {
			continue
		}

		res := buildRow(cells, rowNum+2)
		if res.FullName == "" && res.Arrival == nil {
			logger.L.Warn("skipping workbook row without name or arrival", "row", rowNum+2)
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func buildRow(cells map[string]string, rowNum int) models.SpreadsheetReservation {
	res := models.SpreadsheetReservation{
		ResvID:    cells["RESV_ID"],
		FullName:  cells[models.FieldFullName],
		FirstName: cells[models.FieldFirstName],
		RateCode:  cells[models.FieldRateCode],
		CTS:       cells[models.FieldCTS],
	}
	if res.ResvID == "" {
		res.ResvID = fmt.Sprintf("ROW%04d", rowNum)
	}

	res.Arrival = parseCellDate(cells[models.FieldArrival], rowNum, models.FieldArrival)
	res.Departure = parseCellDate(cells[models.FieldDeparture], rowNum, models.FieldDeparture)
	res.Nights = parseCellInt(cells[models.FieldNights])
	res.Persons = parseCellInt(cells[models.FieldPersons])

	if raw, ok := cells[models.FieldRoom]; ok {
		if code, mapped := normalize.MapRoom(raw); mapped {
			res.Room = code
		} else {
			res.Room = strings.ToUpper(strings.TrimSpace(raw))
		}
	}

	res.NetTotal = parseCellAmount(cells[models.FieldNetTotal])
	res.Total = parseCellAmount(cells[models.FieldTotal])
	res.TDF = parseCellAmount(cells[models.FieldTDF])
	res.ADR = parseCellAmount(cells[models.FieldADR])
	res.Amount = parseCellAmount(cells[models.FieldAmount])
	return res
}

// parseCellDate accepts the canonical dd/mm/yyyy form, ISO dates, and raw
// Excel serial numbers (days since 1899-12-30, how unstyled date cells come
// back from the reader).
func parseCellDate(raw string, rowNum int, field string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := normalize.ParseDate(raw, false); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		t := excelEpoch.AddDate(0, 0, int(serial))
		return &t
	}
	logger.L.Warn("unreadable workbook date", "row", rowNum, "field", field, "value", raw)
	return nil
}

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

func parseCellInt(raw string) *int {
	if raw == "" {
		return nil
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		// Numeric cells sometimes come back as "2.0".
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return nil
		}
		i = int(f)
	}
	return &i
}

func parseCellAmount(raw string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	d, _, err := normalize.ParseAmount(raw)
	if err != nil {
		return nil
	}
	return &d
}

func normalizeHeader(h string) string {
	h = strings.ToUpper(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, ".", "_")
	return h
}
