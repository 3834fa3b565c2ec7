package processors

import (
	"fmt"
	"time"

	"github.com/georgeokwiri254/entered-on-audit/src/models"
)

// Auditor checks reconciled reservations for internal consistency. Each rule
// that fails produces a finding; any finding fails the reservation. Rules only
// fire when their operands are present, except the required-field rule, whose
// whole point is absence.
type Auditor struct{}

func NewAuditor() *Auditor {
	return &Auditor{}
}

// Audit runs every rule against one reconciled reservation.
func (a *Auditor) Audit(rec *models.ReconciledReservation, runID string, now time.Time) models.AuditResult {
	res := models.AuditResult{
		ResvID:    rec.ResvID,
		RunID:     runID,
		Status:    models.AuditPass,
		Match:     rec.Match,
		AuditedAt: now,
	}

	res.Findings = append(res.Findings, a.checkNightsSpan(rec)...)
	res.Findings = append(res.Findings, a.checkNetCoversTDF(rec)...)
	res.Findings = append(res.Findings, a.checkPersons(rec)...)
	res.Findings = append(res.Findings, a.checkRequiredFields(rec)...)
	res.Findings = append(res.Findings, a.checkRateInfo(rec)...)
	res.Findings = append(res.Findings, a.checkEmailAgreement(rec)...)

	if len(res.Findings) > 0 {
		res.Status = models.AuditFail
	}
	return res
}

// Rule 1: NIGHTS must equal the calendar-day span between arrival and
// departure.
func (a *Auditor) checkNightsSpan(rec *models.ReconciledReservation) []models.Finding {
	arrival, aok := rec.Date(models.FieldArrival)
	departure, dok := rec.Date(models.FieldDeparture)
	nights, nok := rec.Int(models.FieldNights)
	if !aok || !dok || !nok {
		return nil
	}
	span := int(departure.Sub(arrival).Hours() / 24)
	if span == nights {
		return nil
	}
	return []models.Finding{{
		Rule:   1,
		Fields: []string{models.FieldNights, models.FieldArrival, models.FieldDeparture},
		Reason: fmt.Sprintf("NIGHTS is %d but %s to %s spans %d", nights, arrival.Format(models.DateLayout), departure.Format(models.DateLayout), span),
	}}
}

// Rule 2: NET_TOTAL must cover the Tourism Dirham Fee.
func (a *Auditor) checkNetCoversTDF(rec *models.ReconciledReservation) []models.Finding {
	net, nok := rec.Decimal(models.FieldNetTotal)
	tdf, tok := rec.Decimal(models.FieldTDF)
	if !nok || !tok || net.GreaterThanOrEqual(tdf) {
		return nil
	}
	return []models.Finding{{
		Rule:   2,
		Fields: []string{models.FieldNetTotal, models.FieldTDF},
		Reason: fmt.Sprintf("NET_TOTAL %s below TDF %s", net.StringFixed(2), tdf.StringFixed(2)),
	}}
}

// Rule 3: a reservation without at least one person is invalid.
func (a *Auditor) checkPersons(rec *models.ReconciledReservation) []models.Finding {
	raw, present := rec.Get(models.FieldPersons)
	if !present {
		return nil
	}
	persons, ok := rec.Int(models.FieldPersons)
	if !ok {
		return []models.Finding{{
			Rule:   3,
			Fields: []string{models.FieldPersons},
			Reason: fmt.Sprintf("PERSONS %q is not a whole number", raw),
		}}
	}
	if persons > 0 {
		return nil
	}
	return []models.Finding{{
		Rule:   3,
		Fields: []string{models.FieldPersons},
		Reason: fmt.Sprintf("PERSONS is %d", persons),
	}}
}

var requiredFields = []string{
	models.FieldArrival,
	models.FieldDeparture,
	models.FieldNights,
}

// Rule 4: the identity and stay fields must be present. Either name form
// satisfies the guest-name requirement.
func (a *Auditor) checkRequiredFields(rec *models.ReconciledReservation) []models.Finding {
	var out []models.Finding
	_, fullOK := rec.Get(models.FieldFullName)
	_, firstOK := rec.Get(models.FieldFirstName)
	if !fullOK && !firstOK {
		out = append(out, models.Finding{
			Rule:   4,
			Fields: []string{models.FieldFullName, models.FieldFirstName},
			Reason: "guest name missing",
		})
	}
	for _, field := range requiredFields {
		if _, ok := rec.Get(field); !ok {
			out = append(out, models.Finding{
				Rule:   4,
				Fields: []string{field},
				Reason: field + " missing",
			})
		}
	}
	return out
}

var rateFields = []string{
	models.FieldNetTotal,
	models.FieldTotal,
	models.FieldADR,
	models.FieldAmount,
}

// Rule 5: at least one rate figure must survive reconciliation.
func (a *Auditor) checkRateInfo(rec *models.ReconciledReservation) []models.Finding {
	for _, field := range rateFields {
		if _, ok := rec.Get(field); ok {
			return nil
		}
	}
	return []models.Finding{{
		Rule:   5,
		Fields: rateFields,
		Reason: "no rate information present",
	}}
}

// Rule 6: a matched email that disagrees with the spreadsheet on most
// comparable fields signals a data-entry problem even when each field is
// individually plausible.
func (a *Auditor) checkEmailAgreement(rec *models.ReconciledReservation) []models.Finding {
	if rec.Match.Status != models.MatchFail {
		return nil
	}
	return []models.Finding{{
		Rule:   6,
		Fields: comparableFields,
		Reason: fmt.Sprintf("email agrees on only %.0f%% of comparable fields", rec.Match.MatchPercentage),
	}}
}
