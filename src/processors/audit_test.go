package processors

import (
	"testing"
	"time"

	"github.com/georgeokwiri254/entered-on-audit/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanReconciled() models.ReconciledReservation {
	fields := map[string]models.Cell{
		models.FieldFullName:  {Value: "SMITH", Source: models.SourceSpreadsheet},
		models.FieldFirstName: {Value: "JOHN", Source: models.SourceSpreadsheet},
		models.FieldArrival:   {Value: "04/10/2025", Source: models.SourceSpreadsheet},
		models.FieldDeparture: {Value: "07/10/2025", Source: models.SourceSpreadsheet},
		models.FieldNights:    {Value: "3", Source: models.SourceSpreadsheet},
		models.FieldPersons:   {Value: "2", Source: models.SourceEmail},
		models.FieldRoom:      {Value: "DK", Source: models.SourceSpreadsheet},
		models.FieldRateCode:  {Value: "BAR", Source: models.SourceSpreadsheet},
		models.FieldCTS:       {Value: "Acme Travel", Source: models.SourceEmail},
		models.FieldNetTotal:  {Value: "900.00", Source: models.SourceEmail},
		models.FieldTotal:     {Value: "960.00", Source: models.SourceEmail},
		models.FieldTDF:       {Value: "60.00", Source: models.SourceEmail},
		models.FieldADR:       {Value: "300.00", Source: models.SourceEmail},
		models.FieldAmount:    {Value: "734.69", Source: models.SourceEmail},
	}
	return models.ReconciledReservation{
		ResvID:     "R-1001",
		Fields:     fields,
		EmailDocID: "doc-1",
		Match:      models.MatchStats{FieldsMatching: 7, TotalComparable: 7, MatchPercentage: 100, Status: models.MatchPass},
	}
}

func setField(rec *models.ReconciledReservation, field, value string) {
	rec.Fields[field] = models.Cell{Value: value, Source: models.SourceSpreadsheet}
}

func clearField(rec *models.ReconciledReservation, field string) {
	rec.Fields[field] = models.Cell{Value: models.MissingValue, Source: models.SourceMissing}
}

func TestAuditCleanReservationPasses(t *testing.T) {
	rec := cleanReconciled()
	res := NewAuditor().Audit(&rec, "run-1", time.Now())

	assert.Equal(t, models.AuditPass, res.Status)
	assert.Empty(t, res.Findings)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "R-1001", res.ResvID)
}

func TestAuditNightsMismatch(t *testing.T) {
	rec := cleanReconciled()
	setField(&rec, models.FieldNights, "5")

	res := NewAuditor().Audit(&rec, "run-1", time.Now())

	require.Equal(t, models.AuditFail, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 1, res.Findings[0].Rule)
	assert.Contains(t, res.Findings[0].Fields, models.FieldNights)
}

func TestAuditNightsRuleSkippedWhenDateMissing(t *testing.T) {
	rec := cleanReconciled()
	clearField(&rec, models.FieldDeparture)

	res := NewAuditor().Audit(&rec, "run-1", time.Now())

	// Rule 1 cannot fire, but the missing departure trips rule 4.
	require.Equal(t, models.AuditFail, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 4, res.Findings[0].Rule)
}

func TestAuditNetBelowTDF(t *testing.T) {
	rec := cleanReconciled()
	setField(&rec, models.FieldNetTotal, "40.00")
	setField(&rec, models.FieldTDF, "60.00")

	res := NewAuditor().Audit(&rec, "run-1", time.Now())

	require.Equal(t, models.AuditFail, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 2, res.Findings[0].Rule)
}

func TestAuditZeroPersonsFails(t *testing.T) {
	rec := cleanReconciled()
	setField(&rec, models.FieldPersons, "0")

	res := NewAuditor().Audit(&rec, "run-1", time.Now())

	require.Equal(t, models.AuditFail, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 3, res.Findings[0].Rule)
	assert.Equal(t, []string{models.FieldPersons}, res.Findings[0].Fields)
}

func TestAuditMissingPersonsDoesNotTripRuleThree(t *testing.T) {
	rec := cleanReconciled()
	clearField(&rec, models.FieldPersons)

	res := NewAuditor().Audit(&rec, "run-1", time.Now())

	assert.Equal(t, models.AuditPass, res.Status)
}

func TestAuditRequiredFields(t *testing.T) {
	rec := cleanReconciled()
	clearField(&rec, models.FieldFullName)
	clearField(&rec, models.FieldFirstName)
	clearField(&rec, models.FieldNights)
	clearField(&rec, models.FieldArrival)

	res := NewAuditor().Audit(&rec, "run-1", time.Now())

	require.Equal(t, models.AuditFail, res.Status)
	rules := make(map[int]int)
	for _, f := range res.Findings {
		rules[f.Rule]++
	}
	// guest name + arrival + nights all under rule 4.
	assert.Equal(t, 3, rules[4])
}

func TestAuditEitherNameSatisfiesRuleFour(t *testing.T) {
	rec := cleanReconciled()
	clearField(&rec, models.FieldFullName)

	res := NewAuditor().Audit(&rec, "run-1", time.Now())
	assert.Equal(t, models.AuditPass, res.Status)
}

func TestAuditNoRateInformation(t *testing.T) {
	rec := cleanReconciled()
	clearField(&rec, models.FieldNetTotal)
	clearField(&rec, models.FieldTotal)
	clearField(&rec, models.FieldADR)
	clearField(&rec, models.FieldAmount)
	clearField(&rec, models.FieldTDF)

	res := NewAuditor().Audit(&rec, "run-1", time.Now())

	require.Equal(t, models.AuditFail, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 5, res.Findings[0].Rule)
}

func TestAuditLowEmailAgreement(t *testing.T) {
	rec := cleanReconciled()
	rec.Match = models.MatchStats{FieldsMatching: 2, TotalComparable: 7, MatchPercentage: 28.6, Status: models.MatchFail}

	res := NewAuditor().Audit(&rec, "run-1", time.Now())

	require.Equal(t, models.AuditFail, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 6, res.Findings[0].Rule)
}

func TestIssueSummaryJoinsReasons(t *testing.T) {
	rec := cleanReconciled()
	setField(&rec, models.FieldPersons, "0")
	setField(&rec, models.FieldNights, "9")

	res := NewAuditor().Audit(&rec, "run-1", time.Now())

	summary := res.IssueSummary()
	assert.Contains(t, summary, "PERSONS")
	assert.Contains(t, summary, "; ")
}
