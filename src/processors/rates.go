package processors

import (
	"github.com/georgeokwiri254/entered-on-audit/src/models"
	"github.com/georgeokwiri254/entered-on-audit/src/normalize"
	"github.com/shopspring/decimal"
)

// RateEngine derives the dependent amount fields of a normalized reservation:
// the Tourism Dirham Fee, NET_TOTAL/TOTAL per the source's formula, the
// average daily rate and the pre-tax amount. A missing operand leaves the
// derived field missing; the engine never substitutes zero.
type RateEngine struct {
	standardRate  decimal.Decimal
	apartmentRate decimal.Decimal
	nightCap      int
	taxFactor     decimal.Decimal
}

func NewRateEngine(standardRate, apartmentRate decimal.Decimal, nightCap int, taxFactor decimal.Decimal) *RateEngine {
	return &RateEngine{
		standardRate:  standardRate,
		apartmentRate: apartmentRate,
		nightCap:      nightCap,
		taxFactor:     taxFactor,
	}
}

// Derive fills the missing amount fields of n in place.
//
// The extractor stores the single email-quoted amount under NET_TOTAL; what
// that amount actually is depends on the source. BOOKING.COM, BRAND.COM and
// INNLINK2WAY quote TDF-inclusive totals; EXPEDIA and AGODA quote net rates;
// everything else is taken as net with AMOUNT equal to it.
func (e *RateEngine) Derive(n *models.NormalizedReservation) {
	e.deriveTDF(n)

	quoted := n.NetTotal
	switch n.Source.Formula() {
	case models.FormulaTotal:
		if n.Total == nil {
			n.Total = quoted
		}
		n.NetTotal = nil
		if n.Total != nil && n.TDF != nil {
			net := n.Total.Sub(*n.TDF)
			if !net.IsNegative() {
				n.NetTotal = &net
			} else {
				n.ParseNotes = append(n.ParseNotes, "NET_TOTAL: quoted total below TDF")
			}
		}
	case models.FormulaNet:
		if n.Total == nil && quoted != nil && n.TDF != nil {
			total := quoted.Add(*n.TDF)
			n.Total = &total
		}
	default:
		if n.Amount == nil && quoted != nil {
			n.Amount = quoted
		}
		if n.Total == nil && quoted != nil && n.TDF != nil {
			total := quoted.Add(*n.TDF)
			n.Total = &total
		}
	}

	if n.Amount == nil && n.NetTotal != nil && e.taxFactor.IsPositive() {
		amount := n.NetTotal.DivRound(e.taxFactor, 2)
		n.Amount = &amount
	}
	if n.ADR == nil && n.NetTotal != nil && n.Nights != nil && *n.Nights > 0 {
		adr := n.NetTotal.DivRound(decimal.NewFromInt(int64(*n.Nights)), 2)
		n.ADR = &adr
	}
}

// deriveTDF computes nights x nightly fee, with nights capped: a long stay is
// only charged the fee for the first capped nights. Two-bedroom apartments
// carry the doubled nightly fee.
func (e *RateEngine) deriveTDF(n *models.NormalizedReservation) {
	if n.TDF != nil || n.Nights == nil {
		return
	}
	nights := *n.Nights
	if e.nightCap > 0 && nights > e.nightCap {
		nights = e.nightCap
	}
	rate := e.standardRate
	if normalize.IsApartment(n.Room) {
		rate = e.apartmentRate
	}
	tdf := rate.Mul(decimal.NewFromInt(int64(nights)))
	n.TDF = &tdf
}
