package engine

import (
	"math"

	"grana/internal/core"
)

// bracket is one progressive-table row: amount*rate - deduct for amounts up
// to upTo (cents, 0 meaning unbounded).
type bracket struct {
	upTo   int64
	rate   float64
	deduct int64
}

// 2024 monthly INSS table. The top bracket is capped at the contribution
// ceiling.
var inssBrackets = []bracket{
	{upTo: 141200, rate: 0.075, deduct: 0},
	{upTo: 266668, rate: 0.09, deduct: 2118},
	{upTo: 400003, rate: 0.12, deduct: 10118},
	{upTo: 778602, rate: 0.14, deduct: 18118},
}

// 2024 monthly IRRF table.
var irrfBrackets = []bracket{
	{upTo: 225920, rate: 0, deduct: 0},
	{upTo: 282665, rate: 0.075, deduct: 16944},
	{upTo: 375105, rate: 0.15, deduct: 38144},
	{upTo: 466468, rate: 0.225, deduct: 66277},
	{upTo: 0, rate: 0.275, deduct: 89600},
}

const (
	dependentDeductionCents = 18959
	simplifiedDiscountCents = 56480
)

func progressiveTax(base core.Money, brackets []bracket, capAtLast bool) core.Money {
	cents := base.Cents
	if cents <= 0 {
		return core.Money{}
	}
	last := brackets[len(brackets)-1]
	if capAtLast && last.upTo > 0 && cents > last.upTo {
		cents = last.upTo
	}
	for _, b := range brackets {
		if b.upTo == 0 || cents <= b.upTo {
			tax := int64(math.Round(float64(cents)*b.rate)) - b.deduct
			if tax < 0 {
				tax = 0
			}
			return core.Money{Cents: tax}
		}
	}
	return core.Money{}
}

// INSS computes the progressive social-security contribution, capped at the
// ceiling bracket.
func INSS(gross core.Money) core.Money {
	return progressiveTax(gross, inssBrackets, true)
}

// IRRF computes the withholding income tax as the minimum of two competing
// computations, both clamped at zero: the full base (gross minus INSS minus
// the per-dependent deduction) and the simplified base (gross minus a fixed
// discount). The taxpayer always gets the favorable result.
func IRRF(gross, inss core.Money, dependents int) core.Money {
	fullBase := core.Money{Cents: gross.Cents - inss.Cents - int64(dependents)*dependentDeductionCents}
	if fullBase.Cents < 0 {
		fullBase.Cents = 0
	}
	simplifiedBase := core.Money{Cents: gross.Cents - simplifiedDiscountCents}
	if simplifiedBase.Cents < 0 {
		simplifiedBase.Cents = 0
	}
	full := progressiveTax(fullBase, irrfBrackets, false)
	simplified := progressiveTax(simplifiedBase, irrfBrackets, false)
	if simplified.Cents < full.Cents {
		return simplified
	}
	return full
}

// IncomeProjection is the net-salary breakdown for one month.
type IncomeProjection struct {
	Gross      core.Money
	Advance    core.Money
	INSS       core.Money
	IRRF       core.Money
	Deductions core.Money
	Net        core.Money
}

// ProjectNetIncome computes the forward-looking net salary. When an advance
// (vale) configuration exists its exempt flag governs the tax bypass;
// otherwise the payroll-level flag does.
func ProjectNetIncome(cfg core.PayrollConfig) IncomeProjection {
	p := IncomeProjection{Gross: cfg.GrossSalary}

	exempt := cfg.Exempt
	if cfg.Advance != nil {
		exempt = cfg.Advance.Exempt
		p.Advance = cfg.Advance.Amount
	}

	if !exempt {
		p.INSS = INSS(cfg.GrossSalary)
		p.IRRF = IRRF(cfg.GrossSalary, p.INSS, cfg.Dependents)
	}

	for _, rule := range cfg.Deductions {
		if rule.Percent != 0 {
			p.Deductions.Cents += int64(math.Round(float64(cfg.GrossSalary.Cents) * rule.Percent / 100))
		} else {
			p.Deductions.Cents += rule.Fixed.Cents
		}
	}

	p.Net = core.Money{Cents: p.Gross.Cents - p.Advance.Cents - p.INSS.Cents - p.IRRF.Cents - p.Deductions.Cents}
	return p
}
