package core

// DeductionRule is a custom payroll deduction: either a percentage of the
// gross salary or a fixed value. When Percent is non-zero it wins over Fixed.
type DeductionRule struct {
	Name    string
	Percent float64 // 0-100
	Fixed   Money
}

// AdvanceConfig models a salary advance (vale) paid mid-month.
type AdvanceConfig struct {
	Amount Money
	// Exempt bypasses INSS/IRRF for the projection when an advance
	// configuration exists.
	Exempt bool
}

// PayrollConfig drives the net-income projection.
type PayrollConfig struct {
	GrossSalary Money
	Dependents  int
	Advance     *AdvanceConfig
	// Exempt bypasses INSS/IRRF when no advance configuration exists.
	Exempt     bool
	Deductions []DeductionRule
}
