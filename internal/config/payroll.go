package config

import (
	"fmt"
	"os"
	"strconv"

	"grana/internal/core"
)

// Payroll builds the income projection input from the environment. It
// returns nil when no gross salary is configured: the projection is then
// simply absent from the dashboard.
func Payroll() (*core.PayrollConfig, error) {
	gross := os.Getenv("PAYROLL_GROSS_SALARY")
	if gross == "" {
		return nil, nil
	}

	grossMoney, err := core.ParseMoney(gross)
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_GROSS_SALARY: %w", err)
	}

	cfg := &core.PayrollConfig{
		GrossSalary: grossMoney,
		Dependents:  getEnvInt("PAYROLL_DEPENDENTS", 0),
		Exempt:      getEnvBool("PAYROLL_EXEMPT"),
	}

	if advance := os.Getenv("PAYROLL_ADVANCE_AMOUNT"); advance != "" {
		amount, err := core.ParseMoney(advance)
		if err != nil {
			return nil, fmt.Errorf("invalid PAYROLL_ADVANCE_AMOUNT: %w", err)
		}
		cfg.Advance = &core.AdvanceConfig{
			Amount: amount,
			Exempt: getEnvBool("PAYROLL_ADVANCE_EXEMPT"),
		}
	}

	return cfg, nil
}

func getEnvBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
