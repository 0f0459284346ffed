package entity

// Employee carries the profile fields the claim and settlement flows consume.
// The employee master lives in an external system; this module only reads it.
type Employee struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Department         string `json:"department"`
	MealVoucherCents   int64  `json:"meal_voucher_cents"`
	FoodVoucherCents   int64  `json:"food_voucher_cents"`
	CostAllowanceCents int64  `json:"cost_allowance_cents"`
	MobilityCents      int64  `json:"mobility_cents"`
	BasketCapCents     int64  `json:"basket_cap_cents"`
	PidaEligible       bool   `json:"pida_eligible"`
	PidaBaseCents      int64  `json:"pida_base_cents"`
	Active             bool   `json:"active"`
}

// FixedComponentCents returns the employee's amount for a fixed benefit
// component, or 0 for components that are not employee-level fixed amounts.
func (e *Employee) FixedComponentCents(component BenefitComponent) int64 {
	switch component {
	case ComponentMealVoucher:
		return e.MealVoucherCents
	case ComponentFoodVoucher:
		return e.FoodVoucherCents
	case ComponentCostAllowance:
		return e.CostAllowanceCents
	case ComponentMobility:
		return e.MobilityCents
	default:
		return 0
	}
}
