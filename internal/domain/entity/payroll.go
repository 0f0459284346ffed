package entity

// BenefitComponent names one benefit bucket that can feed payroll. The set is
// closed: settlement only ever resolves these six components.
type BenefitComponent string

const (
	ComponentMealVoucher   BenefitComponent = "meal_voucher"
	ComponentFoodVoucher   BenefitComponent = "food_voucher"
	ComponentCostAllowance BenefitComponent = "cost_allowance"
	ComponentMobility      BenefitComponent = "mobility"
	ComponentBenefitBasket BenefitComponent = "benefit_basket"
	ComponentPida          BenefitComponent = "pida"
)

// FixedComponents are the employee-level fixed amounts summed in step one of
// a settlement run. Basket and PI/DA totals are derived, not fixed.
var FixedComponents = []BenefitComponent{
	ComponentMealVoucher,
	ComponentFoodVoucher,
	ComponentCostAllowance,
	ComponentMobility,
}

// PayrollEventCode maps a benefit component to its payroll system code.
// A component without an active mapping is computed but excluded from
// settlement totals.
type PayrollEventCode struct {
	ID        int64            `json:"id"`
	Component BenefitComponent `json:"component"`
	Code      string           `json:"code"`
	Active    bool             `json:"active"`
}

// PayrollConfig is the resolved component→code mapping for one settlement
// run. Components absent from the map are unconfigured.
type PayrollConfig map[BenefitComponent]string

// Configured returns true if the component has an active payroll code.
func (c PayrollConfig) Configured(component BenefitComponent) bool {
	_, ok := c[component]
	return ok
}
