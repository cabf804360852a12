package valueobjects

// Plan is the feature-access tier of a subscription record.
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanPremium Plan = "PREMIUM"
)

func (p Plan) String() string {
	return string(p)
}

func (p Plan) IsPremium() bool {
	return p == PlanPremium
}

var ValidPlans = map[Plan]bool{
	PlanFree:    true,
	PlanPremium: true,
}
