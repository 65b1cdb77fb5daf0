package models

// Itinerary is a trip draft produced by the planner. Dates are YYYY-MM-DD
// strings as returned by the model and are not validated.
type Itinerary struct {
	Destination string            `json:"destination"`
	StartDate   string            `json:"startDate"`
	EndDate     string            `json:"endDate"`
	Budget      string            `json:"budget"`
	Activities  []PlannedActivity `json:"activities"`
}

type PlannedActivity struct {
	Date          string   `json:"date"`
	Title         string   `json:"title"`
	Notes         string   `json:"notes"`
	Category      string   `json:"category"`
	EstimatedCost *float64 `json:"estimatedCost,omitempty"`
}
