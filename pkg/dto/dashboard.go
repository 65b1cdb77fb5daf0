package dto

type DashboardStats struct {
	TotalTrips         int `json:"total_trips"`
	UpcomingTrips      int `json:"upcoming_trips"`
	OngoingTrips       int `json:"ongoing_trips"`
	PastTrips          int `json:"past_trips"`
	TotalActivities    int `json:"total_activities"`
	PendingInvitations int `json:"pending_invitations"`
}

type DashboardResponse struct {
	Stats              DashboardStats     `json:"stats"`
	RecentTrips        []TripResponse     `json:"recent_trips"`
	UpcomingActivities []ActivityResponse `json:"upcoming_activities"`
}
