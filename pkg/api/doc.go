// Package api defines the request and response messages of the Tripwiser
// Connect services. Messages are plain structs sent as JSON; dates use
// YYYY-MM-DD and times of day HH:MM.
package api

// Service names, used to build procedure paths such as
// "/tripwiser.v1.TripService/CreateTrip".
const (
	TripServiceName         = "tripwiser.v1.TripService"
	CollaboratorServiceName = "tripwiser.v1.CollaboratorService"
	ActivityServiceName     = "tripwiser.v1.ActivityService"
	ExpenseServiceName      = "tripwiser.v1.ExpenseService"
	WeatherServiceName      = "tripwiser.v1.WeatherService"
	ChatbotServiceName      = "tripwiser.v1.ChatbotService"
	UserServiceName         = "tripwiser.v1.UserService"
)
