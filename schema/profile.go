package schema

import "time"

const (
	ProfileCollection = "profile"
)

// Profile - per-account mongo document holding the last reported device
// location. The 2dsphere index over `location` backs the nearby-volunteer
// cohort query for notification broadcasts.
type Profile struct {
	ID            string    `bson:"id"`
	AccountNumber string    `bson:"account_number"`
	Location      *GeoJSON  `bson:"location,omitempty"`
	UpdatedAt     time.Time `bson:"updated_at"`
}
