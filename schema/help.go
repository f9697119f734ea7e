package schema

import (
	"time"
)

const (
	HelpCollection = "helpRequest"
)

// Help request statuses. A request stays REQUESTED until either enough
// volunteers are accepted (FILLED), the creator withdraws it (CANCELLED)
// or it sits unanswered for too long (EXPIRED).
const (
	HELP_REQUESTED = "REQUESTED"
	HELP_FILLED    = "FILLED"
	HELP_CANCELLED = "CANCELLED"
	HELP_EXPIRED   = "EXPIRED"
)

// MembershipField names one of the three membership arrays of a help request.
type MembershipField string

const (
	MembershipRequested MembershipField = "requested"
	MembershipAccepted  MembershipField = "accepted"
	MembershipRejected  MembershipField = "rejected"
)

// MembershipState tells where a user currently sits within a help request.
// A user belongs to at most one membership array at any time.
type MembershipState int

const (
	MembershipNone MembershipState = iota
	MembershipStateRequested
	MembershipStateAccepted
	MembershipStateRejected
)

// UserSummary is the volunteer summary embedded in membership arrays.
type UserSummary struct {
	UID          string  `json:"uid" bson:"uid"`
	Name         string  `json:"name" bson:"name"`
	MobileNumber string  `json:"mobile_number" bson:"mobile_number"`
	XP           int64   `json:"xp" bson:"xp"`
	Stars        float64 `json:"stars" bson:"stars"`
}

// HelpRequest - a request for in-person help published to nearby volunteers
type HelpRequest struct {
	ID                  string        `json:"id" bson:"id"`
	Creator             string        `json:"creator" bson:"creator"`
	CreatorName         string        `json:"creator_name" bson:"creator_name"`
	MobileNumber        string        `json:"mobile_number" bson:"mobile_number"`
	Latitude            float64       `json:"latitude" bson:"latitude"`
	Longitude           float64       `json:"longitude" bson:"longitude"`
	Location            *GeoJSON      `json:"-" bson:"location,omitempty"`
	Address             string        `json:"address,omitempty" bson:"address,omitempty"`
	Description         string        `json:"description" bson:"description"`
	RequiredHelperCount int           `json:"required_helper_count" bson:"required_helper_count"`
	AcceptedCount       int           `json:"accepted_count" bson:"accepted_count"`
	Requested           []UserSummary `json:"requested" bson:"requested"`
	Accepted            []UserSummary `json:"accepted" bson:"accepted"`
	Rejected            []UserSummary `json:"rejected" bson:"rejected"`
	Status              string        `json:"status" bson:"status"`
	CreatedAt           time.Time     `json:"created_at" bson:"created_at"`
}

// MembershipOf reports the membership state of a user within this request.
// The store keeps the three arrays mutually exclusive, so the first match wins.
func (h *HelpRequest) MembershipOf(uid string) MembershipState {
	for _, u := range h.Accepted {
		if u.UID == uid {
			return MembershipStateAccepted
		}
	}
	for _, u := range h.Requested {
		if u.UID == uid {
			return MembershipStateRequested
		}
	}
	for _, u := range h.Rejected {
		if u.UID == uid {
			return MembershipStateRejected
		}
	}
	return MembershipNone
}

// Filled reports whether every helper slot of this request is taken.
func (h *HelpRequest) Filled() bool {
	return len(h.Accepted) >= h.RequiredHelperCount
}
