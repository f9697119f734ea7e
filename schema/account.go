package schema

import (
	"time"
)

// Account - registered user of the helpmate system. XP and stars are the
// volunteering record shown next to a volunteer in membership lists.
type Account struct {
	AccountNumber string    `json:"account_number" gorm:"primary_key"`
	Name          string    `json:"name"`
	MobileNumber  string    `json:"mobile_number"`
	XP            int64     `json:"xp" gorm:"default:0"`
	Stars         float64   `json:"stars" gorm:"default:0"`
	RatingCount   int64     `json:"-" gorm:"default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Summary projects an account into the embedded form carried by the
// membership arrays of a help request.
func (a *Account) Summary() UserSummary {
	return UserSummary{
		UID:          a.AccountNumber,
		Name:         a.Name,
		MobileNumber: a.MobileNumber,
		XP:           a.XP,
		Stars:        a.Stars,
	}
}
