package store

import (
	"github.com/jinzhu/gorm"

	"github.com/hel3-14t/helpmate-api/schema"
)

// CreateAccount is to register an account into the helpmate system
func (s *HelpmateStore) CreateAccount(accountNumber, name, mobileNumber string) (*schema.Account, error) {
	a := schema.Account{
		AccountNumber: accountNumber,
		Name:          name,
		MobileNumber:  mobileNumber,
	}

	if err := s.ormDB.Create(&a).Error; err != nil {
		return nil, err
	}

	return &a, nil
}

// GetAccount returns an account instance of a given account number
func (s *HelpmateStore) GetAccount(accountNumber string) (*schema.Account, error) {
	var a schema.Account
	if err := s.ormDB.Where("account_number = ?", accountNumber).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// AddXP credits experience points earned by helping others
func (s *HelpmateStore) AddXP(accountNumber string, points int64) error {
	return s.ormDB.Model(schema.Account{}).
		Where("account_number = ?", accountNumber).
		Update("xp", gorm.Expr("xp + ?", points)).Error
}
