package store

import (
	"context"

	"github.com/jinzhu/gorm"

	"github.com/hel3-14t/helpmate-api/schema"
)

// helpmate main datastore
type HelpmateCore interface {
	Ping() error

	// Account
	CreateAccount(accountNumber, name, mobileNumber string) (*schema.Account, error)
	GetAccount(accountNumber string) (*schema.Account, error)
	AddXP(accountNumber string, points int64) error

	// Help
	CreateHelpRequest(ctx context.Context, params HelpRequestParams) (*schema.HelpRequest, error)
	GetHelp(ctx context.Context, helpID string) (*schema.HelpRequest, error)
	FetchOpenRequests(ctx context.Context, offset int) ([]schema.HelpRequest, error)
	AppendMembership(ctx context.Context, request *schema.HelpRequest, field schema.MembershipField, user schema.UserSummary) error
	CancelHelp(ctx context.Context, helpID, creator string) error
	ExpireHelps(ctx context.Context) ([]schema.HelpRequest, error)
	HelpMetrics(ctx context.Context) (map[string]int64, error)

	// Profile
	UpdateProfileLocation(accountNumber string, loc schema.Location) error
	NearbyAccounts(distance int, loc schema.Location) ([]string, error)
}

// HelpmateStore is an implementation of HelpmateCore
type HelpmateStore struct {
	ormDB *gorm.DB
	mongo MongoStore
}

func NewHelpmateStore(ormDB *gorm.DB, mongo MongoStore) *HelpmateStore {
	return &HelpmateStore{
		ormDB: ormDB,
		mongo: mongo,
	}
}

// Ping is to check the storage health status
func (s *HelpmateStore) Ping() error {
	if err := s.ormDB.DB().Ping(); err != nil {
		return err
	}
	return s.mongo.Ping()
}

func (s *HelpmateStore) CreateHelpRequest(ctx context.Context, params HelpRequestParams) (*schema.HelpRequest, error) {
	return s.mongo.CreateHelpRequest(ctx, params)
}

func (s *HelpmateStore) GetHelp(ctx context.Context, helpID string) (*schema.HelpRequest, error) {
	return s.mongo.GetHelp(ctx, helpID)
}

func (s *HelpmateStore) FetchOpenRequests(ctx context.Context, offset int) ([]schema.HelpRequest, error) {
	return s.mongo.FetchOpenRequests(ctx, offset)
}

func (s *HelpmateStore) AppendMembership(ctx context.Context, request *schema.HelpRequest, field schema.MembershipField, user schema.UserSummary) error {
	return s.mongo.AppendMembership(ctx, request, field, user)
}

func (s *HelpmateStore) CancelHelp(ctx context.Context, helpID, creator string) error {
	return s.mongo.CancelHelp(ctx, helpID, creator)
}

func (s *HelpmateStore) ExpireHelps(ctx context.Context) ([]schema.HelpRequest, error) {
	return s.mongo.ExpireHelps(ctx)
}

func (s *HelpmateStore) HelpMetrics(ctx context.Context) (map[string]int64, error) {
	return s.mongo.HelpMetrics(ctx)
}

func (s *HelpmateStore) UpdateProfileLocation(accountNumber string, loc schema.Location) error {
	return s.mongo.UpdateProfileLocation(accountNumber, loc)
}

func (s *HelpmateStore) NearbyAccounts(distance int, loc schema.Location) ([]string, error) {
	return s.mongo.NearbyAccounts(distance, loc)
}
