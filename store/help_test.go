package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hel3-14t/helpmate-api/schema"
)

type HelpTestSuite struct {
	suite.Suite
	connURI      string
	testDBName   string
	mongoClient  *mongo.Client
	testDatabase *mongo.Database
}

func NewHelpTestSuite(connURI, dbName string) *HelpTestSuite {
	return &HelpTestSuite{
		connURI:    connURI,
		testDBName: dbName,
	}
}

func (s *HelpTestSuite) SetupSuite() {
	if s.connURI == "" || s.testDBName == "" {
		s.T().Fatal("invalid test suite configuration")
	}

	opts := options.Client().ApplyURI(s.connURI)
	mongoClient, err := mongo.NewClient(opts)
	if nil != err {
		s.T().Fatalf("create mongo client with error: %s", err)
	}

	if err = mongoClient.Connect(context.Background()); nil != err {
		s.T().Fatalf("connect mongo database with error: %s", err.Error())
	}

	s.mongoClient = mongoClient
	s.testDatabase = mongoClient.Database(s.testDBName)

	// make sure the test suite is run with a clean environment
	if err := s.CleanMongoDB(); err != nil {
		s.T().Fatal(err)
	}
	schema.NewMongoDBIndexer(s.connURI, s.testDBName).IndexAll()
}

// CleanMongoDB drop the whole test mongodb
func (s *HelpTestSuite) CleanMongoDB() error {
	return s.testDatabase.Drop(context.Background())
}

func (s *HelpTestSuite) createTestHelp(creator string, required int) *schema.HelpRequest {
	store := NewMongoStore(s.mongoClient, s.testDBName)
	help, err := store.CreateHelpRequest(context.Background(), HelpRequestParams{
		Creator:             creator,
		CreatorName:         "creator name",
		MobileNumber:        "+10000000000",
		Latitude:            25.123,
		Longitude:           120.123,
		Address:             "somewhere",
		Description:         "need a hand moving boxes",
		RequiredHelperCount: required,
	})
	s.NoError(err)
	s.NotNil(help)
	return help
}

func (s *HelpTestSuite) TestCreateAndGetHelp() {
	store := NewMongoStore(s.mongoClient, s.testDBName)

	created := s.createTestHelp("account-test-create", 2)
	s.Equal(schema.HELP_REQUESTED, created.Status)
	s.Equal([]float64{120.123, 25.123}, created.Location.Coordinates)
	s.Empty(created.Requested)
	s.Empty(created.Accepted)
	s.Empty(created.Rejected)

	found, err := store.GetHelp(context.Background(), created.ID)
	s.NoError(err)
	s.Equal(created.ID, found.ID)
	s.Equal("need a hand moving boxes", found.Description)
}

func (s *HelpTestSuite) TestGetHelpNotFound() {
	store := NewMongoStore(s.mongoClient, s.testDBName)

	help, err := store.GetHelp(context.Background(), "no-such-help")
	s.Equal(ErrHelpRequestNotFound, err)
	s.Nil(help)
}

func (s *HelpTestSuite) TestAppendMembershipRequested() {
	store := NewMongoStore(s.mongoClient, s.testDBName)
	ctx := context.Background()

	help := s.createTestHelp("account-test-join", 2)
	user := schema.UserSummary{UID: "volunteer-join", Name: "Volunteer"}

	s.NoError(store.AppendMembership(ctx, help, schema.MembershipRequested, user))

	updated, err := store.GetHelp(ctx, help.ID)
	s.NoError(err)
	s.Len(updated.Requested, 1)
	s.Equal("volunteer-join", updated.Requested[0].UID)

	// the second join by the same user matches no document
	err = store.AppendMembership(ctx, help, schema.MembershipRequested, user)
	s.Equal(ErrMembershipConflict, err)
}

func (s *HelpTestSuite) TestAcceptFlipsStatusOnLastSlot() {
	store := NewMongoStore(s.mongoClient, s.testDBName)
	ctx := context.Background()

	help := s.createTestHelp("account-test-fill", 1)
	user := schema.UserSummary{UID: "volunteer-fill", Name: "Volunteer"}

	s.NoError(store.AppendMembership(ctx, help, schema.MembershipRequested, user))
	s.NoError(store.AppendMembership(ctx, help, schema.MembershipAccepted, user))

	updated, err := store.GetHelp(ctx, help.ID)
	s.NoError(err)
	s.Equal(schema.HELP_FILLED, updated.Status)
	s.Len(updated.Accepted, 1)
	s.Empty(updated.Requested)
	s.Equal(1, updated.AcceptedCount)
}

func (s *HelpTestSuite) TestAppendAgainstFilledRequest() {
	store := NewMongoStore(s.mongoClient, s.testDBName)
	ctx := context.Background()

	help := s.createTestHelp("account-test-capacity", 1)
	winner := schema.UserSummary{UID: "volunteer-winner"}
	loser := schema.UserSummary{UID: "volunteer-loser"}

	s.NoError(store.AppendMembership(ctx, help, schema.MembershipRequested, winner))
	s.NoError(store.AppendMembership(ctx, help, schema.MembershipAccepted, winner))

	// the losing writer still holds a copy that looks open
	err := store.AppendMembership(ctx, help, schema.MembershipRequested, loser)
	s.Equal(ErrHelpRequestFilled, err)

	count, err := s.testDatabase.Collection(schema.HelpCollection).CountDocuments(ctx, bson.M{
		"id":            help.ID,
		"requested.uid": "volunteer-loser",
	})
	s.NoError(err)
	s.Equal(int64(0), count)
}

func (s *HelpTestSuite) TestRejectRemovesFromRequested() {
	store := NewMongoStore(s.mongoClient, s.testDBName)
	ctx := context.Background()

	help := s.createTestHelp("account-test-reject", 2)
	user := schema.UserSummary{UID: "volunteer-reject"}

	s.NoError(store.AppendMembership(ctx, help, schema.MembershipRequested, user))
	s.NoError(store.AppendMembership(ctx, help, schema.MembershipRejected, user))

	updated, err := store.GetHelp(ctx, help.ID)
	s.NoError(err)
	s.Empty(updated.Requested)
	s.Len(updated.Rejected, 1)

	// rejecting a user who is not in requested matches no document
	err = store.AppendMembership(ctx, help, schema.MembershipRejected, user)
	s.Equal(ErrMembershipConflict, err)
}

func (s *HelpTestSuite) TestCancelHelp() {
	store := NewMongoStore(s.mongoClient, s.testDBName)
	ctx := context.Background()

	help := s.createTestHelp("account-test-cancel", 2)

	// only the creator may cancel
	err := store.CancelHelp(ctx, help.ID, "account-somebody-else")
	s.Equal(ErrHelpRequestClosed, err)

	s.NoError(store.CancelHelp(ctx, help.ID, "account-test-cancel"))

	updated, err := store.GetHelp(ctx, help.ID)
	s.NoError(err)
	s.Equal(schema.HELP_CANCELLED, updated.Status)

	// appends against a cancelled request are refused
	err = store.AppendMembership(ctx, help, schema.MembershipRequested, schema.UserSummary{UID: "volunteer-late"})
	s.Equal(ErrHelpRequestClosed, err)
}

func (s *HelpTestSuite) TestFetchOpenRequestsPagination() {
	store := NewMongoStore(s.mongoClient, s.testDBName)
	ctx := context.Background()

	for i := 0; i < FeedPageSize+3; i++ {
		s.createTestHelp("account-test-feed", 2)
	}

	first, err := store.FetchOpenRequests(ctx, 0)
	s.NoError(err)
	s.True(len(first) == FeedPageSize)

	// pages are in creation order
	for i := 1; i < len(first); i++ {
		s.False(first[i].CreatedAt.Before(first[i-1].CreatedAt))
	}

	second, err := store.FetchOpenRequests(ctx, FeedPageSize)
	s.NoError(err)
	s.NotEmpty(second)
	s.NotEqual(first[0].ID, second[0].ID)
}

// In order for 'go test' to run this suite, we need to create
// a normal test function and pass our suite to s.Run
func TestHelpTestSuite(t *testing.T) {
	suite.Run(t, NewHelpTestSuite("mongodb://127.0.0.1:27017/?compressors=disabled", "test-db-help"))
}
