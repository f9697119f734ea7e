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

type ProfileTestSuite struct {
	suite.Suite
	connURI      string
	testDBName   string
	mongoClient  *mongo.Client
	testDatabase *mongo.Database
}

func NewProfileTestSuite(connURI, dbName string) *ProfileTestSuite {
	return &ProfileTestSuite{
		connURI:    connURI,
		testDBName: dbName,
	}
}

func (s *ProfileTestSuite) SetupSuite() {
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
func (s *ProfileTestSuite) CleanMongoDB() error {
	return s.testDatabase.Drop(context.Background())
}

func (s *ProfileTestSuite) TestUpdateProfileLocationUpserts() {
	store := NewMongoStore(s.mongoClient, s.testDBName)
	ctx := context.Background()

	s.NoError(store.UpdateProfileLocation("account-test-upsert", schema.Location{
		Latitude:  25.0330,
		Longitude: 121.5654,
	}))

	count, err := s.testDatabase.Collection(schema.ProfileCollection).CountDocuments(ctx, bson.M{
		"account_number": "account-test-upsert",
	})
	s.NoError(err)
	s.Equal(int64(1), count)

	// the second report moves the profile instead of creating another one
	s.NoError(store.UpdateProfileLocation("account-test-upsert", schema.Location{
		Latitude:  24.0,
		Longitude: 120.5,
	}))

	count, err = s.testDatabase.Collection(schema.ProfileCollection).CountDocuments(ctx, bson.M{
		"account_number": "account-test-upsert",
	})
	s.NoError(err)
	s.Equal(int64(1), count)

	var profile schema.Profile
	err = s.testDatabase.Collection(schema.ProfileCollection).FindOne(ctx, bson.M{
		"account_number": "account-test-upsert",
	}).Decode(&profile)
	s.NoError(err)
	s.Equal([]float64{120.5, 24.0}, profile.Location.Coordinates)
}

func (s *ProfileTestSuite) TestNearbyAccounts() {
	store := NewMongoStore(s.mongoClient, s.testDBName)

	center := schema.Location{Latitude: 25.0330, Longitude: 121.5654}

	// roughly 1.5km away from the center
	s.NoError(store.UpdateProfileLocation("account-near", schema.Location{
		Latitude:  25.0465,
		Longitude: 121.5654,
	}))
	// the other side of the island
	s.NoError(store.UpdateProfileLocation("account-far", schema.Location{
		Latitude:  22.6273,
		Longitude: 120.3014,
	}))

	nearby, err := store.NearbyAccounts(5000, center)
	s.NoError(err)
	s.Contains(nearby, "account-near")
	s.NotContains(nearby, "account-far")
}

// In order for 'go test' to run this suite, we need to create
// a normal test function and pass our suite to s.Run
func TestProfileTestSuite(t *testing.T) {
	suite.Run(t, NewProfileTestSuite("mongodb://127.0.0.1:27017/?compressors=disabled", "test-db-profile"))
}
