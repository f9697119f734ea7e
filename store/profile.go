package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hel3-14t/helpmate-api/schema"
)

// ProfileStore - operations over per-account location profiles
type ProfileStore interface {
	UpdateProfileLocation(accountNumber string, loc schema.Location) error
	NearbyAccounts(distance int, loc schema.Location) ([]string, error)
}

// UpdateProfileLocation records the last reported device location of an
// account. The profile document is created on first report.
func (m *mongoDB) UpdateProfileLocation(accountNumber string, loc schema.Location) error {
	c := m.client.Database(m.database).Collection(schema.ProfileCollection)
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := bson.M{"account_number": accountNumber}
	update := bson.M{
		"$set": bson.M{
			"location":   schema.NewPointGeoJSON(loc),
			"updated_at": time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"id": uuid.New().String(),
		},
	}

	if _, err := c.UpdateOne(ctx, query, update, options.Update().SetUpsert(true)); err != nil {
		log.WithFields(log.Fields{
			"prefix":         mongoLogPrefix,
			"account_number": accountNumber,
			"error":          err,
		}).Error("update profile location")
		return err
	}

	return nil
}

// NearbyAccounts finds account numbers whose last reported location is
// within the given distance in meters, nearest first.
func (m *mongoDB) NearbyAccounts(distance int, loc schema.Location) ([]string, error) {
	c := m.client.Database(m.database).Collection(schema.ProfileCollection)
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := distanceQuery(distance, loc)

	cur, err := c.Find(ctx, query)
	if nil != err {
		log.WithField("prefix", mongoLogPrefix).Errorf("query nearby accounts with error: %s", err)
		return []string{}, fmt.Errorf("nearby accounts query with error: %s", err)
	}

	accountNumbers := make([]string, 0)
	var record schema.Profile

	for cur.Next(ctx) {
		err = cur.Decode(&record)
		if nil != err {
			log.WithField("prefix", mongoLogPrefix).Infof("query nearby accounts with error: %s", err)
			return []string{}, fmt.Errorf("nearby accounts query decode record with error: %s", err)
		}
		accountNumbers = append(accountNumbers, record.AccountNumber)
	}

	log.WithField("prefix", mongoLogPrefix).Debugf("nearby accounts query gets %d account number: %v",
		len(accountNumbers), accountNumbers)

	return accountNumbers, nil
}

// $nearSphere provides documents from nearest to farthest
// reference: https://docs.mongodb.com/manual/reference/operator/query/nearSphere/#op._S_nearSphere
func distanceQuery(distance int, cords schema.Location) bson.D {
	return bson.D{{
		Key: "location",
		Value: bson.D{{
			Key: "$nearSphere",
			Value: bson.D{{
				Key: "$geometry",
				Value: bson.D{{
					Key:   "type",
					Value: "Point",
				}, {
					Key:   "coordinates",
					Value: bson.A{cords.Longitude, cords.Latitude},
				}, {
					Key:   "$maxDistance",
					Value: distance,
				}},
			}},
		}},
	}}
}
