package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hel3-14t/helpmate-api/schema"
)

// FeedPageSize is the fixed number of help requests returned per feed page.
const FeedPageSize = 10

var (
	ErrHelpRequestNotFound = fmt.Errorf("the help request does not exist")
	ErrHelpRequestFilled   = fmt.Errorf("all of the helper slots are already filled")
	ErrHelpRequestClosed   = fmt.Errorf("the help request is no longer open")
	ErrMembershipConflict  = fmt.Errorf("the user has already responded to this request")
)

// HelpStore - operations over the help request collection
type HelpStore interface {
	CreateHelpRequest(ctx context.Context, params HelpRequestParams) (*schema.HelpRequest, error)
	GetHelp(ctx context.Context, helpID string) (*schema.HelpRequest, error)
	FetchOpenRequests(ctx context.Context, offset int) ([]schema.HelpRequest, error)
	AppendMembership(ctx context.Context, request *schema.HelpRequest, field schema.MembershipField, user schema.UserSummary) error
	CancelHelp(ctx context.Context, helpID, creator string) error
	ExpireHelps(ctx context.Context) ([]schema.HelpRequest, error)
	HelpMetrics(ctx context.Context) (map[string]int64, error)
}

// HelpRequestParams carries the creation fields of a help request.
type HelpRequestParams struct {
	Creator             string
	CreatorName         string
	MobileNumber        string
	Latitude            float64
	Longitude           float64
	Address             string
	Description         string
	RequiredHelperCount int
}

// CreateHelpRequest inserts a new help request with status REQUESTED and
// empty membership arrays.
func (m *mongoDB) CreateHelpRequest(ctx context.Context, params HelpRequestParams) (*schema.HelpRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c := m.client.Database(m.database).Collection(schema.HelpCollection)

	help := schema.HelpRequest{
		ID:           uuid.New().String(),
		Creator:      params.Creator,
		CreatorName:  params.CreatorName,
		MobileNumber: params.MobileNumber,
		Latitude:     params.Latitude,
		Longitude:    params.Longitude,
		Location: schema.NewPointGeoJSON(schema.Location{
			Latitude:  params.Latitude,
			Longitude: params.Longitude,
		}),
		Address:             params.Address,
		Description:         params.Description,
		RequiredHelperCount: params.RequiredHelperCount,
		Requested:           []schema.UserSummary{},
		Accepted:            []schema.UserSummary{},
		Rejected:            []schema.UserSummary{},
		Status:              schema.HELP_REQUESTED,
		CreatedAt:           time.Now().UTC(),
	}

	if _, err := c.InsertOne(ctx, help); err != nil {
		log.WithFields(log.Fields{
			"prefix":  mongoLogPrefix,
			"creator": params.Creator,
			"error":   err,
		}).Error("create help request")
		return nil, err
	}

	return &help, nil
}

// GetHelp finds a help request by its id
func (m *mongoDB) GetHelp(ctx context.Context, helpID string) (*schema.HelpRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c := m.client.Database(m.database).Collection(schema.HelpCollection)

	var help schema.HelpRequest
	if err := c.FindOne(ctx, bson.M{"id": helpID}).Decode(&help); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrHelpRequestNotFound
		}
		return nil, err
	}

	return &help, nil
}

// FetchOpenRequests returns one page of help requests in creation order.
// Any status is included; the feed filters to REQUESTED for display.
func (m *mongoDB) FetchOpenRequests(ctx context.Context, offset int) ([]schema.HelpRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c := m.client.Database(m.database).Collection(schema.HelpCollection)

	opts := options.Find().
		SetSort(bson.M{"created_at": 1}).
		SetSkip(int64(offset)).
		SetLimit(FeedPageSize)

	cur, err := c.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.WithFields(log.Fields{
			"prefix": mongoLogPrefix,
			"offset": offset,
			"error":  err,
		}).Error("fetch help requests")
		return nil, err
	}

	helps := make([]schema.HelpRequest, 0, FeedPageSize)
	for cur.Next(ctx) {
		var help schema.HelpRequest
		if err := cur.Decode(&help); err != nil {
			return nil, err
		}
		helps = append(helps, help)
	}

	return helps, nil
}

// AppendMembership appends a volunteer to one of the membership arrays with
// a conditional update, so the capacity invariant and the membership
// exclusivity hold even when independent clients race:
//
//   - `requested`: the user must not appear in any membership array and
//     the request must still have a free slot.
//   - `accepted`: appended only while accepted_count < requiredHelperCount;
//     the same write removes the user from `requested` and bumps the
//     counter. A follow-up conditional update flips the status to FILLED
//     once the last slot is taken.
//   - `rejected`: the user must currently be in `requested`.
//
// A write matching no document is resolved by re-reading the request and
// reporting ErrHelpRequestFilled, ErrHelpRequestClosed or
// ErrMembershipConflict.
func (m *mongoDB) AppendMembership(ctx context.Context, request *schema.HelpRequest, field schema.MembershipField, user schema.UserSummary) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c := m.client.Database(m.database).Collection(schema.HelpCollection)

	filter := bson.M{
		"id":     request.ID,
		"status": schema.HELP_REQUESTED,
	}
	update := bson.M{}

	switch field {
	case schema.MembershipRequested:
		filter["requested.uid"] = bson.M{"$ne": user.UID}
		filter["accepted.uid"] = bson.M{"$ne": user.UID}
		filter["rejected.uid"] = bson.M{"$ne": user.UID}
		filter["accepted_count"] = bson.M{"$lt": request.RequiredHelperCount}
		update["$push"] = bson.M{"requested": user}
	case schema.MembershipAccepted:
		filter["accepted.uid"] = bson.M{"$ne": user.UID}
		filter["accepted_count"] = bson.M{"$lt": request.RequiredHelperCount}
		update["$push"] = bson.M{"accepted": user}
		update["$pull"] = bson.M{"requested": bson.M{"uid": user.UID}}
		update["$inc"] = bson.M{"accepted_count": 1}
	case schema.MembershipRejected:
		filter["requested.uid"] = user.UID
		update["$push"] = bson.M{"rejected": user}
		update["$pull"] = bson.M{"requested": bson.M{"uid": user.UID}}
	default:
		return fmt.Errorf("unknown membership field: %s", field)
	}

	result, err := c.UpdateOne(ctx, filter, update)
	if err != nil {
		log.WithFields(log.Fields{
			"prefix":  mongoLogPrefix,
			"help_id": request.ID,
			"field":   field,
			"uid":     user.UID,
			"error":   err,
		}).Error("append membership")
		return err
	}

	if result.MatchedCount == 0 {
		return m.resolveAppendFailure(ctx, request.ID, field)
	}

	if field == schema.MembershipAccepted {
		if _, err := c.UpdateOne(ctx, bson.M{
			"id":             request.ID,
			"status":         schema.HELP_REQUESTED,
			"accepted_count": bson.M{"$gte": request.RequiredHelperCount},
		}, bson.M{
			"$set": bson.M{"status": schema.HELP_FILLED},
		}); err != nil {
			return err
		}
	}

	return nil
}

// resolveAppendFailure distinguishes why a conditional append matched no
// document. The capacity race reads the same as a locally detected filled
// request on purpose.
func (m *mongoDB) resolveAppendFailure(ctx context.Context, helpID string, field schema.MembershipField) error {
	help, err := m.GetHelp(ctx, helpID)
	if err != nil {
		return err
	}

	switch {
	case help.Status == schema.HELP_CANCELLED || help.Status == schema.HELP_EXPIRED:
		return ErrHelpRequestClosed
	case field != schema.MembershipRejected && (help.Status == schema.HELP_FILLED || help.Filled()):
		return ErrHelpRequestFilled
	default:
		return ErrMembershipConflict
	}
}

// HelpMetrics summarizes help request counts by status.
func (m *mongoDB) HelpMetrics(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c := m.client.Database(m.database).Collection(schema.HelpCollection)

	cur, err := c.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}

	metrics := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		metrics[row.Status] = row.Count
	}

	return metrics, nil
}

// helpRequestTTL bounds how long an unanswered request stays in the feed.
const helpRequestTTL = 12 * time.Hour

// ExpireHelps expires help requests that have been open for longer than the
// TTL and returns the affected requests so their creators can be notified.
func (m *mongoDB) ExpireHelps(ctx context.Context) ([]schema.HelpRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c := m.client.Database(m.database).Collection(schema.HelpCollection)

	filter := bson.M{
		"status":     schema.HELP_REQUESTED,
		"created_at": bson.M{"$lte": time.Now().UTC().Add(-helpRequestTTL)},
	}

	cur, err := c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	expired := make([]schema.HelpRequest, 0)
	for cur.Next(ctx) {
		var help schema.HelpRequest
		if err := cur.Decode(&help); err != nil {
			return nil, err
		}
		expired = append(expired, help)
	}

	if len(expired) == 0 {
		return expired, nil
	}

	if _, err := c.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"status": schema.HELP_EXPIRED},
	}); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"prefix": mongoLogPrefix,
		"count":  len(expired),
	}).Info("expired stale help requests")

	return expired, nil
}

// CancelHelp withdraws an open request. Only the creator may cancel, and
// only while the request is still REQUESTED.
func (m *mongoDB) CancelHelp(ctx context.Context, helpID, creator string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c := m.client.Database(m.database).Collection(schema.HelpCollection)

	result, err := c.UpdateOne(ctx, bson.M{
		"id":      helpID,
		"creator": creator,
		"status":  schema.HELP_REQUESTED,
	}, bson.M{
		"$set": bson.M{"status": schema.HELP_CANCELLED},
	})
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		if _, err := m.GetHelp(ctx, helpID); err != nil {
			return err
		}
		return ErrHelpRequestClosed
	}

	return nil
}
