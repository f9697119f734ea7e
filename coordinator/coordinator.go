// Package coordinator orchestrates a volunteer's accept/reject/join action
// against one help request: it validates the action with the lifecycle
// guard, issues the membership mutation, and returns the fresh server copy
// for reconciliation into the displayed feed.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/hel3-14t/helpmate-api/lifecycle"
	"github.com/hel3-14t/helpmate-api/schema"
	"github.com/hel3-14t/helpmate-api/store"
)

// ErrActionInFlight is returned when the same action is still outstanding
// for the same help request. Actions against different requests are
// independent and never serialized.
var ErrActionInFlight = fmt.Errorf("the same action is already in flight for this request")

// Action is one volunteer operation against a help request.
type Action string

const (
	ActionJoin   Action = "join"
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

// HelpMutator is the backing-store surface the coordinator drives. The
// store is the final arbiter of the capacity invariant: AppendMembership
// must refuse an append to `accepted` once capacity is reached and report
// store.ErrHelpRequestFilled, atomically with respect to other writers.
type HelpMutator interface {
	AppendMembership(ctx context.Context, request *schema.HelpRequest, field schema.MembershipField, user schema.UserSummary) error
	GetHelp(ctx context.Context, helpID string) (*schema.HelpRequest, error)
}

type opKey struct {
	helpID string
	action Action
}

type Coordinator struct {
	store HelpMutator

	mu       sync.Mutex
	inflight map[opKey]struct{}
}

func New(store HelpMutator) *Coordinator {
	return &Coordinator{
		store:    store,
		inflight: make(map[opKey]struct{}),
	}
}

// Loading reports whether the given action is outstanding for the request.
func (c *Coordinator) Loading(helpID string, action Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[opKey{helpID: helpID, action: action}]
	return ok
}

// Join expresses a volunteer's intent to help. On guard failure the
// specific error is reported and no mutation is sent.
func (c *Coordinator) Join(ctx context.Context, request *schema.HelpRequest, volunteer schema.UserSummary) (*schema.HelpRequest, error) {
	if err := lifecycle.CanJoin(request, volunteer.UID); err != nil {
		return nil, err
	}

	return c.mutate(ctx, request, schema.MembershipRequested, volunteer, ActionJoin)
}

// Accept confirms a volunteer as a helper. The store treats this as a
// single conditional append to `accepted`; removal from `requested` rides
// on the same write, and the capacity re-check happens there.
func (c *Coordinator) Accept(ctx context.Context, request *schema.HelpRequest, volunteer schema.UserSummary) (*schema.HelpRequest, error) {
	if err := lifecycle.CanAccept(request, volunteer.UID); err != nil {
		return nil, err
	}

	return c.mutate(ctx, request, schema.MembershipAccepted, volunteer, ActionAccept)
}

// Reject declines a volunteer. Rejecting a user who never requested is a
// no-op: the request is returned unchanged and nothing is sent.
func (c *Coordinator) Reject(ctx context.Context, request *schema.HelpRequest, volunteer schema.UserSummary) (*schema.HelpRequest, error) {
	if err := lifecycle.CanReject(request, volunteer.UID); err != nil {
		if err == lifecycle.ErrNotRequested {
			return request, nil
		}
		return nil, err
	}

	return c.mutate(ctx, request, schema.MembershipRejected, volunteer, ActionReject)
}

func (c *Coordinator) mutate(ctx context.Context, request *schema.HelpRequest, field schema.MembershipField, user schema.UserSummary, action Action) (*schema.HelpRequest, error) {
	key := opKey{helpID: request.ID, action: action}
	if !c.begin(key) {
		return nil, ErrActionInFlight
	}
	defer c.end(key)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := c.store.AppendMembership(ctx, request, field, user); err != nil {
		if err == store.ErrHelpRequestFilled {
			// capacity was reached between the local check and the write
			return nil, lifecycle.ErrAlreadyFilled
		}
		return nil, err
	}

	// a cancelled operation must not hand its result back for reconciliation
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return c.store.GetHelp(ctx, request.ID)
}

func (c *Coordinator) begin(key opKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inflight[key]; ok {
		return false
	}
	c.inflight[key] = struct{}{}
	return true
}

func (c *Coordinator) end(key opKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, key)
}
