// Package lifecycle decides whether a volunteer action against a help
// request is legal before any mutation is sent. The checks run against a
// possibly-stale local copy of the request, so they are a user-experience
// optimization only; the backing store enforces the same invariants
// atomically and remains the final arbiter.
package lifecycle

import (
	"fmt"

	"github.com/hel3-14t/helpmate-api/schema"
)

var (
	ErrAlreadyFilled    = fmt.Errorf("all of the helper slots are already filled")
	ErrAlreadyAccepted  = fmt.Errorf("you are already helping")
	ErrAlreadyRequested = fmt.Errorf("you have requested to help, please wait")
	ErrAlreadyRejected  = fmt.Errorf("you have been rejected, try helping others")
	ErrNotRequested     = fmt.Errorf("the user has not requested to help")
)

// CanJoin decides whether a user may express intent to help on a request.
func CanJoin(request *schema.HelpRequest, uid string) error {
	if request.Filled() {
		return ErrAlreadyFilled
	}

	switch request.MembershipOf(uid) {
	case schema.MembershipStateAccepted:
		return ErrAlreadyAccepted
	case schema.MembershipStateRequested:
		return ErrAlreadyRequested
	case schema.MembershipStateRejected:
		return ErrAlreadyRejected
	}

	return nil
}

// CanAccept decides whether a volunteer may be confirmed as a helper.
// Capacity is re-checked here, not only at join time, because several
// volunteers may have joined concurrently while only some can be accepted.
// The volunteer normally sits in `requested` at this point, so that
// membership does not fail the check.
func CanAccept(request *schema.HelpRequest, uid string) error {
	if request.Filled() {
		return ErrAlreadyFilled
	}

	if request.MembershipOf(uid) == schema.MembershipStateAccepted {
		return ErrAlreadyAccepted
	}

	return nil
}

// CanReject decides whether a volunteer may be declined. Rejecting is legal
// only for users currently in `requested`; for anyone else the caller
// treats the action as a no-op.
func CanReject(request *schema.HelpRequest, uid string) error {
	if request.MembershipOf(uid) != schema.MembershipStateRequested {
		return ErrNotRequested
	}

	return nil
}
