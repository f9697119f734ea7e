package api

import (
	"github.com/hel3-14t/helpmate-api/coordinator"
	"github.com/hel3-14t/helpmate-api/feed"
	"github.com/hel3-14t/helpmate-api/lifecycle"
	"github.com/hel3-14t/helpmate-api/store"
)

var (
	errorMessageMap = map[int64]string{
		999:  "internal server error",
		1000: "invalid api key",
		1001: "invalid authorization format",
		1002: "difference between the request time and the current time is too large",
		1003: "invalid token",

		1006: "invalid value of client version",
		1007: "API for this client version has been discontinued",

		1010: "invalid parameters",
		1011: "cannot parse request",

		1100: "this account has been registered or has been taken",
		1101: "account not found",

		1200: store.ErrHelpRequestNotFound.Error(),
		1201: lifecycle.ErrAlreadyFilled.Error(),
		1202: lifecycle.ErrAlreadyRequested.Error(),
		1203: lifecycle.ErrAlreadyAccepted.Error(),
		1204: lifecycle.ErrAlreadyRejected.Error(),
		1205: store.ErrHelpRequestClosed.Error(),
		1206: store.ErrMembershipConflict.Error(),
		1207: coordinator.ErrActionInFlight.Error(),

		1300: feed.ErrFetchInFlight.Error(),
	}

	errorInternalServer             = errorJSON(999)
	errorInvalidAPIKey              = errorJSON(1000)
	errorInvalidAuthorizationFormat = errorJSON(1001)
	errorRequestTimeTooSkewed       = errorJSON(1002)
	errorInvalidToken               = errorJSON(1003)
	errorInvalidClientVersion       = errorJSON(1006)
	errorUnsupportedClientVersion   = errorJSON(1007)

	errorInvalidParameters  = errorJSON(1010)
	errorCannotParseRequest = errorJSON(1011)

	errorAccountTaken    = errorJSON(1100)
	errorAccountNotFound = errorJSON(1101)

	errorHelpRequestNotFound = errorJSON(1200)
	errorHelpAlreadyFilled   = errorJSON(1201)
	errorAlreadyRequested    = errorJSON(1202)
	errorAlreadyAccepted     = errorJSON(1203)
	errorAlreadyRejected     = errorJSON(1204)
	errorHelpRequestClosed   = errorJSON(1205)
	errorMembershipConflict  = errorJSON(1206)
	errorActionInFlight      = errorJSON(1207)

	errorFeedFetchInFlight = errorJSON(1300)
)

type ErrorResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

// errorJSON converts an error code to a standardized error object
func errorJSON(code int64) ErrorResponse {
	var message string
	if msg, ok := errorMessageMap[code]; ok {
		message = msg
	} else {
		message = "unknown"
	}

	return ErrorResponse{
		Code:    code,
		Message: message,
	}
}
