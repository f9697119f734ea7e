package api

import (
	"net/http"
	"strings"

	"github.com/RichardKnop/machinery/v1/tasks"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/hel3-14t/helpmate-api/coordinator"
	"github.com/hel3-14t/helpmate-api/geo"
	"github.com/hel3-14t/helpmate-api/lifecycle"
	"github.com/hel3-14t/helpmate-api/schema"
	"github.com/hel3-14t/helpmate-api/store"
)

const (
	// helpDescriptionWordLimit caps how long a help description can be
	helpDescriptionWordLimit = 100

	// helperCountMin and helperCountMax bound how many volunteers a
	// request can ask for
	helperCountMin = 1
	helperCountMax = 6

	// acceptedHelperXP is credited to a volunteer when accepted
	acceptedHelperXP = 10
)

// askForHelp is the API for asking help from nearby volunteers
func (s *Server) askForHelp(c *gin.Context) {
	account := c.MustGet("account").(*schema.Account)

	var params struct {
		Description         string  `json:"description"`
		Latitude            float64 `json:"latitude"`
		Longitude           float64 `json:"longitude"`
		RequiredHelperCount int     `json:"required_helper_count"`
	}

	if err := c.BindJSON(&params); err != nil {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters, err)
		return
	}

	if strings.TrimSpace(params.Description) == "" ||
		len(strings.Fields(params.Description)) > helpDescriptionWordLimit {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters)
		return
	}

	if params.RequiredHelperCount < helperCountMin || params.RequiredHelperCount > helperCountMax {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters)
		return
	}

	loc := schema.Location{
		Latitude:  params.Latitude,
		Longitude: params.Longitude,
	}

	// the address is decoration only, the request goes out either way
	address, err := geo.ResolveAddress(loc)
	if err != nil {
		c.Error(err)
	}

	help, err := s.store.CreateHelpRequest(c.Request.Context(), store.HelpRequestParams{
		Creator:             account.AccountNumber,
		CreatorName:         account.Name,
		MobileNumber:        account.MobileNumber,
		Latitude:            params.Latitude,
		Longitude:           params.Longitude,
		Address:             address,
		Description:         params.Description,
		RequiredHelperCount: params.RequiredHelperCount,
	})
	if err != nil {
		abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer, err)
		return
	}

	s.broadcastNewHelp(c, help)

	c.JSON(http.StatusOK, gin.H{"result": help})
}

// broadcastNewHelp enqueues a notification job for volunteers around a
// freshly created help request
func (s *Server) broadcastNewHelp(c *gin.Context, help *schema.HelpRequest) {
	radius := viper.GetInt("help.broadcast_radius")
	if radius == 0 {
		radius = 5000
	}

	nearby, err := s.store.NearbyAccounts(radius, schema.Location{
		Latitude:  help.Latitude,
		Longitude: help.Longitude,
	})
	if err != nil {
		c.Error(err)
		return
	}

	accountNumbers := make([]string, 0, len(nearby))
	for _, a := range nearby {
		if a != help.Creator {
			accountNumbers = append(accountNumbers, a)
		}
	}

	if _, err := s.background.SendTask(&tasks.Signature{
		Name: "broadcast_help",
		Args: []tasks.Arg{
			{Type: "string", Value: help.ID},
			{Type: "[]string", Value: accountNumbers},
		},
	}); err != nil {
		c.Error(err)
	}
}

// getHelp is the API for fetching a single help request
func (s *Server) getHelp(c *gin.Context) {
	help, err := s.store.GetHelp(c.Request.Context(), c.Param("helpID"))
	if err != nil {
		if err == store.ErrHelpRequestNotFound {
			abortWithEncoding(c, http.StatusNotFound, errorHelpRequestNotFound, err)
		} else {
			abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": help})
}

// answerHelp is the API for responding to a help request. A volunteer joins
// a request. The creator accepts or rejects a volunteer who joined.
func (s *Server) answerHelp(c *gin.Context) {
	requester := c.GetString("requester")
	account := c.MustGet("account").(*schema.Account)
	helpID := c.Param("helpID")

	var params struct {
		Action string `json:"action"`
		Helper string `json:"helper"`
	}

	if err := c.BindJSON(&params); err != nil {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters, err)
		return
	}

	help, err := s.store.GetHelp(c.Request.Context(), helpID)
	if err != nil {
		if err == store.ErrHelpRequestNotFound {
			abortWithEncoding(c, http.StatusNotFound, errorHelpRequestNotFound, err)
		} else {
			abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer, err)
		}
		return
	}

	var updated *schema.HelpRequest

	switch params.Action {
	case "join":
		if requester == help.Creator {
			abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters)
			return
		}
		updated, err = s.coordinator.Join(c.Request.Context(), help, account.Summary())
	case "accept", "reject":
		if requester != help.Creator {
			abortWithEncoding(c, http.StatusForbidden, errorInvalidParameters)
			return
		}

		helperAccount, accErr := s.store.GetAccount(params.Helper)
		if accErr != nil {
			abortWithEncoding(c, http.StatusBadRequest, errorAccountNotFound, accErr)
			return
		}

		if params.Action == "accept" {
			updated, err = s.coordinator.Accept(c.Request.Context(), help, helperAccount.Summary())
		} else {
			updated, err = s.coordinator.Reject(c.Request.Context(), help, helperAccount.Summary())
		}
	default:
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters)
		return
	}

	if err != nil {
		s.abortWithLifecycleError(c, err)
		return
	}

	if params.Action == "accept" {
		s.notifyHelpAccepted(c, helpID, params.Helper)
	}

	// the acting user sees the outcome in their feed right away
	s.feedFor(requester).Reconcile(*updated)

	c.JSON(http.StatusOK, gin.H{"result": updated})
}

// notifyHelpAccepted credits the volunteer and enqueues the acceptance
// notification
func (s *Server) notifyHelpAccepted(c *gin.Context, helpID, helper string) {
	if err := s.store.AddXP(helper, acceptedHelperXP); err != nil {
		c.Error(err)
	}

	if _, err := s.background.SendTask(&tasks.Signature{
		Name: "notify_help_accepted",
		Args: []tasks.Arg{
			{Type: "string", Value: helpID},
			{Type: "string", Value: helper},
		},
	}); err != nil {
		c.Error(err)
	}
}

// cancelHelp is the API for the creator to withdraw an open help request
func (s *Server) cancelHelp(c *gin.Context) {
	requester := c.GetString("requester")
	helpID := c.Param("helpID")

	if err := s.store.CancelHelp(c.Request.Context(), helpID, requester); err != nil {
		switch err {
		case store.ErrHelpRequestNotFound:
			abortWithEncoding(c, http.StatusNotFound, errorHelpRequestNotFound, err)
		case store.ErrHelpRequestClosed:
			abortWithEncoding(c, http.StatusConflict, errorHelpRequestClosed, err)
		default:
			abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer, err)
		}
		return
	}

	s.feedFor(requester).Remove(helpID)

	c.JSON(http.StatusOK, gin.H{"result": "OK"})
}

// abortWithLifecycleError maps lifecycle and store refusals onto api errors
func (s *Server) abortWithLifecycleError(c *gin.Context, err error) {
	switch err {
	case lifecycle.ErrAlreadyFilled:
		abortWithEncoding(c, http.StatusConflict, errorHelpAlreadyFilled, err)
	case lifecycle.ErrAlreadyRequested:
		abortWithEncoding(c, http.StatusConflict, errorAlreadyRequested, err)
	case lifecycle.ErrAlreadyAccepted:
		abortWithEncoding(c, http.StatusConflict, errorAlreadyAccepted, err)
	case lifecycle.ErrAlreadyRejected:
		abortWithEncoding(c, http.StatusConflict, errorAlreadyRejected, err)
	case coordinator.ErrActionInFlight:
		abortWithEncoding(c, http.StatusTooManyRequests, errorActionInFlight, err)
	case store.ErrHelpRequestNotFound:
		abortWithEncoding(c, http.StatusNotFound, errorHelpRequestNotFound, err)
	case store.ErrHelpRequestClosed:
		abortWithEncoding(c, http.StatusConflict, errorHelpRequestClosed, err)
	case store.ErrMembershipConflict:
		abortWithEncoding(c, http.StatusConflict, errorMembershipConflict, err)
	default:
		abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer, err)
	}
}

// metricHelpRequests reports help request counts by status
func (s *Server) metricHelpRequests(c *gin.Context) {
	metrics, err := s.store.HelpMetrics(c.Request.Context())
	if shouldInterupt(err, c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": metrics})
}
