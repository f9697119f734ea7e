package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hel3-14t/helpmate-api/schema"
)

// accountRegister is the API for register a new account
func (s *Server) accountRegister(c *gin.Context) {
	logger := log.WithField("api", "accountRegister")
	accountNumber := c.GetString("requester")

	var params struct {
		Name         string `json:"name"`
		MobileNumber string `json:"mobile_number"`
	}

	if err := c.BindJSON(&params); err != nil {
		logger.WithError(err).Error(errorInvalidParameters.Message)
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters)
		return
	}

	a, err := s.store.CreateAccount(accountNumber, params.Name, params.MobileNumber)
	if err != nil {
		abortWithEncoding(c, http.StatusForbidden, errorAccountTaken)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": a,
	})
}

// accountDetail is the API to query an account
func (s *Server) accountDetail(c *gin.Context) {
	a := c.MustGet("account")
	account, ok := a.(*schema.Account)
	if !ok {
		abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": account,
	})
}
