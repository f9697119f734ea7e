package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hel3-14t/helpmate-api/feed"
	"github.com/hel3-14t/helpmate-api/schema"
)

// feedFor returns the feed working set of an account, creating it on the
// first access
func (s *Server) feedFor(accountNumber string) *feed.Paginator {
	s.feedsMu.Lock()
	defer s.feedsMu.Unlock()

	p, ok := s.feeds[accountNumber]
	if !ok {
		p = feed.NewPaginator(s.store)
		s.feeds[accountNumber] = p
	}
	return p
}

// viewerLocation picks the viewer position out of the Geo-Position header.
// Without a position the feed is served unranked.
func viewerLocation(c *gin.Context) *schema.Location {
	gp := c.GetHeader("Geo-Position")
	if gp == "" {
		return nil
	}

	lat, long, err := parseGeoPosition(gp)
	if err != nil {
		return nil
	}

	return &schema.Location{Latitude: lat, Longitude: long}
}

// currentFeed is the API for reading the ranked feed working set
func (s *Server) currentFeed(c *gin.Context) {
	requester := c.GetString("requester")
	p := s.feedFor(requester)

	c.JSON(http.StatusOK, gin.H{
		"result":  p.Ranked(viewerLocation(c)),
		"loading": p.Loading(),
	})
}

// refreshFeed is the API for reloading the feed from the first page
func (s *Server) refreshFeed(c *gin.Context) {
	requester := c.GetString("requester")
	p := s.feedFor(requester)

	if _, err := p.LoadInitial(c.Request.Context()); err != nil {
		s.abortWithFeedError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": p.Ranked(viewerLocation(c)),
	})
}

// extendFeed is the API for appending the next feed page
func (s *Server) extendFeed(c *gin.Context) {
	requester := c.GetString("requester")
	p := s.feedFor(requester)

	if _, err := p.LoadMore(c.Request.Context()); err != nil {
		s.abortWithFeedError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": p.Ranked(viewerLocation(c)),
	})
}

// dismissFromFeed is the API for hiding a request from the viewer's feed.
// The request itself stays untouched for everyone else.
func (s *Server) dismissFromFeed(c *gin.Context) {
	requester := c.GetString("requester")
	s.feedFor(requester).Remove(c.Param("helpID"))

	c.JSON(http.StatusOK, gin.H{"result": "OK"})
}

func (s *Server) abortWithFeedError(c *gin.Context, err error) {
	switch err {
	case feed.ErrFetchInFlight:
		abortWithEncoding(c, http.StatusTooManyRequests, errorFeedFetchInFlight, err)
	case feed.ErrStaleFetch:
		// the working set was reset mid flight, nothing to surface
		c.JSON(http.StatusOK, gin.H{"result": []feed.RankedHelpRequest{}})
	default:
		abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer, err)
	}
}
