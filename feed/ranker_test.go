package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hel3-14t/helpmate-api/schema"
)

func helpRequestAt(id string, lat, lon float64, status string) schema.HelpRequest {
	return schema.HelpRequest{
		ID:        id,
		Latitude:  lat,
		Longitude: lon,
		Status:    status,
	}
}

func TestRankSortsByDistance(t *testing.T) {
	viewer := &schema.Location{Latitude: 0, Longitude: 0}
	requests := []schema.HelpRequest{
		helpRequestAt("far", 0, 1, schema.HELP_REQUESTED),
		helpRequestAt("here", 0, 0, schema.HELP_REQUESTED),
	}

	ranked := Rank(viewer, requests)

	assert.Len(t, ranked, 2)
	assert.Equal(t, "here", ranked[0].ID)
	assert.Equal(t, "far", ranked[1].ID)
	assert.Equal(t, float64(0), ranked[0].DistanceKm)
	assert.InDelta(t, 111.19, ranked[1].DistanceKm, 0.1)
	assert.Equal(t, viewer.Latitude, ranked[1].ViewerLatitude)
	assert.Equal(t, viewer.Longitude, ranked[1].ViewerLongitude)
}

func TestRankFiltersToOpenRequests(t *testing.T) {
	viewer := &schema.Location{Latitude: 0, Longitude: 0}
	requests := []schema.HelpRequest{
		helpRequestAt("open", 0, 1, schema.HELP_REQUESTED),
		helpRequestAt("filled", 0, 0, schema.HELP_FILLED),
		helpRequestAt("cancelled", 0, 0, schema.HELP_CANCELLED),
	}

	ranked := Rank(viewer, requests)

	assert.Len(t, ranked, 1)
	assert.Equal(t, "open", ranked[0].ID)
}

func TestRankStableOnEqualDistance(t *testing.T) {
	viewer := &schema.Location{Latitude: 0, Longitude: 0}
	requests := []schema.HelpRequest{
		helpRequestAt("first", 0, 1, schema.HELP_REQUESTED),
		helpRequestAt("second", 0, 1, schema.HELP_REQUESTED),
		helpRequestAt("third", 0, -1, schema.HELP_REQUESTED),
	}

	ranked := Rank(viewer, requests)

	assert.Len(t, ranked, 3)
	assert.Equal(t, "first", ranked[0].ID)
	assert.Equal(t, "second", ranked[1].ID)
	assert.Equal(t, "third", ranked[2].ID)
}

func TestRankWithoutLocationFix(t *testing.T) {
	requests := []schema.HelpRequest{
		helpRequestAt("b", 0, 1, schema.HELP_REQUESTED),
		helpRequestAt("a", 0, 0, schema.HELP_FILLED),
	}

	ranked := Rank(nil, requests)

	// no location fix: original order, nothing filtered, nothing ranked
	assert.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].ID)
	assert.Equal(t, "a", ranked[1].ID)
	assert.Equal(t, float64(0), ranked[0].DistanceKm)
}

func TestRankIsPure(t *testing.T) {
	viewer := &schema.Location{Latitude: 0, Longitude: 0}
	requests := []schema.HelpRequest{
		helpRequestAt("far", 0, 2, schema.HELP_REQUESTED),
		helpRequestAt("near", 0, 1, schema.HELP_REQUESTED),
	}

	first := Rank(viewer, requests)
	second := Rank(viewer, requests)

	assert.Equal(t, first, second)
	// the input batch keeps its original order
	assert.Equal(t, "far", requests[0].ID)
	assert.Equal(t, "near", requests[1].ID)
}
