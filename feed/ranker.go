package feed

import (
	"sort"

	"github.com/hel3-14t/helpmate-api/geo"
	"github.com/hel3-14t/helpmate-api/schema"
)

// RankedHelpRequest is a read-only projection of a help request annotated
// with the distance from the viewer. It is used for display ordering only
// and is never persisted.
type RankedHelpRequest struct {
	schema.HelpRequest
	ViewerLatitude  float64 `json:"viewer_latitude"`
	ViewerLongitude float64 `json:"viewer_longitude"`
	DistanceKm      float64 `json:"distance_km"`
}

// Rank orders a batch of help requests by distance from the viewer.
//
// Ranking is a best-effort enhancement: when the viewer has no location fix
// yet, the input is returned unranked in its original order. Otherwise only
// open (REQUESTED) entries are kept, sorted ascending by distance with ties
// broken by original relative order.
func Rank(viewer *schema.Location, requests []schema.HelpRequest) []RankedHelpRequest {
	ranked := make([]RankedHelpRequest, 0, len(requests))

	if viewer == nil {
		for _, r := range requests {
			ranked = append(ranked, RankedHelpRequest{HelpRequest: r})
		}
		return ranked
	}

	for _, r := range requests {
		if r.Status != schema.HELP_REQUESTED {
			continue
		}
		ranked = append(ranked, RankedHelpRequest{
			HelpRequest:     r,
			ViewerLatitude:  viewer.Latitude,
			ViewerLongitude: viewer.Longitude,
			DistanceKm:      geo.DistanceKm(viewer.Latitude, viewer.Longitude, r.Latitude, r.Longitude),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	return ranked
}
