package geo

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"github.com/hel3-14t/helpmate-api/schema"
)

var (
	ErrNoGeoInfoFound         = fmt.Errorf("no geo information found")
	ErrResolverNotInitialized = fmt.Errorf("location resolver is not initialized")
)

// LocationResolver - interface for resolving a human readable address of
// a coordinate pair. Resolution is best-effort; a failed lookup never
// blocks the creation of a help request.
type LocationResolver interface {
	GetAddress(schema.Location) (string, error)
}

var defaultResolver LocationResolver

type GeocodingLocationResolver struct {
	client *maps.Client
}

func NewGeocodingLocationResolver(client *maps.Client) *GeocodingLocationResolver {
	return &GeocodingLocationResolver{
		client: client,
	}
}

func (g *GeocodingLocationResolver) GetAddress(loc schema.Location) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	geos, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{
			Lat: loc.Latitude,
			Lng: loc.Longitude,
		},
		Language: "en",
	})
	if nil != err {
		return "", err
	}

	if len(geos) == 0 {
		return "", ErrNoGeoInfoFound
	}

	return geos[0].FormattedAddress, nil
}

func SetLocationResolver(resolver LocationResolver) {
	defaultResolver = resolver
}

// ResolveAddress resolves an address with the process-wide resolver.
func ResolveAddress(loc schema.Location) (string, error) {
	if defaultResolver == nil {
		return "", ErrResolverNotInitialized
	}

	return defaultResolver.GetAddress(loc)
}
