package gonogo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"

	"flight-check/internal/models"
	"flight-check/shared/upstream"
)

// AviationFetcher returns raw METAR/TAF text for the station nearest a coordinate
type AviationFetcher interface {
	FetchAviation(ctx context.Context, lat, lon float64) (*models.AviationReport, error)
}

// AviationClient handles interactions with the weather.gov API
type AviationClient struct {
	baseURL string
	client  *upstream.Client
}

type pointResponse struct {
	Properties struct {
		ObservationStations string `json:"observationStations"`
	} `json:"properties"`
}

type stationsResponse struct {
	ObservationStations []string `json:"observationStations"`
	Features            []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // lon, lat
		} `json:"geometry"`
	} `json:"features"`
}

type observationResponse struct {
	Properties struct {
		RawMessage string `json:"rawMessage"`
	} `json:"properties"`
}

type productListResponse struct {
	Graph []struct {
		ID string `json:"id"`
	} `json:"@graph"`
}

type productResponse struct {
	ProductText string `json:"productText"`
}

func NewAviationClient(baseURL string, client *upstream.Client) *AviationClient {
	return &AviationClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// FetchAviation resolves the nearest observation station and fetches its
// latest METAR and TAF. Failing to resolve a station is an error with no
// report. Once the station is known, METAR and TAF failures leave the text
// empty and are returned joined alongside the partial report.
func (a *AviationClient) FetchAviation(ctx context.Context, lat, lon float64) (*models.AviationReport, error) {
	var point pointResponse
	if err := a.client.GetJSON(ctx, fmt.Sprintf("%s/points/%.4f,%.4f", a.baseURL, lat, lon), &point); err != nil {
		return nil, fmt.Errorf("point lookup failed: %w", err)
	}
	if point.Properties.ObservationStations == "" {
		return nil, errors.New("point lookup returned no observation stations link")
	}

	var stations stationsResponse
	if err := a.client.GetJSON(ctx, point.Properties.ObservationStations, &stations); err != nil {
		return nil, fmt.Errorf("station lookup failed: %w", err)
	}

	report := &models.AviationReport{}
	if len(stations.ObservationStations) == 0 {
		return report, nil
	}

	stationURL := strings.TrimRight(stations.ObservationStations[0], "/")
	report.StationID = stationURL[strings.LastIndex(stationURL, "/")+1:]
	if len(stations.Features) > 0 && len(stations.Features[0].Geometry.Coordinates) >= 2 {
		c := stations.Features[0].Geometry.Coordinates
		report.StationDistance = calculateDistance(lat, lon, c[1], c[0])
	}

	logger := log.WithField("station", report.StationID)

	var errs []error
	metar, err := a.latestMETAR(ctx, report.StationID)
	if err != nil {
		logger.WithError(err).Warn("METAR unavailable")
		errs = append(errs, err)
	}
	report.METAR = metar

	taf, err := a.latestTAF(ctx, report.StationID)
	if err != nil {
		logger.WithError(err).Warn("TAF unavailable")
		errs = append(errs, err)
	}
	report.TAF = taf

	return report, errors.Join(errs...)
}

func (a *AviationClient) latestMETAR(ctx context.Context, stationID string) (string, error) {
	var obs observationResponse
	if err := a.client.GetJSON(ctx, fmt.Sprintf("%s/stations/%s/observations/latest", a.baseURL, stationID), &obs); err != nil {
		return "", fmt.Errorf("latest observation for %s: %w", stationID, err)
	}
	return strings.TrimSpace(obs.Properties.RawMessage), nil
}

// latestTAF follows the first entry of the station's TAF product list.
// A station with no TAF products is not an error.
func (a *AviationClient) latestTAF(ctx context.Context, stationID string) (string, error) {
	var list productListResponse
	if err := a.client.GetJSON(ctx, fmt.Sprintf("%s/products/types/TAF/locations/%s", a.baseURL, stationID), &list); err != nil {
		return "", fmt.Errorf("TAF product list for %s: %w", stationID, err)
	}
	if len(list.Graph) == 0 || list.Graph[0].ID == "" {
		return "", nil
	}

	var product productResponse
	if err := a.client.GetJSON(ctx, list.Graph[0].ID, &product); err != nil {
		return "", fmt.Errorf("TAF product for %s: %w", stationID, err)
	}
	return strings.TrimSpace(product.ProductText), nil
}

// calculateDistance calculates the great-circle distance between two coordinates in kilometres
func calculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
