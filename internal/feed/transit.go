package feed

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"transit-board-go/internal/departures"
)

// DefaultTransitURL is the Transport for NSW departure monitor endpoint.
const DefaultTransitURL = "https://api.transport.nsw.gov.au/v1/tp/departure_mon"

// TransitClient fetches departure-monitor documents for stops.
type TransitClient struct {
	client
	apiKey string
}

func NewTransitClient(opts Options) (*TransitClient, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, ErrAPIKeyMissing
	}
	return &TransitClient{
		client: newClient("transit", DefaultTransitURL, opts),
		apiKey: key,
	}, nil
}

// StopDocument fetches upcoming departures for one stop.
func (c *TransitClient) StopDocument(ctx context.Context, stopID string) (departures.Document, error) {
	stopID = strings.TrimSpace(stopID)
	if stopID == "" {
		return departures.Document{}, ErrStopIDMissing
	}
	header := http.Header{}
	header.Set("Authorization", "apikey "+c.apiKey)

	var doc departures.Document
	u := c.baseURL + "?" + departureQuery(stopID).Encode()
	if err := c.getJSON(ctx, u, header, &doc); err != nil {
		return departures.Document{}, err
	}
	return doc, nil
}

func departureQuery(stopID string) url.Values {
	q := url.Values{}
	q.Set("outputFormat", "rapidJSON")
	q.Set("coordOutputFormat", "EPSG:4326")
	q.Set("mode", "direct")
	q.Set("type_dm", "stop")
	q.Set("name_dm", stopID)
	q.Set("departureMonitorMacro", "true")
	q.Set("excludedMeans", "11")
	q.Set("TfNSWDM", "true")
	q.Set("version", "10.2.1.42")
	return q
}
