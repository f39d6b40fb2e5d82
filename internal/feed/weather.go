package feed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultWeatherURL is the OpenWeatherMap current-conditions endpoint.
const DefaultWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// ErrCityMissing indicates the weather client has no location to query.
var ErrCityMissing = errors.New("feed: weather city is required")

// Weather is the current conditions for the configured city.
type Weather struct {
	City        string
	Temp        float64
	FeelsLike   float64
	Humidity    int
	Description string
	// Icon is the OpenWeatherMap icon code, e.g. "10d".
	Icon     string
	Lat, Lon float64
	HasCoord bool
}

type weatherResponse struct {
	Name  string `json:"name"`
	Coord *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

// WeatherClient fetches current conditions in metric units.
type WeatherClient struct {
	client
	apiKey string
	city   string
}

func NewWeatherClient(opts Options, city string) (*WeatherClient, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, ErrAPIKeyMissing
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, ErrCityMissing
	}
	return &WeatherClient{
		client: newClient("weather", DefaultWeatherURL, opts),
		apiKey: key,
		city:   city,
	}, nil
}

func (c *WeatherClient) Current(ctx context.Context) (Weather, error) {
	q := url.Values{}
	q.Set("q", c.city)
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	var resp weatherResponse
	if err := c.getJSON(ctx, c.baseURL+"?"+q.Encode(), nil, &resp); err != nil {
		return Weather{}, err
	}
	if resp.Main == nil {
		return Weather{}, fmt.Errorf("%w: weather response has no main block", ErrParse)
	}

	w := Weather{
		City:      resp.Name,
		Temp:      resp.Main.Temp,
		FeelsLike: resp.Main.FeelsLike,
		Humidity:  resp.Main.Humidity,
	}
	if w.City == "" {
		w.City = c.city
	}
	if len(resp.Weather) > 0 {
		w.Description = resp.Weather[0].Description
		w.Icon = resp.Weather[0].Icon
	}
	if resp.Coord != nil {
		w.Lat, w.Lon, w.HasCoord = resp.Coord.Lat, resp.Coord.Lon, true
	}
	return w, nil
}
