package panel

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"transit-board-go/internal/feed"
	"transit-board-go/internal/icons"
	"transit-board-go/internal/layout"
	"transit-board-go/internal/render"
)

const (
	weatherIconSize  = 32
	weatherMargin    = 8
	weatherLineStep  = 30
	weatherFirstLine = 20
)

// WeatherSource returns current conditions.
type WeatherSource interface {
	Current(ctx context.Context) (feed.Weather, error)
}

// WeatherPanel shows current conditions and the next sunrise.
type WeatherPanel struct {
	src   WeatherSource
	loc   *time.Location
	faces render.Faces
	icons *icons.Set

	current feed.Weather
	fetched bool
}

func NewWeatherPanel(src WeatherSource, faces render.Faces, set *icons.Set, loc *time.Location) *WeatherPanel {
	if loc == nil {
		loc = time.UTC
	}
	return &WeatherPanel{src: src, loc: loc, faces: faces, icons: set}
}

func (wp *WeatherPanel) Name() string { return "weather" }

func (wp *WeatherPanel) Fetch(ctx context.Context) error {
	w, err := wp.src.Current(ctx)
	if err != nil {
		return fmt.Errorf("weather: %w", err)
	}
	wp.current, wp.fetched = w, true
	return nil
}

func (wp *WeatherPanel) Render(s render.Surface, box image.Rectangle, f Frame) {
	if !wp.fetched {
		return
	}
	w := wp.current
	body, heading := wp.faces.Body, wp.faces.Heading

	l := box.Min.X + weatherMargin
	r := box.Max.X - weatherMargin
	s.Blit(wp.icons.Get(WeatherIcon(w.Icon), weatherIconSize), image.Pt(r-weatherIconSize, box.Min.Y+4), render.Black)
	textRight := r - weatherIconSize - weatherMargin

	y := box.Min.Y + weatherFirstLine
	s.DrawText(heading.Face, l, y, render.Truncate(heading, w.City, textRight-l), render.Black)

	y += weatherLineStep
	temp := fmt.Sprintf("%.1f°C", w.Temp)
	tw := render.DrawAligned(s, heading, l, y, temp, layout.AlignStart, render.Black)
	feels := fmt.Sprintf("feels %.1f°C", w.FeelsLike)
	s.DrawText(body.Face, l+tw+weatherMargin, y, render.Truncate(body, feels, textRight-l-tw-weatherMargin), render.Black)

	y += weatherLineStep
	n := render.DrawWrapped(s, body, l, y, capitalize(w.Description), layout.AlignStart, r-l, 2, body.Height(), render.Black)
	if n > 1 {
		y += body.Height() * (n - 1)
	}

	y += weatherLineStep
	s.DrawText(body.Face, l, y, fmt.Sprintf("Humidity: %d%%", w.Humidity), render.Black)

	if w.HasCoord {
		if sr, err := NextSunrise(f.Now, w.Lat, w.Lon, wp.loc); err == nil {
			render.DrawAligned(s, body, r, y, "Sunrise "+sr.Format(clockLayout), layout.AlignEnd, render.Black)
		}
	}
}

// WeatherIcon maps an OpenWeatherMap icon code such as "10n" to an icon name.
func WeatherIcon(code string) string {
	if len(code) < 2 {
		return "cloudy"
	}
	switch code[:2] {
	case "01":
		if strings.HasSuffix(code, "n") {
			return "clear_sky"
		}
		return "sunny"
	case "02":
		return "few_clouds"
	case "03":
		return "partly_cloudy"
	case "04":
		return "cloudy"
	case "09":
		return "heavy_rain"
	case "10":
		return "rain"
	case "11":
		return "thunderstorm"
	case "13":
		return "snow"
	case "50":
		return "mist"
	default:
		return "cloudy"
	}
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
