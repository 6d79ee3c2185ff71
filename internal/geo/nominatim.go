// Package geo turns map coordinates into a delivery address.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultNominatimURL is the public OpenStreetMap instance.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Place is a reverse-geocoding result.
type Place struct {
	DisplayName string  `json:"displayName"`
	Street      string  `json:"street"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Nominatim calls the reverse endpoint. The usage policy requires a
// meaningful User-Agent.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewNominatim(baseURL, userAgent string) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if userAgent == "" {
		userAgent = "qgsape/1.0"
	}
	return &Nominatim{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		Suburb      string `json:"suburb"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Country     string `json:"country"`
	} `json:"address"`
}

// Reverse resolves lat/lon to an address in French.
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Place{}, ErrInvalidCoordinates
	}
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("accept-language", "fr")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("reverse geocoding failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Place{}, fmt.Errorf("reverse geocoding failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var r nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Place{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if r.Error != "" {
		return Place{}, fmt.Errorf("reverse geocoding: %s", r.Error)
	}

	street := strings.TrimSpace(r.Address.HouseNumber + " " + r.Address.Road)
	if street == "" {
		street = r.Address.Suburb
	}
	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}
	return Place{
		DisplayName: r.DisplayName,
		Street:      street,
		City:        city,
		Country:     r.Address.Country,
		Latitude:    lat,
		Longitude:   lon,
	}, nil
}
