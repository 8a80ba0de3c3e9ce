package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reelmap/locations-cli/internal/city"
	"github.com/reelmap/locations-cli/internal/geo"
	"github.com/reelmap/locations-cli/internal/model"
	"github.com/reelmap/locations-cli/internal/store"
	"github.com/reelmap/locations-cli/pkg/geocode"
)

type handler struct {
	store    store.Store
	geocoder geocode.Client
	bbox     city.BoundingBox
	titler   cases.Caser
}

func newHandler(st store.Store, gc geocode.Client, bbox city.BoundingBox) *handler {
	return &handler{
		store:    st,
		geocoder: gc,
		bbox:     bbox,
		titler:   cases.Title(language.English),
	}
}

// Locations returns the published rows, optionally filtered by release
// decade and neighborhood.
func (h *handler) Locations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ResolvedRows(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load locations", err)
		return
	}

	q := r.URL.Query()
	if v := q.Get("decade"); v != "" {
		decade, convErr := strconv.Atoi(v)
		if convErr != nil {
			respondWithError(w, http.StatusBadRequest, "decade must be an integer", nil)
			return
		}
		rows = filterRows(rows, func(r model.ResolvedRow) bool {
			return r.ReleaseDecade != nil && *r.ReleaseDecade == decade
		})
	}
	if v := q.Get("nhood"); v != "" {
		rows = filterRows(rows, func(r model.ResolvedRow) bool { return r.Neighborhood == v })
	}

	if rows == nil {
		rows = []model.ResolvedRow{}
	}
	respondWithJSON(w, http.StatusOK, rows)
}

func filterRows(rows []model.ResolvedRow, keep func(model.ResolvedRow) bool) []model.ResolvedRow {
	out := make([]model.ResolvedRow, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Geocode resolves a free-text address and rejects results outside the
// city bounding box.
func (h *handler) Geocode(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "q is required", nil)
		return
	}

	result, err := h.geocoder.Geocode(r.Context(), query)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "geocoding failed", err)
		return
	}
	if !result.Matched {
		respondWithError(w, http.StatusNotFound, "address not found", nil)
		return
	}
	if !h.bbox.Contains(result.Latitude, result.Longitude) {
		respondWithError(w, http.StatusUnprocessableEntity, "address is outside of San Francisco", nil)
		return
	}

	respondWithJSON(w, http.StatusOK, geocodeResponse{
		Latitude:    result.Latitude,
		Longitude:   result.Longitude,
		DisplayName: result.DisplayName,
	})
}

// Nearby returns the n film locations closest to a point.
func (h *handler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "lat must be a number", nil)
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "lon must be a number", nil)
		return
	}

	n := 0
	if v := q.Get("n"); v != "" {
		n, err = strconv.Atoi(v)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "n must be a positive integer", nil)
			return
		}
	}

	rows, err := h.store.ResolvedRows(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load locations", err)
		return
	}

	nearest := geo.Nearest(rows, lat, lon, n)
	out := make([]nearbyPlace, 0, len(nearest))
	for _, nb := range nearest {
		out = append(out, nearbyPlace{
			Title:          nb.Row.Title,
			Address:        h.titler.String(nb.Row.ResolvedAddress),
			ReleaseYear:    nb.Row.ReleaseYear,
			Latitude:       *nb.Row.Latitude,
			Longitude:      *nb.Row.Longitude,
			DistanceMeters: int(math.Round(nb.Meters)),
		})
	}
	respondWithJSON(w, http.StatusOK, out)
}

type geocodeResponse struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name,omitempty"`
}

type nearbyPlace struct {
	Title          string  `json:"title"`
	Address        string  `json:"address"`
	ReleaseYear    *int    `json:"release_year,omitempty"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	DistanceMeters int     `json:"distance_meters"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil && code >= 500 {
		zap.L().Error("http error",
			zap.Int("status", code),
			zap.String("message", message),
			zap.Error(err),
		)
	}
	respondWithJSON(w, code, map[string]string{"error": message})
}
