package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"farmquick/services/farm"
)

func (a *API) handleListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter farm.AssetFilter

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		filter.Status = &v
	}
	if v := strings.TrimSpace(q.Get("produces_eggs")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, errors.New("produces_eggs must be a boolean"))
			return
		}
		filter.ProducesEggs = &b
	}
	if v := strings.TrimSpace(q.Get("location")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, errors.New("valid location is required"))
			return
		}
		filter.Location = &id
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		filter.Limit = n
	}

	assets, err := a.store.ListAssets(r.Context(), filter)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

func (a *API) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req farm.NewAsset
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	asset, err := a.store.CreateAsset(r.Context(), req)
	if err != nil {
		respondError(w, storeStatus(err), err)
		return
	}
	if a.config.AssetsChanged != nil {
		a.config.AssetsChanged()
	}
	respondJSON(w, http.StatusCreated, map[string]any{"asset": asset})
}

func (a *API) handleRecordMovement(w http.ResponseWriter, r *http.Request) {
	var req farm.Movement
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	logEntry, err := a.store.RecordMovement(r.Context(), req)
	if err != nil {
		respondError(w, storeStatus(err), err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"log": logEntry})
}

func storeStatus(err error) int {
	switch {
	case errors.Is(err, farm.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, farm.ErrNotFound):
		return http.StatusNotFound
	default:
		return statusFor(err)
	}
}
