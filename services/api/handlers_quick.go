package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"farmquick/services/quick"
)

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (a *API) handleListForms(w http.ResponseWriter, _ *http.Request) {
	defs := make([]quick.Definition, 0, len(a.order))
	for _, id := range a.order {
		defs = append(defs, a.forms[id].Definition())
	}
	respondJSON(w, http.StatusOK, map[string]any{"forms": defs})
}

func (a *API) handleRenderForm(w http.ResponseWriter, r *http.Request) {
	form, ok := a.lookupForm(w, r)
	if !ok {
		return
	}
	rc, err := a.renderContext(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	schema, err := form.Render(ctx, rc)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, schema)
}

func (a *API) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	form, ok := a.lookupForm(w, r)
	if !ok {
		return
	}
	id := form.Definition().ID

	rc, err := a.renderContext(r)
	if err != nil {
		a.metrics.submissions.WithLabelValues(id, outcomeInvalid).Inc()
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var values quick.Values
	if err := decodeJSON(r, &values); err != nil {
		a.metrics.submissions.WithLabelValues(id, outcomeInvalid).Inc()
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	rec, err := form.Submit(ctx, values, rc)
	var verr *quick.ValidationError
	switch {
	case errors.As(err, &verr):
		a.metrics.submissions.WithLabelValues(id, outcomeInvalid).Inc()
		fields := make([]fieldErrorResponse, 0, len(verr.Fields()))
		for _, fe := range verr.Fields() {
			fields = append(fields, fieldErrorResponse{Field: fe.Field, Message: fe.Message})
		}
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  verr.Error(),
			"fields": fields,
		})
	case err != nil:
		a.metrics.submissions.WithLabelValues(id, outcomeError).Inc()
		respondError(w, statusFor(err), err)
	default:
		a.metrics.submissions.WithLabelValues(id, outcomeCreated).Inc()
		if rec.Type == quick.LogTypeHarvest {
			for _, q := range rec.Quantity {
				if q.Units == quick.UnitsEggs {
					a.metrics.eggs.Add(q.Value)
				}
			}
		}
		respondJSON(w, http.StatusCreated, map[string]any{"log": rec})
	}
}

func (a *API) lookupForm(w http.ResponseWriter, r *http.Request) (Form, bool) {
	id := chi.URLParam(r, "form")
	form, ok := a.forms[id]
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Errorf("quick form %q not found", id))
		return nil, false
	}
	return form, true
}

// renderContext resolves the acting user's timezone from the tz query
// parameter, falling back to the configured default.
func (a *API) renderContext(r *http.Request) (quick.RenderContext, error) {
	rc := quick.RenderContext{Now: time.Now(), Location: a.config.DefaultLocation}
	if tz := strings.TrimSpace(r.URL.Query().Get("tz")); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return quick.RenderContext{}, fmt.Errorf("unknown timezone %q", tz)
		}
		rc.Location = loc
	}
	return rc, nil
}
