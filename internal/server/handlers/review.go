package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/agentstation/featurereg/internal/filter"
	"github.com/agentstation/featurereg/internal/server/response"
	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/constants"
	pkgerrors "github.com/agentstation/featurereg/pkg/errors"
)

// ReviewRequest is the body of a single review action. It may be empty.
type ReviewRequest struct {
	Notes string `json:"notes"`
}

// BulkRequest is the body of a bulk review action. IDs and Filter are
// combined; Filter selects from the current analysis result.
type BulkRequest struct {
	IDs     []string        `json:"ids"`
	Filter  *filter.Options `json:"filter,omitempty"`
	Notes   string          `json:"notes"`
	Confirm string          `json:"confirm"`
}

// BulkResponse reports per-item outcomes of a bulk action.
type BulkResponse struct {
	Action    actions.Action       `json:"action"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Skipped   int                  `json:"skipped"`
	Items     []actions.ItemResult `json:"items"`
}

// HandleReview handles POST /api/v1/orphans/{id}/{action}.
// @Summary Review one orphan
// @Tags review
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param action path string true "archive, delete, keep or undo-keep"
// @Param X-Reviewer header string false "Acting reviewer"
// @Success 200 {object} response.Response{data=object}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 404 {object} response.Response{error=response.Error}
// @Failure 409 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/orphans/{id}/{action} [post].
func (h *Handlers) HandleReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	action, err := actions.ParseAction(r.PathValue("action"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req ReviewRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.client.Apply(r.Context(), action, id, req.Notes)
	if !isRejected(err) {
		h.invalidate(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := map[string]any{"id": id, "action": action}
	if res, ok := h.client.Last(); ok {
		if o, found := res.Orphan(id); found {
			data["orphan"] = o
		}
	}
	response.OK(w, data)
}

// HandleBulkReview handles POST /api/v1/orphans/bulk/{action}. Items are
// applied independently; the response lists every outcome.
// @Summary Review many orphans
// @Tags review
// @Accept json
// @Produce json
// @Param action path string true "archive, delete, keep or undo-keep"
// @Param X-Reviewer header string false "Acting reviewer"
// @Success 200 {object} response.Response{data=BulkResponse}
// @Failure 400 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/orphans/bulk/{action} [post].
func (h *Handlers) HandleBulkReview(w http.ResponseWriter, r *http.Request) {
	action, err := actions.ParseAction(r.PathValue("action"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req BulkRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ids := req.IDs
	if req.Filter != nil {
		f, err := filter.Parse(*req.Filter)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		res, err := h.current(r.Context(), true)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		ids = append(ids, f.IDs(res.Orphans)...)
	}
	if len(ids) > constants.MaxBulkItems {
		h.fail(w, r, pkgerrors.NewValidationError("ids", len(ids), "too many items in one request"))
		return
	}

	res, err := h.client.ApplyMany(r.Context(), action, ids, req.Notes, req.Confirm)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.invalidate(r.Context())

	response.OK(w, BulkResponse{
		Action:    res.Action,
		Succeeded: len(res.Succeeded()),
		Failed:    len(res.Failed()),
		Skipped:   len(res.Skipped()),
		Items:     res.Items,
	})
}

// decode reads an optional JSON body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, constants.MaxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return pkgerrors.NewValidationError("body", nil, "invalid JSON body: "+err.Error())
	}
	return nil
}

func isRejected(err error) bool {
	return pkgerrors.IsValidationError(err) && !pkgerrors.IsMutationError(err)
}
