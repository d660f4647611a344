package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/agentstation/featurereg/internal/filter"
	"github.com/agentstation/featurereg/internal/server/response"
	"github.com/agentstation/featurereg/pkg/analysis"
	"github.com/agentstation/featurereg/pkg/export"
	"github.com/agentstation/featurereg/pkg/logging"
)

// sections maps /analysis/{section} names to result projections.
var sections = map[string]func(*analysis.Result) any{
	"stats":               func(r *analysis.Result) any { return r.Stats },
	"duplicates":          func(r *analysis.Result) any { return r.Duplicates },
	"route-conflicts":     func(r *analysis.Result) any { return r.RouteConflicts },
	"prefixed-variants":   func(r *analysis.Result) any { return r.PrefixedVariants },
	"migration-batches":   func(r *analysis.Result) any { return r.MigrationBatches },
	"registry-candidates": func(r *analysis.Result) any { return r.RegistryCandidates },
}

// HandleAnalysis handles GET /api/v1/analysis.
// @Summary Full reconciliation result
// @Tags analysis
// @Produce json
// @Param refresh query boolean false "Run a new pass instead of returning the last one"
// @Success 200 {object} response.Response{data=analysis.Result}
// @Failure 503 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/analysis [get].
func (h *Handlers) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, func() (any, error) {
		return h.current(r.Context(), r.URL.Query().Has("refresh"))
	})
}

// HandleAnalysisSection handles GET /api/v1/analysis/{section}.
// @Summary One part of the reconciliation result
// @Tags analysis
// @Produce json
// @Param section path string true "stats, duplicates, route-conflicts, prefixed-variants, migration-batches or registry-candidates"
// @Success 200 {object} response.Response{data=object}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/analysis/{section} [get].
func (h *Handlers) HandleAnalysisSection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("section")
	project, ok := sections[name]
	if !ok {
		response.NotFound(w, "Unknown analysis section", name)
		return
	}
	h.cached(w, r, func() (any, error) {
		res, err := h.current(r.Context(), r.URL.Query().Has("refresh"))
		if err != nil {
			return nil, err
		}
		return project(res), nil
	})
}

// HandleListOrphans handles GET /api/v1/orphans.
// @Summary List orphaned feature records
// @Tags orphans
// @Produce json
// @Param recommendation query string false "Comma separated recommendations"
// @Param status query string false "Comma separated review statuses"
// @Param source query string false "Comma separated sources"
// @Param module query string false "Comma separated module codes"
// @Param cluster query string false "duplicate, route, variant, batch or none"
// @Param q query string false "Glob or regex over code, name and route"
// @Param match query string false "auto, glob or regex"
// @Success 200 {object} response.Response{data=object}
// @Failure 400 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/orphans [get].
func (h *Handlers) HandleListOrphans(w http.ResponseWriter, r *http.Request) {
	f, err := filter.FromQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.cached(w, r, func() (any, error) {
		res, err := h.current(r.Context(), r.URL.Query().Has("refresh"))
		if err != nil {
			return nil, err
		}
		orphans := f.Apply(res.Orphans)
		return map[string]any{
			"orphans": orphans,
			"count":   len(orphans),
			"total":   len(res.Orphans),
		}, nil
	})
}

// HandleGetOrphan handles GET /api/v1/orphans/{id}.
// @Summary One orphaned feature record
// @Tags orphans
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Response{data=features.OrphanEntry}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/orphans/{id} [get].
func (h *Handlers) HandleGetOrphan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := h.current(r.Context(), false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	o, ok := res.Orphan(id)
	if !ok {
		response.NotFound(w, "Orphan not found", id)
		return
	}
	response.OK(w, o)
}

// HandleExportCSV handles GET /api/v1/export.csv. It always runs a fresh
// pass and accepts the same filters as the orphan list.
// @Summary Export orphans as CSV
// @Tags orphans
// @Produce text/csv
// @Param escape query boolean false "Prefix formula-like cells with a quote"
// @Success 200 {file} file
// @Failure 400 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/export.csv [get].
func (h *Handlers) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	f, err := filter.FromQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var opts []export.Option
	if r.URL.Query().Has("escape") {
		opts = append(opts, export.WithFormulaEscaping())
	}

	var buf bytes.Buffer
	if err := h.client.ExportCSV(r.Context(), &buf, f.Keep, opts...); err != nil {
		h.fail(w, r, err)
		return
	}

	name := fmt.Sprintf("orphans-%s.csv", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn().Err(err).Msg("CSV export interrupted")
	}
}
