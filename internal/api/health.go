// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/yomira-shelf/internal/platform/respond"
)

// readinessTimeout bounds each dependency probe.
const readinessTimeout = 3 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthDependencies lists what /ready probes. Nil checks are skipped.
type HealthDependencies struct {
	CheckDatabase HealthCheck
	CheckCache    HealthCheck
	CheckStorage  HealthCheck
}

type probeResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type readinessReport struct {
	Status string        `json:"status"`
	Checks []probeResult `json:"checks"`
}

/*
NewHealthHandlers returns the probe handlers for /health and /ready.

Liveness answers 200 while the process serves HTTP. Readiness probes every
dependency in parallel and answers 503 "degraded" if any fails.
*/
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	type probe struct {
		name  string
		check HealthCheck
	}

	var probes []probe
	for _, candidate := range []probe{
		{"postgres", deps.CheckDatabase},
		{"redis", deps.CheckCache},
		{"storage", deps.CheckStorage},
	} {
		if candidate.check != nil {
			probes = append(probes, candidate)
		}
	}

	liveness = func(writer http.ResponseWriter, _ *http.Request) {
		respond.OK(writer, map[string]string{"status": "ok"})
	}

	readiness = func(writer http.ResponseWriter, request *http.Request) {
		results := make([]probeResult, len(probes))

		var group errgroup.Group
		for index, target := range probes {
			results[index] = probeResult{Name: target.name, OK: true}

			group.Go(func() error {
				probeCtx, cancel := context.WithTimeout(request.Context(), readinessTimeout)
				defer cancel()

				if err := target.check(probeCtx); err != nil {
					results[index] = probeResult{Name: target.name, Error: err.Error()}
					logger.Error("readiness_check_failed", slog.String("dependency", target.name), slog.Any("error", err))
				}
				return nil
			})
		}
		_ = group.Wait()

		report, status := readinessReport{Status: "ready", Checks: results}, http.StatusOK
		for _, result := range results {
			if !result.OK {
				report.Status, status = "degraded", http.StatusServiceUnavailable
				break
			}
		}

		respond.JSON(writer, status, respond.SuccessEnvelope{Data: report})
	}

	return liveness, readiness
}
