/*
Copyright 2026 The Sentinelguard Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentinelguard/sentinelguard/internal/apperrors"
	"github.com/sentinelguard/sentinelguard/internal/auth"
	"github.com/sentinelguard/sentinelguard/pkg/auditlog"
	"github.com/sentinelguard/sentinelguard/pkg/detection"
	"github.com/sentinelguard/sentinelguard/pkg/graph"
	"github.com/sentinelguard/sentinelguard/pkg/ingest"
)

func actorFrom(r *http.Request) string {
	if identity, ok := identityFrom(r.Context()); ok {
		return identity.Username
	}
	return "anonymous"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startedAt).String(),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := getValidator().Struct(req); err != nil {
		writeError(w, apperrors.NewValidationError(err.Error()))
		return
	}

	user, err := s.users.Register(req.Username, req.Password)
	if err != nil {
		s.audit.Append("auth.register", req.Username, "", "failed", err.Error())
		writeError(w, apperrors.NewConflictError(err.Error()))
		return
	}
	s.audit.Append("auth.register", user.Username, "", "completed", "")
	writeJSON(w, http.StatusCreated, map[string]string{
		"username": user.Username,
		"role":     string(user.Role),
	})
}

// handleLogin accepts form-urlencoded username/password, per §6, and not a
// JSON body: a login form posts application/x-www-form-urlencoded, and
// there is no reason to require a JSON client just to authenticate.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "invalid form body"))
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := s.users.Authenticate(username, password)
	if err != nil {
		s.audit.Append("auth.login", username, "", "failed", "invalid credentials")
		writeError(w, apperrors.NewAuthError("invalid credentials"))
		return
	}

	token, err := auth.IssueToken(s.jwtSecret, user.Username, user.Role)
	if err != nil {
		writeError(w, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "failed to issue token"))
		return
	}
	s.audit.Append("auth.login", user.Username, "", "completed", "")
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleGraphStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"nodes": len(s.store.AllNodes()),
		"edges": len(s.store.AllEdges()),
	})
}

func (s *Server) handleIdentities(w http.ResponseWriter, r *http.Request) {
	principalKinds := map[graph.NodeKind]bool{
		graph.NodeUser:  true,
		graph.NodeGroup: true,
		graph.NodeRole:  true,
	}
	var out []graph.Node
	for _, n := range s.store.AllNodes() {
		if principalKinds[n.Kind] {
			out = append(out, n)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIngestAWS(w http.ResponseWriter, r *http.Request) {
	if err := ingest.Load(r.Context(), s.ingester, s.store); err != nil {
		s.audit.Append("ingest.run", actorFrom(r), "", "failed", err.Error())
		writeError(w, apperrors.Wrapf(err, apperrors.ErrorTypeTransientExternal, "ingest failed"))
		return
	}
	s.audit.Append("ingest.run", actorFrom(r), "", "completed", "")
	s.persistGraph()
	writeJSON(w, http.StatusOK, map[string]int{
		"nodes": len(s.store.AllNodes()),
		"edges": len(s.store.AllEdges()),
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := detection.Params{StartNode: q.Get("start_node")}
	if raw := q.Get("min_delta"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperrors.NewValidationError("min_delta must be an integer"))
			return
		}
		params.MinDelta = &v
	}

	result, err := s.engine.Scan(r.Context(), params)
	if err != nil {
		s.audit.Append("detect.scan", actorFrom(r), params.StartNode, "failed", err.Error())
		writeError(w, err)
		return
	}
	s.audit.Append("detect.scan", actorFrom(r), params.StartNode, "completed", strconv.Itoa(len(result.Alerts)))
	if s.metrics != nil {
		severities := make([]string, 0, len(result.Alerts))
		for _, a := range result.Alerts {
			severities = append(severities, string(a.Severity))
		}
		s.metrics.ObserveScan(severities)
	}
	s.persistAlerts()
	s.persistPlans()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Alerts())
}

func (s *Server) handlePurgeStaleAlerts(w http.ResponseWriter, r *http.Request) {
	removed := s.engine.PurgeStale()
	s.audit.Append("alerts.purge_stale", actorFrom(r), "", "completed", strconv.Itoa(removed))
	s.persistAlerts()
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handlePendingPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.planner.Pending())
}

func (s *Server) handlePlanHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.planner.History())
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "plan_id")
	if _, ok := s.planner.Get(id); !ok {
		writeError(w, apperrors.NewNotFoundError("plan"))
		return
	}
	plan, err := s.planner.Approve(id)
	if err != nil {
		writeError(w, apperrors.NewConflictError(err.Error()))
		return
	}
	s.audit.Append("plan.approve", actorFrom(r), plan.ID, "completed", "")
	s.persistPlans()
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "plan_id")
	if _, ok := s.planner.Get(id); !ok {
		writeError(w, apperrors.NewNotFoundError("plan"))
		return
	}
	plan, err := s.planner.Reject(id)
	if err != nil {
		writeError(w, apperrors.NewConflictError(err.Error()))
		return
	}
	s.audit.Append("plan.reject", actorFrom(r), plan.ID, "completed", r.URL.Query().Get("reason"))
	s.persistPlans()
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "plan_id")
	plan, ok := s.planner.Get(id)
	if !ok {
		writeError(w, apperrors.NewNotFoundError("plan"))
		return
	}
	if err := s.executor.Execute(r.Context(), plan); err != nil {
		s.audit.Append("plan.execute", actorFrom(r), plan.ID, "failed", err.Error())
		if s.metrics != nil {
			s.metrics.ObservePlanOutcome(string(plan.State))
		}
		s.persistPlans()
		writeError(w, apperrors.Wrap(err, apperrors.ErrorTypeConflict, "plan execution failed"))
		return
	}
	s.audit.Append("plan.execute", actorFrom(r), plan.ID, "completed", "")
	if s.metrics != nil {
		s.metrics.ObservePlanOutcome(string(plan.State))
	}
	s.persistPlans()
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "action_id")
	plan, ok := s.planner.FindByActionID(id)
	if !ok {
		writeError(w, apperrors.NewNotFoundError("action"))
		return
	}
	if err := s.executor.RollbackAction(r.Context(), plan, id); err != nil {
		s.audit.Append("action.rollback", actorFrom(r), id, "failed", err.Error())
		writeError(w, apperrors.Wrap(err, apperrors.ErrorTypeConflict, "rollback failed"))
		return
	}
	s.audit.Append("action.rollback", actorFrom(r), id, "completed", "")
	s.persistPlans()
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := auditlog.Filter{
		Verb:   q.Get("verb"),
		Actor:  q.Get("actor"),
		Target: q.Get("target"),
		Status: q.Get("status"),
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, apperrors.NewValidationError("since must be an RFC3339 timestamp"))
			return
		}
		filter.Since = since
	}
	writeJSON(w, http.StatusOK, s.audit.List(filter))
}
