package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nebula-bot/nebula-hub/internal/application/command"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
	"github.com/nebula-bot/nebula-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY INTAKE
// ══════════════════════════════════════════════════════════════════════════════

// activityRequest is one qualifying activity event from the activity source.
// The source suppresses events from automated actors before they reach this
// endpoint; the handler still re-checks the community's leveling flag.
type activityRequest struct {
	CommunityID string `json:"community_id"`
	UserID      string `json:"user_id"`
}

type activityResponse struct {
	LocalLevel      int  `json:"local_level"`
	LocalExp        int  `json:"local_exp"`
	GlobalLevel     int  `json:"global_level"`
	GlobalExp       int  `json:"global_exp"`
	LocalLeveledUp  bool `json:"local_leveled_up"`
	GlobalLeveledUp bool `json:"global_leveled_up"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	community, err := shared.NewCommunityID(req.CommunityID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid community_id")
		return
	}
	user, err := shared.NewUserID(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	result, err := s.deps.Activity.Handle(r.Context(), community, user)
	switch {
	case errors.Is(err, shared.ErrDisabled):
		// Disabled communities are a no-op, not a delivery failure.
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		s.logger.Error("activity handling failed",
			logger.F("community_id", community.String()),
			logger.F("user_id", user.String()),
			logger.Err(err),
		)
		// The source redelivers; exp award is at-least-once.
		writeError(w, http.StatusServiceUnavailable, "event not processed")
		return
	}

	writeJSON(w, http.StatusAccepted, activityResponse{
		LocalLevel:      result.Local.Level.Int(),
		LocalExp:        result.Local.Exp.Int(),
		GlobalLevel:     result.Global.Level.Int(),
		GlobalExp:       result.Global.Exp.Int(),
		LocalLeveledUp:  result.LocalLeveledUp,
		GlobalLeveledUp: result.GlobalLeveledUp,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL VIEW
// ══════════════════════════════════════════════════════════════════════════════

type levelResponse struct {
	Level       int          `json:"level"`
	Exp         int          `json:"exp"`
	ExpNeeded   int          `json:"exp_needed"`
	RewardsHeld []string     `json:"rewards_held"`
	NextReward  *rulePayload `json:"next_reward,omitempty"`
}

type rulePayload struct {
	Level  int    `json:"level"`
	RoleID string `json:"role_id"`
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	community, err := shared.NewCommunityID(r.PathValue("community"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid community id")
		return
	}
	user, err := shared.NewUserID(r.PathValue("user"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	view, err := s.deps.GetLevel.Handle(r.Context(), community, user)
	switch {
	case errors.Is(err, shared.ErrDisabled):
		writeError(w, http.StatusForbidden, "leveling is disabled for this community")
		return
	case err != nil:
		s.logger.Error("level query failed",
			logger.F("community_id", community.String()),
			logger.Err(err),
		)
		writeError(w, http.StatusServiceUnavailable, "level unavailable")
		return
	}

	resp := levelResponse{
		Level:       view.Level.Int(),
		Exp:         view.Exp.Int(),
		ExpNeeded:   view.ExpNeeded.Int(),
		RewardsHeld: make([]string, 0, len(view.RewardsHeld)),
	}
	for _, id := range view.RewardsHeld {
		resp.RewardsHeld = append(resp.RewardsHeld, id.String())
	}
	if view.NextReward != nil {
		resp.NextReward = &rulePayload{
			Level:  view.NextReward.Level.Int(),
			RoleID: view.NextReward.RoleID.String(),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// WARNINGS
// ══════════════════════════════════════════════════════════════════════════════

type warnRequest struct {
	UserID      string `json:"user_id"`
	ModeratorID string `json:"moderator_id"`
	Reason      string `json:"reason"`
}

type warnResponse struct {
	WarningID string `json:"warning_id"`
}

func (s *Server) handleWarn(w http.ResponseWriter, r *http.Request) {
	community, err := shared.NewCommunityID(r.PathValue("community"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid community id")
		return
	}

	var req warnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	user, err := shared.NewUserID(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	moderator, err := shared.NewUserID(req.ModeratorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid moderator_id")
		return
	}

	event, err := s.deps.Warn.Handle(r.Context(), command.WarnMemberCommand{
		CommunityID: community,
		UserID:      user,
		ModeratorID: moderator,
		Reason:      req.Reason,
	})
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("warn failed",
			logger.F("community_id", community.String()),
			logger.Err(err),
		)
		writeError(w, http.StatusServiceUnavailable, "warning not recorded")
		return
	}

	writeJSON(w, http.StatusCreated, warnResponse{WarningID: event.WarningID})
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

type healthResponse struct {
	Healthy bool              `json:"healthy"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{
		Healthy: true,
		Uptime:  time.Since(s.startedAt).Round(time.Second).String(),
	}

	if len(s.deps.HealthChecks) > 0 {
		resp.Checks = make(map[string]string, len(s.deps.HealthChecks))
		for name, check := range s.deps.HealthChecks {
			if err := check(ctx); err != nil {
				resp.Healthy = false
				resp.Checks[name] = err.Error()
			} else {
				resp.Checks[name] = "ok"
			}
		}
	}

	status := http.StatusOK
	if !resp.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
