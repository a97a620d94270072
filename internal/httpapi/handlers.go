package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"request-guard/internal/projects"
	"request-guard/middleware/guard"
	"request-guard/middleware/guard/domain"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	HeaderUserID = "X-User-ID"
	HeaderTeamID = "X-Team-ID"

	maxBodyBytes = 1 << 20
)

type handlers struct {
	svc    *projects.Service
	logger *zap.Logger
}

// identity confia nos cabeçalhos definidos pelo provedor de identidade à frente.
func identity(r *http.Request) projects.Identity {
	return projects.Identity{
		UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
		TeamID: strings.TrimSpace(r.Header.Get(HeaderTeamID)),
	}
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), "limit")
	if err != nil {
		return err
	}
	offset, err := queryInt(q.Get("offset"), "offset")
	if err != nil {
		return err
	}

	ps, err := h.svc.List(r.Context(), identity(r), projects.ListOptions{
		Status: projects.Status(q.Get("status")),
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}
	guard.WriteJSON(w, http.StatusOK, map[string]any{"projects": ps})
	return nil
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) error {
	var in projects.Input
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}
	p, err := h.svc.Create(r.Context(), identity(r), in)
	if err != nil {
		return err
	}
	h.logger.Info("project created", zap.String("id", p.ID), zap.String("team", p.TeamID))
	guard.WriteJSON(w, http.StatusCreated, map[string]any{"project": p})
	return nil
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) error {
	counts, summary, list, err := h.svc.Stats(r.Context(), identity(r))
	if err != nil {
		return err
	}
	guard.WriteJSON(w, http.StatusOK, map[string]any{
		"counts":   counts,
		"summary":  summary,
		"projects": list,
	})
	return nil
}

func (h *handlers) checkDuplicate(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	name := q.Get("name")
	if strings.TrimSpace(name) == "" {
		guard.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Project name is required"})
		return nil
	}
	dup, err := h.svc.CheckDuplicateName(r.Context(), identity(r), name, q.Get("excludeId"))
	if err != nil {
		return err
	}
	guard.WriteJSON(w, http.StatusOK, map[string]bool{"isDuplicate": dup})
	return nil
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	if r.URL.Query().Get("withStats") == "true" {
		p, err := h.svc.GetWithStats(r.Context(), identity(r), id)
		if err != nil {
			return err
		}
		guard.WriteJSON(w, http.StatusOK, map[string]any{"project": p})
		return nil
	}

	p, err := h.svc.Get(r.Context(), identity(r), id)
	if err != nil {
		return err
	}
	guard.WriteJSON(w, http.StatusOK, map[string]any{"project": p})
	return nil
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) error {
	var in projects.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}
	p, err := h.svc.Update(r.Context(), identity(r), mux.Vars(r)["id"], in)
	if err != nil {
		return err
	}
	guard.WriteJSON(w, http.StatusOK, map[string]any{"project": p})
	return nil
}

func (h *handlers) delete(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	if err := h.svc.Delete(r.Context(), identity(r), id); err != nil {
		return err
	}
	h.logger.Info("project deleted", zap.String("id", id))
	guard.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	return nil
}

func (h *handlers) archive(w http.ResponseWriter, r *http.Request) error {
	p, err := h.svc.Archive(r.Context(), identity(r), mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	guard.WriteJSON(w, http.StatusOK, map[string]any{"project": p})
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewError(domain.KindValidation, "request body is empty")
		}
		return domain.Wrap(domain.KindValidation, "invalid JSON body", err)
	}
	return nil
}

func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Errorf(domain.KindValidation, "%s must be an integer", name)
	}
	return n, nil
}
