package http

import (
	"net/http"

	"finanse/internal/auth"
	"finanse/internal/core"
	applog "finanse/internal/log"
)

type notificationsResponse struct {
	Items  []core.Notification `json:"items"`
	Unread int                 `json:"unread"`
}

// handleListNotifications generates a first batch for owners that have
// none, then lists the most recent notifications.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := auth.OwnerFrom(ctx)
	if owner != "" {
		if _, err := s.deps.Notifications.GenerateIfEmpty(ctx, owner); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Initial notification generation failed", applog.FieldError, err)
		}
	}
	NewJSONResponse().Body(notificationsResponse{
		Items:  orEmpty(s.deps.Notifications.List(ctx, owner)),
		Unread: s.deps.Notifications.Unread(ctx, owner),
	}).Write(w)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Notifications.MarkRead(r.Context(), auth.OwnerFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFrom(r.Context())
	if owner == "" {
		s.writeError(w, r, applog.OpUpdate, core.ErrUnauthenticated)
		return
	}
	ok := s.deps.Notifications.MarkAllRead(r.Context(), owner)
	NewJSONResponse().Body(map[string]bool{"success": ok}).Write(w)
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Notifications.Delete(r.Context(), auth.OwnerFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleGenerateNotifications(w http.ResponseWriter, r *http.Request) {
	created, err := s.deps.Notifications.Generate(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, applog.OpGenerate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(map[string]any{"items": orEmpty(created)}).Write(w)
}
