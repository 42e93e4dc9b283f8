package httpapi

import (
	"net/http"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/models"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/httpresponse"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
		ShopID   string `json:"shop_id"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpresponse.Error(w, r, err)
		return
	}

	user, err := s.Auth.Register(r.Context(), payload.Email, payload.Password, payload.FullName, models.Role(payload.Role), payload.ShopID)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.Created(w, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpresponse.Error(w, r, err)
		return
	}

	user, tokens, err := s.Auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.OK(w, map[string]interface{}{
		"user":    user,
		"access":  tokens.AccessToken,
		"refresh": tokens.RefreshToken,
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	if payload.RefreshToken == "" {
		httpresponse.Error(w, r, errs.Invalidf("refresh_token is required").WithField("refresh_token"))
		return
	}

	tokens, err := s.Auth.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.OK(w, map[string]interface{}{
		"access":  tokens.AccessToken,
		"refresh": tokens.RefreshToken,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	s.Auth.Logout(r.Context(), payload.RefreshToken)
	httpresponse.OK(w, map[string]bool{"success": true})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	httpresponse.OK(w, map[string]interface{}{
		"userId": id.UserID,
		"email":  id.Email,
		"role":   id.Role,
		"shopId": id.ShopID,
	})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	var payload struct {
		Current string `json:"current"`
		New     string `json:"new"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	if err := s.Auth.ChangePassword(r.Context(), id.UserID, payload.Current, payload.New); err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.OK(w, map[string]bool{"success": true})
}
