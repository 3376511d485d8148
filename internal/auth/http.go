package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ShopSmart/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20
	tokenTTL     = 15 * time.Minute
	minPassword  = 8
)

type Server struct {
	Log   *zap.Logger
	Store UserStore
	JWT   *TokenMaker
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Get("/whoami", s.handleWhoAmI)

	return r
}

func (s *Server) RegisterHandler() http.HandlerFunc { return s.handleRegister }
func (s *Server) LoginHandler() http.HandlerFunc    { return s.handleLogin }
func (s *Server) WhoAmIHandler() http.HandlerFunc   { return s.handleWhoAmI }

func (s *Server) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return s.Store.Ping(ctx)
}

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if len(req.Password) < minPassword {
		kit.WriteError(w, r, http.StatusBadRequest, "password too short", map[string]any{"min_len": minPassword})
		return
	}

	id := "u_" + uuid.NewString()

	if err := s.Store.Create(r.Context(), req.Username, req.Password, RoleCustomer, id); err != nil {
		if err == ErrUsernameExists {
			kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
			return
		}
		s.Log.Error("create user", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

type loginResp struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	u, err := s.Store.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		if err == ErrInvalidCredentials {
			kit.WriteError(w, r, http.StatusUnauthorized, err.Error(), nil)
			return
		}
		s.Log.Error("verify user", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	tok, err := s.JWT.New(u.ID, u.Username, u.Role, tokenTTL)
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok, Role: u.Role})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
		return
	}

	claims, err := s.JWT.Parse(strings.TrimPrefix(authz, "Bearer "))
	if err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":  claims.UserID,
		"username": claims.Username,
		"role":     claims.Role,
	})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsReq, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req credentialsReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return credentialsReq{}, false
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Password = strings.TrimSpace(req.Password)

	if req.Username == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return credentialsReq{}, false
	}

	return req, true
}

// SeedUsers provisions fixed staff accounts, skipping any that exist.
func SeedUsers(ctx context.Context, store UserStore, seeds []SeedUser, log *zap.Logger) error {
	for _, su := range seeds {
		id := su.Role + "_" + su.Username
		err := store.Create(ctx, su.Username, su.Password, su.Role, id)
		if err == ErrUsernameExists {
			continue
		}
		if err != nil {
			return err
		}
		if log != nil {
			log.Info("seeded user", zap.String("username", su.Username), zap.String("role", su.Role))
		}
	}
	return nil
}
