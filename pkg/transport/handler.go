package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/menuqr/menuqr/pkg/api"
	"github.com/menuqr/menuqr/pkg/auth"
	"github.com/menuqr/menuqr/pkg/auth/session"
	"github.com/menuqr/menuqr/pkg/auth/token"
	"github.com/menuqr/menuqr/pkg/observability"
	"github.com/menuqr/menuqr/pkg/storage"
)

// Handler serves the auth and restaurant routes.
type Handler struct {
	store        storage.Store
	tokens       *token.Service
	sessions     *session.Transport
	loginLimiter auth.RateLimiter // optional, nil disables throttling
}

// NewHandler creates the route handler. limiter may be nil.
func NewHandler(store storage.Store, tokens *token.Service, sessions *session.Transport, limiter auth.RateLimiter) *Handler {
	return &Handler{
		store:        store,
		tokens:       tokens,
		sessions:     sessions,
		loginLimiter: limiter,
	}
}

// Routes registers all endpoints on a fresh mux. The tenant isolation
// guard is applied outside (see Server); routes listed in
// auth.DefaultBypassEndpoints are public.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Credential endpoints (public).
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout", h.handleClearSession)
	mux.HandleFunc("POST /api/auth/clear-session", h.handleClearSession)

	// Published menu lookup (public, the QR code target).
	mux.HandleFunc("GET /api/public/restaurants/{slug}", h.handlePublicLookup)

	// Authenticated surface.
	mux.HandleFunc("GET /api/auth/me", h.handleMe)
	mux.Handle("GET /api/restaurant", auth.RequireTenant(http.HandlerFunc(h.handleGetRestaurant)))
	mux.Handle("PATCH /api/restaurant", auth.RequireTenant(http.HandlerFunc(h.handleUpdateRestaurant)))
	mux.Handle("DELETE /api/restaurant", auth.RequireTenant(http.HandlerFunc(h.handleDeleteRestaurant)))
	mux.Handle("GET /api/restaurants/{id}/profile", auth.RequireTenant(http.HandlerFunc(h.handleRestaurantProfile)))

	return mux
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = api.NormalizeEmail(req.Email)
	if !api.ValidateEmail(req.Email) {
		WriteError(w, api.NewInvalidRequestError("a valid email is required"))
		return
	}
	if !api.ValidatePassword(req.Password) {
		WriteError(w, api.NewInvalidRequestError("password must be at least 8 characters"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("password hashing failed", "error", err)
		observability.RegistrationsTotal.WithLabelValues("error").Inc()
		WriteError(w, api.NewServerError())
		return
	}

	user := &storage.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         api.RoleOwner,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			observability.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			WriteError(w, api.NewDuplicateRegistrationError())
			return
		}
		slog.Error("creating user failed", "error", err)
		observability.RegistrationsTotal.WithLabelValues("error").Inc()
		WriteError(w, api.NewServerError())
		return
	}

	var restaurantID string
	if req.RestaurantName != "" {
		restaurant, err := h.createRestaurant(r, user.ID, req.RestaurantName)
		if err != nil {
			slog.Error("creating restaurant failed", "owner_id", user.ID, "error", err)
			observability.RegistrationsTotal.WithLabelValues("error").Inc()
			WriteError(w, api.NewServerError())
			return
		}
		restaurantID = restaurant.ID
	}

	sess, err := h.issueSession(user, restaurantID)
	if err != nil {
		observability.RegistrationsTotal.WithLabelValues("error").Inc()
		WriteError(w, api.NewServerError())
		return
	}

	observability.RegistrationsTotal.WithLabelValues("success").Inc()
	h.sessions.Attach(w, sess.AccessToken, sess.RefreshToken)
	WriteJSON(w, http.StatusCreated, api.Envelope{
		Success: true,
		Token:   sess.AccessToken,
		User:    publicUser(user, restaurantID),
	})
}

// createRestaurant derives a slug from the name and retries once with a
// random suffix when the slug is already taken by a live tenant.
func (h *Handler) createRestaurant(r *http.Request, ownerID, name string) (*storage.Restaurant, error) {
	slug := api.NewSlug(name)

	restaurant := &storage.Restaurant{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    name,
		Slug:    slug,
	}
	err := h.store.CreateRestaurant(r.Context(), restaurant)
	if errors.Is(err, storage.ErrDuplicateSlug) {
		restaurant.Slug = api.DisambiguateSlug(slug)
		err = h.store.CreateRestaurant(r.Context(), restaurant)
	}
	if err != nil {
		return nil, err
	}
	return restaurant, nil
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = api.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		WriteError(w, api.NewInvalidRequestError("email and password are required"))
		return
	}

	// Optional throttle per email. Concurrent legitimate logins are
	// expected and each receives a distinct session id.
	if h.loginLimiter != nil {
		if err := h.loginLimiter.Allow(r.Context(), req.Email); err != nil {
			observability.RateLimitRejectedTotal.WithLabelValues("login").Inc()
			WriteError(w, &api.APIError{Code: api.ErrorCodeTooManyRequests, Message: "too many login attempts"})
			return
		}
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			observability.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			WriteError(w, api.NewInvalidCredentialsError())
			return
		}
		slog.Error("user lookup failed", "error", err)
		observability.LoginsTotal.WithLabelValues("error").Inc()
		WriteError(w, api.NewServerError())
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		observability.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		WriteError(w, api.NewInvalidCredentialsError())
		return
	}

	restaurantID := h.restaurantIDForOwner(r, user.ID)

	sess, err := h.issueSession(user, restaurantID)
	if err != nil {
		observability.LoginsTotal.WithLabelValues("error").Inc()
		WriteError(w, api.NewServerError())
		return
	}

	observability.LoginsTotal.WithLabelValues("success").Inc()
	h.sessions.Attach(w, sess.AccessToken, sess.RefreshToken)
	WriteJSON(w, http.StatusOK, api.Envelope{
		Success: true,
		Token:   sess.AccessToken,
		User:    publicUser(user, restaurantID),
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	tok := h.sessions.RefreshToken(r)
	if tok == "" {
		WriteError(w, api.NewUnauthenticatedError())
		return
	}

	claims, err := h.tokens.Verify(tok)
	if err != nil {
		WriteError(w, TokenError(err))
		return
	}

	// The user must still exist; the bound tenant, if any, must still
	// be live.
	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		WriteError(w, api.NewUnauthenticatedError())
		return
	}
	if claims.RestaurantID != "" {
		if _, err := h.store.GetRestaurantByID(r.Context(), claims.RestaurantID); err != nil {
			WriteError(w, api.NewTenantUnresolvedError())
			return
		}
	}

	access, _, err := h.tokens.IssueAccess(token.Subject{ID: user.ID, Email: user.Email, Role: user.Role}, claims.RestaurantID, claims.SessionID)
	if err != nil {
		slog.Error("token signing failed", "user_id", user.ID)
		WriteError(w, api.NewServerError())
		return
	}

	observability.TokensIssuedTotal.WithLabelValues("access").Inc()
	h.sessions.Attach(w, access, "")
	WriteJSON(w, http.StatusOK, api.Envelope{
		Success: true,
		Token:   access,
		User:    publicUser(user, claims.RestaurantID),
	})
}

func (h *Handler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	WriteJSON(w, http.StatusOK, api.Envelope{Success: true, Message: "session cleared"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		WriteError(w, api.NewUnauthenticatedError())
		return
	}

	user, err := h.store.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		// A verified token for a vanished user is treated as
		// unauthenticated, not as a server error.
		WriteError(w, api.NewUnauthenticatedError())
		return
	}

	WriteJSON(w, http.StatusOK, api.Envelope{
		Success: true,
		User:    publicUser(user, identity.RestaurantID),
	})
}

func (h *Handler) handlePublicLookup(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if !api.ValidateSlug(slug) {
		WriteError(w, api.NewInvalidRequestError("invalid slug"))
		return
	}

	restaurant, err := h.store.GetRestaurantBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, api.NewNotFoundError("restaurant not found"))
			return
		}
		slog.Error("slug lookup failed", "slug", slug, "error", err)
		WriteError(w, api.NewServerError())
		return
	}

	WriteJSON(w, http.StatusOK, api.Envelope{
		Success:    true,
		Restaurant: publicRestaurant(restaurant),
	})
}

func (h *Handler) handleGetRestaurant(w http.ResponseWriter, r *http.Request) {
	h.writeOwnRestaurant(w, r)
}

func (h *Handler) handleUpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateRestaurantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteError(w, api.NewInvalidRequestError("name is required"))
		return
	}

	// The target is always the token-derived tenant from the context;
	// the request body cannot name one.
	tenantID := storage.GetTenant(r.Context())
	if err := h.store.UpdateRestaurantName(r.Context(), tenantID, req.Name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, api.NewTenantUnresolvedError())
			return
		}
		slog.Error("restaurant update failed", "restaurant_id", tenantID, "error", err)
		WriteError(w, api.NewServerError())
		return
	}

	h.writeOwnRestaurant(w, r)
}

// handleDeleteRestaurant soft-deletes the caller's own restaurant. The
// slug becomes reusable; the record stays for audit.
func (h *Handler) handleDeleteRestaurant(w http.ResponseWriter, r *http.Request) {
	tenantID := storage.GetTenant(r.Context())
	if err := h.store.DeleteRestaurant(r.Context(), tenantID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, api.NewTenantUnresolvedError())
			return
		}
		slog.Error("restaurant delete failed", "restaurant_id", tenantID, "error", err)
		WriteError(w, api.NewServerError())
		return
	}

	h.sessions.Clear(w)
	WriteJSON(w, http.StatusOK, api.Envelope{Success: true, Message: "restaurant deleted"})
}

// handleRestaurantProfile serves the tenant-addressed dashboard route.
// auth.RequireTenant has already rejected mismatched callers with 403.
func (h *Handler) handleRestaurantProfile(w http.ResponseWriter, r *http.Request) {
	h.writeOwnRestaurant(w, r)
}

func (h *Handler) writeOwnRestaurant(w http.ResponseWriter, r *http.Request) {
	tenantID := storage.GetTenant(r.Context())

	restaurant, err := h.store.GetRestaurantByID(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, api.NewTenantUnresolvedError())
			return
		}
		slog.Error("restaurant lookup failed", "restaurant_id", tenantID, "error", err)
		WriteError(w, api.NewServerError())
		return
	}

	WriteJSON(w, http.StatusOK, api.Envelope{
		Success:    true,
		Restaurant: publicRestaurant(restaurant),
	})
}

// issueSession mints the token pair and records issuance metrics.
// Signing failures are fatal for the request; the secret never appears
// in logs or responses.
func (h *Handler) issueSession(user *storage.User, restaurantID string) (*token.Session, error) {
	sess, err := h.tokens.IssueSession(token.Subject{ID: user.ID, Email: user.Email, Role: user.Role}, restaurantID)
	if err != nil {
		slog.Error("token signing failed", "user_id", user.ID)
		return nil, err
	}
	observability.TokensIssuedTotal.WithLabelValues("access").Inc()
	observability.TokensIssuedTotal.WithLabelValues("refresh").Inc()
	return sess, nil
}

// restaurantIDForOwner resolves the caller's tenant at login. A user
// without a restaurant gets a token without tenant binding.
func (h *Handler) restaurantIDForOwner(r *http.Request, ownerID string) string {
	restaurant, err := h.store.GetRestaurantByOwner(r.Context(), ownerID)
	if err != nil {
		return ""
	}
	return restaurant.ID
}

// decodeJSON decodes a request body, rejecting unknown fields. Writes a
// 400 and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		WriteError(w, api.NewInvalidRequestError("invalid JSON payload"))
		return false
	}
	return true
}

func publicUser(u *storage.User, restaurantID string) *api.User {
	return &api.User{
		ID:           u.ID,
		Email:        u.Email,
		Role:         u.Role,
		RestaurantID: restaurantID,
	}
}

func publicRestaurant(r *storage.Restaurant) *api.Restaurant {
	return &api.Restaurant{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		CreatedAt: r.CreatedAt,
	}
}
