// Package api is the single outbound channel to the clinic backend. Every
// request goes through one pipeline that injects the stored bearer token and
// maps failures onto a shared error taxonomy. A 401 on any endpoint is
// treated as a session-invalidation signal: the credential store is cleared
// and the OnSessionInvalid hook fires exactly once for that response; what
// happens next (the login redirect) is the router's business, not ours.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/valdiviesod/citasalud-cli/internal/constants"
	"github.com/valdiviesod/citasalud-cli/internal/credstore"
	"github.com/valdiviesod/citasalud-cli/internal/logger"
	"github.com/valdiviesod/citasalud-cli/internal/models"
)

// Client talks to the backend. It reads the bearer token from the durable
// store on every request rather than from session memory, so it keeps
// working before CheckAuth has resolved.
type Client struct {
	baseURL          string
	http             *http.Client
	creds            *credstore.Store
	onSessionInvalid func()
}

// New returns a client rooted at baseURL (no trailing slash).
func New(baseURL string, creds *credstore.Store) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: constants.RequestTimeout},
		creds:   creds,
	}
}

// SetSessionInvalidHandler registers the hook fired after a 401 clears the
// store. At most one handler; the router registers itself at startup.
func (c *Client) SetSessionInvalidHandler(fn func()) {
	c.onSessionInvalid = fn
}

// SetHTTPClient replaces the underlying HTTP client. Tests use this.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Bearer injection straight from the durable store. A missing token is
	// fine: login and register are unauthenticated.
	if token, err := c.creds.Token(); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	logger.Debug("API request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateSession()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errorFromResponse(resp.StatusCode, data)
		logger.Warn("API error response", "method", method, "path", path, "status", resp.StatusCode)
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}

// invalidateSession clears the stored credential and notifies the
// subscriber. Runs once per 401 response; issuing component is irrelevant.
func (c *Client) invalidateSession() {
	if err := c.creds.Clear(); err != nil {
		logger.Warn("Failed to clear credentials after 401", "error", err)
	}
	if c.onSessionInvalid != nil {
		c.onSessionInvalid()
	}
}

// AuthResponse is the login/register payload.
type AuthResponse struct {
	AccessToken string             `json:"access_token"`
	User        models.UserProfile `json:"user"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// MutationResult is the generic booking/cancellation acknowledgement.
type MutationResult struct {
	Message string `json:"message"`
}

// SemanasResponse is the week breakdown for one period.
type SemanasResponse struct {
	Año       int           `json:"año"`
	Mes       int           `json:"mes"`
	NombreMes string        `json:"nombre_mes"`
	Semanas   []models.Week `json:"semanas"`
}

// Login authenticates with email/password.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out)
	return out, err
}

// Register creates an account and returns the fresh session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &out)
	return out, err
}

// Logout notifies the server. Callers treat failures as best-effort.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// CurrentUser revalidates the session and returns the fresh profile. The
// backend has wrapped the user in a "user" envelope in some revisions and
// returned it bare in others; both are accepted.
func (c *Client) CurrentUser(ctx context.Context) (models.UserProfile, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, nil, &raw); err != nil {
		return models.UserProfile{}, err
	}

	var envelope struct {
		User *models.UserProfile `json:"user"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.User != nil {
		return *envelope.User, nil
	}

	var profile models.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to decode user payload: %w", err)
	}
	return profile, nil
}

// Semanas fetches the week breakdown for a 1-based month.
func (c *Client) Semanas(ctx context.Context, año, mes int) (SemanasResponse, error) {
	var out SemanasResponse
	query := url.Values{}
	query.Set("año", strconv.Itoa(año))
	query.Set("mes", strconv.Itoa(mes))
	err := c.do(ctx, http.MethodGet, "/citas/semanas", query, nil, &out)
	return out, err
}

// HorariosDisponibles fetches per-doctor slot availability for one date.
func (c *Client) HorariosDisponibles(ctx context.Context, fecha string) (models.SlotAvailability, error) {
	var out models.SlotAvailability
	query := url.Values{}
	query.Set("fecha", fecha)
	err := c.do(ctx, http.MethodGet, "/citas/horarios-disponibles", query, nil, &out)
	return out, err
}

// AgendarCita books a slot. Observaciones is optional and sent as null when
// empty, matching what the backend expects.
func (c *Client) AgendarCita(ctx context.Context, horarioID int, observaciones string) (MutationResult, error) {
	var out MutationResult
	body := struct {
		HorarioID     int     `json:"horario_id"`
		Observaciones *string `json:"observaciones"`
	}{HorarioID: horarioID}
	if observaciones != "" {
		body.Observaciones = &observaciones
	}
	err := c.do(ctx, http.MethodPost, "/citas/agendar", nil, body, &out)
	return out, err
}

// CancelarCita frees a previously booked slot.
func (c *Client) CancelarCita(ctx context.Context, horarioID int) (MutationResult, error) {
	var out MutationResult
	err := c.do(ctx, http.MethodPost, "/citas/cancelar/"+strconv.Itoa(horarioID), nil, nil, &out)
	return out, err
}

// IsAuthError reports whether err is a credential rejection.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNetworkError reports whether err carries no server verdict.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsConflictError reports whether err is a lost booking race.
func IsConflictError(err error) bool {
	var conflictErr *ConflictError
	return errors.As(err, &conflictErr)
}
