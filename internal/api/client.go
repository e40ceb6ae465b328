// internal/api/client.go
//
// Client is the only code that knows the wire shape of the appointment
// service. Everything above it speaks domain types and the Kind taxonomy.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okellen/appointed/internal/session"
)

// Client issues HTTP/JSON calls against the appointment service, attaching
// the current credential from the session store on every request. It never
// retries, never clears the credential, and never navigates; those decisions
// belong to its callers.
type Client struct {
	baseURL    string
	sessions   *session.Store
	httpClient *http.Client
}

// NewClient builds a client for the service at baseURL. The session store is
// consulted on every call, so a sign-in or logout is visible to the very
// next request.
func NewClient(baseURL string, sessions *session.Store, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		sessions:   sessions,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type signUpRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type appointmentPayload struct {
	Start   Timestamp `json:"startime"`
	End     Timestamp `json:"endtime"`
	Purpose string    `json:"purpose"`
}

// SignUp registers a new account and returns the created user.
func (c *Client) SignUp(ctx context.Context, username, password string, isAdmin bool) (User, error) {
	var user User
	err := c.roundTrip(ctx, http.MethodPost, "/signup/", signUpRequest{
		Username: username,
		Password: password,
		IsAdmin:  isAdmin,
	}, &user)
	return user, err
}

// SignIn exchanges credentials for a bearer token. The caller decides
// whether to store it.
func (c *Client) SignIn(ctx context.Context, username, password string) (session.Credential, error) {
	var cred session.Credential
	err := c.roundTrip(ctx, http.MethodPost, "/signin/", signInRequest{
		Username: username,
		Password: password,
	}, &cred)
	return cred, err
}

// ListAppointments fetches every appointment visible to the caller. Owning
// nothing yields an empty slice, not an error.
func (c *Client) ListAppointments(ctx context.Context) ([]Appointment, error) {
	var appointments []Appointment
	if err := c.roundTrip(ctx, http.MethodGet, "/appointments", nil, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

// CreateAppointment submits a draft; the service assigns the identifier and
// the owning username.
func (c *Client) CreateAppointment(ctx context.Context, draft Draft) (Appointment, error) {
	var appointment Appointment
	err := c.roundTrip(ctx, http.MethodPost, "/appointments", payloadFor(draft), &appointment)
	return appointment, err
}

// UpdateAppointment rewrites the appointment with the given id from a draft.
func (c *Client) UpdateAppointment(ctx context.Context, id int, draft Draft) (Appointment, error) {
	var appointment Appointment
	path := fmt.Sprintf("/appointments/%d", id)
	err := c.roundTrip(ctx, http.MethodPut, path, payloadFor(draft), &appointment)
	return appointment, err
}

func payloadFor(draft Draft) appointmentPayload {
	return appointmentPayload{
		Start:   NewTimestamp(draft.Start),
		End:     NewTimestamp(draft.End),
		Purpose: draft.Purpose,
	}
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return &Error{Kind: KindUnreachable, Message: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindUnreachable, Message: defaultMessage(KindUnreachable)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindUnreachable, Message: defaultMessage(KindUnreachable)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindUnreachable, Message: "malformed response from the appointment service"}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	// The credential is read fresh per request; the client keeps no copy
	// across calls.
	if c.sessions.Active() {
		req.Header.Set("Authorization", c.sessions.Credential().Bearer())
	}
	return req, nil
}
