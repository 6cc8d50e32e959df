package bpm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

const tokenHeader = "X-Bonita-API-Token"

// Client is a stateful HTTP client for the Bonita engine. It owns one session
// (token plus cookies) bound to the technical account it was created with, so
// a single instance must not be shared between logical actors without the
// internal lock it carries.
type Client struct {
	baseURL  string
	username string
	password string
	httpc    *http.Client

	pollAttempts  uint64
	pollInterval  time.Duration
	retryAttempts uint64
	retryInterval time.Duration

	mu       sync.Mutex
	token    string
	cookies  []*http.Cookie
	userID   string
	loggedIn bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithPollBounds overrides how long WaitForHumanTask keeps polling.
func WithPollBounds(attempts uint64, interval time.Duration) Option {
	return func(c *Client) {
		c.pollAttempts = attempts
		c.pollInterval = interval
	}
}

// WithRetryBounds overrides how many times a transient engine failure
// (network error or 5xx) is retried before it surfaces.
func WithRetryBounds(attempts uint64, interval time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
		c.retryInterval = interval
	}
}

// NewClient creates a client for the engine at baseURL. No network traffic
// happens until the first call.
func NewClient(baseURL, username, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		username:      username,
		password:      password,
		httpc:         &http.Client{Timeout: 15 * time.Second},
		pollAttempts:  5,
		pollInterval:  700 * time.Millisecond,
		retryAttempts: 2,
		retryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login establishes a fresh session with the engine. It is called implicitly
// by every other operation when no session is cached.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)
	form.Set("redirect", "false")

	loginURL := c.baseURL + "/loginservice"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &ExternalServiceError{Status: resp.StatusCode, URL: loginURL, Body: string(body)}
	}

	c.cookies = resp.Cookies()
	c.token = ""
	for _, cookie := range c.cookies {
		if cookie.Name == tokenHeader {
			c.token = cookie.Value
		}
	}
	if c.token == "" {
		return ErrNoSessionToken
	}

	c.userID = ""
	c.loggedIn = true
	return nil
}

// do performs one authenticated round-trip. A missing session triggers a
// login first; a 401 response triggers exactly one re-login and retry.
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	c.mu.Lock()
	if !c.loggedIn {
		if err := c.loginLocked(ctx); err != nil {
			c.mu.Unlock()
			return 0, nil, err
		}
	}
	c.mu.Unlock()

	status, body, err := c.send(ctx, method, path, payload)
	if err != nil {
		return 0, nil, err
	}

	if status == http.StatusUnauthorized {
		c.mu.Lock()
		err := c.loginLocked(ctx)
		c.mu.Unlock()
		if err != nil {
			return 0, nil, err
		}
		return c.send(ctx, method, path, payload)
	}

	return status, body, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	req.Header.Set(tokenHeader, c.token)
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	c.mu.Unlock()

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request to %s failed: %w", fullURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response from %s: %w", fullURL, err)
	}

	return resp.StatusCode, body, nil
}

// doRetry wraps do with a bounded constant backoff. Only the transient
// failure class is retried: network errors and 5xx responses. Anything else
// surfaces immediately.
func (c *Client) doRetry(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var status int
	var body []byte
	backoff := retry.WithMaxRetries(c.retryAttempts, retry.NewConstant(c.retryInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		status, body, err = c.do(ctx, method, path, payload)
		if err != nil {
			var urlErr *url.Error
			var extErr *ExternalServiceError
			if errors.As(err, &urlErr) || (errors.As(err, &extErr) && extErr.Temporary()) {
				return retry.RetryableError(err)
			}
			return err
		}
		if status >= 500 {
			return retry.RetryableError(&ExternalServiceError{Status: status, URL: c.baseURL + path, Body: string(body)})
		}
		return nil
	})
	if err != nil {
		return status, body, err
	}
	return status, body, nil
}

// doJSON performs an authenticated call and decodes a success response into
// out. Any non-2xx status becomes an ExternalServiceError.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	status, body, err := c.doRetry(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &ExternalServiceError{Status: status, URL: c.baseURL + path, Body: string(body)}
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}

type processInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FindProcessID resolves a deployed process definition by exact name. Only
// the first page of results is consulted; an empty page yields
// ErrProcessNotFound.
func (c *Client) FindProcessID(ctx context.Context, name string) (string, error) {
	path := "/API/bpm/process?p=0&c=100&f=name=" + url.QueryEscape(name)
	var processes []processInfo
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &processes); err != nil {
		return "", err
	}
	if len(processes) == 0 {
		return "", fmt.Errorf("%w: %q", ErrProcessNotFound, name)
	}
	return processes[0].ID, nil
}

// Instantiate starts a new case of the given process definition.
func (c *Client) Instantiate(ctx context.Context, processID string) (int64, error) {
	var result struct {
		CaseID int64 `json:"caseId"`
	}
	path := fmt.Sprintf("/API/bpm/process/%s/instantiation", processID)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &result); err != nil {
		return 0, err
	}
	return result.CaseID, nil
}

// HumanTask is a reference to one human task pending on a case.
type HumanTask struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListHumanTasks returns the pending human tasks of a case. The list may be
// empty right after instantiation; see WaitForHumanTask.
func (c *Client) ListHumanTasks(ctx context.Context, caseID int64) ([]HumanTask, error) {
	path := fmt.Sprintf("/API/bpm/humanTask?f=caseId=%d", caseID)
	var tasks []HumanTask
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// WaitForHumanTask polls for the first human task of a case with a bounded
// constant backoff. Exceeding the bound yields ErrTaskNotMaterialized.
func (c *Client) WaitForHumanTask(ctx context.Context, caseID int64) (*HumanTask, error) {
	var task *HumanTask
	backoff := retry.WithMaxRetries(c.pollAttempts, retry.NewConstant(c.pollInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		tasks, err := c.ListHumanTasks(ctx, caseID)
		if err != nil {
			var extErr *ExternalServiceError
			if errors.As(err, &extErr) && extErr.Temporary() {
				return retry.RetryableError(err)
			}
			return err
		}
		if len(tasks) == 0 {
			return retry.RetryableError(fmt.Errorf("%w: case %d", ErrTaskNotMaterialized, caseID))
		}
		task = &tasks[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// AssignTask claims a human task for the session's technical user.
func (c *Client) AssignTask(ctx context.Context, taskID string) error {
	userID, err := c.currentUserID(ctx)
	if err != nil {
		return err
	}
	path := "/API/bpm/userTask/" + taskID
	return c.doJSON(ctx, http.MethodPut, path, map[string]string{"assigned_id": userID}, nil)
}

// SubmitForm validates and submits a form payload, executing the task.
func (c *Client) SubmitForm(ctx context.Context, taskID string, payload FormPayload) error {
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("invalid form payload: %w", err)
	}
	path := fmt.Sprintf("/API/bpm/userTask/%s/execution", taskID)
	return c.doJSON(ctx, http.MethodPost, path, payload, nil)
}

// SubmitToNextTask waits for the next pending human task of a case, claims
// it and submits the given form. This is the engine's unit of forward
// progress for an already running case.
func (c *Client) SubmitToNextTask(ctx context.Context, caseID int64, payload FormPayload) error {
	task, err := c.WaitForHumanTask(ctx, caseID)
	if err != nil {
		return err
	}
	if err := c.AssignTask(ctx, task.ID); err != nil {
		return err
	}
	return c.SubmitForm(ctx, task.ID, payload)
}

// CaseVariable is a case-scoped variable as the engine reports it.
type CaseVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// GetCaseVariable reads a variable from a live case. A 404 means the variable
// does not exist and is reported as ErrVariableNotFound.
func (c *Client) GetCaseVariable(ctx context.Context, caseID int64, name string) (*CaseVariable, error) {
	path := fmt.Sprintf("/API/bpm/caseVariable/%d/%s", caseID, url.PathEscape(name))
	return c.getVariable(ctx, path)
}

// GetArchivedCaseVariable reads a variable from an archived case, addressed
// by the original (pre-archival) case id.
func (c *Client) GetArchivedCaseVariable(ctx context.Context, sourceCaseID string, name string) (*CaseVariable, error) {
	path := fmt.Sprintf("/API/bpm/archivedCaseVariable/%s/%s", url.PathEscape(sourceCaseID), url.PathEscape(name))
	return c.getVariable(ctx, path)
}

func (c *Client) getVariable(ctx context.Context, path string) (*CaseVariable, error) {
	status, body, err := c.doRetry(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrVariableNotFound
	}
	if status < 200 || status >= 300 {
		return nil, &ExternalServiceError{Status: status, URL: c.baseURL + path, Body: string(body)}
	}
	var variable CaseVariable
	if err := json.Unmarshal(body, &variable); err != nil {
		return nil, fmt.Errorf("failed to decode case variable: %w", err)
	}
	return &variable, nil
}

// ArchivedCase is a closed case retained by the engine for historical query.
// Its own id differs from the live case it came from; SourceObjectID links
// back to the original.
type ArchivedCase struct {
	ID                  string `json:"id"`
	SourceObjectID      string `json:"sourceObjectId"`
	State               string `json:"state"`
	EndDate             string `json:"end_date"`
	ProcessDefinitionID string `json:"processDefinitionId"`
}

// ListArchivedCases returns the archived cases belonging to one process
// definition. The engine endpoint is unfiltered, so filtering happens here.
func (c *Client) ListArchivedCases(ctx context.Context, processID string) ([]ArchivedCase, error) {
	var all []ArchivedCase
	if err := c.doJSON(ctx, http.MethodGet, "/API/bpm/archivedCase?p=0&c=1000", nil, &all); err != nil {
		return nil, err
	}
	cases := make([]ArchivedCase, 0, len(all))
	for _, ac := range all {
		if ac.ProcessDefinitionID == processID {
			cases = append(cases, ac)
		}
	}
	return cases, nil
}

func (c *Client) currentUserID(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.userID
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	var session struct {
		UserID string `json:"user_id"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/API/system/session/unusedId", nil, &session); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.userID = session.UserID
	c.mu.Unlock()
	return session.UserID, nil
}
