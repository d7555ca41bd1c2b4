package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pathways_backend/internal/model"
	"pathways_backend/internal/protocol"
)

const maxResponseBytes = 1 << 20

// HTTPTransport talks to the assessment REST API. Every response body is checked
// against the protocol schemas before it reaches the state machine.
type HTTPTransport struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPTransport(baseURL, token string) *HTTPTransport {
	return &HTTPTransport{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  http.DefaultClient,
	}
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.Code, e.Body)
}

func (t *HTTPTransport) FetchSession(ctx context.Context, unitURI string) (protocol.SessionView, error) {
	raw, err := t.do(ctx, http.MethodGet, "/api/assessment/"+unitURI, nil)
	if err != nil {
		return protocol.SessionView{}, err
	}
	return protocol.ParseSessionView(raw)
}

func (t *HTTPTransport) SubmitAnswers(ctx context.Context, unitURI string, sub protocol.Submission) (protocol.GradeResponse, error) {
	if sub == nil {
		sub = protocol.Submission{}
	}
	body, err := json.Marshal(sub)
	if err != nil {
		return protocol.GradeResponse{}, err
	}
	raw, err := t.do(ctx, http.MethodPost, "/api/assessment/"+unitURI, body)
	if err != nil {
		return protocol.GradeResponse{}, err
	}
	return protocol.ParseGradeResponse(raw)
}

// ModuleProgress fetches a module rollup.
func (t *HTTPTransport) ModuleProgress(ctx context.Context, moduleID string) (model.ProgressSnapshot, error) {
	return t.progress(ctx, "/api/progress/module/"+moduleID)
}

// PathProgress fetches a path rollup.
func (t *HTTPTransport) PathProgress(ctx context.Context, pathID string) (model.ProgressSnapshot, error) {
	return t.progress(ctx, "/api/progress/path/"+pathID)
}

func (t *HTTPTransport) progress(ctx context.Context, path string) (model.ProgressSnapshot, error) {
	raw, err := t.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return model.ProgressSnapshot{}, err
	}
	return protocol.ParseProgress(raw)
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.Token)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}
