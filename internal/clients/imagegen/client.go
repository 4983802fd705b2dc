// Package imagegen calls the external AI image endpoint that illustrates
// learning concepts. One request, one answer: failures come back classified
// for the UI, and retrying is always a manual user action, never automatic.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/menttor/menttor-backend/internal/platform/logger"
)

// genTimeoutCap is the hard ceiling on one generation call. The env knob
// can shorten it, never extend it.
const genTimeoutCap = 45 * time.Second

type Class string

const (
	ClassTimeout     Class = "timeout"
	ClassNetwork     Class = "network"
	ClassUnavailable Class = "unavailable"
	ClassAuth        Class = "auth"
	ClassServer      Class = "server"
	ClassInvalid     Class = "invalid"
)

// Retryable reports whether a manual retry has a chance of succeeding.
func (c Class) Retryable() bool {
	switch c {
	case ClassAuth, ClassInvalid:
		return false
	}
	return true
}

// Message is the user-facing line handlers attach to a failed generation.
func (c Class) Message() string {
	switch c {
	case ClassTimeout:
		return "Image generation timed out. Try again."
	case ClassNetwork:
		return "Could not reach the image service. Check your connection and try again."
	case ClassUnavailable:
		return "The image service is briefly unavailable. Try again in a moment."
	case ClassAuth:
		return "Image generation is not authorized for this account."
	case ClassInvalid:
		return "The image request was rejected."
	default:
		return "The image service hit an error. Try again."
	}
}

// Error is a classified generation failure. Status is set for HTTP-level
// failures, zero for transport ones.
type Error struct {
	Class  Class
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("imagegen %s (http %d): %v", e.Class, e.Status, e.Err)
	}
	return fmt.Sprintf("imagegen %s: %v", e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Request struct {
	Concept string `json:"concept"`
	Subject string `json:"subject"`
	Style   string `json:"style,omitempty"`
}

type Image struct {
	URL     string `json:"url"`
	Prompt  string `json:"prompt"`
	Model   string `json:"model"`
	Concept string `json:"concept"`
	Subject string `json:"subject"`
}

type Client interface {
	Generate(ctx context.Context, req Request) (Image, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimSpace(os.Getenv("IMAGEGEN_BASE_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("missing IMAGEGEN_BASE_URL")
	}
	baseURL = strings.TrimRight(baseURL, "/")
	apiKey := strings.TrimSpace(os.Getenv("IMAGEGEN_API_KEY"))

	timeout := genTimeoutCap
	if v := strings.TrimSpace(os.Getenv("IMAGEGEN_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && time.Duration(parsed)*time.Second < genTimeoutCap {
			timeout = time.Duration(parsed) * time.Second
		}
	}

	return &client{
		log:        log.With("service", "ImageGenClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: genTimeoutCap},
		timeout:    timeout,
	}, nil
}

func (c *client) Generate(ctx context.Context, req Request) (Image, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return Image{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images/generate", &buf)
	if err != nil {
		return Image{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Image{}, c.classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, c.classifyTransport(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		cls := classifyStatus(resp.StatusCode)
		c.log.Warn("image generation failed",
			"status", resp.StatusCode,
			"class", string(cls),
			"concept", req.Concept,
		)
		return Image{}, &Error{Class: cls, Status: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(raw)))}
	}

	var img Image
	if err := json.Unmarshal(raw, &img); err != nil {
		return Image{}, &Error{Class: ClassServer, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if img.URL == "" {
		return Image{}, &Error{Class: ClassServer, Status: resp.StatusCode, Err: errors.New("response missing url")}
	}
	if img.Concept == "" {
		img.Concept = req.Concept
	}
	if img.Subject == "" {
		img.Subject = req.Subject
	}
	return img, nil
}

// classifyTransport sorts a transport failure into timeout vs network. A
// cancellation from the caller passes through untouched so it is not
// reported as a service failure.
func (c *client) classifyTransport(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() == context.Canceled {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Class: ClassTimeout, Err: err}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &Error{Class: ClassTimeout, Err: err}
	}
	return &Error{Class: ClassNetwork, Err: err}
}

func classifyStatus(status int) Class {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ClassAuth
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		return ClassUnavailable
	case status >= 500:
		return ClassServer
	default:
		return ClassInvalid
	}
}
