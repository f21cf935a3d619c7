// Package server exposes the estimation pipeline as a small web UI and JSON API
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/atomic"

	"github.com/bububa/calorielens/agents"
	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/presenter"
	"github.com/bububa/calorielens/schema"
)

// multipartOverhead room left for the form boundaries and the hint field
const multipartOverhead = 64 << 10

// ErrBusy returned while another estimate is in flight
var ErrBusy = errors.New("an estimate is already running, try again when it finishes")

// Runner handles one estimation request
type Runner interface {
	Run(ctx context.Context, req *agents.Request) *agents.Result
}

// Handler serves the upload form and the estimate endpoints.
// One estimate runs at a time, concurrent submissions get http.StatusTooManyRequests.
type Handler struct {
	runner   Runner
	page     presenter.Page
	maxBytes int64
	busy     *atomic.Bool
	logger   *slog.Logger
}

func NewHandler(runner Runner, page *presenter.Page, maxBytes int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		runner:   runner,
		page:     *page,
		maxBytes: maxBytes,
		busy:     atomic.NewBool(false),
		logger:   logger,
	}
}

// StatusFor maps an error kind to the HTTP status of the response
func StatusFor(kind components.ErrorKind) int {
	switch kind {
	case components.InvalidInputErrorKind:
		return http.StatusBadRequest
	case components.ProviderErrorKind, components.SchemaValidationErrorKind:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Index renders the empty upload form
func (h *Handler) Index(c *gin.Context) {
	page := h.page
	c.HTML(http.StatusOK, "index", &page)
}

// Healthz reports liveness and whether an estimate is running
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "busy": h.busy.Load()})
}

// Estimate handles the form submission and renders the result inline
func (h *Handler) Estimate(c *gin.Context) {
	page := h.page
	ret, status := h.run(c)
	page.Result = ret
	c.HTML(status, "index", &page)
}

// EstimateAPI handles a multipart upload and answers with JSON
func (h *Handler) EstimateAPI(c *gin.Context) {
	ret, status := h.run(c)
	c.JSON(status, NewResponse(ret))
}

func (h *Handler) run(c *gin.Context) (*agents.Result, int) {
	if !h.busy.CompareAndSwap(false, true) {
		return &agents.Result{Err: ErrBusy}, http.StatusTooManyRequests
	}
	defer h.busy.Store(false)
	req, err := h.readRequest(c)
	if err != nil {
		ret := &agents.Result{Err: err, Kind: components.KindOf(err)}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ret, http.StatusRequestEntityTooLarge
		}
		return ret, http.StatusBadRequest
	}
	ret := h.runner.Run(c.Request.Context(), req)
	if ret.Err != nil {
		return ret, StatusFor(ret.Kind)
	}
	return ret, http.StatusOK
}

func (h *Handler) readRequest(c *gin.Context) (*agents.Request, error) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}
	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &components.InvalidInputError{Msg: fmt.Sprintf("image is larger than %d bytes", h.maxBytes), Err: err}
		}
		return nil, &components.InvalidInputError{Msg: "form field image is required", Err: err}
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		return nil, components.NewInvalidInputError("image is larger than %d bytes", h.maxBytes)
	}
	f, err := header.Open()
	if err != nil {
		return nil, &components.InvalidInputError{Msg: "could not open upload", Err: err}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &components.InvalidInputError{Msg: "could not read upload", Err: err}
	}
	return &agents.Request{
		Data: data,
		Ext:  filepath.Ext(header.Filename),
		Hint: c.PostForm("hint"),
	}, nil
}

// ErrorBody error part of a JSON response
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	// Raw rejected model response of a schema validation failure
	Raw string `json:"raw,omitempty"`
}

// Response JSON body of the estimate API
type Response struct {
	RequestID string                    `json:"request_id,omitempty"`
	Mode      agents.Mode               `json:"mode,omitempty"`
	Provider  string                    `json:"provider,omitempty"`
	Model     string                    `json:"model,omitempty"`
	Query     string                    `json:"query,omitempty"`
	Estimate  *schema.NutritionEstimate `json:"estimate,omitempty"`
	Facts     []schema.NutritionFacts   `json:"facts,omitempty"`
	Warnings  []string                  `json:"warnings,omitempty"`
	Usage     *components.LLMUsage      `json:"usage,omitempty"`
	ElapsedMs int64                     `json:"elapsed_ms"`
	Error     *ErrorBody                `json:"error,omitempty"`
}

func NewResponse(r *agents.Result) *Response {
	ret := &Response{
		RequestID: r.RequestID,
		Mode:      r.Mode,
		Provider:  r.Provider,
		Model:     r.Model,
		Query:     r.Query,
		Usage:     r.Usage,
		ElapsedMs: r.Elapsed.Milliseconds(),
	}
	if r.Err != nil {
		ret.Error = &ErrorBody{
			Kind:    r.Kind.String(),
			Message: r.Err.Error(),
			Raw:     presenter.RawResponse(r.Err),
		}
		return ret
	}
	ret.Estimate = r.Estimate
	ret.Facts = r.Facts
	ret.Warnings = presenter.Warnings(r.Estimate)
	return ret
}

// NewRouter registers the routes of h
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), accessLog(h.logger))
	router.SetHTMLTemplate(presenter.Templates)
	if h.maxBytes > 0 {
		router.MaxMultipartMemory = h.maxBytes
	}
	router.GET("/", h.Index)
	router.GET("/healthz", h.Healthz)
	router.POST("/estimate", h.Estimate)
	api := router.Group("/api")
	{
		api.POST("/estimate", h.EstimateAPI)
	}
	return router
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
