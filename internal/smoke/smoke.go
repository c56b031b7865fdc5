// Package smoke runs an end-to-end check sequence against a deployed
// instance of the item API.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/yigityildirimoglu/jenkins-demo/internal/model"
)

// DefaultTimeout bounds a single HTTP request made by a check.
const DefaultTimeout = 10 * time.Second

// Smoke check errors.
var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrUnexpectedBody   = errors.New("unexpected response body")
	ErrNoItem           = errors.New("no item was created by an earlier check")
)

// Check names in execution order.
const (
	CheckRoot       = "root"
	CheckHealth     = "health"
	CheckCreate     = "create"
	CheckGet        = "get"
	CheckList       = "list"
	CheckUpdate     = "update"
	CheckDelete     = "delete"
	CheckGetDeleted = "get-deleted"
	CheckValidation = "validation"
)

const (
	smokeItemName     = "smoke-test-item"
	smokeItemUpdated  = "smoke-test-item-updated"
	smokeItemPrice    = 9.99
	smokeItemRepriced = 19.99
)

// Result is the outcome of a single check.
type Result struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Report is the outcome of a full run.
type Report struct {
	BaseURL  string        `json:"base_url"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Results  []Result      `json:"results"`
}

// Passed reports whether every check passed.
func (r Report) Passed() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Failed returns the results of the checks that did not pass.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// check is one step of the sequence. Steps share the run state.
type check struct {
	name string
	run  func(ctx context.Context, st *runState) error
}

// runState carries values between checks of a single run.
type runState struct {
	itemID int
}

// Runner executes the smoke check sequence.
type Runner struct {
	baseURL string
	client  *resty.Client
	logger  *zap.Logger
}

// NewRunner creates a Runner for the API served at baseURL.
func NewRunner(baseURL string, timeout time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := strings.TrimSuffix(baseURL, "/")

	client := resty.New()
	client.
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Runner{
		baseURL: base,
		client:  client,
		logger:  logger,
	}
}

// Run executes every check in order and returns the report.
// A failing check does not stop the run.
func (r *Runner) Run(ctx context.Context) Report {
	report := Report{
		BaseURL: r.baseURL,
		Started: time.Now().UTC(),
	}

	st := &runState{}
	for _, c := range r.checks() {
		start := time.Now()
		err := c.run(ctx, st)
		res := Result{
			Name:     c.name,
			Passed:   err == nil,
			Duration: time.Since(start),
		}

		if err != nil {
			res.Error = err.Error()
			r.logger.Warn("smoke check failed",
				zap.String("check", c.name),
				zap.Duration("duration", res.Duration),
				zap.Error(err),
			)
		} else {
			r.logger.Debug("smoke check passed",
				zap.String("check", c.name),
				zap.Duration("duration", res.Duration),
			)
		}

		report.Results = append(report.Results, res)
	}

	report.Duration = time.Since(report.Started)

	r.logger.Info("smoke run finished",
		zap.String("base_url", r.baseURL),
		zap.Bool("passed", report.Passed()),
		zap.Int("checks", len(report.Results)),
		zap.Int("failed", len(report.Failed())),
		zap.Duration("duration", report.Duration),
	)

	return report
}

func (r *Runner) checks() []check {
	return []check{
		{CheckRoot, r.checkRoot},
		{CheckHealth, r.checkHealth},
		{CheckCreate, r.checkCreate},
		{CheckGet, r.checkGet},
		{CheckList, r.checkList},
		{CheckUpdate, r.checkUpdate},
		{CheckDelete, r.checkDelete},
		{CheckGetDeleted, r.checkGetDeleted},
		{CheckValidation, r.checkValidation},
	}
}

func (r *Runner) checkRoot(ctx context.Context, _ *runState) error {
	return r.expectHealth(ctx, "/", "ok")
}

func (r *Runner) checkHealth(ctx context.Context, _ *runState) error {
	return r.expectHealth(ctx, "/health", "healthy")
}

func (r *Runner) expectHealth(ctx context.Context, path, wantStatus string) error {
	result := new(model.HealthResponse)

	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(result).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	if result.Status != wantStatus {
		return fmt.Errorf("%w: status %q, want %q", ErrUnexpectedBody, result.Status, wantStatus)
	}

	return nil
}

func (r *Runner) checkCreate(ctx context.Context, st *runState) error {
	result := new(model.Item)

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"name":        smokeItemName,
			"description": "created by smoke test",
			"price":       smokeItemPrice,
		}).
		SetResult(result).
		Post("/items")
	if err != nil {
		return fmt.Errorf("POST /items: %w", err)
	}
	if err := expectStatus(resp, http.StatusCreated); err != nil {
		return err
	}
	if result.ID <= 0 || result.Name != smokeItemName || !result.InStock {
		return fmt.Errorf("%w: created item %+v", ErrUnexpectedBody, *result)
	}

	st.itemID = result.ID
	return nil
}

func (r *Runner) checkGet(ctx context.Context, st *runState) error {
	if st.itemID == 0 {
		return ErrNoItem
	}

	result := new(model.Item)

	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(result).
		Get(itemPath(st.itemID))
	if err != nil {
		return fmt.Errorf("GET %s: %w", itemPath(st.itemID), err)
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	if result.ID != st.itemID || result.Name != smokeItemName {
		return fmt.Errorf("%w: fetched item %+v", ErrUnexpectedBody, *result)
	}

	return nil
}

func (r *Runner) checkList(ctx context.Context, st *runState) error {
	var result []model.Item

	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/items")
	if err != nil {
		return fmt.Errorf("GET /items: %w", err)
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	if st.itemID == 0 {
		return nil
	}
	for _, item := range result {
		if item.ID == st.itemID {
			return nil
		}
	}

	return fmt.Errorf("%w: item %d missing from list", ErrUnexpectedBody, st.itemID)
}

func (r *Runner) checkUpdate(ctx context.Context, st *runState) error {
	if st.itemID == 0 {
		return ErrNoItem
	}

	result := new(model.Item)

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"name":     smokeItemUpdated,
			"price":    smokeItemRepriced,
			"in_stock": false,
		}).
		SetResult(result).
		Put(itemPath(st.itemID))
	if err != nil {
		return fmt.Errorf("PUT %s: %w", itemPath(st.itemID), err)
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	if result.ID != st.itemID || result.Name != smokeItemUpdated ||
		result.Price != smokeItemRepriced || result.InStock {
		return fmt.Errorf("%w: updated item %+v", ErrUnexpectedBody, *result)
	}

	return nil
}

func (r *Runner) checkDelete(ctx context.Context, st *runState) error {
	if st.itemID == 0 {
		return ErrNoItem
	}

	result := new(model.MessageResponse)

	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(result).
		Delete(itemPath(st.itemID))
	if err != nil {
		return fmt.Errorf("DELETE %s: %w", itemPath(st.itemID), err)
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	want := fmt.Sprintf("Item %d deleted successfully", st.itemID)
	if result.Message != want {
		return fmt.Errorf("%w: message %q, want %q", ErrUnexpectedBody, result.Message, want)
	}

	return nil
}

func (r *Runner) checkGetDeleted(ctx context.Context, st *runState) error {
	if st.itemID == 0 {
		return ErrNoItem
	}

	apiErr := new(model.ErrorResponse)

	resp, err := r.client.R().
		SetContext(ctx).
		SetError(apiErr).
		Get(itemPath(st.itemID))
	if err != nil {
		return fmt.Errorf("GET %s: %w", itemPath(st.itemID), err)
	}
	if err := expectStatus(resp, http.StatusNotFound); err != nil {
		return err
	}
	if apiErr.Detail != "Item not found" {
		return fmt.Errorf("%w: detail %q", ErrUnexpectedBody, apiErr.Detail)
	}

	return nil
}

func (r *Runner) checkValidation(ctx context.Context, _ *runState) error {
	apiErr := new(model.ValidationErrorResponse)

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"name":  smokeItemName,
			"price": "not_a_number",
		}).
		SetError(apiErr).
		Post("/items")
	if err != nil {
		return fmt.Errorf("POST /items: %w", err)
	}
	if err := expectStatus(resp, http.StatusUnprocessableEntity); err != nil {
		return err
	}
	if len(apiErr.Detail) == 0 || apiErr.Detail[0].Type != model.ErrTypeFloatParsing {
		return fmt.Errorf("%w: validation detail %+v", ErrUnexpectedBody, apiErr.Detail)
	}

	return nil
}

func expectStatus(resp *resty.Response, want int) error {
	if resp.StatusCode() != want {
		return fmt.Errorf("%w: %s %s got %d, want %d",
			ErrUnexpectedStatus, resp.Request.Method, resp.Request.URL, resp.StatusCode(), want)
	}
	return nil
}

func itemPath(id int) string {
	return fmt.Sprintf("/items/%d", id)
}
