package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/fintera-rentals/internal/jobs"
	"github.com/sjperalta/fintera-rentals/internal/middleware"
	"github.com/sjperalta/fintera-rentals/internal/services"
)

// RunRequest is the body of a recognition run request
type RunRequest struct {
	ContractID string `json:"contract_id"`
	AsOf       string `json:"as_of"` // YYYY-MM-DD, defaults to today
}

type RecognitionHandler struct {
	jobSvc   *services.RecognitionJobService
	worker   *jobs.Worker
	location *time.Location
}

func NewRecognitionHandler(jobSvc *services.RecognitionJobService, worker *jobs.Worker, location *time.Location) *RecognitionHandler {
	return &RecognitionHandler{jobSvc: jobSvc, worker: worker, location: location}
}

// @Summary Run Revenue Recognition
// @Description Recognises outstanding daily revenue and VAT for all active contracts, or one contract.
// @Description Returns 200 when every contract succeeded or was skipped and 207 when some contracts failed.
// @Description A contract is skipped only when both its revenue and VAT days are fully recognised; a contract whose VAT days lag its revenue days has the missing VAT days posted.
// @Tags Recognition
// @Accept json
// @Produce json
// @Param run body RunRequest false "Run options"
// @Success 200 {object} services.RunSummary
// @Success 207 {object} services.RunSummary
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]interface{}
// @Security BearerAuth
// @Router /recognition/runs [post]
func (h *RecognitionHandler) Run(c *gin.Context) {
	opts, ok := h.bindRunOptions(c)
	if !ok {
		return
	}

	summary, err := h.jobSvc.Run(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": summary})
		return
	}

	status := http.StatusOK
	if summary.Errors > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, summary)
}

// @Summary Trigger Revenue Recognition
// @Description Entry point for external schedulers, authenticated with X-API-Key.
// @Description With async=true the run is queued and 202 is returned immediately.
// @Description A contract is skipped only when both its revenue and VAT days are fully recognised; a contract whose VAT days lag its revenue days has the missing VAT days posted.
// @Tags Recognition
// @Accept json
// @Produce json
// @Param run body RunRequest false "Run options"
// @Param async query bool false "Queue the run instead of waiting for it"
// @Success 200 {object} services.RunSummary
// @Success 202 {object} map[string]string
// @Success 207 {object} services.RunSummary
// @Failure 401 {object} map[string]string
// @Router /internal/recognition/runs [post]
func (h *RecognitionHandler) Trigger(c *gin.Context) {
	if c.Query("async") != "true" || h.worker == nil {
		h.Run(c)
		return
	}

	opts, ok := h.bindRunOptions(c)
	if !ok {
		return
	}

	h.worker.EnqueueAsync("recognition", func(ctx context.Context) error {
		summary, err := h.jobSvc.Run(ctx, opts)
		if err != nil {
			return err
		}
		if summary.Errors > 0 {
			return fmt.Errorf("%d contract(s) failed", summary.Errors)
		}
		return nil
	})

	c.JSON(http.StatusAccepted, gin.H{"message": "recognition run queued"})
}

func (h *RecognitionHandler) bindRunOptions(c *gin.Context) (services.RunOptions, bool) {
	var req RunRequest
	if err := BindNestedOrFlat(c, "run", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return services.RunOptions{}, false
	}
	if req.ContractID != "" && !validContractID(req.ContractID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contract_id must be a UUID"})
		return services.RunOptions{}, false
	}
	asOf, err := parseAsOf(req.AsOf, h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return services.RunOptions{}, false
	}

	return services.RunOptions{
		ContractID: req.ContractID,
		AsOf:       asOf,
		Actor:      middleware.GetActor(c),
	}, true
}
