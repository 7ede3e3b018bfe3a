package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/fintera-rentals/internal/middleware"
	"github.com/sjperalta/fintera-rentals/internal/models"
	"github.com/sjperalta/fintera-rentals/internal/repository"
	"github.com/sjperalta/fintera-rentals/internal/services"
)

type ContractHandler struct {
	contractService *services.ContractService
	exportService   *services.ExportService
	location        *time.Location
}

func NewContractHandler(contractService *services.ContractService, exportService *services.ExportService, location *time.Location) *ContractHandler {
	return &ContractHandler{contractService: contractService, exportService: exportService, location: location}
}

// @Summary List Contracts
// @Description Get a paginated list of rental contracts
// @Tags Contracts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Contract number search"
// @Param status query string false "Filter by status"
// @Param entity_id query string false "Filter by entity"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /contracts [get]
func (h *ContractHandler) Index(c *gin.Context) {
	query := &repository.ContractQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if query.PerPage < 1 || query.PerPage > 100 {
		query.PerPage = 20
	}
	query.Search = c.Query("search_term")
	query.Status = c.Query("status")
	query.EntityID = c.Query("entity_id")

	contracts, total, err := h.contractService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]models.ContractResponse, 0, len(contracts))
	for _, contract := range contracts {
		responses = append(responses, contract.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"contracts": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Contract
// @Description Get a contract by ID
// @Tags Contracts
// @Produce json
// @Param contract_id path string true "Contract ID"
// @Success 200 {object} models.ContractResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{contract_id} [get]
func (h *ContractHandler) Show(c *gin.Context) {
	id, ok := contractIDParam(c)
	if !ok {
		return
	}
	contract, err := h.contractService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract.ToResponse()})
}

// @Summary Contract Recognition
// @Description Recognised revenue and VAT entries of a contract plus the days still outstanding as of a date
// @Tags Recognition
// @Produce json
// @Param contract_id path string true "Contract ID"
// @Param as_of query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{contract_id}/recognition [get]
func (h *ContractHandler) Recognition(c *gin.Context) {
	id, ok := contractIDParam(c)
	if !ok {
		return
	}
	asOf, err := parseAsOf(c.Query("as_of"), h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.contractService.RecognitionStatus(c.Request.Context(), id, asOf)
	if err != nil {
		respondError(c, err)
		return
	}

	entries := make([]models.RecognitionEntryResponse, 0, len(status.Entries))
	for _, e := range status.Entries {
		entries = append(entries, e.ToResponse())
	}

	body := gin.H{
		"contract":           status.Contract.ToResponse(),
		"entries":            entries,
		"recognized_revenue": status.RecognizedRevenue.StringFixed(2),
		"recognized_vat":     status.RecognizedVAT.StringFixed(2),
	}
	if status.Outstanding != nil {
		body["outstanding"] = status.Outstanding
		body["outstanding_revenue"] = status.Outstanding.RevenueTotal().StringFixed(2)
		body["outstanding_vat"] = status.Outstanding.VATTotal().StringFixed(2)
	}
	if status.Note != "" {
		body["note"] = status.Note
	}
	c.JSON(http.StatusOK, body)
}

// @Summary Export Recognition Schedule
// @Description Download the recognition schedule of a contract as XLSX (default) or CSV
// @Tags Recognition
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param contract_id path string true "Contract ID"
// @Param as_of query string false "YYYY-MM-DD, defaults to today"
// @Param format query string false "xlsx or csv" default(xlsx)
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{contract_id}/recognition/export [get]
func (h *ContractHandler) Export(c *gin.Context) {
	id, ok := contractIDParam(c)
	if !ok {
		return
	}
	asOf, err := parseAsOf(c.Query("as_of"), h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		data        []byte
		filename    string
		contentType string
	)
	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		data, filename, err = h.exportService.ExportCSV(c.Request.Context(), id, asOf)
		contentType = "text/csv"
	case "xlsx":
		data, filename, err = h.exportService.ExportXLSX(c.Request.Context(), id, asOf)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be xlsx or csv"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}

// @Summary Activate Contract
// @Description Move a draft contract to active so recognition picks it up
// @Tags Contracts
// @Produce json
// @Param contract_id path string true "Contract ID"
// @Success 200 {object} models.ContractResponse
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{contract_id}/activate [post]
func (h *ContractHandler) Activate(c *gin.Context) {
	h.transition(c, h.contractService.Activate)
}

// @Summary Complete Contract
// @Description Move an active contract to completed
// @Tags Contracts
// @Produce json
// @Param contract_id path string true "Contract ID"
// @Success 200 {object} models.ContractResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{contract_id}/complete [post]
func (h *ContractHandler) Complete(c *gin.Context) {
	h.transition(c, h.contractService.Complete)
}

// @Summary Void Contract
// @Description Void a draft or active contract
// @Tags Contracts
// @Produce json
// @Param contract_id path string true "Contract ID"
// @Success 200 {object} models.ContractResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{contract_id}/void [post]
func (h *ContractHandler) Void(c *gin.Context) {
	h.transition(c, h.contractService.Void)
}

type transitionFunc func(ctx context.Context, id, actor string) (*models.Contract, error)

func (h *ContractHandler) transition(c *gin.Context, fn transitionFunc) {
	id, ok := contractIDParam(c)
	if !ok {
		return
	}
	contract, err := fn(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract.ToResponse()})
}

func contractIDParam(c *gin.Context) (string, bool) {
	id := c.Param("contract_id")
	if !validContractID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contract_id must be a UUID"})
		return "", false
	}
	return id, true
}
