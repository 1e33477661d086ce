package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/podryad/internal/apperr"
	"github.com/nurpe/podryad/internal/http/middleware"
	"github.com/nurpe/podryad/internal/service"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	templates *service.TemplateService
	documents *service.DocumentService
	log       zerolog.Logger
}

func NewHandler(templates *service.TemplateService, documents *service.DocumentService, log zerolog.Logger) *Handler {
	return &Handler{templates: templates, documents: documents, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)

	protected.GET("/contract-types", h.listContractTypes)

	protected.GET("/contract-templates", h.listContractTemplates)
	protected.POST("/contract-templates", h.createContractTemplate)
	protected.GET("/contract-templates/:id", h.getContractTemplate)
	protected.DELETE("/contract-templates/:id", h.deleteContractTemplate)
	protected.GET("/contract-templates/:id/dependents", h.countDependents)
	protected.POST("/contract-templates/:id/work-services", h.addWorkService)
	protected.DELETE("/contract-templates/:id/work-services/:position", h.removeWorkService)

	protected.POST("/act-templates", h.createActTemplate)
	protected.GET("/act-templates/:id", h.getActTemplate)
	protected.PUT("/act-templates/:id/costs", h.updateActTemplateCosts)
	protected.PUT("/act-templates/:id/total", h.setActTemplateTotal)
	protected.DELETE("/act-templates/:id", h.deleteActTemplate)

	protected.POST("/documents/preview", h.preview)

	protected.GET("/contracts/next-number", h.nextContractNumber)
	protected.POST("/contracts", h.createContract)
	protected.GET("/contracts/:id", h.getContract)
	protected.GET("/contracts/:id/acts", h.listActs)
	protected.GET("/contracts/:id/acts/next-number", h.nextActNumber)
	protected.POST("/contracts/:id/acts", h.createAct)

	protected.GET("/acts/:id", h.getAct)
	protected.GET("/acts/:id/pdf", h.actPDF)
	protected.GET("/acts/:id/xlsx", h.actXLSX)
}

func (h *Handler) listContractTypes(c *gin.Context) {
	types := h.templates.ContractTypes()
	result := make([]contractTypeResponse, 0, len(types))
	for _, t := range types {
		result = append(result, toContractTypeResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *Handler) listContractTemplates(c *gin.Context) {
	summaries, err := h.templates.ListContractTemplates(c.Request.Context(), c.Query("contract_type"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	result := make([]contractTemplateResponse, 0, len(summaries))
	for _, s := range summaries {
		item := toContractTemplateResponse(s.ContractTemplate)
		count := s.DependentCount
		item.DependentCount = &count
		item.NoPricedWork = s.NoPricedWork
		result = append(result, item)
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

type createContractTemplateRequest struct {
	Name         string   `json:"name" binding:"required"`
	ContractType string   `json:"contract_type" binding:"required"`
	WorkServices []string `json:"work_services" binding:"required"`
}

func (h *Handler) createContractTemplate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req createContractTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.templates.CreateContractTemplate(c.Request.Context(), service.CreateContractTemplateInput{
		Name:             req.Name,
		ContractType:     req.ContractType,
		WorkServiceNames: req.WorkServices,
		Principal:        principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"template":  toContractTemplateResponse(result.Template),
		"companion": toActTemplateResponse(result.Companion),
	})
}

func (h *Handler) getContractTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tpl, err := h.templates.GetContractTemplate(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractTemplateResponse(*tpl))
}

func (h *Handler) deleteContractTemplate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.templates.DeleteContractTemplate(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) countDependents(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	count, err := h.templates.CountDependents(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dependent_count": count})
}

type addWorkServiceRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) addWorkService(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req addWorkServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tpl, err := h.templates.AddWorkServiceName(c.Request.Context(), id, req.Name, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractTemplateResponse(*tpl))
}

func (h *Handler) removeWorkService(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	// positions are 1-based in the API
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil || position < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position"})
		return
	}
	tpl, err := h.templates.RemoveWorkServiceName(c.Request.Context(), id, position-1, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractTemplateResponse(*tpl))
}

type createActTemplateRequest struct {
	Name               string            `json:"name" binding:"required"`
	ContractTemplateID string            `json:"contract_template_id" binding:"required"`
	UnitCosts          []decimal.Decimal `json:"unit_costs"`
	TotalCost          *decimal.Decimal  `json:"total_cost"`
}

func (h *Handler) createActTemplate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req createActTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contractTemplateID, err := uuid.Parse(strings.TrimSpace(req.ContractTemplateID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract_template_id"})
		return
	}

	at, err := h.templates.CreateActTemplate(c.Request.Context(), service.CreateActTemplateInput{
		Name:               req.Name,
		ContractTemplateID: contractTemplateID,
		UnitCosts:          req.UnitCosts,
		TotalCost:          req.TotalCost,
		Principal:          principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toActTemplateResponse(*at))
}

func (h *Handler) getActTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	at, err := h.templates.GetActTemplate(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toActTemplateResponse(*at))
}

type updateCostsRequest struct {
	UnitCosts []decimal.Decimal `json:"unit_costs" binding:"required"`
}

func (h *Handler) updateActTemplateCosts(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateCostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	at, err := h.templates.UpdateActTemplateCosts(c.Request.Context(), id, req.UnitCosts, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toActTemplateResponse(*at))
}

type setTotalRequest struct {
	TotalCost *decimal.Decimal `json:"total_cost" binding:"required"`
}

func (h *Handler) setActTemplateTotal(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setTotalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	at, err := h.templates.SetActTemplateTotal(c.Request.Context(), id, *req.TotalCost, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toActTemplateResponse(*at))
}

func (h *Handler) deleteActTemplate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.templates.DeleteActTemplate(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type lineRequest struct {
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

func toLineRequests(lines []lineRequest) []service.LineRequest {
	result := make([]service.LineRequest, 0, len(lines))
	for _, l := range lines {
		result = append(result, service.LineRequest{Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return result
}

type previewRequest struct {
	ContractType string        `json:"contract_type" binding:"required"`
	Lines        []lineRequest `json:"lines"`
}

func (h *Handler) preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.documents.Preview(c.Request.Context(), service.PreviewInput{
		ContractType: req.ContractType,
		Lines:        toLineRequests(req.Lines),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"contract_type": result.ContractType,
		"unit_label":    result.UnitLabel,
		"lines":         toLineResponses(result.Lines),
		"total_amount":  result.Total.StringFixed(2),
		"amount_words":  result.AmountWords,
	})
}

func (h *Handler) nextContractNumber(c *gin.Context) {
	date := time.Time{}
	if raw := c.Query("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		date = parsed
	}
	number, err := h.documents.PreviewContractNumber(c.Request.Context(), c.Query("unit_code"), date)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"number": number})
}

type createContractRequest struct {
	ContractTemplateID string        `json:"contract_template_id" binding:"required"`
	ActTemplateID      string        `json:"act_template_id"`
	UnitCode           string        `json:"unit_code" binding:"required"`
	ContractorName     string        `json:"contractor_name" binding:"required"`
	Date               string        `json:"date"`
	Lines              []lineRequest `json:"lines"`
}

func (h *Handler) createContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	templateID, err := uuid.Parse(strings.TrimSpace(req.ContractTemplateID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract_template_id"})
		return
	}
	var actTemplateID *uuid.UUID
	if strings.TrimSpace(req.ActTemplateID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(req.ActTemplateID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid act_template_id"})
			return
		}
		actTemplateID = &parsed
	}
	var date time.Time
	if req.Date != "" {
		if date, err = parseDate(req.Date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
	}

	contract, err := h.documents.CreateContract(c.Request.Context(), service.CreateContractInput{
		ContractTemplateID: templateID,
		ActTemplateID:      actTemplateID,
		UnitCode:           req.UnitCode,
		ContractorName:     req.ContractorName,
		Date:               date,
		Lines:              toLineRequests(req.Lines),
		Principal:          principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toContractResponse(*contract))
}

func (h *Handler) getContract(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	contract, err := h.documents.GetContract(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractResponse(*contract))
}

func (h *Handler) listActs(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	acts, err := h.documents.ListActs(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	result := make([]actResponse, 0, len(acts))
	for _, act := range acts {
		result = append(result, toActResponse(act))
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *Handler) nextActNumber(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	number, err := h.documents.PreviewActNumber(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"number": number})
}

type createActRequest struct {
	ActTemplateID string        `json:"act_template_id" binding:"required"`
	Lines         []lineRequest `json:"lines"`
}

func (h *Handler) createAct(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req createActRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actTemplateID, err := uuid.Parse(strings.TrimSpace(req.ActTemplateID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid act_template_id"})
		return
	}

	act, err := h.documents.CreateAct(c.Request.Context(), service.CreateActInput{
		ContractID:    contractID,
		ActTemplateID: actTemplateID,
		Lines:         toLineRequests(req.Lines),
		Principal:     principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toActResponse(*act))
}

func (h *Handler) getAct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.documents.GetAct(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	resp := toActResponse(doc.Act)
	c.JSON(http.StatusOK, gin.H{
		"act":           resp,
		"contract":      toContractResponse(doc.Contract),
		"contract_type": doc.ContractType.Code,
		"unit_label":    doc.UnitLabel,
		"amount_words":  doc.AmountWords,
	})
}

func (h *Handler) actPDF(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.documents.RenderActPDF(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentTypePDF, result.Content)
}

func (h *Handler) actXLSX(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.documents.ExportActXLSX(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentTypeXLSX, result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	if conflict, ok := apperr.AsConflict(err); ok {
		body := gin.H{
			"error":           conflict.Error(),
			"reason":          conflict.Reason,
			"dependent_count": conflict.DependentCount,
		}
		if len(conflict.DependentIDs) > 0 {
			body["dependent_ids"] = conflict.DependentIDs
		}
		if conflict.RedirectTemplateID != nil {
			body["redirect_template_id"] = conflict.RedirectTemplateID.String()
		}
		c.JSON(http.StatusConflict, body)
		return
	}

	switch {
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrRetryExhausted):
		h.log.Warn().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("numbering contention")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": apperr.ErrRetryExhausted.Error()})
	default:
		h.log.Error().Err(err).
			Str("request_id", middleware.GetRequestID(c)).
			Str("path", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"02.01.2006",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, apperr.Validation("invalid date %q", raw)
}
