// Package api exposes collections over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/domain"
)

// Service is what the handlers need from the collector.
type Service interface {
	Collect(ctx context.Context, req domain.CollectionRequest) domain.CollectionResult
	Filtered(ctx context.Context, company string, firstParty, relevant *bool) ([]domain.URLRecord, error)
	Companies(ctx context.Context) ([]string, error)
}

type URLHandler struct {
	service Service
	logger  infralogger.Logger
}

func NewURLHandler(service Service, log infralogger.Logger) *URLHandler {
	if log == nil {
		log = infralogger.NewNop()
	}
	return &URLHandler{
		service: service,
		logger:  log,
	}
}

// collectRequest uses pointers so absent fields can be told apart.
type collectRequest struct {
	CompanyName *string `json:"company_name"`
	CompanyURL  *string `json:"company_url"`
	Duration    *string `json:"duration"`
}

func (r collectRequest) complete() bool {
	return r.CompanyName != nil && *r.CompanyName != "" &&
		r.CompanyURL != nil && *r.CompanyURL != "" &&
		r.Duration != nil
}

// Collect runs one collection. Failed collections answer with a status
// derived from the error kind.
func (h *URLHandler) Collect(c *gin.Context) {
	h.collect(c, true)
}

// CollectLegacy answers 200 for every collection that was attempted, with
// failures reported in the body.
func (h *URLHandler) CollectLegacy(c *gin.Context) {
	h.collect(c, false)
}

func (h *URLHandler) collect(c *gin.Context, statusFromKind bool) {
	log := infralogger.FromContext(c.Request.Context())

	var body collectRequest
	if err := c.ShouldBindJSON(&body); err != nil || !body.complete() {
		if err != nil {
			log.Debug("Invalid collect request body", infralogger.Error(err))
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	duration, err := domain.ParseDuration(*body.Duration)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid duration. Must be one of: " + strings.Join(domain.DurationNames(), ", "),
		})
		return
	}

	res := h.service.Collect(c.Request.Context(), domain.CollectionRequest{
		CompanyName: *body.CompanyName,
		CompanyURL:  *body.CompanyURL,
		Duration:    duration,
	})

	status := http.StatusOK
	if statusFromKind && !res.Success {
		status = StatusForKind(res.ErrorKind)
	}
	c.JSON(status, res)
}

// StatusForKind maps a collection error kind to an HTTP status.
func StatusForKind(kind domain.ErrorKind) int {
	switch kind {
	case "":
		return http.StatusOK
	case domain.KindSearchUnavailable, domain.KindMalformedResponse:
		return http.StatusBadGateway
	case domain.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// URLs returns a company's stored URLs, optionally filtered by the
// is_first_party and is_relevant query parameters.
func (h *URLHandler) URLs(c *gin.Context) {
	company := c.Param("company")

	firstParty, err := boolQuery(c, "is_first_party")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	relevant, err := boolQuery(c, "is_relevant")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	urls, err := h.service.Filtered(c.Request.Context(), company, firstParty, relevant)
	if err != nil {
		h.logger.Error("Failed to load stored URLs",
			infralogger.String("company", company),
			infralogger.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to load stored URLs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"company": company,
		"urls":    urls,
		"count":   len(urls),
	})
}

// Companies lists the stored company keys.
func (h *URLHandler) Companies(c *gin.Context) {
	companies, err := h.service.Companies(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list companies", infralogger.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to list companies"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"companies": companies,
		"count":     len(companies),
	})
}

func boolQuery(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", name)
	}
	return &v, nil
}
