package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"insurance-service/internal/event"
	"insurance-service/internal/models"
	"insurance-service/internal/services"
	"insurance-service/utils"

	"github.com/gin-gonic/gin"
)

// AuditLogger receives one outcome event per handled action.
type AuditLogger interface {
	Log(ctx context.Context, ev event.AuditEvent) error
}

type TariffHandler struct {
	insuranceService services.IInsuranceService
	auditLogger      AuditLogger
}

func NewTariffHandler(insuranceService services.IInsuranceService, auditLogger AuditLogger) *TariffHandler {
	return &TariffHandler{
		insuranceService: insuranceService,
		auditLogger:      auditLogger,
	}
}

func (h *TariffHandler) RegisterRoutes(router *gin.Engine) {
	insuranceGr := router.Group("/insurance/api/v1")
	insuranceGr.GET("/ping", h.Ping)
	insuranceGr.POST("/tariff", h.AddTariffs)
	insuranceGr.DELETE("/tariff", h.DeleteTariff)
	insuranceGr.PUT("/tariff", h.UpdateTariff)
	insuranceGr.GET("/calculate_insurance", h.CalculateInsurance)
}

func (h *TariffHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, utils.CreateSuccessResponse("pong"))
}

func (h *TariffHandler) AddTariffs(c *gin.Context) {
	var body models.BulkTariffRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("BAD_REQUEST", "The request body must be in JSON format!"))
		return
	}

	if err := h.insuranceService.AddTariffs(body); err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", validationErr.Error()))
			return
		}
		log.Println("failed to add tariffs:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}

	h.audit(c, event.ActionAddTariff, event.StatusSuccess, body)
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse("Tariffs added to the database"))
}

func (h *TariffHandler) DeleteTariff(c *gin.Context) {
	cargoType := c.Query("cargo_type")
	date, err := models.ParseDate(c.Query("date"))
	if cargoType == "" || err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("BAD_REQUEST", "cargo_type and a valid date are required"))
		return
	}

	detail := gin.H{"cargo_type": cargoType, "date": c.Query("date")}
	deleted, err := h.insuranceService.DeleteTariff(cargoType, date)
	if err != nil {
		log.Println("failed to delete tariff:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}
	if !deleted {
		h.audit(c, event.ActionDeleteTariff, event.StatusFail, detail)
		c.JSON(http.StatusNotFound, utils.CreateErrorResponse("NOT_FOUND", "Tariff not found. Cargo type or date not valid!"))
		return
	}

	h.audit(c, event.ActionDeleteTariff, event.StatusSuccess, detail)
	c.JSON(http.StatusOK, utils.CreateSuccessResponse("Tariff deleted"))
}

func (h *TariffHandler) UpdateTariff(c *gin.Context) {
	cargoType := c.Query("cargo_type")
	date, dateErr := models.ParseDate(c.Query("date"))
	newRate, rateErr := strconv.ParseFloat(c.Query("new_rate"), 64)
	if cargoType == "" || dateErr != nil || rateErr != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("BAD_REQUEST", "cargo_type, a valid date and a numeric new_rate are required"))
		return
	}

	detail := gin.H{"cargo_type": cargoType, "date": c.Query("date"), "new_rate": newRate}
	updated, err := h.insuranceService.UpdateTariffRate(cargoType, date, newRate)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", validationErr.Error()))
			return
		}
		log.Println("failed to update tariff:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}
	if !updated {
		h.audit(c, event.ActionUpdateTariff, event.StatusFail, detail)
		c.JSON(http.StatusNotFound, utils.CreateErrorResponse("NOT_FOUND", "Tariff not found. Cargo type or date not valid!"))
		return
	}

	h.audit(c, event.ActionUpdateTariff, event.StatusSuccess, detail)
	c.JSON(http.StatusOK, utils.CreateSuccessResponse("Tariff updated"))
}

func (h *TariffHandler) CalculateInsurance(c *gin.Context) {
	cargoType := c.Query("cargo_type")
	date, dateErr := models.ParseDate(c.Query("date"))
	declaredPrice, costErr := strconv.ParseFloat(c.Query("cost"), 64)
	if cargoType == "" || dateErr != nil || costErr != nil || declaredPrice < 0 {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("BAD_REQUEST", "cargo_type, a valid date and a non-negative cost are required"))
		return
	}

	detail := gin.H{"cargo_type": cargoType, "date": c.Query("date"), "cost": declaredPrice}
	price, found, err := h.insuranceService.CalculateInsurance(cargoType, date, declaredPrice)
	if err != nil {
		log.Println("failed to calculate insurance:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}
	if !found {
		h.audit(c, event.ActionCalculateInsurance, event.StatusFail, detail)
		c.JSON(http.StatusNotFound, utils.CreateErrorResponse("NOT_FOUND", "Tariff not found. Cargo type or date not valid!"))
		return
	}

	detail["price"] = price
	h.audit(c, event.ActionCalculateInsurance, event.StatusSuccess, detail)
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{"insurance_cost": price}))
}

// audit ships the outcome event. A flush failure must not fail a request
// whose action already committed, so it is logged and the response proceeds.
func (h *TariffHandler) audit(c *gin.Context, action event.AuditAction, status event.AuditStatus, detail any) {
	ev := event.NewAuditEvent(action, status, detail, c.ClientIP())
	if err := h.auditLogger.Log(c.Request.Context(), ev); err != nil {
		log.Println("failed to ship audit event:", err)
	}
	log.Printf("audit: action=%s status=%s ip=%s", action, status, ev.UserIP)
}
