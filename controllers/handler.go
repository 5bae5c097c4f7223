package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/middleware"
	"github.com/kendall-kelly/workshop-manager/repository"
	"github.com/kendall-kelly/workshop-manager/services"
)

// Handler serves the workshop API over the repositories
type Handler struct {
	Repos    *repository.Repositories
	Images   services.FileStore
	Receipts services.FileStore
}

// NewHandler creates a Handler. images and receipts are used to serve stored
// files back to clients.
func NewHandler(repos *repository.Repositories, images, receipts services.FileStore) *Handler {
	return &Handler{Repos: repos, Images: images, Receipts: receipts}
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondFail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondRecord loads the record with id and answers with status
func respondRecord[T any](c *gin.Context, status int, id uint, get func(context.Context, uint) (*T, error)) {
	rec, err := get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, gin.H{
		"success": true,
		"data":    rec,
	})
}

// respondList answers with a result set and its size
func respondList[T any](c *gin.Context, out []T, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	if out == nil {
		out = []T{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    out,
		"count":   len(out),
	})
}

// respondError maps repository errors onto HTTP statuses. The wrapping
// errors are checked before ValidationError, which they may carry.
func respondError(c *gin.Context, err error) {
	var (
		dupErr   *repository.DuplicateReferenceError
		depErr   *repository.DependentRecordsError
		stockErr *repository.InsufficientStockError
		cvErr    *repository.ConstraintViolationError
		vErr     *repository.ValidationError
	)

	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondFail(c, http.StatusNotFound, "NOT_FOUND", "Record not found")
	case errors.As(err, &dupErr):
		respondFail(c, http.StatusConflict, "DUPLICATE_REFERENCE", dupErr.Error())
	case errors.As(err, &depErr):
		respondFail(c, http.StatusConflict, "HAS_DEPENDENT_RECORDS", depErr.Error())
	case errors.As(err, &stockErr):
		respondFail(c, http.StatusConflict, "INSUFFICIENT_STOCK", stockErr.Error())
	case errors.As(err, &cvErr):
		respondFail(c, http.StatusConflict, "CONSTRAINT_VIOLATION", cvErr.Error())
	case errors.As(err, &vErr):
		respondFail(c, http.StatusBadRequest, "VALIDATION_ERROR", vErr.Error())
	case repository.IsRetryable(err):
		respondFail(c, http.StatusServiceUnavailable, "DATABASE_BUSY", err.Error())
	default:
		log.Printf("ERROR: [%s] %s %s %s: %v", middleware.GetRequestID(c), middleware.Actor(c), c.Request.Method, c.Request.URL.Path, err)
		respondFail(c, http.StatusInternalServerError, "DATABASE_ERROR", "The request could not be completed")
	}
}

// bindJSON parses the request body into dst, answering 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return false
	}
	return true
}

// paramID reads a positive integer path parameter, answering 400 otherwise
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondFail(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}

// withWarnings adds reconciliation warnings to a response payload
func withWarnings(data gin.H, warnings []repository.ReconciliationWarning) gin.H {
	if len(warnings) > 0 {
		data["warnings"] = warnings
	}
	return data
}
