package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/services"
	"github.com/kendall-kelly/workshop-manager/utils"
)

// uploadedFile reads and validates the multipart "file" field
func uploadedFile(c *gin.Context, validate func(*multipart.FileHeader) error) (*multipart.FileHeader, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "MISSING_FILE", "A file must be uploaded in the \"file\" form field")
		return nil, false
	}
	if err := validate(fileHeader); err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondFail(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return nil, false
		}
		respondError(c, err)
		return nil, false
	}
	return fileHeader, true
}

// UploadProductImage handles POST /api/v1/products/:id/image
func (h *Handler) UploadProductImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fileHeader, ok := uploadedFile(c, utils.ValidateImageFile)
	if !ok {
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		respondFail(c, http.StatusBadRequest, "INVALID_FILE", "Failed to read uploaded file")
		return
	}
	defer src.Close()

	path, err := h.Repos.Products.SetImage(c.Request.Context(), id, fileHeader.Filename, src)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"product_id": id,
		"image_path": path,
		"image_url":  utils.ProductImageURL(id, path),
	})
}

// GetProductImage handles GET /api/v1/products/:id/image
func (h *Handler) GetProductImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	product, err := h.Repos.Products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.serveStoredFile(c, h.Images, product.ImagePath, "Image not found")
}

// UploadServiceReceipt handles POST /api/v1/supplier-services/:id/receipt
func (h *Handler) UploadServiceReceipt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fileHeader, ok := uploadedFile(c, utils.ValidateReceiptFile)
	if !ok {
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		respondFail(c, http.StatusBadRequest, "INVALID_FILE", "Failed to read uploaded file")
		return
	}
	defer src.Close()

	path, err := h.Repos.SupplierServices.SetReceipt(c.Request.Context(), id, fileHeader.Filename, src)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"service_id":   id,
		"receipt_path": path,
		"receipt_url":  utils.ReceiptURL(id, path),
	})
}

// GetServiceReceipt handles GET /api/v1/supplier-services/:id/receipt
func (h *Handler) GetServiceReceipt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	svc, err := h.Repos.SupplierServices.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.serveStoredFile(c, h.Receipts, svc.ReceiptPath, "Receipt not found")
}

// serveStoredFile streams a file previously saved through store
func (h *Handler) serveStoredFile(c *gin.Context, store services.FileStore, path, missing string) {
	if store == nil || path == "" {
		respondFail(c, http.StatusNotFound, "FILE_NOT_FOUND", missing)
		return
	}

	rc, err := store.Open(c.Request.Context(), path)
	if errors.Is(err, services.ErrFileNotFound) {
		respondFail(c, http.StatusNotFound, "FILE_NOT_FOUND", missing)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, utils.ContentType(path), rc, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}
