package utils

import (
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// MaxFileSize is 10MB in bytes
const MaxFileSize = 10 * 1024 * 1024

var (
	// AllowedImageFormats are the extensions accepted for product images
	AllowedImageFormats = []string{".png", ".jpg", ".jpeg", ".webp"}
	// AllowedReceiptFormats are the extensions accepted for service receipts
	AllowedReceiptFormats = []string{".png", ".jpg", ".jpeg", ".webp", ".pdf"}
)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImageFile validates the uploaded product image format and size
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	return validateUpload(fileHeader, AllowedImageFormats)
}

// ValidateReceiptFile validates the uploaded receipt format and size
func ValidateReceiptFile(fileHeader *multipart.FileHeader) error {
	return validateUpload(fileHeader, AllowedReceiptFormats)
}

func validateUpload(fileHeader *multipart.FileHeader, allowed []string) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return &FileUploadError{
		Code:    "INVALID_FILE_FORMAT",
		Message: fmt.Sprintf("Only %s files are allowed", strings.Join(allowed, ", ")),
	}
}

// ContentType guesses the MIME type of a stored file from its extension
func ContentType(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	return "application/octet-stream"
}

// ProductImageURL returns the API path serving a product's image, or "" when
// the product has none
func ProductImageURL(productID uint, imagePath string) string {
	if imagePath == "" {
		return ""
	}
	return fmt.Sprintf("/api/v1/products/%d/image", productID)
}

// ReceiptURL returns the API path serving a service receipt, or "" when the
// service has none
func ReceiptURL(serviceID uint, receiptPath string) string {
	if receiptPath == "" {
		return ""
	}
	return fmt.Sprintf("/api/v1/supplier-services/%d/receipt", serviceID)
}
