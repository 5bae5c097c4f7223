package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/models"
)

// AllocateMaterialRequest records material used by a project
type AllocateMaterialRequest struct {
	MaterialID   uint    `json:"material_id" binding:"required"`
	QuantityUsed float64 `json:"quantity_used" binding:"required,gt=0"`
	Notes        string  `json:"notes"`
}

// ListProjects handles GET /api/v1/projects?search=
func (h *Handler) ListProjects(c *gin.Context) {
	out, err := h.Repos.Projects.List(c.Request.Context(), c.Query("search"))
	respondList(c, out, err)
}

// CreateProject handles POST /api/v1/projects
func (h *Handler) CreateProject(c *gin.Context) {
	var req models.Project
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.Repos.Projects.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusCreated, id, h.Repos.Projects.Get)
}

// GetProject handles GET /api/v1/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Projects.Get)
}

// UpdateProject handles PUT /api/v1/projects/:id
func (h *Handler) UpdateProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.Project
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Repos.Projects.Update(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Projects.Get)
}

// DeleteProject handles DELETE /api/v1/projects/:id
func (h *Handler) DeleteProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Repos.Projects.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"project_id": id})
}

// ListProjectInvoices handles GET /api/v1/projects/:id/invoices
func (h *Handler) ListProjectInvoices(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Repos.Invoices.ByProject(c.Request.Context(), id)
	respondList(c, out, err)
}

// ListProjectServices handles GET /api/v1/projects/:id/services
func (h *Handler) ListProjectServices(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Repos.SupplierServices.ByProject(c.Request.Context(), id)
	respondList(c, out, err)
}

// ListProjectExpenses handles GET /api/v1/projects/:id/expenses
func (h *Handler) ListProjectExpenses(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Repos.Expenses.ByProject(c.Request.Context(), id)
	respondList(c, out, err)
}

// ListProjectMaterials handles GET /api/v1/projects/:id/materials
func (h *Handler) ListProjectMaterials(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Repos.ProjectMaterials.ByProject(c.Request.Context(), id)
	respondList(c, out, err)
}

// AllocateProjectMaterial handles POST /api/v1/projects/:id/materials. The
// material's stock is drawn down by the quantity used.
func (h *Handler) AllocateProjectMaterial(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AllocateMaterialRequest
	if !bindJSON(c, &req) {
		return
	}
	allocID, err := h.Repos.ProjectMaterials.Allocate(c.Request.Context(), id, req.MaterialID, req.QuantityUsed, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusCreated, allocID, h.Repos.ProjectMaterials.Get)
}

// RemoveProjectMaterial handles DELETE /api/v1/project-materials/:id and
// returns the material to stock
func (h *Handler) RemoveProjectMaterial(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Repos.ProjectMaterials.Remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"project_material_id": id})
}
