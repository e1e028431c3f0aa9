package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wmorato/ZapSign/cmd/api/internal/services"
	"github.com/wmorato/ZapSign/middlewares"
	"github.com/wmorato/ZapSign/pkg/types"
)

type DocumentHandler struct {
	service *services.DocumentService
}

func NewDocumentHandler(service *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

func (h *DocumentHandler) Create(c *gin.Context) {
	companyID, ok := middlewares.CompanyID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing company context"})
		return
	}

	var req types.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.service.Create(c.Request.Context(), companyID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	companyID, ok := middlewares.CompanyID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing company context"})
		return
	}

	docs, err := h.service.List(companyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	companyID, _ := middlewares.CompanyID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	doc, err := h.service.Get(c.Request.Context(), companyID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) Update(c *gin.Context) {
	companyID, _ := middlewares.CompanyID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req types.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.service.Update(c.Request.Context(), companyID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	companyID, _ := middlewares.CompanyID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), companyID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) Sync(c *gin.Context) {
	companyID, _ := middlewares.CompanyID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.service.ManualSync(c.Request.Context(), companyID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.Success(result, "document synchronized"))
}

func (h *DocumentHandler) DownloadLink(c *gin.Context) {
	companyID, _ := middlewares.CompanyID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	link, err := h.service.DownloadLink(c.Request.Context(), companyID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signed_file_url": link})
}

func (h *DocumentHandler) DownloadFile(c *gin.Context) {
	companyID, _ := middlewares.CompanyID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	data, err := h.service.DownloadPDF(c.Request.Context(), companyID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", data)
}
