package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/cmd/api/internal/services"
	"github.com/wmorato/ZapSign/middlewares"
)

type AuthHandler struct {
	service *services.CompanyService
}

func NewAuthHandler(service *services.CompanyService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) CreateCompany(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		APIToken string `json:"api_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := h.service.Create(req.Name, req.APIToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (h *AuthHandler) ListCompanies(c *gin.Context) {
	companies, err := h.service.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		CompanyID string `json:"company_id" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id must be a UUID"})
		return
	}

	user, err := h.service.RegisterUser(companyID, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// IssueAPIKey mints an automation key for the caller's own company.
func (h *AuthHandler) IssueAPIKey(c *gin.Context) {
	companyID, ok := middlewares.CompanyID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing company context"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, key, err := h.service.IssueAPIKey(companyID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"api_key": raw, "id": key.ID, "name": key.Name})
}
