package api

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nutrisnap/backend/internal/middleware"
	"github.com/nutrisnap/backend/internal/models"
	"github.com/nutrisnap/backend/internal/service"
	"github.com/nutrisnap/backend/internal/storage"
)

// FoodScanner is the slice of the scanner pipeline the handler needs.
type FoodScanner interface {
	ScanPhoto(ctx context.Context, imageURL string) (string, error)
	Revise(ctx context.Context, table, changes string) (string, error)
	Advice(ctx context.Context, table string) string
}

// ScanStore caches scan results between the scan and revision/advice calls.
type ScanStore interface {
	SaveScan(ctx context.Context, scan *service.ScanResult) error
	GetScan(ctx context.Context, id string) (*service.ScanResult, error)
	UpdateScan(ctx context.Context, scan *service.ScanResult) error
}

// FoodHandler handles photo scanning, table revision, advice and the food log.
type FoodHandler struct {
	foodService *service.FoodService
	scanner     FoodScanner
	scans       ScanStore
	store       storage.Store
	local       *storage.Local
	authService *service.AuthService
	rateLimiter *middleware.RateLimiter
}

func NewFoodHandler(
	foodService *service.FoodService,
	scanner FoodScanner,
	scans ScanStore,
	store storage.Store,
	local *storage.Local,
	authService *service.AuthService,
	rateLimiter *middleware.RateLimiter,
) *FoodHandler {
	return &FoodHandler{
		foodService: foodService,
		scanner:     scanner,
		scans:       scans,
		store:       store,
		local:       local,
		authService: authService,
		rateLimiter: rateLimiter,
	}
}

// RegisterRoutes registers the food routes
func (h *FoodHandler) RegisterRoutes(router *gin.RouterGroup) {
	food := router.Group("/food")

	// Uploaded photos must stay publicly fetchable so the vision model can
	// resolve them.
	food.GET("/files/:filename", h.GetFile)

	protected := food.Group("")
	protected.Use(middleware.AuthMiddleware(h.authService))
	{
		scanning := protected.Group("")
		if h.rateLimiter != nil {
			scanning.Use(h.rateLimiter.RateLimitMiddleware())
		}
		scanning.POST("/scan_image", h.ScanImage)
		scanning.POST("/rescan", h.Rescan)

		protected.POST("/advice", h.Advice)
		protected.GET("/scans/:id", h.GetScan)

		protected.GET("/foods", h.ListFoods)
		protected.POST("/foods", h.CreateFood)
		protected.DELETE("/foods/:id", h.DeleteFood)
	}
}

// ScanImage accepts a multipart meal photo, stores it and runs the
// two-stage recognition pipeline.
func (h *FoodHandler) ScanImage(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image part"})
		return
	}
	if fileHeader.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no selected image"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}

	storedName, photoURL, err := h.store.Save(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		log.Printf("[FoodHandler] Failed to store upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
		return
	}

	foodData, err := h.scanner.ScanPhoto(c.Request.Context(), photoURL)
	if err != nil {
		log.Printf("[FoodHandler] Scan failed for %s: %v", storedName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to scan image"})
		return
	}

	resp := gin.H{
		"filename":  storedName,
		"photo_url": photoURL,
		"food_data": foodData,
	}

	// The raw table stays the contract; parsed rows ride along when the text
	// complies with it.
	if table, err := service.ParseTable(foodData); err == nil {
		resp["items"] = table.Rows
		resp["total"] = table.Total
	}

	if h.scans != nil {
		scan := &service.ScanResult{
			UserID:   userID.String(),
			Filename: storedName,
			PhotoURL: photoURL,
			FoodData: foodData,
		}
		if err := h.scans.SaveScan(c.Request.Context(), scan); err != nil {
			log.Printf("[FoodHandler] Failed to cache scan: %v", err)
		} else {
			resp["scan_id"] = scan.ID
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetFile serves a locally stored upload.
func (h *FoodHandler) GetFile(c *gin.Context) {
	if h.local == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	path, err := h.local.Open(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.File(path)
}

type RescanRequest struct {
	ScanID  string `json:"scan_id"`
	Table   string `json:"table"`
	Changes string `json:"changes" binding:"required"`
}

// Rescan applies a free-text change request to a previous table, either a
// cached scan or an inline table.
func (h *FoodHandler) Rescan(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req RescanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "changes required"})
		return
	}

	table, scan, ok := h.resolveTable(c, userID, req.ScanID, req.Table)
	if !ok {
		return
	}

	revised, err := h.scanner.Revise(c.Request.Context(), table, req.Changes)
	if err != nil {
		log.Printf("[FoodHandler] Revision failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revise table"})
		return
	}

	if service.IsSentinel(revised) {
		resp := gin.H{"food_data": table, "changed": false}
		if scan != nil {
			resp["scan_id"] = scan.ID
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	resp := gin.H{"food_data": revised, "changed": true}
	if scan != nil {
		scan.FoodData = revised
		if err := h.scans.UpdateScan(c.Request.Context(), scan); err != nil {
			log.Printf("[FoodHandler] Failed to update cached scan: %v", err)
		}
		resp["scan_id"] = scan.ID
	}
	c.JSON(http.StatusOK, resp)
}

type AdviceRequest struct {
	ScanID string `json:"scan_id"`
	Table  string `json:"table"`
}

// Advice returns a short recommendation for a completed table. The scanner
// degrades to fixed fallback text instead of failing.
func (h *FoodHandler) Advice(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	table, _, ok := h.resolveTable(c, userID, req.ScanID, req.Table)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"advice": h.scanner.Advice(c.Request.Context(), table)})
}

// GetScan returns a cached scan owned by the caller.
func (h *FoodHandler) GetScan(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	if h.scans == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
		return
	}

	scan, err := h.scans.GetScan(c.Request.Context(), c.Param("id"))
	if err != nil || scan.UserID != userID.String() {
		c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scan": scan})
}

// resolveTable picks the table text from a cached scan or the inline field.
// It writes the error response itself when resolution fails.
func (h *FoodHandler) resolveTable(c *gin.Context, userID uuid.UUID, scanID, inline string) (string, *service.ScanResult, bool) {
	if scanID != "" {
		if h.scans == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			return "", nil, false
		}
		scan, err := h.scans.GetScan(c.Request.Context(), scanID)
		if err != nil || scan.UserID != userID.String() {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			return "", nil, false
		}
		return scan.FoodData, scan, true
	}

	if inline == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scan_id or table required"})
		return "", nil, false
	}
	return inline, nil, true
}

type CreateFoodRequest struct {
	Name            string  `json:"name" binding:"required"`
	CaloriesPer100g float64 `json:"calories_per_100g" binding:"required,gt=0"`
	Proteins        float64 `json:"proteins"`
	Fats            float64 `json:"fats"`
	Carbs           float64 `json:"carbs"`
}

func (h *FoodHandler) ListFoods(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	foods, err := h.foodService.ListEntries(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list foods"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"foods": foods})
}

func (h *FoodHandler) CreateFood(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req CreateFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and calories_per_100g required"})
		return
	}

	entry := models.FoodEntry{
		Name:            req.Name,
		CaloriesPer100g: req.CaloriesPer100g,
		Proteins:        req.Proteins,
		Fats:            req.Fats,
		Carbs:           req.Carbs,
	}
	if err := h.foodService.CreateEntry(userID, &entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create food entry"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *FoodHandler) DeleteFood(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "food entry not found"})
		return
	}

	if err := h.foodService.DeleteEntry(userID, entryID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "food entry not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "food entry deleted"})
}
