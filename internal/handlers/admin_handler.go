package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepmate/practice-service/internal/bank"
	"github.com/prepmate/practice-service/internal/session"
)

type AdminHandler struct {
	importer *bank.Importer
	bank     *bank.Bank
	store    *session.Store
	logger   *slog.Logger
}

func NewAdminHandler(importer *bank.Importer, questionBank *bank.Bank, store *session.Store, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		importer: importer,
		bank:     questionBank,
		store:    store,
		logger:   logger,
	}
}

// ImportQuestions ingests an uploaded .xlsx question sheet into the local
// question bank.
// @Summary Import questions from Excel
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Question sheet (.xlsx)"
// @Success 200 {object} SuccessResponse{data=bank.ImportResult}
// @Failure 400 {object} ErrorResponse
// @Router /admin/questions/import [post]
func (h *AdminHandler) ImportQuestions(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open upload",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.importer.ImportExcel(file)
	if err != nil {
		h.logger.Error("Question import failed",
			"filename", fileHeader.Filename, "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to import questions",
			Details: err.Error(),
		})
		return
	}

	h.logger.Info("Imported question sheet",
		"filename", fileHeader.Filename,
		"imported", result.SuccessCount,
		"rejected", result.ErrorCount)

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Questions imported successfully",
		Data:    result,
	})
}

// Stats reports bank size and live session count.
// @Summary Service statistics
// @Tags admin
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Stats retrieved successfully",
		Data: gin.H{
			"bank_questions":  h.bank.Size(),
			"active_sessions": h.store.ActiveCount(),
		},
	})
}
