package handlers

import (
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tailor-form/internal/downloads"
	"tailor-form/internal/logging"
	"tailor-form/pkg/models"
	"tailor-form/pkg/utils"
)

// DownloadHandler serves a published document as an attachment under its
// original filename
func DownloadHandler(store downloads.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)
		logger := logging.LogWithRequestID(requestID)
		id := c.Param("id")

		blob, err := store.Get(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, downloads.ErrNotFound) {
				cerr := utils.NewNotFoundError(err.Error())
				return c.JSON(cerr.Code, models.ErrorResponse{
					Error:     "download_not_found",
					Message:   cerr.Error(),
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}

			logger.Error("Failed to load download", map[string]interface{}{
				"download_id": id,
				"error":       err.Error(),
			})
			cerr := utils.NewInternalServerError("Failed to load download")
			return c.JSON(cerr.Code, models.ErrorResponse{
				Error:     "download_failed",
				Message:   cerr.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": blob.Name})
		if disposition == "" {
			disposition = "attachment"
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, disposition)

		logger.Debug("Serving download", map[string]interface{}{
			"download_id": id,
			"filename":    blob.Name,
			"bytes":       len(blob.Data),
		})

		return c.Blob(http.StatusOK, utils.GetStringOrDefault(blob.ContentType, echo.MIMEOctetStream), blob.Data)
	}
}
