package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"pbxadmin/internal/common"
	"pbxadmin/internal/services"
)

type ImportHandlers struct {
	importSvc services.ImportService
}

func NewImportHandlers(importSvc services.ImportService) *ImportHandlers {
	return &ImportHandlers{importSvc: importSvc}
}

// Import accepts a multipart upload under the "file" field and runs
// the CSV through the reconciler.
func (h *ImportHandlers) Import(c echo.Context) error {
	companyID, err := common.ValidateUUID(c.Param("companyId"), "company id")
	if err != nil {
		return common.SendValidationError(c, "companyId", err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "a CSV file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return common.SendClientError(c, "could not read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return common.SendClientError(c, "could not read uploaded file")
	}

	result, err := h.importSvc.ImportCSV(c.Request().Context(), companyID, fileHeader.Filename, string(data), actorID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyImportFile):
			return common.SendValidationError(c, "file", services.ErrEmptyImportFile.Error())
		case errors.Is(err, services.ErrMissingNumberColumn):
			return common.SendValidationError(c, "file", services.ErrMissingNumberColumn.Error())
		default:
			log.Printf("ERROR: import failed for company %s: %v", companyID, err)
			return common.SendServerError(c, "import failed")
		}
	}
	return c.JSON(http.StatusOK, result)
}
