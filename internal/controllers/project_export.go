package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"audit-desk/config"
	"audit-desk/internal/dto"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/types"
	"audit-desk/pkg/utils"
)

const exportSheet = "Projets"

var exportHeaders = []interface{}{
	"ID", "Référence", "Client", "Certification", "Ville", "Date d'inspection",
	"Statut", "Année", "Notes", "Dernière mise à jour",
	"Plan d'inspection", "Rapport PDF", "Rapport Word", "Facture", "Frais de déplacement",
}

func exportRow(p dto.ProjectDTO) []interface{} {
	var inspection string
	if p.InspectionDate != nil {
		inspection = *p.InspectionDate
	}
	row := []interface{}{
		p.ID, p.Reference, p.Customer, p.CertificationType, p.City, inspection,
		p.AuditStatus, p.Year, p.Notes, p.LastUpdated.Format("02.01.2006 15:04"),
	}
	for _, slot := range config.Slots() {
		if f, ok := p.Files[slot.String()]; ok {
			row = append(row, f.Path)
		} else {
			row = append(row, "")
		}
	}
	return row
}

// collectExport выбирает все проекты под фильтр страницами по utils.MaxLimit.
func (ctrl *ProjectController) collectExport(ctx context.Context, filter types.Filter) ([]dto.ProjectDTO, error) {
	filter.WithPagination = true
	filter.Limit = utils.MaxLimit
	filter.Offset = 0

	var all []dto.ProjectDTO
	for {
		page, total, err := ctrl.readService.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < filter.Limit || uint64(len(all)) >= total {
			return all, nil
		}
		filter.Offset += len(page)
	}
}

func writeExportSheet(f *excelize.File, projects []dto.ProjectDTO) error {
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(exportHeaders))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", style); err != nil {
		return err
	}

	for i, p := range projects {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := exportRow(p)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	widths := []struct {
		from, to string
		width    float64
	}{
		{"B", "E", 22},
		{"I", "I", 40},
		{"K", lastCol, 45},
	}
	for _, w := range widths {
		if err := f.SetColWidth(exportSheet, w.from, w.to, w.width); err != nil {
			return err
		}
	}
	return nil
}

// Export отдаёт все проекты под фильтрами списка в XLSX, параметры страницы игнорируются.
func (ctrl *ProjectController) Export(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())

	projects, err := ctrl.collectExport(c.Request().Context(), filter)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			ctrl.logger.Warn("Export: ошибка закрытия книги", zap.Error(err))
		}
	}()

	if err := writeExportSheet(f, projects); err != nil {
		return ctrl.errorResponse(c, apperrors.NewHttpError(http.StatusInternalServerError, "Ошибка формирования XLSX", err, nil))
	}

	fileName := fmt.Sprintf("projets_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response().Writer)
}
