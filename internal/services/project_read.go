package services

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"audit-desk/config"
	"audit-desk/internal/dto"
	"audit-desk/internal/entities"
	"audit-desk/internal/repositories"
	"audit-desk/pkg/types"
)

type ProjectReadServiceInterface interface {
	List(ctx context.Context, filter types.Filter) ([]dto.ProjectDTO, uint64, error)
	Get(ctx context.Context, id uint64) (*dto.ProjectDTO, error)
	Years(ctx context.Context) ([]int, error)
}

type ProjectReadService struct {
	projectRepo    repositories.ProjectRepositoryInterface
	attachmentRepo repositories.AttachmentRepositoryInterface
	logger         *zap.Logger
}

func NewProjectReadService(
	projectRepo repositories.ProjectRepositoryInterface,
	attachmentRepo repositories.AttachmentRepositoryInterface,
	logger *zap.Logger,
) ProjectReadServiceInterface {
	return &ProjectReadService{projectRepo: projectRepo, attachmentRepo: attachmentRepo, logger: logger}
}

func (s *ProjectReadService) List(ctx context.Context, filter types.Filter) ([]dto.ProjectDTO, uint64, error) {
	normalizeYearFilter(&filter)

	projects, total, err := s.projectRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if len(projects) == 0 {
		return []dto.ProjectDTO{}, total, nil
	}

	ids := make([]uint64, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	attachments, err := s.attachmentRepo.FindByProjectIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	byProject := make(map[uint64][]entities.Attachment, len(projects))
	for _, a := range attachments {
		byProject[a.ProjectID] = append(byProject[a.ProjectID], a)
	}

	views := make([]dto.ProjectDTO, 0, len(projects))
	for i := range projects {
		views = append(views, s.buildView(&projects[i], byProject[projects[i].ID]))
	}
	return views, total, nil
}

func (s *ProjectReadService) Get(ctx context.Context, id uint64) (*dto.ProjectDTO, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachmentRepo.FindByProjectID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.buildView(project, attachments)
	return &view, nil
}

func (s *ProjectReadService) Years(ctx context.Context) ([]int, error) {
	return s.projectRepo.Years(ctx)
}

// buildView ждёт строки файлов от новых к старым: в слот попадает первая.
func (s *ProjectReadService) buildView(p *entities.Project, attachments []entities.Attachment) dto.ProjectDTO {
	view := dto.ProjectDTO{
		ID:                p.ID,
		Reference:         p.Reference,
		Customer:          p.Customer,
		CertificationType: p.CertificationType,
		City:              p.City,
		AuditStatus:       p.AuditStatus,
		Notes:             p.Notes.String,
		Year:              p.Year,
		LastUpdated:       p.LastUpdated,
		Files:             make(map[string]*dto.AttachmentDTO),
	}
	if p.InspectionDate.Valid {
		d := p.InspectionDate.Time.Format("2006-01-02")
		view.InspectionDate = &d
	}

	for _, a := range attachments {
		slot := resolveSlot(a)
		if slot == "" {
			continue
		}
		if existing, dup := view.Files[slot]; dup {
			slotDuplicates.Inc()
			s.logger.Warn("Нарушение целостности: несколько текущих файлов в слоте",
				zap.Uint64("projectID", p.ID),
				zap.String("slot", slot),
				zap.Uint64("keptID", existing.ID),
				zap.Uint64("ignoredID", a.ID),
			)
			continue
		}
		view.Files[slot] = &dto.AttachmentDTO{
			ID:         a.ID,
			Slot:       slot,
			Kind:       a.Kind,
			Path:       a.Path,
			Mime:       a.Mime,
			Size:       a.Size,
			UploadedAt: a.UploadedAt,
		}
	}
	return view
}

func resolveSlot(a entities.Attachment) string {
	if a.Slot.Valid {
		if _, ok := config.LookupSlot(a.Slot.String); ok {
			return a.Slot.String
		}
		return ""
	}
	return classifyLegacyFile(a.Kind, a.Mime, a.Path)
}

// classifyLegacyFile угадывает слот старой строки без колонки slot по kind, mime и пути.
func classifyLegacyFile(kind, mime, path string) string {
	k := strings.ToLower(kind)
	m := strings.ToLower(mime)
	p := strings.ToLower(path)
	has := func(s string) bool { return strings.Contains(k, s) || strings.Contains(p, s) }
	hasAny := func(words ...string) bool {
		for _, w := range words {
			if has(w) {
				return true
			}
		}
		return false
	}

	isPDF := strings.Contains(m, "pdf") || has("pdf")
	isWord := strings.Contains(m, "word") || strings.Contains(m, "doc") ||
		strings.HasSuffix(p, ".doc") || strings.HasSuffix(p, ".docx")
	isZip := strings.Contains(m, "zip") || strings.HasSuffix(p, ".zip")

	switch {
	case isPDF && hasAny("inspection", "plan"):
		return config.SlotInspectionPlanPDF.String()
	case strings.Contains(m, "pdf") && hasAny("audit", "report"):
		return config.SlotAuditReportPDF.String()
	case isWord && hasAny("audit", "report"):
		return config.SlotAuditReportWord.String()
	case isPDF && hasAny("invoice", "facture"):
		return config.SlotInvoicePDF.String()
	case isZip && hasAny("travel", "fees", "expenses", "frais", "deplacement"):
		return config.SlotTravelFeesZIP.String()
	}
	return ""
}

// normalizeYearFilter: filter[year]=2024,2025 -> []int, мусор отбрасывается.
func normalizeYearFilter(filter *types.Filter) {
	raw, ok := filter.Filter["year"]
	if !ok {
		return
	}
	s, ok := raw.(string)
	if !ok {
		return
	}
	years := make([]int, 0)
	for _, part := range strings.Split(s, ",") {
		if y, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			years = append(years, y)
		}
	}
	switch len(years) {
	case 0:
		delete(filter.Filter, "year")
	case 1:
		filter.Filter["year"] = years[0]
	default:
		filter.Filter["year"] = years
	}
}
