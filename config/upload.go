package config

// Slot - закрытый перечень слотов вложений проекта.
type Slot uint8

const (
	SlotInspectionPlanPDF Slot = iota + 1
	SlotAuditReportPDF
	SlotAuditReportWord
	SlotInvoicePDF
	SlotTravelFeesZIP
)

// Виды содержимого, они же сегмент пути в хранилище
const (
	KindPDF = "pdf"
	KindDoc = "doc"
	KindZip = "zip"
)

type UploadConfig struct {
	Name             string
	Kind             string
	AllowedMimeTypes []string
	MaxSizeMB        int64
}

func (c UploadConfig) MaxSizeBytes() int64 {
	return c.MaxSizeMB * 1024 * 1024
}

// Порядок объявления важен: пайплайн обходит слоты именно в нём.
var slotOrder = []Slot{
	SlotInspectionPlanPDF,
	SlotAuditReportPDF,
	SlotAuditReportWord,
	SlotInvoicePDF,
	SlotTravelFeesZIP,
}

var UploadContexts = map[Slot]UploadConfig{
	SlotInspectionPlanPDF: {
		Name:             "inspectionPlanPDF",
		Kind:             KindPDF,
		AllowedMimeTypes: []string{"application/pdf"},
		MaxSizeMB:        25,
	},
	SlotAuditReportPDF: {
		Name:             "auditReportPDF",
		Kind:             KindPDF,
		AllowedMimeTypes: []string{"application/pdf"},
		MaxSizeMB:        25,
	},
	SlotAuditReportWord: {
		Name: "auditReportWord",
		Kind: KindDoc,
		AllowedMimeTypes: []string{
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
		MaxSizeMB: 20,
	},
	SlotInvoicePDF: {
		Name:             "invoicePDF",
		Kind:             KindPDF,
		AllowedMimeTypes: []string{"application/pdf"},
		MaxSizeMB:        15,
	},
	SlotTravelFeesZIP: {
		Name:             "travelFeesZIP",
		Kind:             KindZip,
		AllowedMimeTypes: []string{"application/zip", "application/x-zip-compressed"},
		MaxSizeMB:        50,
	},
}

// Slots возвращает слоты в порядке объявления.
func Slots() []Slot {
	out := make([]Slot, len(slotOrder))
	copy(out, slotOrder)
	return out
}

// LookupSlot находит слот по имени поля формы.
func LookupSlot(name string) (Slot, bool) {
	for _, s := range slotOrder {
		if UploadContexts[s].Name == name {
			return s, true
		}
	}
	return 0, false
}

func (s Slot) Rules() UploadConfig {
	return UploadContexts[s]
}

func (s Slot) String() string {
	if rules, ok := UploadContexts[s]; ok {
		return rules.Name
	}
	return "unknown"
}

func (s Slot) Valid() bool {
	_, ok := UploadContexts[s]
	return ok
}

// Accepts проверяет MIME-тип по списку разрешённых для слота.
func (s Slot) Accepts(mimeType string) bool {
	for _, allowed := range UploadContexts[s].AllowedMimeTypes {
		if allowed == mimeType {
			return true
		}
	}
	return false
}
