package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LangRO = "ro"
	LangRU = "ru"

	DefaultLang = LangRO
)

// Service is a bookable salon offering.
type Service struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"size:255;not null"`
	NameRO        string          `json:"name_ro" gorm:"column:name_ro;size:255"`
	NameRU        string          `json:"name_ru" gorm:"column:name_ru;size:255"`
	Duration      int             `json:"duration" gorm:"not null"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Description   string          `json:"description" gorm:"type:text"`
	DescriptionRO string          `json:"description_ro" gorm:"column:description_ro;type:text"`
	DescriptionRU string          `json:"description_ru" gorm:"column:description_ru;type:text"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (Service) TableName() string { return "services" }

// View is a service rendered for one language.
type View struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Duration    int             `json:"duration"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NormalizeLang maps anything but "ru" to the default language.
func NormalizeLang(lang string) string {
	if lang == LangRU {
		return LangRU
	}
	return DefaultLang
}

func (s *Service) LocalizedName(lang string) string {
	if NormalizeLang(lang) == LangRU {
		return firstNonEmpty(s.NameRU, s.Name)
	}
	return firstNonEmpty(s.NameRO, s.Name)
}

func (s *Service) LocalizedDescription(lang string) string {
	if NormalizeLang(lang) == LangRU {
		return firstNonEmpty(s.DescriptionRU, s.Description)
	}
	return firstNonEmpty(s.DescriptionRO, s.Description)
}

func (s *Service) Localize(lang string) View {
	return View{
		ID:          s.ID,
		Name:        s.LocalizedName(lang),
		Description: s.LocalizedDescription(lang),
		Duration:    s.Duration,
		Price:       s.Price,
		CreatedAt:   s.CreatedAt,
	}
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// DefaultServices is the seed menu with Romanian and Russian translations.
func DefaultServices() []Service {
	return []Service{
		{
			Name: "Basic Haircut", NameRO: "Tunsoare de Bază", NameRU: "Базовая Стрижка",
			Duration: 30, Price: decimal.RequireFromString("25.00"),
			Description:   "Classic haircut and styling",
			DescriptionRO: "Tunsoare clasică și coafură", DescriptionRU: "Классическая стрижка и укладка",
		},
		{
			Name: "Beard Trim", NameRO: "Aranjare Barbă", NameRU: "Стрижка Бороды",
			Duration: 20, Price: decimal.RequireFromString("15.00"),
			Description:   "Professional beard trimming and shaping",
			DescriptionRO: "Aranjarea și modelarea profesională a bărbii", DescriptionRU: "Профессиональная стрижка и формирование бороды",
		},
		{
			Name: "Haircut + Beard", NameRO: "Tunsoare + Barbă", NameRU: "Стрижка + Борода",
			Duration: 45, Price: decimal.RequireFromString("35.00"),
			Description:   "Complete grooming package",
			DescriptionRO: "Pachet complet de îngrijire", DescriptionRU: "Полный комплекс ухода",
		},
		{
			Name: "Hot Towel Shave", NameRO: "Bărbierit cu Prosop Cald", NameRU: "Бритье с Горячим Полотенцем",
			Duration: 30, Price: decimal.RequireFromString("20.00"),
			Description:   "Traditional hot towel shave",
			DescriptionRO: "Bărbierit tradițional cu prosop cald", DescriptionRU: "Традиционное бритье с горячим полотенцем",
		},
		{
			Name: "Kids Cut", NameRO: "Tunsoare Copii", NameRU: "Детская Стрижка",
			Duration: 20, Price: decimal.RequireFromString("15.00"),
			Description:   "Haircut for children under 12",
			DescriptionRO: "Tunsoare pentru copii sub 12 ani", DescriptionRU: "Стрижка для детей до 12 лет",
		},
	}
}
