package catalog

import "github.com/wolfman30/healthcare-booking/internal/money"

// DefaultServices mirrors the rows seeded by migration 000001 so the
// in-memory catalog matches a freshly migrated database.
func DefaultServices() []Service {
	return []Service{
		{Name: "Acupressure Therapy", Description: "Traditional pressure point therapy for pain relief and wellness", DurationMinutes: 45, Price: money.MustParse("200"), IsActive: true},
		{Name: "Magnet Therapy", Description: "Therapeutic magnets applied to support natural healing", DurationMinutes: 30, Price: money.MustParse("150"), IsActive: true},
		{Name: "Massage Therapy", Description: "Full body therapeutic massage for relaxation and circulation", DurationMinutes: 60, Price: money.MustParse("300"), IsActive: true},
		{Name: "Cupping Therapy", Description: "Suction cup therapy to relieve muscle tension", DurationMinutes: 40, Price: money.MustParse("250"), IsActive: true},
		{Name: "Physiotherapy Session", Description: "Guided physiotherapy for mobility and rehabilitation", DurationMinutes: 50, Price: money.MustParse("350"), IsActive: true},
		{Name: "Biochemic Consultation", Description: "Consultation and biochemic remedy planning", DurationMinutes: 30, Price: money.MustParse("200"), IsActive: true},
		{Name: "Health Wellness Consultation", Description: "Holistic lifestyle and wellness consultation", DurationMinutes: 45, Price: money.MustParse("400"), IsActive: true},
		{Name: "Pain Management Session", Description: "Combined therapies targeting chronic pain", DurationMinutes: 60, Price: money.MustParse("450"), IsActive: true},
	}
}

// SeedInMemory loads DefaultServices into repo.
func SeedInMemory(repo *InMemoryRepository) {
	for _, svc := range DefaultServices() {
		repo.Add(svc)
	}
}
