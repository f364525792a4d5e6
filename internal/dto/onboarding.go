package dto

import "github.com/novaticstar/hoosgottime/internal/models"

// MealPreferenceInput configures one meal window during onboarding.
type MealPreferenceInput struct {
	MealType           models.MealType `json:"mealType" validate:"required"`
	EarliestTime       string          `json:"earliestTime" validate:"required,len=5"`
	LatestTime         string          `json:"latestTime" validate:"required,len=5"`
	TypicalDurationMin int             `json:"typicalDurationMin" validate:"required,min=15,max=180"`
	Importance         int             `json:"importance" validate:"required,min=1,max=3"`
}

// OnboardingRequest captures the scheduling knobs gathered at first login.
// Times are "HH:MM" in the user's timezone.
type OnboardingRequest struct {
	WakeTime                  string                `json:"wakeTime" validate:"required,len=5"`
	SleepTime                 string                `json:"sleepTime" validate:"required,len=5"`
	BuildingWalkBufferMinutes int                   `json:"buildingWalkBufferMinutes" validate:"min=0,max=120"`
	CommuteBufferMinutes      int                   `json:"commuteBufferMinutes" validate:"min=0,max=240"`
	MaxStudyMinutesPerDay     int                   `json:"maxStudyMinutesPerDay" validate:"required,min=30,max=960"`
	MaxStudyBlockMinutes      int                   `json:"maxStudyBlockMinutes" validate:"required,min=30,max=480"`
	TimeZone                  string                `json:"timeZone" validate:"omitempty,timezone"`
	Meals                     []MealPreferenceInput `json:"meals" validate:"omitempty,dive"`
}

// SettingsResponse returns the stored settings plus meal windows.
type SettingsResponse struct {
	Settings models.UserSettings     `json:"settings"`
	Meals    []models.MealPreference `json:"meals"`
}
