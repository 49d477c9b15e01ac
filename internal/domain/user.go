// Package domain contains core domain types for the Vetro backend.
package domain

import "time"

// User is an identity record. The password is compared verbatim at login and
// is never serialized in API responses.
type User struct {
	ID                  int64     `json:"id"`
	Username            string    `json:"username"`
	Password            string    `json:"-"`
	Email               string    `json:"email,omitempty"`
	FullName            string    `json:"fullName,omitempty"`
	CompanyName         string    `json:"companyName,omitempty"`
	OnboardingCompleted bool      `json:"onboardingCompleted"`
	OnboardingStep      int       `json:"onboardingStep"`
	Industry            string    `json:"industry,omitempty"`
	TeamSize            string    `json:"teamSize,omitempty"`
	AIExperienceLevel   string    `json:"aiExperienceLevel,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

// NewUser holds the fields accepted at registration.
type NewUser struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	FullName    string `json:"fullName"`
	CompanyName string `json:"companyName"`
}

// UserUpdate lists the user fields writable after registration. Nil fields
// are left unchanged.
type UserUpdate struct {
	Email               *string
	FullName            *string
	CompanyName         *string
	Industry            *string
	TeamSize            *string
	AIExperienceLevel   *string
	OnboardingStep      *int
	OnboardingCompleted *bool
}
