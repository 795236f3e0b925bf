package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type RegistrationMethod string

const (
	RegistrationEmail  RegistrationMethod = "email"
	RegistrationGoogle RegistrationMethod = "google"
)

type User struct {
	ID                 string
	Email              string
	PasswordHash       []byte
	Username           string
	Role               UserRole
	Status             UserStatus
	RegistrationMethod RegistrationMethod
	AvatarURL          *string
	TourSeen           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Session struct {
	ID               string
	UserID           string
	DeviceID         string
	DeviceName       string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}
