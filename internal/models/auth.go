package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminLoginRequest authenticates the super-admin.
type AdminLoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// UserLoginRequest authenticates a centre staff account.
type UserLoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// UserSignupRequest registers a centre staff account bound to a centre code.
type UserSignupRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	CentreCode string `json:"centre_code" validate:"required"`
}

// StudentLoginRequest authenticates a student by registration number and
// date of birth.
type StudentLoginRequest struct {
	RegNo     string    `json:"reg_no" validate:"required"`
	BirthDate time.Time `json:"birth_date" validate:"required"`
	IP        string    `json:"-"`
	UserAgent string    `json:"-"`
}

// LoginResponse returns the issued token and principal info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	Principal   Principal `json:"principal"`
}

// Principal describes the authenticated party in responses.
type Principal struct {
	ID         string `json:"id"`
	Role       Role   `json:"role"`
	Name       string `json:"name,omitempty"`
	CentreCode string `json:"centre_code,omitempty"`
}

// ForgotPasswordRequest initiates the admin OTP flow.
type ForgotPasswordRequest struct {
	Username string `json:"username" validate:"required"`
}

// VerifyOTPRequest checks an emailed OTP.
type VerifyOTPRequest struct {
	Username string `json:"username" validate:"required"`
	OTP      string `json:"otp" validate:"required,len=6"`
}

// ResetPasswordRequest completes the admin OTP flow.
type ResetPasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	OTP         string `json:"otp" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	SubjectID  string `json:"subject_id"`
	Role       Role   `json:"role"`
	CentreCode string `json:"centre_code,omitempty"`
	jwt.RegisteredClaims
}
