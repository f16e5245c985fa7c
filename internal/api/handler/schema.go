package handler

import "strings"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// normalizer is implemented by requests that clean their input before validation.
type normalizer interface {
	normalize()
}

type submitAppointmentRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=255"`
	Email         string `json:"email" validate:"required,email,max=255"`
	Phone         string `json:"phone" validate:"omitempty,max=20"`
	Message       string `json:"message" validate:"required,min=10,max=5000"`
	PreferredDate string `json:"preferred_date" validate:"omitempty,datetime=2006-01-02"`
	PreferredTime string `json:"preferred_time" validate:"omitempty,datetime=15:04"`
	ServiceType   string `json:"service_type" validate:"omitempty,oneof=individual couple online"`
	CookieConsent *bool  `json:"cookie_consent" validate:"required"`
}

func (r *submitAppointmentRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Message = strings.TrimSpace(stripTags(r.Message))
	r.PreferredDate = strings.TrimSpace(r.PreferredDate)
	r.PreferredTime = strings.TrimSpace(r.PreferredTime)
	r.ServiceType = strings.TrimSpace(r.ServiceType)
}

type registerRequest struct {
	Name                 string `json:"name" validate:"required,min=2,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Phone                string `json:"phone" validate:"omitempty,max=20"`
}

func (r *registerRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *loginRequest) normalize() {
	r.Email = normalizeEmail(r.Email)
}

type updateProfileRequest struct {
	Name                    *string `json:"name" validate:"omitempty,min=2,max=255"`
	Phone                   *string `json:"phone" validate:"omitempty,max=20"`
	CurrentPassword         string  `json:"current_password" validate:"required_with=NewPassword"`
	NewPassword             string  `json:"new_password" validate:"omitempty,min=8"`
	NewPasswordConfirmation string  `json:"new_password_confirmation" validate:"required_with=NewPassword,eqfield=NewPassword"`
}

func (r *updateProfileRequest) normalize() {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
	if r.Phone != nil {
		p := strings.TrimSpace(*r.Phone)
		r.Phone = &p
	}
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

type payRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card sbp"`
}
