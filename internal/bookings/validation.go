package bookings

import (
	"net/mail"
	"strings"
)

const (
	minPatientAge = 1
	maxPatientAge = 120
)

// NormalizePhone strips spaces, dashes and parentheses.
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

// ValidPhone reports whether phone is exactly 10 digits after normalization.
func ValidPhone(phone string) bool {
	phone = NormalizePhone(phone)
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidatePatient returns one message per invalid field, empty when valid.
func ValidatePatient(p Patient, requireGender bool) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(p.Name) == "" {
		fields["patient_name"] = "This field is required."
	}
	switch email := strings.TrimSpace(p.Email); {
	case email == "":
		fields["patient_email"] = "This field is required."
	default:
		if _, err := mail.ParseAddress(email); err != nil {
			fields["patient_email"] = "Enter a valid email address."
		}
	}
	switch {
	case strings.TrimSpace(p.Phone) == "":
		fields["patient_phone"] = "This field is required."
	case !ValidPhone(p.Phone):
		fields["patient_phone"] = "Please enter a valid 10-digit phone number."
	}
	switch {
	case p.Age == 0:
		fields["patient_age"] = "This field is required."
	case p.Age < minPatientAge || p.Age > maxPatientAge:
		fields["patient_age"] = "Please enter a valid age between 1 and 120."
	}
	switch {
	case requireGender && p.Gender == "":
		fields["patient_gender"] = "This field is required."
	case !ValidGender(p.Gender):
		fields["patient_gender"] = "Select a valid choice."
	}
	if p.WhatsApp != "" && !ValidPhone(p.WhatsApp) {
		fields["whatsapp_number"] = "Please enter a valid 10-digit phone number."
	}
	return fields
}
