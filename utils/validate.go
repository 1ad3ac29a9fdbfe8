// utils/validate.go - Input Format Validation
package utils

import "regexp"

var (
	emailExp = regexp.MustCompile(`^([a-zA-Z0-9_.\-]+)@([\da-zA-Z.\-]+)\.([a-zA-Z.]{2,6})$`)
	nameExp  = regexp.MustCompile(`^[a-zA-Z ,.'\-]+$`)
	phoneExp = regexp.MustCompile(`^\d{10}$`)
	staffExp = regexp.MustCompile(`@staff\.unsw\.edu\.au$`)

	passwordLower   = regexp.MustCompile(`[a-z]`)
	passwordUpper   = regexp.MustCompile(`[A-Z]`)
	passwordDigit   = regexp.MustCompile(`\d`)
	passwordSpecial = regexp.MustCompile(`[@$!%*?&]`)
	passwordChars   = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,}$`)
)

func IsValidEmail(email string) bool {
	return emailExp.MatchString(email)
}

func IsValidName(name string) bool {
	return nameExp.MatchString(name)
}

func IsValidPhoneNumber(phone string) bool {
	return phoneExp.MatchString(phone)
}

// IsValidPassword requires at least 8 characters with an uppercase
// letter, a lowercase letter, a digit and a special character.
func IsValidPassword(password string) bool {
	return passwordChars.MatchString(password) &&
		passwordLower.MatchString(password) &&
		passwordUpper.MatchString(password) &&
		passwordDigit.MatchString(password) &&
		passwordSpecial.MatchString(password)
}

// IsStaffEmail reports whether the address belongs to the staff domain,
// which marks new accounts as academics.
func IsStaffEmail(email string) bool {
	return staffExp.MatchString(email)
}
