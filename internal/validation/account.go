// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return fmt.Errorf("password must be at least 12 characters long")
	}

	// Check maximum length (prevent unreasonable inputs)
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	hasUpper := false
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}

	hasLower := false
	for _, r := range password {
		if unicode.IsLower(r) {
			hasLower = true
			break
		}
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}

	if !regexp.MustCompile(`[0-9]`).MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}

	hasSpecial := regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`).MatchString(password)
	if !hasSpecial {
		return fmt.Errorf("password must contain at least one special character (!@#$%%^&*)")
	}

	return nil
}

// ValidateName checks a display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters long")
	}
	if len(name) > 60 {
		return fmt.Errorf("name must not exceed 60 characters")
	}
	return nil
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}

	return nil
}

// ValidateInstitutionalEmail checks format and that the email belongs to one
// of the allowed domains (comma-separated list from configuration).
func ValidateInstitutionalEmail(email, allowedDomains string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}

	at := strings.LastIndex(email, "@")
	domain := strings.ToLower(email[at+1:])

	for _, allowed := range strings.Split(allowedDomains, ",") {
		if domain == strings.ToLower(strings.TrimSpace(allowed)) {
			return nil
		}
	}
	return fmt.Errorf("registration requires an institutional email address")
}

var studentIDRegex = regexp.MustCompile(`^[0-9]{7,10}$`)

// ValidateStudentID checks the roll number format.
func ValidateStudentID(id string) error {
	if !studentIDRegex.MatchString(id) {
		return fmt.Errorf("student ID must be 7 to 10 digits")
	}
	return nil
}

// ValidateYear checks the year of study.
func ValidateYear(year int) error {
	if year < 1 || year > 5 {
		return fmt.Errorf("year must be between 1 and 5")
	}
	return nil
}

// ValidateBranch checks the branch/department name.
func ValidateBranch(branch string) error {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return fmt.Errorf("branch is required")
	}
	if len(branch) > 60 {
		return fmt.Errorf("branch must not exceed 60 characters")
	}
	return nil
}
