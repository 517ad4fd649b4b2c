package usecase

import (
	"fmt"
	"net/mail"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validCompanySizes = map[string]bool{
	"":        true, // optional
	"solo":    true,
	"2-10":    true,
	"11-50":   true,
	"51-200":  true,
	"200+":    true,
}

func ValidateSubmitQuizInput(input SubmitQuizInput) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(input.Name) == "" {
		errs = append(errs, ValidationError{"name", "is required"})
	} else if len(input.Name) > 200 {
		errs = append(errs, ValidationError{"name", "must not exceed 200 characters"})
	}

	if strings.TrimSpace(input.Email) == "" {
		errs = append(errs, ValidationError{"email", "is required"})
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		errs = append(errs, ValidationError{"email", "is invalid"})
	}

	if strings.TrimSpace(input.Company) == "" {
		errs = append(errs, ValidationError{"companyName", "is required"})
	} else if len(input.Company) > 200 {
		errs = append(errs, ValidationError{"companyName", "must not exceed 200 characters"})
	}

	if !validCompanySizes[input.CompanySize] {
		errs = append(errs, ValidationError{"companySize", "is not a known segment"})
	}

	if len(input.Challenge) > 500 {
		errs = append(errs, ValidationError{"challenge", "must not exceed 500 characters"})
	}
	if len(input.ImprovementGoal) > 500 {
		errs = append(errs, ValidationError{"improvementGoal", "must not exceed 500 characters"})
	}

	return errs
}
