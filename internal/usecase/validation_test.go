package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validInput() SubmitQuizInput {
	return SubmitQuizInput{
		Name:            "Jane Doe",
		Email:           "jane@acme.com",
		Company:         "Acme",
		JobTitle:        "CMO",
		CompanySize:     "11-50",
		Challenge:       "qualified_leads",
		ImprovementGoal: "increase_revenue",
	}
}

func fieldErrors(errs []ValidationError) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field] = e.Message
	}
	return out
}

func TestValidateSubmitQuizInputValid(t *testing.T) {
	assert.Empty(t, ValidateSubmitQuizInput(validInput()))
}

func TestValidateSubmitQuizInputOptionalFieldsEmpty(t *testing.T) {
	input := validInput()
	input.JobTitle = ""
	input.CompanySize = ""
	input.Challenge = ""
	input.ImprovementGoal = ""

	assert.Empty(t, ValidateSubmitQuizInput(input))
}

func TestValidateSubmitQuizInputMissingName(t *testing.T) {
	input := validInput()
	input.Name = "   "

	errs := fieldErrors(ValidateSubmitQuizInput(input))
	assert.Contains(t, errs, "name")
}

func TestValidateSubmitQuizInputInvalidEmail(t *testing.T) {
	input := validInput()
	input.Email = "not-an-email"

	errs := fieldErrors(ValidateSubmitQuizInput(input))
	assert.Equal(t, "is invalid", errs["email"])
}

func TestValidateSubmitQuizInputUnknownCompanySize(t *testing.T) {
	input := validInput()
	input.CompanySize = "en-terprise"

	errs := fieldErrors(ValidateSubmitQuizInput(input))
	assert.Contains(t, errs, "companySize")
}

func TestValidateSubmitQuizInputLengthLimits(t *testing.T) {
	input := validInput()
	input.Name = strings.Repeat("a", 201)
	input.Company = strings.Repeat("b", 201)
	input.Challenge = strings.Repeat("c", 501)
	input.ImprovementGoal = strings.Repeat("d", 501)

	errs := fieldErrors(ValidateSubmitQuizInput(input))
	assert.Len(t, errs, 4)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "companyName")
	assert.Contains(t, errs, "challenge")
	assert.Contains(t, errs, "improvementGoal")
}

func TestValidateSubmitQuizInputCollectsAllErrors(t *testing.T) {
	errs := ValidateSubmitQuizInput(SubmitQuizInput{})
	assert.Len(t, errs, 3) // name, email, companyName
}
