package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/grovelane/miniaudit-api/internal/entity"
)

type SubmitQuizInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Company         string `json:"companyName"`
	JobTitle        string `json:"jobTitle"`
	CompanySize     string `json:"companySize"`
	Challenge       string `json:"challenge"`
	ImprovementGoal string `json:"improvementGoal"`
}

type SubmitQuizOutput struct {
	LeadID    string `json:"leadId"`
	RequestID string `json:"requestId"`
	Msg       string `json:"msg"`
}

// SubmitQuizUseCase turns a mini-audit quiz submission into a lead and
// kicks off report generation without waiting for it.
type SubmitQuizUseCase struct {
	Leads     LeadRepository
	Generator *GenerateReportUseCase
	Logger    *zap.Logger
}

func NewSubmitQuizUseCase(leads LeadRepository, generator *GenerateReportUseCase, logger *zap.Logger) *SubmitQuizUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmitQuizUseCase{Leads: leads, Generator: generator, Logger: logger}
}

func (uc *SubmitQuizUseCase) Execute(ctx context.Context, input SubmitQuizInput) (*SubmitQuizOutput, error) {
	if validationErrors := ValidateSubmitQuizInput(input); len(validationErrors) > 0 {
		errMsg := "validation failed: "
		for _, e := range validationErrors {
			errMsg += e.Field + " (" + e.Message + "), "
		}
		return nil, &DomainError{Code: "VALIDATION_ERROR", Message: errMsg}
	}

	lead := entity.NewLead(
		input.Name,
		input.Email,
		input.Company,
		input.JobTitle,
		input.CompanySize,
		input.Challenge,
		input.ImprovementGoal,
	)

	leadID, err := uc.Leads.Create(ctx, lead)
	if err != nil {
		return nil, &TechnicalError{
			Code:    "REPOSITORY_ERROR",
			Message: "failed to persist lead: " + err.Error(),
		}
	}

	requestID := uc.Generator.Trigger(leadID)

	uc.Logger.Info("quiz submission accepted",
		zap.String("leadId", leadID),
		zap.String("requestId", requestID),
		zap.String("company", input.Company),
	)

	return &SubmitQuizOutput{
		LeadID:    leadID,
		RequestID: requestID,
		Msg:       "Your mini-audit is being generated.",
	}, nil
}
