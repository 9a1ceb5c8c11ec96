package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"agricoop-backend/internal/domain"
)

type emailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) send(to, toName, subject, plainText string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)

	message := mail.NewSingleEmail(from, subject, recipient, plainText, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (s *emailService) SendMemberStatusEmail(ctx context.Context, email, name, orgName, status, reason string) error {
	subject := fmt.Sprintf("Your membership with %s", orgName)
	body := fmt.Sprintf("Hello %s,\n\nYour membership with %s has been %s.", name, orgName, status)
	if reason != "" {
		body += "\n\nReason: " + reason
	}
	body += "\n\nBest regards,\nThe Cooperative Team"
	return s.send(email, name, subject, body)
}

// disabledEmailService is used when no SendGrid key is configured.
type disabledEmailService struct{}

func NewDisabledEmailService() EmailService {
	return disabledEmailService{}
}

func (disabledEmailService) SendMemberStatusEmail(ctx context.Context, email, name, orgName, status, reason string) error {
	return nil
}

func (disabledEmailService) SendSeatChangeEmail(ctx context.Context, email, name, orgName string, seatType domain.SeatType) error {
	return nil
}

func (s *emailService) SendSeatChangeEmail(ctx context.Context, email, name, orgName string, seatType domain.SeatType) error {
	subject := fmt.Sprintf("Your seat with %s", orgName)
	var body string
	switch seatType {
	case domain.SeatTypeNone:
		body = fmt.Sprintf("Hello %s,\n\nYour seat with %s has been removed. Your membership remains active.", name, orgName)
	default:
		body = fmt.Sprintf("Hello %s,\n\nYou now hold a %s seat with %s.", name, seatType, orgName)
	}
	body += "\n\nBest regards,\nThe Cooperative Team"
	return s.send(email, name, subject, body)
}
