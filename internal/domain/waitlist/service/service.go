// Package service provides business logic for waitlist management.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"

	"github.com/FACorreiaa/income-tracker/internal/domain/waitlist/repository"
)

var (
	// ErrInvalidEmail is returned when the submitted address does not parse.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrEntryNotFound is returned when no waitlist entry matches.
	ErrEntryNotFound = errors.New("waitlist entry not found")
	// ErrCodeAlreadyUsed is returned when an invite code was already redeemed.
	ErrCodeAlreadyUsed = errors.New("invite code already used")
)

// Mailer is the slice of the resend client the service uses.
type Mailer interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// WaitlistService handles waitlist signups, invites and activation.
type WaitlistService struct {
	repo      repository.WaitlistRepository
	mailer    Mailer
	logger    *slog.Logger
	fromEmail string
}

// NewWaitlistService creates a waitlist service. An empty resend API key
// disables outgoing email; signups still work.
func NewWaitlistService(repo repository.WaitlistRepository, apiKey, fromEmail string, logger *slog.Logger) *WaitlistService {
	var mailer Mailer
	if apiKey != "" {
		mailer = resend.NewClient(apiKey).Emails
	}
	if fromEmail == "" {
		fromEmail = "Income Tracker <hello@income-tracker.app>"
	}
	return &WaitlistService{
		repo:      repo,
		mailer:    mailer,
		logger:    logger,
		fromEmail: fromEmail,
	}
}

// Join adds an email to the waitlist, returning the entry, its queue
// position, and whether the email was already signed up. The welcome email
// goes out asynchronously and never blocks the signup.
func (s *WaitlistService) Join(ctx context.Context, email string) (*repository.Entry, int, bool, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, 0, false, ErrInvalidEmail
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, 0, false, err
	}

	entry, err := s.repo.Add(ctx, email)
	if err != nil {
		return nil, 0, false, err
	}

	position, err := s.repo.Position(ctx, entry.ID)
	if err != nil {
		s.logger.Warn("failed to get waitlist position", slog.Any("error", err))
		position = 0
	}

	if existing == nil {
		go func() {
			if err := s.sendWelcomeEmail(entry.Email, position); err != nil {
				s.logger.Error("failed to send welcome email",
					slog.String("email", entry.Email),
					slog.Any("error", err))
			}
		}()

		s.logger.Info("user joined waitlist",
			slog.String("email", entry.Email),
			slog.Int("position", position))
	}

	return entry, position, existing != nil, nil
}

// Invite generates an invite code for an entry, persists it, and emails it.
// A failing email does not roll back the invite.
func (s *WaitlistService) Invite(ctx context.Context, id uuid.UUID) (string, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", ErrEntryNotFound
	}

	code := generateInviteCode()
	if err := s.repo.UpdateStatus(ctx, id, repository.StatusInvited, &code); err != nil {
		return "", fmt.Errorf("failed to mark entry invited: %w", err)
	}

	if err := s.sendInviteEmail(entry.Email, code); err != nil {
		s.logger.Error("failed to send invite email",
			slog.String("email", entry.Email),
			slog.Any("error", err))
	}

	s.logger.Info("invite sent", slog.String("email", entry.Email))
	return code, nil
}

// Activate redeems an invite code and marks the entry joined.
func (s *WaitlistService) Activate(ctx context.Context, code string) (*repository.Entry, error) {
	entry, err := s.repo.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if entry.Status == repository.StatusJoined {
		return nil, ErrCodeAlreadyUsed
	}

	if err := s.repo.UpdateStatus(ctx, entry.ID, repository.StatusJoined, nil); err != nil {
		return nil, err
	}
	return entry, nil
}

// Stats returns aggregate waitlist metrics.
func (s *WaitlistService) Stats(ctx context.Context) (*repository.Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *WaitlistService) sendWelcomeEmail(email string, position int) error {
	if s.mailer == nil {
		return nil
	}

	positionLine := ""
	if position > 0 {
		positionLine = fmt.Sprintf("<p>You are <strong>#%d</strong> in line.</p>", position)
	}

	html := fmt.Sprintf(`
<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h1>You're on the list</h1>
  <p>Thanks for joining the Income Tracker waitlist. We'll email you as soon as
  your spot opens up.</p>
  %s
  <p style="color: #888; font-size: 12px;">You received this email because this
  address was added to the Income Tracker waitlist.</p>
</div>`, positionLine)

	_, err := s.mailer.Send(&resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: "You're on the Income Tracker waitlist",
		Html:    html,
	})
	return err
}

func (s *WaitlistService) sendInviteEmail(email, code string) error {
	if s.mailer == nil {
		return nil
	}

	html := fmt.Sprintf(`
<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h1>Your invite is here</h1>
  <p>Income Tracker is ready for you. Use the code below to activate your
  account.</p>
  <p style="font-size: 28px; letter-spacing: 4px;"><strong>%s</strong></p>
  <p style="color: #888; font-size: 12px;">The code is unique to this email
  address.</p>
</div>`, code)

	_, err := s.mailer.Send(&resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: "Your Income Tracker invite",
		Html:    html,
	})
	return err
}

// generateInviteCode creates an 8-character hex code.
func generateInviteCode() string {
	bytes := make([]byte, 4)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
