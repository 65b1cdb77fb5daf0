package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"mime"
	"net/smtp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/planit-app/planit-api/internal/config"
)

const emailDateLayout = "January 2, 2006"

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService is the notifier. With SMTP unconfigured every send is a no-op.
type EmailService struct {
	cfg         config.SMTPConfig
	frontendURL string
	sendMail    sendMailFunc
}

func NewEmailService(cfg config.SMTPConfig, frontendURL string) *EmailService {
	return &EmailService{
		cfg:         cfg,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		sendMail:    smtp.SendMail,
	}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *EmailService) from() string {
	if s.cfg.FromName == "" {
		return s.cfg.From
	}
	return fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
}

func (s *EmailService) Send(ctx context.Context, to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.from(), to, headerValue(subject), body)

	if err := s.sendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}

// headerValue folds control characters to spaces and RFC 2047 encodes
// anything outside printable ASCII, so user text cannot start a new header.
func headerValue(v string) string {
	v = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, v)
	return mime.QEncoding.Encode("utf-8", v)
}

// sendEach mails every recipient separately so addresses are not disclosed
// to each other. All failures are returned together.
func (s *EmailService) sendEach(ctx context.Context, recipients []string, subject, body string) error {
	var errs []error
	for _, to := range recipients {
		if err := s.Send(ctx, to, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *EmailService) SendInvitation(ctx context.Context, to, inviterName, tripName string, start, end time.Time) error {
	subject := fmt.Sprintf("%s invited you to join a trip: %s", inviterName, tripName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>You've been invited!</h2>
			<p>Hello,</p>
			<p><strong>%s</strong> has invited you to join the trip <strong>%s</strong>.</p>
			<p><strong>When:</strong> %s - %s</p>
			<p>Log in with this email address to accept. If you don't have an account yet, sign up with it first.</p>
			<p><a href="%s/invitations">View invitation</a></p>
		</body>
		</html>
	`, html.EscapeString(inviterName), html.EscapeString(tripName),
		start.Format(emailDateLayout), end.Format(emailDateLayout), s.frontendURL)

	return s.Send(ctx, to, subject, body)
}

func (s *EmailService) SendInvitationAccepted(ctx context.Context, recipients []string, participantName, tripName string, tripID uuid.UUID) error {
	subject := fmt.Sprintf("%s joined your trip: %s", participantName, tripName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>New trip participant</h2>
			<p><strong>%s</strong> accepted the invitation and joined <strong>%s</strong>.</p>
			<p><a href="%s/trips/%s">View trip</a></p>
		</body>
		</html>
	`, html.EscapeString(participantName), html.EscapeString(tripName), s.frontendURL, tripID)

	return s.sendEach(ctx, recipients, subject, body)
}

func (s *EmailService) SendInvitationDeclined(ctx context.Context, recipients []string, declinerName, tripName string, tripID uuid.UUID, reason *string) error {
	subject := fmt.Sprintf("%s declined invitation to trip: %s", declinerName, tripName)

	reasonHTML := ""
	if reason != nil && *reason != "" {
		reasonHTML = fmt.Sprintf("<p><strong>Reason:</strong> %s</p>", html.EscapeString(*reason))
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Invitation declined</h2>
			<p><strong>%s</strong> declined the invitation to <strong>%s</strong>.</p>
			%s
			<p><a href="%s/trips/%s">View trip</a></p>
		</body>
		</html>
	`, html.EscapeString(declinerName), html.EscapeString(tripName), reasonHTML, s.frontendURL, tripID)

	return s.sendEach(ctx, recipients, subject, body)
}
