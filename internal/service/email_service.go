package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Mailer is implemented by *pkg.SMTPMailer.
type Mailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

const welcomeSendTimeout = 30 * time.Second

// EmailService sends account mail off the request path.
type EmailService struct {
	mailer Mailer
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewEmailService(mailer Mailer, logger *slog.Logger) *EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailService{mailer: mailer, logger: logger}
}

// SendWelcome queues a welcome mail. Delivery errors are logged only.
func (s *EmailService) SendWelcome(to, name string) {
	if s == nil || s.mailer == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), welcomeSendTimeout)
		defer cancel()
		if err := s.mailer.SendWelcome(ctx, to, name); err != nil {
			s.logger.Warn("welcome email failed", slog.String("to", to), slog.Any("err", err))
		}
	}()
}

// Wait blocks until queued mail has been handed to the mailer.
func (s *EmailService) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}
