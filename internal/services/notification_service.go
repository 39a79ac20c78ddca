package services

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"audit-desk/pkg/config"
)

type NotificationServiceInterface interface {
	SendPasswordResetEmail(ctx context.Context, to, link string) error
}

// NewNotificationService: без SMTP-хоста письма только пишутся в лог.
func NewNotificationService(cfg config.MailConfig, logger *zap.Logger) NotificationServiceInterface {
	if cfg.Host == "" {
		logger.Warn("SMTP не настроен, письма будут только в логе")
		return NewLogNotificationService(logger)
	}
	return &smtpNotificationService{cfg: cfg, logger: logger, send: smtp.SendMail}
}

type logNotificationService struct {
	logger *zap.Logger
}

func NewLogNotificationService(logger *zap.Logger) NotificationServiceInterface {
	return &logNotificationService{logger: logger}
}

func (s *logNotificationService) SendPasswordResetEmail(_ context.Context, to, link string) error {
	s.logger.Info("Письмо для сброса пароля (не отправлено)", zap.String("кому", to), zap.String("ссылка", link))
	return nil
}

type smtpNotificationService struct {
	cfg    config.MailConfig
	logger *zap.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (s *smtpNotificationService) SendPasswordResetEmail(_ context.Context, to, link string) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := s.send(addr, auth, s.cfg.From, []string{to}, resetMessage(s.cfg.From, to, link)); err != nil {
		s.logger.Error("Не удалось отправить письмо сброса пароля", zap.String("кому", to), zap.Error(err))
		return fmt.Errorf("ошибка отправки письма: %w", err)
	}
	s.logger.Info("Письмо сброса пароля отправлено", zap.String("кому", to))
	return nil
}

const resetSubject = "Réinitialisation du mot de passe"

func resetMessage(from, to, link string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", resetSubject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString("Pour définir un nouveau mot de passe, suivez ce lien :\r\n")
	b.WriteString(link + "\r\n")
	return []byte(b.String())
}
