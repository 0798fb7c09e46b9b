package notification

import (
	"embed"
	"log/slog"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// NotificationManagerOption is a function that configures a NotificationManager
type NotificationManagerOption func(*NotificationManager) error

// WithSMTP adds an email notifier with the provided SMTP configuration
func WithSMTP(config SMTPConfig) NotificationManagerOption {
	return func(nm *NotificationManager) error {
		emailNotifier, err := NewEmailNotifier(config)
		if err != nil {
			return err
		}
		nm.RegisterNotifier(EmailSystem, emailNotifier)
		return nil
	}
}

// WithNotifier registers an arbitrary notifier, typically a mock in tests
func WithNotifier(system NotificationSystem, notifier Notifier) NotificationManagerOption {
	return func(nm *NotificationManager) error {
		nm.RegisterNotifier(system, notifier)
		return nil
	}
}

// WithAccountConfirmationTemplate registers the initial confirmation template
func WithAccountConfirmationTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(AccountConfirmationNotice, EmailSystem, NoticeTemplate{
			Subject: "Confirm Your Email Address",
			Html:    loadTemplate("templates/email/account_confirmation.html"),
		})
	}
}

// WithConfirmationReminderTemplate registers the resend template
func WithConfirmationReminderTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(ConfirmationReminderNotice, EmailSystem, NoticeTemplate{
			Subject: "Confirmation Email Resent",
			Html:    loadTemplate("templates/email/confirmation_reminder.html"),
		})
	}
}

// WithEmailChangeConfirmationTemplate registers the email change template
func WithEmailChangeConfirmationTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(EmailChangeConfirmationNotice, EmailSystem, NoticeTemplate{
			Subject: "Confirm Your New Email Address",
			Html:    loadTemplate("templates/email/email_change_confirmation.html"),
		})
	}
}

// WithDefaultTemplates registers all default notice templates
func WithDefaultTemplates() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		options := []NotificationManagerOption{
			WithAccountConfirmationTemplate(),
			WithConfirmationReminderTemplate(),
			WithEmailChangeConfirmationTemplate(),
		}

		for _, opt := range options {
			if err := opt(nm); err != nil {
				return err
			}
		}

		return nil
	}
}

// NewNotificationManagerWithOptions creates a new notification manager with the provided options
func NewNotificationManagerWithOptions(baseUrl string, opts ...NotificationManagerOption) (*NotificationManager, error) {
	notificationManager := NewNotificationManager(baseUrl)

	for _, opt := range opts {
		if err := opt(notificationManager); err != nil {
			return nil, err
		}
	}

	return notificationManager, nil
}
