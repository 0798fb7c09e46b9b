package notification

// NotificationSystem represents a delivery system (e.g. email).
type NotificationSystem string

// NoticeType identifies a kind of notice (e.g. account confirmation).
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"

	// AccountConfirmationNotice is sent when a new account requests its first
	// confirmation.
	AccountConfirmationNotice NoticeType = "account_confirmation"

	// ConfirmationReminderNotice is sent when an unconfirmed account asks for
	// the confirmation email again.
	ConfirmationReminderNotice NoticeType = "confirmation_reminder"

	// EmailChangeConfirmationNotice is sent to the replacement address when a
	// confirmed account changes its email.
	EmailChangeConfirmationNotice NoticeType = "email_change_confirmation"

	ExampleNotice NoticeType = "example"
)

// NotificationData carries the per-send payload.
type NotificationData struct {
	To      string            // Recipient identifier (e.g. email address)
	Subject string            // Optional subject override
	Body    string            // Optional body override
	Data    map[string]string // Template data (e.g. ConfirmationLink, ExpiryHours)
}

// NoticeTemplate holds the registered content for one notice on one system.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// Notifier delivers a rendered notice over one system.
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
