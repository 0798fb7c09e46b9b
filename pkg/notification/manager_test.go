package notification

import (
	"testing"
)

func TestNewNotificationManager(t *testing.T) {
	nm := NewNotificationManager("http://localhost:4000")
	if nm == nil {
		t.Fatal("NewNotificationManager returned nil")
	}
	if nm.notifiers == nil {
		t.Error("notifiers map not initialized")
	}
	if nm.notificationRegistry == nil {
		t.Error("notificationRegistry map not initialized")
	}
	if nm.BaseUrl() != "http://localhost:4000" {
		t.Errorf("Wrong base URL: %s", nm.BaseUrl())
	}
}

func TestRegisterNotifier(t *testing.T) {
	nm := NewNotificationManager("")
	mockNotifier := &MockNotifier{}

	nm.RegisterNotifier(EmailSystem, mockNotifier)
	if n, exists := nm.notifiers[EmailSystem]; !exists {
		t.Error("Notifier not registered")
	} else if n != mockNotifier {
		t.Error("Wrong notifier registered")
	}

	// Registering again overwrites
	newMockNotifier := &MockNotifier{}
	nm.RegisterNotifier(EmailSystem, newMockNotifier)
	if n := nm.notifiers[EmailSystem]; n != newMockNotifier {
		t.Error("Notifier not overwritten")
	}
}

func TestRegisterNotification(t *testing.T) {
	nm := NewNotificationManager("")

	tests := []struct {
		name        string
		noticeType  NoticeType
		system      NotificationSystem
		template    NoticeTemplate
		shouldError bool
	}{
		{
			name:        "Valid registration with both Text and Html",
			noticeType:  ExampleNotice,
			system:      EmailSystem,
			template:    NoticeTemplate{Subject: "Example", Text: "example text", Html: "<p>example</p>"},
			shouldError: false,
		},
		{
			name:        "Valid registration with Text only",
			noticeType:  ExampleNotice,
			system:      EmailSystem,
			template:    NoticeTemplate{Subject: "Example", Text: "example text"},
			shouldError: false,
		},
		{
			name:        "Valid registration with Html only",
			noticeType:  ExampleNotice,
			system:      EmailSystem,
			template:    NoticeTemplate{Subject: "Example", Html: "<p>example</p>"},
			shouldError: false,
		},
		{
			name:        "Empty notice type",
			noticeType:  "",
			system:      EmailSystem,
			template:    NoticeTemplate{Subject: "Example", Text: "example text"},
			shouldError: true,
		},
		{
			name:        "Empty system",
			noticeType:  ExampleNotice,
			system:      "",
			template:    NoticeTemplate{Subject: "Example", Text: "example text"},
			shouldError: true,
		},
		{
			name:        "Empty subject",
			noticeType:  ExampleNotice,
			system:      EmailSystem,
			template:    NoticeTemplate{Subject: "", Text: "example text"},
			shouldError: true,
		},
		{
			name:        "No content",
			noticeType:  ExampleNotice,
			system:      EmailSystem,
			template:    NoticeTemplate{Subject: "Example"},
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := nm.RegisterNotification(tt.noticeType, tt.system, tt.template)
			if tt.shouldError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if !tt.shouldError {
				if template, exists := nm.notificationRegistry[tt.noticeType][tt.system]; !exists {
					t.Error("Template not registered")
				} else if template.Subject != tt.template.Subject {
					t.Errorf("Wrong subject registered. Got %s, want %s", template.Subject, tt.template.Subject)
				}
			}
		})
	}
}

func TestSend(t *testing.T) {
	nm := NewNotificationManager("")
	mockEmailNotifier := &MockNotifier{}

	nm.RegisterNotifier(EmailSystem, mockEmailNotifier)

	err := nm.RegisterNotification(ExampleNotice, EmailSystem, NoticeTemplate{Subject: "Example", Text: "example text"})
	if err != nil {
		t.Fatalf("Failed to register notification: %v", err)
	}

	testData := NotificationData{
		To:   "user@example.com",
		Data: map[string]string{"ConfirmationLink": "http://localhost/confirm?token=abc"},
	}

	if err := nm.Send(ExampleNotice, testData); err != nil {
		t.Errorf("Failed to send notification: %v", err)
	}

	if len(mockEmailNotifier.SentNotifications) != 1 {
		t.Fatal("Email notification not sent")
	}
	sent := mockEmailNotifier.SentNotifications[0]
	if sent.To != testData.To {
		t.Error("Email notification data mismatch")
	}
}

func TestSendErrors(t *testing.T) {
	nm := NewNotificationManager("")

	// Unregistered notice type
	if err := nm.Send("unregistered", NotificationData{}); err == nil {
		t.Error("Expected error for unregistered notice type")
	}

	// Template registered but no notifier for its system
	err := nm.RegisterNotification(ExampleNotice, EmailSystem, NoticeTemplate{Subject: "Example", Text: "example text"})
	if err != nil {
		t.Fatalf("Failed to register notification: %v", err)
	}

	err = nm.Send(ExampleNotice, NotificationData{})
	if err == nil {
		t.Error("Expected error for missing notifier")
	} else if err.Error() != "no notifier registered for system: email" {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestDefaultTemplates(t *testing.T) {
	nm, err := NewNotificationManagerWithOptions(
		"http://localhost:4000",
		WithNotifier(EmailSystem, &MockNotifier{}),
		WithDefaultTemplates(),
	)
	if err != nil {
		t.Fatalf("Failed to create notification manager: %v", err)
	}

	for _, noticeType := range []NoticeType{
		AccountConfirmationNotice,
		ConfirmationReminderNotice,
		EmailChangeConfirmationNotice,
	} {
		if _, exists := nm.notificationRegistry[noticeType][EmailSystem]; !exists {
			t.Errorf("Default template missing for %s", noticeType)
		}
	}
}
