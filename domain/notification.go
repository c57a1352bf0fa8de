package domain

import "fmt"

// NotificationLevel classifies process notifications
type NotificationLevel string

const (
	NotificationError   NotificationLevel = "error"
	NotificationWarning NotificationLevel = "warning"
	NotificationInfo    NotificationLevel = "info"
)

// Notification is a process-level message attached to a run result
type Notification struct {
	Level   NotificationLevel `json:"level" yaml:"level"`
	Message string            `json:"message" yaml:"message"`
	RuleID  string            `json:"rule_id,omitempty" yaml:"rule_id,omitempty"`
	File    string            `json:"file,omitempty" yaml:"file,omitempty"`
}

// String returns the notification as a single line
func (n Notification) String() string {
	switch {
	case n.RuleID != "" && n.File != "":
		return fmt.Sprintf("%s: %s (rule %s, file %s)", n.Level, n.Message, n.RuleID, n.File)
	case n.RuleID != "":
		return fmt.Sprintf("%s: %s (rule %s)", n.Level, n.Message, n.RuleID)
	case n.File != "":
		return fmt.Sprintf("%s: %s (file %s)", n.Level, n.Message, n.File)
	}
	return fmt.Sprintf("%s: %s", n.Level, n.Message)
}
