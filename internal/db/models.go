package db

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

type QuestionType string

const (
	QuestionTypeText        QuestionType = "text"
	QuestionTypeTextarea    QuestionType = "textarea"
	QuestionTypeSelect      QuestionType = "select"
	QuestionTypeMultiselect QuestionType = "multiselect"
	QuestionTypeRadio       QuestionType = "radio"
	QuestionTypeCheckbox    QuestionType = "checkbox"
)

// RequiresOptions reports whether the question type only accepts values
// drawn from a predefined option list.
func (t QuestionType) RequiresOptions() bool {
	switch t {
	case QuestionTypeSelect, QuestionTypeMultiselect, QuestionTypeRadio, QuestionTypeCheckbox:
		return true
	}
	return false
}

// MultiValue reports whether answers for this question type are lists.
func (t QuestionType) MultiValue() bool {
	return t == QuestionTypeMultiselect || t == QuestionTypeCheckbox
}

type AuthType string

const (
	AuthTypeSecret AuthType = "secret"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
)

type TestStatus string

const (
	TestStatusSuccess TestStatus = "success"
	TestStatusFailure TestStatus = "failure"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type Tenant struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	Email     string    `json:"email" db:"email"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type WebhookConfig struct {
	TenantID       string      `json:"-" db:"tenant_id"`
	WebhookURL     *string     `json:"webhook_url" db:"webhook_url"`
	WebhookSecret  *string     `json:"webhook_secret,omitempty" db:"webhook_secret"`
	AuthType       AuthType    `json:"auth_type" db:"auth_type"`
	IsActive       bool        `json:"is_active" db:"is_active"`
	LastTestAt     *time.Time  `json:"last_test_at" db:"last_test_at"`
	LastTestStatus *TestStatus `json:"last_test_status" db:"last_test_status"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// Deliverable reports whether outbound delivery may be attempted at all.
// An inactive or unconfigured webhook is not an error condition.
func (c *WebhookConfig) Deliverable() bool {
	return c != nil && c.IsActive && c.WebhookURL != nil && *c.WebhookURL != ""
}

type Question struct {
	ID         string       `json:"id" db:"id"`
	TenantID   string       `json:"-" db:"tenant_id"`
	Label      string       `json:"label" db:"label"`
	FieldKey   string       `json:"field_key" db:"field_key"`
	Type       QuestionType `json:"question_type" db:"question_type"`
	Options    StringSlice  `json:"options" db:"options"`
	IsRequired bool         `json:"is_required" db:"is_required"`
	OrderIndex int          `json:"order_index" db:"order_index"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}

type FormResponse struct {
	ID            string     `json:"id" db:"id"`
	TenantID      string     `json:"-" db:"tenant_id"`
	FormSlug      string     `json:"form_slug" db:"form_slug"`
	LeadID        *string    `json:"lead_id" db:"lead_id"`
	Answers       AnswerMap  `json:"answers" db:"answers"`
	SubmittedAt   time.Time  `json:"submitted_at" db:"submitted_at"`
	WebhookSent   bool       `json:"webhook_sent" db:"webhook_sent"`
	WebhookSentAt *time.Time `json:"webhook_sent_at" db:"webhook_sent_at"`
}

// Lead is owned by the CRM subsystem. This service only reads it for
// correlation and flags briefing completion; it never creates one.
// Column names keep the legacy CRM schema.
type Lead struct {
	ID                  string     `json:"id" db:"id"`
	TenantID            string     `json:"-" db:"tenant_id"`
	Name                string     `json:"name" db:"name"`
	WhatsApp            string     `json:"whatsapp" db:"whatsapp"`
	BriefingCompleted   bool       `json:"briefing_preenchido" db:"briefing_preenchido"`
	BriefingCompletedAt *time.Time `json:"briefing_preenchido_em" db:"briefing_preenchido_em"`
}

type AutomationInstance struct {
	ID              string     `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	URL             string     `json:"url" db:"url"`
	APIKeyEncrypted string     `json:"-" db:"api_key_encrypted"`
	Active          bool       `json:"active" db:"active"`
	CheckInterval   int        `json:"check_interval" db:"check_interval"`
	LastCheck       *time.Time `json:"last_check" db:"last_check"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

type AutomationError struct {
	ID           string    `json:"id" db:"id"`
	InstanceID   string    `json:"instance_id" db:"instance_id"`
	ExecutionID  string    `json:"execution_id" db:"execution_id"`
	WorkflowID   string    `json:"workflow_id" db:"workflow_id"`
	WorkflowName string    `json:"workflow_name" db:"workflow_name"`
	ErrorNode    string    `json:"error_node" db:"error_node"`
	ErrorMessage string    `json:"error_message" db:"error_message"`
	ErrorDetails JSONB     `json:"error_details" db:"error_details"`
	Severity     Severity  `json:"severity" db:"severity"`
	AIAnalysis   *string   `json:"ai_analysis" db:"ai_analysis"`
	Notified     bool      `json:"notified" db:"notified"`
	Resolved     bool      `json:"resolved" db:"resolved"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
}

type ErrorFilters struct {
	InstanceID string
	Resolved   string // "true", "false", or empty
	Severity   string
	Limit      int
	Offset     int
}

// Custom types for PostgreSQL arrays and JSONB
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}
	return json.Unmarshal(value.([]byte), s)
}

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	return json.Unmarshal(value.([]byte), j)
}
