package facade

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/services"
)

// Timestamp accepts RFC 3339 timestamps and plain dates (2006-01-02).
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return &time.ParseError{Layout: time.RFC3339, Value: raw, Message: ": expected RFC 3339 time or YYYY-MM-DD date"}
}

func (t *Timestamp) timePtr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}

func (t *Timestamp) value() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Time
}

// decode strictly decodes a JSON payload. An empty payload decodes as {}.
func decode(payload json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &services.ValidationError{Field: "payload", Reason: err.Error()}
	}
	return nil
}

func queryUint(query map[string]string, key string) (*uint64, error) {
	raw, ok := query[key]
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, &services.ValidationError{Field: key, Reason: "must be a positive integer"}
	}
	return &v, nil
}

func queryBool(query map[string]string, key string) (bool, error) {
	raw, ok := query[key]
	if !ok || raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &services.ValidationError{Field: key, Reason: "must be true or false"}
	}
	return v, nil
}

// queryVersion reads the optional expected version of a delete.
func queryVersion(query map[string]string) (uint64, error) {
	v, err := queryUint(query, "version")
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

func queryString(query map[string]string, key string) *string {
	raw := strings.TrimSpace(query[key])
	if raw == "" {
		return nil
	}
	return &raw
}

type userCreatePayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type userUpdatePayload struct {
	Version   uint64  `json:"version"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type roleAssignmentPayload struct {
	RoleID uint64 `json:"role_id"`
}

type roleCreatePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type roleUpdatePayload struct {
	Version     uint64  `json:"version"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type clientCreatePayload struct {
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Notes        string `json:"notes"`
}

type clientUpdatePayload struct {
	Version      uint64  `json:"version"`
	Name         *string `json:"name"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
	Notes        *string `json:"notes"`
}

type projectCreatePayload struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	StartDate   *Timestamp           `json:"start_date"`
	EndDate     *Timestamp           `json:"end_date"`
	ClientID    uint64               `json:"client_id"`
	ManagerID   uint64               `json:"manager_id"`
	Status      models.ProjectStatus `json:"status"`
}

type projectUpdatePayload struct {
	Version     uint64                `json:"version"`
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	StartDate   *Timestamp            `json:"start_date"`
	EndDate     *Timestamp            `json:"end_date"`
	ClientID    *uint64               `json:"client_id"`
	ManagerID   *uint64               `json:"manager_id"`
	Status      *models.ProjectStatus `json:"status"`
}

type suggestTasksPayload struct {
	Hint  string `json:"hint"`
	Limit int    `json:"limit"`
}

type taskCreatePayload struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	ProjectID   uint64              `json:"project_id"`
	AssigneeID  *uint64             `json:"assignee_id"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *Timestamp          `json:"due_date"`
}

type taskUpdatePayload struct {
	Version       uint64               `json:"version"`
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	ProjectID     *uint64              `json:"project_id"`
	AssigneeID    *uint64              `json:"assignee_id"`
	ClearAssignee bool                 `json:"clear_assignee"`
	Priority      *models.TaskPriority `json:"priority"`
	Status        *models.TaskStatus   `json:"status"`
	DueDate       *Timestamp           `json:"due_date"`
	ClearDueDate  bool                 `json:"clear_due_date"`
}

type taskTransitionPayload struct {
	Version uint64            `json:"version"`
	Status  models.TaskStatus `json:"status"`
}

type commentCreatePayload struct {
	TaskID  uint64 `json:"task_id"`
	Content string `json:"content"`
}

type commentUpdatePayload struct {
	Version uint64 `json:"version"`
	Content string `json:"content"`
}

type attachmentCreatePayload struct {
	TaskID   uint64 `json:"task_id"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
}
