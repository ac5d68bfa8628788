package model

import "strings"

// AdminRecord is stored at /admins/{uid}.
type AdminRecord struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	JoinCode    string `json:"joinCode"`
}

// ChildRecord is stored at /children/{uid}. UID is the child's own auth uid.
type ChildRecord struct {
	UID      string       `json:"uid"`
	Name     string       `json:"name"`
	AdminUID string       `json:"adminUID"`
	Tasks    []TaskRecord `json:"tasks,omitempty"`
}

// TaskRecord is stored at /children/{uid}/tasks/{id}.
type TaskRecord struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	IsComplete bool   `json:"isComplete"`
}

// ParseComplete reads a stored completion flag. Only "true", in any case and
// with surrounding space, counts as complete. "1" and "t" do not.
func ParseComplete(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// NormalizeJoinCode trims surrounding whitespace and upper-cases a join code
// as typed by a child.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type SessionRequest struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

type SessionResponse struct {
	UID   string `json:"uid,omitempty"`
	Token string `json:"token,omitempty"`
}

type TaskRequest struct {
	Title      string `json:"title,omitempty"`
	IsComplete *bool  `json:"isComplete,omitempty"`
}

type ErrorResponse struct {
	Status  int         `json:"status,omitempty"`
	Message string      `json:"msg,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
