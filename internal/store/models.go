package store

import "time"

type Setting struct {
	Key   string
	Value string
}

// Item is one entry of the key/value storage table.
type Item struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Storage keys shared with the session layer.
const (
	KeyToken = "techflow_token"
	KeyUser  = "techflow_user"
)

// Preference keys. An absent key means the configured default applies.
const (
	SettingTaskPageSize    = "task_page_size"
	SettingProjectPageSize = "project_page_size"
	SettingToastMillis     = "toast_ms"
)
