package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/techflow/internal/model"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Tasks      []jsonTask `json:"tasks"`
}

type jsonTask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Project     string `json:"project"`
	ProjectID   string `json:"project_id"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Assignee    string `json:"assignee,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Overdue     bool   `json:"overdue"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func ToJSON(tasks []model.Task, projects map[string]string, path string) error {
	now := time.Now()
	export := jsonExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Count:      len(tasks),
		Tasks:      []jsonTask{},
	}

	for _, t := range tasks {
		export.Tasks = append(export.Tasks, jsonTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Project:     projectName(t, projects),
			ProjectID:   t.ProjectID,
			Status:      string(t.Status),
			Priority:    string(t.Priority),
			Assignee:    assigneeName(t),
			DueDate:     dueDate(t),
			Overdue:     t.IsOverdue(now),
			CreatedAt:   formatTime(t.CreatedAt),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
