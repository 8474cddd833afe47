package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/techflow/internal/model"
)

// ToCSV writes tasks to path. projects maps project id to name; tasks whose
// project is embedded or unknown fall back to the embedded name or the id.
func ToCSV(tasks []model.Task, projects map[string]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Title", "Project", "Status", "Priority", "Assignee", "Due Date", "Overdue", "Created"}); err != nil {
		return err
	}

	now := time.Now()
	for _, t := range tasks {
		row := []string{
			t.ID,
			t.Title,
			projectName(t, projects),
			string(t.Status),
			string(t.Priority),
			assigneeName(t),
			dueDate(t),
			strconv.FormatBool(t.IsOverdue(now)),
			formatTime(t.CreatedAt),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func projectName(t model.Task, projects map[string]string) string {
	if t.Project != nil && t.Project.Name != "" {
		return t.Project.Name
	}
	if name, ok := projects[t.ProjectID]; ok {
		return name
	}
	if t.ProjectID != "" {
		return t.ProjectID
	}
	return "Unknown"
}

func assigneeName(t model.Task) string {
	if t.AssignedUser != nil && t.AssignedUser.Name != "" {
		return t.AssignedUser.Name
	}
	return t.AssignedTo
}

func dueDate(t model.Task) string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.String()
}

func formatTime(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Local().Format(time.RFC3339)
}
