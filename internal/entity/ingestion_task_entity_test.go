package entity

import "testing"

func TestIngestionTaskResolve(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []string
		wantState string
	}{
		{
			name:      "all pending",
			statuses:  []string{DocumentStatusPending, DocumentStatusPending},
			wantState: TaskStatePending,
		},
		{
			name:      "one still pending",
			statuses:  []string{DocumentStatusSuccess, DocumentStatusPending},
			wantState: TaskStatePending,
		},
		{
			name:      "all succeeded",
			statuses:  []string{DocumentStatusSuccess, DocumentStatusSuccess},
			wantState: TaskStateFinished,
		},
		{
			name:      "partial failure still finishes",
			statuses:  []string{DocumentStatusSuccess, DocumentStatusFailed},
			wantState: TaskStateFinished,
		},
		{
			name:      "all failed",
			statuses:  []string{DocumentStatusFailed, DocumentStatusFailed},
			wantState: TaskStateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &IngestionTask{Id: "t"}
			for i, s := range tt.statuses {
				task.Documents = append(task.Documents, TaskDocument{
					DocumentName: string(rune('a' + i)),
					Status:       s,
				})
			}

			task.Resolve()

			if task.State != tt.wantState {
				t.Errorf("State = %q, want %q", task.State, tt.wantState)
			}
		})
	}
}
