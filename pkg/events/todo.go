package events

// TodoData is the normalized shape of a provider task.
type TodoData struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Status         string         `json:"status,omitempty"`
	Priority       string         `json:"priority,omitempty"`
	DueDate        *FlexTime      `json:"due_date,omitempty"`
	CompletedDate  *FlexTime      `json:"completed_date,omitempty"`
	AssigneeEmail  string         `json:"assignee_email,omitempty"`
	CreatorEmail   string         `json:"creator_email,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	ParentTodoID   string         `json:"parent_todo_id,omitempty"`
	SubtaskIDs     []string       `json:"subtask_ids,omitempty"`
	Provider       string         `json:"provider,omitempty"`
	ProviderTodoID string         `json:"provider_todo_id,omitempty"`
	ListID         string         `json:"list_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// TodoEvent is the envelope specialized with a TodoData payload.
type TodoEvent struct {
	Envelope
	Todo TodoData `json:"todo"`
}

// TodoListData is a todo list's own metadata, distinct from any single
// TodoData it contains. Supplemented from original_source — the distilled
// spec covers only the single-todo payload.
type TodoListData struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Color           string         `json:"color,omitempty"`
	IsDefault       bool           `json:"is_default,omitempty"`
	Provider        string         `json:"provider,omitempty"`
	ProviderListID  string         `json:"provider_list_id,omitempty"`
	OwnerEmail      string         `json:"owner_email,omitempty"`
	SharedWith      []string       `json:"shared_with,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// TodoListEvent is the envelope specialized with a TodoListData payload.
type TodoListEvent struct {
	Envelope
	TodoList TodoListData `json:"todo_list"`
}
