package dto

type TaskItem struct {
	ID            string  `json:"id"`
	Owner         string  `json:"owner"`
	Title         string  `json:"title"`
	Description   *string `json:"description,omitempty"`
	Priority      string  `json:"priority"`
	DueDate       *string `json:"dueDate,omitempty"`
	Category      string  `json:"category,omitempty"`
	Repetition    string  `json:"repetition"`
	EstimatedTime *int    `json:"estimatedTime,omitempty"`
	IsCompleted   bool    `json:"isCompleted"`
	TimeSpent     int     `json:"timeSpent"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// CreateTaskRequest accepts the task fields minus id and owner.
type CreateTaskRequest struct {
	Title         string  `json:"title" binding:"required,max=255"`
	Description   *string `json:"description" binding:"omitempty,max=65535"`
	Priority      *string `json:"priority"`
	DueDate       *string `json:"dueDate"`
	Category      *string `json:"category" binding:"omitempty,max=255"`
	Repetition    *string `json:"repetition"`
	EstimatedTime *int    `json:"estimatedTime" binding:"omitempty,gte=0"`
	IsCompleted   *bool   `json:"isCompleted"`
	TimeSpent     *int    `json:"timeSpent" binding:"omitempty,gte=0"`
}

type UpdateTaskRequest struct {
	Title         *string `json:"title" binding:"omitempty,max=255"`
	Description   *string `json:"description" binding:"omitempty,max=65535"`
	Priority      *string `json:"priority"`
	DueDate       *string `json:"dueDate"`
	Category      *string `json:"category" binding:"omitempty,max=255"`
	Repetition    *string `json:"repetition"`
	EstimatedTime *int    `json:"estimatedTime" binding:"omitempty,gte=0"`
	IsCompleted   *bool   `json:"isCompleted"`
	TimeSpent     *int    `json:"timeSpent" binding:"omitempty,gte=0"`
}

type UpdateTimeRequest struct {
	TimeSpent *int `json:"timeSpent" binding:"required,gte=0"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
