package projects

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// DateLayout é o formato de start_date/end_date.
const DateLayout = "2006-01-02"

type Project struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	EstimatedBudget float64   `json:"estimated_budget"`
	Status          Status    `json:"status"`
	TeamID          string    `json:"team_id"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WithStats é o projeto com os campos calculados a partir das datas.
type WithStats struct {
	Project
	DurationDays        int `json:"duration_days"`
	DaysRemaining       int `json:"days_remaining"`
	TimeProgressPercent int `json:"time_progress_percent"`
}

type Input struct {
	Name            string  `json:"name" validate:"required,max=100"`
	Description     *string `json:"description" validate:"omitnil,max=500"`
	StartDate       string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate         string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	EstimatedBudget float64 `json:"estimated_budget" validate:"gt=0"`
}

// UpdateInput é parcial: campo nil não muda.
type UpdateInput struct {
	Name            *string  `json:"name" validate:"omitnil,min=1,max=100"`
	Description     *string  `json:"description" validate:"omitnil,max=500"`
	StartDate       *string  `json:"start_date" validate:"omitnil,datetime=2006-01-02"`
	EndDate         *string  `json:"end_date" validate:"omitnil,datetime=2006-01-02"`
	EstimatedBudget *float64 `json:"estimated_budget" validate:"omitnil,gt=0"`
	Status          *Status  `json:"status" validate:"omitnil,oneof=active completed archived"`
}

// Identity vem do provedor de identidade externo (não emitimos sessão aqui).
type Identity struct {
	UserID string
	TeamID string
}

type ListOptions struct {
	Status Status
	Search string
	Limit  int
	Offset int
}

type Counts struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Archived  int `json:"archived"`
	Total     int `json:"total"`
}

type Summary struct {
	TotalBudget     float64 `json:"totalBudget"`
	AverageBudget   float64 `json:"averageBudget"`
	ActiveProjects  int     `json:"activeProjects"`
	OverdueProjects int     `json:"overdueProjects"`
	TotalProjects   int     `json:"totalProjects"`
}
