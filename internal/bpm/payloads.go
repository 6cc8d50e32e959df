package bpm

import (
	"errors"
	"time"
)

// DateFormat is the calendar-date wire format the workflow forms expect.
const DateFormat = "2006-01-02"

// FormPayload is one of the known form shapes submitted to the engine. Each
// shape validates itself before being sent.
type FormPayload interface {
	Validate() error
}

// FormatDate renders a timestamp as the engine's calendar-date string.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// TaskInput is one collaboration-needed task inside the project creation form.
type TaskInput struct {
	Title            string `json:"task_title"`
	Necessity        string `json:"task_necessity"`
	StartDate        string `json:"task_start_date"`
	EndDate          string `json:"task_end_date"`
	ResolvesByItself bool   `json:"task_resolves_by_itself"`
	Quantity         int    `json:"task_quantity"`
	Status           string `json:"task_status"`
}

// ProjectDataInput carries the project's immutable fields plus the task list
// offered for collaboration.
type ProjectDataInput struct {
	Name        string      `json:"project_name"`
	Description string      `json:"project_description"`
	StartDate   string      `json:"project_start_date"`
	EndDate     string      `json:"project_end_date"`
	Status      string      `json:"project_status"`
	Owner       string      `json:"project_owner"`
	Tasks       []TaskInput `json:"project_tasks"`
}

// ProjectCreationPayload is the form submitted on the first human task of a
// newly instantiated project case.
type ProjectCreationPayload struct {
	Input ProjectDataInput `json:"projectDataInput"`
}

func (p ProjectCreationPayload) Validate() error {
	switch {
	case p.Input.Name == "":
		return errors.New("project name is required")
	case p.Input.StartDate == "" || p.Input.EndDate == "":
		return errors.New("project dates are required")
	case p.Input.Owner == "":
		return errors.New("project owner is required")
	}
	for _, task := range p.Input.Tasks {
		if task.Title == "" {
			return errors.New("task title is required")
		}
		if task.StartDate == "" || task.EndDate == "" {
			return errors.New("task dates are required")
		}
	}
	return nil
}

// CompromisePayload records an organization's application to a task on the
// project's workflow case.
type CompromisePayload struct {
	Input CompromiseInput `json:"compromiseInput"`
}

type CompromiseInput struct {
	TaskID         uint64 `json:"compromise_task_id"`
	OrganizationID uint64 `json:"compromise_ong_id"`
}

func (p CompromisePayload) Validate() error {
	if p.Input.TaskID == 0 || p.Input.OrganizationID == 0 {
		return errors.New("compromise requires a task id and an organization id")
	}
	return nil
}

// SelectCompromisePayload records the owner's selection of one applicant.
type SelectCompromisePayload struct {
	Input SelectCompromiseInput `json:"selectCompromiseInput"`
}

type SelectCompromiseInput struct {
	TaskID         uint64 `json:"select_comp_task_id"`
	OrganizationID uint64 `json:"select_comp_ong_id"`
}

func (p SelectCompromisePayload) Validate() error {
	if p.Input.TaskID == 0 || p.Input.OrganizationID == 0 {
		return errors.New("selection requires a task id and an organization id")
	}
	return nil
}

// ObservationPayload starts the control workflow for one observation.
type ObservationPayload struct {
	Input ObservationInput `json:"inputObservations"`
}

type ObservationInput struct {
	Content        string `json:"observationContent"`
	ProjectName    string `json:"projectName"`
	CreatedAt      string `json:"observationCreatedAt"`
	UserID         uint64 `json:"userId"`
	OrganizationID uint64 `json:"ongId"`
}

func (p ObservationPayload) Validate() error {
	switch {
	case p.Input.Content == "":
		return errors.New("observation content is required")
	case p.Input.ProjectName == "":
		return errors.New("observation project name is required")
	case p.Input.UserID == 0:
		return errors.New("observation user id is required")
	}
	return nil
}

// AcceptObservationPayload resolves a pending observation on its case.
type AcceptObservationPayload struct {
	Input AcceptObservationInput `json:"acceptObservationInput"`
}

type AcceptObservationInput struct {
	ObservationID uint64 `json:"acceptObservationId"`
	AcceptedAt    string `json:"acceptObservationDate"`
}

func (p AcceptObservationPayload) Validate() error {
	if p.Input.ObservationID == 0 {
		return errors.New("observation id is required")
	}
	if p.Input.AcceptedAt == "" {
		return errors.New("acceptance date is required")
	}
	return nil
}
