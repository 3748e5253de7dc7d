package types

import "time"

// Assembly is a board assembly part number.
type Assembly struct {
	ID          string    `json:"id" db:"id"`
	Number      string    `json:"number" db:"number"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Revision is a revision of an assembly, unique per assembly.
type Revision struct {
	ID         string `json:"id" db:"id"`
	AssemblyID string `json:"assembly_id" db:"assembly_id"`
	RevCode    string `json:"rev_code" db:"rev_code"`
}

// Job is a production work order for an assembly.
type Job struct {
	ID         string    `json:"id" db:"id"`
	JobNumber  string    `json:"job_number" db:"job_number"`
	AssemblyID string    `json:"assembly_id" db:"assembly_id"`
	RevisionID string    `json:"revision_id,omitempty" db:"revision_id"`
	PlannedQty int       `json:"planned_qty,omitempty" db:"planned_qty"`
	StartTS    time.Time `json:"start_ts" db:"start_ts"`
}

// Operation is an inspection step, e.g. "SMT AOI" or "TH AOI".
type Operation struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Line is a production line.
type Line struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Operator is a floor operator identified by badge number.
type Operator struct {
	ID        string `json:"id" db:"id"`
	Badge     string `json:"badge" db:"badge"`
	FirstName string `json:"first_name,omitempty" db:"first_name"`
	LastName  string `json:"last_name,omitempty" db:"last_name"`
	Role      string `json:"role" db:"role"`
}

// ReportDefect is one defect line item on an AOI report. The code must exist
// in the defect code dictionary at submission time.
type ReportDefect struct {
	ID         string `json:"id" db:"id"`
	ReportID   string `json:"-" db:"aoi_report_id"`
	DefectCode string `json:"defect_code" db:"defect_code"`
	DefectName string `json:"defect_name,omitempty" db:"-"`
	Count      int    `json:"count" db:"count"`
}

// AOIReport is one submitted inspection result for a job at an operation.
type AOIReport struct {
	ID              string         `json:"id" db:"id"`
	JobID           string         `json:"job_id" db:"job_id"`
	OperationID     string         `json:"operation_id" db:"operation_id"`
	LineID          string         `json:"line_id,omitempty" db:"line_id"`
	OperatorID      string         `json:"operator_id,omitempty" db:"operator_id"`
	ReportTS        time.Time      `json:"report_ts" db:"report_ts"`
	BoardsInspected int            `json:"boards_inspected" db:"boards_inspected"`
	BoardsNG        int            `json:"boards_ng" db:"boards_ng"`
	Notes           string         `json:"notes,omitempty" db:"notes"`
	Defects         []ReportDefect `json:"defects,omitempty" db:"-"`
}

// ReportDetails is an AOI report joined with its reference data for display.
type ReportDetails struct {
	Report         AOIReport `json:"report"`
	JobNumber      string    `json:"job_number"`
	AssemblyNumber string    `json:"assembly_number"`
	RevisionCode   string    `json:"revision_code,omitempty"`
	OperationName  string    `json:"operation_name"`
	LineName       string    `json:"line_name,omitempty"`
	OperatorBadge  string    `json:"operator_badge,omitempty"`
}

// KPISummary aggregates inspection results across all reports.
type KPISummary struct {
	TotalJobs   int     `json:"total_jobs"`
	TotalBoards int     `json:"total_boards"`
	TotalNG     int     `json:"total_ng"`
	SitePPM     float64 `json:"site_ppm"`
}

// DefectTally is an aggregate count for one defect code.
type DefectTally struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}
