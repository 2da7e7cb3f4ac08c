package model

import (
	"errors"
	"time"

	"github.com/okian/lineup/internal/domain/types"
)

// Sentinel input errors shared by the roster and the search layer.
var (
	ErrEmptyInput   = errors.New("empty input: no players")
	ErrInvalidInput = errors.New("invalid input")
)

// RunStats counts what a strategy run did.
type RunStats struct {
	Iterations int `json:"iterations"`
	Accepted   int `json:"accepted"`
	Rejected   int `json:"rejected"`
	Violations int `json:"violations"`
	// BestBalance is +Inf when no valid partition was seen.
	BestBalance float64 `json:"-"`
}

// TeamResult is one labelled team of a formation.
type TeamResult struct {
	Label        string             `json:"label"`
	Team         Team               `json:"team"`
	Positions    map[string]string  `json:"positions"`
	Aggregates   map[string]float64 `json:"aggregates"`
	BalanceScore float64            `json:"balance_score"`
	Valid        bool               `json:"valid"`
}

// Formation is the post-processed result of one balancing run.
type Formation struct {
	Strategy     string        `json:"strategy"`
	Seed         uint64        `json:"seed"`
	TotalBalance float64       `json:"total_balance"`
	Valid        bool          `json:"valid"`
	Teams        []TeamResult  `json:"teams"`
	Stats        RunStats      `json:"stats"`
	Duration     time.Duration `json:"duration_ns"`
}

// JobStatus is the lifecycle state of an asynchronous formulation.
type JobStatus string

// Job states.
const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is the payload flowing through the queue.
type Job struct {
	ID          string
	Request     types.FormationRequest
	SubmittedAt time.Time
}

// Record is the stored view of a job.
type Record struct {
	ID          string     `json:"id"`
	RequestID   string     `json:"request_id,omitempty"`
	Status      JobStatus  `json:"status"`
	Strategy    string     `json:"strategy"`
	Players     int        `json:"players"`
	SubmittedAt time.Time  `json:"submitted_at"`
	FinishedAt  time.Time  `json:"finished_at,omitzero"`
	Formation   *Formation `json:"formation,omitempty"`
	Error       string     `json:"error,omitempty"`
}
