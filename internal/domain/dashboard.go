package domain

import "time"

// OperationState is the lifecycle of one dashboard request
type OperationState string

const (
	OperationIdle    OperationState = "idle"
	OperationPending OperationState = "pending"
	OperationApplied OperationState = "applied"
	OperationFailed  OperationState = "failed"
)

// OperationStatus describes the most recent dashboard request of a session
type OperationStatus struct {
	Operation string         `json:"operation,omitempty"`
	State     OperationState `json:"state"`
	Error     string         `json:"error,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// DashboardSnapshot is a point-in-time copy of a session's aggregates
type DashboardSnapshot struct {
	WorkspaceID int32            `json:"workspaceId"`
	Finance     FinanceAggregate `json:"financeData"`
	Sales       SalesAggregate   `json:"salesData"`
	Product     ProductAggregate `json:"productData"`
	Status      OperationStatus  `json:"status"`
	Loading     bool             `json:"loading"`
	LoadedAt    time.Time        `json:"loadedAt"`
}
