package models

import "time"

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a ticker conversation.
type Turn struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"`
	Symbol    string    `json:"symbol"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Failed    bool      `json:"failed,omitempty"` // synthetic diagnostic answer
	Timestamp time.Time `json:"timestamp"`
}

// ScanResult is a buy-recommended ticker found by the batch scan.
type ScanResult struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Analysis string  `json:"analysis"`
}

// ScanFailure records a symbol the batch scan could not analyze.
type ScanFailure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// ScanReport is the outcome of one batch scan.
type ScanReport struct {
	ID          string        `json:"id"`
	Started     time.Time     `json:"started"`
	Finished    time.Time     `json:"finished"`
	Symbols     []string      `json:"symbols"`
	Analyzed    int           `json:"analyzed"`
	Recommended []ScanResult  `json:"recommended"`
	Failures    []ScanFailure `json:"failures"`
}
