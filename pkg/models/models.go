// Package models defines the JSON documents exchanged by the primelab HTTP
// API. They are plain data: the service layer fills them and the server
// encodes them unchanged, so external clients can import this package.
package models

import "time"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`             // HTTP status text
	Message string `json:"message,omitempty"` // details
}

// HealthResponse answers /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// PrimesResponse lists the primes up to a bound.
type PrimesResponse struct {
	Limit  int   `json:"limit"`
	Count  int   `json:"count"`
	Primes []int `json:"primes"`
}

// Features are the per-prime circuit and zeta quantities: the circuit
// elements, the impedance at Omega, and the closest reference zero by
// frequency.
type Features struct {
	Prime   int  `json:"prime"`
	IsPrime bool `json:"is_prime"`

	Frequency   float64 `json:"frequency"`
	Resistance  float64 `json:"resistance"`
	Inductance  float64 `json:"inductance"`
	Capacitance float64 `json:"capacitance"`
	Omega       float64 `json:"omega"`
	XL          float64 `json:"x_l"`
	XC          float64 `json:"x_c"`
	Reactance   float64 `json:"reactance"`
	Impedance   float64 `json:"impedance"`
	Phase       float64 `json:"phase"`

	NearestZero   float64 `json:"nearest_zero"`
	ZeroFrequency float64 `json:"zero_frequency"`
	Distance      float64 `json:"distance"`
	Strength      float64 `json:"strength"`
}

// Nearest-zero search modes.
const (
	// ModeFrequency compares the query with the zero frequencies t/(2π).
	ModeFrequency = "frequency"
	// ModeRaw compares the query with the zeros themselves.
	ModeRaw = "raw"
)

// NearestZero is the closest reference zero to a query value.
type NearestZero struct {
	Query float64 `json:"query"`
	Mode  string  `json:"mode"`
	// Index is the 1-based position of the zero in the reference list.
	Index int `json:"index"`
	// Zero is the imaginary part of the matched zero.
	Zero float64 `json:"zero"`
	// Value is what the query was compared with: Zero in raw mode, its
	// frequency otherwise.
	Value    float64 `json:"value"`
	Distance float64 `json:"distance"`
	Strength float64 `json:"strength"`
}

// Prediction is a next-prime prediction after the largest prime up to
// Limit, scored against the true successor.
type Prediction struct {
	Method     string             `json:"method"`
	Limit      int                `json:"limit"`
	Last       int                `json:"last"`
	Raw        float64            `json:"raw"`
	Predicted  int                `json:"predicted"`
	Confidence float64            `json:"confidence"`
	Actual     int                `json:"actual"`
	Accuracy   float64            `json:"accuracy"`
	Hit        bool               `json:"hit"`
	Details    map[string]float64 `json:"details,omitempty"`
}

// AnalysisInfo describes a registered analysis.
type AnalysisInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AnalysesResponse answers /analyses.
type AnalysesResponse struct {
	Analyses []AnalysisInfo `json:"analyses"`
}

// PredictorsResponse answers /predictors.
type PredictorsResponse struct {
	Predictors []string `json:"predictors"`
}

// AnalysisOutcome is one analysis of a recorded run.
type AnalysisOutcome struct {
	Name     string             `json:"name"`
	Status   string             `json:"status"`
	Duration string             `json:"duration"`
	Error    string             `json:"error,omitempty"`
	Summary  map[string]float64 `json:"summary,omitempty"`
}

// Run is a recorded command-line run.
type Run struct {
	ID       string            `json:"id"`
	Started  time.Time         `json:"started"`
	Duration string            `json:"duration"`
	Limit    int               `json:"limit"`
	Status   string            `json:"status"`
	Analyses []AnalysisOutcome `json:"analyses"`
}

// HistoryResponse answers /history.
type HistoryResponse struct {
	Runs []Run `json:"runs"`
}
