package modules

import "context"

// Metadata is the contract for module identity and display data.
type Metadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Module is the minimal registry boundary.
type Module interface {
	Metadata() Metadata
}

// Assessment is the output of one inference pass.
type Assessment struct {
	ThreatAssessment float64 `json:"threat_assessment"`
	SystemConfidence float64 `json:"system_confidence"`
	InferenceMS      float64 `json:"inference_ms"`
	VectorState      string  `json:"vector_state"`
}

// Inference produces a tactical assessment from an input vector.
type Inference interface {
	Module
	ForwardPass(ctx context.Context, vector []int) (Assessment, error)
}

// Renderer produces one display frame from telemetry.
type Renderer interface {
	Module
	RenderFrame(ctx context.Context, telemetry map[string]any) ([]byte, error)
}

// Optimizer adjusts a gradient list.
type Optimizer interface {
	Module
	OptimizeWeights(ctx context.Context, gradients []float64) ([]float64, error)
}
