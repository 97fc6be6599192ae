package cipher

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknownOperation is returned when a pipeline names an operation the
	// registry does not hold.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrInvalidParameter is returned for missing or malformed operation
	// parameters.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNotReversible is returned when a pipeline cannot be inverted.
	ErrNotReversible = errors.New("not reversible")
)

// OperationType defines the category of a transformation operation
type OperationType string

const (
	OperationTypeEncode     OperationType = "encode"
	OperationTypeDecode     OperationType = "decode"
	OperationTypeXOR        OperationType = "xor"
	OperationTypeCrack      OperationType = "crack"
	OperationTypeDigest     OperationType = "digest"
	OperationTypeCompress   OperationType = "compress"
	OperationTypeDecompress OperationType = "decompress"
)

// Operation is a single named byte transformation
type Operation interface {
	// Name returns the unique identifier for this operation
	Name() string

	// Type returns the category of this operation
	Type() OperationType

	// Description returns a human-readable description
	Description() string

	// Execute applies the operation to the input data
	Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error)

	// Reverse returns the inverse operation if one exists
	Reverse() (Operation, bool)
}

// OperationConfig names an operation and its parameters within a pipeline
type OperationConfig struct {
	Name       string                 `json:"name" yaml:"name"`
	Parameters map[string]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Pipeline is a chain of operations applied in order
type Pipeline struct {
	Operations []OperationConfig `json:"operations" yaml:"operations"`
	Reversible bool              `json:"reversible" yaml:"reversible"`
}

// Execute runs the pipeline against the default registry
func (p *Pipeline) Execute(ctx context.Context, input []byte) ([]byte, error) {
	return p.ExecuteWith(ctx, defaultRegistry, input)
}

// ExecuteWith runs the pipeline resolving operations from reg
func (p *Pipeline) ExecuteWith(ctx context.Context, reg *Registry, input []byte) ([]byte, error) {
	result := input
	var err error

	for i, opConfig := range p.Operations {
		op, exists := reg.Get(opConfig.Name)
		if !exists {
			return nil, fmt.Errorf("%w at step %d: %s", ErrUnknownOperation, i, opConfig.Name)
		}

		result, err = op.Execute(ctx, result, opConfig.Parameters)
		if err != nil {
			return nil, fmt.Errorf("operation %s failed at step %d: %w", opConfig.Name, i, err)
		}
	}

	return result, nil
}

// Reverse builds the inverse pipeline when every step has an inverse
func (p *Pipeline) Reverse() (*Pipeline, error) {
	return p.ReverseWith(defaultRegistry)
}

// ReverseWith builds the inverse pipeline resolving operations from reg
func (p *Pipeline) ReverseWith(reg *Registry) (*Pipeline, error) {
	if !p.Reversible {
		return nil, fmt.Errorf("pipeline is %w", ErrNotReversible)
	}

	reversed := &Pipeline{
		Operations: make([]OperationConfig, len(p.Operations)),
		Reversible: true,
	}

	for i, opConfig := range p.Operations {
		op, exists := reg.Get(opConfig.Name)
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, opConfig.Name)
		}

		reverseOp, ok := op.Reverse()
		if !ok {
			return nil, fmt.Errorf("operation %s is %w", opConfig.Name, ErrNotReversible)
		}

		reversed.Operations[len(p.Operations)-1-i] = OperationConfig{
			Name:       reverseOp.Name(),
			Parameters: opConfig.Parameters,
		}
	}

	return reversed, nil
}

// Recipe is a named, reusable pipeline
type Recipe struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Pipeline    Pipeline `json:"pipeline" yaml:"pipeline"`
	Builtin     bool     `json:"-" yaml:"-"`
	CreatedAt   string   `json:"created_at" yaml:"-"`
	UpdatedAt   string   `json:"updated_at" yaml:"-"`
}

// DetectionResult is one guess about what the input is
type DetectionResult struct {
	Encoding   string  `json:"encoding"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Reasoning  string  `json:"reasoning"`
	Operation  string  `json:"operation"` // operation that undoes the encoding
}

// Detector identifies the encoding of input data
type Detector interface {
	Detect(ctx context.Context, input []byte) ([]DetectionResult, error)
	SupportedEncodings() []string
}

// BaseOperation carries the metadata shared by every operation
type BaseOperation struct {
	NameValue        string
	TypeValue        OperationType
	DescriptionValue string
	ReverseOp        Operation
}

func (b *BaseOperation) Name() string {
	return b.NameValue
}

func (b *BaseOperation) Type() OperationType {
	return b.TypeValue
}

func (b *BaseOperation) Description() string {
	return b.DescriptionValue
}

func (b *BaseOperation) Reverse() (Operation, bool) {
	if b.ReverseOp == nil {
		return nil, false
	}
	return b.ReverseOp, true
}
