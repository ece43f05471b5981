package core

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
	"github.com/valter-silva-au/todo-nexus/pkg/models"
)

// nanoIDLength is the length of IDs produced by the nanoid strategy.
const nanoIDLength = 12

// TaskIDGenerator defines the interface for generating unique task IDs.
type TaskIDGenerator interface {
	GenerateTaskID() (string, error)
}

// counterTaskIDGenerator hands out sequential IDs from an in-memory counter.
// IDs are unique for the lifetime of the generator.
type counterTaskIDGenerator struct {
	prefix   string
	padWidth int
	counter  atomic.Uint64
}

// NewCounterTaskIDGenerator creates a TaskIDGenerator producing IDs of the form
// {prefix}-{counter} with the counter zero-padded to padWidth digits. Use 0 for
// no padding (e.g., TASK-1).
func NewCounterTaskIDGenerator(prefix string, padWidth int) TaskIDGenerator {
	return &counterTaskIDGenerator{prefix: prefix, padWidth: padWidth}
}

// GenerateTaskID increments the counter and returns the formatted task ID.
// Format: {prefix}-{counter:05d} (e.g., TASK-00001).
func (g *counterTaskIDGenerator) GenerateTaskID() (string, error) {
	n := g.counter.Add(1)
	if g.padWidth > 0 {
		return fmt.Sprintf("%s-%0*d", g.prefix, g.padWidth, n), nil
	}
	return fmt.Sprintf("%s-%d", g.prefix, n), nil
}

type uuidTaskIDGenerator struct{}

func (uuidTaskIDGenerator) GenerateTaskID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating uuid: %w", err)
	}
	return id.String(), nil
}

type nanoTaskIDGenerator struct {
	prefix string
	next   func() string
}

func (g *nanoTaskIDGenerator) GenerateTaskID() (string, error) {
	return g.prefix + "-" + g.next(), nil
}

// NewTaskIDGenerator builds the generator for the configured strategy.
// An empty strategy selects the counter.
func NewTaskIDGenerator(strategy models.TaskIDStrategy, prefix string, padWidth int) (TaskIDGenerator, error) {
	switch strategy {
	case models.IDStrategyCounter, "":
		return NewCounterTaskIDGenerator(prefix, padWidth), nil
	case models.IDStrategyUUID:
		return uuidTaskIDGenerator{}, nil
	case models.IDStrategyNanoID:
		next, err := nanoid.Standard(nanoIDLength)
		if err != nil {
			return nil, fmt.Errorf("creating nanoid generator: %w", err)
		}
		return &nanoTaskIDGenerator{prefix: prefix, next: next}, nil
	default:
		return nil, fmt.Errorf("unknown task ID strategy %q", strategy)
	}
}
