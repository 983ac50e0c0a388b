// Package discovery produces the ordered list of GPU devices a run reports
// on. Two strategies exist: Hierarchical walks sockets and filters by
// processor type, Flat takes every processor the library returns.
package discovery

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"gpu-metrics-reporter/internal/errors"
	"gpu-metrics-reporter/internal/smi"
)

// Default bounds on enumeration results.
const (
	DefaultMaxSockets = 64
	DefaultMaxDevices = 64
)

// Strategy names accepted by New.
const (
	StrategyHierarchical = "hierarchical"
	StrategyFlat         = "flat"
)

var (
	ErrTooManySockets = stderrors.New("socket count exceeds supported maximum")
	ErrTooManyDevices = stderrors.New("device count exceeds supported maximum")
)

// Device is one discovered GPU. Index is its position in enumeration order.
type Device struct {
	Index  int
	Handle smi.ProcessorHandle
	UUID   string
}

// Enumerator lists devices. Enumerate returns either the complete list or
// an error; partial results are never returned.
type Enumerator interface {
	Name() string
	Enumerate(lib smi.Interface) ([]Device, error)
}

// Limits bounds enumeration. Zero values fall back to the defaults.
type Limits struct {
	MaxSockets int
	MaxDevices int
}

func (l Limits) withDefaults() Limits {
	if l.MaxSockets <= 0 {
		l.MaxSockets = DefaultMaxSockets
	}
	if l.MaxDevices <= 0 {
		l.MaxDevices = DefaultMaxDevices
	}
	return l
}

// New selects an enumeration strategy by name.
func New(strategy string, limits Limits, resolveUUID bool, logger *slog.Logger) (Enumerator, error) {
	limits = limits.withDefaults()
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case StrategyHierarchical, "":
		return &Hierarchical{Limits: limits, ResolveUUID: resolveUUID, Logger: logger}, nil
	case StrategyFlat:
		return &Flat{Limits: limits, Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown enumeration strategy %q", strategy)
	}
}

// countThenFill runs the library's two-phase enumeration: count with a nil
// buffer, then fill a buffer of that size. A count above limit is rejected
// before anything is allocated.
func countThenFill[H any](query func([]H) (uint32, smi.Return), limit int, tooMany error) ([]H, smi.Return, error) {
	count, ret := query(nil)
	if ret != smi.SUCCESS {
		return nil, ret, nil
	}
	if int(count) > limit {
		return nil, smi.SUCCESS, fmt.Errorf("%w: %d > %d", tooMany, count, limit)
	}
	if count == 0 {
		return nil, smi.SUCCESS, nil
	}
	buf := make([]H, count)
	n, ret := query(buf)
	if ret != smi.SUCCESS {
		return nil, ret, nil
	}
	return buf[:min(int(n), len(buf))], smi.SUCCESS, nil
}

func statusError(op string, ret smi.Return) error {
	return errors.Discovery("discover GPUs", fmt.Errorf("%s: %w", op, ret))
}
