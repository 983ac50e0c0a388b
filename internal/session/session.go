// Package session scopes the lifetime of the management library: Open
// initializes it, Close shuts it down exactly once.
package session

import (
	"fmt"
	"log/slog"
	"sync"

	"gpu-metrics-reporter/internal/errors"
	"gpu-metrics-reporter/internal/smi"
)

// PrivilegeHint is appended to init failures; the library refuses to start
// without access to the GPU device nodes.
const PrivilegeHint = "This program needs to be run with sudo privileges."

// InitError is the session open failure. Status is the raw library code.
type InitError struct {
	Status smi.Return
}

func (e *InitError) Error() string {
	return fmt.Sprintf("status=%d: %s", uint32(e.Status), smi.ErrorString(e.Status))
}

// Unwrap exposes the status so errors.Is(err, smi.ERROR_NO_PERM) works.
func (e *InitError) Unwrap() error {
	return e.Status
}

// Session is an initialized library.
type Session struct {
	lib smi.Interface
	log *slog.Logger

	once     sync.Once
	closeErr error
}

// Open initializes lib for the given processor families. On failure
// nothing needs to be released.
func Open(lib smi.Interface, flags smi.InitFlag, logger *slog.Logger) (*Session, error) {
	ret := lib.Init(flags)
	if ret != smi.SUCCESS {
		logger.Debug("amdsmi init failed", "flags", uint64(flags), "status", ret.String())
		return nil, errors.Init("initialize AMDSMI library", &InitError{Status: ret})
	}
	logger.Debug("amdsmi initialized", "flags", uint64(flags))
	return &Session{lib: lib, log: logger}, nil
}

// Library returns the initialized library.
func (s *Session) Library() smi.Interface {
	return s.lib
}

// Close shuts the library down. Only the first call reaches the library;
// later calls return the first result. Close on a nil Session is a no-op.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		ret := s.lib.ShutDown()
		if ret != smi.SUCCESS {
			s.log.Warn("amdsmi shutdown failed", "status", ret.String())
			s.closeErr = ret
			return
		}
		s.log.Debug("amdsmi shut down")
	})
	return s.closeErr
}
