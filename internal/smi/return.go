package smi

import (
	"fmt"
	"strings"
)

// Return is a status code reported by every amdsmi entry point.
type Return uint32

// Status codes as defined by amdsmi_status_t.
const (
	SUCCESS                   Return = 0
	ERROR_INVAL               Return = 1
	ERROR_NOT_SUPPORTED       Return = 2
	ERROR_NOT_YET_IMPLEMENTED Return = 3
	ERROR_FAIL_LOAD_MODULE    Return = 4
	ERROR_FAIL_LOAD_SYMBOL    Return = 5
	ERROR_DRM_ERROR           Return = 6
	ERROR_API_FAILED          Return = 7
	ERROR_TIMEOUT             Return = 8
	ERROR_RETRY               Return = 9
	ERROR_NO_PERM             Return = 10
	ERROR_INTERRUPT           Return = 11
	ERROR_IO                  Return = 12
	ERROR_ADDRESS_FAULT       Return = 13
	ERROR_FILE_ERROR          Return = 14
	ERROR_OUT_OF_RESOURCES    Return = 15
	ERROR_INTERNAL_EXCEPTION  Return = 16
	ERROR_INPUT_OUT_OF_BOUNDS Return = 17
	ERROR_INIT_ERROR          Return = 18
	ERROR_REFCOUNT_OVERFLOW   Return = 19
	ERROR_BUSY                Return = 30
	ERROR_NOT_FOUND           Return = 31
	ERROR_NOT_INIT            Return = 32
	ERROR_NO_SLOT             Return = 33
	ERROR_DRIVER_NOT_LOADED   Return = 34
	ERROR_NO_DATA             Return = 40
	ERROR_INSUFFICIENT_SIZE   Return = 41
	ERROR_UNEXPECTED_SIZE     Return = 42
	ERROR_UNEXPECTED_DATA     Return = 43
	ERROR_MAP_ERROR           Return = 0xFFFFFFFE
	ERROR_UNKNOWN             Return = 0xFFFFFFFF
)

var returnNames = map[Return]string{
	SUCCESS:                   "SUCCESS",
	ERROR_INVAL:               "ERROR_INVAL",
	ERROR_NOT_SUPPORTED:       "ERROR_NOT_SUPPORTED",
	ERROR_NOT_YET_IMPLEMENTED: "ERROR_NOT_YET_IMPLEMENTED",
	ERROR_FAIL_LOAD_MODULE:    "ERROR_FAIL_LOAD_MODULE",
	ERROR_FAIL_LOAD_SYMBOL:    "ERROR_FAIL_LOAD_SYMBOL",
	ERROR_DRM_ERROR:           "ERROR_DRM_ERROR",
	ERROR_API_FAILED:          "ERROR_API_FAILED",
	ERROR_TIMEOUT:             "ERROR_TIMEOUT",
	ERROR_RETRY:               "ERROR_RETRY",
	ERROR_NO_PERM:             "ERROR_NO_PERM",
	ERROR_INTERRUPT:           "ERROR_INTERRUPT",
	ERROR_IO:                  "ERROR_IO",
	ERROR_ADDRESS_FAULT:       "ERROR_ADDRESS_FAULT",
	ERROR_FILE_ERROR:          "ERROR_FILE_ERROR",
	ERROR_OUT_OF_RESOURCES:    "ERROR_OUT_OF_RESOURCES",
	ERROR_INTERNAL_EXCEPTION:  "ERROR_INTERNAL_EXCEPTION",
	ERROR_INPUT_OUT_OF_BOUNDS: "ERROR_INPUT_OUT_OF_BOUNDS",
	ERROR_INIT_ERROR:          "ERROR_INIT_ERROR",
	ERROR_REFCOUNT_OVERFLOW:   "ERROR_REFCOUNT_OVERFLOW",
	ERROR_BUSY:                "ERROR_BUSY",
	ERROR_NOT_FOUND:           "ERROR_NOT_FOUND",
	ERROR_NOT_INIT:            "ERROR_NOT_INIT",
	ERROR_NO_SLOT:             "ERROR_NO_SLOT",
	ERROR_DRIVER_NOT_LOADED:   "ERROR_DRIVER_NOT_LOADED",
	ERROR_NO_DATA:             "ERROR_NO_DATA",
	ERROR_INSUFFICIENT_SIZE:   "ERROR_INSUFFICIENT_SIZE",
	ERROR_UNEXPECTED_SIZE:     "ERROR_UNEXPECTED_SIZE",
	ERROR_UNEXPECTED_DATA:     "ERROR_UNEXPECTED_DATA",
	ERROR_MAP_ERROR:           "ERROR_MAP_ERROR",
	ERROR_UNKNOWN:             "ERROR_UNKNOWN",
}

var returnMessages = map[Return]string{
	SUCCESS:                   "success",
	ERROR_INVAL:               "invalid parameters",
	ERROR_NOT_SUPPORTED:       "command not supported",
	ERROR_NOT_YET_IMPLEMENTED: "not implemented yet",
	ERROR_FAIL_LOAD_MODULE:    "failed to load library",
	ERROR_FAIL_LOAD_SYMBOL:    "failed to load symbol",
	ERROR_DRM_ERROR:           "error when calling libdrm",
	ERROR_API_FAILED:          "API call failed",
	ERROR_TIMEOUT:             "timeout in API call",
	ERROR_RETRY:               "retry operation",
	ERROR_NO_PERM:             "permission denied",
	ERROR_INTERRUPT:           "interrupt occurred during execution",
	ERROR_IO:                  "I/O error",
	ERROR_ADDRESS_FAULT:       "bad address",
	ERROR_FILE_ERROR:          "problem accessing a file",
	ERROR_OUT_OF_RESOURCES:    "not enough memory",
	ERROR_INTERNAL_EXCEPTION:  "internal exception caught",
	ERROR_INPUT_OUT_OF_BOUNDS: "input out of allowable or safe range",
	ERROR_INIT_ERROR:          "error initializing internal data structures",
	ERROR_REFCOUNT_OVERFLOW:   "internal reference counter exceeded INT32_MAX",
	ERROR_BUSY:                "device busy",
	ERROR_NOT_FOUND:           "device not found",
	ERROR_NOT_INIT:            "device not initialized",
	ERROR_NO_SLOT:             "no more free slot",
	ERROR_DRIVER_NOT_LOADED:   "processor driver not loaded",
	ERROR_NO_DATA:             "no data was found for a given input",
	ERROR_INSUFFICIENT_SIZE:   "not enough resources were available for the operation",
	ERROR_UNEXPECTED_SIZE:     "an unexpected amount of data was read",
	ERROR_UNEXPECTED_DATA:     "the data read or provided was unexpected",
	ERROR_MAP_ERROR:           "the internal library error did not map to a status code",
	ERROR_UNKNOWN:             "an unknown error occurred",
}

// String returns the constant name, e.g. "ERROR_NO_PERM".
func (r Return) String() string {
	if name, ok := returnNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Return(%d)", uint32(r))
}

// Error makes a non-success Return usable as an error value.
func (r Return) Error() string {
	return ErrorString(r)
}

// ErrorString describes a status the way amdsmi_status_code_to_string does.
func ErrorString(r Return) string {
	if msg, ok := returnMessages[r]; ok {
		return msg
	}
	return fmt.Sprintf("unrecognized status %d", uint32(r))
}

// ParseReturn maps a constant name back to its status. The "ERROR_" prefix
// and letter case are optional, so "no_perm" and "ERROR_NO_PERM" are equal.
func ParseReturn(name string) (Return, error) {
	want := strings.ToUpper(strings.TrimSpace(name))
	for r, n := range returnNames {
		if n == want || n == "ERROR_"+want {
			return r, nil
		}
	}
	return ERROR_UNKNOWN, fmt.Errorf("unknown amdsmi status %q", name)
}
