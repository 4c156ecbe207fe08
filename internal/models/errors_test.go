package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"transient", TransientError("op", errors.New("boom")), ErrKindTransient},
		{"storage", StorageError("op", errors.New("boom")), ErrKindStorage},
		{"validation", ValidationError("op", errors.New("boom")), ErrKindValidation},
		{"untagged", errors.New("boom"), ErrKindUnknown},
		{"nil", nil, ErrKindUnknown},
		{"wrapped", fmt.Errorf("outer: %w", TransientError("op", errors.New("boom"))), ErrKindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := StorageError("store.Put", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "store.Put")
	assert.Contains(t, err.Error(), "disk full")
}

func TestAttendance_Valid(t *testing.T) {
	assert.True(t, AttendanceYes.Valid())
	assert.True(t, AttendanceNo.Valid())
	assert.True(t, AttendanceMaybe.Valid())
	assert.False(t, Attendance("PERHAPS").Valid())
	assert.False(t, Attendance("").Valid())
	assert.False(t, Attendance("yes").Valid())
}
