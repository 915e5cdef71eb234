package domain

import (
	"errors"
	"testing"
	"time"
)

func TestBuildStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to BuildStatus
		want     bool
	}{
		{BuildStatusCreated, BuildStatusInProgress, true},
		{BuildStatusCreated, BuildStatusComplete, false},
		{BuildStatusCreated, BuildStatusError, false},
		{BuildStatusInProgress, BuildStatusComplete, true},
		{BuildStatusInProgress, BuildStatusError, true},
		{BuildStatusInProgress, BuildStatusCreated, false},
		{BuildStatusComplete, BuildStatusError, false},
		{BuildStatusComplete, BuildStatusInProgress, false},
		{BuildStatusError, BuildStatusComplete, false},
		{BuildStatusError, BuildStatusInProgress, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s.CanTransition(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestBuildStatus_IsTerminal(t *testing.T) {
	for _, s := range []BuildStatus{BuildStatusComplete, BuildStatusError} {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false, want true", s)
		}
	}
	for _, s := range []BuildStatus{BuildStatusCreated, BuildStatusInProgress} {
		if s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true, want false", s)
		}
	}
}

func TestBuild_TransitionTo(t *testing.T) {
	b := &Build{ID: "b1", Status: BuildStatusCreated}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := b.TransitionTo(BuildStatusInProgress, now); err != nil {
		t.Fatalf("TransitionTo(IN_PROGRESS) error = %v", err)
	}
	if b.Status != BuildStatusInProgress {
		t.Errorf("Status = %q, want %q", b.Status, BuildStatusInProgress)
	}
	if !b.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", b.UpdatedAt, now)
	}
	if err := b.TransitionTo(BuildStatusComplete, now); err != nil {
		t.Fatalf("TransitionTo(COMPLETE) error = %v", err)
	}
	err := b.TransitionTo(BuildStatusError, now)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("TransitionTo from terminal error = %v, want ErrInvalidTransition", err)
	}
	if b.Status != BuildStatusComplete {
		t.Errorf("Status after rejected transition = %q, want %q", b.Status, BuildStatusComplete)
	}
}

func TestBuildFailure_Is(t *testing.T) {
	cause := errors.New("exit status 1")
	err := error(&BuildFailure{Log: "step 1/3", Err: cause})
	if !errors.Is(err, ErrBuild) {
		t.Error("errors.Is(BuildFailure, ErrBuild) = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(BuildFailure, cause) = false, want true")
	}
	var bf *BuildFailure
	if !errors.As(err, &bf) || bf.Log != "step 1/3" {
		t.Errorf("errors.As log = %v, want %q", bf, "step 1/3")
	}
}
