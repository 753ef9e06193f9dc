package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrUserNotFound, http.StatusNotFound},
		{ErrUsernameTaken, http.StatusConflict},
		{ErrInvalidAmount, http.StatusBadRequest},
		{ErrInsufficientBalance, http.StatusBadRequest},
		{RequirementNotMet("x"), http.StatusBadRequest},
		{ErrChapterNotUnlocked, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{Wrap(KindUnavailable, "db", errors.New("timeout")), http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("ошибка покупки: %w", ErrInsufficientBalance)
	if !Is(err, KindInsufficientFunds) {
		t.Fatalf("KindOf(%v) = %v", err, KindOf(err))
	}
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatal("errors.Is lost sentinel")
	}
	if got := PublicMessage(err); got != "餘額不足" {
		t.Fatalf("PublicMessage = %q", got)
	}
}

func TestPublicMessageHidesInternals(t *testing.T) {
	err := Wrap(KindInternal, "select users", errors.New("pq: relation does not exist"))
	if got := PublicMessage(err); got != MsgInternal {
		t.Fatalf("PublicMessage = %q, want %q", got, MsgInternal)
	}
	if got := PublicMessage(context.DeadlineExceeded); got != MsgUnavailable {
		t.Fatalf("PublicMessage = %q, want %q", got, MsgUnavailable)
	}
}

func TestSameDayUsesAppLocation(t *testing.T) {
	taipei := time.FixedZone("CST", 8*60*60)
	SetLocation(taipei)
	defer SetLocation(time.UTC)

	// 23:30 UTC 1 марта = 07:30 2 марта по Тайбэю
	a := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	b := time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)
	if !SameDay(a, b) {
		t.Fatal("expected same local day")
	}
	c := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC) // 23:00 1 марта по Тайбэю
	if SameDay(a, c) {
		t.Fatal("expected different local days")
	}
	if got := FormatDate(a); got != "2024-03-02" {
		t.Fatalf("FormatDate = %q", got)
	}
}
