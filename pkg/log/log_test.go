package log

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"WARN", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"verbose", logrus.DebugLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	if got := WithRequestID(ctx).Data[RequestIDKey]; got != "req-1" {
		t.Fatalf("request_id = %v, want req-1", got)
	}

	if got := WithRequestID(context.Background()).Data[RequestIDKey]; got != "unknown" {
		t.Fatalf("request_id = %v, want unknown", got)
	}
}

func TestErrorWithTraceIDReusesRequestID(t *testing.T) {
	if got := ErrorWithTraceID(Fields{RequestIDKey: "req-2"}, "boom"); got != "req-2" {
		t.Fatalf("trace id = %q, want req-2", got)
	}
	if got := ErrorWithTraceID(nil, "boom"); len(got) != 36 {
		t.Fatalf("trace id = %q, want a fresh uuid", got)
	}
}
