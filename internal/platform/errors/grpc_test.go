package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "domain", err: fmt.Errorf("donate: %w", New(CodeCampaignInactive, "inactive")), want: codes.FailedPrecondition},
		{name: "canceled", err: fmt.Errorf("view: %w", context.Canceled), want: codes.Canceled},
		{name: "deadline", err: context.DeadlineExceeded, want: codes.DeadlineExceeded},
		{name: "status passthrough", err: status.Error(codes.Unavailable, "down"), want: codes.Unavailable},
		{name: "unknown", err: stderrors.New("disk"), want: codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := status.Code(HandleError(tt.err, ""))
			if got != tt.want {
				t.Fatalf("code = %v, want %v", got, tt.want)
			}
		})
	}
	if HandleError(nil, "") != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestHandleErrorLocalizesMessage(t *testing.T) {
	err := WithMetadata(CodeMilestoneNotCompleted, "milestone not completed", map[string]string{"Index": "2"})
	st, _ := status.FromError(HandleError(err, "en-US"))

	for _, detail := range st.Details() {
		if localized, ok := detail.(*errdetails.LocalizedMessage); ok {
			want := "Milestone 2 must be completed before it can be approved."
			if localized.GetMessage() != want {
				t.Fatalf("message = %q, want %q", localized.GetMessage(), want)
			}
			return
		}
	}
	t.Fatal("expected localized message detail")
}
