package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeMilestoneAlreadyApproved, "milestone already approved")
	wrapped := fmt.Errorf("approve: %w", WithMetadata(CodeMilestoneAlreadyApproved, "other message", map[string]string{"Index": "1"}))

	if !stderrors.Is(wrapped, sentinel) {
		t.Fatal("expected errors.Is to match by code through wrapping")
	}
	if stderrors.Is(wrapped, New(CodeMilestoneNotCompleted, "x")) {
		t.Fatal("expected different codes not to match")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeStateCorrupt, "read campaign", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(fmt.Errorf("x: %w", New(CodeCampaignInactive, "inactive"))); got != CodeCampaignInactive {
		t.Fatalf("code = %s, want %s", got, CodeCampaignInactive)
	}
	if got := GetCode(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %s, want %s", got, CodeUnknown)
	}
}

func TestIsAbort(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		abort bool
	}{
		{name: "nil", err: nil, abort: false},
		{name: "business", err: New(CodeMilestoneNotCompleted, "x"), abort: false},
		{name: "unauthorized", err: New(CodeUnauthorized, "x"), abort: true},
		{name: "not found", err: New(CodeMilestoneNotFound, "x"), abort: true},
		{name: "infrastructure", err: stderrors.New("io"), abort: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAbort(tt.err); got != tt.abort {
				t.Fatalf("IsAbort = %v, want %v", got, tt.abort)
			}
		})
	}
}

func TestContractCodes(t *testing.T) {
	want := map[Code]uint32{
		CodeInvalidMilestonePercentages: 1,
		CodeCampaignInactive:            2,
		CodeMilestoneAlreadyCompleted:   3,
		CodeMilestoneNotCompleted:       4,
		CodeMilestoneAlreadyApproved:    5,
	}
	for code, value := range want {
		got, ok := code.ContractCode()
		if !ok || got != value {
			t.Fatalf("%s contract code = %d (%v), want %d", code, got, ok, value)
		}
		back, ok := CodeFromContractCode(value)
		if !ok || back != code {
			t.Fatalf("code from %d = %s, want %s", value, back, code)
		}
	}
	if _, ok := CodeUnauthorized.ContractCode(); ok {
		t.Fatal("expected aborts to have no contract code")
	}
	if _, ok := CodeFromContractCode(99); ok {
		t.Fatal("expected unknown contract code to be rejected")
	}
}

func TestGRPCCode(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeInvalidMilestonePercentages, codes.InvalidArgument},
		{CodeCampaignInactive, codes.FailedPrecondition},
		{CodeMilestoneAlreadyCompleted, codes.FailedPrecondition},
		{CodeMilestoneNotCompleted, codes.FailedPrecondition},
		{CodeMilestoneAlreadyApproved, codes.FailedPrecondition},
		{CodeUnauthorized, codes.PermissionDenied},
		{CodeConsentInvalid, codes.Unauthenticated},
		{CodeMilestoneNotFound, codes.NotFound},
		{CodeCampaignNotInitialized, codes.NotFound},
		{CodeAmountOverflow, codes.OutOfRange},
		{CodeStateCorrupt, codes.DataLoss},
		{CodeUnknown, codes.Internal},
	}
	for _, tt := range tests {
		if got := tt.code.GRPCCode(); got != tt.want {
			t.Fatalf("%s grpc code = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestToGRPCStatusRoundTrip(t *testing.T) {
	err := WithMetadata(CodeMilestoneAlreadyCompleted, "milestone already completed", map[string]string{"Index": "0"})
	grpcErr := err.ToGRPCStatus("en-US", "Milestone 0 is already completed.")

	st, ok := status.FromError(grpcErr)
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %v, want %v", st.Code(), codes.FailedPrecondition)
	}
	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.GetReason() != string(CodeMilestoneAlreadyCompleted) {
		t.Fatalf("error info = %v", info)
	}
	if info.GetMetadata()["ContractCode"] != "3" {
		t.Fatalf("contract code metadata = %q, want 3", info.GetMetadata()["ContractCode"])
	}
	if localized == nil || localized.GetMessage() != "Milestone 0 is already completed." {
		t.Fatalf("localized = %v", localized)
	}

	back := FromGRPCStatus(grpcErr)
	if back.Code != CodeMilestoneAlreadyCompleted {
		t.Fatalf("recovered code = %s", back.Code)
	}
	if back.Metadata["Index"] != "0" {
		t.Fatalf("recovered metadata = %v", back.Metadata)
	}
	if err.Metadata["ContractCode"] != "" {
		t.Fatal("expected source metadata to stay untouched")
	}
}

func TestFromGRPCStatusWithoutDetails(t *testing.T) {
	got := FromGRPCStatus(status.Error(codes.Unavailable, "down"))
	if got.Code != CodeUnknown {
		t.Fatalf("code = %s, want %s", got.Code, CodeUnknown)
	}
}
