package grpc

import (
	"context"
	"crypto/ed25519"
	"net"
	"testing"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/campaign"
	"github.com/louisbranch/milestonefund/internal/contract"
	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
	"github.com/louisbranch/milestonefund/internal/platform/errors/i18n"
	platformgrpc "github.com/louisbranch/milestonefund/internal/platform/grpc"
	"github.com/louisbranch/milestonefund/internal/storage/memory"
)

const (
	testIssuer   = "milestonefund-test"
	testAudience = "milestonefund"
	creator      = campaign.Identity("creator")
	admin        = campaign.Identity("admin")
	donor        = campaign.Identity("donor-x")
)

type testEnv struct {
	client *Client
	conn   *gogrpc.ClientConn
	issuer auth.ConsentIssuer
}

func startTestServer(t *testing.T, opts ...ClientOption) testEnv {
	t.Helper()

	public, private, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	verifier, err := auth.NewConsentVerifier(auth.ConsentConfig{Issuer: testIssuer, Audience: testAudience, Key: public})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	svc, err := contract.New(memory.New(), auth.SignerAuthorizer{})
	if err != nil {
		t.Fatalf("new contract: %v", err)
	}

	listener := bufconn.Listen(1 << 20)
	server := gogrpc.NewServer(gogrpc.ChainUnaryInterceptor(ConsentUnaryInterceptor(verifier)))
	Register(server, NewCampaignService(svc))
	grpc_health_v1.RegisterHealthServer(server, platformgrpc.NewHealthServer(ServiceName))
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := gogrpc.NewClient("passthrough:///bufnet",
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	issuer := auth.ConsentIssuer{Issuer: testIssuer, Audience: testAudience, Key: private}
	return testEnv{client: NewClient(conn, issuer, opts...), conn: conn, issuer: issuer}
}

func signed(ids ...campaign.Identity) context.Context {
	return auth.WithSigners(context.Background(), ids...)
}

func initializeCampaign(t *testing.T, client *Client) {
	t.Helper()
	err := client.Initialize(signed(creator, admin), campaign.InitializeInput{
		Creator:              creator,
		Admin:                admin,
		TargetAmount:         campaign.NewAmount(1000),
		MilestonePercentages: []uint32{30, 70},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
}

func TestClientFullFlow(t *testing.T) {
	env := startTestServer(t)
	initializeCampaign(t, env.client)

	if err := env.client.Donate(signed(donor), donor, campaign.NewAmount(400)); err != nil {
		t.Fatalf("donate: %v", err)
	}
	if err := env.client.CompleteMilestone(signed(creator), 0); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := env.client.ApproveMilestone(signed(admin), 0); err != nil {
		t.Fatalf("approve: %v", err)
	}

	data, err := env.client.GetCampaignDetails(context.Background())
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if !data.CurrentAmount.Equal(campaign.NewAmount(400)) {
		t.Fatalf("current amount = %s, want 400", data.CurrentAmount)
	}
	if data.Milestones[0].Status != campaign.MilestoneApproved {
		t.Fatalf("milestone 0 = %s, want approved", data.Milestones[0].Status)
	}
	if data.Milestones[1].Status != campaign.MilestonePending {
		t.Fatalf("milestone 1 = %s, want pending", data.Milestones[1].Status)
	}
	if data.Creator != creator || data.Admin != admin || !data.IsActive {
		t.Fatalf("unexpected campaign: %+v", data)
	}
}

func TestClientRecoversBusinessError(t *testing.T) {
	env := startTestServer(t)
	initializeCampaign(t, env.client)

	err := env.client.ApproveMilestone(signed(admin), 1)
	if got := apperrors.GetCode(err); got != apperrors.CodeMilestoneNotCompleted {
		t.Fatalf("code = %s, want %s", got, apperrors.CodeMilestoneNotCompleted)
	}
	if apperrors.IsAbort(err) {
		t.Fatal("expected a typed business error")
	}
}

func TestMissingConsentIsPermissionDenied(t *testing.T) {
	env := startTestServer(t)
	initializeCampaign(t, env.client)

	err := env.client.CompleteMilestone(signed(donor), 0)
	if got := apperrors.GetCode(err); got != apperrors.CodeUnauthorized {
		t.Fatalf("code = %s, want %s", got, apperrors.CodeUnauthorized)
	}

	err = env.conn.Invoke(context.Background(), "/"+ServiceName+"/"+MethodCompleteMilestone,
		&MilestoneRequest{}, &MilestoneResponse{}, gogrpc.CallContentSubtype(CodecName))
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("status = %v, want PermissionDenied", status.Code(err))
	}
}

func TestForgedConsentIsUnauthenticated(t *testing.T) {
	env := startTestServer(t)

	_, otherKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	forger := auth.ConsentIssuer{Issuer: testIssuer, Audience: testAudience, Key: otherKey}
	client := NewClient(env.conn, forger)

	err = client.Initialize(signed(creator, admin), campaign.InitializeInput{
		Creator:              creator,
		Admin:                admin,
		TargetAmount:         campaign.NewAmount(1),
		MilestonePercentages: []uint32{100},
	})
	if got := apperrors.GetCode(err); got != apperrors.CodeConsentInvalid {
		t.Fatalf("code = %s, want %s", got, apperrors.CodeConsentInvalid)
	}
}

func TestInvalidIdentityIsInvalidArgument(t *testing.T) {
	env := startTestServer(t)

	err := env.conn.Invoke(context.Background(), "/"+ServiceName+"/"+MethodDonate,
		&DonateRequest{Donor: "  ", Amount: campaign.NewAmount(1)}, &DonateResponse{},
		gogrpc.CallContentSubtype(CodecName))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("status = %v, want InvalidArgument", status.Code(err))
	}
	recovered := apperrors.FromGRPCStatus(err)
	if recovered.Code != apperrors.CodeInvalidArgument || recovered.Metadata["Field"] != "donor" {
		t.Fatalf("recovered = %+v", recovered)
	}
}

func TestNotInitializedIsNotFound(t *testing.T) {
	env := startTestServer(t)

	_, err := env.client.GetCampaignDetails(context.Background())
	if got := apperrors.GetCode(err); got != apperrors.CodeCampaignNotInitialized {
		t.Fatalf("code = %s, want %s", got, apperrors.CodeCampaignNotInitialized)
	}
}

func TestLocaleSelectsCatalog(t *testing.T) {
	i18n.RegisterCatalog("fr-FR", i18n.NewCatalog("fr-FR", map[i18n.Code]string{
		i18n.CodeCampaignNotInitialized: "La campagne n'est pas initialisée.",
	}))
	env := startTestServer(t)

	ctx := metadata.AppendToOutgoingContext(context.Background(), LocaleHeader, "fr")
	err := env.conn.Invoke(ctx, "/"+ServiceName+"/"+MethodGetCampaignDetails,
		&GetCampaignDetailsRequest{}, &GetCampaignDetailsResponse{}, gogrpc.CallContentSubtype(CodecName))

	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected status error, got %v", err)
	}
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		if d, ok := detail.(*errdetails.LocalizedMessage); ok {
			localized = d
		}
	}
	if localized == nil || localized.GetLocale() != "fr-FR" {
		t.Fatalf("localized = %v, want fr-FR", localized)
	}
	if localized.GetMessage() != "La campagne n'est pas initialisée." {
		t.Fatalf("message = %q", localized.GetMessage())
	}
}

func TestClientWithoutIssuerRejectsSigners(t *testing.T) {
	env := startTestServer(t)
	client := NewClient(env.conn, nil)

	if err := client.CompleteMilestone(signed(creator), 0); err == nil {
		t.Fatal("expected error without consent issuer")
	}
}

func TestHealthPassesThroughInterceptor(t *testing.T) {
	env := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := platformgrpc.WaitForHealth(ctx, env.conn, ServiceName, nil); err != nil {
		t.Fatalf("wait for health: %v", err)
	}
}
