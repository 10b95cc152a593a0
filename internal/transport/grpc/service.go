package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"

	"github.com/louisbranch/milestonefund/internal/campaign"
	"github.com/louisbranch/milestonefund/internal/contract"
	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "milestonefund.campaign.v1.CampaignService"

// Method names within ServiceName.
const (
	MethodInitialize         = "Initialize"
	MethodDonate             = "Donate"
	MethodCompleteMilestone  = "CompleteMilestone"
	MethodApproveMilestone   = "ApproveMilestone"
	MethodGetCampaignDetails = "GetCampaignDetails"
)

// CampaignServiceServer is the server API for the campaign service.
type CampaignServiceServer interface {
	Initialize(context.Context, *InitializeRequest) (*InitializeResponse, error)
	Donate(context.Context, *DonateRequest) (*DonateResponse, error)
	CompleteMilestone(context.Context, *MilestoneRequest) (*MilestoneResponse, error)
	ApproveMilestone(context.Context, *MilestoneRequest) (*MilestoneResponse, error)
	GetCampaignDetails(context.Context, *GetCampaignDetailsRequest) (*GetCampaignDetailsResponse, error)
}

// CampaignService implements the campaign gRPC API over a contract.
type CampaignService struct {
	contract contract.Service
}

// NewCampaignService creates a gRPC handler for svc.
func NewCampaignService(svc contract.Service) *CampaignService {
	return &CampaignService{contract: svc}
}

// Register adds the campaign service to server.
func Register(server gogrpc.ServiceRegistrar, svc CampaignServiceServer) {
	server.RegisterService(&serviceDesc, svc)
}

// Initialize handles campaign creation.
func (s *CampaignService) Initialize(ctx context.Context, in *InitializeRequest) (*InitializeResponse, error) {
	creator, err := parseIdentity("creator", in.Creator)
	if err != nil {
		return nil, apperrors.HandleError(err, localeFromContext(ctx))
	}
	admin, err := parseIdentity("admin", in.Admin)
	if err != nil {
		return nil, apperrors.HandleError(err, localeFromContext(ctx))
	}
	err = s.contract.Initialize(ctx, campaign.InitializeInput{
		Creator:              creator,
		Admin:                admin,
		TargetAmount:         in.TargetAmount,
		MilestonePercentages: in.MilestonePercentages,
	})
	if err != nil {
		return nil, apperrors.HandleError(err, localeFromContext(ctx))
	}
	return &InitializeResponse{}, nil
}

// Donate handles donations.
func (s *CampaignService) Donate(ctx context.Context, in *DonateRequest) (*DonateResponse, error) {
	donor, err := parseIdentity("donor", in.Donor)
	if err != nil {
		return nil, apperrors.HandleError(err, localeFromContext(ctx))
	}
	if err := s.contract.Donate(ctx, donor, in.Amount); err != nil {
		return nil, apperrors.HandleError(err, localeFromContext(ctx))
	}
	return &DonateResponse{}, nil
}

// CompleteMilestone handles milestone completion by the creator.
func (s *CampaignService) CompleteMilestone(ctx context.Context, in *MilestoneRequest) (*MilestoneResponse, error) {
	if err := s.contract.CompleteMilestone(ctx, in.MilestoneIndex); err != nil {
		return nil, apperrors.HandleError(err, localeFromContext(ctx))
	}
	return &MilestoneResponse{}, nil
}

// ApproveMilestone handles milestone approval by the admin.
func (s *CampaignService) ApproveMilestone(ctx context.Context, in *MilestoneRequest) (*MilestoneResponse, error) {
	if err := s.contract.ApproveMilestone(ctx, in.MilestoneIndex); err != nil {
		return nil, apperrors.HandleError(err, localeFromContext(ctx))
	}
	return &MilestoneResponse{}, nil
}

// GetCampaignDetails returns the stored campaign.
func (s *CampaignService) GetCampaignDetails(ctx context.Context, _ *GetCampaignDetailsRequest) (*GetCampaignDetailsResponse, error) {
	data, err := s.contract.GetCampaignDetails(ctx)
	if err != nil {
		return nil, apperrors.HandleError(err, localeFromContext(ctx))
	}
	return &GetCampaignDetailsResponse{Campaign: data}, nil
}

func parseIdentity(field, value string) (campaign.Identity, error) {
	identity, err := campaign.ParseIdentity(value)
	if err != nil {
		return "", apperrors.WithMetadata(apperrors.CodeInvalidArgument, field+" is required", map[string]string{"Field": field})
	}
	return identity, nil
}

var serviceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CampaignServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: MethodInitialize, Handler: unaryHandler(MethodInitialize, CampaignServiceServer.Initialize)},
		{MethodName: MethodDonate, Handler: unaryHandler(MethodDonate, CampaignServiceServer.Donate)},
		{MethodName: MethodCompleteMilestone, Handler: unaryHandler(MethodCompleteMilestone, CampaignServiceServer.CompleteMilestone)},
		{MethodName: MethodApproveMilestone, Handler: unaryHandler(MethodApproveMilestone, CampaignServiceServer.ApproveMilestone)},
		{MethodName: MethodGetCampaignDetails, Handler: unaryHandler(MethodGetCampaignDetails, CampaignServiceServer.GetCampaignDetails)},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "milestonefund/campaign/v1/campaign.json",
}

func unaryHandler[Req, Resp any](method string, call func(CampaignServiceServer, context.Context, *Req) (*Resp, error)) gogrpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			decodeErr := apperrors.WithMetadata(apperrors.CodeInvalidArgument, "decode request: "+err.Error(), map[string]string{"Field": "request"})
			return nil, apperrors.HandleError(decodeErr, localeFromContext(ctx))
		}
		server := srv.(CampaignServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var _ CampaignServiceServer = (*CampaignService)(nil)
