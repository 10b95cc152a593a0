package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/campaign"
	"github.com/louisbranch/milestonefund/internal/contract"
	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
	platformgrpc "github.com/louisbranch/milestonefund/internal/platform/grpc"
)

// TokenIssuer mints a consent token for one identity.
type TokenIssuer interface {
	Issue(identity campaign.Identity) (string, error)
}

// Client calls a remote campaign service. Signers attached to the call
// context with auth.WithSigners are turned into consent tokens by issuer, so
// a Client is interchangeable with an in-process contract.
type Client struct {
	conn   gogrpc.ClientConnInterface
	issuer TokenIssuer
	locale string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithLocale asks the server for error messages in locale.
func WithLocale(locale string) ClientOption {
	return func(c *Client) {
		c.locale = locale
	}
}

// NewClient wraps an established connection.
func NewClient(conn gogrpc.ClientConnInterface, issuer TokenIssuer, opts ...ClientOption) *Client {
	c := &Client{conn: conn, issuer: issuer}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to addr and waits for the health service before returning.
func Dial(ctx context.Context, addr string, timeout time.Duration, issuer TokenIssuer, opts ...ClientOption) (*Client, *gogrpc.ClientConn, error) {
	conn, err := platformgrpc.DialWithHealth(ctx, addr, platformgrpc.HealthDialOptions{
		Service: ServiceName,
		Timeout: timeout,
	}, platformgrpc.DefaultClientDialOptions()...)
	if err != nil {
		return nil, nil, err
	}
	return NewClient(conn, issuer, opts...), conn, nil
}

// Initialize creates the campaign.
func (c *Client) Initialize(ctx context.Context, input campaign.InitializeInput) error {
	return c.invoke(ctx, MethodInitialize, &InitializeRequest{
		Creator:              input.Creator.String(),
		Admin:                input.Admin.String(),
		TargetAmount:         input.TargetAmount,
		MilestonePercentages: input.MilestonePercentages,
	}, &InitializeResponse{})
}

// Donate adds amount on behalf of donor.
func (c *Client) Donate(ctx context.Context, donor campaign.Identity, amount campaign.Amount) error {
	return c.invoke(ctx, MethodDonate, &DonateRequest{Donor: donor.String(), Amount: amount}, &DonateResponse{})
}

// CompleteMilestone marks a milestone completed.
func (c *Client) CompleteMilestone(ctx context.Context, index uint32) error {
	return c.invoke(ctx, MethodCompleteMilestone, &MilestoneRequest{MilestoneIndex: index}, &MilestoneResponse{})
}

// ApproveMilestone marks a milestone approved.
func (c *Client) ApproveMilestone(ctx context.Context, index uint32) error {
	return c.invoke(ctx, MethodApproveMilestone, &MilestoneRequest{MilestoneIndex: index}, &MilestoneResponse{})
}

// GetCampaignDetails reads the campaign.
func (c *Client) GetCampaignDetails(ctx context.Context) (campaign.Data, error) {
	var out GetCampaignDetailsResponse
	if err := c.invoke(ctx, MethodGetCampaignDetails, &GetCampaignDetailsRequest{}, &out); err != nil {
		return campaign.Data{}, err
	}
	return out.Campaign, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	if c == nil || c.conn == nil {
		return errors.New("campaign client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, err := c.outgoingContext(ctx)
	if err != nil {
		return err
	}
	err = c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, gogrpc.CallContentSubtype(CodecName))
	if err != nil {
		return apperrors.FromGRPCStatus(err)
	}
	return nil
}

func (c *Client) outgoingContext(ctx context.Context) (context.Context, error) {
	var pairs []string
	if c.locale != "" {
		pairs = append(pairs, LocaleHeader, c.locale)
	}
	signers := auth.Signers(ctx)
	if len(signers) > 0 && c.issuer == nil {
		return ctx, errors.New("campaign client has no consent issuer")
	}
	for _, signer := range signers {
		token, err := c.issuer.Issue(signer)
		if err != nil {
			return ctx, fmt.Errorf("issue consent for %s: %w", signer, err)
		}
		pairs = append(pairs, ConsentTokenHeader, token)
	}
	if len(pairs) == 0 {
		return ctx, nil
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...), nil
}

var _ contract.Service = (*Client)(nil)
