package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/milestonefund/internal/contract"
	"github.com/louisbranch/milestonefund/internal/platform/timeouts"
)

// CampaignResourceURI addresses the campaign state resource.
const CampaignResourceURI = "campaign://details"

// CampaignResource describes the readable campaign state.
func CampaignResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "campaign",
		Title:       "Campaign",
		Description: "Current campaign state with milestones",
		MIMEType:    "application/json",
		URI:         CampaignResourceURI,
	}
}

// CampaignResourceHandler reads the campaign for the campaign resource.
func CampaignResourceHandler(service contract.Service) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if service == nil {
			return nil, fmt.Errorf("campaign service is not configured")
		}
		uri := CampaignResourceURI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		if uri != CampaignResourceURI {
			return nil, mcp.ResourceNotFoundError(uri)
		}

		runCtx, cancel := context.WithTimeout(ctx, timeouts.ToolCall)
		defer cancel()

		data, err := service.GetCampaignDetails(runCtx)
		if err != nil {
			return nil, toolError("campaign read", err)
		}
		payload, err := json.MarshalIndent(NewCampaignView(data), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal campaign: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			},
		}, nil
	}
}
