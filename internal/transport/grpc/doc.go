// Package grpc exposes the campaign contract as the
// milestonefund.campaign.v1.CampaignService gRPC service.
//
// Messages travel as JSON through a registered "json" codec, so the service
// needs no generated protobuf code. Callers prove consent by attaching one
// signed token per identity under ConsentTokenHeader; the server verifies
// them and hands the proven identities to the contract as signers.
package grpc
