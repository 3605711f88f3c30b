package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
)

var errNoUser = errors.New("unauthenticated")

func (h *handlers) activeSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, errNoUser
	}
	detail, err := h.ds.GetActive(ctx, uid)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, detail)
}

func (h *handlers) personalRecords(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, errNoUser
	}
	records, err := h.ds.PersonalRecords(ctx, uid)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, records)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
