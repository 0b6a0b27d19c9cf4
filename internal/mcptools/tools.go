// Package mcptools exposes recommendation correlation as MCP tools so other
// agents can resolve listing identifiers found in free text.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/comigor/bodi-go/internal/catalog"
	"github.com/comigor/bodi-go/internal/logger"
	"github.com/comigor/bodi-go/internal/recommend"
)

const (
	ToolFindListings = "find_listings"
	ToolGetListing   = "get_listing"
	ToolViewAllURL   = "view_all_url"
)

// Tools holds the handlers. Each call reads the provider's current snapshot.
type Tools struct {
	catalog     *catalog.Provider
	viewAllBase string
}

// New returns the tool set backed by provider.
func New(provider *catalog.Provider, viewAllBase string) *Tools {
	if viewAllBase == "" {
		viewAllBase = "/properties"
	}
	return &Tools{catalog: provider, viewAllBase: viewAllBase}
}

// NewServer builds an MCP server with every tool registered.
func (t *Tools) NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer("bodi", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool(ToolFindListings,
		mcp.WithDescription("Extract listing identifiers (e.g. LAG-001) from text and return the matching catalog entries in mention order."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Free text that may mention listing identifiers")),
	), t.FindListings)

	s.AddTool(mcp.NewTool(ToolGetListing,
		mcp.WithDescription("Return a single catalog entry by identifier."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Listing identifier, three uppercase letters, a hyphen and three digits")),
	), t.GetListing)

	s.AddTool(mcp.NewTool(ToolViewAllURL,
		mcp.WithDescription("Build the listing-page URL that shows exactly the listings mentioned in text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Free text that may mention listing identifiers")),
	), t.ViewAllURL)

	return s
}

// Serve runs the server over stdio until the client disconnects.
func (t *Tools) Serve(version string) error {
	return server.ServeStdio(t.NewServer(version))
}

type listingView struct {
	catalog.Entry
	Price string `json:"price"`
	Path  string `json:"path"`
}

func view(e catalog.Entry) listingView {
	return listingView{Entry: e, Price: catalog.FormatNaira(e.PriceMinor), Path: recommend.ListingPath(e.ID)}
}

func (t *Tools) FindListings(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, ok := stringArg(req, "text")
	if !ok {
		return mcp.NewToolResultError("missing required argument: text"), nil
	}
	set, stats := recommend.CorrelateWithStats(recommend.Extract(text), t.catalog.Snapshot())
	logger.L.Debug("find_listings", "requested", stats.Requested, "resolved", stats.Resolved, "dangling", stats.Dangling)

	out := struct {
		Listings []listingView `json:"listings"`
		Unknown  []string      `json:"unknown"`
	}{Listings: make([]listingView, 0, len(set)), Unknown: stats.Dangling}
	if out.Unknown == nil {
		out.Unknown = []string{}
	}
	for _, e := range set {
		out.Listings = append(out.Listings, view(e))
	}
	return jsonResult(out)
}

func (t *Tools) GetListing(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := stringArg(req, "id")
	if !ok {
		return mcp.NewToolResultError("missing required argument: id"), nil
	}
	id = strings.TrimSpace(id)
	if !recommend.ValidIdentifier(id) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid listing identifier %q", id)), nil
	}
	entry, found := t.catalog.Snapshot().Lookup(id)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("listing %s not found", id)), nil
	}
	return jsonResult(view(entry))
}

func (t *Tools) ViewAllURL(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, ok := stringArg(req, "text")
	if !ok {
		return mcp.NewToolResultError("missing required argument: text"), nil
	}
	set := recommend.Correlate(recommend.Extract(text), t.catalog.Snapshot())
	if len(set) == 0 {
		return mcp.NewToolResultError("no known listings mentioned"), nil
	}
	return mcp.NewToolResultText(recommend.ViewAllURL(t.viewAllBase, set.IDs())), nil
}

func stringArg(req mcp.CallToolRequest, name string) (string, bool) {
	v, ok := req.GetArguments()[name].(string)
	return v, ok
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
