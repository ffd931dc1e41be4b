package mcp

import (
	"log/slog"

	"github.com/gregmcinnes/topset/internal/schedule"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered. The
// resolver may be nil when no program is configured; prescription and
// program tools then report an error to the caller.
func New(ds DataSource, resolver *schedule.Resolver, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Top-Set", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Top-Set training server. Query training maxes, workout logs, personal records, and day prescriptions, or compute normalized strength scores and percentiles."),
	)

	h := &handlers{ds: ds, resolver: resolver, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetTrainingMaxes, Handler: h.getTrainingMaxes},
		server.ServerTool{Tool: toolGetLogEntries, Handler: h.getLogEntries},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolGetPrescriptions, Handler: h.getPrescriptions},
		server.ServerTool{Tool: toolComputeStrengthScore, Handler: h.computeStrengthScore},
		server.ServerTool{Tool: toolGetStrengthPercentile, Handler: h.getStrengthPercentile},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resPersonalRecords, Handler: h.personalRecords},
		server.ServerResource{Resource: resProgram, Handler: h.program},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds       DataSource
	resolver *schedule.Resolver
	log      *slog.Logger
}

// --- Resource definitions ---

var resPersonalRecords = mcp.NewResource(
	"topset://personal_records",
	"Personal Records",
	mcp.WithResourceDescription("Best estimated one-rep max per lift across all history"),
	mcp.WithMIMEType("application/json"),
)

var resProgram = mcp.NewResource(
	"topset://program",
	"Active Program",
	mcp.WithResourceDescription("The active training program: lift assignments, weekly percentage schemes, and defaults"),
	mcp.WithMIMEType("application/json"),
)
