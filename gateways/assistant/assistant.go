// Package assistant exposes the meeting pipeline as MCP tools so that an
// assistant can browse, process and export meetings.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xilidan/meetings/services/meetings/consts"
	"github.com/xilidan/meetings/services/meetings/entity"
)

const recentResourceLimit = 10

type Meetings interface {
	Process(ctx context.Context, id string) (*entity.Meeting, error)
	Get(ctx context.Context, id string) (*entity.Meeting, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Meeting, error)
	ExportTasks(ctx context.Context, id string) ([]entity.TaskSummary, error)
}

func NewServer(meetings Meetings, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"meetings",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("Meeting recordings: transcripts, summaries and action items."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_meetings",
			mcp.WithDescription("List the most recent meetings, newest first."),
			mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum number of meetings (default %d)", consts.DefaultListLimit))),
		),
		listMeetings(meetings),
	)

	s.AddTool(
		mcp.NewTool("get_meeting",
			mcp.WithDescription("Fetch one meeting with its transcript, summary and action items."),
			mcp.WithString("id", mcp.Description("Meeting id"), mcp.Required()),
		),
		getMeeting(meetings),
	)

	s.AddTool(
		mcp.NewTool("process_meeting",
			mcp.WithDescription("Transcribe a meeting's audio and extract its summary and action items."),
			mcp.WithString("id", mcp.Description("Meeting id"), mcp.Required()),
		),
		processMeeting(meetings),
	)

	s.AddTool(
		mcp.NewTool("export_tasks",
			mcp.WithDescription("Create one task per action item of a transcribed meeting."),
			mcp.WithString("id", mcp.Description("Meeting id"), mcp.Required()),
		),
		exportTasks(meetings),
	)

	s.AddResource(
		mcp.NewResource(
			"meetings://recent",
			"Recent Meetings",
			mcp.WithResourceDescription(fmt.Sprintf("Last %d meetings as JSON", recentResourceLimit)),
			mcp.WithMIMEType("application/json"),
		),
		recentResource(meetings),
	)

	return s
}

func listMeetings(meetings Meetings) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", consts.DefaultListLimit)
		if limit <= 0 {
			limit = consts.DefaultListLimit
		}

		list, err := meetings.ListRecent(ctx, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list meetings: %v", err)), nil
		}
		return mcpJSON(list)
	}
}

func getMeeting(meetings Meetings) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		m, err := meetings.Get(ctx, id)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpJSON(m)
	}
}

func processMeeting(meetings Meetings) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		m, err := meetings.Process(ctx, id)
		switch {
		case err == nil:
			return mcpText(fmt.Sprintf("Meeting %s transcribed with %d action items.\n\n%s",
				m.ID, len(m.ActionItems), deref(m.Summary))), nil
		case entity.KindOf(err) == entity.KindServiceUnavailable:
			return mcpError("transcription service is temporarily unavailable, the meeting is still pending"), nil
		default:
			return mcpError(fmt.Sprintf("failed to process meeting %s: %v", id, err)), nil
		}
	}
}

func exportTasks(meetings Meetings) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		tasks, err := meetings.ExportTasks(ctx, id)
		if err != nil {
			if len(tasks) > 0 {
				return mcpError(fmt.Sprintf("exported %d tasks before failing: %v", len(tasks), err)), nil
			}
			return mcpError(err.Error()), nil
		}
		return mcpJSON(tasks)
	}
}

func recentResource(meetings Meetings) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, err := meetings.ListRecent(ctx, recentResourceLimit)
		if err != nil {
			return nil, fmt.Errorf("list meetings: %w", err)
		}

		b, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("marshal meetings: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
