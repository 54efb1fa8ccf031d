package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/xilidan/meetings/gateways/assistant"
	"github.com/xilidan/meetings/pkg/jwt"
	"github.com/xilidan/meetings/services/meetings/consts"
	"github.com/xilidan/meetings/services/meetings/entity"
)

func NewUploadCmd(deps *Dependencies) *cobra.Command {
	var title, source string

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a meeting recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			if title == "" {
				title = filepath.Base(path)
			}

			m, err := deps.Meetings.Ingest(cmd.Context(), &entity.IngestRequest{
				Title:    title,
				Source:   source,
				Filename: filepath.Base(path),
				MimeType: consts.MimeTypeFor(path),
				Audio:    data,
			})
			if err != nil {
				return err
			}

			NewFormatter(deps.Out).Uploaded(m)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "meeting title (defaults to the file name)")
	cmd.Flags().StringVarP(&source, "source", "s", "", "where the recording comes from")

	return cmd
}

func NewProcessCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "process ID",
		Short: "Transcribe a meeting and extract its summary and action items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(deps.Out)
			f.Info("Transcribing " + args[0] + "...")

			m, err := deps.Meetings.Process(cmd.Context(), args[0])
			if err != nil {
				if m != nil {
					f.Meeting(m)
				}
				if errors.Is(err, entity.ErrServiceUnavailable) {
					return fmt.Errorf("transcription service is temporarily unavailable, try again later: %w", err)
				}
				return err
			}

			f.Meeting(m)
			return nil
		},
	}
}

func NewGetCmd(deps *Dependencies) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := deps.Meetings.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			f := NewFormatter(deps.Out)
			if asJSON {
				return f.JSON(m)
			}
			f.Meeting(m)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the meeting as JSON")

	return cmd
}

func NewListCmd(deps *Dependencies) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent meetings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			meetings, err := deps.Meetings.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			f := NewFormatter(deps.Out)
			if asJSON {
				return f.JSON(meetings)
			}
			if len(meetings) == 0 {
				f.Info("No meetings found")
				return nil
			}
			f.MeetingListHeader()
			for _, m := range meetings {
				f.MeetingListItem(m)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", consts.DefaultListLimit, "maximum number of meetings")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the meetings as JSON")

	return cmd
}

func NewExportCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "export ID",
		Short: "Create one task per action item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := deps.Meetings.ExportTasks(cmd.Context(), args[0])
			f := NewFormatter(deps.Out)
			for _, t := range tasks {
				f.Task(t)
			}
			if err != nil {
				return err
			}

			f.Success(fmt.Sprintf("Exported %d tasks", len(tasks)))
			return nil
		},
	}
}

func NewMCPCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the meetings as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdio := server.NewStdioServer(assistant.NewServer(deps.Meetings, Version))
			return stdio.Listen(cmd.Context(), deps.In, deps.Out)
		},
	}
}

func NewTokenCmd(deps *Dependencies) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := jwt.Generate(cmd.Context(), subject, deps.JWTSecret)
			if err != nil {
				return err
			}
			fmt.Fprintln(deps.Out, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "meetctl", "token subject")

	return cmd
}
