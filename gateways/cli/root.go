// Package cli implements meetctl, a command line client for the meetings
// service.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/xilidan/meetings/services/meetings/entity"
)

var Version = "dev"

type Meetings interface {
	Ingest(ctx context.Context, req *entity.IngestRequest) (*entity.Meeting, error)
	Process(ctx context.Context, id string) (*entity.Meeting, error)
	Get(ctx context.Context, id string) (*entity.Meeting, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Meeting, error)
	ExportTasks(ctx context.Context, id string) ([]entity.TaskSummary, error)
}

type Dependencies struct {
	Meetings  Meetings
	JWTSecret string
	Out       io.Writer
	In        io.Reader
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "meetctl",
		Short:         "Upload, transcribe and export meetings",
		Long:          "A CLI for the meetings service: upload recordings, transcribe them with Gemini and export their action items as tasks.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = Version
	rootCmd.SetOut(deps.Out)

	rootCmd.AddCommand(NewUploadCmd(deps))
	rootCmd.AddCommand(NewProcessCmd(deps))
	rootCmd.AddCommand(NewGetCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewExportCmd(deps))
	rootCmd.AddCommand(NewMCPCmd(deps))
	rootCmd.AddCommand(NewTokenCmd(deps))

	return rootCmd
}
