package http

import (
	"context"
	"io"

	"engageboard/internal/archive"
	"engageboard/internal/services"
	"engageboard/pkg/contracts/domain"
)

// LeaderboardServiceInterface defines the leaderboard operations the handlers use
type LeaderboardServiceInterface interface {
	DetectReader(name string, r io.Reader, kind domain.TableKind) (*services.Detection, error)
	Generate(ctx context.Context, req services.GenerateRequest) (*services.Run, error)
	Get(ctx context.Context, id string) (*services.Run, error)
	List(ctx context.Context, limit int) ([]archive.RunInfo, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, run *services.Run, format services.ExportFormat, w io.Writer) error
}
