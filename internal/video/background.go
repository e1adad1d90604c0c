package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"kantori/internal/services"
)

const gradientFileName = "gradient_bg.png"

// EnsureBackground returns a background image for songs that have none
// configured, synthesizing a dark two-tone gradient in the backgrounds
// directory on first use.
func (r *Renderer) EnsureBackground(ctx context.Context) (string, error) {
	dir := r.settings.BackgroundsDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "background", "ensure backgrounds dir", err)
	}

	gradientPath := filepath.Join(dir, gradientFileName)
	if info, err := os.Stat(gradientPath); err == nil && info.Size() > 0 {
		return gradientPath, nil
	}

	size := fmt.Sprintf("%dx%d", r.settings.Width, r.settings.Height)
	args := []string{
		"-y",
		"-f", "lavfi", "-i", "color=c=#1a1a2e:s=" + size + ":d=1",
		"-f", "lavfi", "-i", "color=c=#16213e:s=" + size + ":d=1",
		"-filter_complex", "[0:v][1:v]blend=all_mode=average:all_opacity=0.5",
		"-frames:v", "1",
		gradientPath,
	}
	if err := r.run(ctx, r.ffmpegBinary, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "background", "generate gradient", err)
	}
	if info, err := os.Stat(gradientPath); err != nil || info.Size() == 0 {
		return "", services.Wrap(services.ErrMissingOutput, stageName, "background",
			fmt.Sprintf("expected gradient %s", gradientPath), err)
	}
	return gradientPath, nil
}
