// Package capture implements the periodic screen-capture loop and the bounded
// screenshot buffer behind it.
package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	hudderr "github.com/huddleai/huddle/pkg/errors"
)

// ScreenCapturer acquires a single frame of the primary display.
type ScreenCapturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// OSCapturer shells out to the platform screenshot tool and returns PNG bytes.
type OSCapturer struct{}

// NewOSCapturer returns the platform screen capturer.
func NewOSCapturer() *OSCapturer {
	return &OSCapturer{}
}

// Capture grabs the primary display as PNG bytes.
func (c *OSCapturer) Capture(ctx context.Context) ([]byte, error) {
	tmpFile, err := os.CreateTemp("", "huddle-frame-*.png")
	if err != nil {
		return nil, hudderr.Wrap(err, hudderr.ErrCodeCaptureFailed, "creating temp file")
	}
	outputPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(outputPath)

	cmd, err := screenshotCommand(ctx, outputPath)
	if err != nil {
		return nil, err
	}

	if err := cmd.Run(); err != nil {
		return nil, hudderr.Wrap(err, hudderr.ErrCodeCaptureFailed, "screenshot tool failed").
			WithContext("tool", cmd.Path).
			WithRetryable(true)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, hudderr.Wrap(err, hudderr.ErrCodeCaptureFailed, "reading captured frame")
	}
	if len(data) == 0 {
		return nil, hudderr.New(hudderr.ErrCodeCaptureFailed, "screenshot tool produced empty file")
	}
	return data, nil
}

func screenshotCommand(ctx context.Context, outputPath string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		return exec.CommandContext(ctx, "screencapture", "-x", "-t", "png", outputPath), nil

	case "linux":
		if _, err := exec.LookPath("gnome-screenshot"); err == nil {
			return exec.CommandContext(ctx, "gnome-screenshot", "-f", outputPath), nil
		}
		if _, err := exec.LookPath("scrot"); err == nil {
			return exec.CommandContext(ctx, "scrot", outputPath), nil
		}
		if _, err := exec.LookPath("import"); err == nil {
			// ImageMagick
			return exec.CommandContext(ctx, "import", "-window", "root", outputPath), nil
		}
		return nil, hudderr.New(hudderr.ErrCodeCaptureFailed,
			"no screenshot tool available (install gnome-screenshot, scrot, or imagemagick)")

	case "windows":
		script := fmt.Sprintf(`
			Add-Type -AssemblyName System.Windows.Forms
			$screen = [System.Windows.Forms.Screen]::PrimaryScreen
			$bitmap = New-Object System.Drawing.Bitmap($screen.Bounds.Width, $screen.Bounds.Height)
			$graphics = [System.Drawing.Graphics]::FromImage($bitmap)
			$graphics.CopyFromScreen($screen.Bounds.Location, [System.Drawing.Point]::Empty, $screen.Bounds.Size)
			$bitmap.Save('%s', [System.Drawing.Imaging.ImageFormat]::Png)
		`, outputPath)
		return exec.CommandContext(ctx, "powershell", "-command", script), nil

	default:
		return nil, hudderr.New(hudderr.ErrCodeCaptureFailed,
			fmt.Sprintf("screenshots not supported on %s", runtime.GOOS))
	}
}
