package cli

import (
	"context"
	"os/exec"
	"runtime"
)

// openBrowser hands url to the desktop's default handler.
func openBrowser(ctx context.Context, url string) error {
	var name string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		name = "xdg-open"
	}
	return exec.CommandContext(ctx, name, append(args, url)...).Run()
}
