package bridge

import (
	"context"
	"log"
	"os/exec"
	"runtime"
	"time"
)

// LogBridge is the host implementation used when formdesk runs standalone:
// notifications go to the process log and external navigation shells out to
// the platform opener. Confirmation is unavailable (the frontend owns the
// popup primitive and pre-answers via WithConfirmAnswer).
type LogBridge struct {
	Nop

	// UserIDValue is the identity supplied by the operator, if any.
	UserIDValue string

	// Scheme is the reported color scheme, defaulting to "light".
	Scheme string
}

func (b *LogBridge) Ready() {
	log.Printf("bridge: ready")
}

func (b *LogBridge) ColorScheme() string {
	if b.Scheme == "" {
		return "light"
	}
	return b.Scheme
}

func (b *LogBridge) Alert(message string) {
	log.Printf("bridge: alert: %s", message)
}

func (b *LogBridge) Confirm(ctx context.Context, title, message string) (bool, error) {
	log.Printf("bridge: confirm requested without a popup primitive: %s", title)
	return false, nil
}

func (b *LogBridge) Toast(text string, duration time.Duration) {
	log.Printf("bridge: toast: %s", text)
}

func (b *LogBridge) OpenLink(url string) error {
	log.Printf("bridge: open link %s", url)
	name := "xdg-open"
	if runtime.GOOS == "darwin" {
		name = "open"
	}
	if _, err := exec.LookPath(name); err != nil {
		// No opener available; the log line above is the best effort.
		return nil
	}
	return exec.Command(name, url).Start()
}

func (b *LogBridge) UserID() string {
	return b.UserIDValue
}

var _ Bridge = (*LogBridge)(nil)
