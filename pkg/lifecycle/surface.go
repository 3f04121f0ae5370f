package lifecycle

import (
	"log"

	"github.com/nexsan123/quantvision/pkg/platform"
)

// BrowserSurface presents the UI in the user's default browser. It is the
// fallback surface on hosts without an embedded webview; splash, restore
// and focus are no-ops there since the browser owns the window.
type BrowserSurface struct{}

// NewBrowserSurface creates a browser-backed surface.
func NewBrowserSurface() *BrowserSurface {
	return &BrowserSurface{}
}

// ShowSplash is a no-op; the browser opens straight to the main UI.
func (b *BrowserSurface) ShowSplash() error {
	return nil
}

// ShowMain opens the UI URL in the default browser.
func (b *BrowserSurface) ShowMain(url string) error {
	log.Printf("Opening UI: %s", url)
	return platform.OpenExternal(url)
}

// Restore is a no-op for browser windows.
func (b *BrowserSurface) Restore() {}

// Focus is a no-op for browser windows.
func (b *BrowserSurface) Focus() {}

// Close is a no-op; the browser tab outlives the shell.
func (b *BrowserSurface) Close() {}

// TerminalDialog reports fatal conditions on the process log. Used when
// no graphical dialog host is available.
type TerminalDialog struct{}

// NewTerminalDialog creates a log-backed dialog.
func NewTerminalDialog() *TerminalDialog {
	return &TerminalDialog{}
}

// FatalError logs the failure that is about to end the shell.
func (t *TerminalDialog) FatalError(title, message string) {
	log.Printf("FATAL: %s: %s", title, message)
}

// ConfirmDegraded cannot prompt without a graphical host; it declines so
// the shell quits instead of presenting a UI with no backend behind it.
func (t *TerminalDialog) ConfirmDegraded(message string) bool {
	log.Printf("Backend unavailable, quitting: %s", message)
	return false
}
