// Package cleanup provides ascii reporter
package cleanup

import (
	"fmt"
	"strings"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/interfaces"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
)

const (
	cyan        = "\033[38;2;86;182;194m"  // One Dark Cyan: #56B6C2
	cyanBright  = "\033[38;2;97;228;240m"  // Brighter Cyan: #61E4F0
	dimCyan     = "\033[38;2;47;91;102m"   // Dim Cyan: #2F5B66
	grey        = "\033[38;2;110;118;129m" // Brighter Grey: #6E7681
	dimGrey     = "\033[38;2;75;82;99m"    // Darker Grey: #4B5263
	success     = "\033[38;2;62;130;144m"  // Dim Cyan: #3E8290
	warning     = "\033[38;2;229;192;123m" // One Dark Yellow: #E5C07B
	errorRed    = "\033[38;2;224;108;117m" // One Dark Red: #E06C75
	white       = "\033[38;2;171;178;191m" // One Dark Foreground: #ABB2BF
	whiteBright = "\033[38;2;220;225;230m" // Brighter White
	reset       = "\033[0m"
	bold        = "\033[1m"
)

type Reporter struct {
	cache interfaces.Cache
}

func NewReporter(cache interfaces.Cache) *Reporter {
	return &Reporter{cache: cache}
}

func (r *Reporter) LogStage(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s✦ %s%s%s\n", success, bold, grey, formattedMsg, reset)
}

func (r *Reporter) LogSuccess(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s✦ %s%s%s\n", success, bold, white, formattedMsg, reset)
}

func (r *Reporter) LogError(message string, err error) {
	fmt.Printf("%s%s✖ ERROR: %s%s: %v%s\n", bold, errorRed, grey, message, err, reset)
}

func (r *Reporter) LogWarning(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s⚠ WARNING: %s%s%s\n", bold, warning, grey, formattedMsg, reset)
}

func (r *Reporter) LogInfo(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s▶ %s%s%s\n", dimGrey, grey, formattedMsg, reset)
}

// GenerateSessionReport renders one session's cached state for the verbose
// cleanup report.
func (r *Reporter) GenerateSessionReport(sessionID string) string {
	var report strings.Builder
	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 MST")

	report.WriteString(fmt.Sprintf("%s%s▓ %s | Session: %s%s %s\n", bold, dimCyan, timestamp, whiteBright, logging.SanitizeSessionID(sessionID), reset))

	var statusLine strings.Builder
	if snapshot, hydrated := r.cache.GetSnapshot(sessionID); hydrated && snapshot != nil {
		statusLine.WriteString(fmt.Sprintf("%s✦ %sSnapshot: %s%s (gen %d)%s",
			success, grey, cyanBright, snapshot.OriginPage, snapshot.Generation, reset))
	} else if hydrated {
		statusLine.WriteString(fmt.Sprintf("%s○ %sSnapshot: %sEMPTY%s",
			dimGrey, grey, cyan, reset))
	} else {
		statusLine.WriteString(fmt.Sprintf("%s○ %sSnapshot: %sNOT HYDRATED%s",
			dimGrey, grey, dimGrey, reset))
	}
	report.WriteString(statusLine.String() + "\n")

	return report.String()
}
