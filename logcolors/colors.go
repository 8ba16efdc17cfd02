package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"

	BrightMagenta = "\033[95m"
)

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
)

// Track pipeline log prefixes
const (
	LogCatalog  = Blue + "[Catalog]" + Reset
	LogAssets   = Blue + "[Assets]" + Reset
	LogLyrics   = Green + "[Lyrics]" + Reset
	LogTiming   = Cyan + "[Timing]" + Reset
	LogAnalysis = BrightMagenta + "[Analysis]" + Reset
	LogDecode   = BrightMagenta + "[Decode]" + Reset
	LogSpectrum = BrightMagenta + "[Spectrum]" + Reset
)

// Contact form log prefixes
const (
	LogContact       = Green + "[Contact]" + Reset
	LogContactStore  = Blue + "[Contact:Store]" + Reset
	LogContactBackup = Blue + "[Contact:Backup]" + Reset
	LogNotifier      = Cyan + "[Notifier]" + Reset
)

// Rate limiting log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAPIKey    = Purple + "[APIKey]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}
