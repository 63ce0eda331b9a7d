package middleware

import (
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Request classes, written to the x-class field of the access log.
const (
	ClassDICOM  = "dicom"
	ClassAPI    = "api"
	ClassHealth = "health"
	ClassStatic = "static"
)

const accessLogFields = "#Fields: date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken x-class x-route sc(Content-Type) cs(User-Agent)"

var healthPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// classify sorts a request path into an access log class. Slice streams
// are kept apart from the JSON API since they account for most bytes
// served.
func classify(path string) string {
	switch {
	case healthPaths[path]:
		return ClassHealth
	case strings.HasPrefix(path, "/api/test-data/dicom/"),
		strings.HasPrefix(path, "/api/series/") && strings.HasSuffix(path, "/dicom"):
		return ClassDICOM
	case strings.HasPrefix(path, "/api/"), path == "/version":
		return ClassAPI
	default:
		return ClassStatic
	}
}

// AccessLogConfig selects which requests the access log records. DICOM and
// API requests are always recorded.
type AccessLogConfig struct {
	// LogStaticFiles records viewer assets
	LogStaticFiles bool
	// LogHealthChecks records /health, /healthz, /livez and /readyz
	LogHealthChecks bool
	// Output receives the log (default: stderr)
	Output io.Writer
}

// DefaultAccessLogConfig records health checks but not static assets.
func DefaultAccessLogConfig() AccessLogConfig {
	return AccessLogConfig{LogHealthChecks: true}
}

func (c AccessLogConfig) records(class string) bool {
	switch class {
	case ClassHealth:
		return c.LogHealthChecks
	case ClassStatic:
		return c.LogStaticFiles
	default:
		return true
	}
}

// AccessLog returns middleware writing one W3C Extended Log Format entry
// per request, preceded once by the #Fields directive. Installed with
// mux.Router.Use, x-route carries the matched route template.
func AccessLog(config AccessLogConfig) func(http.Handler) http.Handler {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	logger := log.New(out, "", 0)
	var directive sync.Once

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := classify(r.URL.Path)
			if !config.records(class) {
				next.ServeHTTP(w, r)
				return
			}

			rec := newStatusRecorder(w)
			start := time.Now()
			next.ServeHTTP(rec, r)

			directive.Do(func() { logger.Println(accessLogFields) })
			logger.Println(accessLogEntry(r, rec, class, time.Since(start)))
		})
	}
}

func accessLogEntry(r *http.Request, rec *statusRecorder, class string, took time.Duration) string {
	now := time.Now().UTC()
	route, _ := routeTemplate(r)
	return strings.Join([]string{
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		logField(clientIP(r)),
		logField(r.Method),
		logField(r.URL.Path),
		logField(r.URL.RawQuery),
		strconv.Itoa(rec.status),
		strconv.FormatInt(rec.bytes, 10),
		strconv.FormatInt(took.Milliseconds(), 10),
		class,
		logField(route),
		logField(rec.Header().Get("Content-Type")),
		logField(r.UserAgent()),
	}, " ")
}

// logField makes a client-supplied value safe for one log line: control
// characters are dropped, line breaks become spaces, an empty value becomes
// "-" and a value with blanks or quotes is quoted.
func logField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteByte(' ')
		case r < 0x20 && r != '\t', r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	s = b.String()

	switch {
	case s == "":
		return "-"
	case strings.ContainsAny(s, " \t\""):
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	default:
		return s
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i != -1 {
		host = host[:i]
	}
	return host
}
