// Package logger wires error reporting for the dartrie CLI and service
// binaries. Structured logging itself is zerolog, threaded directly
// through constructors the way lib.Options.Logger is in the teacher;
// this package only holds the Sentry capture path for the two situations
// spec.md's ambient stack calls out as worth reporting: a build that
// failed outright, and a panic recovered in an HTTP handler. Query misses
// are never reported here — exact_match and common_prefix_search are
// infallible by design.
package logger

import (
	"log"
	"net/http"
	"time"

	sentry "github.com/getsentry/sentry-go"
)

// Fields tags a reported error with the dartrie-specific context a build
// failure or a recovered handler panic carries: which dictionary and which
// variant (reduced or minimal-prefix) it happened against, when known.
// Either field may be left zero.
type Fields struct {
	Dictionary string
	Variant    string
}

func (f Fields) apply(scope *sentry.Scope) {
	if f.Dictionary != "" {
		scope.SetTag("dictionary", f.Dictionary)
	}
	if f.Variant != "" {
		scope.SetTag("variant", f.Variant)
	}
}

// NotifySentry reports err to Sentry, tagged with fields and, if req is
// non-nil, the request that triggered it. SENTRY_DSN, SENTRY_ENVIRONMENT,
// and SENTRY_RELEASE are picked up from the environment automatically; see
// https://docs.sentry.io/platforms/go/config/.
func NotifySentry(err error, req *http.Request, fields Fields) {
	client, clientErr := sentry.NewClient(sentry.ClientOptions{})
	if clientErr != nil {
		log.Printf("dartrie: Sentry initialization failed: %v\n", clientErr)
		return
	}

	scope := sentry.NewScope()
	fields.apply(scope)

	client.CaptureException(err, &sentry.EventHint{Request: req}, scope)
	client.Flush(time.Second * 5)
}
