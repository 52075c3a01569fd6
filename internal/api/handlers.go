package api

import (
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ignite/signup-service/internal/directory"
	"github.com/ignite/signup-service/internal/liststore"
	"github.com/ignite/signup-service/internal/metrics"
	"github.com/ignite/signup-service/internal/pkg/httputil"
	"github.com/ignite/signup-service/internal/pkg/logger"
	"github.com/ignite/signup-service/internal/signup"
)

// Handlers serves the query-parameter-driven signup surface:
//
//	GET /?r=<base64url(csv)>            signup request
//	GET /?v=<base64url(csv)>.<base64>   verification click
//	GET /?d=<password>                  CSV download (if configured)
type Handlers struct {
	Requests  *signup.RequestProcessor
	Verifier  *signup.VerifyProcessor
	Directory *directory.Directory
	Store     *liststore.Store
	Metrics   *metrics.Metrics

	// DownloadPassword guards ?d=. Empty disables the download entirely;
	// a mismatch is indistinguishable from the feature not existing.
	DownloadPassword string

	startTime time.Time
}

// NewHandlers wires the processors into the HTTP surface.
func NewHandlers(req *signup.RequestProcessor, ver *signup.VerifyProcessor,
	dir *directory.Directory, store *liststore.Store, m *metrics.Metrics,
	downloadPassword string) *Handlers {
	if m == nil {
		m = metrics.New(func() float64 { return float64(dir.Len()) })
	}
	return &Handlers{
		Requests:         req,
		Verifier:         ver,
		Directory:        dir,
		Store:            store,
		Metrics:          m,
		DownloadPassword: downloadPassword,
		startTime:        time.Now(),
	}
}

// HandleRoot dispatches on which query parameter is present.
func (h *Handlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	switch {
	case query.Has("r"):
		h.handleRequest(w, r, query.Get("r"))
	case query.Has("v"):
		h.handleVerify(w, query.Get("v"))
	case query.Has("d"):
		h.handleDownload(w, query.Get("d"))
	default:
		httputil.NotFound(w)
	}
}

func (h *Handlers) handleRequest(w http.ResponseWriter, r *http.Request, encoded string) {
	status, msg, err := h.Requests.Process(r.Context(), encoded, sourceIP(r))
	if err != nil {
		var throttled *signup.ThrottledError
		switch {
		case errors.As(err, &throttled):
			h.count(h.Metrics.SignupRequests, metrics.OutcomeThrottled)
			httputil.Throttled(w, throttled.RetryAfter)
		case errors.Is(err, signup.ErrValidation):
			h.count(h.Metrics.SignupRequests, metrics.OutcomeInvalid)
			httputil.BadRequest(w, "invalid signup request")
		default:
			h.count(h.Metrics.SignupRequests, metrics.OutcomeError)
			httputil.InternalError(w, err)
		}
		return
	}

	h.countMail(status)
	if status < 200 || status > 299 {
		h.count(h.Metrics.SignupRequests, metrics.OutcomeError)
	} else {
		h.count(h.Metrics.SignupRequests, metrics.OutcomeOK)
	}
	// The transport's status code is relayed as-is; 2xx means the
	// verification mail is on its way.
	httputil.Text(w, status, msg)
}

func (h *Handlers) handleVerify(w http.ResponseWriter, token string) {
	// Mail clients sometimes strip the escaping from forwarded links, in
	// which case "+" in the signature arrives as a space.
	msg, err := h.Verifier.Process(strings.ReplaceAll(token, " ", "+"))
	if err != nil {
		switch {
		case errors.Is(err, signup.ErrBadSignature):
			h.count(h.Metrics.Verifications, metrics.OutcomeBadToken)
			httputil.BadRequest(w, "invalid verification link")
		case errors.Is(err, signup.ErrExpired):
			h.count(h.Metrics.Verifications, metrics.OutcomeExpired)
			httputil.BadRequest(w, "this verification link has expired, please sign up again")
		case errors.Is(err, signup.ErrValidation):
			h.count(h.Metrics.Verifications, metrics.OutcomeInvalid)
			httputil.BadRequest(w, "invalid verification link")
		default:
			h.count(h.Metrics.Verifications, metrics.OutcomeError)
			httputil.InternalError(w, err)
		}
		return
	}
	h.count(h.Metrics.Verifications, metrics.OutcomeOK)
	httputil.Text(w, http.StatusOK, msg)
}

func (h *Handlers) handleDownload(w http.ResponseWriter, password string) {
	if h.DownloadPassword == "" || password != h.DownloadPassword {
		httputil.NotFound(w)
		return
	}
	f, err := h.Store.Open()
	if err != nil {
		if os.IsNotExist(err) {
			httputil.NotFound(w)
			return
		}
		httputil.InternalError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="list.csv"`)
	if _, err := io.Copy(w, f); err != nil {
		logger.Warn("list download interrupted", "error", err)
	}
}

// HandleHealth reports service liveness and basic state.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"uptime":      time.Since(h.startTime).Round(time.Second).String(),
		"subscribers": h.Directory.Len(),
	})
}

func (h *Handlers) count(vec *prometheus.CounterVec, outcome string) {
	vec.WithLabelValues(outcome).Inc()
}

// countMail records the mail transport outcome by status class.
func (h *Handlers) countMail(status int) {
	h.Metrics.MailSends.WithLabelValues(metrics.StatusClass(status)).Inc()
}

// sourceIP extracts the requester IP. middleware.RealIP has already
// rewritten RemoteAddr from X-Forwarded-For / X-Real-IP when present.
func sourceIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
