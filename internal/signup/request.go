package signup

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/ignite/signup-service/internal/directory"
	"github.com/ignite/signup-service/internal/mailer"
	"github.com/ignite/signup-service/internal/pkg/logger"
	"github.com/ignite/signup-service/internal/ratelimit"
	"github.com/ignite/signup-service/internal/signer"
)

// RequestProcessor turns a signup submission into a signed verification
// link and hands it to the mail transport. It mutates no durable state;
// everything the verification needs travels inside the link.
type RequestProcessor struct {
	Signer    *signer.Signer
	Limiter   *ratelimit.Limiter
	Directory *directory.Directory
	Sender    mailer.Sender
	Templates *mailer.Templates

	// BaseURL is the externally reachable URL the ?v= token is appended to.
	BaseURL string
	// Validity is how long issued links stay valid. Zero means forever.
	Validity time.Duration

	FromEmail string
	FromName  string

	// Now is the clock, replaceable in tests. Defaults to time.Now.
	Now func() time.Time
}

func (p *RequestProcessor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Process validates the encoded submission from sourceIP, signs a
// verification link and mails it. It returns the mail transport's HTTP
// status code, which the caller relays (2xx is success), and a
// user-facing message.
func (p *RequestProcessor) Process(ctx context.Context, encoded, sourceIP string) (int, string, error) {
	req, err := DecodeRequest(encoded)
	if err != nil {
		return 0, "", err
	}

	if allowed, retryAfter := p.Limiter.CheckAndRegister(sourceIP, p.now().Unix()); !allowed {
		logger.Info("signup throttled", "ip", sourceIP, "retry_after", retryAfter)
		return 0, "", &ThrottledError{RetryAfter: retryAfter}
	}

	// Bookkeeping only: the tag becomes a list column once a subscription
	// for it is verified, but it is remembered as soon as it is seen.
	p.Directory.ObserveTags(req.Tags...)

	var expiry int64
	if p.Validity > 0 {
		expiry = p.now().Add(p.Validity).Unix()
	}

	payload := Payload{Email: req.Email, Name: req.Name, Expiry: expiry, Tags: req.Tags}
	token, err := p.Signer.Sign(payload.Encode())
	if err != nil {
		return 0, "", fmt.Errorf("signing verification payload: %w", err)
	}
	// The signature half of the token is standard base64, so the URL
	// form must be escaped or "+" would decode as a space on the click.
	link := p.BaseURL + "?v=" + url.QueryEscape(token)

	subject, text, html, err := p.Templates.Render(link, req.Name, p.FromName, p.FromEmail)
	if err != nil {
		return 0, "", fmt.Errorf("rendering verification mail: %w", err)
	}

	status, err := p.Sender.Send(ctx, mailer.Message{
		To:       req.Email,
		ToName:   req.Name,
		From:     p.FromEmail,
		FromName: p.FromName,
		Subject:  subject,
		Text:     text,
		HTML:     html,
	})
	if err != nil {
		return 0, "", fmt.Errorf("mail transport: %w", err)
	}

	logger.Info("verification mail requested",
		"email", req.Email, "ip", sourceIP, "tags", len(req.Tags), "transport_status", status)
	if status < 200 || status > 299 {
		return status, "unable to send the verification email, please try again later", nil
	}
	return status, "verification email sent, check your inbox to confirm", nil
}
