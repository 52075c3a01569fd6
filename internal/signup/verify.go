package signup

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ignite/signup-service/internal/directory"
	"github.com/ignite/signup-service/internal/liststore"
	"github.com/ignite/signup-service/internal/pkg/logger"
	"github.com/ignite/signup-service/internal/signer"
)

// VerifyProcessor applies validated verification links to the directory
// and persists the result. It is the only writer of subscription state.
type VerifyProcessor struct {
	PublicKey []byte
	Directory *directory.Directory
	Store     *liststore.Store

	// Now is the clock, replaceable in tests. Defaults to time.Now.
	Now func() time.Time

	// mu serializes apply-then-persist so two concurrent verifications
	// can never interleave into a lost update.
	mu sync.Mutex
}

func (p *VerifyProcessor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Process validates a token and, if valid, applies its payload to the
// directory and saves the list before returning. The signature check
// comes first: no payload field is trusted until it passes. It returns
// a human-readable confirmation.
func (p *VerifyProcessor) Process(token string) (string, error) {
	if !signer.Verify(token, p.PublicKey) {
		return "", ErrBadSignature
	}

	encoded, _, _ := strings.Cut(token, ".")
	payload, err := DecodePayload(encoded)
	if err != nil {
		return "", err
	}

	if payload.Expiry != 0 && p.now().Unix() > payload.Expiry {
		logger.Info("verification link expired", "email", payload.Email, "expiry", payload.Expiry)
		return "", ErrExpired
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(payload.Tags) == 0 {
		p.Directory.Remove(payload.Email)
	} else {
		p.Directory.Upsert(payload.Email, payload.Name, payload.Tags)
	}
	if err := p.Store.Save(p.Directory); err != nil {
		return "", fmt.Errorf("persisting list: %w", err)
	}

	if len(payload.Tags) == 0 {
		logger.Info("subscriber removed", "email", payload.Email)
		return fmt.Sprintf("%s has been unsubscribed", payload.Email), nil
	}
	entry, _ := p.Directory.Get(payload.Email)
	logger.Info("subscription verified", "email", payload.Email, "tags", len(payload.Tags))
	return fmt.Sprintf("%s is now subscribed to: %s",
		payload.Email, strings.Join(entry.SortedTags(), ", ")), nil
}
