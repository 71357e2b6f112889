// Package intercept orchestrates the request-validation pipeline: rule
// matching, bot verification and audit logging, producing one Verdict
// per incoming search query. The interceptor performs no I/O of its own
// beyond what its collaborators perform, and it never terminates the
// request itself: the host decides how to render a Block.
package intercept

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/searchguard/search-protection/internal/auditlog"
	"github.com/searchguard/search-protection/internal/metrics"
	"github.com/searchguard/search-protection/internal/rules"
	"github.com/searchguard/search-protection/internal/settings"
	"github.com/searchguard/search-protection/internal/verify"
)

// MsgAPIError is the generic connectivity message shown when the
// verification endpoint cannot be reached. Deliberately vague: the
// response must not leak which internal error occurred.
const MsgAPIError = "The search could not be verified right now. Please try again."

// Request carries one inbound query and its metadata into the pipeline.
type Request struct {
	RequestID string // correlation id, assigned by the host
	Query     string // raw search term, already URL-decoded
	Token     string // verification token, may be empty
	ClientIP  string // client network address
}

// Verdict is the terminal outcome of one pipeline invocation.
type Verdict struct {
	Allowed     bool    `json:"allowed"`
	Reason      string  `json:"reason,omitempty"`
	Message     string  `json:"message,omitempty"`
	RedirectURL string  `json:"redirect_url,omitempty"`
	Score       float64 `json:"score,omitempty"`
}

// Recorder persists block events. Satisfied by auditlog.Store.
type Recorder interface {
	Record(ctx context.Context, event *auditlog.BlockEvent) error
}

// Verifier performs the external bot-verification call. Satisfied by
// verify.Client.
type Verifier interface {
	Verify(ctx context.Context, token, clientIP, secretKey string) verify.Outcome
}

// Notifier fans a block event out to async consumers. Satisfied by
// messaging.NATSClient. Optional.
type Notifier interface {
	PublishBlockEvent(data []byte) error
}

// Interceptor evaluates queries against the operator policy.
type Interceptor struct {
	recorder Recorder
	verifier Verifier
	notifier Notifier // nil when NATS is not configured
}

// New creates an interceptor. notifier may be nil.
func New(recorder Recorder, verifier Verifier, notifier Notifier) *Interceptor {
	return &Interceptor{recorder: recorder, verifier: verifier, notifier: notifier}
}

// Evaluate runs the pipeline for one query under the given settings
// snapshot and returns the verdict. Exactly one block event is recorded
// per Block verdict and none per Allow. A storage failure downgrades to
// an observability signal; it never flips a Block into an Allow.
func (i *Interceptor) Evaluate(ctx context.Context, req Request, cfg settings.Settings) Verdict {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return i.allow(0)
	}

	// Blacklist rules, in operator order, first match wins.
	if res, ok := rules.Match(query, cfg.Rules()); ok {
		reason, message := auditlog.ReasonRuleLiteral, cfg.MsgBadword
		if res.Rule.Kind == rules.KindPattern {
			reason, message = auditlog.ReasonRulePattern, cfg.MsgRegex
		}
		return i.block(ctx, req, query, cfg, reason, message, 0)
	}

	if !cfg.RecaptchaEnabled {
		return i.allow(0)
	}

	start := time.Now()
	outcome := i.verifier.Verify(ctx, req.Token, req.ClientIP, cfg.SecretKey)
	if outcome.Status != verify.StatusAllowed && outcome.Status != verify.StatusMissingToken {
		metrics.VerificationSeconds.Observe(time.Since(start).Seconds())
	}

	switch outcome.Status {
	case verify.StatusAllowed:
		// No secret key configured: fail-open, no log entry.
		return i.allow(0)
	case verify.StatusMissingToken:
		return i.block(ctx, req, query, cfg, auditlog.ReasonVerifyMissingToken, cfg.MsgRecaptchaFail, 0)
	case verify.StatusAPIError:
		if outcome.Err != nil {
			log.Printf("[intercept] verification error for request=%s: %v", req.RequestID, outcome.Err)
		}
		return i.block(ctx, req, query, cfg, auditlog.ReasonVerifyAPIError, MsgAPIError, 0)
	case verify.StatusLowScore:
		return i.block(ctx, req, query, cfg, auditlog.ReasonVerifyLowScore, cfg.MsgRecaptchaFail, outcome.Score)
	}

	return i.allow(outcome.Score)
}

func (i *Interceptor) allow(score float64) Verdict {
	metrics.QueriesTotal.WithLabelValues("allow").Inc()
	return Verdict{Allowed: true, Score: score}
}

func (i *Interceptor) block(ctx context.Context, req Request, query string, cfg settings.Settings, reason, message string, score float64) Verdict {
	metrics.QueriesTotal.WithLabelValues("block").Inc()
	metrics.BlockedTotal.WithLabelValues(reason).Inc()

	event := &auditlog.BlockEvent{
		SearchTerm: query,
		Reason:     reason,
		ClientIP:   req.ClientIP,
	}
	if err := i.recorder.Record(ctx, event); err != nil {
		metrics.AuditWriteFailures.Inc()
		log.Printf("[intercept] record block event failed (request=%s reason=%s): %v", req.RequestID, reason, err)
	}

	i.notify(req, query, reason, score)

	return Verdict{
		Allowed:     false,
		Reason:      reason,
		Message:     message,
		RedirectURL: cfg.BlockRedirectURL,
		Score:       score,
	}
}

// notify publishes the block event to NATS, best-effort.
func (i *Interceptor) notify(req Request, query, reason string, score float64) {
	if i.notifier == nil {
		return
	}

	data, err := json.Marshal(blockedPayload{
		RequestID:  req.RequestID,
		SearchTerm: query,
		Reason:     reason,
		ClientIP:   req.ClientIP,
		Score:      score,
		Ts:         time.Now().Unix(),
	})
	if err != nil {
		log.Printf("[intercept] marshal block notification: %v", err)
		return
	}
	if err := i.notifier.PublishBlockEvent(data); err != nil {
		log.Printf("[intercept] publish block notification: %v", err)
	}
}

// blockedPayload mirrors messaging.BlockedMsg without importing the NATS
// package into the pipeline core.
type blockedPayload struct {
	RequestID  string  `json:"request_id"`
	SearchTerm string  `json:"search_term"`
	Reason     string  `json:"reason"`
	ClientIP   string  `json:"client_ip"`
	Score      float64 `json:"score,omitempty"`
	Ts         int64   `json:"ts"`
}
