package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/time/rate"

	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
	"github.com/rehmanul/BOT-Friday-sub000/internal/events"
	"github.com/rehmanul/BOT-Friday-sub000/internal/outreach"
)

const portalBase = "https://affiliate.tiktok.com"

// SessionStore loads and saves the portal cookie jar for a user.
type SessionStore interface {
	GetPortalSession(ctx context.Context, userID uint64) (*campaign.PortalSession, error)
	SavePortalSession(ctx context.Context, s *campaign.PortalSession) error
}

type Options struct {
	UserID   uint64
	Headless bool
	// Minimum spacing between portal page actions. Defaults to 2s.
	ActionEvery time.Duration
}

// TikTok drives the affiliate portal through a real browser. One instance
// owns one logged-in portal session; the outreach core only sees Send.
type TikTok struct {
	browser  *rod.Browser
	sessions SessionStore
	notifier events.Notifier
	log      *slog.Logger
	userID   uint64

	// Paces raw page actions against the portal, independent of the domain
	// quota windows the limiter enforces.
	pacer *rate.Limiter
}

func NewTikTok(ctx context.Context, opts Options, sessions SessionStore, notifier events.Notifier, log *slog.Logger) (*TikTok, error) {
	if log == nil {
		log = slog.Default()
	}
	if notifier == nil {
		notifier = events.Nop{}
	}
	every := opts.ActionEvery
	if every <= 0 {
		every = 2 * time.Second
	}

	// Leakless off to avoid AV false positives on Windows hosts.
	l := launcher.New().Leakless(false).Headless(opts.Headless)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting browser: %w", err)
	}

	t := &TikTok{
		browser:  browser,
		sessions: sessions,
		notifier: notifier,
		log:      log.With("module", "sender"),
		userID:   opts.UserID,
		pacer:    rate.NewLimiter(rate.Every(every), 1),
	}
	if err := t.restoreSession(ctx); err != nil {
		browser.Close()
		return nil, err
	}
	return t, nil
}

func (t *TikTok) Close() { _ = t.browser.Close() }

// restoreSession loads stored cookies into the browser and validates them
// against the portal. A missing or expired session is an unauthenticated
// condition; the operator has to log in through the dashboard flow first.
func (t *TikTok) restoreSession(ctx context.Context) error {
	sess, err := t.sessions.GetPortalSession(ctx, t.userID)
	if err != nil {
		return outreach.NewSendError(outreach.KindUnauthenticated, "no portal session", err)
	}

	var cookies []*proto.NetworkCookieParam
	if err := json.Unmarshal(sess.Cookies, &cookies); err != nil {
		return outreach.NewSendError(outreach.KindUnauthenticated, "corrupt portal session", err)
	}
	if err := t.browser.SetCookies(cookies); err != nil {
		return fmt.Errorf("installing cookies: %w", err)
	}

	page, err := t.browser.Page(proto.TargetCreateTarget{URL: portalBase + "/connection"})
	if err != nil {
		return fmt.Errorf("opening portal: %w", err)
	}
	defer page.Close()
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("loading portal: %w", err)
	}

	info, err := page.Info()
	if err != nil {
		return fmt.Errorf("reading portal page: %w", err)
	}
	if strings.Contains(info.URL, "/login") {
		return outreach.NewSendError(outreach.KindUnauthenticated, "portal session expired", nil)
	}

	now := time.Now()
	sess.ValidatedAt = &now
	if err := t.sessions.SavePortalSession(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	t.notifier.Notify(t.userID, events.Event{
		Type:    campaign.LogSessionRefreshed,
		UserID:  t.userID,
		Message: "portal session validated",
		At:      now,
	})
	t.log.Info("portal session restored", "user_id", t.userID)
	return nil
}

// Send opens the creator's connection page and submits the invitation
// message. Failures are classified at this boundary: a login redirect is
// unauthenticated, an unknown handle is permanent, everything else transient.
func (t *TikTok) Send(ctx context.Context, creatorHandle, message string) error {
	if err := t.pacer.Wait(ctx); err != nil {
		return err
	}

	target := portalBase + "/connection/creator?handle=" + url.QueryEscape(creatorHandle)
	page, err := t.browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return outreach.NewSendError(outreach.KindTransient, "opening creator page", err)
	}
	defer page.Close()
	page = page.Context(ctx)
	if err := page.WaitLoad(); err != nil {
		return outreach.NewSendError(outreach.KindTransient, "loading creator page", err)
	}

	info, err := page.Info()
	if err != nil {
		return outreach.NewSendError(outreach.KindTransient, "reading creator page", err)
	}
	if strings.Contains(info.URL, "/login") {
		return outreach.NewSendError(outreach.KindUnauthenticated, "portal session expired", nil)
	}
	if has, _, _ := page.Has(`div[data-e2e="creator-not-found"]`); has {
		return outreach.NewSendError(outreach.KindPermanent, "creator not found on portal", nil)
	}

	sleepRandom(800, 2200)

	msgBtn, err := page.Timeout(10 * time.Second).Element(`button[data-e2e="message-creator"]`)
	if err != nil {
		return outreach.NewSendError(outreach.KindTransient, "message button not found", err)
	}
	if err := clickHumanLike(msgBtn); err != nil {
		return outreach.NewSendError(outreach.KindTransient, "clicking message button", err)
	}

	input, err := page.Timeout(10 * time.Second).Element(`textarea[data-e2e="message-input"]`)
	if err != nil {
		return outreach.NewSendError(outreach.KindTransient, "message input not found", err)
	}
	if err := typeHumanLike(input, message); err != nil {
		return outreach.NewSendError(outreach.KindTransient, "typing message", err)
	}

	sleepRandom(400, 1100)

	sendBtn, err := page.Timeout(10 * time.Second).Element(`button[data-e2e="message-send"]`)
	if err != nil {
		return outreach.NewSendError(outreach.KindTransient, "send button not found", err)
	}
	if err := clickHumanLike(sendBtn); err != nil {
		return outreach.NewSendError(outreach.KindTransient, "clicking send", err)
	}

	t.log.Info("portal message sent", "creator", creatorHandle)
	return nil
}
