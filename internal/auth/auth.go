// Package auth detects third-party sign-in walls and waits for a human to get
// through them in the visible browser window. It never types credentials.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrTimeout is returned when the user did not finish signing in in time.
var ErrTimeout = errors.New("auth: sign-in not completed in time")

const googleAccountsHost = "accounts.google.com"

var signInIndicators = []string{"sign in", "login", "log in", "signin", "account"}

var googleSelectors = []string{
	`a[href*="accounts.google.com"]`,
	`button[data-provider="google"]`,
	`.google-signin`,
	`[aria-label*="Google"]`,
	`button[id*="google"]`,
}

var googleButtonTexts = []string{"Google", "Sign in with Google", "Continue with Google"}

// Page is the slice of the browser the handler needs.
type Page interface {
	Exists(ctx context.Context, selector string) (bool, error)
	ExistsText(ctx context.Context, selector, text string) (bool, error)
	CurrentURL(ctx context.Context) (string, error)
	Wait(ctx context.Context, d time.Duration) error
}

// Options bounds the waits of AwaitCompletion.
type Options struct {
	// ClickTimeout is how long to wait for the user to start the sign-in.
	ClickTimeout time.Duration
	// Timeout is how long to wait for the return from the provider.
	Timeout time.Duration
	// Fallback is the extra wait before the single re-check after Timeout.
	Fallback time.Duration
	// Settle is the pause after returning to the application.
	Settle time.Duration
	Poll   time.Duration
}

// DefaultOptions returns the waits used against live sites.
func DefaultOptions() Options {
	return Options{
		ClickTimeout: 2 * time.Minute,
		Timeout:      5 * time.Minute,
		Fallback:     30 * time.Second,
		Settle:       3 * time.Second,
		Poll:         time.Second,
	}
}

// Handler detects Google sign-in controls and waits for manual completion.
type Handler struct {
	page   Page
	opts   Options
	logger *zap.Logger
}

// NewHandler creates a handler over page.
func NewHandler(page Page, opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Poll <= 0 {
		opts.Poll = time.Second
	}
	return &Handler{page: page, opts: opts, logger: logger.Named("auth")}
}

// LooksLikeSignIn reports whether a page title or URL suggests a sign-in page.
func LooksLikeSignIn(title, url string) bool {
	title, url = strings.ToLower(title), strings.ToLower(url)
	for _, ind := range signInIndicators {
		if strings.Contains(title, ind) || strings.Contains(url, ind) {
			return true
		}
	}
	return false
}

// Detect reports whether the page offers a Google sign-in control.
func (h *Handler) Detect(ctx context.Context) bool {
	for _, sel := range googleSelectors {
		if ok, err := h.page.Exists(ctx, sel); err == nil && ok {
			h.logger.Info("Found Google sign-in", zap.String("selector", sel))
			return true
		}
	}
	for _, text := range googleButtonTexts {
		if ok, err := h.page.ExistsText(ctx, "button", text); err == nil && ok {
			h.logger.Info("Found Google sign-in", zap.String("button_text", text))
			return true
		}
	}
	return false
}

// AwaitCompletion waits for the user to leave the current page, then for the
// browser to come back from the Google accounts host. It returns ErrTimeout
// when either wait runs out.
func (h *Handler) AwaitCompletion(ctx context.Context) error {
	start, err := h.page.CurrentURL(ctx)
	if err != nil {
		return err
	}
	h.logger.Warn("Google sign-in required, complete it in the browser window")

	left, err := h.pollUntil(ctx, h.opts.ClickTimeout, func(url string) bool { return url != start })
	if err != nil {
		return err
	}
	if !left {
		return ErrTimeout
	}
	h.logger.Info("Sign-in started, waiting for return to the application")

	back, err := h.pollUntil(ctx, h.opts.Timeout, offProvider)
	if err != nil {
		return err
	}
	if back {
		return h.page.Wait(ctx, h.opts.Settle)
	}

	h.logger.Warn("Sign-in still pending, waiting once more", zap.Duration("fallback", h.opts.Fallback))
	if err := h.page.Wait(ctx, h.opts.Fallback); err != nil {
		return err
	}
	url, err := h.page.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if !offProvider(url) {
		return ErrTimeout
	}
	return nil
}

// pollUntil checks cond every poll interval for at most timeout.
func (h *Handler) pollUntil(ctx context.Context, timeout time.Duration, cond func(url string) bool) (bool, error) {
	for waited := time.Duration(0); ; waited += h.opts.Poll {
		url, err := h.page.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		if cond(url) {
			return true, nil
		}
		if waited >= timeout {
			return false, nil
		}
		if err := h.page.Wait(ctx, h.opts.Poll); err != nil {
			return false, err
		}
	}
}

func offProvider(url string) bool {
	return !strings.Contains(url, googleAccountsHost)
}
