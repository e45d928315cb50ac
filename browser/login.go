package browser

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/brightscrape/models"
)

// Login form selectors. The portal's login page is a plain credential form;
// the submit button has no stable id, only its label.
const (
	usernameSel      = "#username"
	passwordSel      = "#password"
	loginButtonXPath = `//button[@type='submit' and text()='LOG IN']`
)

// Login submits the portal's credential form and waits for the session
// handshake to settle. On success the page carries an authenticated
// session; nothing is returned beyond that.
func (s *Session) Login(ctx context.Context) error {
	p := s.page.Context(ctx).Timeout(s.wait)

	if err := p.Navigate(s.portal.LoginURL); err != nil {
		return models.NewScrapeError(models.ErrCodeNavigation, "failed to open login page", err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("login page DOM did not converge, proceeding", "error", err)
	}

	user, err := p.Element(usernameSel)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeAuthFailed, "username field not found", err)
	}
	if err := user.Input(s.portal.Username); err != nil {
		return models.NewScrapeError(models.ErrCodeAuthFailed, "failed to fill username", err)
	}

	pass, err := p.Element(passwordSel)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeAuthFailed, "password field not found", err)
	}
	if err := pass.Input(s.portal.Password); err != nil {
		return models.NewScrapeError(models.ErrCodeAuthFailed, "failed to fill password", err)
	}

	// Tab out of the password field so the form's client-side validation
	// fires before submit.
	if err := p.Keyboard.Press(input.Tab); err != nil {
		slog.Debug("tab press failed, submitting anyway", "error", err)
	}

	btn, err := p.ElementX(loginButtonXPath)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeAuthFailed, "login button not found", err)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return models.NewScrapeError(models.ErrCodeAuthFailed, "login submit failed", err)
	}

	s.settle(ctx, s.portal.LoginSettle)
	if err := ctx.Err(); err != nil {
		return models.NewScrapeError(models.ErrCodeTimeout, "login cancelled", err)
	}

	slog.Info("login submitted", "user", s.portal.Username)
	return nil
}
