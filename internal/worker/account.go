package worker

import (
	"context"
	"fmt"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/metrics"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/mtgahelper"
)

// Login signs in to MTGA Helper. The session cookie is kept by the client and
// reused by the template sync and the uploads.
func (w *Worker) Login(username, password string) {
	w.post(func(ctx context.Context) {
		if username == "" || password == "" {
			w.loginFailed(ctx, mtgahelper.ErrMissingCredentials)
			return
		}
		if w.faults.Active(FaultLogin) {
			w.loginFailed(ctx, ErrInjectedFault)
			return
		}

		w.async(ctx, func(ctx context.Context) func(context.Context) {
			err := w.timed(metrics.MTGAHelper, func() error {
				return w.mtgahelper.SignIn(ctx, username, password)
			})
			return func(ctx context.Context) {
				if err != nil {
					w.loginFailed(ctx, err)
					return
				}
				w.logger.Info("Logged in", "username", username)
				w.emit(ctx, events.LoggedIn, events.LoggedInEvent{Username: username})
			}
		})
	})
}

func (w *Worker) loginFailed(ctx context.Context, err error) {
	message := fmt.Sprintf("Login failed: %s", err)
	w.logger.Warn("Stage failed", "signal", events.LoginFailed, "error", err)
	w.emit(ctx, events.LoginFailed, events.FailureEvent{Error: message})
}

// Logout signs out of MTGA Helper.
func (w *Worker) Logout() {
	w.post(func(ctx context.Context) {
		w.async(ctx, func(ctx context.Context) func(context.Context) {
			err := w.timed(metrics.MTGAHelper, func() error {
				return w.mtgahelper.SignOut(ctx)
			})
			return func(ctx context.Context) {
				if err != nil {
					w.fail(ctx, events.LogoutFailed, fmt.Errorf("logout failed: %w", err))
					return
				}
				w.logger.Info("Logged out")
				w.emit(ctx, events.LoggedOut, events.LoggedOutEvent{})
			}
		})
	})
}
