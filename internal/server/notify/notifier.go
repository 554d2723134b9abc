// Package notify delivers password-reset codes to users out of band.
package notify

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

const (
	resetSubject = "Forgot Password"
	resetBody    = "Your confirmation code: %s"
)

// Notifier sends a reset code to an email address. Implementations must not
// log the code.
type Notifier interface {
	SendResetCode(ctx context.Context, email, code string) error
}

// LogNotifier only records that a code was issued. It is meant for local
// development where no mail server is available.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notify")}
}

func (n *LogNotifier) SendResetCode(ctx context.Context, email, code string) error {
	n.logger.Info(ctx, "reset code issued, mail delivery disabled", "email", email, "code_length", len(code))
	return nil
}

func resetText(code string) string {
	return fmt.Sprintf(resetBody, code)
}
