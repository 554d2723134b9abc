package cli

import "fmt"

// getStatus renders the prompt prefix, e.g. "(alice@x.io online)".
func (a *App) getStatus() string {
	s := ""
	if a.email != "" && a.isSignedIn() {
		s = a.email + " "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}
