//go:build !unix

package application

// NewHangupTrigger reports false: there is no hangup signal on this platform,
// so content is only reloaded by restarting the process.
func NewHangupTrigger() (Trigger, bool) {
	return nil, false
}
