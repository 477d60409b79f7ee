// Package errorsx attaches machine-readable reason codes to runtime errors.
package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	// ReasonFatalInit marks missing credentials, models, or devices at startup.
	ReasonFatalInit     ReasonCode = "fatal_init"
	ReasonConfigInvalid ReasonCode = "config_invalid"

	ReasonCaptureOverrun    ReasonCode = "capture_overrun"
	ReasonCaptureDeviceLost ReasonCode = "capture_device_lost"

	ReasonSTTFailure      ReasonCode = "stt_failure"
	ReasonDialogueFailure ReasonCode = "dialogue_failure"
	ReasonTTSFailure      ReasonCode = "tts_failure"
	ReasonPlaybackFailure ReasonCode = "playback_failure"
)

// Fatal reports whether a reason must abort startup.
func (r ReasonCode) Fatal() bool {
	return r == ReasonFatalInit || r == ReasonConfigInvalid
}

// Recoverable reports whether a reason describes a capture fault the loop retries.
func (r ReasonCode) Recoverable() bool {
	return r == ReasonCaptureOverrun || r == ReasonCaptureDeviceLost
}
