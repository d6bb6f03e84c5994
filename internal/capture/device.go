package capture

// DeviceKind classifies camera/microphone acquisition failures into
// the categories the UI knows how to explain.
type DeviceKind string

const (
	DevicePermissionDenied DeviceKind = "permission_denied"
	DeviceNotFound         DeviceKind = "no_device"
	DeviceBusy             DeviceKind = "device_busy"
	DeviceDismissed        DeviceKind = "dismissed"
	DeviceUnknown          DeviceKind = "unknown"
)

// DeviceFailure is one classified acquisition failure. Acquisition is
// always re-attemptable, so every failure carries a retry affordance.
type DeviceFailure struct {
	Kind      DeviceKind `json:"kind"`
	Message   string     `json:"message"`
	Retryable bool       `json:"retryable"`
}

// ClassifyDeviceError maps a getUserMedia error name to its failure
// category. Unrecognized names fall through to DeviceUnknown.
func ClassifyDeviceError(name, detail string) DeviceFailure {
	switch name {
	case "NotAllowedError", "PermissionDeniedError", "SecurityError":
		return DeviceFailure{
			Kind:      DevicePermissionDenied,
			Message:   "Camera access was denied. Allow camera and microphone access for this app and try again.",
			Retryable: true,
		}
	case "NotFoundError", "DevicesNotFoundError", "OverconstrainedError":
		return DeviceFailure{
			Kind:      DeviceNotFound,
			Message:   "No camera was found. Connect a camera and try again.",
			Retryable: true,
		}
	case "NotReadableError", "TrackStartError":
		return DeviceFailure{
			Kind:      DeviceBusy,
			Message:   "The camera is in use by another application. Close it and try again.",
			Retryable: true,
		}
	case "AbortError":
		return DeviceFailure{
			Kind:      DeviceDismissed,
			Message:   "The camera request was dismissed. Try again when you are ready.",
			Retryable: true,
		}
	default:
		message := "Could not start the camera."
		if detail != "" {
			message = "Could not start the camera: " + detail
		}
		return DeviceFailure{
			Kind:      DeviceUnknown,
			Message:   message,
			Retryable: true,
		}
	}
}
