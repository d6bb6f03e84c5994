package capture

import "testing"

// TestClassifyDeviceError maps getUserMedia error names to categories.
func TestClassifyDeviceError(t *testing.T) {
	cases := []struct {
		name string
		want DeviceKind
	}{
		{"NotAllowedError", DevicePermissionDenied},
		{"PermissionDeniedError", DevicePermissionDenied},
		{"SecurityError", DevicePermissionDenied},
		{"NotFoundError", DeviceNotFound},
		{"DevicesNotFoundError", DeviceNotFound},
		{"OverconstrainedError", DeviceNotFound},
		{"NotReadableError", DeviceBusy},
		{"TrackStartError", DeviceBusy},
		{"AbortError", DeviceDismissed},
		{"SomethingNew", DeviceUnknown},
		{"", DeviceUnknown},
	}

	for _, tc := range cases {
		got := ClassifyDeviceError(tc.name, "")
		if got.Kind != tc.want {
			t.Fatalf("ClassifyDeviceError(%q) kind = %s, want %s", tc.name, got.Kind, tc.want)
		}
		if got.Message == "" {
			t.Fatalf("ClassifyDeviceError(%q) has empty message", tc.name)
		}
		if !got.Retryable {
			t.Fatalf("ClassifyDeviceError(%q) must offer retry", tc.name)
		}
	}
}

// TestClassifyDeviceErrorMessagesDistinct keeps each category's
// user-facing message unique.
func TestClassifyDeviceErrorMessagesDistinct(t *testing.T) {
	names := []string{"NotAllowedError", "NotFoundError", "NotReadableError", "AbortError", "Other"}
	seen := make(map[string]string, len(names))

	for _, name := range names {
		failure := ClassifyDeviceError(name, "")
		if prior, ok := seen[failure.Message]; ok {
			t.Fatalf("message for %s duplicates %s: %q", name, prior, failure.Message)
		}
		seen[failure.Message] = name
	}
}
