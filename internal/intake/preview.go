package intake

import (
	"bytes"
	"net/http"
	"strings"
	"time"
)

// PreviewPrefix is the asset-server path under which the staged clip
// is served to the webview's video element.
const PreviewPrefix = "/preview/"

// ServeHTTP serves the staged clip at its tokened preview URL. A stale
// or unknown token yields 404, which is how revocation manifests to
// the webview.
func (i *Intake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.URL.Path, PreviewPrefix)

	i.mu.RLock()
	video := i.video
	current := i.token
	i.mu.RUnlock()

	if !ok || token == "" || video == nil || token != current {
		http.NotFound(w, r)
		return
	}

	// ServeContent keeps the Content-Type set here and handles the
	// range requests video elements issue while scrubbing.
	w.Header().Set("Content-Type", video.MIMEType)
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(video.Data))
}
