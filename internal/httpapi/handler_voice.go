package httpapi

import (
	"net/http"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/httpresponse"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/voice"
)

// parseVoice turns a transcribed utterance into a structured finding.
// Stateless and pure: no inspection is loaded or mutated here, the
// caller applies the result via updateItem separately.
func (s *Server) parseVoice(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.OK(w, voice.Parse(payload.Text))
}
