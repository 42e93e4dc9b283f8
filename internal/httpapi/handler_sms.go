package httpapi

import (
	"net/http"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/httpresponse"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/sms"
)

// previewSMS renders a named template against caller-supplied variables
// without sending anything, so a client can show the exact message and
// length before committing to dispatch.
func (s *Server) previewSMS(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Template string            `json:"template"`
		Data     map[string]string `json:"data"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpresponse.Error(w, r, err)
		return
	}

	rendered, err := sms.Render(payload.Template, payload.Data)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.OK(w, rendered)
}
