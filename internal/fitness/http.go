package fitness

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/dstojkovic/fitlog/pkg"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

// WriteValidationErrors writes the standard 400 payload with a
// field-by-field report of what was wrong.
func WriteValidationErrors(w http.ResponseWriter, ve ValidationErrors) {
	respBytes, err := json.Marshal(ValidationErrorResponse{
		Error:   "invalid data",
		Details: ve,
	})
	if err != nil {
		log.Errorf("marshal validation errors: %s", err)
		http.Error(w, "invalid data", http.StatusBadRequest)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, http.StatusBadRequest)
}
