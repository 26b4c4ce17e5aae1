package http

import (
	"encoding/json"
	"net/http"

	"dex-quiz-service/internal/app"
)

// RegionsHandler lists the selectable regions as JSON.
func RegionsHandler(service *app.QuizService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(service.Regions())
	}
}
