package stubgateway

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	graphql "github.com/graph-gophers/graphql-go"
)

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func NewRouter(store *Store, allowedOrigin string, logger *log.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(CORSMiddleware(allowedOrigin))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Post("/graphql", GraphQL(NewSchema(store), logger))

	return r
}

// GraphQL executes one request document against the schema. Query, field
// and variable errors are reported in the response body with a 200 status.
func GraphQL(schema *graphql.Schema, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Warn("failed to decode graphql request", "err", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		resp := schema.Exec(r.Context(), req.Query, req.OperationName, req.Variables)
		if len(resp.Errors) > 0 {
			for _, qerr := range resp.Errors {
				logger.Warn("operation failed", "operation", req.OperationName, "err", qerr.Message)
			}
		} else {
			logger.Info("operation served", "operation", req.OperationName)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to encode graphql response", "err", err)
		}
	}
}
