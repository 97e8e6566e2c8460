package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/documentscanflow/internal/models"
	"github.com/Lllllllleong/documentscanflow/internal/services"
)

var (
	libraryInstance *services.LibraryFunction
	once            sync.Once
	initErr         error
)

func init() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	functions.HTTP("HandleLibrary", handleLibrary)
}

// main is required by the Go Functions Framework.
func main() {}

// handleLibrary lists documents on GET and POST and deletes ?id= on DELETE.
func handleLibrary(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		libraryInstance, initErr = services.NewLibrary(context.Background())
	})
	if initErr != nil {
		slog.Error("Library initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var (
		res any
		err error
	)
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		res, err = libraryInstance.List(r.Context(), &models.LibraryListRequest{Search: q.Get("search"), SortBy: q.Get("sortBy")})
	case http.MethodPost:
		var req models.LibraryListRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			slog.Error("Could not decode request body", "error", err)
			http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
			return
		}
		res, err = libraryInstance.List(r.Context(), &req)
	case http.MethodDelete:
		res, err = libraryInstance.Delete(r.Context(), r.URL.Query().Get("id"))
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		code := services.StatusCode(err)
		msg := http.StatusText(code)
		if code != http.StatusInternalServerError {
			msg += ": " + err.Error()
		}
		http.Error(w, msg, code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
