package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/documentscanflow/internal/models"
	"github.com/Lllllllleong/documentscanflow/internal/services"
)

var (
	exportInstance *services.ExportFunction
	once           sync.Once
	initErr        error
)

func init() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	functions.HTTP("HandleExportDocument", handleExportDocument)
}

// main is required by the Go Functions Framework.
func main() {}

func handleExportDocument(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		exportInstance, initErr = services.NewExport(context.Background())
	})
	if initErr != nil {
		slog.Error("Export initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := exportInstance.Process(r.Context(), &req)
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
