package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"

	"github.com/Lllllllleong/documentscanflow/internal/models"
	"github.com/Lllllllleong/documentscanflow/internal/pipeline"
)

// WorkflowNotifier starts a Cloud Workflows execution for every saved
// document, e.g. to index or archive it.
type WorkflowNotifier struct {
	client *executions.Client
	parent string
}

var _ pipeline.SaveObserver = (*WorkflowNotifier)(nil)

func NewWorkflowNotifier(ctx context.Context, projectID, location, workflowID string) (*WorkflowNotifier, error) {
	if projectID == "" || workflowID == "" {
		return nil, fmt.Errorf("NewWorkflowNotifier: projectID and workflowID cannot be empty")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowNotifier{
		client: client,
		parent: WorkflowParent(projectID, location, workflowID),
	}, nil
}

// WorkflowParent is the resource name executions are created under.
func WorkflowParent(projectID, location, workflowID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID)
}

// SavedPayload is the workflow argument for a saved document.
type SavedPayload struct {
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
	PageCount  int    `json:"pageCount"`
	HasText    bool   `json:"hasText"`
}

func NewSavedPayload(doc models.Document) SavedPayload {
	p := SavedPayload{DocumentID: doc.ID, Name: doc.Name, PageCount: len(doc.Pages)}
	for _, page := range doc.Pages {
		if page.OCRText != "" {
			p.HasText = true
		}
	}
	return p
}

func (n *WorkflowNotifier) DocumentSaved(ctx context.Context, doc models.Document) error {
	payloadBytes, err := json.Marshal(NewSavedPayload(doc))
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: n.parent,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	exec, err := n.client.CreateExecution(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	slog.Info("Workflow triggered.", "documentId", doc.ID, "execution", exec.GetName())
	return nil
}

func (n *WorkflowNotifier) Close() error {
	return n.client.Close()
}
