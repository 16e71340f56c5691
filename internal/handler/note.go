package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stuffmd/backend/internal/adapter"
	"github.com/stuffmd/backend/internal/classifier"
	"github.com/stuffmd/backend/internal/notes"
)

// NoteHandler handles note capture, listing and editing.
type NoteHandler struct {
	storageProvider adapter.StorageProvider
	classifier      classifier.Classifier
	collections     *notes.CollectionStore
	jwtSecret       string
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(provider adapter.StorageProvider, cls classifier.Classifier, collections *notes.CollectionStore, jwtSecret string) *NoteHandler {
	return &NoteHandler{
		storageProvider: provider,
		classifier:      cls,
		collections:     collections,
		jwtSecret:       jwtSecret,
	}
}

// getService builds a notes.Service and the collection for the authenticated user.
func (h *NoteHandler) getService(ctx context.Context, req events.APIGatewayProxyRequest) (*notes.Service, *notes.Collection, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return nil, nil, fmt.Errorf("unauthorized: %w", err)
	}

	storage, err := h.storageProvider.GetAdapter(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get storage adapter: %w", err)
	}

	return notes.NewService(storage, h.classifier, ""), h.collections.Get(userID), nil
}

// ListNotes rebuilds the note collection from the remote store and returns it.
// An optional ?tag= query filters the response to notes carrying that tag.
func (h *NoteHandler) ListNotes(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	svc, col, err := h.getService(ctx, req)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}, nil
	}

	list, err := svc.List(ctx)
	if err != nil {
		fmt.Printf("List error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: fmt.Sprintf("Failed to list notes: %v", err)}, nil
	}
	col.Hydrate(list)

	result := list
	if tag := req.QueryStringParameters["tag"]; tag != "" {
		result = col.FilterByTag(tag)
	}
	if result == nil {
		result = []notes.Note{}
	}

	body, _ := json.Marshal(result)
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

// CreateNote classifies and stores a new note.
func (h *NoteHandler) CreateNote(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	svc, col, err := h.getService(ctx, req)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}, nil
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(req.Body), &input); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Invalid request body"}, nil
	}
	if input.Content == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Note content is required"}, nil
	}

	note, feedback, err := svc.Create(ctx, input.Content)
	if err != nil {
		fmt.Printf("Create error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: fmt.Sprintf("Failed to save note: %v", err)}, nil
	}
	col.Insert(*note)

	resp := struct {
		Note     *notes.Note `json:"note"`
		Feedback string      `json:"feedback"`
	}{Note: note, Feedback: feedback}

	body, _ := json.Marshal(resp)
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusCreated,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

// EditNote re-classifies and overwrites an existing note. Unlike CreateNote,
// a classifier failure aborts the edit.
func (h *NoteHandler) EditNote(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	svc, col, err := h.getService(ctx, req)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}, nil
	}

	id := req.PathParameters["id"]
	if id == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing note ID"}, nil
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(req.Body), &input); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Invalid request body"}, nil
	}

	note, err := svc.Edit(ctx, col, id, input.Content)
	if err != nil {
		if errors.Is(err, notes.ErrNoteNotFound) {
			return events.APIGatewayProxyResponse{StatusCode: http.StatusNotFound, Body: "Note not found"}, nil
		}
		if errors.Is(err, notes.ErrClassification) {
			return events.APIGatewayProxyResponse{StatusCode: http.StatusBadGateway, Body: "Failed to update note. Please try again."}, nil
		}
		fmt.Printf("Edit error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: fmt.Sprintf("Failed to update note: %v", err)}, nil
	}

	body, _ := json.Marshal(note)
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

// DeleteNote deletes a note from the remote store and the collection.
func (h *NoteHandler) DeleteNote(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	svc, col, err := h.getService(ctx, req)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}, nil
	}

	id := req.PathParameters["id"]
	if id == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing note ID"}, nil
	}

	if err := svc.Delete(ctx, col, id); err != nil {
		if errors.Is(err, adapter.ErrNotFound) {
			return events.APIGatewayProxyResponse{StatusCode: http.StatusNotFound, Body: "Note not found"}, nil
		}
		fmt.Printf("Delete error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: fmt.Sprintf("Failed to delete note: %v", err)}, nil
	}

	return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}, nil
}

// DeleteTag removes a single tag from a note in the collection.
func (h *NoteHandler) DeleteTag(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	_, col, err := h.getService(ctx, req)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}, nil
	}

	id := req.PathParameters["id"]
	tag, _ := url.PathUnescape(req.PathParameters["tag"])
	if id == "" || tag == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing note ID or tag"}, nil
	}

	note, ok := col.RemoveTag(id, tag)
	if !ok {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNotFound, Body: "Note not found"}, nil
	}

	body, _ := json.Marshal(note)
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

// DeleteCategory removes every note filed exactly under the given category
// path from the collection.
func (h *NoteHandler) DeleteCategory(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	_, col, err := h.getService(ctx, req)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}, nil
	}

	path, _ := url.PathUnescape(req.PathParameters["path"])
	if path == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing category path"}, nil
	}

	deleted := col.DeleteCategory(path)

	body, _ := json.Marshal(map[string]int{"deleted": deleted})
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}
