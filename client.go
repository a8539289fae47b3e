package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// RoomStorageLimit is the per-room cap enforced client-side before an upload
// as a courtesy; the server is authoritative.
const RoomStorageLimit = 10 << 20

// Client talks to the chat application backend. Each generation call is
// tagged with a monotonically increasing token from its own generator's
// sequence, so a response that resolves after a newer request of the same
// kind was issued can be recognized as stale and discarded. Generators never
// supersede each other: a narrative request leaves an in-flight flashcards
// request live.
type Client struct {
	baseURL string
	csrf    string
	http    *http.Client

	mapTokens  tokenSource
	cardTokens tokenSource
	narTokens  tokenSource
}

func NewClient(baseURL, csrfToken string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		csrf:    csrfToken,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// tokenSource issues request tokens for one generator. The newest issued
// token always wins.
type tokenSource struct {
	seq atomic.Uint64
}

func (t *tokenSource) next() uint64        { return t.seq.Add(1) }
func (t *tokenSource) stale(v uint64) bool { return v != t.seq.Load() }

// StaleMindMap reports whether a mind-map response tagged with token has
// been superseded by a newer mind-map request.
func (c *Client) StaleMindMap(token uint64) bool { return c.mapTokens.stale(token) }

// StaleFlashcards is StaleMindMap for the flashcards generator.
func (c *Client) StaleFlashcards(token uint64) bool { return c.cardTokens.stale(token) }

// StaleNarrative is StaleMindMap for the narrative generator.
func (c *Client) StaleNarrative(token uint64) bool { return c.narTokens.stale(token) }

// AbandonMindMap supersedes any in-flight mind-map request without issuing a
// new one; its response will arrive stale.
func (c *Client) AbandonMindMap() { c.mapTokens.next() }

// MindMapRequest is the body of POST /api/mindmap/generate.
type MindMapRequest struct {
	ChatID        string   `json:"chat_id"`
	ContextMode   string   `json:"context_mode"`
	Size          string   `json:"size"`
	LibraryDocIDs []string `json:"library_doc_ids"`
	Instructions  string   `json:"instructions"`
}

type mindMapResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	Size        string `json:"size,omitempty"`
	ContextMode string `json:"context_mode,omitempty"`
	MindMap     struct {
		MindMapData json.RawMessage `json:"mind_map_data"`
	} `json:"mind_map"`
}

// GeneratedMap is a parsed generation result plus the raw payload, which is
// what gets stored in history and fed to the headless commands.
type GeneratedMap struct {
	Tree        *MindMapNode
	Raw         json.RawMessage
	Size        string
	ContextMode string
}

// GenerateMindMap requests a new mind map. The returned token identifies
// this request; callers must drop the result if StaleMindMap(token) by the
// time it resolves.
func (c *Client) GenerateMindMap(ctx context.Context, req MindMapRequest) (*GeneratedMap, uint64, error) {
	token := c.mapTokens.next()
	if err := validateGenerateRequest(req.ChatID); err != nil {
		return nil, token, err
	}
	var resp mindMapResponse
	if err := c.postJSON(ctx, "/api/mindmap/generate", req, &resp); err != nil {
		return nil, token, err
	}
	if !resp.Success {
		return nil, token, &BackendError{Endpoint: "/api/mindmap/generate", Msg: orDefault(resp.Error, "generation failed")}
	}
	tree, err := ParseMindMap(resp.MindMap.MindMapData)
	if err != nil {
		return nil, token, err
	}
	return &GeneratedMap{
		Tree:        tree,
		Raw:         resp.MindMap.MindMapData,
		Size:        resp.Size,
		ContextMode: resp.ContextMode,
	}, token, nil
}

// Flashcard is one generated card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
	Hash  string `json:"hash"`
}

// FlashcardRequest is the body of POST /api/flashcards/generate.
type FlashcardRequest struct {
	ChatID        string   `json:"chat_id"`
	ContextMode   string   `json:"context_mode"`
	LibraryDocIDs []string `json:"library_doc_ids"`
	DisplayMode   string   `json:"display_mode"`
	GridSize      string   `json:"grid_size"`
	CardCount     int      `json:"card_count"`
	Instructions  string   `json:"instructions"`
}

// FlashcardResult carries the generated cards or the backend's explanation
// of why the chat had too little context to generate any.
type FlashcardResult struct {
	Cards               []Flashcard
	InsufficientContext bool
	Message             string
}

type flashcardResponse struct {
	Status  string      `json:"status"`
	Cards   []Flashcard `json:"cards"`
	Message string      `json:"message,omitempty"`
}

func (c *Client) GenerateFlashcards(ctx context.Context, req FlashcardRequest) (*FlashcardResult, uint64, error) {
	token := c.cardTokens.next()
	if err := validateGenerateRequest(req.ChatID); err != nil {
		return nil, token, err
	}
	var resp flashcardResponse
	if err := c.postJSON(ctx, "/api/flashcards/generate", req, &resp); err != nil {
		return nil, token, err
	}
	switch resp.Status {
	case "ok":
		return &FlashcardResult{Cards: resp.Cards}, token, nil
	case "insufficient_context":
		return &FlashcardResult{InsufficientContext: true, Message: resp.Message}, token, nil
	default:
		return nil, token, &BackendError{Endpoint: "/api/flashcards/generate", Msg: fmt.Sprintf("unexpected status %q", resp.Status)}
	}
}

// NarrativeRequest is the body of POST /api/narrative/generate.
type NarrativeRequest struct {
	ChatID        string   `json:"chat_id"`
	ContextMode   string   `json:"context_mode"`
	LibraryDocIDs []string `json:"library_doc_ids"`
	NarrativeType string   `json:"narrative_type"`
	Complexity    string   `json:"complexity"`
	Instructions  string   `json:"instructions"`
}

type narrativeResponse struct {
	Success       bool            `json:"success"`
	Error         string          `json:"error,omitempty"`
	Narrative     json.RawMessage `json:"narrative"`
	NarrativeType string          `json:"narrative_type"`
	Complexity    string          `json:"complexity"`
}

// GenerateNarrative requests a narrative. The payload is a plain string for
// linear types and a node graph for the interactive type; DecodeNarrative
// sorts that out.
func (c *Client) GenerateNarrative(ctx context.Context, req NarrativeRequest) (*Narrative, uint64, error) {
	token := c.narTokens.next()
	if err := validateGenerateRequest(req.ChatID); err != nil {
		return nil, token, err
	}
	var resp narrativeResponse
	if err := c.postJSON(ctx, "/api/narrative/generate", req, &resp); err != nil {
		return nil, token, err
	}
	if !resp.Success {
		return nil, token, &BackendError{Endpoint: "/api/narrative/generate", Msg: orDefault(resp.Error, "generation failed")}
	}
	n, err := DecodeNarrative(resp.Narrative, resp.NarrativeType, resp.Complexity)
	if err != nil {
		return nil, token, err
	}
	return n, token, nil
}

// FeedbackRequest is the body of POST /api/narrative/feedback.
type FeedbackRequest struct {
	NarrativeType    string   `json:"narrative_type"`
	NarrativeContent string   `json:"narrative_content"`
	ReflectionText   string   `json:"reflection_text"`
	ContextParts     []string `json:"context_parts"`
	Complexity       string   `json:"complexity"`
}

// Feedback is the structured response to a reflection.
type Feedback struct {
	ConceptualUnderstanding string `json:"conceptual_understanding,omitempty"`
	DecisionReasoning       string `json:"decision_reasoning,omitempty"`
	TransferApplication     string `json:"transfer_application,omitempty"`
}

type feedbackResponse struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	Feedback Feedback `json:"feedback"`
}

func (c *Client) NarrativeFeedback(ctx context.Context, req FeedbackRequest) (*Feedback, error) {
	if strings.TrimSpace(req.ReflectionText) == "" {
		return nil, &ValidationError{Field: "reflection", Msg: "reflection text is required"}
	}
	var resp feedbackResponse
	if err := c.postJSON(ctx, "/api/narrative/feedback", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &BackendError{Endpoint: "/api/narrative/feedback", Msg: orDefault(resp.Error, "feedback failed")}
	}
	return &resp.Feedback, nil
}

// Document is one entry in the room's shared library.
type Document struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type,omitempty"`
}

// StorageStats is the room's library usage.
type StorageStats struct {
	UsedBytes     int64 `json:"used_bytes"`
	LimitBytes    int64 `json:"limit_bytes"`
	DocumentCount int   `json:"document_count"`
}

type documentsResponse struct {
	Documents []Document `json:"documents"`
}

// LibraryOverview bundles the document list and storage stats, which the
// library panel always needs together.
type LibraryOverview struct {
	Documents []Document
	Stats     StorageStats
}

// LibraryDocuments lists the room's documents.
func (c *Client) LibraryDocuments(ctx context.Context, roomID string) ([]Document, error) {
	if roomID == "" {
		return nil, &ValidationError{Field: "room_id", Msg: "room id is required"}
	}
	var resp documentsResponse
	if err := c.getJSON(ctx, "/api/library/documents?room_id="+url.QueryEscape(roomID), &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

// LibraryStats fetches the room's storage usage.
func (c *Client) LibraryStats(ctx context.Context, roomID string) (StorageStats, error) {
	var stats StorageStats
	if roomID == "" {
		return stats, &ValidationError{Field: "room_id", Msg: "room id is required"}
	}
	err := c.getJSON(ctx, "/api/library/storage/stats?room_id="+url.QueryEscape(roomID), &stats)
	return stats, err
}

// FetchLibrary loads documents and storage stats concurrently.
func (c *Client) FetchLibrary(ctx context.Context, roomID string) (*LibraryOverview, error) {
	var overview LibraryOverview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := c.LibraryDocuments(ctx, roomID)
		overview.Documents = docs
		return err
	})
	g.Go(func() error {
		stats, err := c.LibraryStats(ctx, roomID)
		overview.Stats = stats
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}

// CheckUploadQuota rejects an upload that would push the room past its
// storage cap before any bytes leave the machine.
func CheckUploadQuota(stats StorageStats, fileSize int64) error {
	limit := stats.LimitBytes
	if limit <= 0 {
		limit = RoomStorageLimit
	}
	if stats.UsedBytes+fileSize > limit {
		return &ValidationError{
			Field: "file",
			Msg:   fmt.Sprintf("upload of %s would exceed the %s room limit", formatBytes(fileSize), formatBytes(limit)),
		}
	}
	return nil
}

// UploadDocument sends a file to the room library. Callers run
// CheckUploadQuota first; the server still enforces the cap.
func (c *Client) UploadDocument(ctx context.Context, roomID, filename string, content io.Reader) (*Document, error) {
	if roomID == "" {
		return nil, &ValidationError{Field: "room_id", Msg: "room id is required"}
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}

	endpoint := "/api/library/upload?room_id=" + url.QueryEscape(roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var doc Document
	if err := c.do(req, endpoint, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ClearLibrary deletes every document in the room.
func (c *Client) ClearLibrary(ctx context.Context, roomID string) error {
	if roomID == "" {
		return &ValidationError{Field: "room_id", Msg: "room id is required"}
	}
	return c.postJSON(ctx, "/api/library/clear", map[string]string{"room_id": roomID}, nil)
}

// PostChatMessage appends a plain-text message to the chat transcript,
// form-encoded the way the chat endpoint expects.
func (c *Client) PostChatMessage(ctx context.Context, chatID, content string) error {
	if chatID == "" {
		return &ValidationError{Field: "chat_id", Msg: "chat id is required"}
	}
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Field: "content", Msg: "message is empty"}
	}
	form := url.Values{}
	form.Set("content", content)
	form.Set("ai_response", "0")
	form.Set("csrf_token", c.csrf)

	endpoint := "/chat/" + url.PathEscape(chatID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building chat post: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, endpoint, nil)
}

// ContinueMessage asks the backend to continue a truncated assistant message.
func (c *Client) ContinueMessage(ctx context.Context, chatID, messageID string) error {
	if chatID == "" || messageID == "" {
		return &ValidationError{Field: "chat_id", Msg: "chat and message ids are required"}
	}
	form := url.Values{}
	form.Set("csrf_token", c.csrf)
	endpoint := "/chat/" + url.PathEscape(chatID) + "/continue/" + url.PathEscape(messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building continue request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, endpoint, nil)
}

func validateGenerateRequest(chatID string) error {
	if strings.TrimSpace(chatID) == "" {
		return &ValidationError{Field: "chat_id", Msg: "chat id is required"}
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.csrf != "" {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}
	return c.do(req, endpoint, out)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return c.do(req, endpoint, out)
}

// do executes the request and maps failures into the error taxonomy: a
// transport fault or a non-2xx status becomes a BackendError; they are never
// left to escape as raw transport errors.
func (c *Client) do(req *http.Request, endpoint string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &BackendError{Endpoint: endpoint, Msg: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &BackendError{Endpoint: endpoint, Status: resp.StatusCode, Msg: decodeErrorBody(resp.Body)}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &BackendError{Endpoint: endpoint, Status: resp.StatusCode, Msg: fmt.Sprintf("malformed response: %v", err)}
	}
	return nil
}

// decodeErrorBody pulls a human-readable message out of an error response,
// falling back to the raw body.
func decodeErrorBody(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = "request failed"
	}
	return msg
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
