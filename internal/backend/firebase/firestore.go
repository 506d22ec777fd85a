package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"

	"github.com/mmcdole/watchlist/internal/domain"
	"golang.org/x/time/rate"
)

const firestoreURL = "https://firestore.googleapis.com/v1"

// TokenSource supplies the bearer token for Firestore requests
type TokenSource interface {
	IDToken(ctx context.Context) (string, error)
}

// Firestore implements domain.DocumentStore over the Cloud Firestore REST API
type Firestore struct {
	baseURL    string // .../projects/{project}/databases/(default)/documents
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewFirestore creates a Firestore client for the project's default database
func NewFirestore(projectID string, endpoints Endpoints, tokens TokenSource, logger *slog.Logger) *Firestore {
	if logger == nil {
		logger = slog.Default()
	}
	endpoints = endpoints.withDefaults()
	return &Firestore{
		baseURL: fmt.Sprintf("%s/projects/%s/databases/(default)/documents", endpoints.Firestore, url.PathEscape(projectID)),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		logger:  logger,
	}
}

func (f *Firestore) QueryByEquality(ctx context.Context, collection, field string, value any) ([]domain.Document, error) {
	v, err := EncodeValue(value)
	if err != nil {
		return nil, err
	}

	query := runQueryRequest{
		StructuredQuery: structuredQuery{
			From: []collectionSelector{{CollectionID: collection}},
			Where: &filter{FieldFilter: &fieldFilter{
				Field: fieldReference{FieldPath: field},
				Op:    "EQUAL",
				Value: v,
			}},
		},
	}

	body, err := f.doRequest(ctx, http.MethodPost, f.baseURL+":runQuery", nil, query)
	if err != nil {
		return nil, err
	}

	var results []runQueryResult
	if err := json.Unmarshal(body, &results); err != nil {
		f.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}

	docs := make([]domain.Document, 0, len(results))
	for _, r := range results {
		if r.Document == nil {
			continue
		}
		docs = append(docs, domain.Document{
			ID:     documentID(r.Document.Name),
			Fields: DecodeFields(r.Document.Fields),
		})
	}
	return docs, nil
}

func (f *Firestore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	encoded, err := EncodeFields(fields)
	if err != nil {
		return "", err
	}

	body, err := f.doRequest(ctx, http.MethodPost, f.collectionURL(collection), nil, Document{Fields: encoded})
	if err != nil {
		return "", err
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("failed to parse created document: %w", err)
	}
	if doc.Name == "" {
		return "", fmt.Errorf("created document has no name")
	}
	return documentID(doc.Name), nil
}

// Update patches only the given fields. currentDocument.exists keeps a patch
// from resurrecting a deleted document.
func (f *Firestore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	encoded, err := EncodeFields(fields)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(fields))
	for k := range fields {
		paths = append(paths, k)
	}
	sort.Strings(paths)

	query := url.Values{}
	for _, p := range paths {
		query.Add("updateMask.fieldPaths", p)
	}
	query.Set("currentDocument.exists", "true")

	_, err = f.doRequest(ctx, http.MethodPatch, f.documentURL(collection, id), query, Document{Fields: encoded})
	return err
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	_, err := f.doRequest(ctx, http.MethodDelete, f.documentURL(collection, id), nil, nil)
	return err
}

func (f *Firestore) Close() error {
	f.httpClient.CloseIdleConnections()
	return nil
}

func (f *Firestore) collectionURL(collection string) string {
	return fmt.Sprintf("%s/%s", f.baseURL, url.PathEscape(collection))
}

func (f *Firestore) documentURL(collection, id string) string {
	return fmt.Sprintf("%s/%s/%s", f.baseURL, url.PathEscape(collection), url.PathEscape(id))
}

// doRequest performs an authenticated Firestore request
func (f *Firestore) doRequest(ctx context.Context, method, reqURL string, query url.Values, payload any) ([]byte, error) {
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	token, err := f.tokens.IDToken(ctx)
	if err != nil {
		return nil, err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	f.logger.Debug("firestore request", "method", method, "url", reqURL)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error("firestore request failed", "error", err)
		return nil, domain.ErrStoreOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, domain.ErrAuthFailed
	case http.StatusNotFound:
		return nil, domain.ErrItemNotFound
	}

	f.logger.Error("firestore request error", "status", resp.StatusCode, "body", string(body))
	var env ErrorResponse
	if json.Unmarshal(body, &env) == nil && env.Error.Message != "" {
		return nil, fmt.Errorf("firestore: %s (status %d)", env.Error.Message, resp.StatusCode)
	}
	return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}
