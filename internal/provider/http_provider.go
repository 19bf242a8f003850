package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prepmate/practice-service/internal/models"
)

// HTTPProvider is the client for the remote question-retrieval service.
// The service exposes one endpoint per fetch shape and returns question
// records as JSON.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewHTTPProvider(baseURL string, client *http.Client, logger *slog.Logger) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{baseURL: baseURL, client: client, logger: logger}
}

func (p *HTTPProvider) FetchByTopic(ctx context.Context, exam, subject, topic string, count int) ([]models.QuestionRecord, error) {
	return p.get(ctx, "/questions/by-topic", url.Values{
		"exam":    {exam},
		"subject": {subject},
		"topic":   {topic},
		"count":   {strconv.Itoa(count)},
	})
}

func (p *HTTPProvider) FetchByYear(ctx context.Context, exam, subject, year string, count int) ([]models.QuestionRecord, error) {
	return p.get(ctx, "/questions/by-year", url.Values{
		"exam":    {exam},
		"subject": {subject},
		"year":    {year},
		"count":   {strconv.Itoa(count)},
	})
}

func (p *HTTPProvider) FetchMixed(ctx context.Context, exam, subject string, count int) ([]models.QuestionRecord, error) {
	return p.get(ctx, "/questions/mixed", url.Values{
		"exam":    {exam},
		"subject": {subject},
		"count":   {strconv.Itoa(count)},
	})
}

func (p *HTTPProvider) get(ctx context.Context, path string, query url.Values) ([]models.QuestionRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build question request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("question service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrEmpty
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("question service returned status %d", resp.StatusCode)
	}

	var payload struct {
		Questions []models.QuestionRecord `json:"questions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode question response: %w", err)
	}
	return payload.Questions, nil
}
