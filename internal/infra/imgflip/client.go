// internal/infra/imgflip/client.go
package imgflip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
)

// Client calls the imgflip caption_image API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	username   string
	password   string
}

func NewClient(httpClient *http.Client, apiURL, username, password string) *Client {
	return &Client{
		httpClient: httpClient,
		apiURL:     apiURL,
		username:   username,
		password:   password,
	}
}

type captionResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL     string `json:"url"`
		PageURL string `json:"page_url"`
	} `json:"data"`
	ErrorMessage string `json:"error_message"`
}

// Caption renders top and bottom text on templateID and returns the image URL.
func (c *Client) Caption(ctx context.Context, templateID int, top, bottom string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	fields := [][2]string{
		{"template_id", strconv.Itoa(templateID)},
		{"text0", top},
		{"text1", bottom},
		{"username", c.username},
		{"password", c.password},
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return "", fmt.Errorf("failed to write form field %s: %w", f[0], err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to finish caption form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build caption request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("caption request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("caption API returned status %d", resp.StatusCode)
	}

	var out captionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode caption response: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("caption API error: %s", out.ErrorMessage)
	}
	if out.Data.URL == "" {
		return "", fmt.Errorf("caption API returned no image URL")
	}
	return out.Data.URL, nil
}
