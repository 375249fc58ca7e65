package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FaceQuality contains face quality metrics reported by the service.
type FaceQuality struct {
	Score     float64 `json:"score"`
	Blur      float64 `json:"blur"`
	IsFrontal bool    `json:"is_frontal"`
}

// EnrollResult contains the face enrollment response.
type EnrollResult struct {
	VisitorID string
	Success   bool
	Quality   *FaceQuality
	Message   string
}

// VerifyResult contains a 1:1 verification result against an enrolled
// visitor.
type VerifyResult struct {
	VisitorID  string
	Verified   bool
	Similarity float64
	Threshold  float64
	Quality    *FaceQuality
}

// Client calls the face recognition microservice used to verify
// visitors at the gate. With Skip set it returns canned results so the
// rest of the system runs without the service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. The long timeout covers model inference.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Health checks if the face service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}
	return nil
}

// Enroll registers a visitor's photo in the recognition gallery.
func (c *Client) Enroll(ctx context.Context, visitorID, imageURL, name string) (*EnrollResult, error) {
	if c.Skip {
		return &EnrollResult{
			VisitorID: visitorID,
			Success:   true,
			Quality:   &FaceQuality{Score: 0.85, IsFrontal: true},
			Message:   "Face enrolled (mock)",
		}, nil
	}

	payload := map[string]string{
		"user_id":   visitorID,
		"image_url": imageURL,
	}
	if name != "" {
		payload["name"] = name
	}

	var out struct {
		UserID  string       `json:"user_id"`
		Success bool         `json:"success"`
		Quality *FaceQuality `json:"quality"`
		Message string       `json:"message"`
	}
	if err := c.post(ctx, "/enroll", payload, &out); err != nil {
		return nil, err
	}
	return &EnrollResult{
		VisitorID: out.UserID,
		Success:   out.Success,
		Quality:   out.Quality,
		Message:   out.Message,
	}, nil
}

// Verify performs 1:1 verification of a captured image against the
// visitor's enrolled face.
func (c *Client) Verify(ctx context.Context, visitorID, imageURL string) (*VerifyResult, error) {
	if c.Skip {
		return &VerifyResult{
			VisitorID:  visitorID,
			Verified:   true,
			Similarity: 0.92,
			Threshold:  0.45,
			Quality:    &FaceQuality{Score: 0.85, IsFrontal: true},
		}, nil
	}
	if imageURL == "" {
		return nil, fmt.Errorf("image url required")
	}

	var out struct {
		UserID     string       `json:"user_id"`
		Verified   bool         `json:"verified"`
		Similarity float64      `json:"similarity"`
		Threshold  float64      `json:"threshold"`
		Quality    *FaceQuality `json:"quality"`
	}
	payload := map[string]string{
		"user_id":   visitorID,
		"image_url": imageURL,
	}
	if err := c.post(ctx, "/verify", payload, &out); err != nil {
		return nil, err
	}
	return &VerifyResult{
		VisitorID:  out.UserID,
		Verified:   out.Verified,
		Similarity: out.Similarity,
		Threshold:  out.Threshold,
		Quality:    out.Quality,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("face service error %s: %s", resp.Status, string(bodyBytes))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
