package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Client stores visitor photos and scanned documents in Cloudinary
// through their REST API. Uploads go to "auto" resource type so PDFs
// and images both work.
type Client struct {
	CloudName  string
	APIKey     string
	APISecret  string
	BaseFolder string
	HTTP       *http.Client
}

// New creates a Cloudinary client.
func New(cloudName, apiKey, apiSecret, baseFolder string) *Client {
	return &Client{
		CloudName:  cloudName,
		APIKey:     apiKey,
		APISecret:  apiSecret,
		BaseFolder: baseFolder,
		HTTP:       &http.Client{Timeout: 30 * time.Second},
	}
}

// UploadResult holds the response from Cloudinary after a successful upload.
type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Format    string `json:"format"`
	Bytes     int    `json:"bytes"`
}

// Store uploads raw file bytes into a folder and returns the public
// URL. Implements the document storage boundary of the visitation
// workflow; the caller keeps only the returned path.
func (c *Client) Store(ctx context.Context, data []byte, filename, folder string) (string, error) {
	res, err := c.upload(ctx, folder, func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, bytes.NewReader(data))
		return err
	})
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}

// UploadBase64 uploads a base64 data URL ("data:image/jpeg;base64,...")
// or raw base64; Cloudinary accepts both via the file param.
func (c *Client) UploadBase64(ctx context.Context, data, folder string) (*UploadResult, error) {
	return c.upload(ctx, folder, func(w *multipart.Writer) error {
		return w.WriteField("file", data)
	})
}

func (c *Client) upload(ctx context.Context, folder string, writeFile func(w *multipart.Writer) error) (*UploadResult, error) {
	params := map[string]string{
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		"api_key":   c.APIKey,
	}
	if f := c.folder(folder); f != "" {
		params["folder"] = f
	}
	params["signature"] = c.sign(params)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	if err := writeFile(w); err != nil {
		return nil, fmt.Errorf("cloudinary: build form failed: %w", err)
	}
	w.Close()

	url := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/auto/upload", c.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: create request failed: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cloudinary: upload failed (%d): %s", resp.StatusCode, string(body))
	}

	var result UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("cloudinary: decode response failed: %w", err)
	}
	return &result, nil
}

func (c *Client) folder(sub string) string {
	switch {
	case c.BaseFolder == "":
		return sub
	case sub == "":
		return c.BaseFolder
	default:
		return c.BaseFolder + "/" + sub
	}
}

// sign computes the Cloudinary API signature from the given params.
// Cloudinary excludes api_key and file from the signed string.
func (c *Client) sign(params map[string]string) string {
	excludeKeys := map[string]bool{"api_key": true, "file": true, "resource_type": true}

	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if !excludeKeys[k] && v != "" {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)

	payload := strings.Join(pairs, "&") + c.APISecret
	h := sha1.New()
	h.Write([]byte(payload))
	return fmt.Sprintf("%x", h.Sum(nil))
}
