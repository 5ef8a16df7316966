// Package pin uploads token images to the Pinata pinning service.
package pin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/solforge/mintforge/internal/config"
	"github.com/solforge/mintforge/internal/logging"
)

const (
	DefaultBaseURL    = "https://api.pinata.cloud"
	DefaultGatewayURL = "https://gateway.pinata.cloud"

	pinPath = "/pinning/pinFileToIPFS"
)

// ErrUpload wraps every pinning failure: transport errors, non-2xx
// statuses and malformed responses.
var ErrUpload = errors.New("pin: upload failed")

// Client talks to the Pinata HTTP API. One attempt per upload, no
// retries; the issuance flow treats a promised image as required.
type Client struct {
	http       *http.Client
	baseURL    string
	gatewayURL string
	apiKey     string
	apiSecret  string
}

// NewClient builds a Pinata client for the given credentials.
func NewClient(creds config.PinataCredentials) *Client {
	return &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    DefaultBaseURL,
		gatewayURL: DefaultGatewayURL,
		apiKey:     creds.APIKey,
		apiSecret:  creds.APISecret,
	}
}

// WithEndpoints overrides the API and gateway base URLs. Used by tests
// and by self-hosted gateways.
func (c *Client) WithEndpoints(baseURL, gatewayURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.gatewayURL = strings.TrimRight(gatewayURL, "/")
	return c
}

// PinFile streams the file at path to Pinata and returns the public
// gateway URL for the pinned content.
func (c *Client) PinFile(ctx context.Context, path string) (string, error) {
	log := logging.WithComponent("pin")

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrUpload, path, err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pinPath, pr)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrUpload, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("pinata_api_key", c.apiKey)
	req.Header.Set("pinata_secret_api_key", c.apiSecret)

	log.Info().Str("file", path).Msg("uploading token image")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("pin request rejected")
		return "", fmt.Errorf("%w: status=%d body=%s", ErrUpload, resp.StatusCode, string(body))
	}

	var res struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpload, err)
	}
	if res.IpfsHash == "" {
		return "", fmt.Errorf("%w: response has empty IpfsHash", ErrUpload)
	}

	url := c.gatewayURL + "/ipfs/" + res.IpfsHash
	log.Info().Str("url", url).Msg("token image pinned")
	return url, nil
}
