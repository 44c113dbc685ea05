package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// PinataGateway pins files through the Pinata pinFileToIPFS endpoint
type PinataGateway struct {
	baseURL string
	jwt     string
	http    *http.Client
	logger  *zap.SugaredLogger
}

// NewPinataGateway creates a Pinata gateway client
func NewPinataGateway(baseURL, jwt string, logger *zap.SugaredLogger) *PinataGateway {
	return &PinataGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		jwt:     jwt,
		http:    &http.Client{},
		logger:  logger,
	}
}

// Pin uploads data as a multipart "file" part and returns its IpfsHash
func (g *PinataGateway) Pin(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("pin %s: %w", name, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("pin %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("pin %s: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return "", fmt.Errorf("pin %s: %w", name, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+g.jwt)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pin %s: gateway status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var res struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("pin %s: decode response: %w", name, err)
	}
	if res.IpfsHash == "" {
		return "", fmt.Errorf("pin %s: %w", name, ErrEmptyHash)
	}

	g.logger.Debugw("File pinned", "hash", res.IpfsHash, "bytes", len(data))
	return res.IpfsHash, nil
}
