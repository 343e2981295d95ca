package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"medwarehouse/internal/models"
)

// Detector runs object detection on a single image. The model behind it is a
// black box: given an image it returns (class name, confidence) pairs.
type Detector interface {
	Detect(ctx context.Context, imagePath string) ([]models.Detection, error)
}

// Client is a client for the object detection service API.
type Client struct {
	baseURL    string
	threshold  float64
	httpClient *http.Client
}

type detectResponse struct {
	Detections []models.Detection `json:"detections"`
}

// NewClient creates a new detection service client with the given confidence
// threshold.
func NewClient(baseURL string, threshold float64) *Client {
	return &Client{
		baseURL:   baseURL,
		threshold: threshold,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Detect uploads the image and returns the detections above the configured
// confidence threshold.
func (c *Client) Detect(ctx context.Context, imagePath string) ([]models.Detection, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy image into request: %w", err)
	}
	if err := writer.WriteField("confidence", strconv.FormatFloat(c.threshold, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("failed to write confidence field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/detect", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("detection service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Detections, nil
}
