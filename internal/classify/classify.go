// Package classify runs leaf images through the multi-class disease
// model. The model itself is served remotely (a TF-Serving style predict
// endpoint taking an RGB tensor and returning a per-class probability
// vector); this package owns the preprocessing and the top-1 selection.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"

	"github.com/nfnt/resize"
)

// InputSize is the model's fixed square input resolution.
const InputSize = 224

// Prediction is the top-1 classifier verdict.
type Prediction struct {
	Class      string
	Confidence float64
}

// Predictor turns a preprocessed image tensor into a per-class
// probability vector.
type Predictor interface {
	Predict(ctx context.Context, tensor [][][]float32) ([]float32, error)
}

// Classifier pairs a Predictor with the class-name list its output
// indexes into.
type Classifier struct {
	names     []string
	predictor Predictor
}

// New .
func New(names []string, p Predictor) (*Classifier, error) {
	if len(names) == 0 {
		return nil, errors.New("class name list is empty")
	}
	if p == nil {
		return nil, errors.New("predictor is nil")
	}

	return &Classifier{names: names, predictor: p}, nil
}

// LoadClassNames reads the JSON array of class names shipped with the
// model weights.
func LoadClassNames(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class names: %w", err)
	}

	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return nil, fmt.Errorf("failed to parse class names: %w", err)
	}

	return names, nil
}

// Classify decodes the image bytes, preprocesses them and returns the
// highest-probability class with its confidence.
func (c *Classifier) Classify(ctx context.Context, imageData []byte) (Prediction, error) {
	tensor, err := Preprocess(imageData)
	if err != nil {
		return Prediction{}, err
	}

	probs, err := c.predictor.Predict(ctx, tensor)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict call failed: %w", err)
	}
	if len(probs) != len(c.names) {
		return Prediction{}, fmt.Errorf("predictor returned %d probabilities for %d classes", len(probs), len(c.names))
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	return Prediction{
		Class:      c.names[best],
		Confidence: float64(probs[best]),
	}, nil
}

// WarmUp pushes a zero tensor through the predictor so the first user
// request does not pay the model cold-start cost.
func (c *Classifier) WarmUp(ctx context.Context) error {
	tensor := zeroTensor()

	if _, err := c.predictor.Predict(ctx, tensor); err != nil {
		return fmt.Errorf("warm-up predict failed: %w", err)
	}

	return nil
}

// Preprocess decodes JPEG/PNG bytes and builds the model input: an
// InputSize x InputSize x 3 tensor of RGB values in the 0-255 range (the
// EfficientNet family normalizes internally).
func Preprocess(data []byte) ([][][]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := resize.Resize(InputSize, InputSize, img, resize.Lanczos3)

	tensor := zeroTensor()
	bounds := resized.Bounds()
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			tensor[y][x][0] = float32(r >> 8)
			tensor[y][x][1] = float32(g >> 8)
			tensor[y][x][2] = float32(b >> 8)
		}
	}

	return tensor, nil
}

func zeroTensor() [][][]float32 {
	tensor := make([][][]float32, InputSize)
	for y := range tensor {
		tensor[y] = make([][]float32, InputSize)
		for x := range tensor[y] {
			tensor[y][x] = make([]float32, 3)
		}
	}

	return tensor
}

// ServingClient is the HTTP Predictor implementation speaking the
// TensorFlow Serving REST predict protocol.
type ServingClient struct {
	url        string
	httpClient *http.Client
}

// NewServingClient .
func NewServingClient(url string, httpClient *http.Client) *ServingClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &ServingClient{
		url:        url,
		httpClient: httpClient,
	}
}

// Predict posts the tensor as a single-instance batch and returns the
// probability vector for it.
func (s *ServingClient) Predict(ctx context.Context, tensor [][][]float32) ([]float32, error) {
	body, err := json.Marshal(struct {
		Instances [][][][]float32 `json:"instances"`
	}{
		Instances: [][][][]float32{tensor},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send predict request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predict endpoint returned status %d", resp.StatusCode)
	}

	var out struct {
		Predictions [][]float32 `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}
	if len(out.Predictions) == 0 {
		return nil, errors.New("predict response contains no predictions")
	}

	return out.Predictions[0], nil
}
