package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

// VertexImagen renders images through the Vertex AI Imagen predict endpoint.
type VertexImagen struct {
	projectID          string
	location           string
	model              string
	apiKey             string
	serviceAccount     string
	serviceAccountJSON string
	timeout            time.Duration
}

// VertexImagenConfig describes how to connect to Imagen.
type VertexImagenConfig struct {
	ProjectID          string
	Location           string
	Model              string
	APIKey             string
	ServiceAccount     string
	ServiceAccountJSON string
	Timeout            time.Duration
}

// NewVertexImagen wires a VertexImagen generator.
func NewVertexImagen(cfg VertexImagenConfig) *VertexImagen {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "imagen-3.0-generate-002"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &VertexImagen{
		projectID:          strings.TrimSpace(cfg.ProjectID),
		location:           strings.TrimSpace(cfg.Location),
		model:              model,
		apiKey:             strings.TrimSpace(cfg.APIKey),
		serviceAccount:     strings.TrimSpace(cfg.ServiceAccount),
		serviceAccountJSON: strings.TrimSpace(cfg.ServiceAccountJSON),
		timeout:            timeout,
	}
}

// Generate runs a text-to-image predict request and returns the first sample.
func (v *VertexImagen) Generate(ctx context.Context, prompt string) (Image, error) {
	if v == nil || v.projectID == "" || v.location == "" {
		return Image{}, ErrNotConfigured
	}
	if strings.TrimSpace(prompt) == "" {
		return Image{}, fmt.Errorf("imagen: prompt is required")
	}

	childCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	instance, err := structpb.NewValue(map[string]any{
		"prompt": prompt,
	})
	if err != nil {
		return Image{}, err
	}

	params, err := structpb.NewValue(map[string]any{
		"sampleCount": 1,
		"aspectRatio": "1:1",
	})
	if err != nil {
		return Image{}, err
	}

	endpoint := fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", v.projectID, v.location, v.model)
	options := []option.ClientOption{option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", v.location))}
	if v.serviceAccountJSON != "" {
		options = append(options, option.WithCredentialsJSON([]byte(v.serviceAccountJSON)))
	} else if v.serviceAccount != "" {
		options = append(options, option.WithCredentialsFile(v.serviceAccount))
	} else if v.apiKey != "" {
		options = append(options, option.WithAPIKey(v.apiKey))
	}

	client, err := aiplatform.NewPredictionClient(childCtx, options...)
	if err != nil {
		return Image{}, fmt.Errorf("imagen: prediction client: %w", err)
	}
	defer client.Close()

	resp, err := client.Predict(childCtx, &aiplatformpb.PredictRequest{
		Endpoint:   endpoint,
		Instances:  []*structpb.Value{instance},
		Parameters: params,
	})
	if err != nil {
		return Image{}, fmt.Errorf("imagen: predict: %w", err)
	}
	if len(resp.Predictions) == 0 {
		return Image{}, fmt.Errorf("imagen: empty prediction response")
	}

	fields := resp.Predictions[0].GetStructValue().GetFields()
	field := fields["bytesBase64Encoded"]
	if field == nil {
		return Image{}, fmt.Errorf("imagen: prediction missing bytes")
	}

	data, err := base64.StdEncoding.DecodeString(field.GetStringValue())
	if err != nil {
		return Image{}, fmt.Errorf("imagen: decode result: %w", err)
	}

	mime := "image/png"
	if mt := fields["mimeType"]; mt != nil && mt.GetStringValue() != "" {
		mime = mt.GetStringValue()
	}
	return Image{Data: data, MIME: mime}, nil
}
