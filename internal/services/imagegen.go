package services

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/types"
)

type ImageGenClient interface {
	GenerateTryOn(ctx context.Context, personImage []byte, productImage []byte, angle string) ([]byte, error)
	Close() error
}

type imageGenClient struct {
	log    *logger.Logger
	client *genai.Client
	model  string
}

func NewImageGenClient(log *logger.Logger) (ImageGenClient, error) {
	apiKey := os.Getenv("IMAGE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing IMAGE_API_KEY")
	}

	model := os.Getenv("IMAGE_MODEL")
	if model == "" {
		model = "gemini-2.5-flash-image"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &imageGenClient{
		log:    log.With("service", "ImageGenClient"),
		client: client,
		model:  model,
	}, nil
}

func angleDescription(angle string) string {
	switch angle {
	case types.AngleFront:
		return "front view"
	case types.AngleSide:
		return "side profile view"
	case types.AngleBack:
		return "back view"
	default:
		return angle
	}
}

func (c *imageGenClient) GenerateTryOn(ctx context.Context, personImage []byte, productImage []byte, angle string) ([]byte, error) {
	desc := angleDescription(angle)
	prompt := fmt.Sprintf(
		"Take these 2 images (%s of the person, and the clothing item) "+
			"and generate a realistic image of the person wearing this clothing item from the %s. "+
			"Make sure the clothing fits naturally on the person and looks realistic. "+
			"Make it in a 9:16 aspect ratio and centred towards the person.",
		desc, desc)

	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.ImageData("jpeg", personImage),
		genai.ImageData("jpeg", productImage),
	)
	if err != nil {
		return nil, fmt.Errorf("genai generate failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("genai returned no candidates")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
			return blob.Data, nil
		}
	}
	return nil, fmt.Errorf("genai response contained no image data")
}

func (c *imageGenClient) Close() error {
	return c.client.Close()
}
