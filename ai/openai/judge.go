// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/shopit/ai"
	"github.com/poiesic/shopit/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrTooManyImages is returned when a call exceeds ai.MaxImagesPerCall.
var ErrTooManyImages = errors.New("too many images for one judge call")

// Judge implements ai.Judge using OpenAI-compatible chat APIs.
type Judge struct {
	client    llms.Model
	model     string
	maxTokens int
	logger    *slog.Logger
}

var _ ai.Judge = (*Judge)(nil)

// newJudge is an internal constructor that returns the concrete type.
// Used by Provider to manage the instances.
func newJudge(host, model, token string, maxTokens int) (*Judge, error) {
	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken(token),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}

	return &Judge{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		logger:    slog.Default().With("component", "openai-judge", "model", model),
	}, nil
}

// NewVisionJudge creates the image relevance judge described by config.
//
// Returns ai.Judge interface to enforce abstraction.
func NewVisionJudge(config *ai.Config) (ai.Judge, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return asJudge(newJudge(config.VisionHost, config.VisionModel, config.APIToken, config.MaxTokens))
}

// NewBrandJudge creates the text-only brand judge described by config.
//
// Returns ai.Judge interface to enforce abstraction.
func NewBrandJudge(config *ai.Config) (ai.Judge, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return asJudge(newJudge(config.BrandHost, config.BrandModel, config.APIToken, config.MaxTokens))
}

// asJudge keeps a failed construction from becoming a non-nil ai.Judge.
func asJudge(j *Judge, err error) (ai.Judge, error) {
	if err != nil {
		return nil, err
	}
	return j, nil
}

// Judge sends the instruction and images as a single user message and
// returns the text of the first choice. An empty choice list yields an
// empty reply, which callers treat as unparsable.
func (j *Judge) Judge(ctx context.Context, instruction string, images []core.EncodedImage) (string, error) {
	if len(images) > ai.MaxImagesPerCall {
		return "", fmt.Errorf("%w: %d > %d", ErrTooManyImages, len(images), ai.MaxImagesPerCall)
	}

	parts := make([]llms.ContentPart, 0, len(images)+1)
	parts = append(parts, llms.TextPart(instruction))
	for _, img := range images {
		parts = append(parts, llms.ImageURLPart(img.DataURL()))
	}
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: parts,
		},
	}

	response, err := j.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.0),
		llms.WithMaxTokens(j.maxTokens),
		llms.WithJSONMode(),
	)
	if err != nil {
		j.logger.Error("judge call failed", "images", len(images), "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		j.logger.Debug("no choices returned from model")
		return "", nil
	}

	reply := response.Choices[0].Content
	j.logger.Debug("judge replied", "images", len(images), "length", len(reply))
	return reply, nil
}
