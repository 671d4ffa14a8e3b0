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


package mock

import (
	"context"
	"sync"

	"github.com/poiesic/shopit/ai"
	"github.com/poiesic/shopit/core"
)

// Call records one invocation of MockJudge.Judge.
type Call struct {
	Instruction string
	ImageCount  int
}

// MockJudge is a test double for ai.Judge.
// It is safe for concurrent use, since the filters call judges from many goroutines.
type MockJudge struct {
	// JudgeFunc is called by Judge if set.
	// If nil, every image is approved.
	JudgeFunc func(ctx context.Context, instruction string, images []core.EncodedImage) (string, error)

	mu    sync.Mutex
	calls []Call
}

var _ ai.Judge = (*MockJudge)(nil)

// NewMockJudge creates a mock judge that approves everything it is shown.
// Note: Returns concrete type to allow test assertions.
func NewMockJudge() *MockJudge {
	return &MockJudge{}
}

// WithJudgeFunc sets custom reply behavior and returns the mock for chaining.
func (m *MockJudge) WithJudgeFunc(fn func(ctx context.Context, instruction string, images []core.EncodedImage) (string, error)) *MockJudge {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.JudgeFunc = fn
	return m
}

// WithReply makes every call return the given reply.
func (m *MockJudge) WithReply(reply string) *MockJudge {
	return m.WithJudgeFunc(func(context.Context, string, []core.EncodedImage) (string, error) {
		return reply, nil
	})
}

// Judge records the call and returns the configured reply.
func (m *MockJudge) Judge(ctx context.Context, instruction string, images []core.EncodedImage) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Instruction: instruction, ImageCount: len(images)})
	fn := m.JudgeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, instruction, images)
	}
	return approveAll(len(images)), nil
}

// CallCount returns the number of times Judge was called.
func (m *MockJudge) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the recorded calls.
func (m *MockJudge) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears recorded calls and custom functions.
func (m *MockJudge) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.JudgeFunc = nil
}

// MockProvider is a test double for ai.AIProvider.
type MockProvider struct {
	vision *MockJudge
	brand  *MockJudge
}

// NewMockProvider creates a provider whose judges approve everything.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockVisionJudge()/GetMockBrandJudge() to access concrete types.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		vision: NewMockJudge(),
		brand:  NewMockJudge(),
	}
}

// NewMockProviderWithJudges creates a mock provider with custom mock judges.
func NewMockProviderWithJudges(vision, brand *MockJudge) ai.AIProvider {
	return &MockProvider{vision: vision, brand: brand}
}

// VisionJudge returns the mock vision judge.
func (p *MockProvider) VisionJudge() ai.Judge {
	return p.vision
}

// BrandJudge returns the mock brand judge.
func (p *MockProvider) BrandJudge() ai.Judge {
	return p.brand
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockVisionJudge returns the underlying mock vision judge for test assertions.
func (p *MockProvider) GetMockVisionJudge() *MockJudge {
	return p.vision
}

// GetMockBrandJudge returns the underlying mock brand judge for test assertions.
func (p *MockProvider) GetMockBrandJudge() *MockJudge {
	return p.brand
}
