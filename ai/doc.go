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


// Package ai provides abstractions for the AI judges used by shopit.
//
// A judge receives one instruction (and, for vision judging, up to
// MaxImagesPerCall embedded images) and returns free text. Turning that text
// into a decision is the job of ParseVerdict, a strict adapter that either
// returns a typed Verdict or ErrUnparsableVerdict. What to do on a parse
// failure is decided by the caller.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs via langchaingo
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewJudge) return interface
// types. Test constructors (mock.NewMockJudge) return concrete types so tests
// can inject behavior and inspect calls.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434/v1"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	reply, err := provider.VisionJudge().Judge(ctx, instruction, images)
//	verdict, err := ai.ParseVerdict(reply)
package ai
