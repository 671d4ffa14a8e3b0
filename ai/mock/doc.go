// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Judge and ai.AIProvider
// for use in unit tests. The mocks are safe for concurrent use and record
// every call so tests can assert on batching.
//
// # Usage in Tests
//
//	// Default behavior: approve every image
//	judge := mock.NewMockJudge()
//
//	// Custom behavior injection
//	judge := mock.NewMockJudge().WithReply(mock.VerdictReply(0, 2))
//
//	// Check calls
//	count := judge.CallCount()
//	calls := judge.Calls() // instruction and image count per call
//
// # Default Behavior
//
//   - MockJudge: replies {"passing_indexes": [0..n-1]} for n images
//   - MockProvider: aggregates a vision and a brand MockJudge
package mock
