package testutils

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/alchemorsel/evolver/internal/domain/generation"
)

// StubBackend is a scripted GenerativeBackend that counts and records every
// request. When Gate
// is set every call blocks until it is closed or the context ends, which
// lets tests hold requests in flight.
type StubBackend struct {
	mu sync.Mutex

	VariantsText string
	VariantsErr  error
	Image        *generation.ContentResponse
	ImageErr     error
	TipsText     string
	TipsErr      error

	Gate chan struct{}

	variantCalls atomic.Int32
	imageCalls   atomic.Int32
	tipsCalls    atomic.Int32
	started      chan struct{}

	reqMu           sync.Mutex
	variantRequests []generation.RecipeSetRequest
	imageRequests   []generation.ImageRequest
	tipsRequests    []generation.SafetyRequest
}

// NewStubBackend creates a stub that succeeds for every request kind
func NewStubBackend(variantsText string) *StubBackend {
	return &StubBackend{
		VariantsText: variantsText,
		Image:        ImageResponse(),
		TipsText:     StringArrayJSON("Lave as mãos após manusear carne crua", "Cuidado com o óleo quente", "Use luvas térmicas"),
		started:      make(chan struct{}, 64),
	}
}

// Name identifies the stub
func (s *StubBackend) Name() string {
	return "stub"
}

// Started receives one value each time a call begins
func (s *StubBackend) Started() <-chan struct{} {
	return s.started
}

// SetVariants replaces the scripted variant response
func (s *StubBackend) SetVariants(text string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.VariantsText, s.VariantsErr = text, err
}

// GenerateContent returns the scripted variant text
func (s *StubBackend) GenerateContent(ctx context.Context, req generation.RecipeSetRequest) (string, error) {
	s.variantCalls.Add(1)
	s.reqMu.Lock()
	s.variantRequests = append(s.variantRequests, req)
	s.reqMu.Unlock()
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.VariantsText, s.VariantsErr
}

// GenerateImageContent returns the scripted image response
func (s *StubBackend) GenerateImageContent(ctx context.Context, req generation.ImageRequest) (*generation.ContentResponse, error) {
	s.imageCalls.Add(1)
	s.reqMu.Lock()
	s.imageRequests = append(s.imageRequests, req)
	s.reqMu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Image, s.ImageErr
}

// GenerateArrayContent returns the scripted tips text
func (s *StubBackend) GenerateArrayContent(ctx context.Context, req generation.SafetyRequest) (string, error) {
	s.tipsCalls.Add(1)
	s.reqMu.Lock()
	s.tipsRequests = append(s.tipsRequests, req)
	s.reqMu.Unlock()
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.TipsText, s.TipsErr
}

// VariantCalls returns how many variant requests were made
func (s *StubBackend) VariantCalls() int { return int(s.variantCalls.Load()) }

// ImageCalls returns how many image requests were made
func (s *StubBackend) ImageCalls() int { return int(s.imageCalls.Load()) }

// TipsCalls returns how many safety requests were made
func (s *StubBackend) TipsCalls() int { return int(s.tipsCalls.Load()) }

// VariantRequests returns a copy of every recipe-set request received
func (s *StubBackend) VariantRequests() []generation.RecipeSetRequest {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()
	return append([]generation.RecipeSetRequest(nil), s.variantRequests...)
}

// ImageRequests returns a copy of every image request received
func (s *StubBackend) ImageRequests() []generation.ImageRequest {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()
	return append([]generation.ImageRequest(nil), s.imageRequests...)
}

// TipsRequests returns a copy of every safety request received
func (s *StubBackend) TipsRequests() []generation.SafetyRequest {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()
	return append([]generation.SafetyRequest(nil), s.tipsRequests...)
}

func (s *StubBackend) wait(ctx context.Context) error {
	if s.started != nil {
		select {
		case s.started <- struct{}{}:
		default:
		}
	}
	if s.Gate == nil {
		return nil
	}
	select {
	case <-s.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
