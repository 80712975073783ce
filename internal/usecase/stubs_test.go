package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"AlphaScreener/internal/domain"
)

// scriptedCompleter answers with the first reply whose key occurs in the
// prompt and records every prompt it receives.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies map[string]string
	prompts []string
	err     error
}

func (c *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	for key, reply := range c.replies {
		if strings.Contains(prompt, key) {
			return reply, nil
		}
	}
	return "", errors.New("no scripted reply")
}

func (c *scriptedCompleter) calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

type stubFundingProvider struct {
	name string
	data *domain.RawFundingData
	err  error
}

func (p stubFundingProvider) Name() string { return p.name }

func (p stubFundingProvider) FetchFunding(context.Context, string) (*domain.RawFundingData, error) {
	return p.data, p.err
}

type stubMarketProvider struct {
	name string
	data *domain.RawMarketData
	err  error
}

func (p stubMarketProvider) Name() string { return p.name }

func (p stubMarketProvider) FetchMarket(context.Context, string) (*domain.RawMarketData, error) {
	return p.data, p.err
}

type stubDocsSource struct {
	doc     domain.DocumentationContent
	website string
	err     error
	urls    []string
}

func (s *stubDocsSource) FetchDocumentation(_ context.Context, url string) (domain.DocumentationContent, error) {
	s.urls = append(s.urls, url)
	return s.doc, s.err
}

func (s *stubDocsSource) FetchWebsiteContent(_ context.Context, url string) (string, error) {
	s.urls = append(s.urls, url)
	return s.website, s.err
}

type stubCodeSource struct {
	data  domain.RawCodeData
	owner string
	repo  string
}

func (s *stubCodeSource) FetchCodeData(_ context.Context, owner, repo string) (domain.RawCodeData, error) {
	s.owner, s.repo = owner, repo
	return s.data, nil
}
