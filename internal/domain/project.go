package domain

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidIdentifier is returned when a project identifier has no name.
	ErrInvalidIdentifier = errors.New("project name is required")
	// ErrInvalidGitHubURL is returned when a repository URL cannot be parsed.
	ErrInvalidGitHubURL = errors.New("invalid github url")
	// ErrNoJSON is returned when a model completion carries no decodable JSON object.
	ErrNoJSON = errors.New("no json object in completion")
	// ErrCacheMiss is used by cache adapters for absent or expired keys.
	ErrCacheMiss = errors.New("cache miss")
)

// ProjectIdentifier names the project to analyze; the optional URLs decide
// which gathering stages run.
type ProjectIdentifier struct {
	Name      string `json:"name" yaml:"name"`
	Symbol    string `json:"symbol,omitempty" yaml:"symbol"`
	Website   string `json:"website,omitempty" yaml:"website"`
	DocsURL   string `json:"docsUrl,omitempty" yaml:"docsUrl"`
	GitHubURL string `json:"githubUrl,omitempty" yaml:"githubUrl"`
}

// Validate trims the identifier fields and checks the name is present.
func (p *ProjectIdentifier) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Symbol = strings.TrimSpace(p.Symbol)
	p.Website = strings.TrimSpace(p.Website)
	p.DocsURL = strings.TrimSpace(p.DocsURL)
	p.GitHubURL = strings.TrimSpace(p.GitHubURL)
	if p.Name == "" {
		return ErrInvalidIdentifier
	}
	return nil
}

// Fingerprint is the cache key for an analysis of this project.
func (p ProjectIdentifier) Fingerprint() string {
	return "analysis:" + p.Name
}

// HasRepository reports whether the code stage should run.
func (p ProjectIdentifier) HasRepository() bool {
	return p.GitHubURL != ""
}

// Narrative is the market category a project positions itself in.
type Narrative string

const (
	NarrativeInfrastructure   Narrative = "Infrastructure"
	NarrativeDeFi             Narrative = "DeFi"
	NarrativeModular          Narrative = "Modular"
	NarrativeStablecoin       Narrative = "Stablecoin"
	NarrativeAI               Narrative = "AI"
	NarrativeRWA              Narrative = "RWA"
	NarrativeGaming           Narrative = "Gaming"
	NarrativeSocial           Narrative = "Social"
	NarrativePrivacy          Narrative = "Privacy"
	NarrativeL1               Narrative = "L1"
	NarrativeL2               Narrative = "L2"
	NarrativeInteroperability Narrative = "Interoperability"
	NarrativeOracle           Narrative = "Oracle"
	NarrativeStorage          Narrative = "Storage"
	NarrativeUnknown          Narrative = "Unknown"
)

var knownNarratives = map[Narrative]struct{}{
	NarrativeInfrastructure: {}, NarrativeDeFi: {}, NarrativeModular: {}, NarrativeStablecoin: {},
	NarrativeAI: {}, NarrativeRWA: {}, NarrativeGaming: {}, NarrativeSocial: {}, NarrativePrivacy: {},
	NarrativeL1: {}, NarrativeL2: {}, NarrativeInteroperability: {}, NarrativeOracle: {},
	NarrativeStorage: {}, NarrativeUnknown: {},
}

// Normalize maps values outside the closed set to NarrativeUnknown.
func (n Narrative) Normalize() Narrative {
	if _, ok := knownNarratives[n]; ok {
		return n
	}
	return NarrativeUnknown
}
