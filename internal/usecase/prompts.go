package usecase

import (
	"encoding/json"
	"strings"
)

const documentationPrompt = `You are a crypto and Web3 research analyst. Assess the project documentation below.

DOCUMENTATION:
{{content}}

Respond with one JSON object shaped like this:
{
  "narrative": "Infrastructure|DeFi|Modular|Stablecoin|AI|RWA|Gaming|Social|Privacy|L1|L2|Interoperability|Oracle|Storage|Unknown",
  "writingQuality": {
    "contextConsistency": 0-100,
    "logicalFlow": 0-100,
    "marketingLanguageDensity": 0-100,
    "aiWritingSignals": {
      "emojiOveruse": true|false,
      "longDashUsage": number,
      "repetitivePhrases": ["..."],
      "genericPhraseCount": number
    },
    "humanVsAIScore": 0-100 (100 means clearly human)
  },
  "hasFundingSignal": true|false,
  "fundingSignals": ["..."],
  "summary": "two or three sentences describing the project"
}

Funding signals include named investors or funds, phrases such as "backed by", "raised", "seed round" or "Series A", investor logos, and token sale or ICO references.

Be decisive. Return only valid JSON.`

const teamExtractionPrompt = `List the team members mentioned in this project documentation.

PROJECT: {{project}}

DOCUMENTATION:
{{content}}

Respond with one JSON object:
{
  "members": [
    {"name": "string", "role": "string or null", "bio": "string or null", "linkedIn": "url or null", "twitter": "handle or null"}
  ]
}

When the documentation names nobody, respond with {"members": []}.`

const teamPrompt = `Evaluate the team behind a crypto and Web3 project.

PROJECT: {{project}}
TEAM:
{{team}}

Respond with one JSON object:
{
  "members": [
    {"name": "string", "role": "string", "previousProjects": ["..."]}
  ],
  "builderPortfolioStrength": 0-100,
  "previousOutcomes": ["..."],
  "yearsInCrypto": number,
  "skillsetAlignment": 0-100
}

Be decisive. Return only valid JSON.`

const codePrompt = `Evaluate the source repository of a crypto and Web3 project.

REPOSITORY:
{{repository}}

Respond with one JSON object:
{
  "commitFrequency": number (average commits per week),
  "commitConsistency": 0-100,
  "prefersManySmallCommits": true|false,
  "activityLevel": "High|Medium|Low|Inactive",
  "contributorDiversity": 0-100,
  "architectureClarity": 0-100,
  "mechanismOriginality": "Common|Iterative|Pioneering",
  "similarProjectsCount": number
}

Be decisive. Return only valid JSON.`

const marketPrompt = `Evaluate the market opportunity of a crypto and Web3 project.

PROJECT: {{project}}
NARRATIVE: {{narrative}}
MARKET DATA:
{{market}}

KNOWN COMPETITORS IN THIS NARRATIVE:
{{competitors}}

Respond with one JSON object:
{
  "problemType": "Niche|Broad",
  "competitors": [
    {"name": "string", "marketCap": number|null, "similarity": 0-100}
  ],
  "differentiationClarity": 0-100,
  "marketSaturation": 0-100,
  "narrativeCycleTiming": "Early|Mid|Late|Post-Peak"
}

Be decisive. Return only valid JSON.`

const ratingPrompt = `Produce the final rating of a crypto and Web3 project from the stage assessments below.

PROJECT: {{project}}

DOCUMENTATION:
{{documentation}}

FUNDING:
{{funding}}

MARKET:
{{market}}

TEAM:
{{team}}

CODE:
{{code}}

Respond with one JSON object:
{
  "consistencyScore": 0-100,
  "opportunityScore": 0-100,
  "executionCredibilityScore": 0-100,
  "finalGrade": "A|B|C|D",
  "strengths": ["..."],
  "risks": ["..."],
  "redFlags": ["..."],
  "asymmetricUpside": "one or two sentences",
  "executiveSummary": "three or four sentences"
}

Grades: A is exceptional on every dimension, B is solid with minor weaknesses, C is average with clear concerns, D is weak with serious red flags.

Be decisive. Return only valid JSON.`

// render fills {{name}} placeholders from alternating name/value pairs.
func render(template string, pairs ...string) string {
	oldnew := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		oldnew = append(oldnew, "{{"+pairs[i]+"}}", pairs[i+1])
	}
	return strings.NewReplacer(oldnew...).Replace(template)
}

// pretty renders v as indented JSON for inclusion in a prompt.
func pretty(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}

// truncateRunes keeps the first limit runes of s, appending marker when
// anything was cut.
func truncateRunes(s string, limit int, marker string) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i] + marker
		}
		count++
	}
	return s
}
