package domain

import "time"

// DocumentationContent is a fetched documentation page reduced to text.
type DocumentationContent struct {
	URL       string                 `json:"url"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	Sections  []DocumentationSection `json:"sections"`
	FetchedAt time.Time              `json:"fetchedAt"`
}

// DocumentationSection is a heading found in the documentation.
type DocumentationSection struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
	Level   int    `json:"level"`
}

// RepositoryInfo describes a source repository.
type RepositoryInfo struct {
	Name        string    `json:"name"`
	FullName    string    `json:"fullName"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	OpenIssues  int       `json:"openIssues"`
	Language    string    `json:"language,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	PushedAt    time.Time `json:"pushedAt"`
}

// CommitInfo is one commit, newest first in RawCodeData.Commits.
type CommitInfo struct {
	SHA       string    `json:"sha"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	Date      time.Time `json:"date"`
	Additions int       `json:"additions"`
	Deletions int       `json:"deletions"`
}

// ContributorInfo is one repository contributor.
type ContributorInfo struct {
	Username      string `json:"username"`
	Contributions int    `json:"contributions"`
	ProfileURL    string `json:"profileUrl"`
}

// RawCodeData is everything fetched about a repository.
type RawCodeData struct {
	Repository   RepositoryInfo    `json:"repository"`
	Commits      []CommitInfo      `json:"commits"`
	Contributors []ContributorInfo `json:"contributors"`
	Languages    map[string]int    `json:"languages"`
	TotalCommits int               `json:"totalCommits"`
	Readme       string            `json:"readme,omitempty"`
}

// TeamCandidate is a team member as extracted from raw text.
type TeamCandidate struct {
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	LinkedIn string `json:"linkedIn,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// StoredReport is a persisted completed analysis.
type StoredReport struct {
	RunID          string    `json:"runId"`
	ProjectName    string    `json:"projectName"`
	Grade          Grade     `json:"grade"`
	CompositeScore int       `json:"compositeScore"`
	NoFunding      bool      `json:"noFunding"`
	Payload        string    `json:"payload"`
	CreatedAt      time.Time `json:"createdAt"`
}
