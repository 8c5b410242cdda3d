// Package types holds the conversation types shared by the interview
// controller and the generation adapter.
package types

import (
	"fmt"
	"strings"
)

// Role identifies who produced a message.
type Role string

const (
	// RoleAssistant marks messages produced by the language model.
	RoleAssistant Role = "assistant"
	// RoleUser marks transcribed candidate answers.
	RoleUser Role = "user"
	// RoleSystem is accepted when decoding transcripts but never produced
	// by the controller. Analysis prompts skip it.
	RoleSystem Role = "system"
)

// Message is one turn in the interview conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Domain is the professional field the mock interview targets.
type Domain string

// The fixed set of interview domains, in display order.
const (
	DomainSoftwareDevelopment Domain = "Software Development"
	DomainDataScience         Domain = "Data Science"
	DomainDevOps              Domain = "DevOps"
	DomainMachineLearning     Domain = "Machine Learning"
	DomainWebDevelopment      Domain = "Web Development"
	DomainCloudComputing      Domain = "Cloud Computing"
	DomainCybersecurity       Domain = "Cybersecurity"
)

var domains = []Domain{
	DomainSoftwareDevelopment,
	DomainDataScience,
	DomainDevOps,
	DomainMachineLearning,
	DomainWebDevelopment,
	DomainCloudComputing,
	DomainCybersecurity,
}

// Domains returns the selectable domains in display order.
func Domains() []Domain {
	out := make([]Domain, len(domains))
	copy(out, domains)
	return out
}

// DefaultDomain is preselected for a fresh session.
func DefaultDomain() Domain {
	return domains[0]
}

// ParseDomain returns the domain matching s. Matching ignores case and
// surrounding whitespace.
func ParseDomain(s string) (Domain, error) {
	s = strings.TrimSpace(s)
	for _, d := range domains {
		if strings.EqualFold(string(d), s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown domain %q", s)
}

// Valid reports whether d is one of the fixed domains.
func (d Domain) Valid() bool {
	for _, known := range domains {
		if d == known {
			return true
		}
	}
	return false
}
