// Package services holds the shared plumbing for external collaborator
// clients: the error taxonomy used to classify stage failures and the
// context annotations that tag log lines with job, stage, and request
// identifiers. Concrete clients live in subpackages (llm, voice, render).
package services
