package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Structure is the planned shape of a script: ordered sections holding ordered
// named segments.
type Structure struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section is one sub-section of the planned script.
type Section struct {
	Heading  string        `json:"heading"`
	Segments []SegmentPlan `json:"segments"`
}

// SegmentPlan names one segment, the voice that narrates it, and a brief for
// the body generation call.
type SegmentPlan struct {
	Name    string `json:"name"`
	VoiceID string `json:"voice_id"`
	Brief   string `json:"brief"`
}

// Segment is a fully generated segment: the plan plus its narration text.
type Segment struct {
	Name    string
	VoiceID string
	Text    string
}

// Script is the complete output of a generation run.
type Script struct {
	Title    string
	Sections []ScriptSection
}

// ScriptSection pairs a section heading with its generated segments in
// insertion order.
type ScriptSection struct {
	Heading  string
	Segments []Segment
}

// GenerateStructure plans the script for a prompt within the structure timeout.
func (c *Client) GenerateStructure(ctx context.Context, prompt string) (Structure, error) {
	var structure Structure
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return structure, errors.New("llm generate: prompt required")
	}

	if c.cfg.StructureTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.StructureTimeoutSeconds)*time.Second)
		defer cancel()
	}

	content, err := c.CompleteJSON(ctx, structurePrompt, prompt)
	if err != nil {
		return structure, fmt.Errorf("llm generate: structure: %w", err)
	}
	if err := DecodeLLMJSON(content, &structure); err != nil {
		return structure, fmt.Errorf("llm generate: parse structure: %w", err)
	}
	if len(structure.Sections) == 0 {
		return structure, errors.New("llm generate: structure has no sections")
	}
	return structure, nil
}

// GenerateSegment produces the narration text for a single planned segment.
func (c *Client) GenerateSegment(ctx context.Context, title string, section Section, plan SegmentPlan) (string, error) {
	if c.cfg.SegmentTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.SegmentTimeoutSeconds)*time.Second)
		defer cancel()
	}

	user := fmt.Sprintf("Script: %s\nSection: %s\nSegment: %s\nBrief: %s",
		title, section.Heading, plan.Name, plan.Brief)
	text, err := c.CompleteText(ctx, segmentPrompt, user)
	if err != nil {
		return "", fmt.Errorf("llm generate: segment %q: %w", plan.Name, err)
	}
	return strings.TrimSpace(text), nil
}

// GenerateScript runs the full generation for a prompt: one structure call,
// then one completion per planned segment with bounded concurrency. Any
// segment failure fails the whole run; partial results are discarded and the
// returned error aggregates every failed segment.
func (c *Client) GenerateScript(ctx context.Context, prompt string) (Script, error) {
	var script Script

	structure, err := c.GenerateStructure(ctx, prompt)
	if err != nil {
		return script, err
	}

	type slot struct {
		section int
		segment int
	}
	var slots []slot
	for si, section := range structure.Sections {
		for gi := range section.Segments {
			slots = append(slots, slot{section: si, segment: gi})
		}
	}
	if len(slots) == 0 {
		return script, errors.New("llm generate: structure has no segments")
	}

	texts := make([]string, len(slots))
	segErrs := make([]error, len(slots))

	group, groupCtx := errgroup.WithContext(ctx)
	limit := c.cfg.MaxConcurrentSegments
	if limit <= 0 {
		limit = 1
	}
	group.SetLimit(limit)

	for i, sl := range slots {
		group.Go(func() error {
			section := structure.Sections[sl.section]
			plan := section.Segments[sl.segment]
			text, err := c.GenerateSegment(groupCtx, structure.Title, section, plan)
			if err != nil {
				segErrs[i] = err
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if waitErr := group.Wait(); waitErr != nil {
		var failures []error
		for _, err := range segErrs {
			if err != nil {
				failures = append(failures, err)
			}
		}
		if len(failures) == 0 {
			failures = append(failures, waitErr)
		}
		return script, fmt.Errorf("llm generate: %d of %d segments failed: %w",
			len(failures), len(slots), errors.Join(failures...))
	}

	script.Title = strings.TrimSpace(structure.Title)
	script.Sections = make([]ScriptSection, len(structure.Sections))
	for si, section := range structure.Sections {
		script.Sections[si].Heading = section.Heading
	}
	for i, sl := range slots {
		plan := structure.Sections[sl.section].Segments[sl.segment]
		script.Sections[sl.section].Segments = append(script.Sections[sl.section].Segments, Segment{
			Name:    strings.TrimSpace(plan.Name),
			VoiceID: strings.TrimSpace(plan.VoiceID),
			Text:    texts[i],
		})
	}
	return script, nil
}
