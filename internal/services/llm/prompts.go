package llm

// structurePrompt is the system prompt sent when planning a script. The model
// returns the section/segment skeleton only; segment bodies are generated by
// separate bounded completions.
const structurePrompt = `You are a script planner for narrated video content.

Given a topic prompt, plan a script as an ordered list of sections. Each
section contains an ordered list of named segments. Each segment names the
voice that will narrate it and carries a one-sentence brief describing what the
segment should cover. Do not write the narration itself.

You must respond ONLY with a JSON object like:
{
  "title": "short title for the piece",
  "sections": [
    {
      "heading": "section heading",
      "segments": [
        {"name": "intro", "voice_id": "narrator", "brief": "what this segment covers"}
      ]
    }
  ]
}

Keep segment names unique across the whole script. Now plan a script for this prompt:`

// segmentPrompt is the system prompt sent for each individual segment body.
const segmentPrompt = `You are a narration writer. Write the spoken text for one
segment of a larger script. Write only the words to be read aloud: no headings,
no stage directions, no markdown. Keep the tone consistent with the brief.`
