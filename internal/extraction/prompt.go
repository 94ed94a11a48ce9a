package extraction

import "strings"

// SystemPrompt is the instruction shared by every LLM-backed extractor.
const SystemPrompt = `You analyze how a software developer describes themselves and turn it into data for a GitHub profile README.

Return a single JSON object with these keys:
- "summary": a professional summary in English, 2 to 4 sentences, written in the first person. Open with the role and experience, then the main areas of expertise.
- "skills": technical skills, frameworks and concepts (e.g. "react", "machine learning", "rest apis").
- "tools": tools, platforms and services (e.g. "docker", "git", "aws").
- "languages": programming languages only (e.g. "python", "go", "typescript").
- "currently_working_on": what they are building now, or null.
- "currently_learning": what they are learning now, or null.
- "open_to": opportunities they are open to, or null.
- "fun_fact": a personal detail worth sharing, or null.

Rules:
- Only include items the person actually mentions. Do not infer or invent technologies.
- Use short lowercase canonical names ("javascript", not "JavaScript (ES6)").
- Translate non-English input to English.
- Use an empty array when a category has no entries.
- Respond with the JSON object only. No markdown fences, no commentary.`

// TranscriptionPrompt asks a multimodal model for a verbatim transcript.
const TranscriptionPrompt = `Transcribe this voice message verbatim. Return only the spoken words as plain text, with no timestamps, labels or commentary. Keep technology names in their usual spelling.`

// BuildPrompt wraps the user's self-description for an extractor.
func BuildPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Self-description:\n\"\"\"\n")
	sb.WriteString(strings.TrimSpace(text))
	sb.WriteString("\n\"\"\"\n\nReturn the JSON object now.")
	return sb.String()
}
