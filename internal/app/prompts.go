package app

import "fmt"

const summarizePrompt = `Summarize the following notes clearly in plain text:

- Use numbered sections and subpoints.
- Add line spacing between major sections.
- Break into paragraphs for readability.
- Avoid Markdown symbols like ** or ##.
- Make it well-structured for easy reading by students.

Here are the notes:

%s`

const documentSummaryPrompt = `Please summarize the following document content into clean, well-organized plain text.

Formatting Rules:
- Use numbered sections like 1., 2., etc.
- Each section should have a short heading/title.
- Make the heading appear on its own line (before the paragraph).
- Do NOT use markdown symbols (*, **, #, -, etc.)
- Leave a blank line after each paragraph for readability.

Example format:

1. Disk Structure
Disk drives are organized as large one-dimensional arrays...

2. Disk Scheduling
Various disk scheduling algorithms exist...

Here is the content:

%s`

const structuredSummarySystemPrompt = `You are a helpful assistant that summarizes text. Provide the following:
1. A title (3-8 words)
2. A summary (100-150 words)
3. A list of 3-5 key topics
4. Approximate word count of the original text.

Respond with JSON only, like this:
{
  "title": "...",
  "summary": "...",
  "keyTopics": ["...", "..."],
  "wordCount": 123
}`

const answerSystemPrompt = `You are a helpful assistant that answers questions using only the provided document content.
For list-based questions put each point on its own numbered line. For conceptual questions write a concise, well-structured paragraph.
Respond with JSON only:
{
  "answer": "...",
  "confidence": "high" | "medium" | "low"
}`

const examQuestionsPrompt = `You're a teacher preparing exam questions.
From the following notes, generate 5 clear questions students may be asked in an exam.

NOTES:
%s

Only return questions numbered like:
1. ...
2. ...
3. ...
4. ...
5. ...`

const titlePrompt = `Suggest a short title of 2 to 3 words for the study material below.
Reply with the title only: no quotes, no numbering, no punctuation at the end.

%s`

const (
	assistantSystemPrompt = "You are a helpful AI assistant."
	academicSystemPrompt  = "You are a helpful academic assistant."
)

// Reverse-learning modes.
const (
	ModeConcept     = "concept"
	ModeQuestion    = "question"
	ModeExplanation = "explanation"
)

var reverseLearnPrompts = map[string]string{
	ModeConcept: `You are an expert teacher. Your task is to reverse-engineer the following concept or conclusion into its foundational understanding.

Steps:
1. Show the final concept or conclusion.
2. Work backward to the intermediate idea(s).
3. Break it down into the most basic, foundational knowledge.

Concept to reverse:
"%s"`,
	ModeQuestion: `You are a question generation assistant. Based on the following answer or explanation, generate 5 thoughtful and challenging questions.

Answer:
"%s"

Make sure the questions are:
- Diverse (why, how, what-if, etc.)
- Insightful
- Designed to promote deep thinking`,
	ModeExplanation: `You are a helpful tutor. Your task is to break down the following complex explanation into 3 simplified parts:
1. A high-level overview in layman's terms.
2. Key components or concepts involved.
3. A simple analogy or real-world example.

Explanation to simplify:
"%s"`,
}

func answerUserPrompt(document, question string) string {
	return fmt.Sprintf("Document content:\n%s\n\nQuestion: %s", document, question)
}
