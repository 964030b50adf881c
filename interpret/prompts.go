package interpret

import (
	"fmt"
	"strings"
)

// LeadIn opens every sub-query.
const LeadIn = "In the dream"

// Fixed user-facing texts.
const (
	NoSuitableInterpretation = "Unfortunately, no suitable interpretation was found for your dream."
	OutputIntro              = "Here is how the elements of your dream can be interpreted:"
	NoGeneralInterpretation  = "A general interpretation cannot be given because no suitable interpretations were found."
	OverallHeading           = "**Overall Interpretation of Your Dream**:"
	ProcessingFailed         = "An error occurred while processing your dream. Please try again later."
	summaryFailedPrefix      = "The overall interpretation could not be generated: "
)

const InterpretSystemPrompt = `You are an expert in Islamic dream interpretation. Based on the dream you are given and the related interpretations that were found, you write an overall interpretation of the dream. Use only the interpretation information provided and do not add outside knowledge. If an element has no interpretation or the interpretations conflict, say so. Answer in a natural, fluent and respectful tone.`

const RewriteSystemPrompt = `You are a helpful assistant. Your task is to analyse the dream text the user gives you, identify the main elements seen in the dream and produce queries for them. For each element create several natural queries in the format 'In the dream <element> <action>'. Also produce variants of these queries with descriptive details that fit the user's dream. Answer only with the list of queries, one per line. Do not explain, only produce the queries.`

const rewritePromptTemplate = `Identify the **key elements** of the dream (objects, beings such as people, animals or mythological figures, places, events, emotions) and the **actions or states** tied to them (seeing, doing, being, feeling). Analyse the text and produce suitable queries for each element. Every query must follow the format "In the dream <element> <action>" and be written on its own line. Also add variants with descriptive details that FIT THE USER'S DREAM. Answer only with the list of queries, one per line. Do not explain, only produce the queries: %s`

const arbiterPromptHeader = `USER'S DREAM: '%s'

For each 'Query' below, evaluate the 'Passage' found by each of the models presented.
Your task is to choose, for each 'Query', the model whose 'Passage' is most appropriate and most semantically relevant to the USER'S DREAM.
If a model's 'Passage' looks completely unrelated to the USER'S DREAM or to the query, leave that model out.
If no model found a suitable or relevant 'Passage' for a 'Query', mark that query as 'None'.

Queries and model interpretations:
`

const arbiterPromptFooter = `Answer only in the following format (one selection per line):
Query 1: [model number]
Query 2: [model number]
...
If no suitable interpretation was found for a query or there is no relevant 'Passage', write 'Query X: None' for it.`

const noCandidatesLine = "No model found an interpretation for this query."

const summaryPromptTemplate = `The user's dream: '%s'.
Using the dream interpretations below, write an overall interpretation of the dream in fluent language. Stay faithful to the given interpretations only; do not add outside knowledge or personal commentary.

Interpretations found:
%s

Overall interpretation of the dream:`

func rewritePrompt(narrative string) string {
	return fmt.Sprintf(rewritePromptTemplate, narrative)
}

func summaryPrompt(narrative string, interpretations []string) string {
	lines := make([]string, len(interpretations))
	for i, interp := range interpretations {
		lines[i] = "- " + interp
	}
	return fmt.Sprintf(summaryPromptTemplate, narrative, strings.Join(lines, "\n"))
}

// excerpt shortens s to at most limit runes, marking the cut.
func excerpt(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
