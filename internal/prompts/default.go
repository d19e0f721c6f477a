package prompts

import (
	"fmt"
	"strings"
	"time"
)

type defaultFamily struct{}

func (defaultFamily) SearchQueriesPrompt(query, parentQuery string, maxIterations int) string {
	task := query
	if parentQuery != "" {
		task = fmt.Sprintf("%s - %s", parentQuery, query)
	}
	return fmt.Sprintf(`Write %d google search queries to search online that form an objective opinion from the following task: %q

Assume the current date is %s if required.

You must respond with a JSON array of strings only, in the following format: ["query 1", "query 2", "query 3"].
The response should contain ONLY the array.`,
		maxIterations, task, time.Now().Format("January 2, 2006"))
}

func (defaultFamily) AutoAgentInstructions() string {
	return `This task involves researching a given topic, regardless of its complexity or the availability of a definitive answer. The research is conducted by a specific server, defined by its type and role, with each server requiring distinct instructions.

Examine the topic and determine the field it belongs to, then pick the server type best equipped to research it (for example "Finance Agent", "Travel Agent", "Technology Agent", "Science Agent").

Respond with a JSON object in the following shape and nothing else:
{"server": "<emoji and agent name>", "agent_role_prompt": "<a system prompt describing how this agent researches and writes reports>"}`
}

func (f defaultFamily) ReportPrompt(reportType string, p ReportParams) string {
	switch reportType {
	case ResourceReport:
		return f.resourceReport(p)
	case OutlineReport:
		return f.outlineReport(p)
	case CustomReport:
		return p.CustomPrompt + "\n\nContext:\n" + p.Context
	case SubtopicReport:
		return f.subtopicReport(p)
	default:
		// research_report, deep and multi_agents share the long-form body
		// prompt; their differences live in orchestration, not prompt text.
		return f.researchReport(p)
	}
}

func (f defaultFamily) researchReport(p ReportParams) string {
	return fmt.Sprintf(`Information: %q

Using the above information, answer the following query or task: %q in a detailed report.
The report should focus on the answer to the query, should be well structured, informative, in-depth and comprehensive, with facts and numbers if available and at least %d words.
You should strive to write the report as long as you can using all relevant and necessary information provided.

Please follow all of the following guidelines in your report:
- You MUST determine your own concrete and valid opinion based on the given information. Do NOT defer to general and meaningless conclusions.
- You MUST write the report with markdown syntax and %s format.
- You MUST prioritize the relevance, reliability, and significance of the sources you use.
- You MUST cite search results using inline notations, placed at the end of the sentence or paragraph that references them.
- You MUST write the report in a %s tone.
- You MUST write the report in the following language: %s.
- You MUST NOT include a table of contents. Begin with a top-level header.

Assume the current date is %s.`,
		p.Context, p.Query, p.TotalWords, orDefault(p.ReportFormat, "APA"),
		orDefault(p.Tone, "objective"), orDefault(p.Language, "english"),
		time.Now().Format("January 2, 2006"))
}

func (defaultFamily) resourceReport(p ReportParams) string {
	return fmt.Sprintf(`Information: %q

Based on the above information, generate a bibliography recommendation report for the following question or topic: %q.
The report should provide a detailed analysis of each recommended resource, explaining how each source can contribute to finding answers to the research question.
Focus on the relevance, reliability, and significance of each source.
Ensure that the report is well-structured, informative, in-depth, and follows Markdown syntax.
Include relevant facts, figures, and numbers whenever available.
The report should have a minimum length of %d words.
You MUST include all relevant source urls.`,
		p.Context, p.Query, p.TotalWords)
}

func (defaultFamily) outlineReport(p ReportParams) string {
	return fmt.Sprintf(`Information: %q

Using the above information, generate an outline for a research report in Markdown syntax for the following question or topic: %q.
The outline should provide a well-structured framework, including the main sections, subsections, and key points to be covered.
The research report should be detailed, informative, in-depth, and a minimum of %d words.
Use appropriate Markdown syntax to format the outline and ensure readability.`,
		p.Context, p.Query, p.TotalWords)
}

func (defaultFamily) subtopicReport(p ReportParams) string {
	existing := "None yet."
	if len(p.ExistingHeaders) > 0 {
		existing = "- " + strings.Join(p.ExistingHeaders, "\n- ")
	}
	return fmt.Sprintf(`Context: %q

Main topic: %q
Subtopic: %q

Write a detailed report section on the subtopic under the main topic, using the provided context.
- Focus only on the subtopic; do not repeat content already covered under these existing headers:
%s
- Use markdown syntax with %s format, starting from a second-level header (##) named after the subtopic.
- Write in a %s tone, in the following language: %s.
- Cite sources using inline notations.
- Do not add a conclusion section.

Assume the current date is %s.`,
		p.Context, p.ParentQuery, p.Query, existing,
		orDefault(p.ReportFormat, "APA"), orDefault(p.Tone, "objective"),
		orDefault(p.Language, "english"), time.Now().Format("January 2, 2006"))
}

func (defaultFamily) CurateSourcesPrompt(query, sourcesJSON string, maxResults int) string {
	return fmt.Sprintf(`Your goal is to evaluate and curate the provided scraped content for the research task: %q, keeping only the most relevant sources.

EVALUATION GUIDELINES:
1. Assess each source for credibility, relevance to the query, and information density.
2. Retain sources with statistics, numbers, or concrete data whenever possible.
3. Keep up to %d of the best sources. Fewer is acceptable if quality is low.
4. DO NOT rewrite, summarize or alter the content of retained sources. Keep their fields exactly as given.

SOURCES:
%s

Respond with a JSON array in the EXACT same shape as the input list, containing only the retained sources. Return the JSON and nothing else.`,
		query, maxResults, sourcesJSON)
}

func (defaultFamily) ToolSelectionPrompt(query, toolCatalogue string, maxTools int) string {
	return fmt.Sprintf(`You are selecting tools to research the query: %q

Available tools:
%s

Pick at most %d tools that are most useful for researching this query.
Respond with JSON only, in this exact shape:
{"selected_tools": [{"index": <int>, "relevance": <0-10>, "rationale": "<short reason>"}]}`,
		query, toolCatalogue, maxTools)
}

func (defaultFamily) MCPResearchPrompt(query string, toolNames []string) string {
	return fmt.Sprintf(`Research the following query using the tools available to you: %s

You have access to these tools: %s

Call whichever tools help answer the query, then summarize what you learned.`,
		query, strings.Join(toolNames, ", "))
}

func (defaultFamily) ReportIntroduction(query, context string) string {
	return fmt.Sprintf(`Context: %q

Prepare a detailed report introduction on the topic: %q.
- The introduction should be succinct, well-structured and informative, in markdown syntax.
- Start with a top-level header (#) naming the topic.
- Do not include a table of contents or references.

Assume the current date is %s.`,
		context, query, time.Now().Format("January 2, 2006"))
}

func (defaultFamily) ReportConclusion(query, reportContent string) string {
	return fmt.Sprintf(`Based on the research report below on the topic %q, write a concise conclusion that summarizes the main findings and their implications.

Research report:
%s

- Start the conclusion with a second-level header: ## Conclusion
- If there is no "## Conclusion" section in the report already, write one; otherwise improve it.
- Keep it focused; do not introduce new sources.`,
		query, reportContent)
}

func (defaultFamily) SubtopicsPrompt(query, context string, maxSubtopics int) string {
	return fmt.Sprintf(`Provided the main topic: %q

and research data: %q

Construct a list of subtopics which indicate the headers of a report document to be generated on the task.
- There should be NO more than %d subtopics.
- Each subtopic must be relevant to the main topic and the research data, with no duplicates.
- Order the subtopics by how a coherent report would present them.

Respond with a JSON array of subtopic strings only, for example: ["subtopic 1", "subtopic 2"].`,
		query, context, maxSubtopics)
}

func (defaultFamily) DraftTitlesPrompt(query, parentQuery, context string) string {
	return fmt.Sprintf(`Context: %q

Main topic: %q
Subtopic: %q

Draft section title headers for a report section on the subtopic.
- Titles should be concise and relevant to the subtopic only.
- Respond with a JSON array of title strings only, for example: ["## Title 1", "## Title 2"].`,
		context, parentQuery, query)
}

func (defaultFamily) JoinLocalWebDocuments(docContext, webContext string) string {
	switch {
	case docContext == "":
		return webContext
	case webContext == "":
		return docContext
	default:
		return fmt.Sprintf("Context from local documents: %s\n\nContext from web sources: %s", docContext, webContext)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
