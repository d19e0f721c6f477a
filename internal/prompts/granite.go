package prompts

import "fmt"

// graniteFamily adapts the default prompts for Granite models, which expect
// retrieved documents framed in explicit document blocks rather than quoted
// inline.
type graniteFamily struct {
	defaultFamily
}

func (graniteFamily) JoinLocalWebDocuments(docContext, webContext string) string {
	switch {
	case docContext == "":
		return wrapDocument("web", webContext)
	case webContext == "":
		return wrapDocument("local", docContext)
	default:
		return wrapDocument("local", docContext) + "\n\n" + wrapDocument("web", webContext)
	}
}

func (f graniteFamily) ReportPrompt(reportType string, p ReportParams) string {
	p.Context = wrapDocument("research", p.Context)
	return f.defaultFamily.ReportPrompt(reportType, p)
}

func wrapDocument(name, content string) string {
	if content == "" {
		return ""
	}
	return fmt.Sprintf("<document source=%q>\n%s\n</document>", name, content)
}
