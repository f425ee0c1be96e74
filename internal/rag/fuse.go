package rag

import "strings"

// FuseContext merges document and web evidence into one labeled context
// block: a [Documents] section then a [Web] section, joined by blank lines.
// Empty sections are omitted entirely; with no evidence at all the fused
// context is the empty string and generation proceeds on absence of context.
func FuseContext(docSources, webSources []string) string {
	var parts []string
	if len(docSources) > 0 {
		parts = append(parts, "[Documents]\n"+strings.Join(docSources, "\n\n"))
	}
	if len(webSources) > 0 {
		parts = append(parts, "[Web]\n"+strings.Join(webSources, "\n\n"))
	}
	return strings.Join(parts, "\n\n")
}
