// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Render wraps the synthesized body with a metadata header and a
// generated sources section. The model never writes these: the header
// comes from run metadata and the source list from the evidence set,
// so citations always resolve.
func Render(rep *types.ResearchReport) string {
	var sb strings.Builder
	md := markdown.NewMarkdown(&sb)

	md.H1(rep.Topic)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", rep.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Model", rep.ModelUsed},
			{"Language", rep.Language},
			{"Sources", strconv.Itoa(len(rep.Items))},
			{"Web verified", verifiedText(rep.WebVerified)},
		},
	})
	md.PlainText("")
	md.PlainText(rep.Body)
	md.PlainText("")

	if len(rep.Items) > 0 {
		md.H2("Sources")
		md.PlainText("")
		for i, it := range rep.Items {
			md.PlainTextf("%d. [%s](%s) — reliability %d/100: %s",
				i+1, it.Source, it.URL, it.ReliabilityScore, it.ReliabilityReason)
		}
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainTextf("*Generated by deep-research from %d queries.*", len(rep.Queries))

	// Build writes to sb; with a strings.Builder underneath it cannot
	// fail.
	if err := md.Build(); err != nil {
		return fmt.Sprintf("# %s\n\n%s", rep.Topic, rep.Body)
	}
	return sb.String()
}

func verifiedText(verified bool) string {
	if verified {
		return "yes"
	}
	return "no"
}
