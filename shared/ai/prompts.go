package ai

import (
	"fmt"
	"strings"
)

const searchPromptTemplate = `Use Google Search to look up this YouTube video: %s

Report:
1. The exact video title.
2. The official channel or podcast name (for example "How I AI" or "Lenny's Podcast").
3. The upload date in YYYY-MM-DD format.
4. Every software tool, AI model, developer platform or productivity app mentioned in the episode.
   Check the description for sections such as "Tools referenced".
5. The YouTube video id taken from the URL.

EXCLUDE:
- Sponsors and advertisers, including anything listed under "Brought to you by" or "Sponsors".
- Non-software references: books, films, documentaries, people, organizations, museums, events.
- Reference lists such as "Other references" or "Suggested watching" when they hold non-software items.

Only software products belong in the tool list (for example ChatGPT, Claude, Cursor, GitHub, Whisper).`

const structurePromptTemplate = `Convert the search findings below into the JSON object described by the response schema.

FILTERING:
- Keep AI models, SaaS products, mobile apps, developer tools and software platforms referenced in the episode.
- Drop sponsors and advertisers.
- Drop documentaries, movies, books, people, general organizations and historical events.
- For every kept tool give its official URL, a one-sentence description and a short category.
- Build thumbnailUrl as https://img.youtube.com/vi/<VIDEO_ID>/maxresdefault.jpg
- Write uploadDate as YYYY-MM-DD.

Search findings:
%s
%s
Video URL: %s`

func buildSearchPrompt(url string) string {
	return fmt.Sprintf(searchPromptTemplate, url)
}

func buildStructurePrompt(f *SearchFindings) string {
	var extra strings.Builder
	if f.VideoID != "" {
		fmt.Fprintf(&extra, "\nVideo ID: %s\n", f.VideoID)
	}
	if len(f.Sources) > 0 {
		extra.WriteString("\nSources:\n")
		for _, s := range f.Sources {
			fmt.Fprintf(&extra, "- %s (%s)\n", s.Title, s.URI)
		}
	}
	return fmt.Sprintf(structurePromptTemplate, f.Text, extra.String(), f.URL)
}
