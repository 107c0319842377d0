package ai

import "google.golang.org/genai"

func stringField(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

// extractionSchema constrains the structuring stage to the ExtractionResult
// wire shape. Every field is required.
func extractionSchema() *genai.Schema {
	tool := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        stringField("Product name"),
			"url":         stringField("Official website"),
			"description": stringField("One sentence"),
			"category":    stringField("Short category such as AI Model or Developer Tool"),
		},
		PropertyOrdering: []string{"name", "url", "description", "category"},
		Required:         []string{"name", "url", "description", "category"},
	}

	episode := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"episodeTitle": stringField(""),
			"podcastName":  stringField(""),
			"youtubeUrl":   stringField(""),
			"thumbnailUrl": stringField(""),
			"uploadDate":   stringField("YYYY-MM-DD format"),
			"tools":        {Type: genai.TypeArray, Items: tool},
		},
		PropertyOrdering: []string{"episodeTitle", "podcastName", "youtubeUrl", "thumbnailUrl", "uploadDate", "tools"},
		Required:         []string{"episodeTitle", "podcastName", "youtubeUrl", "thumbnailUrl", "uploadDate", "tools"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"episodes": {Type: genai.TypeArray, Items: episode},
		},
		Required: []string{"episodes"},
	}
}
