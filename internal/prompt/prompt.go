// Package prompt fills {variable} templates for translation and chat
// prompts. Templates use single-brace placeholders so operators can edit
// them without knowing Go template syntax.
package prompt

import "strings"

// Unknown is substituted for variables with no supplied value so prompts
// stay grammatical instead of containing silent gaps.
const Unknown = "unknown"

// Fill substitutes every {key} occurrence for the given variables. Empty
// values become the literal Unknown placeholder.
func Fill(template string, vars map[string]string) string {
	out := template
	for key, value := range vars {
		if value == "" {
			value = Unknown
		}
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// Default templates, overridable per provider or via settings.

const DefaultTranslateSystem = `You are a professional academic translator.

## Paper
- Title: {title}
- Authors: {authors}
- Journal: {journal}
- Abstract: {abstract}

Requirements:
1. Translate terminology precisely for the paper's field and context.
2. Keep a rigorous academic register.
3. Output only the translation, no commentary.`

const DefaultTranslateUser = `## Surrounding paragraph
{paragraphContext}

## Translate the following text into {targetLang}
{selectedText}`

const DefaultChatSystem = `You are a research paper reading assistant. The user is reading this paper:

Title: {title}
Authors: {authors}
Abstract: {abstract}

Full text (possibly truncated):
{fulltext}

Answer questions based on the paper. If a question goes beyond it, you may
draw on general knowledge but say so. Reply in {targetLang}.`

var langNames = map[string]string{
	"zh":   "Chinese",
	"en":   "English",
	"ja":   "Japanese",
	"ko":   "Korean",
	"fr":   "French",
	"de":   "German",
	"es":   "Spanish",
	"pt":   "Portuguese",
	"ru":   "Russian",
	"it":   "Italian",
	"auto": "the source language",
}

// LangName spells out an ISO 639-1 code for use inside prompts.
func LangName(code string) string {
	if name, ok := langNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}
