package llm

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"strings"
)

//go:embed prompts/analysis.txt
var analysisTemplate string

// BuildAnalysisPrompt renders the analysis instructions for resumeText and industry.
// Placeholders are substituted in a single pass, so text inside the resume is never re-expanded.
func BuildAnalysisPrompt(resumeText, industry string) string {
	r := strings.NewReplacer(
		"{{industry}}", industry,
		"{{resume_text}}", resumeText,
	)
	return r.Replace(analysisTemplate)
}

// PromptHash returns the hex sha256 of prompt.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
