package llm

import (
	"fmt"
	"strings"
)

const profilePromptTemplate = `You are an expert social media analyst. Your task is to analyze the following %s profile link using Google Search to find the most current public data.

Target URL: %s

Please find or estimate the following information:
1. Account Name (The display name of the channel/profile).
2. Follower/Subscriber Count (e.g., "1.2M", "500K").
3. Content Keywords:
   - If gaming: Name the specific game(s) (e.g., "Minecraft", "Genshin Impact"). If varied, summarize the style (e.g., "Variety Gaming", "FPS Highlights").
   - If non-gaming: Summarize the niche (e.g., "Beauty & Makeup", "Automotive Reviews", "Lifestyle Vlog").
4. Average Views of Last 5 Videos: Estimate the average view count for recent videos based on available search data or recent activity tracking sites.
5. Audience Gender Ratio: Analyze the content style, comment sections (if summaries are available in search), and typical demographics for this niche. Provide an estimated ratio (e.g., "Male 60%% / Female 40%%").
6. Gender Reasoning: Briefly explain why you estimated this ratio (e.g., "Makeup tutorials typically attract a female-majority audience", "Comments discuss men's fashion").

Use the Google Search tool to ensure data is up-to-date.`

const jsonOnlySuffix = `

Respond with a single JSON object with exactly these string fields: %s. Do not wrap it in markdown.`

// BuildProfilePrompt renders the analyst instruction for one profile.
func BuildProfilePrompt(input ProfileInput) string {
	platform := strings.TrimSpace(input.Platform)
	if platform == "" {
		platform = "Social Media"
	}
	return fmt.Sprintf(profilePromptTemplate, platform, strings.TrimSpace(input.URL))
}

// BuildJSONOnlyPrompt renders the instruction for providers without native response schemas.
func BuildJSONOnlyPrompt(input ProfileInput) string {
	return BuildProfilePrompt(input) + fmt.Sprintf(jsonOnlySuffix, strings.Join(SchemaFields, ", "))
}
