package config

const (
	defaultStagesDir    = "~/.local/share/happytube/stages"
	defaultAnalyticsDir = "~/.local/share/happytube/analytics"
	defaultLogDir       = "~/.local/share/happytube/logs"

	defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"
	defaultSearchName     = "default"

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-3-flash-preview"
	defaultLLMTimeoutSeconds = 120

	defaultHappinessThreshold = 3
	defaultBatchSize          = 10
	defaultDaysBack           = 7
	defaultMaxVideos          = 50
	defaultAssessPrompt       = "rate_video_happiness"
	defaultEnhancePrompt      = "make_description_meaningful"

	defaultNotifyRequestTimeout = 10

	defaultLogFormat = "auto"
	defaultLogLevel  = "info"
)

const assessPromptTemplate = `Rate the happiness of the videos provided in the list, there is always id, title, description.
The rating should be from 1 to 5, where 1 is the least happy and 5 is the happiest.
For each item add a short reasoning sentence explaining the rating.
Respond with JSON only (no extra text): a list of objects with "id", "happiness" and "reasoning".`

const enhancePromptTemplate = `The next text is a JSON list of videos, there is always id and description.
Determine the language of each description.
For descriptions in English, remove all text that does not actually describe the video, such as calls to subscribe or visit a page (a sentence containing a link is most likely not describing the video).
Otherwise leave the description intact, including emoticons.
Respond with JSON only (no extra text): a list of objects with "id", "language" and "description_improved".`

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagesDir:    defaultStagesDir,
			AnalyticsDir: defaultAnalyticsDir,
			LogDir:       defaultLogDir,
		},
		YouTube: YouTube{
			BaseURL:       defaultYouTubeBaseURL,
			DefaultSearch: defaultSearchName,
			Searches: map[string]Search{
				defaultSearchName: {
					Region:            "CZ",
					CategoryID:        "15",
					Order:             "viewCount",
					SafeSearch:        "strict",
					Duration:          "medium",
					RelevanceLanguage: "en",
					MaxResults:        50,
				},
			},
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Prompts: map[string]Prompt{
			defaultAssessPrompt: {
				Version:   3,
				MaxTokens: 4096,
				Template:  assessPromptTemplate,
			},
			defaultEnhancePrompt: {
				Version:   2,
				MaxTokens: 8192,
				Template:  enhancePromptTemplate,
			},
		},
		Processing: Processing{
			HappinessThreshold: defaultHappinessThreshold,
			BatchSize:          defaultBatchSize,
			DaysBack:           defaultDaysBack,
			MaxVideos:          defaultMaxVideos,
			AssessPrompt:       defaultAssessPrompt,
			EnhancePrompt:      defaultEnhancePrompt,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
