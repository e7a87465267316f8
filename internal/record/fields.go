package record

// Metadata keys shared across pipeline stages. Fetch writes the identifying
// fields; assess and enhance append theirs without touching earlier ones.
const (
	FieldVideoID         = "video_id"
	FieldTitle           = "title"
	FieldChannel         = "channel"
	FieldChannelID       = "channel_id"
	FieldPublishedAt     = "published_at"
	FieldDurationSeconds = "duration_seconds"
	FieldScript          = "script"
	FieldFetchedAt       = "fetched_at"

	FieldHappinessScore     = "happiness_score"
	FieldHappinessReasoning = "happiness_reasoning"
	FieldAssessedAt         = "assessed_at"
	FieldPromptName         = "prompt_name"
	FieldPromptVersion      = "prompt_version"

	FieldEnhancedDescription = "enhanced_description"
	FieldEnhancedAt          = "enhanced_at"
	FieldLanguage            = "language"
)
