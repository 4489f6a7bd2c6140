package zai

import "github.com/petal-labs/zai-go/core"

// Model constants for Z.ai GLM models.
const (
	// GLM-4.7 series
	ModelGLM47      core.ModelID = "glm-4.7"
	ModelGLM47Flash core.ModelID = "glm-4.7-flash"

	// GLM-4.6 series
	ModelGLM46       core.ModelID = "glm-4.6"
	ModelGLM46V      core.ModelID = "glm-4.6v"
	ModelGLM46VFlash core.ModelID = "glm-4.6v-flash"

	// GLM-4.5 series
	ModelGLM45      core.ModelID = "glm-4.5"
	ModelGLM45V     core.ModelID = "glm-4.5v"
	ModelGLM45Air   core.ModelID = "glm-4.5-air"
	ModelGLM45AirX  core.ModelID = "glm-4.5-airx"
	ModelGLM45Flash core.ModelID = "glm-4.5-flash"

	// Audio
	ModelGLM4Voice core.ModelID = "glm-4-voice"

	// Realtime
	ModelGLMRealtime      core.ModelID = "glm-realtime"
	ModelGLMRealtimeFlash core.ModelID = "glm-realtime-flash"
	ModelGLMRealtimeAir   core.ModelID = "glm-realtime-air"
)

var (
	textCaps = []core.Feature{
		core.FeatureChat,
		core.FeatureChatStreaming,
		core.FeatureToolCalling,
	}
	reasoningCaps = append(textCaps[:len(textCaps):len(textCaps)], core.FeatureReasoning)
	visionCaps    = append(reasoningCaps[:len(reasoningCaps):len(reasoningCaps)], core.FeatureVision, core.FeatureVideo)
	realtimeCaps  = []core.Feature{core.FeatureRealtime, core.FeatureAudio, core.FeatureToolCalling}
)

// models is the static list of supported models.
var models = []core.ModelInfo{
	{ID: ModelGLM47, DisplayName: "GLM-4.7", Capabilities: reasoningCaps},
	{ID: ModelGLM47Flash, DisplayName: "GLM-4.7 Flash", Capabilities: textCaps},
	{ID: ModelGLM46, DisplayName: "GLM-4.6", Capabilities: reasoningCaps},
	{ID: ModelGLM46V, DisplayName: "GLM-4.6V", Capabilities: visionCaps},
	{ID: ModelGLM46VFlash, DisplayName: "GLM-4.6V Flash", Capabilities: visionCaps},
	{ID: ModelGLM45, DisplayName: "GLM-4.5", Capabilities: reasoningCaps},
	{ID: ModelGLM45V, DisplayName: "GLM-4.5V", Capabilities: visionCaps},
	{ID: ModelGLM45Air, DisplayName: "GLM-4.5 Air", Capabilities: reasoningCaps},
	{ID: ModelGLM45AirX, DisplayName: "GLM-4.5 AirX", Capabilities: reasoningCaps},
	{ID: ModelGLM45Flash, DisplayName: "GLM-4.5 Flash", Capabilities: textCaps},
	{
		ID:           ModelGLM4Voice,
		DisplayName:  "GLM-4-Voice",
		Capabilities: []core.Feature{core.FeatureChat, core.FeatureChatStreaming, core.FeatureAudio},
	},
	{ID: ModelGLMRealtime, DisplayName: "GLM-Realtime", Capabilities: realtimeCaps},
	{ID: ModelGLMRealtimeFlash, DisplayName: "GLM-Realtime Flash", Capabilities: realtimeCaps},
	{ID: ModelGLMRealtimeAir, DisplayName: "GLM-Realtime Air", Capabilities: realtimeCaps},
}

// modelRegistry is a map for quick model lookup by ID.
var modelRegistry = buildModelRegistry()

func buildModelRegistry() map[core.ModelID]*core.ModelInfo {
	registry := make(map[core.ModelID]*core.ModelInfo, len(models))
	for i := range models {
		registry[models[i].ID] = &models[i]
	}
	return registry
}

// GetModelInfo returns the ModelInfo for a given model ID, or nil if not found.
func GetModelInfo(id core.ModelID) *core.ModelInfo {
	return modelRegistry[id]
}
