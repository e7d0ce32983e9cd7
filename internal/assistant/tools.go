package assistant

import "github.com/maitri-mission/maitri/pkg/provider/llm"

// Tool names as declared to the model.
const (
	ToolNavigate     = "navigateToScreen"
	ToolLogSymptom   = "logSymptom"
	ToolAddTask      = "addMissionTask"
	ToolOpenCamera   = "openCameraForSymptom"
	ToolSendToFamily = "sendMessageToFamily"
	ToolSensoryScene = "setSensoryImmersion"
)

// knownScreens is the set of UI views the model may navigate to.
var knownScreens = map[string]bool{
	"home":        true,
	"guardian":    true,
	"copilot":     true,
	"storyteller": true,
	"recreation":  true,
	"chat":        true,
	"admin":       true,
}

// Declarations returns the tool schemas offered to the model for both voice
// sessions and text chat.
func Declarations() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        ToolNavigate,
			Description: "Navigate the main interface to a different screen.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"screen": map[string]any{
						"type":        "string",
						"description": "Target screen: home, guardian, copilot, storyteller, recreation, chat, or admin.",
					},
				},
				"required": []string{"screen"},
			},
		},
		{
			Name:        ToolLogSymptom,
			Description: "Record a health symptom reported by the astronaut.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"symptom": map[string]any{
						"type":        "string",
						"description": "The symptom being reported, e.g. 'headache'.",
					},
					"severity": map[string]any{
						"type":        "string",
						"description": "One of: mild, moderate, severe.",
					},
					"notes": map[string]any{
						"type":        "string",
						"description": "Optional free-form notes about the symptom.",
					},
				},
				"required": []string{"symptom", "severity"},
			},
		},
		{
			Name:        ToolAddTask,
			Description: "Add a task to the astronaut's mission schedule.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"time": map[string]any{
						"type":        "string",
						"description": "Scheduled time in 24-hour HH:MM format.",
					},
					"name": map[string]any{
						"type":        "string",
						"description": "Short task description.",
					},
				},
				"required": []string{"time", "name"},
			},
		},
		{
			Name:        ToolOpenCamera,
			Description: "Open the camera to capture photo or video evidence for the most recently logged symptom.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"mediaType": map[string]any{
						"type":        "string",
						"description": "Either 'photo' or 'video'.",
					},
				},
				"required": []string{"mediaType"},
			},
		},
		{
			Name:        ToolSendToFamily,
			Description: "Send a message to the astronaut's family over the Earthlink channel.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"messageContent": map[string]any{
						"type":        "string",
						"description": "The full message text to send.",
					},
				},
				"required": []string{"messageContent"},
			},
		},
		{
			Name:        ToolSensoryScene,
			Description: "Generate an immersive ambient scene from a description and apply its dominant color to the habitat lighting.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"prompt": map[string]any{
						"type":        "string",
						"description": "Description of the desired scene, e.g. 'a rainy forest at night'.",
					},
				},
				"required": []string{"prompt"},
			},
		},
	}
}
