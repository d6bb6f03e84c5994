package analysis

import (
	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
)

// responseSchema constrains the model output to the result shape the
// rest of the app consumes. Only "status" is required; every other
// field is optional so an error verdict can omit them.
func responseSchema() *generativelanguagepb.Schema {
	return &generativelanguagepb.Schema{
		Type: generativelanguagepb.Type_OBJECT,
		Properties: map[string]*generativelanguagepb.Schema{
			"status": {
				Type:        generativelanguagepb.Type_STRING,
				Enum:        []string{"success", "error"},
				Description: "Whether the clip could be analyzed.",
			},
			"reason": {
				Type:        generativelanguagepb.Type_STRING,
				Description: "Short explanation when status is error.",
			},
			"detected_action": {
				Type:        generativelanguagepb.Type_STRING,
				Description: "Short label for the recognized drill.",
			},
			"form_score": {
				Type:        generativelanguagepb.Type_INTEGER,
				Description: "Overall technique rating from 1 to 10.",
			},
			"score_label": {
				Type:        generativelanguagepb.Type_STRING,
				Description: "One or two words matching the score.",
			},
			"score_color": {
				Type: generativelanguagepb.Type_STRING,
				Enum: []string{"green", "yellow", "red"},
			},
			"technical_data": {
				Type: generativelanguagepb.Type_OBJECT,
				Properties: map[string]*generativelanguagepb.Schema{
					"torso_angle":       metricSchema("Torso-to-vertical angle in degrees at ball contact."),
					"plant_foot_offset": metricSchema("Plant foot distance from the ball in centimeters."),
				},
			},
			"key_strengths": {
				Type:  generativelanguagepb.Type_ARRAY,
				Items: &generativelanguagepb.Schema{Type: generativelanguagepb.Type_STRING},
			},
			"areas_for_improvement": {
				Type: generativelanguagepb.Type_ARRAY,
				Items: &generativelanguagepb.Schema{
					Type: generativelanguagepb.Type_OBJECT,
					Properties: map[string]*generativelanguagepb.Schema{
						"issue": {Type: generativelanguagepb.Type_STRING},
						"drill": {Type: generativelanguagepb.Type_STRING},
						"instructions": {
							Type:  generativelanguagepb.Type_ARRAY,
							Items: &generativelanguagepb.Schema{Type: generativelanguagepb.Type_STRING},
						},
					},
					Required: []string{"issue", "drill", "instructions"},
				},
			},
			"coaching_tips": {
				Type: generativelanguagepb.Type_OBJECT,
				Properties: map[string]*generativelanguagepb.Schema{
					"en": {Type: generativelanguagepb.Type_STRING},
					"mk": {Type: generativelanguagepb.Type_STRING},
					"es": {Type: generativelanguagepb.Type_STRING},
				},
			},
		},
		Required: []string{"status"},
	}
}

// metricSchema is the shared shape for one measured technique value.
func metricSchema(description string) *generativelanguagepb.Schema {
	return &generativelanguagepb.Schema{
		Type:        generativelanguagepb.Type_OBJECT,
		Description: description,
		Properties: map[string]*generativelanguagepb.Schema{
			"value":  {Type: generativelanguagepb.Type_NUMBER},
			"target": {Type: generativelanguagepb.Type_NUMBER},
			"status": {Type: generativelanguagepb.Type_STRING},
		},
		Required: []string{"value", "target", "status"},
	}
}
