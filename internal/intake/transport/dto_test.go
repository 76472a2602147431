package transport

import (
	"encoding/json"
	"testing"

	"fieldvoice_backend/internal/intake/workflow"
)

func TestPermsKeepsFlagsAndAcceptsNumericValues(t *testing.T) {
	payload := `{
		"message_id": "6b4a1f66-9c1a-4f6e-9a1c-2f3d4e5a6b7c",
		"audio_url": "https://gateway.example/audio/abc",
		"customer_phone": "+5493874475398",
		"organization_id": "0f2a3b4c-5d6e-4f70-8a9b-0c1d2e3f4a5b",
		"permissions": {
			"translateMessages": false,
			"autoApproveSmallPriceAdjustments": true,
			"autoApproveThresholdPercent": 10
		}
	}`

	var req ProcessVoiceRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	perms := req.Perms()
	if perms.Enabled(workflow.PermTranslateMessages) {
		t.Fatal("expected translateMessages disabled")
	}
	if !perms.Enabled(workflow.PermAutoApproveSmallAdjustments) {
		t.Fatal("expected auto-approve granted")
	}
	if _, ok := perms[workflow.PermAutoApproveThresholdPct]; ok {
		t.Fatal("expected numeric threshold excluded from the flag map")
	}
}

func TestPermsEmptyIsNil(t *testing.T) {
	var req ProcessVoiceRequest
	if req.Perms() != nil {
		t.Fatal("expected nil permissions for empty request")
	}
}
