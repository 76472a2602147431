package workflow

import "testing"

func TestPermissionsDefaults(t *testing.T) {
	var p Permissions

	if !p.Enabled(PermTranslateMessages) {
		t.Fatal("expected translateMessages on by default")
	}
	if p.Enabled(PermAutoApproveSmallAdjustments) {
		t.Fatal("expected autoApproveSmallPriceAdjustments off by default")
	}
}

func TestPermissionsExplicitValuesWin(t *testing.T) {
	p := Permissions{
		PermTranslateMessages:           false,
		PermAutoApproveSmallAdjustments: true,
	}

	if p.Enabled(PermTranslateMessages) {
		t.Fatal("expected explicit false to disable translateMessages")
	}
	if !p.Enabled(PermAutoApproveSmallAdjustments) {
		t.Fatal("expected explicit grant to enable auto-approve")
	}
}
