package governance

import (
	"context"
	"testing"
)

func TestDefaultPolicyEngine_Evaluate(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	ctx := context.Background()

	// Test Allow (Default)
	req1 := Request{Tool: "search"}
	res1, err := engine.Evaluate(ctx, req1)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res1.Effect != EffectAllow {
		t.Errorf("Expected EffectAllow, got %s", res1.Effect)
	}

	// Test Deny
	engine.DenyTool("shell")
	req2 := Request{Tool: "shell"}
	res2, err := engine.Evaluate(ctx, req2)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res2.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny, got %s", res2.Effect)
	}
}

func TestDefaultPolicyEngine_DenyArguments(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	if err := engine.DenyArguments(`rm\s+-rf`); err != nil {
		t.Fatalf("DenyArguments failed: %v", err)
	}
	if err := engine.DenyArguments(`[broken`); err == nil {
		t.Error("expected an error for an invalid pattern")
	}

	res, err := engine.Evaluate(context.Background(), Request{
		Tool:      "shell",
		Arguments: `{"command": "rm -rf /tmp/x"}`,
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny, got %s", res.Effect)
	}
}

func TestSafetyPolicy(t *testing.T) {
	engine := NewSafetyPolicy()
	ctx := context.Background()

	denied := []string{
		`{"command": "sudo rm -rf /"}`,
		`{"command": "mkfs.ext4 /dev/sda1"}`,
		`{"command": ":(){ :|:& };:"}`,
		`{"command": "shutdown -h now"}`,
		`{"command": "echo x > /dev/sda"}`,
	}
	for _, args := range denied {
		res, err := engine.Evaluate(ctx, Request{Tool: "shell", Arguments: args})
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if res.Effect != EffectDeny {
			t.Errorf("Expected EffectDeny for %s, got %s", args, res.Effect)
		}
	}

	allowed := []string{
		`{"command": "ls -la"}`,
		`{"command": "grep TODO notes.txt"}`,
		`{"path": "report.txt", "content": "quarterly numbers"}`,
	}
	for _, args := range allowed {
		res, err := engine.Evaluate(ctx, Request{Tool: "shell", Arguments: args})
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if res.Effect != EffectAllow {
			t.Errorf("Expected EffectAllow for %s, got %s (%s)", args, res.Effect, res.Reason)
		}
	}
}
