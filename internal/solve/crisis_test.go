package solve

import "testing"

func TestDetectCrisisEnglish(t *testing.T) {
	cases := []string{
		"I want to kill myself",
		"Sometimes I think about suicide",
		"there is no reason to live anymore",
		"I've been thinking I'd be better off dead",
	}
	for _, input := range cases {
		check := DetectCrisis(input)
		if !check.Blocked {
			t.Fatalf("expected crisis block for %q", input)
		}
		if check.Reason != "CRISIS" {
			t.Fatalf("reason = %q, want CRISIS", check.Reason)
		}
		if check.MatchedKeyword == "" {
			t.Fatalf("expected matched keyword for %q", input)
		}
	}
}

func TestDetectCrisisSpanish(t *testing.T) {
	check := DetectCrisis("Ya no puedo más, quiero morir")
	if !check.Blocked {
		t.Fatal("expected crisis block for Spanish input")
	}
}

func TestDetectCrisisCaseInsensitive(t *testing.T) {
	if !DetectCrisis("I WANT TO KILL MYSELF").Blocked {
		t.Fatal("expected block regardless of case")
	}
}

func TestDetectCrisisWordBoundary(t *testing.T) {
	// "suicidal" does not contain the whole word "suicide".
	check := DetectCrisis("I read a novel with a suicidal character study")
	if check.Blocked {
		t.Fatalf("unexpected block, matched %q", check.MatchedKeyword)
	}
}

func TestDetectCrisisCleanText(t *testing.T) {
	check := DetectCrisis("I want to improve my work efficiency")
	if check.Blocked {
		t.Fatal("clean text should not block")
	}
	if check.Reason != "" || check.MatchedKeyword != "" {
		t.Fatalf("clean text should carry no reason, got %+v", check)
	}
}

func TestCrisisResponsePayload(t *testing.T) {
	payload := CrisisResponse()
	if !payload.Blocked {
		t.Fatal("payload must be marked blocked")
	}
	if payload.Reason != "CRISIS" {
		t.Fatalf("reason = %q", payload.Reason)
	}
	if payload.Message == "" {
		t.Fatal("message must not be empty")
	}
	if got := payload.Resources["US"]; got != "988" {
		t.Fatalf("US resource = %q, want 988", got)
	}
	if got := payload.Resources["ES"]; got != "717 003 717" {
		t.Fatalf("ES resource = %q, want 717 003 717", got)
	}
}
