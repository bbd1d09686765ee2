package languages

import "testing"

func TestLookupMapsPortugueseToRegionalDeepgramCode(t *testing.T) {
	language, ok := Lookup("pt")
	if !ok {
		t.Fatalf("expected pt to be registered")
	}

	if language.DeepgramCode != "pt-BR" {
		t.Fatalf("expected pt to map to pt-BR, got %q", language.DeepgramCode)
	}
}

func TestIsSupportedRejectsMultilingualMode(t *testing.T) {
	if IsSupported(Multilingual) {
		t.Fatalf("expected multilingual mode to not be a commit target")
	}

	if !IsSupported("ru") {
		t.Fatalf("expected ru to be supported")
	}
}

func TestCodesAreStableAndComplete(t *testing.T) {
	codes := Codes()
	if len(codes) != len(registry) {
		t.Fatalf("expected %d codes, got %d", len(registry), len(codes))
	}

	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("expected sorted codes, got %v", codes)
		}
	}
}
