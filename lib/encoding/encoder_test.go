package encoding

import (
	"errors"
	"strings"
	"testing"
)

type pageState struct {
	Articles []string
	Page     int
	Draft    bool
}

func TestNewEncoder(t *testing.T) {
	// Any key length works (short keys are stretched)
	if _, err := NewEncoder([]byte("short")); err != nil {
		t.Fatalf("NewEncoder with short key failed: %v", err)
	}

	if _, err := NewEncoder([]byte("this-is-a-32-byte-key-for-aes!!!")); err != nil {
		t.Fatalf("NewEncoder with 32-byte key failed: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	enc, err := NewEncoder([]byte("test-key"))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	original := pageState{Articles: []string{"a", "b"}, Page: 3, Draft: true}

	for _, sensitive := range []bool{false, true} {
		encoded, err := enc.Encode(original, sensitive)
		if err != nil {
			t.Fatalf("Encode(sensitive=%v) failed: %v", sensitive, err)
		}
		if strings.Contains(encoded, ".") != !sensitive {
			t.Errorf("Encode(sensitive=%v) = %q, unexpected separator use", sensitive, encoded)
		}

		var decoded pageState
		if err := enc.Decode(encoded, sensitive, &decoded); err != nil {
			t.Fatalf("Decode(sensitive=%v) failed: %v", sensitive, err)
		}
		if decoded.Page != original.Page || decoded.Draft != original.Draft {
			t.Errorf("Decode(sensitive=%v) = %+v, want %+v", sensitive, decoded, original)
		}
		if len(decoded.Articles) != 2 || decoded.Articles[1] != "b" {
			t.Errorf("Decode(sensitive=%v).Articles = %v, want [a b]", sensitive, decoded.Articles)
		}
	}
}

func TestGenericMapRoundTrip(t *testing.T) {
	enc, _ := NewEncoder([]byte("test-key"))

	encoded, err := enc.Encode(map[string]any{"user": map[string]any{"name": "ada"}}, false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded map[string]any
	if err := enc.Decode(encoded, false, &decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	user, ok := decoded["user"].(map[string]any)
	if !ok || user["name"] != "ada" {
		t.Errorf("Decode() = %v, want user.name = ada", decoded)
	}
}

func TestSignatureVerificationFailure(t *testing.T) {
	enc, _ := NewEncoder([]byte("test-key"))

	encoded, err := enc.Encode(pageState{Page: 1}, false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	payload, _, _ := strings.Cut(encoded, ".")
	forged := payload + "." + strings.Repeat("A", 22)

	var decoded pageState
	err = enc.Decode(forged, false, &decoded)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Decode(forged) error = %v, want %v", err, ErrSignatureInvalid)
	}
}

func TestDecryptionFailure(t *testing.T) {
	enc, _ := NewEncoder([]byte("test-key"))

	encoded, err := enc.Encode(pageState{Page: 1}, true)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	tampered := encoded[:len(encoded)-2] + "XX"

	var decoded pageState
	if err := enc.Decode(tampered, true, &decoded); err == nil {
		t.Error("Decode(tampered) error = nil, want error")
	}
}

func TestInvalidFormat(t *testing.T) {
	enc, _ := NewEncoder([]byte("test-key"))

	var decoded pageState
	err := enc.Decode("nosignatureseparator", false, &decoded)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Decode() error = %v, want %v", err, ErrInvalidFormat)
	}

	err = enc.Decode("!!!", true, &decoded)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Decode(sealed) error = %v, want %v", err, ErrInvalidFormat)
	}
}

func TestDifferentKeysCannotDecode(t *testing.T) {
	enc1, _ := NewEncoder([]byte("key-one"))
	enc2, _ := NewEncoder([]byte("key-two"))

	encoded, err := enc1.Encode(pageState{Page: 7}, false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded pageState
	if err := enc2.Decode(encoded, false, &decoded); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Decode() with other key error = %v, want %v", err, ErrSignatureInvalid)
	}
}
