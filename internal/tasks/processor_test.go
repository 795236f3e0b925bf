package tasks

import "testing"

func TestDecodePayload(t *testing.T) {
	values := map[string]interface{}{
		"type":   "avatar",
		"userId": "user-1",
		"object": "avatars/user-1-1700000000.png",
	}

	var payload TaskPayload
	if err := decodePayload(values, &payload); err != nil {
		t.Fatalf("decodePayload: %v", err)
	}
	if payload.Type != "avatar" || payload.UserID != "user-1" || payload.Object != "avatars/user-1-1700000000.png" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestThumbKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"avatars/user-1-1700000000.png", "avatars/thumbs/user-1-1700000000.png"},
		{"plain.png", "thumbs/plain.png"},
	}
	for _, tt := range tests {
		if got := thumbKey(tt.in); got != tt.want {
			t.Errorf("thumbKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOwnerOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"avatars/2aBcDeFg-1700000000.png", "2aBcDeFg"},
		{"avatars/user-with-dashes-1700000000.jpg", "user-with-dashes"},
		{"avatars/nodash.png", "nodash.png"},
	}
	for _, tt := range tests {
		if got := ownerOf(tt.in); got != tt.want {
			t.Errorf("ownerOf(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
