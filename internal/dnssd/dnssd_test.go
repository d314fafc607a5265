package dnssd

import (
	"errors"
	"testing"
)

func TestNames(t *testing.T) {
	if got := ServiceName("example.com"); got != "_wireguard._udp.example.com" {
		t.Errorf("ServiceName() = %q", got)
	}
	if got := InstanceName("node1", "example.com"); got != "node1._wireguard._udp.example.com" {
		t.Errorf("InstanceName() = %q", got)
	}
}

func TestSRVContent(t *testing.T) {
	got := SRVContent("node1._wireguard._udp.example.com")
	want := "0 0 51820 node1._wireguard._udp.example.com"
	if got != want {
		t.Errorf("SRVContent() = %q, want %q", got, want)
	}
}

func TestFormatTXT(t *testing.T) {
	tests := []struct {
		name      string
		publicKey string
		allowed   string
		want      string
	}{
		{
			name:      "without allowed list",
			publicKey: "K1",
			want:      `"txtvers=1" "pub=K1"`,
		},
		{
			name:      "with allowed list",
			publicKey: "K1",
			allowed:   "10.0.0.0/24,10.1.0.0/24",
			want:      `"txtvers=1" "pub=K1" "allowed=10.0.0.0/24,10.1.0.0/24"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTXT(tt.publicKey, tt.allowed); got != tt.want {
				t.Errorf("FormatTXT() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTXT(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     TXTFields
		wantErr  error
	}{
		{
			name:     "valid without allowed",
			segments: []string{"txtvers=1", "pub=K1"},
			want:     TXTFields{Version: "1", PublicKey: "K1"},
		},
		{
			name:     "valid with allowed",
			segments: []string{"txtvers=1", "pub=K1", "allowed=10.0.0.0/24"},
			want:     TXTFields{Version: "1", PublicKey: "K1", Allowed: "10.0.0.0/24"},
		},
		{
			name:     "unknown keys ignored",
			segments: []string{"txtvers=1", "pub=K1", "extra=whatever"},
			want:     TXTFields{Version: "1", PublicKey: "K1"},
		},
		{
			name:     "value containing equals sign",
			segments: []string{"txtvers=1", "pub=abc=="},
			want:     TXTFields{Version: "1", PublicKey: "abc=="},
		},
		{
			name:     "wrong version",
			segments: []string{"txtvers=2", "pub=K1"},
			wantErr:  ErrUnknownVersion,
		},
		{
			name:     "missing version",
			segments: []string{"pub=K1"},
			wantErr:  ErrUnknownVersion,
		},
		{
			name:     "missing public key",
			segments: []string{"txtvers=1"},
			wantErr:  ErrMissingPublicKey,
		},
		{
			name:     "malformed segment",
			segments: []string{"txtvers=1", "garbage"},
			wantErr:  ErrMalformedPair,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTXT(tt.segments)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseTXT() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTXT() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTXT() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
