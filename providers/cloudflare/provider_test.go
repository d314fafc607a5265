package cloudflare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"gitlab.bluewillows.net/root/wgdisco/pkg/provider"
)

// fakeAPI emulates the small slice of the Cloudflare v4 API the provider uses.
type fakeAPI struct {
	zoneName string
	zoneID   string
	records  map[string]dnsRecord // keyed by record ID
	nextID   int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		zoneName: "example.com",
		zoneID:   "zone-1",
		records:  make(map[string]dnsRecord),
	}
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /user/tokens/verify", func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, map[string]string{"status": "active"})
	})

	mux.HandleFunc("GET /zones", func(w http.ResponseWriter, r *http.Request) {
		var zones []zoneResult
		if r.URL.Query().Get("name") == f.zoneName {
			zones = append(zones, zoneResult{ID: f.zoneID, Name: f.zoneName, Status: "active"})
		}
		writeResult(w, zones)
	})

	mux.HandleFunc("GET /zones/{zone}/dns_records", func(w http.ResponseWriter, r *http.Request) {
		var out []dnsRecord
		for _, rec := range f.records {
			if rec.Type == r.URL.Query().Get("type") && rec.Name == r.URL.Query().Get("name") {
				out = append(out, rec)
			}
		}
		writeResult(w, out)
	})

	mux.HandleFunc("POST /zones/{zone}/dns_records", func(w http.ResponseWriter, r *http.Request) {
		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nextID++
		rec := dnsRecord{
			ID:      fmt.Sprintf("rec-%d", f.nextID),
			Type:    req.Type,
			Name:    req.Name,
			Content: req.Content,
			TTL:     req.TTL,
			ZoneID:  r.PathValue("zone"),
		}
		f.records[rec.ID] = rec
		writeResult(w, rec)
	})

	mux.HandleFunc("DELETE /zones/{zone}/dns_records/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		delete(f.records, id)
		writeResult(w, map[string]string{"id": id})
	})

	return mux
}

func writeResult(w http.ResponseWriter, result any) {
	raw, _ := json.Marshal(result)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Result: raw})
}

func newTestProvider(t *testing.T, api *fakeAPI) *Provider {
	t.Helper()

	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	client := NewClient("test-token", WithAPIEndpoint(server.URL))
	p, err := New("cf", &Config{Token: "test-token", Zone: "example.com"}, WithClient(client))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return p
}

func TestPing(t *testing.T) {
	p := newTestProvider(t, newFakeAPI())

	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestCreateAndList(t *testing.T) {
	p := newTestProvider(t, newFakeAPI())
	ctx := context.Background()

	err := p.Create(ctx, "vpn.example.com", provider.RecordTypeA, "192.0.2.1", 300)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	contents, err := p.List(ctx, "vpn.example.com", provider.RecordTypeA)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(contents) != 1 || contents[0] != "192.0.2.1" {
		t.Errorf("List() = %v, want [192.0.2.1]", contents)
	}
}

func TestListAbsentReturnsEmpty(t *testing.T) {
	p := newTestProvider(t, newFakeAPI())

	contents, err := p.List(context.Background(), "missing.example.com", provider.RecordTypeTXT)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(contents) != 0 {
		t.Errorf("List() = %v, want empty", contents)
	}
}

func TestUpdateReplacesRecordSet(t *testing.T) {
	api := newFakeAPI()
	p := newTestProvider(t, api)
	ctx := context.Background()

	name := "_wireguard._udp.example.com"
	if err := p.Create(ctx, name, provider.RecordTypePTR, "old.example.com", 300); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	want := []string{"node1.example.com", "node2.example.com"}
	if err := p.Update(ctx, name, provider.RecordTypePTR, want, 300); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	contents, err := p.List(ctx, name, provider.RecordTypePTR)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(contents) != 2 {
		t.Fatalf("List() returned %d values, want 2: %v", len(contents), contents)
	}
	got := map[string]bool{}
	for _, c := range contents {
		got[c] = true
	}
	for _, w := range want {
		if !got[w] {
			t.Errorf("missing content %q after Update, got %v", w, contents)
		}
	}
	if got["old.example.com"] {
		t.Error("old content survived Update; Update must replace, not merge")
	}
}

func TestDeleteRemovesAllMatching(t *testing.T) {
	api := newFakeAPI()
	p := newTestProvider(t, api)
	ctx := context.Background()

	name := "node1._wireguard._udp.example.com"
	if err := p.Update(ctx, name, provider.RecordTypeTXT, []string{`"txtvers=1"`, `"pub=abc"`}, 300); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	if err := p.Delete(ctx, name, provider.RecordTypeTXT); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if len(api.records) != 0 {
		t.Errorf("%d records remain after Delete", len(api.records))
	}
}

func TestDeleteAbsentIsNoOp(t *testing.T) {
	p := newTestProvider(t, newFakeAPI())

	if err := p.Delete(context.Background(), "missing.example.com", provider.RecordTypeSRV); err != nil {
		t.Errorf("Delete() of absent record set returned error: %v", err)
	}
}

func TestZoneIDResolvedOnceAndCached(t *testing.T) {
	api := newFakeAPI()
	p := newTestProvider(t, api)
	ctx := context.Background()

	// Deep subdomain resolves to the root zone by stripping labels.
	if _, err := p.List(ctx, "node1._wireguard._udp.example.com", provider.RecordTypeSRV); err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if p.zoneID != api.zoneID {
		t.Errorf("zoneID = %q, want %q", p.zoneID, api.zoneID)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	if _, err := New("cf", &Config{Zone: "example.com"}); err == nil {
		t.Error("expected error for missing token")
	}
	if _, err := New("cf", &Config{Token: "tok"}); err == nil {
		t.Error("expected error for missing zone")
	}
	if _, err := New("cf", nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestFactory(t *testing.T) {
	factory := Factory()

	p, err := factory("cf", map[string]string{
		"token": "test-token",
		"zone":  "example.com",
	})
	if err != nil {
		t.Fatalf("factory error: %v", err)
	}
	if p.Type() != "cloudflare" {
		t.Errorf("Type() = %q", p.Type())
	}
}

func TestUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient("bad-token", WithAPIEndpoint(server.URL))
	p, err := New("cf", &Config{Token: "bad-token", ZoneID: "zone-1"}, WithClient(client))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	err = p.Ping(context.Background())
	if !provider.IsUnauthorized(err) {
		t.Errorf("Ping() error = %v, want ErrUnauthorized", err)
	}
}

func TestLoadConfigFromMapProxied(t *testing.T) {
	cfg, err := LoadConfigFromMap(map[string]string{
		"token":   "tok",
		"zone_id": "zone-1",
		"proxied": "true",
	})
	if err != nil {
		t.Fatalf("LoadConfigFromMap() error: %v", err)
	}
	if !cfg.Proxied {
		t.Error("Proxied = false, want true")
	}

	if _, err := LoadConfigFromMap(map[string]string{
		"token":   "tok",
		"zone_id": "zone-1",
		"proxied": "maybe",
	}); err == nil {
		t.Error("expected error for invalid proxied value")
	}
}

func TestLoadConfigFromMapTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("file-token\n"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}

	cfg, err := LoadConfigFromMap(map[string]string{
		"token_file": path,
		"zone":       "example.com",
	})
	if err != nil {
		t.Fatalf("LoadConfigFromMap() error: %v", err)
	}
	if cfg.Token != "file-token" {
		t.Errorf("Token = %q, want file-token", cfg.Token)
	}
}
