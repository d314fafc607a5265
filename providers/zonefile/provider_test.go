package zonefile

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"testing"
	"time"

	"gitlab.bluewillows.net/root/wgdisco/pkg/provider"
	"gitlab.bluewillows.net/root/wgdisco/pkg/sshutil"
)

const testZone = `$ORIGIN example.com.
@ 3600 IN SOA ns1.example.com. admin.example.com. 2024010100 7200 3600 1209600 300
@ 3600 IN NS ns1.example.com.
ns1 3600 IN A 192.0.2.53
node1 300 IN A 192.0.2.1
`

// memFS is an in-memory sshutil.FileSystem.
type memFS struct {
	files   map[string][]byte
	writes  int
	renames int
}

func newMemFS() *memFS {
	return &memFS{files: make(map[string][]byte)}
}

func (m *memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return data, nil
}

func (m *memFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	m.files[path] = append([]byte(nil), data...)
	m.writes++
	return nil
}

func (m *memFS) Rename(oldPath, newPath string) error {
	data, ok := m.files[oldPath]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldPath, Err: fs.ErrNotExist}
	}
	m.files[newPath] = data
	delete(m.files, oldPath)
	m.renames++
	return nil
}

func (m *memFS) Stat(path string) (os.FileInfo, error) {
	if _, ok := m.files[path]; !ok {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return nil, nil
}

// recordingRunner records executed commands.
type recordingRunner struct {
	commands []string
	err      error
}

func (r *recordingRunner) Run(ctx context.Context, command string) error {
	r.commands = append(r.commands, command)
	return r.err
}

func newTestProvider(t *testing.T, mfs *memFS, runner *recordingRunner) *Provider {
	t.Helper()

	mfs.files["/etc/bind/db.example.com"] = []byte(testZone)

	config := &Config{
		Path:          "/etc/bind/db.example.com",
		Zone:          "example.com.",
		ReloadCommand: "rndc reload example.com",
		SSH:           &sshutil.Config{Host: "ns1.example.com", User: "dns", Password: "x"},
	}

	p, err := New("bind", config, WithFileSystem(mfs), WithCommandRunner(runner))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	p.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestListExisting(t *testing.T) {
	p := newTestProvider(t, newMemFS(), &recordingRunner{})

	contents, err := p.List(context.Background(), "node1.example.com", provider.RecordTypeA)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(contents) != 1 || contents[0] != "192.0.2.1" {
		t.Errorf("List() = %v, want [192.0.2.1]", contents)
	}
}

func TestListAbsentReturnsEmpty(t *testing.T) {
	p := newTestProvider(t, newMemFS(), &recordingRunner{})

	contents, err := p.List(context.Background(), "missing.example.com", provider.RecordTypeTXT)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(contents) != 0 {
		t.Errorf("List() = %v, want empty", contents)
	}
}

func TestCreateWritesAtomicallyAndReloads(t *testing.T) {
	mfs := newMemFS()
	runner := &recordingRunner{}
	p := newTestProvider(t, mfs, runner)
	ctx := context.Background()

	err := p.Create(ctx, "node2._wireguard._udp.example.com", provider.RecordTypeSRV, "0 0 51820 node2.example.com.", 300)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if mfs.renames != 1 {
		t.Errorf("renames = %d, want 1 (temp file swap)", mfs.renames)
	}
	if _, ok := mfs.files["/etc/bind/db.example.com.tmp"]; ok {
		t.Error("temp file left behind after rename")
	}
	if len(runner.commands) != 1 || runner.commands[0] != "rndc reload example.com" {
		t.Errorf("reload commands = %v", runner.commands)
	}

	contents, err := p.List(ctx, "node2._wireguard._udp.example.com", provider.RecordTypeSRV)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(contents) != 1 || contents[0] != "0 0 51820 node2.example.com." {
		t.Errorf("List() = %v", contents)
	}
}

func TestCreateBumpsSerial(t *testing.T) {
	mfs := newMemFS()
	p := newTestProvider(t, mfs, &recordingRunner{})

	if err := p.Create(context.Background(), "node2.example.com", provider.RecordTypeA, "192.0.2.2", 300); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	data := string(mfs.files["/etc/bind/db.example.com"])
	if !strings.Contains(data, "2024060101") {
		t.Errorf("serial not bumped to date-based value, zone:\n%s", data)
	}
}

func TestUpdateReplacesRecordSet(t *testing.T) {
	mfs := newMemFS()
	p := newTestProvider(t, mfs, &recordingRunner{})
	ctx := context.Background()

	name := "_wireguard._udp.example.com"
	if err := p.Create(ctx, name, provider.RecordTypePTR, "old._wireguard._udp.example.com.", 300); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	want := []string{"node1._wireguard._udp.example.com.", "node2._wireguard._udp.example.com."}
	if err := p.Update(ctx, name, provider.RecordTypePTR, want, 300); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	contents, err := p.List(ctx, name, provider.RecordTypePTR)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(contents) != 2 {
		t.Fatalf("List() = %v, want 2 values", contents)
	}
	for i, w := range want {
		if contents[i] != w {
			t.Errorf("contents[%d] = %q, want %q", i, contents[i], w)
		}
	}
}

func TestUpdatePreservesUnrelatedRecords(t *testing.T) {
	mfs := newMemFS()
	p := newTestProvider(t, mfs, &recordingRunner{})
	ctx := context.Background()

	if err := p.Update(ctx, "node1.example.com", provider.RecordTypeA, []string{"192.0.2.99"}, 300); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	data := string(mfs.files["/etc/bind/db.example.com"])
	if !strings.Contains(data, "ns1.example.com.") {
		t.Errorf("NS glue lost after update:\n%s", data)
	}
	if !strings.Contains(data, "192.0.2.99") {
		t.Errorf("new A value missing:\n%s", data)
	}
	if strings.Contains(data, "192.0.2.1\n") {
		t.Errorf("old A value survived update:\n%s", data)
	}
}

func TestDeleteRemovesRecordSet(t *testing.T) {
	mfs := newMemFS()
	runner := &recordingRunner{}
	p := newTestProvider(t, mfs, runner)
	ctx := context.Background()

	if err := p.Delete(ctx, "node1.example.com", provider.RecordTypeA); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	contents, err := p.List(ctx, "node1.example.com", provider.RecordTypeA)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(contents) != 0 {
		t.Errorf("record survived Delete: %v", contents)
	}
	if len(runner.commands) != 1 {
		t.Errorf("reload not run after delete: %v", runner.commands)
	}
}

func TestDeleteAbsentIsNoOp(t *testing.T) {
	mfs := newMemFS()
	runner := &recordingRunner{}
	p := newTestProvider(t, mfs, runner)

	if err := p.Delete(context.Background(), "missing.example.com", provider.RecordTypeTXT); err != nil {
		t.Errorf("Delete() of absent record set returned error: %v", err)
	}
	if mfs.writes != 0 {
		t.Errorf("zone file rewritten for a no-op delete")
	}
	if len(runner.commands) != 0 {
		t.Errorf("reload ran for a no-op delete: %v", runner.commands)
	}
}

func TestReloadFailureSurfaces(t *testing.T) {
	mfs := newMemFS()
	runner := &recordingRunner{err: os.ErrPermission}
	p := newTestProvider(t, mfs, runner)

	err := p.Create(context.Background(), "node2.example.com", provider.RecordTypeA, "192.0.2.2", 300)
	if err == nil {
		t.Fatal("expected error when reload command fails")
	}
	if !strings.Contains(err.Error(), "reload failed") {
		t.Errorf("error = %v, want reload failure context", err)
	}
}

func TestPing(t *testing.T) {
	mfs := newMemFS()
	p := newTestProvider(t, mfs, &recordingRunner{})

	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}

	delete(mfs.files, "/etc/bind/db.example.com")
	if err := p.Ping(context.Background()); err == nil {
		t.Error("Ping() succeeded with missing zone file")
	}
}

func TestLoadConfigFromMap(t *testing.T) {
	cfg, err := LoadConfigFromMap(map[string]string{
		"path":           "/etc/bind/db.example.com",
		"zone":           "example.com",
		"reload_command": "rndc reload example.com",
		"ssh_host":       "ns1.example.com",
		"ssh_user":       "dns",
		"ssh_key_file":   "/home/dns/.ssh/id_ed25519",
	})
	if err != nil {
		t.Fatalf("LoadConfigFromMap() error: %v", err)
	}
	if cfg.Zone != "example.com." {
		t.Errorf("Zone = %q, want trailing dot added", cfg.Zone)
	}
	if cfg.SSH.Host != "ns1.example.com" {
		t.Errorf("SSH.Host = %q", cfg.SSH.Host)
	}
}

func TestLoadConfigFromMapMissingRequired(t *testing.T) {
	if _, err := LoadConfigFromMap(map[string]string{
		"zone":         "example.com",
		"ssh_host":     "ns1.example.com",
		"ssh_user":     "dns",
		"ssh_password": "x",
	}); err == nil {
		t.Error("expected error for missing path")
	}

	if _, err := LoadConfigFromMap(map[string]string{
		"path": "/etc/bind/db.example.com",
		"zone": "example.com",
	}); err == nil {
		t.Error("expected error for missing ssh settings")
	}
}
