//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const repoRootRel = ".."   // relative to ./e2e
const mainPkgRel = "./cmd" // main.go lives in cmd/

// seedSQL is applied inside the sqlite container so the binary under test
// reads a file it did not create.
const seedSQL = `
CREATE TABLE station (id INTEGER PRIMARY KEY, station TEXT NOT NULL, name TEXT, latitude FLOAT, longitude FLOAT, elevation FLOAT);
CREATE TABLE measurement (id INTEGER PRIMARY KEY, station TEXT NOT NULL, date TEXT NOT NULL, prcp FLOAT, tobs FLOAT);
INSERT INTO station (station, name, latitude, longitude, elevation) VALUES
  ('USC00519397', 'WAIKIKI 717.2, HI US', 21.2716, -157.8168, 3.0),
  ('USC00519281', 'WAIHEE 837.5, HI US', 21.45167, -157.84889, 32.9);
INSERT INTO measurement (station, date, prcp, tobs) VALUES
  ('USC00519281', '2017-08-21', 0.56, 76),
  ('USC00519281', '2017-08-22', 0.50, 77),
  ('USC00519397', '2017-08-23', 0.00, 81),
  ('USC00519281', '2017-08-23', NULL, 75);
`

func TestSmoke_API(t *testing.T) {
	repoRoot := repoRootPath(t)

	sqlitePath := startSQLite(t)

	bin := buildBinary(t, repoRoot)
	addr := pickFreeAddr(t)

	cmd := exec.Command(bin)
	cmd.Env = append(os.Environ(),
		"APP_ENV=dev",
		"LOG_LEVEL=info",
		"HTTP_ADDR="+addr,
		"SQLITE_DRIVER=sqlite3",
		"SQLITE_PATH="+sqlitePath,
		"SQLITE_READ_ONLY=true",
		"PRECIPITATION_SINCE=2017-08-22",
		"TOBS_SINCE=2017-08-22",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})

	client := &http.Client{Timeout: 2 * time.Second}
	base := "http://" + addr

	waitForOK(t, client, base+"/healthz", 5*time.Second)

	t.Run("healthz", func(t *testing.T) {
		var body map[string]string
		getJSON(t, client, base+"/healthz", http.StatusOK, &body)
		if body["status"] != "ok" {
			t.Fatalf("body.status=%q want=%q", body["status"], "ok")
		}
	})

	t.Run("stations", func(t *testing.T) {
		var body map[string][]any
		getJSON(t, client, base+"/api/v1.0/stations", http.StatusOK, &body)
		if len(body) != 2 || body["USC00519397"][0] != "WAIKIKI 717.2, HI US" {
			t.Fatalf("stations=%v", body)
		}
	})

	t.Run("precipitation", func(t *testing.T) {
		var body map[string][]*float64
		getJSON(t, client, base+"/api/v1.0/precipitation", http.StatusOK, &body)
		if len(body) != 2 || len(body["2017-08-23"]) != 2 {
			t.Fatalf("precipitation=%v", body)
		}
	})

	t.Run("tobs", func(t *testing.T) {
		var body map[string]float64
		getJSON(t, client, base+"/api/v1.0/tobs", http.StatusOK, &body)
		if len(body) != 2 || body["2017-08-23"] != 75 {
			t.Fatalf("tobs=%v", body)
		}
	})

	t.Run("range summary", func(t *testing.T) {
		var body struct {
			Minimum struct {
				Date string
				Temp float64
			}
			Average float64
			Maximum struct {
				Date string
				Temp float64
			}
		}
		getJSON(t, client, base+"/api/v1.0/2017-08-22/2017-08-23", http.StatusOK, &body)
		if body.Minimum.Temp != 75 || body.Maximum.Date != "2017-08-23" || body.Maximum.Temp != 81 {
			t.Fatalf("summary=%+v", body)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		var body map[string]string
		getJSON(t, client, base+"/api/v1.0/2000-01-01", http.StatusNotFound, &body)
		if body["Error"] != "Date is out of data set range." {
			t.Fatalf("body=%v", body)
		}
	})

	stopServer(t, cmd)
}

func getJSON(t *testing.T, client *http.Client, url string, wantStatus int, v any) {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status=%d want=%d", url, resp.StatusCode, wantStatus)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

func startSQLite(t *testing.T) string {
	t.Helper()

	// Host temp dir that will contain hawaii.sqlite
	hostDir := t.TempDir()
	dbPath := filepath.Join(hostDir, "hawaii.sqlite")
	if err := os.WriteFile(filepath.Join(hostDir, "seed.sql"), []byte(seedSQL), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:      "nouchka/sqlite3:latest",
		WorkingDir: "/data",
		// Build the dataset and keep container alive
		Entrypoint: []string{"sh", "-c"},
		Cmd: []string{
			"sqlite3 /data/hawaii.sqlite < /data/seed.sql && " +
				"chmod 0666 /data/hawaii.sqlite && " +
				"echo 'sqlite ready' && " +
				"tail -f /dev/null",
		},

		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Binds = append(hc.Binds, hostDir+":/data")
		},
		WaitingFor: wait.ForLog("sqlite ready").WithStartupTimeout(30 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start sqlite container: %v", err)
	}

	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	// Ensure file exists on host (container created it in the bind mount)
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("sqlite db file not created: %v", err)
	}

	return dbPath
}

func repoRootPath(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	repo := filepath.Clean(filepath.Join(wd, repoRootRel))
	if _, err := os.Stat(filepath.Join(repo, "go.mod")); err != nil {
		t.Fatalf("repo root %q does not contain go.mod: %v", repo, err)
	}

	return repo
}

func buildBinary(t *testing.T, repoRoot string) string {
	t.Helper()

	tmp := t.TempDir()
	out := filepath.Join(tmp, "surfsup")

	build := exec.Command("go", "build", "-o", out, mainPkgRel)
	build.Dir = repoRoot
	build.Env = os.Environ()

	b, err := build.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(b))
	}

	return out
}

func pickFreeAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen :0: %v", err)
	}
	defer ln.Close()

	return ln.Addr().String()
}

func waitForOK(t *testing.T, client *http.Client, url string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server not healthy after %s: %s", timeout, url)
}

func stopServer(t *testing.T, cmd *exec.Cmd) {
	t.Helper()

	_ = cmd.Process.Signal(syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		t.Fatalf("server did not exit in time")
	case err := <-done:
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				t.Fatalf("server exited non-zero: %v", err)
			}
			t.Fatalf("server wait error: %v", err)
		}
	}
}
