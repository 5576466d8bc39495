package metrics

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServeIfEnabledExposesCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.JudgementsRecorded.Inc()
	port := freePort(t)
	stop := m.ServeIfEnabled(true, port)
	defer stop()

	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
	var body string
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			body = string(data)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !strings.Contains(body, "judgements_recorded_total 1") {
		t.Fatalf("scrape did not expose the judgement counter:\n%s", body)
	}
}

func TestServeIfEnabledDisabled(t *testing.T) {
	m := New(prometheus.NewRegistry())
	port := freePort(t)
	stop := m.ServeIfEnabled(false, port)
	defer stop()
	if _, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", port)); err == nil {
		t.Fatal("no server should listen when metrics are disabled")
	}
}
