package format

import (
	"strings"
	"testing"
)

func TestDevices(t *testing.T) {
	if got := Devices(nil); !strings.Contains(got, "No FortiGate devices configured") {
		t.Errorf("Devices(nil) = %q", got)
	}

	got := Devices([]string{"fw1", "fw2"})
	for _, want := range []string{"fw1", "fw2", "Registered FortiGate Devices"} {
		if !strings.Contains(got, want) {
			t.Errorf("Devices() missing %q in %q", want, got)
		}
	}
}

func TestDeviceStatus(t *testing.T) {
	got := DeviceStatus("fw1", map[string]any{
		"hostname": "branch-fw",
		"version":  "v7.4.1",
		"serial":   "FGT60F000000",
	})

	for _, want := range []string{"fw1", "Hostname: branch-fw", "Version: v7.4.1", "Serial: FGT60F000000"} {
		if !strings.Contains(got, want) {
			t.Errorf("DeviceStatus() missing %q in %q", want, got)
		}
	}
}

func TestDeviceStatusFallsBackToJSON(t *testing.T) {
	got := DeviceStatus("fw1", map[string]any{"odd_field": 42})
	if !strings.Contains(got, "odd_field") {
		t.Errorf("DeviceStatus() should fall back to JSON, got %q", got)
	}
}

func TestConnectionTest(t *testing.T) {
	if got := ConnectionTest("fw1", true, ""); !strings.Contains(got, "OK") {
		t.Errorf("ConnectionTest() = %q", got)
	}
	got := ConnectionTest("fw1", false, "connection refused")
	if !strings.Contains(got, "FAILED") || !strings.Contains(got, "connection refused") {
		t.Errorf("ConnectionTest() = %q", got)
	}
}

func TestFirewallPolicies(t *testing.T) {
	payload := map[string]any{
		"results": []any{
			map[string]any{
				"policyid": float64(1),
				"name":     "allow-web",
				"srcintf":  []any{map[string]any{"name": "lan"}},
				"dstintf":  []any{map[string]any{"name": "wan1"}},
				"srcaddr":  []any{map[string]any{"name": "all"}},
				"dstaddr":  []any{map[string]any{"name": "all"}},
				"service":  []any{map[string]any{"name": "HTTPS"}, map[string]any{"name": "HTTP"}},
				"action":   "accept",
				"status":   "enable",
			},
		},
	}

	got := FirewallPolicies(payload)
	for _, want := range []string{"[1] allow-web", "lan -> wan1", "HTTPS, HTTP", "accept"} {
		if !strings.Contains(got, want) {
			t.Errorf("FirewallPolicies() missing %q in %q", want, got)
		}
	}

	if got := FirewallPolicies(map[string]any{"results": []any{}}); !strings.Contains(got, "No firewall policies found") {
		t.Errorf("empty list = %q", got)
	}
}

func TestStaticRoutes(t *testing.T) {
	payload := map[string]any{
		"results": []any{
			map[string]any{
				"seq-num": float64(2),
				"dst":     "10.0.0.0 255.0.0.0",
				"gateway": "192.168.1.1",
				"device":  "wan1",
				"status":  "enable",
			},
		},
	}

	got := StaticRoutes(payload)
	for _, want := range []string{"[2]", "10.0.0.0 255.0.0.0", "via 192.168.1.1", "dev wan1"} {
		if !strings.Contains(got, want) {
			t.Errorf("StaticRoutes() missing %q in %q", want, got)
		}
	}
}

func TestVirtualIPs(t *testing.T) {
	payload := map[string]any{
		"results": []any{
			map[string]any{
				"name":        "web-dnat",
				"extip":       "203.0.113.10",
				"mappedip":    []any{map[string]any{"range": "10.0.0.5"}},
				"portforward": "enable",
				"protocol":    "tcp",
				"extport":     "443",
				"mappedport":  "8443",
			},
		},
	}

	got := VirtualIPs(payload)
	for _, want := range []string{"web-dnat", "203.0.113.10 -> 10.0.0.5", "tcp 443->8443"} {
		if !strings.Contains(got, want) {
			t.Errorf("VirtualIPs() missing %q in %q", want, got)
		}
	}
}

func TestInterfaces(t *testing.T) {
	payload := map[string]any{
		"results": []any{
			map[string]any{"name": "port1", "status": "up", "ip": "192.168.1.99 255.255.255.0", "type": "physical"},
			map[string]any{"name": "port2", "status": "down", "ip": "0.0.0.0 0.0.0.0"},
		},
	}

	got := Interfaces(payload)
	if !strings.Contains(got, "port1 [up] 192.168.1.99 255.255.255.0 (physical)") {
		t.Errorf("Interfaces() = %q", got)
	}
	if strings.Contains(got, "0.0.0.0 0.0.0.0") {
		t.Errorf("unset addresses should be omitted: %q", got)
	}
}

func TestResultsListSingleObject(t *testing.T) {
	// Detail endpoints return a single object instead of an array.
	payload := map[string]any{"results": map[string]any{"name": "solo"}}
	items := resultsList(payload)
	if len(items) != 1 || items[0]["name"] != "solo" {
		t.Errorf("resultsList() = %v", items)
	}

	if items := resultsList(map[string]any{}); items != nil {
		t.Errorf("missing results should yield nil, got %v", items)
	}
}

func TestOperationResult(t *testing.T) {
	got := OperationResult("create_firewall_policy", "fw1", true, "Policy created successfully", "")
	if !strings.Contains(got, "SUCCESS") || !strings.Contains(got, "Policy created successfully") {
		t.Errorf("OperationResult() = %q", got)
	}

	got = OperationResult("create_firewall_policy", "fw1", false, "", "permission denied")
	if !strings.Contains(got, "FAILED") || !strings.Contains(got, "permission denied") {
		t.Errorf("OperationResult() = %q", got)
	}
}

func TestErrorResponse(t *testing.T) {
	got := ErrorResponse("list_firewall_policies", "fw1", "Authentication failed. Check device credentials.")
	want := "Failed to list_firewall_policies on device 'fw1': Authentication failed. Check device credentials."
	if got != want {
		t.Errorf("ErrorResponse() = %q, want %q", got, want)
	}
}

func TestHealthStatusSortedKeys(t *testing.T) {
	got := HealthStatus("healthy", map[string]any{
		"registered_devices": 2,
		"failures_last_hour": 0,
	})

	if !strings.Contains(got, "Server health: healthy") {
		t.Errorf("HealthStatus() = %q", got)
	}
	if strings.Index(got, "failures_last_hour") > strings.Index(got, "registered_devices") {
		t.Errorf("keys should be sorted: %q", got)
	}
}

func TestJSON(t *testing.T) {
	got := JSON(map[string]any{"a": 1}, "Title")
	if !strings.HasPrefix(got, "Title:\n\n") || !strings.Contains(got, `"a": 1`) {
		t.Errorf("JSON() = %q", got)
	}
}
