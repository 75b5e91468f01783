// Package format renders API payloads into the plain-text summaries
// returned by the MCP tools. Payloads are treated as opaque nested maps;
// only well-known display fields are picked out, everything else falls
// back to JSON.
package format

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Devices renders the registered device id list.
func Devices(deviceIDs []string) string {
	if len(deviceIDs) == 0 {
		return "No FortiGate devices configured"
	}

	var b strings.Builder
	b.WriteString("Registered FortiGate Devices:\n\n")
	for _, id := range deviceIDs {
		fmt.Fprintf(&b, "  - %s\n", id)
	}
	return b.String()
}

// DeviceStatus renders a system status payload for one device.
func DeviceStatus(deviceID string, payload map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Device Status: %s\n\n", deviceID)

	found := false
	for _, key := range []string{"hostname", "version", "serial", "model", "status"} {
		if v, ok := payload[key]; ok {
			fmt.Fprintf(&b, "%s: %v\n", titleCase(key), v)
			found = true
		}
	}
	if !found {
		b.WriteString(JSON(payload, ""))
	}
	return b.String()
}

// ConnectionTest renders the outcome of a connectivity probe.
func ConnectionTest(deviceID string, ok bool, errMsg string) string {
	if ok {
		return fmt.Sprintf("Connection test for device '%s': OK", deviceID)
	}
	if errMsg != "" {
		return fmt.Sprintf("Connection test for device '%s': FAILED - %s", deviceID, errMsg)
	}
	return fmt.Sprintf("Connection test for device '%s': FAILED", deviceID)
}

// VDOMs renders the virtual domain list of a device.
func VDOMs(deviceID string, payload map[string]any) string {
	results := resultsList(payload)
	if len(results) == 0 {
		return fmt.Sprintf("VDOMs on %s:\n\nNo VDOMs found", deviceID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "VDOMs on %s:\n\n", deviceID)
	for _, item := range results {
		fmt.Fprintf(&b, "  - %v\n", item["name"])
	}
	return b.String()
}

// FirewallPolicies renders a policy list payload.
func FirewallPolicies(payload map[string]any) string {
	results := resultsList(payload)
	if len(results) == 0 {
		return "Firewall Policies:\n\nNo firewall policies found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Firewall Policies (%d):\n\n", len(results))
	for _, policy := range results {
		fmt.Fprintf(&b, "[%v] %v\n", policy["policyid"], stringOr(policy, "name", "(unnamed)"))
		fmt.Fprintf(&b, "  %s -> %s\n", nameList(policy["srcintf"]), nameList(policy["dstintf"]))
		fmt.Fprintf(&b, "  Source: %s  Destination: %s\n", nameList(policy["srcaddr"]), nameList(policy["dstaddr"]))
		fmt.Fprintf(&b, "  Service: %s  Action: %v  Status: %v\n\n",
			nameList(policy["service"]), policy["action"], policy["status"])
	}
	return b.String()
}

// AddressObjects renders an address object list payload.
func AddressObjects(payload map[string]any) string {
	results := resultsList(payload)
	if len(results) == 0 {
		return "Address Objects:\n\nNo address objects found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Address Objects (%d):\n\n", len(results))
	for _, addr := range results {
		fmt.Fprintf(&b, "  - %v", addr["name"])
		if subnet, ok := addr["subnet"]; ok {
			fmt.Fprintf(&b, " (%v)", subnet)
		}
		if comment := stringOr(addr, "comment", ""); comment != "" {
			fmt.Fprintf(&b, " # %s", comment)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ServiceObjects renders a service object list payload.
func ServiceObjects(payload map[string]any) string {
	results := resultsList(payload)
	if len(results) == 0 {
		return "Service Objects:\n\nNo service objects found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Service Objects (%d):\n\n", len(results))
	for _, svc := range results {
		fmt.Fprintf(&b, "  - %v", svc["name"])
		if tcp := stringOr(svc, "tcp-portrange", ""); tcp != "" {
			fmt.Fprintf(&b, " tcp:%s", tcp)
		}
		if udp := stringOr(svc, "udp-portrange", ""); udp != "" {
			fmt.Fprintf(&b, " udp:%s", udp)
		}
		if proto := stringOr(svc, "protocol", ""); proto != "" {
			fmt.Fprintf(&b, " (%s)", proto)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// StaticRoutes renders a static route list payload.
func StaticRoutes(payload map[string]any) string {
	results := resultsList(payload)
	if len(results) == 0 {
		return "Static Routes:\n\nNo static routes found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Static Routes (%d):\n\n", len(results))
	for _, route := range results {
		fmt.Fprintf(&b, "[%v] %v via %v dev %v", route["seq-num"], route["dst"], route["gateway"], route["device"])
		if distance, ok := route["distance"]; ok {
			fmt.Fprintf(&b, " distance %v", distance)
		}
		if status := stringOr(route, "status", ""); status != "" {
			fmt.Fprintf(&b, " (%s)", status)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RoutingTable renders an active routing table payload.
func RoutingTable(payload map[string]any) string {
	results := resultsList(payload)
	if len(results) == 0 {
		return "Routing Table:\n\nNo routes found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Routing Table (%d entries):\n\n", len(results))
	for _, route := range results {
		fmt.Fprintf(&b, "  %v via %v dev %v type %v\n",
			route["ip_mask"], route["gateway"], route["interface"], route["type"])
	}
	return b.String()
}

// Interfaces renders an interface list payload.
func Interfaces(payload map[string]any) string {
	results := resultsList(payload)
	if len(results) == 0 {
		return "Interfaces:\n\nNo interfaces found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Interfaces (%d):\n\n", len(results))
	for _, iface := range results {
		fmt.Fprintf(&b, "  - %v [%v]", iface["name"], stringOr(iface, "status", "unknown"))
		if ip := stringOr(iface, "ip", ""); ip != "" && ip != "0.0.0.0 0.0.0.0" {
			fmt.Fprintf(&b, " %s", ip)
		}
		if typ := stringOr(iface, "type", ""); typ != "" {
			fmt.Fprintf(&b, " (%s)", typ)
		}
		if alias := stringOr(iface, "alias", ""); alias != "" {
			fmt.Fprintf(&b, " alias=%s", alias)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// VirtualIPs renders a virtual IP list payload.
func VirtualIPs(payload map[string]any) string {
	results := resultsList(payload)
	if len(results) == 0 {
		return "Virtual IPs:\n\nNo virtual IPs found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Virtual IPs (%d):\n\n", len(results))
	for _, vip := range results {
		fmt.Fprintf(&b, "  - %v: %v -> %v", vip["name"], vip["extip"], mappedIPs(vip["mappedip"]))
		if pf := stringOr(vip, "portforward", ""); pf == "enable" {
			fmt.Fprintf(&b, " (%v %v->%v)", vip["protocol"], vip["extport"], vip["mappedport"])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// OperationResult renders the outcome of a mutating operation.
func OperationResult(operation, deviceID string, success bool, details, errMsg string) string {
	if success {
		if details != "" {
			return fmt.Sprintf("%s on device '%s': SUCCESS - %s", operation, deviceID, details)
		}
		return fmt.Sprintf("%s on device '%s': SUCCESS", operation, deviceID)
	}
	return fmt.Sprintf("%s on device '%s': FAILED - %s", operation, deviceID, errMsg)
}

// ErrorResponse renders a failed operation for the tool caller.
func ErrorResponse(operation, deviceID, errMsg string) string {
	return fmt.Sprintf("Failed to %s on device '%s': %s", operation, deviceID, errMsg)
}

// HealthStatus renders the server health summary.
func HealthStatus(status string, details map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Server health: %s\n\n", status)

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, details[k])
	}
	return b.String()
}

// JSON renders arbitrary payloads as indented JSON with an optional title.
func JSON(data any, title string) string {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	if title != "" {
		return title + ":\n\n" + string(raw)
	}
	return string(raw)
}

// resultsList extracts the "results" array common to FortiGate list
// responses. A payload whose results is a single object yields a one
// element list.
func resultsList(payload map[string]any) []map[string]any {
	raw, ok := payload["results"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []any:
		items := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items
	case map[string]any:
		return []map[string]any{v}
	default:
		return nil
	}
}

// nameList renders FortiGate member lists like [{"name":"port1"}].
func nameList(raw any) string {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return "-"
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			names = append(names, fmt.Sprintf("%v", m["name"]))
		}
	}
	return strings.Join(names, ", ")
}

func mappedIPs(raw any) string {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return fmt.Sprintf("%v", raw)
	}

	ips := make([]string, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			ips = append(ips, fmt.Sprintf("%v", m["range"]))
		}
	}
	return strings.Join(ips, ", ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func stringOr(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
