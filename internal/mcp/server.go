package mcp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paularlott/mcp"
	"golang.org/x/crypto/bcrypt"

	"github.com/martinsuchenak/fortimcp/internal/audit"
	"github.com/martinsuchenak/fortimcp/internal/format"
	"github.com/martinsuchenak/fortimcp/internal/fortigate"
	"github.com/martinsuchenak/fortimcp/internal/log"
)

// Server wraps the MCP server with the FortiGate device registry. Tools
// are registered once, from a static table, at construction.
type Server struct {
	mcpServer   *mcp.Server
	registry    *fortigate.Registry
	trail       *audit.Store // may be nil
	serverName  string
	version     string
	bearerToken string
	startedAt   time.Time
}

// NewServer creates the MCP server for FortiGate management. trail may be
// nil when auditing is disabled; bearerToken may be empty to disable
// authentication, plain text, or a bcrypt hash.
func NewServer(registry *fortigate.Registry, trail *audit.Store, serverName, version, bearerToken string) *Server {
	s := &Server{
		mcpServer:   mcp.NewServer(serverName, version),
		registry:    registry,
		trail:       trail,
		serverName:  serverName,
		version:     version,
		bearerToken: bearerToken,
		startedAt:   time.Now(),
	}
	s.registerTools()
	return s
}

// registerTools registers every FortiGate management tool.
func (s *Server) registerTools() {
	// Device management tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("list_devices", "List all registered FortiGate devices"),
		s.handleListDevices,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("get_device_status", "Get system status information for a FortiGate device",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
		),
		s.handleGetDeviceStatus,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("test_device_connection", "Test connectivity to a FortiGate device",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
		),
		s.handleTestDeviceConnection,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("discover_vdoms", "Discover virtual domains configured on a FortiGate device",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
		),
		s.handleDiscoverVDOMs,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("add_device", "Register a new FortiGate device at runtime",
			mcp.String("device_id", "Unique device identifier", mcp.Required()),
			mcp.String("host", "FortiGate IP address or hostname", mcp.Required()),
			mcp.String("port", "HTTPS port (default 443)"),
			mcp.String("username", "Username for basic authentication"),
			mcp.String("password", "Password for basic authentication"),
			mcp.String("api_token", "API token (preferred over username/password)"),
			mcp.String("vdom", "Default virtual domain (default root)"),
			mcp.String("verify_ssl", "Verify SSL certificates, true or false (default false)"),
			mcp.String("timeout", "Request timeout in seconds (default 30)"),
			mcp.String("rate_limit_max_calls", "Max API calls per window (default 60)"),
			mcp.String("rate_limit_window_seconds", "Rate limit window in seconds (default 60)"),
			mcp.String("rate_limit_mode", "Rate limit mode, reject or wait (default reject)"),
		),
		s.handleAddDevice,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("remove_device", "Remove a registered FortiGate device",
			mcp.String("device_id", "Device identifier to remove", mcp.Required()),
		),
		s.handleRemoveDevice,
	)

	// Firewall policy tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("list_firewall_policies", "List firewall policies on a FortiGate device",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleListFirewallPolicies,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("create_firewall_policy", "Create a firewall policy",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("policy_data", "Policy configuration as a JSON object", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleCreateFirewallPolicy,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("update_firewall_policy", "Update an existing firewall policy",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("policy_id", "Policy ID to update", mcp.Required()),
			mcp.String("policy_data", "Updated policy configuration as a JSON object", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleUpdateFirewallPolicy,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("get_firewall_policy_detail", "Get detailed information for a specific firewall policy",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("policy_id", "Policy ID to get details for", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleGetFirewallPolicyDetail,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("delete_firewall_policy", "Delete a firewall policy",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("policy_id", "Policy ID to delete", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleDeleteFirewallPolicy,
	)

	// Network object tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("list_address_objects", "List firewall address objects",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleListAddressObjects,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("create_address_object", "Create a firewall address object",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("address_data", "Address object configuration as a JSON object", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleCreateAddressObject,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("list_service_objects", "List custom firewall service objects",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleListServiceObjects,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("create_service_object", "Create a custom firewall service object",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("service_data", "Service object configuration as a JSON object", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleCreateServiceObject,
	)

	// Network visibility tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("get_dhcp_leases", "Get active DHCP leases",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleGetDHCPLeases,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("get_arp_table", "Get the ARP table",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleGetARPTable,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("get_session_table", "Get active firewall sessions",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("count", "Maximum number of sessions to return (default 50)"),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleGetSessionTable,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("get_device_inventory", "Get detected devices behind the FortiGate",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleGetDeviceInventory,
	)

	// Routing tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("list_static_routes", "List configured static routes",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleListStaticRoutes,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("create_static_route", "Create a static route",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("route_data", "Route configuration as a JSON object", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleCreateStaticRoute,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("update_static_route", "Update an existing static route",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("route_id", "Route identifier", mcp.Required()),
			mcp.String("route_data", "Updated route configuration as a JSON object", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleUpdateStaticRoute,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("delete_static_route", "Delete a static route",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("route_id", "Route identifier", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleDeleteStaticRoute,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("get_static_route_detail", "Get detailed information for a specific static route",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("route_id", "Route identifier", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleGetStaticRouteDetail,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("get_routing_table", "Get the active IPv4 routing table",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleGetRoutingTable,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("list_interfaces", "List network interfaces",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleListInterfaces,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("get_interface_status", "Get the status of a specific interface",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("interface_name", "Interface name", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleGetInterfaceStatus,
	)

	// Virtual IP tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("list_virtual_ips", "List virtual IPs (DNAT mappings)",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleListVirtualIPs,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("create_virtual_ip", "Create a virtual IP (DNAT mapping)",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("name", "Virtual IP name", mcp.Required()),
			mcp.String("extip", "External IP address", mcp.Required()),
			mcp.String("mappedip", "Mapped internal IP address", mcp.Required()),
			mcp.String("extintf", "External interface name", mcp.Required()),
			mcp.String("portforward", "Enable or disable port forwarding (default disable)"),
			mcp.String("protocol", "Protocol type (default tcp)"),
			mcp.String("extport", "External port"),
			mcp.String("mappedport", "Mapped port"),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleCreateVirtualIP,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("update_virtual_ip", "Update an existing virtual IP",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("name", "Virtual IP name", mcp.Required()),
			mcp.String("vip_data", "Virtual IP configuration as a JSON object", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleUpdateVirtualIP,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("get_virtual_ip_detail", "Get detailed information for a specific virtual IP",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("name", "Virtual IP name", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleGetVirtualIPDetail,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("delete_virtual_ip", "Delete a virtual IP",
			mcp.String("device_id", "FortiGate device identifier", mcp.Required()),
			mcp.String("name", "Virtual IP name", mcp.Required()),
			mcp.String("vdom", "Virtual domain (defaults to the device's vdom)"),
		),
		s.handleDeleteVirtualIP,
	)

	// System tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("health_check", "Report server health and registered device count"),
		s.handleHealthCheck,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("get_server_info", "Get server name, version and tool inventory"),
		s.handleGetServerInfo,
	)
}

// HandleRequest handles MCP HTTP requests with optional bearer token
// authentication.
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	log.Debug("MCP request received", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

	if s.bearerToken != "" {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			log.Warn("MCP request missing bearer token", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		if !s.tokenMatches(token) {
			log.Warn("MCP request invalid token", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	s.mcpServer.HandleRequest(w, r)
}

// tokenMatches compares a presented token against the configured one. A
// configured value with a bcrypt prefix is treated as a hash; anything
// else is compared in constant time.
func (s *Server) tokenMatches(presented string) bool {
	if strings.HasPrefix(s.bearerToken, "$2a$") ||
		strings.HasPrefix(s.bearerToken, "$2b$") ||
		strings.HasPrefix(s.bearerToken, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(s.bearerToken), []byte(presented)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(s.bearerToken), []byte(presented)) == 1
}

// GetHTTPHandler returns the HTTP handler for the MCP endpoint.
func (s *Server) GetHTTPHandler() http.HandlerFunc {
	return s.HandleRequest
}

// LogStartup logs MCP server startup information.
func (s *Server) LogStartup() {
	log.Info("MCP server initialized", "name", s.serverName, "version", s.version)
	if s.bearerToken != "" {
		log.Info("MCP authentication enabled", "type", "Bearer token")
	} else {
		log.Info("MCP authentication disabled")
	}
	tools := s.mcpServer.ListTools()
	log.Info("MCP tools registered", "count", len(tools))
	for _, tool := range tools {
		log.Debug("MCP tool registered", "name", tool.Name, "description", tool.Description)
	}
}

// deviceCall runs one tool invocation against a device. It resolves the
// client, executes fn, and reports the outcome exactly once to the log and
// the audit trail. Operational failures come back as formatted text so the
// model sees what went wrong; only parameter errors become protocol
// errors.
func (s *Server) deviceCall(ctx context.Context, tool, deviceID string, args map[string]any, fn func(context.Context, *fortigate.Client) (string, error)) (*mcp.ToolResponse, error) {
	start := time.Now()

	client, err := s.registry.Get(deviceID)
	if err == nil {
		var text string
		text, err = fn(ctx, client)
		if err == nil {
			s.logToolCall(tool, deviceID, args, start, nil)
			return mcp.NewToolResponseText(text), nil
		}
	}

	s.logToolCall(tool, deviceID, args, start, err)
	return mcp.NewToolResponseText(format.ErrorResponse(tool, deviceID, friendlyMessage(err))), nil
}

// logToolCall reports one tool invocation to the log and audit trail.
func (s *Server) logToolCall(tool, deviceID string, args map[string]any, start time.Time, err error) {
	duration := time.Since(start)

	if err == nil {
		log.Info("Tool call succeeded", "tool", tool, "device_id", deviceID, "duration_ms", duration.Milliseconds())
	} else {
		log.Error("Tool call failed", "tool", tool, "device_id", deviceID, "duration_ms", duration.Milliseconds(), "error", err)
	}

	if s.trail == nil {
		return
	}

	rec := &audit.Record{
		Tool:       tool,
		DeviceID:   deviceID,
		Success:    err == nil,
		DurationMS: duration.Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if len(args) > 0 {
		if raw, marshalErr := json.Marshal(args); marshalErr == nil {
			rec.Args = string(raw)
		}
	}
	if appendErr := s.trail.Append(rec); appendErr != nil {
		log.Error("Failed to write audit record", "tool", tool, "error", appendErr)
	}
}

// friendlyMessage converts a classified error into operator-facing text.
func friendlyMessage(err error) string {
	apiErr, ok := fortigate.AsAPIError(err)
	if !ok {
		return err.Error()
	}

	switch apiErr.Kind {
	case fortigate.KindAuth:
		if apiErr.StatusCode == 403 {
			return "Permission denied. Insufficient privileges for this operation."
		}
		return "Authentication failed. Check device credentials."
	case fortigate.KindNotFound:
		return apiErr.Message
	case fortigate.KindServer:
		return "FortiGate internal server error. Check device status."
	case fortigate.KindConnectivity:
		return "Connection failed. Check device network settings: " + apiErr.Message
	default:
		return apiErr.Message
	}
}

// requiredString reads a required tool parameter or builds the standard
// invalid-params error.
func requiredString(req *mcp.ToolRequest, name string) (string, error) {
	value, err := req.String(name)
	if err != nil {
		return "", mcp.NewToolErrorInvalidParams(name + " is required: " + err.Error())
	}
	return value, nil
}

// jsonObjectParam parses a tool parameter carrying a JSON object.
func jsonObjectParam(req *mcp.ToolRequest, name string) (map[string]any, error) {
	raw, err := req.String(name)
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams(name + " is required: " + err.Error())
	}

	obj := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, mcp.NewToolErrorInvalidParams(name + " must be a JSON object: " + err.Error())
	}
	return obj, nil
}

// intParam parses an optional numeric parameter passed as a string.
func intParam(req *mcp.ToolRequest, name string, fallback int) (int, error) {
	raw := req.StringOr(name, "")
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, mcp.NewToolErrorInvalidParams(fmt.Sprintf("%s must be an integer: %v", name, err))
	}
	return value, nil
}

// boolParam parses an optional boolean parameter passed as a string.
func boolParam(req *mcp.ToolRequest, name string, fallback bool) (bool, error) {
	raw := req.StringOr(name, "")
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, mcp.NewToolErrorInvalidParams(fmt.Sprintf("%s must be true or false: %v", name, err))
	}
	return value, nil
}
