package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/paularlott/mcp"

	"github.com/martinsuchenak/fortimcp/internal/format"
	"github.com/martinsuchenak/fortimcp/internal/fortigate"
	"github.com/martinsuchenak/fortimcp/internal/log"
)

// Device management handlers

func (s *Server) handleListDevices(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	start := time.Now()
	deviceIDs := s.registry.List()
	s.logToolCall("list_devices", "", nil, start, nil)
	return mcp.NewToolResponseText(format.Devices(deviceIDs)), nil
}

func (s *Server) handleGetDeviceStatus(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}

	return s.deviceCall(ctx, "get_device_status", deviceID, nil, func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetSystemStatus(ctx, "")
		if err != nil {
			return "", err
		}
		return format.DeviceStatus(deviceID, payload), nil
	})
}

func (s *Server) handleTestDeviceConnection(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ok, err := s.registry.TestConnection(ctx, deviceID)
	s.logToolCall("test_device_connection", deviceID, nil, start, err)
	if err != nil {
		return mcp.NewToolResponseText(format.ErrorResponse("test_device_connection", deviceID, friendlyMessage(err))), nil
	}

	errMsg := ""
	if !ok {
		errMsg = "device did not respond to status probe"
	}
	return mcp.NewToolResponseText(format.ConnectionTest(deviceID, ok, errMsg)), nil
}

func (s *Server) handleDiscoverVDOMs(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}

	return s.deviceCall(ctx, "discover_vdoms", deviceID, nil, func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetVDOMs(ctx)
		if err != nil {
			return "", err
		}
		return format.VDOMs(deviceID, payload), nil
	})
}

func (s *Server) handleAddDevice(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	host, err := requiredString(req, "host")
	if err != nil {
		return nil, err
	}

	port, err := intParam(req, "port", 0)
	if err != nil {
		return nil, err
	}
	timeout, err := intParam(req, "timeout", 0)
	if err != nil {
		return nil, err
	}
	verifySSL, err := boolParam(req, "verify_ssl", false)
	if err != nil {
		return nil, err
	}
	maxCalls, err := intParam(req, "rate_limit_max_calls", 0)
	if err != nil {
		return nil, err
	}
	windowSeconds, err := intParam(req, "rate_limit_window_seconds", 0)
	if err != nil {
		return nil, err
	}

	cfg := fortigate.DeviceConfig{
		Host:      host,
		Port:      port,
		VDOM:      req.StringOr("vdom", ""),
		APIToken:  req.StringOr("api_token", ""),
		Username:  req.StringOr("username", ""),
		Password:  req.StringOr("password", ""),
		VerifySSL: verifySSL,
		Timeout:   timeout,
		RateLimit: fortigate.RateLimitConfig{
			MaxCalls:      maxCalls,
			WindowSeconds: windowSeconds,
			Mode:          fortigate.LimitMode(req.StringOr("rate_limit_mode", "")),
		},
	}

	start := time.Now()
	addErr := s.registry.Add(deviceID, cfg)
	s.logToolCall("add_device", deviceID, map[string]any{"host": host}, start, addErr)

	if addErr != nil {
		return mcp.NewToolResponseText(format.OperationResult("add_device", deviceID, false, "", friendlyMessage(addErr))), nil
	}
	return mcp.NewToolResponseText(format.OperationResult("add_device", deviceID, true,
		fmt.Sprintf("Device '%s' added successfully", deviceID), "")), nil
}

func (s *Server) handleRemoveDevice(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}

	start := time.Now()
	removeErr := s.registry.Remove(deviceID)
	s.logToolCall("remove_device", deviceID, nil, start, removeErr)

	if removeErr != nil {
		return mcp.NewToolResponseText(format.OperationResult("remove_device", deviceID, false, "", friendlyMessage(removeErr))), nil
	}
	return mcp.NewToolResponseText(format.OperationResult("remove_device", deviceID, true,
		fmt.Sprintf("Device '%s' removed successfully", deviceID), "")), nil
}

// Firewall policy handlers

func (s *Server) handleListFirewallPolicies(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "list_firewall_policies", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetFirewallPolicies(ctx, vdom)
		if err != nil {
			return "", err
		}
		return format.FirewallPolicies(payload), nil
	})
}

func (s *Server) handleCreateFirewallPolicy(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	policy, err := jsonObjectParam(req, "policy_data")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "create_firewall_policy", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		if _, err := client.CreateFirewallPolicy(ctx, policy, vdom); err != nil {
			return "", err
		}
		return format.OperationResult("create_firewall_policy", deviceID, true, "Policy created successfully", ""), nil
	})
}

func (s *Server) handleUpdateFirewallPolicy(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	policyID, err := requiredString(req, "policy_id")
	if err != nil {
		return nil, err
	}
	policy, err := jsonObjectParam(req, "policy_data")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "update_firewall_policy", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		if _, err := client.UpdateFirewallPolicy(ctx, policyID, policy, vdom); err != nil {
			return "", err
		}
		return format.OperationResult("update_firewall_policy", deviceID, true,
			fmt.Sprintf("Policy %s updated successfully", policyID), ""), nil
	})
}

func (s *Server) handleGetFirewallPolicyDetail(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	policyID, err := requiredString(req, "policy_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "get_firewall_policy_detail", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetFirewallPolicy(ctx, policyID, vdom)
		if err != nil {
			return "", err
		}
		return format.JSON(payload, fmt.Sprintf("Policy Detail %s on %s", policyID, deviceID)), nil
	})
}

func (s *Server) handleDeleteFirewallPolicy(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	policyID, err := requiredString(req, "policy_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "delete_firewall_policy", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		if _, err := client.DeleteFirewallPolicy(ctx, policyID, vdom); err != nil {
			return "", err
		}
		return format.OperationResult("delete_firewall_policy", deviceID, true,
			fmt.Sprintf("Policy %s deleted successfully", policyID), ""), nil
	})
}

// Network object handlers

func (s *Server) handleListAddressObjects(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "list_address_objects", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetAddressObjects(ctx, vdom)
		if err != nil {
			return "", err
		}
		return format.AddressObjects(payload), nil
	})
}

func (s *Server) handleCreateAddressObject(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	address, err := jsonObjectParam(req, "address_data")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "create_address_object", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		if _, err := client.CreateAddressObject(ctx, address, vdom); err != nil {
			return "", err
		}
		return format.OperationResult("create_address_object", deviceID, true, "Address object created successfully", ""), nil
	})
}

func (s *Server) handleListServiceObjects(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "list_service_objects", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetServiceObjects(ctx, vdom)
		if err != nil {
			return "", err
		}
		return format.ServiceObjects(payload), nil
	})
}

func (s *Server) handleCreateServiceObject(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	service, err := jsonObjectParam(req, "service_data")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "create_service_object", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		if _, err := client.CreateServiceObject(ctx, service, vdom); err != nil {
			return "", err
		}
		return format.OperationResult("create_service_object", deviceID, true, "Service object created successfully", ""), nil
	})
}

// Network visibility handlers

func (s *Server) handleGetDHCPLeases(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "get_dhcp_leases", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetDHCPLeases(ctx, vdom)
		if err != nil {
			return "", err
		}
		return format.JSON(payload, "DHCP Leases"), nil
	})
}

func (s *Server) handleGetARPTable(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "get_arp_table", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetARPTable(ctx, vdom)
		if err != nil {
			return "", err
		}
		return format.JSON(payload, "ARP Table"), nil
	})
}

func (s *Server) handleGetSessionTable(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	count, err := intParam(req, "count", 50)
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "get_session_table", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetSessionTable(ctx, count, vdom)
		if err != nil {
			return "", err
		}
		return format.JSON(payload, "Session Table"), nil
	})
}

func (s *Server) handleGetDeviceInventory(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "get_device_inventory", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetDeviceInventory(ctx, vdom)
		if err != nil {
			return "", err
		}
		return format.JSON(payload, "Device Inventory"), nil
	})
}

// Routing handlers

func (s *Server) handleListStaticRoutes(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "list_static_routes", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetStaticRoutes(ctx, vdom)
		if err != nil {
			return "", err
		}
		return format.StaticRoutes(payload), nil
	})
}

func (s *Server) handleCreateStaticRoute(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	route, err := jsonObjectParam(req, "route_data")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "create_static_route", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		if _, err := client.CreateStaticRoute(ctx, route, vdom); err != nil {
			return "", err
		}
		return format.OperationResult("create_static_route", deviceID, true, "Static route created successfully", ""), nil
	})
}

func (s *Server) handleUpdateStaticRoute(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	routeID, err := requiredString(req, "route_id")
	if err != nil {
		return nil, err
	}
	route, err := jsonObjectParam(req, "route_data")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "update_static_route", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		if _, err := client.UpdateStaticRoute(ctx, routeID, route, vdom); err != nil {
			return "", err
		}
		return format.OperationResult("update_static_route", deviceID, true,
			fmt.Sprintf("Static route %s updated successfully", routeID), ""), nil
	})
}

func (s *Server) handleDeleteStaticRoute(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	routeID, err := requiredString(req, "route_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "delete_static_route", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		if _, err := client.DeleteStaticRoute(ctx, routeID, vdom); err != nil {
			return "", err
		}
		return format.OperationResult("delete_static_route", deviceID, true,
			fmt.Sprintf("Static route %s deleted successfully", routeID), ""), nil
	})
}

func (s *Server) handleGetStaticRouteDetail(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	routeID, err := requiredString(req, "route_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "get_static_route_detail", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetStaticRoute(ctx, routeID, vdom)
		if err != nil {
			return "", err
		}
		return format.JSON(payload, fmt.Sprintf("Static Route %s on %s", routeID, deviceID)), nil
	})
}

func (s *Server) handleGetRoutingTable(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "get_routing_table", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetRoutingTable(ctx, vdom)
		if err != nil {
			return "", err
		}
		return format.RoutingTable(payload), nil
	})
}

func (s *Server) handleListInterfaces(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "list_interfaces", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetInterfaces(ctx, vdom)
		if err != nil {
			return "", err
		}
		return format.Interfaces(payload), nil
	})
}

func (s *Server) handleGetInterfaceStatus(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	name, err := requiredString(req, "interface_name")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "get_interface_status", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetInterface(ctx, name, vdom)
		if err != nil {
			return "", err
		}
		return format.JSON(payload, fmt.Sprintf("Interface %s on %s", name, deviceID)), nil
	})
}

// Virtual IP handlers

func (s *Server) handleListVirtualIPs(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "list_virtual_ips", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetVirtualIPs(ctx, vdom)
		if err != nil {
			return "", err
		}
		return format.VirtualIPs(payload), nil
	})
}

func (s *Server) handleCreateVirtualIP(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	name, err := requiredString(req, "name")
	if err != nil {
		return nil, err
	}
	extip, err := requiredString(req, "extip")
	if err != nil {
		return nil, err
	}
	mappedip, err := requiredString(req, "mappedip")
	if err != nil {
		return nil, err
	}
	extintf, err := requiredString(req, "extintf")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	vip := map[string]any{
		"name":        name,
		"extip":       extip,
		"mappedip":    mappedip,
		"extintf":     extintf,
		"portforward": req.StringOr("portforward", "disable"),
	}
	if protocol := req.StringOr("protocol", "tcp"); protocol != "" {
		vip["protocol"] = protocol
	}
	if extport := req.StringOr("extport", ""); extport != "" {
		vip["extport"] = extport
	}
	if mappedport := req.StringOr("mappedport", ""); mappedport != "" {
		vip["mappedport"] = mappedport
	}

	return s.deviceCall(ctx, "create_virtual_ip", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		if _, err := client.CreateVirtualIP(ctx, vip, vdom); err != nil {
			return "", err
		}
		return format.OperationResult("create_virtual_ip", deviceID, true,
			fmt.Sprintf("Virtual IP '%s' created successfully", name), ""), nil
	})
}

func (s *Server) handleUpdateVirtualIP(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	name, err := requiredString(req, "name")
	if err != nil {
		return nil, err
	}
	vip, err := jsonObjectParam(req, "vip_data")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "update_virtual_ip", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		if _, err := client.UpdateVirtualIP(ctx, name, vip, vdom); err != nil {
			return "", err
		}
		return format.OperationResult("update_virtual_ip", deviceID, true,
			fmt.Sprintf("Virtual IP '%s' updated successfully", name), ""), nil
	})
}

func (s *Server) handleGetVirtualIPDetail(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	name, err := requiredString(req, "name")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "get_virtual_ip_detail", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		payload, err := client.GetVirtualIP(ctx, name, vdom)
		if err != nil {
			return "", err
		}
		return format.JSON(payload, fmt.Sprintf("Virtual IP %s on %s", name, deviceID)), nil
	})
}

func (s *Server) handleDeleteVirtualIP(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	deviceID, err := requiredString(req, "device_id")
	if err != nil {
		return nil, err
	}
	name, err := requiredString(req, "name")
	if err != nil {
		return nil, err
	}
	vdom := req.StringOr("vdom", "")

	return s.deviceCall(ctx, "delete_virtual_ip", deviceID, vdomArgs(vdom), func(ctx context.Context, client *fortigate.Client) (string, error) {
		if _, err := client.DeleteVirtualIP(ctx, name, vdom); err != nil {
			return "", err
		}
		return format.OperationResult("delete_virtual_ip", deviceID, true,
			fmt.Sprintf("Virtual IP '%s' deleted successfully", name), ""), nil
	})
}

// System handlers

func (s *Server) handleHealthCheck(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	details := map[string]any{
		"registered_devices": len(s.registry.List()),
		"server_version":     s.version,
		"uptime":             time.Since(s.startedAt).Round(time.Second).String(),
		"timestamp":          time.Now().Format(time.RFC3339),
	}

	status := "healthy"
	if s.trail != nil {
		failures, err := s.trail.RecentFailures(time.Hour)
		if err != nil {
			log.Error("Failed to query recent failures", "error", err)
		} else {
			details["failures_last_hour"] = failures
			if failures > 0 {
				status = "degraded"
			}
		}
	}

	return mcp.NewToolResponseText(format.HealthStatus(status, details)), nil
}

func (s *Server) handleGetServerInfo(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	info := map[string]any{
		"name":               s.serverName,
		"version":            s.version,
		"registered_devices": len(s.registry.List()),
		"available_tools": []string{
			"Device Management (6 tools)",
			"Firewall Policy Management (5 tools)",
			"Network Objects and Visibility (8 tools)",
			"Routing Management (8 tools)",
			"Virtual IP Management (5 tools)",
			"System Tools (2 tools)",
		},
	}
	return mcp.NewToolResponseText(format.JSON(info, "Server Information")), nil
}

func vdomArgs(vdom string) map[string]any {
	if vdom == "" {
		return nil
	}
	return map[string]any{"vdom": vdom}
}
